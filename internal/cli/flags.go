package cli

import (
	"os"
	"path/filepath"
	"time"

	"codeberg.org/snonux/learnword/internal/audio"
	"codeberg.org/snonux/learnword/internal/reminder"
)

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile    string
	Verbose    bool
	CourseFile string

	// Store flags
	StoreDriver string
	StorePath   string
	RedisURL    string

	// Audio flags
	Engines      string
	ClipBaseURL  string
	AudioTimeout time.Duration
	AudioCache   string
	OpenAIModel  string
	OpenAIVoice  string
	GeminiVoice  string
	ESpeakVoice  string
	NoAudio      bool
	ListModels   bool

	// Command flags
	Count      int
	Wrong      bool
	Clear      bool
	Output     string
	ReminderAt string
	Once       bool
	DailyGoal  int
	Course     string
	DarkMode   string
	AddMinutes int
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		StoreDriver:  "sqlite",
		StorePath:    DefaultStorePath(),
		Engines:      "clip,speech",
		ClipBaseURL:  audio.DefaultClipBaseURL,
		AudioTimeout: audio.DefaultTimeout,
		OpenAIModel:  "gpt-4o-mini-tts",
		ReminderAt:   reminder.DefaultAt,
	}
}

// DefaultStorePath is the SQLite database under the user's state directory
func DefaultStorePath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "learnword", "learnword.db")
}
