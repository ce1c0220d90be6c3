package app

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"

	"codeberg.org/snonux/learnword/internal/audio"
	"codeberg.org/snonux/learnword/internal/store"
)

// Engine names accepted in AudioConfig.Engines
const (
	EngineClip   = "clip"
	EngineOpenAI = "openai"
	EngineGemini = "gemini"
	EngineSpeech = "speech"
)

// DefaultEngines is the engine order used when none is configured
var DefaultEngines = []string{EngineClip, EngineSpeech}

// AudioConfig selects and configures the audio engines
type AudioConfig struct {
	Engines     []string
	CacheDir    string
	Timeout     time.Duration
	ClipBaseURL string

	OpenAIKey   string
	OpenAIModel string
	OpenAIVoice string

	GeminiKey   string
	GeminiVoice string

	ESpeakVoice string
}

// Config holds everything New needs
type Config struct {
	Store      store.Config
	CourseFile string // empty uses the built-in catalog
	Audio      AudioConfig

	// Player plays resolved audio files; nil uses the platform player
	Player audio.Player

	// MeterProvider receives metrics; nil uses the global provider
	MeterProvider metric.MeterProvider

	Logger *slog.Logger
	Now    func() time.Time
}

// DefaultConfig returns a configuration with a SQLite store and the default
// engine order
func DefaultConfig() Config {
	return Config{
		Store: *store.DefaultConfig(),
		Audio: AudioConfig{
			Engines: DefaultEngines,
			Timeout: audio.DefaultTimeout,
		},
	}
}
