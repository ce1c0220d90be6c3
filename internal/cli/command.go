package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/learnword/internal"
	"codeberg.org/snonux/learnword/internal/app"
	"codeberg.org/snonux/learnword/internal/store"
)

// Opener builds the application a subcommand runs against
type Opener func(ctx context.Context, flags *Flags) (*app.App, error)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	return newRootCommand(flags, OpenApp)
}

func newRootCommand(flags *Flags, open Opener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "learnword",
		Short: "English vocabulary trainer",
		Long: `learnword drills English words in five steps: listen, record,
recognise, phonics and spelling. Progress, missed words and learned words
are kept in a local database.

Examples:
  learnword study                 # Study today's words
  learnword play apple            # Pronounce a word
  learnword progress              # Show overall and today's progress
  learnword export -o backup.json # Save all study data`,
		Version:      internal.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cmd.ErrOrStderr(), flags.Verbose)
		},
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	r := &runner{flags: flags, open: open}
	rootCmd.AddCommand(
		r.studyCommand(),
		r.answerCommand(),
		r.progressCommand(),
		r.todayCommand(),
		r.errorsCommand(),
		r.learnedCommand(),
		r.coursesCommand(),
		r.settingsCommand(),
		r.playCommand(),
		r.enginesCommand(),
		r.exportCommand(),
		r.importCommand(),
		r.remindCommand(),
	)
	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	pf := cmd.PersistentFlags()

	// Global flags
	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.learnword.yaml)")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&flags.CourseFile, "courses", "", "Course catalog file (.json, .yaml, .xlsx or .txt; default: built-in courses)")

	// Store flags
	pf.StringVar(&flags.StoreDriver, "store", flags.StoreDriver, "Store backend: sqlite, redis or memory")
	pf.StringVar(&flags.StorePath, "db", flags.StorePath, "SQLite database file")
	pf.StringVar(&flags.RedisURL, "redis-url", "", "Redis URL for the redis store (redis://host:port/db)")

	// Audio flags
	pf.StringVar(&flags.Engines, "engines", flags.Engines, "Audio engines in fallback order: clip, openai, gemini, speech")
	pf.StringVar(&flags.ClipBaseURL, "clip-url", flags.ClipBaseURL, "Base URL of the pronunciation clip service")
	pf.DurationVar(&flags.AudioTimeout, "audio-timeout", flags.AudioTimeout, "Time limit for one engine to produce audio")
	pf.StringVar(&flags.AudioCache, "audio-cache", "", "Audio cache directory (default: user cache dir)")
	pf.StringVar(&flags.OpenAIModel, "openai-model", flags.OpenAIModel, "OpenAI TTS model: tts-1, tts-1-hd, gpt-4o-mini-tts")
	pf.StringVar(&flags.OpenAIVoice, "openai-voice", "", "OpenAI voice: alloy, ash, coral, echo, fable, onyx, nova, sage, shimmer (default: alloy)")
	pf.StringVar(&flags.GeminiVoice, "gemini-voice", "", "Gemini prebuilt voice, e.g. Kore or Puck (default: Kore)")
	pf.StringVar(&flags.ESpeakVoice, "espeak-voice", "", "espeak-ng voice (default: best English voice)")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	viper.BindPFlag("course.file", pf.Lookup("courses"))
	viper.BindPFlag("store.driver", pf.Lookup("store"))
	viper.BindPFlag("store.path", pf.Lookup("db"))
	viper.BindPFlag("store.redis_url", pf.Lookup("redis-url"))
	viper.BindPFlag("audio.engines", pf.Lookup("engines"))
	viper.BindPFlag("audio.clip_base_url", pf.Lookup("clip-url"))
	viper.BindPFlag("audio.timeout", pf.Lookup("audio-timeout"))
	viper.BindPFlag("audio.cache_dir", pf.Lookup("audio-cache"))
	viper.BindPFlag("audio.openai_model", pf.Lookup("openai-model"))
	viper.BindPFlag("audio.openai_voice", pf.Lookup("openai-voice"))
	viper.BindPFlag("audio.gemini_voice", pf.Lookup("gemini-voice"))
	viper.BindPFlag("audio.espeak_voice", pf.Lookup("espeak-voice"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".learnword" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".learnword")
	}

	// Environment variables
	viper.SetEnvPrefix("LEARNWORD")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("using config file", "path", viper.ConfigFileUsed())
	}
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("audio.openai_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("audio.gemini_key")
}

// AppConfig merges flags with the config file and environment. Settings
// present in the config file or environment win over flag defaults; flags
// given on the command line win over both.
func AppConfig(flags *Flags) app.Config {
	config := app.DefaultConfig()
	config.Store = store.Config{
		Driver:   setting("store.driver", flags.StoreDriver),
		Path:     setting("store.path", flags.StorePath),
		RedisURL: setting("store.redis_url", flags.RedisURL),
		Prefix:   store.DefaultConfig().Prefix,
	}
	config.CourseFile = setting("course.file", flags.CourseFile)
	config.Audio = app.AudioConfig{
		Engines:     app.ParseEngines(setting("audio.engines", flags.Engines)),
		CacheDir:    setting("audio.cache_dir", flags.AudioCache),
		Timeout:     flags.AudioTimeout,
		ClipBaseURL: setting("audio.clip_base_url", flags.ClipBaseURL),
		OpenAIKey:   GetOpenAIKey(),
		OpenAIModel: setting("audio.openai_model", flags.OpenAIModel),
		OpenAIVoice: setting("audio.openai_voice", flags.OpenAIVoice),
		GeminiKey:   GetGeminiKey(),
		GeminiVoice: setting("audio.gemini_voice", flags.GeminiVoice),
		ESpeakVoice: setting("audio.espeak_voice", flags.ESpeakVoice),
	}
	if viper.IsSet("audio.timeout") {
		if d := viper.GetDuration("audio.timeout"); d > 0 {
			config.Audio.Timeout = d
		}
	}
	config.Logger = slog.Default()
	return config
}

func setting(key, fallback string) string {
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return fallback
}

// OpenApp builds the application from flags and configuration
func OpenApp(ctx context.Context, flags *Flags) (*app.App, error) {
	return app.New(ctx, AppConfig(flags))
}
