package audio

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/learnword/internal"
)

// OpenAIConfig configures the OpenAI text-to-speech engine
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string  // Optional API base, e.g. for a proxy
	Model       string  // "tts-1", "tts-1-hd", or "gpt-4o-mini-tts"
	Voice       string  // "alloy", "ash", "coral", "echo", "fable", "onyx", "nova", "sage", "shimmer"
	Speed       float64 // 0.25 to 4.0
	Instruction string  // Voice instructions for gpt-4o-mini-tts
	CacheDir    string
}

// DefaultOpenAIConfig returns defaults tuned for single English words
func DefaultOpenAIConfig() *OpenAIConfig {
	return &OpenAIConfig{
		Model:       "gpt-4o-mini-tts",
		Voice:       "alloy",
		Speed:       1.0,
		Instruction: "Pronounce the English word in clear General American English. Speak slowly and clearly for language learners.",
	}
}

// OpenAIEngine synthesises words with the OpenAI speech API and caches the
// generated files
type OpenAIEngine struct {
	client   *openai.Client
	config   OpenAIConfig
	cacheDir string
}

// NewOpenAIEngine creates an OpenAI engine
func NewOpenAIEngine(config *OpenAIConfig) (*OpenAIEngine, error) {
	if config == nil || config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	cfg := *config
	defaults := DefaultOpenAIConfig()
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.Voice == "" {
		cfg.Voice = defaults.Voice
	}
	if cfg.Speed == 0 {
		cfg.Speed = defaults.Speed
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(DefaultCacheDir(), "openai")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIEngine{
		client:   openai.NewClientWithConfig(clientConfig),
		config:   cfg,
		cacheDir: cfg.CacheDir,
	}, nil
}

// Name returns the engine name
func (e *OpenAIEngine) Name() string {
	return "openai"
}

// IsAvailable checks that an API key is configured. It makes no request so
// probing costs no credits.
func (e *OpenAIEngine) IsAvailable(ctx context.Context) bool {
	return e.config.APIKey != ""
}

func (e *OpenAIEngine) supportsInstructions() bool {
	return e.config.Instruction != "" &&
		(e.config.Model == "gpt-4o-mini-tts" || e.config.Model == "gpt-4o-mini-audio-preview")
}

// voice picks the requested voice, falling back to the configured one
func (e *OpenAIEngine) voice(opts Options) string {
	if opts.Voice != "" {
		return opts.Voice
	}
	return e.config.Voice
}

// speed maps the learner rate onto the API speed range
func (e *OpenAIEngine) speed(opts Options) float64 {
	speed := e.config.Speed
	if opts.Rate > 0 {
		speed *= opts.Rate
	}
	if speed < 0.25 {
		speed = 0.25
	} else if speed > 4.0 {
		speed = 4.0
	}
	return speed
}

// cachePath derives the cache file from the word and every setting that
// changes the audio
func (e *OpenAIEngine) cachePath(word string, opts Options) string {
	parts := []string{word, e.config.Model, e.voice(opts), fmt.Sprintf("%.2f", e.speed(opts))}
	if e.supportsInstructions() {
		parts = append(parts, e.config.Instruction)
	}
	return hashedPath(e.cacheDir, internal.HashKey(parts...), ".mp3")
}

// Resolve returns a cached file or generates one
func (e *OpenAIEngine) Resolve(ctx context.Context, word string, opts Options) Resolution {
	word = cleanText(word)
	if err := ValidateWord(word); err != nil {
		return failedWith(err)
	}
	if !e.IsAvailable(ctx) {
		return unavailableWith(fmt.Errorf("%w: OpenAI API key not configured", ErrUnavailable))
	}

	path := e.cachePath(word, opts)
	if cached(path) {
		return resolvedWith(Handle{Source: path})
	}

	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(e.config.Model),
		Input:          word,
		Voice:          openai.SpeechVoice(e.voice(opts)),
		Speed:          e.speed(opts),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	}
	if e.supportsInstructions() {
		req.Instructions = e.config.Instruction
	}

	response, err := e.client.CreateSpeech(ctx, req)
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "does not have access to model") && e.supportsInstructions() {
			return failedWith(fmt.Errorf("OpenAI TTS API error: %w\nNote: The %s model requires access. Try audio.openai_model tts-1-hd instead", err, e.config.Model))
		}
		return failedWith(fmt.Errorf("OpenAI TTS API error: %w", err))
	}
	defer response.Close()

	if _, err := writeCacheFile(path, response); err != nil {
		return failedWith(err)
	}
	return resolvedWith(Handle{Source: path})
}

// Describe returns display information
func (e *OpenAIEngine) Describe() Info {
	return Info{
		Name:         "OpenAI TTS",
		Type:         "Cloud TTS",
		Quality:      "Very Good",
		Limitations:  "Requires an API key",
		CurrentVoice: e.config.Voice,
	}
}

// ClearCache removes all cached audio files
func (e *OpenAIEngine) ClearCache() error {
	return clearDir(e.cacheDir)
}

// CacheStats returns cache statistics
func (e *OpenAIEngine) CacheStats() (int, int64, error) {
	return cacheStats(e.cacheDir)
}

// SpeechModels lists the text-to-speech models the API key can use
func (e *OpenAIEngine) SpeechModels(ctx context.Context) ([]string, error) {
	list, err := e.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	var models []string
	for _, m := range list.Models {
		if strings.Contains(m.ID, "tts") || strings.Contains(m.ID, "audio") {
			models = append(models, m.ID)
		}
	}
	sort.Strings(models)
	return models, nil
}

// cleanText removes punctuation that should not be spoken
func cleanText(text string) string {
	cleaned := strings.TrimSpace(text)
	for _, punct := range []string{"!", "?", ",", ";", ":", "\"", "(", ")", "[", "]", "{", "}", "—", "–"} {
		cleaned = strings.ReplaceAll(cleaned, punct, "")
	}
	return strings.TrimSpace(cleaned)
}
