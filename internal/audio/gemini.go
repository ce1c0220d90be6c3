package audio

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"google.golang.org/genai"

	"codeberg.org/snonux/learnword/internal"
)

// Gemini TTS returns raw 16-bit mono PCM at this rate
const geminiSampleRate = 24000

// GeminiConfig configures the Gemini text-to-speech engine
type GeminiConfig struct {
	APIKey   string
	Model    string
	Voice    string // prebuilt voice name, e.g. "Kore", "Puck"
	CacheDir string
}

// DefaultGeminiConfig returns the default Gemini settings
func DefaultGeminiConfig() *GeminiConfig {
	return &GeminiConfig{
		Model: "gemini-2.5-flash-preview-tts",
		Voice: "Kore",
	}
}

// synthesizeFunc turns a prompt into PCM samples
type synthesizeFunc func(ctx context.Context, prompt, voice string) ([]byte, error)

// GeminiEngine synthesises words with the Gemini API
type GeminiEngine struct {
	config     GeminiConfig
	synthesize synthesizeFunc
}

// NewGeminiEngine creates a Gemini engine
func NewGeminiEngine(ctx context.Context, config *GeminiConfig) (*GeminiEngine, error) {
	if config == nil || config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	cfg := *config
	defaults := DefaultGeminiConfig()
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.Voice == "" {
		cfg.Voice = defaults.Voice
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(DefaultCacheDir(), "gemini")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	e := &GeminiEngine{config: cfg}
	e.synthesize = func(ctx context.Context, prompt, voice string) ([]byte, error) {
		return generateSpeech(ctx, client, cfg.Model, prompt, voice)
	}
	return e, nil
}

func generateSpeech(ctx context.Context, client *genai.Client, model, prompt, voice string) ([]byte, error) {
	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Gemini TTS API error: %w", err)
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, fmt.Errorf("no audio data received from Gemini")
}

// Name returns the engine name
func (e *GeminiEngine) Name() string {
	return "gemini"
}

// IsAvailable checks that an API key is configured
func (e *GeminiEngine) IsAvailable(ctx context.Context) bool {
	return e.config.APIKey != "" && e.synthesize != nil
}

func (e *GeminiEngine) voice(opts Options) string {
	if opts.Voice != "" {
		return opts.Voice
	}
	return e.config.Voice
}

// prompt asks for the word alone, slowed down when the rate is below normal
func prompt(word string, opts Options) string {
	if opts.Rate > 0 && opts.Rate < 1 {
		return fmt.Sprintf("Say slowly and clearly: %s", word)
	}
	return fmt.Sprintf("Say clearly: %s", word)
}

// Resolve returns a cached WAV file or generates one
func (e *GeminiEngine) Resolve(ctx context.Context, word string, opts Options) Resolution {
	word = cleanText(word)
	if err := ValidateWord(word); err != nil {
		return failedWith(err)
	}
	if !e.IsAvailable(ctx) {
		return unavailableWith(fmt.Errorf("%w: Gemini API key not configured", ErrUnavailable))
	}

	opts = opts.withDefaults()
	text := prompt(word, opts)
	voice := e.voice(opts)
	path := hashedPath(e.config.CacheDir, internal.HashKey(text, e.config.Model, voice), ".wav")
	if cached(path) {
		return resolvedWith(Handle{Source: path})
	}

	pcm, err := e.synthesize(ctx, text, voice)
	if err != nil {
		return failedWith(err)
	}

	var wav bytes.Buffer
	if err := writeWAV(&wav, pcm, geminiSampleRate, 1, 16); err != nil {
		return failedWith(err)
	}
	if _, err := writeCacheFile(path, &wav); err != nil {
		return failedWith(err)
	}
	return resolvedWith(Handle{Source: path})
}

// Describe returns display information
func (e *GeminiEngine) Describe() Info {
	return Info{
		Name:         "Gemini TTS",
		Type:         "Cloud TTS",
		Quality:      "Very Good",
		Limitations:  "Requires an API key",
		CurrentVoice: strings.TrimSpace(e.config.Voice),
	}
}

// ClearCache removes all cached audio files
func (e *GeminiEngine) ClearCache() error {
	return clearDir(e.config.CacheDir)
}
