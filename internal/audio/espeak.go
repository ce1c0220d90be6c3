package audio

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// ESpeakConfig holds configuration for espeak-ng speech
type ESpeakConfig struct {
	Voice     string // Voice to use; empty picks the best English voice
	Speed     int    // Speech speed in words per minute at rate 1.0 (default: 175)
	Pitch     int    // Pitch adjustment at pitch 1.0, 0 to 99 (default: 50)
	Amplitude int    // Volume/amplitude at volume 1.0, 0 to 200 (default: 100)
	WordGap   int    // Gap between words in 10ms units (default: 0)
}

// DefaultESpeakConfig returns the default espeak-ng configuration
func DefaultESpeakConfig() *ESpeakConfig {
	return &ESpeakConfig{
		Speed:     175,
		Pitch:     50,
		Amplitude: 100,
	}
}

// runFunc runs a command and returns its combined output
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// SpeechEngine speaks words through espeak-ng on the local sound device.
// Resolving a word speaks it; a new word stops the one still being spoken.
type SpeechEngine struct {
	config   ESpeakConfig
	run      runFunc
	lookPath func(string) (string, error)

	mu     sync.Mutex
	voices []Voice
	loaded bool
	cancel context.CancelFunc
}

// NewSpeechEngine creates an espeak-ng engine. A nil config uses the defaults.
func NewSpeechEngine(config *ESpeakConfig) *SpeechEngine {
	if config == nil {
		config = DefaultESpeakConfig()
	}
	return &SpeechEngine{
		config:   *config,
		run:      runCommand,
		lookPath: exec.LookPath,
	}
}

// Name returns the engine name
func (e *SpeechEngine) Name() string {
	return "speech"
}

// IsAvailable reports whether espeak-ng is installed and offers voices
func (e *SpeechEngine) IsAvailable(ctx context.Context) bool {
	if _, err := e.lookPath("espeak-ng"); err != nil {
		return false
	}
	return len(e.Voices(ctx)) > 0
}

// Voices lists the English voices espeak-ng offers. The list is loaded once.
func (e *SpeechEngine) Voices(ctx context.Context) []Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded {
		return e.voices
	}

	output, err := e.run(ctx, "espeak-ng", "--voices=en")
	if err != nil {
		return nil
	}
	e.voices = parseVoices(output)
	e.loaded = true
	return e.voices
}

// parseVoices reads the table printed by espeak-ng --voices
func parseVoices(output []byte) []Voice {
	var voices []Voice
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		// Pty Language Age/Gender VoiceName File [Other Languages]
		if len(fields) < 5 || fields[0] == "Pty" {
			continue
		}
		voices = append(voices, Voice{
			Name:       strings.ReplaceAll(fields[3], "_", " "),
			Lang:       fields[1],
			Identifier: fields[1],
			Local:      true,
		})
	}
	return voices
}

// voice returns the espeak voice identifier for opts
func (e *SpeechEngine) voice(ctx context.Context, opts Options) string {
	if opts.Voice != "" {
		return opts.Voice
	}
	if e.config.Voice != "" {
		return e.config.Voice
	}
	if v, ok := BestVoice(e.Voices(ctx)); ok {
		return v.Identifier
	}
	return strings.ToLower(opts.Lang)
}

// Args builds the espeak-ng arguments for speaking word
func (e *SpeechEngine) Args(ctx context.Context, word string, opts Options) []string {
	opts = opts.withDefaults()
	args := []string{
		"-v", e.voice(ctx, opts),
		"-s", fmt.Sprintf("%d", clamp(int(float64(e.config.Speed)*opts.Rate), 80, 450)),
		"-p", fmt.Sprintf("%d", clamp(int(float64(e.config.Pitch)*opts.Pitch), 0, 99)),
		"-a", fmt.Sprintf("%d", clamp(int(float64(e.config.Amplitude)*opts.Volume), 0, 200)),
	}
	if e.config.WordGap > 0 {
		args = append(args, "-g", fmt.Sprintf("%d", e.config.WordGap))
	}
	// "--" keeps a word starting with "-" from being read as a flag
	return append(args, "--", word)
}

// Resolve speaks word and returns a spoken handle once it has finished
func (e *SpeechEngine) Resolve(ctx context.Context, word string, opts Options) Resolution {
	word = strings.TrimSpace(word)
	if err := ValidateWord(word); err != nil {
		return failedWith(err)
	}
	if _, err := e.lookPath("espeak-ng"); err != nil {
		return unavailableWith(fmt.Errorf("%w: espeak-ng is not installed or not in PATH: %v", ErrUnavailable, err))
	}

	args := e.Args(ctx, word, opts)

	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.cancel = cancel
	e.mu.Unlock()
	defer cancel()

	output, err := e.run(ctx, "espeak-ng", args...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return failedWith(fmt.Errorf("%w: espeak-ng", ErrTimeout))
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return failedWith(fmt.Errorf("speech for %q interrupted", word))
		}
		return failedWith(fmt.Errorf("espeak-ng failed: %w\nOutput: %s", err, string(output)))
	}
	return resolvedWith(Handle{Source: word, Spoken: true})
}

// Stop interrupts the word being spoken, if any
func (e *SpeechEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

// Describe returns display information
func (e *SpeechEngine) Describe() Info {
	info := Info{
		Name:         "Speech Synthesis",
		Type:         "Local TTS",
		Quality:      "Basic",
		CurrentVoice: "None",
	}

	e.mu.Lock()
	voices := e.voices
	e.mu.Unlock()

	if e.config.Voice != "" {
		info.Quality = "Good"
		info.CurrentVoice = e.config.Voice
	} else if v, ok := BestVoice(voices); ok {
		info.Quality = "Good"
		info.CurrentVoice = v.Name
	}
	return info
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
