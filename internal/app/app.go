package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/snonux/learnword/internal"
	"codeberg.org/snonux/learnword/internal/archive"
	"codeberg.org/snonux/learnword/internal/audio"
	"codeberg.org/snonux/learnword/internal/course"
	"codeberg.org/snonux/learnword/internal/metrics"
	"codeberg.org/snonux/learnword/internal/progress"
	"codeberg.org/snonux/learnword/internal/selector"
	"codeberg.org/snonux/learnword/internal/session"
	"codeberg.org/snonux/learnword/internal/store"
	"codeberg.org/snonux/learnword/internal/transfer"
)

// App is the assembled application
type App struct {
	Store    store.Store
	Catalog  *course.Catalog
	Tracker  *progress.Tracker
	Selector *selector.Selector
	Chain    *audio.Chain
	Metrics  *metrics.Recorder

	config Config
	logger *slog.Logger
}

// New opens the store, loads the catalog and builds the audio chain
func New(ctx context.Context, config Config) (*App, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	catalog, err := loadCatalog(config.CourseFile)
	if err != nil {
		return nil, err
	}

	recorder, err := metrics.NewRecorder(config.MeterProvider)
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	engines, err := buildEngines(ctx, config.Audio, logger)
	if err != nil {
		return nil, err
	}

	s, err := store.Open(ctx, &config.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	tracker := progress.NewTracker(s, catalog,
		progress.WithClock(now),
		progress.WithMetrics(recorder),
		progress.WithLogger(logger))

	player := config.Player
	if player == nil {
		player = audio.NewCommandPlayer()
	}
	chainOpts := []audio.ChainOption{audio.WithMetrics(recorder), audio.WithLogger(logger)}
	if config.Audio.Timeout > 0 {
		chainOpts = append(chainOpts, audio.WithTimeout(config.Audio.Timeout))
	}

	logger.Debug("application ready",
		"store", config.Store.Driver,
		"courses", len(catalog.Names()),
		"engines", len(engines))

	return &App{
		Store:    s,
		Catalog:  catalog,
		Tracker:  tracker,
		Selector: selector.New(tracker, catalog, selector.WithClock(now), selector.WithLogger(logger)),
		Chain:    audio.NewChain(engines, player, chainOpts...),
		Metrics:  recorder,
		config:   config,
		logger:   logger,
	}, nil
}

// Close releases the store
func (a *App) Close() error {
	return a.Store.Close()
}

func loadCatalog(path string) (*course.Catalog, error) {
	if path == "" {
		return course.Builtin(), nil
	}
	catalog, err := course.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load courses from %s: %w", path, err)
	}
	return catalog, nil
}

// buildEngines creates the configured engines in order. Cloud engines
// without an API key are left out with a warning.
func buildEngines(ctx context.Context, config AudioConfig, logger *slog.Logger) ([]audio.Engine, error) {
	names := config.Engines
	if len(names) == 0 {
		names = DefaultEngines
	}

	var engines []audio.Engine
	seen := make(map[string]bool)
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case EngineClip:
			engines = append(engines, audio.NewClipEngine(&audio.ClipConfig{
				BaseURL:  config.ClipBaseURL,
				CacheDir: subdir(config.CacheDir, "clips"),
				Timeout:  config.Timeout,
			}))
		case EngineOpenAI:
			e, err := audio.NewOpenAIEngine(&audio.OpenAIConfig{
				APIKey:   config.OpenAIKey,
				Model:    config.OpenAIModel,
				Voice:    config.OpenAIVoice,
				CacheDir: subdir(config.CacheDir, "openai"),
			})
			if err != nil {
				logger.Warn("skipping audio engine", "engine", name, "error", err)
				continue
			}
			engines = append(engines, e)
		case EngineGemini:
			e, err := audio.NewGeminiEngine(ctx, &audio.GeminiConfig{
				APIKey:   config.GeminiKey,
				Voice:    config.GeminiVoice,
				CacheDir: subdir(config.CacheDir, "gemini"),
			})
			if err != nil {
				logger.Warn("skipping audio engine", "engine", name, "error", err)
				continue
			}
			engines = append(engines, e)
		case EngineSpeech:
			cfg := audio.DefaultESpeakConfig()
			cfg.Voice = config.ESpeakVoice
			engines = append(engines, audio.NewSpeechEngine(cfg))
		default:
			return nil, fmt.Errorf("unknown audio engine: %s", raw)
		}
	}
	return engines, nil
}

func subdir(dir, name string) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, name)
}

// NewSession selects today's words and starts a session over them. A count
// of zero or less uses the daily goal.
func (a *App) NewSession(ctx context.Context, count int, opts ...session.Option) (*session.Session, error) {
	if count <= 0 {
		goal, err := a.Tracker.DailyGoal(ctx)
		if err != nil {
			return nil, err
		}
		count = goal
	}

	words, err := a.Selector.SelectTodayWords(ctx, count)
	if err != nil {
		return nil, fmt.Errorf("select words: %w", err)
	}

	name, err := a.Tracker.SelectedCourse(ctx)
	if err != nil {
		return nil, err
	}
	var pool []string
	if c, ok := a.Catalog.ByName(name); ok {
		for _, w := range c.Words {
			pool = append(pool, w.Word)
		}
	}

	base := []session.Option{
		session.WithDistractors(pool),
		session.WithRand(rand.New(rand.NewSource(time.Now().UnixNano()))),
		session.WithLogger(a.logger),
	}
	return session.New(a.Tracker, words, append(base, opts...)...), nil
}

// Export returns all study data
func (a *App) Export(ctx context.Context) (transfer.ExportData, error) {
	return transfer.Export(ctx, a.Tracker, internal.Version)
}

// Import backs up a SQLite store file and then imports raw. The backup path
// is empty when nothing was backed up.
func (a *App) Import(ctx context.Context, raw []byte) (transfer.ImportResult, string, error) {
	var backup string
	if a.config.Store.Driver == "sqlite" || a.config.Store.Driver == "" {
		path, err := archive.BackupFile(a.config.Store.Path)
		switch {
		case errors.Is(err, archive.ErrMissing):
		case err != nil:
			return transfer.ImportResult{}, "", err
		default:
			backup = path
			a.logger.Info("store backed up before import", "path", path)
		}
	}
	return transfer.Import(ctx, a.Tracker, raw), backup, nil
}

// Answer records the outcome of a word studied outside a session
func (a *App) Answer(ctx context.Context, word string, correct bool) (progress.StudyProgress, error) {
	record := a.lookup(ctx, word)

	p, err := a.Tracker.RecordAnswer(ctx, correct)
	if err != nil {
		return progress.StudyProgress{}, err
	}
	if correct {
		if _, err := a.Tracker.RemoveErrorWord(ctx, record.Word); err != nil {
			return p, err
		}
		_, err = a.Tracker.AddLearnedWord(ctx, record)
		return p, err
	}
	_, err = a.Tracker.AddErrorWord(ctx, record)
	return p, err
}

// lookup finds word in the selected course, then in every course
func (a *App) lookup(ctx context.Context, word string) progress.WordRecord {
	var order []string
	if name, err := a.Tracker.SelectedCourse(ctx); err == nil {
		order = append(order, name)
	}
	order = append(order, a.Catalog.Names()...)

	for _, name := range order {
		c, ok := a.Catalog.ByName(name)
		if !ok {
			continue
		}
		for _, w := range c.Words {
			if w.Word == word {
				return progress.FromCourseWord(w)
			}
		}
	}
	return progress.WordRecord{Word: word}
}

// ParseEngines splits a comma separated engine list
func ParseEngines(s string) []string {
	var names []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}
