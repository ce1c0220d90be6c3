package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"codeberg.org/snonux/learnword/internal/audio"
	"codeberg.org/snonux/learnword/internal/course"
	"codeberg.org/snonux/learnword/internal/store"
	"codeberg.org/snonux/learnword/internal/testutil"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestApp(t *testing.T, mutate func(*Config)) *App {
	t.Helper()
	clock := testutil.NewClock(time.Date(2026, 7, 1, 9, 0, 0, 0, time.Local))
	config := DefaultConfig()
	config.Store = store.Config{Driver: "memory"}
	config.Audio.Engines = []string{EngineSpeech}
	config.Player = audio.PlayerFunc(func(ctx context.Context, source string) error { return nil })
	config.Logger = quiet
	config.Now = clock.Now
	if mutate != nil {
		mutate(&config)
	}

	a, err := New(context.Background(), config)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNewDefaults(t *testing.T) {
	a := newTestApp(t, nil)

	if !a.Catalog.IsValid(course.DefaultCourseName) {
		t.Errorf("builtin catalog missing %q", course.DefaultCourseName)
	}
	if a.Chain.CurrentEngine() != "" {
		t.Errorf("chain initialised before first use: %q", a.Chain.CurrentEngine())
	}
	if a.Metrics == nil {
		t.Error("Metrics not created")
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown store", func(c *Config) { c.Store.Driver = "mongo" }},
		{"missing course file", func(c *Config) { c.CourseFile = filepath.Join(t.TempDir(), "none.json") }},
		{"unknown engine", func(c *Config) { c.Audio.Engines = []string{"clip", "festival"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.Store = store.Config{Driver: "memory"}
			config.Logger = quiet
			tt.mutate(&config)
			if a, err := New(context.Background(), config); err == nil {
				a.Close()
				t.Error("New() succeeded, want error")
			}
		})
	}
}

func TestBuildEngines(t *testing.T) {
	tests := []struct {
		name   string
		config AudioConfig
		want   []string
	}{
		{"default order", AudioConfig{}, []string{"clip", "speech"}},
		{"keys missing", AudioConfig{Engines: []string{"openai", "gemini", "speech"}}, []string{"speech"}},
		{"openai with key", AudioConfig{Engines: []string{"openai", "clip"}, OpenAIKey: "sk-test"}, []string{"openai", "clip"}},
		{"duplicates and case", AudioConfig{Engines: []string{" Clip", "clip", "SPEECH", ""}}, []string{"clip", "speech"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engines, err := buildEngines(context.Background(), tt.config, quiet)
			if err != nil {
				t.Fatalf("buildEngines() error = %v", err)
			}
			var got []string
			for _, e := range engines {
				got = append(got, e.Name())
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("engines = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseEngines(t *testing.T) {
	got := ParseEngines("clip, openai,,speech ")
	want := []string{"clip", "openai", "speech"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseEngines() = %v, want %v", got, want)
	}
	if got := ParseEngines(""); got != nil {
		t.Errorf("ParseEngines(\"\") = %v, want nil", got)
	}
}

func TestNewSession(t *testing.T) {
	a := newTestApp(t, nil)
	ctx := context.Background()

	if err := a.Tracker.SetDailyGoal(ctx, 3); err != nil {
		t.Fatal(err)
	}

	s, err := a.NewSession(ctx, 0)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want daily goal 3", s.Len())
	}

	s, err = a.NewSession(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 5 {
		t.Errorf("Len() = %d, want 5", s.Len())
	}

	if err := s.CompleteListen(); err != nil {
		t.Fatal(err)
	}
	if err := s.CompleteRecord(); err != nil {
		t.Fatal(err)
	}
	q, err := s.Question()
	if err != nil {
		t.Fatal(err)
	}
	if len(q.Options) != 3 {
		t.Errorf("Options = %v, want 3", q.Options)
	}
}

func TestAnswer(t *testing.T) {
	a := newTestApp(t, nil)
	ctx := context.Background()

	if _, err := a.Answer(ctx, "apple", false); err != nil {
		t.Fatal(err)
	}
	errs, _ := a.Tracker.ErrorWords(ctx)
	if len(errs) != 1 || errs[0].Meaning != "苹果" {
		t.Errorf("ErrorWords = %+v, want apple with its meaning", errs)
	}

	p, err := a.Answer(ctx, "apple", true)
	if err != nil {
		t.Fatal(err)
	}
	if p.TotalLearned != 2 || p.CorrectCount != 1 {
		t.Errorf("progress = %+v", p)
	}
	errs, _ = a.Tracker.ErrorWords(ctx)
	learned, _ := a.Tracker.LearnedWords(ctx)
	if len(errs) != 0 || len(learned) != 1 {
		t.Errorf("errors = %v, learned = %v", errs, learned)
	}

	// Words outside the catalog are still tracked
	if _, err := a.Answer(ctx, "zeppelin", false); err != nil {
		t.Fatal(err)
	}
	errs, _ = a.Tracker.ErrorWords(ctx)
	if len(errs) != 1 || errs[0].Word != "zeppelin" {
		t.Errorf("ErrorWords = %+v", errs)
	}
}

func TestExportImport(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "learnword.db")
	a := newTestApp(t, func(c *Config) {
		c.Store = store.Config{Driver: "sqlite", Path: dbPath}
	})
	ctx := context.Background()

	if err := a.Tracker.SetDailyGoal(ctx, 7); err != nil {
		t.Fatal(err)
	}
	data, err := a.Export(ctx)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if data.DailyGoal != 7 || data.Version == "" {
		t.Errorf("Export() = %+v", data)
	}

	result, backup, err := a.Import(ctx, []byte(`{"dailyGoal": 12}`))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if !result.Success {
		t.Errorf("Import() = %+v", result)
	}
	if backup == "" {
		t.Fatal("no backup written for the sqlite store")
	}
	testutil.AssertFileExists(t, backup)

	goal, _ := a.Tracker.DailyGoal(ctx)
	if goal != 12 {
		t.Errorf("DailyGoal = %d, want 12", goal)
	}
}

func TestImportMemoryStoreSkipsBackup(t *testing.T) {
	a := newTestApp(t, nil)
	_, backup, err := a.Import(context.Background(), []byte(`{"darkMode": true}`))
	if err != nil {
		t.Fatal(err)
	}
	if backup != "" {
		t.Errorf("backup = %q, want none for memory store", backup)
	}
}
