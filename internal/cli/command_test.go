package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/snonux/learnword/internal/app"
	"codeberg.org/snonux/learnword/internal/audio"
	"codeberg.org/snonux/learnword/internal/progress"
	"codeberg.org/snonux/learnword/internal/store"
	"codeberg.org/snonux/learnword/internal/testutil"
)

const testCourses = `{
  "courses": [
    {"id": "pets", "name": "Pets", "words": [
      {"word": "cat", "meaning": "猫", "phonetic": "/kæt/", "phonemes": ["c", "a", "t"]}
    ]},
    {"id": "food", "name": "Food", "words": [
      {"word": "apple", "meaning": "苹果"},
      {"word": "bread", "meaning": "面包"}
    ]}
  ],
  "settings": {"defaultCourse": "Pets", "dailyGoal": 5}
}`

// testApp builds one application shared by every command of a test
func testApp(t *testing.T) (*app.App, Opener) {
	t.Helper()
	coursePath := filepath.Join(t.TempDir(), "courses.json")
	testutil.CreateTestFile(t, coursePath, []byte(testCourses))

	config := app.DefaultConfig()
	config.Store = store.Config{Driver: "memory"}
	config.CourseFile = coursePath
	config.Audio.Engines = []string{app.EngineSpeech}
	config.Player = audio.PlayerFunc(func(ctx context.Context, source string) error { return nil })
	config.Now = testutil.NewClock(time.Date(2026, 8, 3, 10, 0, 0, 0, time.Local)).Now

	a, err := app.New(context.Background(), config)
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	return a, func(ctx context.Context, flags *Flags) (*app.App, error) { return a, nil }
}

func execute(t *testing.T, open Opener, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(NewFlags(), open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCreateRootCommand(t *testing.T) {
	flags := NewFlags()
	cmd := CreateRootCommand(flags)

	// Test basic command properties
	if cmd.Use != "learnword" {
		t.Errorf("Expected Use to be 'learnword', got %s", cmd.Use)
	}

	if !strings.Contains(cmd.Short, "vocabulary") {
		t.Errorf("Expected Short description to mention vocabulary")
	}

	persistent := []string{
		"config", "verbose", "courses", "store", "db", "redis-url", "engines",
		"clip-url", "audio-timeout", "audio-cache", "openai-model", "openai-voice",
		"gemini-voice", "espeak-voice",
	}
	for _, name := range persistent {
		t.Run("flag_"+name, func(t *testing.T) {
			if cmd.PersistentFlags().Lookup(name) == nil {
				t.Errorf("Expected flag %s to exist", name)
			}
		})
	}

	subcommands := []string{
		"study", "answer", "progress", "today", "errors", "learned", "courses",
		"settings", "play", "engines", "export", "import", "remind",
	}
	for _, name := range subcommands {
		t.Run("command_"+name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			if err != nil || sub.Name() != name {
				t.Errorf("Expected subcommand %s, got %v (%v)", name, sub, err)
			}
		})
	}
}

func TestSetupFlags(t *testing.T) {
	cmd := &cobra.Command{}
	flags := NewFlags()

	setupFlags(cmd, flags)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	if dbFlag == nil {
		t.Fatal("db flag not found")
	}
	if dbFlag.DefValue != DefaultStorePath() {
		t.Errorf("Expected default db path %s, got %s", DefaultStorePath(), dbFlag.DefValue)
	}

	var verbose *pflag.Flag = cmd.PersistentFlags().ShorthandLookup("v")
	if verbose == nil || verbose.Name != "verbose" {
		t.Errorf("Expected -v shorthand for verbose")
	}
}

func TestInitConfig(t *testing.T) {
	// Save original viper state
	originalConfig := viper.New()
	*originalConfig = *viper.GetViper()
	defer func() {
		*viper.GetViper() = *originalConfig
	}()

	viper.Reset()

	cfgPath := filepath.Join(t.TempDir(), "learnword.yaml")
	content := `store:
  driver: redis
  redis_url: redis://localhost:6379/2
audio:
  engines: openai,speech
  openai_key: test-key
  timeout: 2s
reminder:
  at: "07:45"`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config: %v", err)
	}

	InitConfig(cfgPath)

	os.Setenv("LEARNWORD_TEST_VAR", "test-value")
	defer os.Unsetenv("LEARNWORD_TEST_VAR")
	if viper.GetString("test_var") != "test-value" {
		t.Error("Environment variable not properly loaded")
	}

	os.Unsetenv("OPENAI_API_KEY")
	config := AppConfig(NewFlags())
	if config.Store.Driver != "redis" || config.Store.RedisURL != "redis://localhost:6379/2" {
		t.Errorf("Store config = %+v", config.Store)
	}
	if strings.Join(config.Audio.Engines, ",") != "openai,speech" {
		t.Errorf("Engines = %v", config.Audio.Engines)
	}
	if config.Audio.OpenAIKey != "test-key" {
		t.Errorf("OpenAIKey = %q", config.Audio.OpenAIKey)
	}
	if config.Audio.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v", config.Audio.Timeout)
	}
	if setting("reminder.at", "20:00") != "07:45" {
		t.Errorf("reminder.at = %q", setting("reminder.at", "20:00"))
	}
}

func TestAppConfigDefaults(t *testing.T) {
	originalConfig := viper.New()
	*originalConfig = *viper.GetViper()
	defer func() {
		*viper.GetViper() = *originalConfig
	}()
	viper.Reset()

	flags := NewFlags()
	config := AppConfig(flags)
	if config.Store.Driver != "sqlite" || config.Store.Path != flags.StorePath {
		t.Errorf("Store config = %+v", config.Store)
	}
	if strings.Join(config.Audio.Engines, ",") != "clip,speech" {
		t.Errorf("Engines = %v", config.Audio.Engines)
	}
	if config.Audio.Timeout != audio.DefaultTimeout {
		t.Errorf("Timeout = %v", config.Audio.Timeout)
	}
}

func TestGetAPIKeys(t *testing.T) {
	// Save original viper state
	originalConfig := viper.New()
	*originalConfig = *viper.GetViper()
	defer func() {
		*viper.GetViper() = *originalConfig
	}()

	tests := []struct {
		name      string
		env       string
		configKey string
		get       func() string
		envKey    string
		configVal string
		expected  string
	}{
		{"openai from environment", "OPENAI_API_KEY", "audio.openai_key", GetOpenAIKey, "env-key", "config-key", "env-key"},
		{"openai from config", "OPENAI_API_KEY", "audio.openai_key", GetOpenAIKey, "", "config-key", "config-key"},
		{"openai unset", "OPENAI_API_KEY", "audio.openai_key", GetOpenAIKey, "", "", ""},
		{"gemini from environment", "GEMINI_API_KEY", "audio.gemini_key", GetGeminiKey, "env-key", "config-key", "env-key"},
		{"gemini from config", "GEMINI_API_KEY", "audio.gemini_key", GetGeminiKey, "", "config-key", "config-key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			if tt.envKey != "" {
				t.Setenv(tt.env, tt.envKey)
			} else {
				t.Setenv(tt.env, "")
			}
			if tt.configVal != "" {
				viper.Set(tt.configKey, tt.configVal)
			}
			if got := tt.get(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestBindFlagsToViper(t *testing.T) {
	// Save original viper state
	originalConfig := viper.New()
	*originalConfig = *viper.GetViper()
	defer func() {
		*viper.GetViper() = *originalConfig
	}()

	viper.Reset()

	cmd := &cobra.Command{}
	flags := NewFlags()
	setupFlags(cmd, flags)

	cmd.PersistentFlags().Set("store", "memory")
	cmd.PersistentFlags().Set("engines", "speech")
	cmd.PersistentFlags().Set("openai-model", "tts-1-hd")

	if viper.GetString("store.driver") != "memory" {
		t.Errorf("Expected store.driver to be memory, got %s", viper.GetString("store.driver"))
	}
	if viper.GetString("audio.engines") != "speech" {
		t.Errorf("Expected audio.engines to be speech, got %s", viper.GetString("audio.engines"))
	}
	if viper.GetString("audio.openai_model") != "tts-1-hd" {
		t.Errorf("Expected audio.openai_model to be tts-1-hd, got %s", viper.GetString("audio.openai_model"))
	}
}

func TestStudyCommand(t *testing.T) {
	a, open := testApp(t)

	// Test option by text, phonics in order, then spelling
	out, err := execute(t, open, "cat\nc a t\ncat\n", "study", "--no-audio")
	if err != nil {
		t.Fatalf("study error = %v", err)
	}
	if !strings.Contains(out, "Finished 1 words: 1 correct, 0 wrong") {
		t.Errorf("unexpected output:\n%s", out)
	}

	ctx := context.Background()
	learned, _ := a.Tracker.LearnedWords(ctx)
	if len(learned) != 1 || learned[0].Word != "cat" {
		t.Errorf("LearnedWords = %+v", learned)
	}
	p, _ := a.Tracker.GetProgress(ctx)
	if p.CorrectCount != 1 || p.WrongCount != 0 {
		t.Errorf("progress = %+v", p)
	}
}

func TestStudyCommandMistakes(t *testing.T) {
	a, open := testApp(t)

	// Wrong phonics order and three failed spellings
	out, err := execute(t, open, "cat\nt a c\nkat\ndog\nxyz\n", "study", "--no-audio")
	if err != nil {
		t.Fatalf("study error = %v", err)
	}
	if !strings.Contains(out, "Almost") || !strings.Contains(out, "The word is cat.") {
		t.Errorf("unexpected output:\n%s", out)
	}

	errs, _ := a.Tracker.ErrorWords(context.Background())
	if len(errs) != 1 || errs[0].ErrorCount != 2 {
		t.Errorf("ErrorWords = %+v, want cat missed twice", errs)
	}
}

func TestStudyCommandEndOfInput(t *testing.T) {
	_, open := testApp(t)

	out, err := execute(t, open, "cat\n", "study", "--no-audio")
	if err != nil {
		t.Fatalf("study error = %v", err)
	}
	if !strings.Contains(out, "Finished 0 words") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestAnswerAndListCommands(t *testing.T) {
	_, open := testApp(t)

	if _, err := execute(t, open, "", "answer", "cat", "--wrong"); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, open, "", "errors")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "cat") || !strings.Contains(out, "errors: 1") {
		t.Errorf("errors output:\n%s", out)
	}

	out, err = execute(t, open, "", "answer", "cat")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Answers:  2 (1 correct, 1 wrong)") {
		t.Errorf("answer output:\n%s", out)
	}

	out, _ = execute(t, open, "", "errors")
	if !strings.Contains(out, "None.") {
		t.Errorf("errors after correct answer:\n%s", out)
	}
	out, _ = execute(t, open, "", "learned")
	if !strings.Contains(out, "reviews: 1") {
		t.Errorf("learned output:\n%s", out)
	}

	out, _ = execute(t, open, "", "progress")
	if !strings.Contains(out, "Today:    1/5 words (20%)") {
		t.Errorf("progress output:\n%s", out)
	}

	if _, err := execute(t, open, "", "errors", "--clear"); err != nil {
		t.Fatal(err)
	}
}

func TestCoursesAndSettingsCommands(t *testing.T) {
	_, open := testApp(t)

	out, err := execute(t, open, "", "courses")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "* ") || !strings.Contains(out, "Pets (1 words)") || !strings.Contains(out, "Food (2 words)") {
		t.Errorf("courses output:\n%s", out)
	}

	out, err = execute(t, open, "", "settings", "--goal", "8", "--course", "Food", "--dark-mode", "true", "--add-minutes", "15")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Daily goal:  8", "Course:      Food", "Dark mode:   true", "Study time:  15 min"} {
		if !strings.Contains(out, want) {
			t.Errorf("settings output missing %q:\n%s", want, out)
		}
	}

	if _, err := execute(t, open, "", "settings", "--course", "Nope"); err == nil {
		t.Error("settings accepted an unknown course")
	}
	if _, err := execute(t, open, "", "settings", "--dark-mode", "maybe"); err == nil {
		t.Error("settings accepted an invalid dark mode")
	}

	out, _ = execute(t, open, "", "today", "-n", "2")
	if !strings.Contains(out, "apple") || !strings.Contains(out, "bread") {
		t.Errorf("today output:\n%s", out)
	}
}

func TestExportImportCommands(t *testing.T) {
	a, open := testApp(t)
	ctx := context.Background()

	if _, err := a.Tracker.AddErrorWord(ctx, progress.WordRecord{Word: "cat", Meaning: "猫"}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "backup.json")
	out, err := execute(t, open, "", "export", "-o", path)
	if err != nil {
		t.Fatalf("export error = %v", err)
	}
	if !strings.Contains(out, "Exported to "+path) {
		t.Errorf("export output:\n%s", out)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if doc["selectedCourse"] != "Pets" {
		t.Errorf("selectedCourse = %v", doc["selectedCourse"])
	}

	partial := filepath.Join(t.TempDir(), "partial.json")
	testutil.CreateTestFile(t, partial, []byte(`{"dailyGoal": 15, "selectedCourse": "nonexistent"}`))
	out, err = execute(t, open, "", "import", partial)
	if err != nil {
		t.Fatalf("import error = %v", err)
	}
	if !strings.Contains(out, "Imported: daily goal") || !strings.Contains(out, "Skipped selected course") {
		t.Errorf("import output:\n%s", out)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	testutil.CreateTestFile(t, bad, []byte(`{"dailyGoal": "many"}`))
	if _, err := execute(t, open, "", "import", bad); err == nil {
		t.Error("import of invalid file succeeded")
	}
}

func TestPlayCommand(t *testing.T) {
	_, open := testApp(t)

	if _, err := execute(t, open, "", "play", "c@t"); err == nil {
		t.Error("play accepted an invalid word")
	}
}

func TestListModelsWithoutKey(t *testing.T) {
	_, open := testApp(t)
	t.Setenv("OPENAI_API_KEY", "")

	originalConfig := viper.New()
	*originalConfig = *viper.GetViper()
	defer func() {
		*viper.GetViper() = *originalConfig
	}()
	viper.Reset()

	_, err := execute(t, open, "", "engines", "--list-models")
	if err == nil || !strings.Contains(err.Error(), "API key not found") {
		t.Errorf("engines --list-models error = %v", err)
	}
}

func TestRemindOnce(t *testing.T) {
	_, open := testApp(t)

	out, err := execute(t, open, "", "remind", "--once")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "(0/5)") {
		t.Errorf("remind output:\n%s", out)
	}
}
