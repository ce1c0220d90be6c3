package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"codeberg.org/snonux/learnword/internal/progress"
)

// exportDateLayout matches JavaScript's Date.toISOString
const exportDateLayout = "2006-01-02T15:04:05.000Z07:00"

// ExportData is the full export document
type ExportData struct {
	Version        string                 `json:"version"`
	ExportDate     string                 `json:"exportDate"`
	StudyProgress  progress.StudyProgress `json:"studyProgress"`
	ErrorWords     []progress.WordRecord  `json:"errorWords"`
	LearnedWords   []progress.WordRecord  `json:"learnedWords"`
	DailyGoal      int                    `json:"dailyGoal"`
	SelectedCourse string                 `json:"selectedCourse"`
	StudyTime      int                    `json:"studyTime"`
	DarkMode       bool                   `json:"darkMode"`
}

// ImportResult reports which fields an import wrote
type ImportResult struct {
	Success  bool     `json:"success"`
	Imported []string `json:"imported"`
	Errors   []string `json:"errors"`
}

// FieldError is a rejected import field
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Export reads every stored record
func Export(ctx context.Context, t *progress.Tracker, version string) (ExportData, error) {
	data := ExportData{
		Version:    version,
		ExportDate: t.Now().UTC().Format(exportDateLayout),
	}

	var err error
	if data.StudyProgress, err = t.GetProgress(ctx); err != nil {
		return ExportData{}, err
	}
	if data.ErrorWords, err = t.ErrorWords(ctx); err != nil {
		return ExportData{}, err
	}
	if data.LearnedWords, err = t.LearnedWords(ctx); err != nil {
		return ExportData{}, err
	}
	settings, err := t.Settings(ctx)
	if err != nil {
		return ExportData{}, err
	}
	data.DailyGoal = settings.DailyGoal
	data.SelectedCourse = settings.SelectedCourse
	data.DarkMode = settings.DarkMode
	if data.StudyTime, err = t.StudyTime(ctx); err != nil {
		return ExportData{}, err
	}

	// Lists are exported as [] rather than null
	if data.ErrorWords == nil {
		data.ErrorWords = []progress.WordRecord{}
	}
	if data.LearnedWords == nil {
		data.LearnedWords = []progress.WordRecord{}
	}
	return data, nil
}

// importField validates and writes one document field
type importField struct {
	key   string
	label string
	apply func(ctx context.Context, t *progress.Tracker, raw json.RawMessage) error
}

var importFields = []importField{
	{"studyProgress", "study progress", importStudyProgress},
	{"errorWords", "error words", importErrorWords},
	{"learnedWords", "learned words", importLearnedWords},
	{"dailyGoal", "daily goal", importDailyGoal},
	{"selectedCourse", "selected course", importSelectedCourse},
	{"studyTime", "study time", importStudyTime},
	{"darkMode", "dark mode", importDarkMode},
}

// Import writes every valid recognised field of raw through t. Unknown
// fields are ignored and invalid ones are listed in Errors. The import
// succeeds when at least one field was written.
func Import(ctx context.Context, t *progress.Tracker, raw []byte) ImportResult {
	result := ImportResult{Imported: []string{}, Errors: []string{}}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		result.Errors = append(result.Errors, "import data must be a JSON object")
		return result
	}

	for _, f := range importFields {
		value, ok := doc[f.key]
		if !ok || string(value) == "null" {
			continue
		}
		if err := f.apply(ctx, t, value); err != nil {
			fe := &FieldError{Field: f.label, Reason: err.Error()}
			result.Errors = append(result.Errors, fe.Error())
			slog.Warn("import field skipped", "field", f.key, "error", err)
			continue
		}
		result.Imported = append(result.Imported, f.label)
	}

	result.Success = len(result.Imported) > 0
	if !result.Success && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "no recognised fields to import")
	}
	slog.Info("import finished", "imported", result.Imported, "errors", len(result.Errors))
	return result
}

func importStudyProgress(ctx context.Context, t *progress.Tracker, raw json.RawMessage) error {
	if err := validate(studyProgressSchema, raw); err != nil {
		return err
	}
	var p progress.StudyProgress
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if p.TotalLearned != p.CorrectCount+p.WrongCount {
		return fmt.Errorf("totalLearned %d does not equal correctCount + wrongCount (%d)",
			p.TotalLearned, p.CorrectCount+p.WrongCount)
	}
	p.LastStudyDate = progress.NormalizeStudyDate(p.LastStudyDate)
	return t.ReplaceProgress(ctx, p)
}

func decodeWords(raw json.RawMessage) ([]progress.WordRecord, error) {
	if err := validate(wordListSchema, raw); err != nil {
		return nil, err
	}
	var words []progress.WordRecord
	if err := json.Unmarshal(raw, &words); err != nil {
		return nil, err
	}
	return dedupe(words), nil
}

// dedupe keeps the first record of each word
func dedupe(words []progress.WordRecord) []progress.WordRecord {
	seen := make(map[string]bool, len(words))
	out := make([]progress.WordRecord, 0, len(words))
	for _, w := range words {
		if seen[w.Word] {
			continue
		}
		seen[w.Word] = true
		out = append(out, w)
	}
	return out
}

func importErrorWords(ctx context.Context, t *progress.Tracker, raw json.RawMessage) error {
	words, err := decodeWords(raw)
	if err != nil {
		return err
	}
	return t.ReplaceErrorWords(ctx, words)
}

func importLearnedWords(ctx context.Context, t *progress.Tracker, raw json.RawMessage) error {
	words, err := decodeWords(raw)
	if err != nil {
		return err
	}
	return t.ReplaceLearnedWords(ctx, words)
}

func importDailyGoal(ctx context.Context, t *progress.Tracker, raw json.RawMessage) error {
	if err := validate(dailyGoalSchema, raw); err != nil {
		return err
	}
	var goal int
	if err := json.Unmarshal(raw, &goal); err != nil {
		return err
	}
	return t.SetDailyGoal(ctx, goal)
}

func importSelectedCourse(ctx context.Context, t *progress.Tracker, raw json.RawMessage) error {
	if err := validate(selectedCourseSchema, raw); err != nil {
		return err
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return err
	}
	return t.SetSelectedCourse(ctx, name)
}

func importStudyTime(ctx context.Context, t *progress.Tracker, raw json.RawMessage) error {
	if err := validate(studyTimeSchema, raw); err != nil {
		return err
	}
	var minutes int
	if err := json.Unmarshal(raw, &minutes); err != nil {
		return err
	}
	return t.SetStudyTime(ctx, minutes)
}

func importDarkMode(ctx context.Context, t *progress.Tracker, raw json.RawMessage) error {
	if err := validate(darkModeSchema, raw); err != nil {
		return err
	}
	var on bool
	if err := json.Unmarshal(raw, &on); err != nil {
		return err
	}
	return t.SetDarkMode(ctx, on)
}

// WriteFile stores data as indented JSON at path
func WriteFile(path string, data ExportData) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return os.WriteFile(path, append(out, '\n'), 0644)
}

// ReadFile reads an export document
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	return data, nil
}

// DefaultFilename names an export written at now
func DefaultFilename(now time.Time) string {
	return fmt.Sprintf("learnword-backup-%s.json", now.Format("2006-01-02"))
}
