package progress

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"codeberg.org/snonux/learnword/internal/course"
	"codeberg.org/snonux/learnword/internal/metrics"
	"codeberg.org/snonux/learnword/internal/store"
)

// Tracker reads and writes progress records through a store
type Tracker struct {
	store   store.Store
	catalog *course.Catalog
	now     func() time.Time
	metrics *metrics.Recorder
	logger  *slog.Logger
}

// Option configures a Tracker
type Option func(*Tracker)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithMetrics records answers on r
func WithMetrics(r *metrics.Recorder) Option {
	return func(t *Tracker) {
		t.metrics = r
	}
}

// WithLogger sets the logger used for diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = l
	}
}

// NewTracker creates a tracker over s. The catalog validates the selected
// course and supplies defaults; nil uses the builtin catalog.
func NewTracker(s store.Store, catalog *course.Catalog, opts ...Option) *Tracker {
	if catalog == nil {
		catalog = course.Builtin()
	}
	t := &Tracker{
		store:   s,
		catalog: catalog,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Catalog returns the catalog the tracker validates against
func (t *Tracker) Catalog() *course.Catalog {
	return t.catalog
}

// Now returns the current time from the tracker clock
func (t *Tracker) Now() time.Time {
	return t.now()
}

// GetProgress returns the aggregate progress, zeroed when none is stored
func (t *Tracker) GetProgress(ctx context.Context) (StudyProgress, error) {
	var p StudyProgress
	if _, err := store.GetJSON(ctx, t.store, store.KeyStudyProgress, &p); err != nil {
		return StudyProgress{}, err
	}
	return p, nil
}

// RecordAnswer counts one answer and updates the daily streak.
// The whole record is written back in one replace.
func (t *Tracker) RecordAnswer(ctx context.Context, isCorrect bool) (StudyProgress, error) {
	p, err := t.GetProgress(ctx)
	if err != nil {
		return StudyProgress{}, err
	}

	now := t.now()
	today := now.Format(dateLayout)

	p.TotalLearned++
	if isCorrect {
		p.CorrectCount++
	} else {
		p.WrongCount++
	}

	p.LastStudyDate = NormalizeStudyDate(p.LastStudyDate)
	if p.LastStudyDate != today {
		yesterday := now.AddDate(0, 0, -1).Format(dateLayout)
		if p.LastStudyDate == yesterday {
			p.Streak++
		} else {
			p.Streak = 1
		}
		p.LastStudyDate = today
	}

	if err := store.SetJSON(ctx, t.store, store.KeyStudyProgress, p); err != nil {
		return StudyProgress{}, err
	}
	t.metrics.RecordAnswer(ctx, isCorrect)
	return p, nil
}

// ReplaceProgress overwrites the aggregate record
func (t *Tracker) ReplaceProgress(ctx context.Context, p StudyProgress) error {
	return store.SetJSON(ctx, t.store, store.KeyStudyProgress, p)
}

// TodayProgress compares the words first learned today against the goal
func (t *Tracker) TodayProgress(ctx context.Context) (TodayProgress, error) {
	learned, err := t.LearnedWords(ctx)
	if err != nil {
		return TodayProgress{}, err
	}
	goal, err := t.DailyGoal(ctx)
	if err != nil {
		return TodayProgress{}, err
	}

	now := t.now()
	count := 0
	for _, w := range learned {
		if w.FirstLearnDate != nil && SameDay(*w.FirstLearnDate, now) {
			count++
		}
	}

	percent := math.Min(float64(count)/float64(goal)*100, 100)
	return TodayProgress{
		TodayCount:  count,
		DailyGoal:   goal,
		Percent:     percent,
		IsCompleted: count >= goal,
	}, nil
}

// SameDay reports whether a falls on the same calendar day as ref, judged in
// ref's location
func SameDay(a, ref time.Time) bool {
	return a.In(ref.Location()).Format(dateLayout) == ref.Format(dateLayout)
}

// IsYesterday reports whether a falls on the day before ref
func IsYesterday(a, ref time.Time) bool {
	return SameDay(a, ref.AddDate(0, 0, -1))
}

// DailyGoal returns the stored goal or the catalog default
func (t *Tracker) DailyGoal(ctx context.Context) (int, error) {
	fallback := t.catalog.Settings().DailyGoal

	v, ok, err := t.store.Get(ctx, store.KeyDailyGoal)
	if err != nil {
		return 0, fmt.Errorf("read daily goal: %w", err)
	}
	if !ok {
		return fallback, nil
	}
	goal, err := strconv.Atoi(v)
	if err != nil || goal <= 0 {
		t.logger.Warn("ignoring invalid daily goal", "value", v)
		return fallback, nil
	}
	return goal, nil
}

// SetDailyGoal stores a positive daily goal
func (t *Tracker) SetDailyGoal(ctx context.Context, goal int) error {
	if goal <= 0 {
		return fmt.Errorf("daily goal must be positive, got %d", goal)
	}
	return t.store.Set(ctx, store.KeyDailyGoal, strconv.Itoa(goal))
}

// SelectedCourse returns the stored course name. A stored name that is not
// in the catalog falls back to the default course.
func (t *Tracker) SelectedCourse(ctx context.Context) (string, error) {
	fallback := t.catalog.Settings().DefaultCourse

	v, ok, err := t.store.Get(ctx, store.KeySelectedCourse)
	if err != nil {
		return "", fmt.Errorf("read selected course: %w", err)
	}
	if !ok || v == "" {
		return fallback, nil
	}
	if !t.catalog.IsValid(v) {
		t.logger.Warn("selected course not in catalog, using default", "course", v, "default", fallback)
		return fallback, nil
	}
	return v, nil
}

// SetSelectedCourse stores name if the catalog knows it
func (t *Tracker) SetSelectedCourse(ctx context.Context, name string) error {
	if !t.catalog.IsValid(name) {
		return fmt.Errorf("%w: %s", course.ErrCourseNotFound, name)
	}
	return t.store.Set(ctx, store.KeySelectedCourse, name)
}

// StudyTime returns the accumulated study time in minutes
func (t *Tracker) StudyTime(ctx context.Context) (int, error) {
	v, ok, err := t.store.Get(ctx, store.KeyStudyTime)
	if err != nil {
		return 0, fmt.Errorf("read study time: %w", err)
	}
	if !ok {
		return 0, nil
	}
	minutes, err := strconv.Atoi(v)
	if err != nil {
		t.logger.Warn("ignoring invalid study time", "value", v)
		return 0, nil
	}
	return minutes, nil
}

// AddStudyTime adds minutes to the accumulated study time and returns the total
func (t *Tracker) AddStudyTime(ctx context.Context, minutes int) (int, error) {
	current, err := t.StudyTime(ctx)
	if err != nil {
		return 0, err
	}
	total := current + minutes
	if err := t.SetStudyTime(ctx, total); err != nil {
		return 0, err
	}
	t.logger.Debug("study time updated", "previous", current, "added", minutes, "total", total)
	return total, nil
}

// SetStudyTime overwrites the accumulated study time
func (t *Tracker) SetStudyTime(ctx context.Context, minutes int) error {
	if minutes < 0 {
		return fmt.Errorf("study time cannot be negative, got %d", minutes)
	}
	return t.store.Set(ctx, store.KeyStudyTime, strconv.Itoa(minutes))
}

// DarkMode reports the dark mode preference
func (t *Tracker) DarkMode(ctx context.Context) (bool, error) {
	v, _, err := t.store.Get(ctx, store.KeyDarkMode)
	if err != nil {
		return false, fmt.Errorf("read dark mode: %w", err)
	}
	return v == "true", nil
}

// SetDarkMode stores the dark mode preference
func (t *Tracker) SetDarkMode(ctx context.Context, on bool) error {
	return t.store.Set(ctx, store.KeyDarkMode, strconv.FormatBool(on))
}

// Settings returns all user settings
func (t *Tracker) Settings(ctx context.Context) (Settings, error) {
	goal, err := t.DailyGoal(ctx)
	if err != nil {
		return Settings{}, err
	}
	selected, err := t.SelectedCourse(ctx)
	if err != nil {
		return Settings{}, err
	}
	dark, err := t.DarkMode(ctx)
	if err != nil {
		return Settings{}, err
	}
	return Settings{DailyGoal: goal, SelectedCourse: selected, DarkMode: dark}, nil
}
