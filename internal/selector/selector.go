package selector

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"codeberg.org/snonux/learnword/internal/course"
	"codeberg.org/snonux/learnword/internal/progress"
)

// Selector composes the daily study set
type Selector struct {
	tracker *progress.Tracker
	catalog *course.Catalog
	rng     *rand.Rand
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Selector
type Option func(*Selector)

// WithRand sets the random source used for fresh words
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) {
		s.rng = rng
	}
}

// WithClock overrides the time source used to find yesterday's errors
func WithClock(now func() time.Time) Option {
	return func(s *Selector) {
		s.now = now
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Selector) {
		s.logger = l
	}
}

// New creates a selector. A nil catalog uses the tracker's catalog.
func New(tracker *progress.Tracker, catalog *course.Catalog, opts ...Option) *Selector {
	if catalog == nil {
		catalog = tracker.Catalog()
	}
	s := &Selector{
		tracker: tracker,
		catalog: catalog,
		now:     tracker.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelectTodayWords returns up to count words for today's session: words
// missed yesterday first, then frequently missed words, then fresh words
// from the selected course. Fresh words never repeat a word already chosen
// for review.
func (s *Selector) SelectTodayWords(ctx context.Context, count int) ([]EnhancedWord, error) {
	if count <= 0 {
		return []EnhancedWord{}, nil
	}

	errorWords, err := s.tracker.ErrorWords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load error words: %w", err)
	}

	quota := (count + 2) / 3
	now := s.now()
	chosen := make(map[string]bool)
	var selected []progress.WordRecord

	recent := 0
	for _, w := range errorWords {
		if recent == quota {
			break
		}
		if w.LastErrorDate != nil && progress.IsYesterday(*w.LastErrorDate, now) && !chosen[w.Word] {
			selected = append(selected, w)
			chosen[w.Word] = true
			recent++
		}
	}

	var frequent []progress.WordRecord
	for _, w := range errorWords {
		if w.ErrorCount >= progress.FrequentErrorThreshold && !chosen[w.Word] {
			frequent = append(frequent, w)
		}
	}
	sort.SliceStable(frequent, func(i, j int) bool {
		return frequent[i].ErrorCount > frequent[j].ErrorCount
	})
	if len(frequent) > quota {
		frequent = frequent[:quota]
	}
	for _, w := range frequent {
		selected = append(selected, w)
		chosen[w.Word] = true
	}

	if len(selected) > count {
		selected = selected[:count]
	}

	fresh := 0
	if remaining := count - len(selected); remaining > 0 {
		name, err := s.tracker.SelectedCourse(ctx)
		if err != nil {
			return nil, fmt.Errorf("load selected course: %w", err)
		}
		c, _ := s.catalog.ByName(name)
		for _, w := range s.catalog.RandomWords(name, c.WordCount(), s.rng) {
			if fresh == remaining {
				break
			}
			if chosen[w.Word] {
				continue
			}
			selected = append(selected, progress.FromCourseWord(w))
			chosen[w.Word] = true
			fresh++
		}
	}

	s.logger.Debug("selected today's words",
		"count", count, "recent", recent, "frequent", len(frequent), "fresh", fresh)

	result := make([]EnhancedWord, len(selected))
	for i, w := range selected {
		result[i] = EnhanceRecord(w)
	}
	return result, nil
}
