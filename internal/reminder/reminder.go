// Package reminder nudges the learner once a day while the daily goal is
// still open.
package reminder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"codeberg.org/snonux/learnword/internal/progress"
	"codeberg.org/snonux/learnword/internal/session"
)

// DefaultAt is the default reminder time of day
const DefaultAt = "20:00"

// Notifier delivers a reminder message
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, message string) error

// Notify calls f
func (f NotifierFunc) Notify(ctx context.Context, message string) error {
	return f(ctx, message)
}

// WriterNotifier prints reminders to W
type WriterNotifier struct {
	W io.Writer
}

// Notify writes message followed by a newline
func (n WriterNotifier) Notify(ctx context.Context, message string) error {
	_, err := fmt.Fprintln(n.W, message)
	return err
}

// Reminder checks today's progress on a daily schedule
type Reminder struct {
	tracker  *progress.Tracker
	notifier Notifier
	logger   *slog.Logger
	loc      *time.Location

	mu        sync.Mutex
	rng       *rand.Rand
	scheduler *gocron.Scheduler
}

// Option configures a Reminder
type Option func(*Reminder)

// WithLocation sets the time zone the daily time is read in
func WithLocation(loc *time.Location) Option {
	return func(r *Reminder) {
		r.loc = loc
	}
}

// WithRand sets the source used to pick the motivational line
func WithRand(rng *rand.Rand) Option {
	return func(r *Reminder) {
		r.rng = rng
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(r *Reminder) {
		r.logger = l
	}
}

// New creates a Reminder for tracker
func New(tracker *progress.Tracker, notifier Notifier, opts ...Option) *Reminder {
	r := &Reminder{
		tracker:  tracker,
		notifier: notifier,
		logger:   slog.Default(),
		loc:      time.Local,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Check notifies when today's goal is not yet met. It returns today's
// progress and whether a notification was sent.
func (r *Reminder) Check(ctx context.Context) (progress.TodayProgress, bool, error) {
	today, err := r.tracker.TodayProgress(ctx)
	if err != nil {
		return progress.TodayProgress{}, false, fmt.Errorf("read today's progress: %w", err)
	}
	if today.IsCompleted {
		r.logger.Debug("daily goal met, no reminder", "count", today.TodayCount, "goal", today.DailyGoal)
		return today, false, nil
	}

	if err := r.notifier.Notify(ctx, r.message(today)); err != nil {
		return today, false, fmt.Errorf("send reminder: %w", err)
	}
	r.logger.Info("reminder sent", "count", today.TodayCount, "goal", today.DailyGoal)
	return today, true, nil
}

func (r *Reminder) message(today progress.TodayProgress) string {
	r.mu.Lock()
	quote := session.Pick(session.MotivationalQuotes, r.rng)
	r.mu.Unlock()

	remaining := today.DailyGoal - today.TodayCount
	return fmt.Sprintf("今天还差 %d 个单词完成目标 (%d/%d)。%s",
		remaining, today.TodayCount, today.DailyGoal, quote)
}

// Start schedules Check every day at "HH:MM". It does not block.
func (r *Reminder) Start(ctx context.Context, at string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.scheduler != nil {
		return fmt.Errorf("reminder already started")
	}

	s := gocron.NewScheduler(r.loc)
	_, err := s.Every(1).Day().At(at).Do(func() {
		if _, _, err := r.Check(ctx); err != nil {
			r.logger.Error("reminder check failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reminder at %q: %w", at, err)
	}

	s.StartAsync()
	r.scheduler = s
	r.logger.Info("reminder scheduled", "at", at)
	return nil
}

// NextRun returns when the next check fires, or false if not started
func (r *Reminder) NextRun() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scheduler == nil {
		return time.Time{}, false
	}
	_, next := r.scheduler.NextRun()
	return next, true
}

// Stop cancels the schedule
func (r *Reminder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scheduler != nil {
		r.scheduler.Stop()
		r.scheduler = nil
	}
}
