package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"codeberg.org/snonux/learnword/internal/metrics"
)

// DefaultTimeout bounds a single resolution
const DefaultTimeout = 5 * time.Second

// BreakerConfig tunes the circuit breaker kept for each engine
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the breaker
	MaxFailures uint32

	// ResetTimeout is how long an open breaker rejects calls
	ResetTimeout time.Duration
}

// ChainOption configures a Chain
type ChainOption func(*Chain)

// WithTimeout sets the resolution deadline
func WithTimeout(d time.Duration) ChainOption {
	return func(c *Chain) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithBreaker sets the per-engine circuit breaker tuning
func WithBreaker(cfg BreakerConfig) ChainOption {
	return func(c *Chain) {
		c.breakerCfg = cfg
	}
}

// WithMetrics records resolution attempts and playbacks on r
func WithMetrics(r *metrics.Recorder) ChainOption {
	return func(c *Chain) {
		c.metrics = r
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) ChainOption {
	return func(c *Chain) {
		c.logger = l
	}
}

type chainEntry struct {
	engine  Engine
	breaker *gobreaker.CircuitBreaker
}

// Chain plays words through the first engine that works. The engine that
// last succeeded stays current until it fails.
type Chain struct {
	entries    []chainEntry
	player     Player
	timeout    time.Duration
	breakerCfg BreakerConfig
	metrics    *metrics.Recorder
	logger     *slog.Logger

	mu          sync.Mutex
	current     int
	initialized bool
	cache       map[string]Handle
}

// NewChain creates a chain trying engines in the given order
func NewChain(engines []Engine, player Player, opts ...ChainOption) *Chain {
	c := &Chain{
		player:     player,
		timeout:    DefaultTimeout,
		breakerCfg: BreakerConfig{MaxFailures: 3, ResetTimeout: 30 * time.Second},
		logger:     slog.Default(),
		current:    -1,
		cache:      make(map[string]Handle),
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, e := range engines {
		c.entries = append(c.entries, chainEntry{
			engine:  e,
			breaker: c.newBreaker(e.Name()),
		})
	}
	return c
}

func (c *Chain) newBreaker(name string) *gobreaker.CircuitBreaker {
	maxFailures := c.breakerCfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 3
	}
	logger := c.logger
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     c.breakerCfg.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("audio engine breaker changed state", "engine", name, "from", from.String(), "to", to.String())
		},
	})
}

// Init selects the first available engine as current
func (c *Chain) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initLocked(ctx)
}

func (c *Chain) initLocked(ctx context.Context) error {
	c.initialized = true
	c.current = -1
	for i, entry := range c.entries {
		if c.available(ctx, entry) {
			c.current = i
			c.logger.Info("audio engine enabled", "engine", entry.engine.Name())
			return nil
		}
		c.logger.Debug("audio engine unavailable", "engine", entry.engine.Name())
	}
	return fmt.Errorf("%w: no engine available", ErrUnavailable)
}

func (c *Chain) available(ctx context.Context, entry chainEntry) bool {
	if entry.breaker.State() == gobreaker.StateOpen {
		return false
	}
	return entry.engine.IsAvailable(ctx)
}

// PlayWord resolves and plays word. It returns false without an error when
// no engine could resolve the word, and false with ErrPlayback when the
// audio was resolved but could not be played.
func (c *Chain) PlayWord(ctx context.Context, word string, opts Options) (bool, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return false, nil
	}
	key := cacheKey(word, opts)

	c.mu.Lock()
	handle, cached := c.cache[key]
	if !cached && !c.initialized {
		_ = c.initLocked(ctx)
	}
	current := c.current
	c.mu.Unlock()

	if cached {
		return c.playResolved(ctx, key, handle)
	}

	if current >= 0 {
		res := c.resolve(ctx, c.entries[current], word, opts)
		if res.Status == Resolved {
			return c.playResolved(ctx, key, res.Handle)
		}
		c.logger.Warn("current audio engine failed, trying fallbacks",
			"engine", c.entries[current].engine.Name(), "word", word, "error", res.Err)
	}

	for i, entry := range c.entries {
		if i == current {
			continue
		}
		if !c.available(ctx, entry) {
			continue
		}
		res := c.resolve(ctx, entry, word, opts)
		if res.Status != Resolved {
			c.logger.Warn("fallback audio engine failed",
				"engine", entry.engine.Name(), "word", word, "error", res.Err)
			continue
		}

		c.mu.Lock()
		c.current = i
		c.mu.Unlock()
		c.logger.Info("switched audio engine", "engine", entry.engine.Name())

		return c.playResolved(ctx, key, res.Handle)
	}

	c.logger.Warn("no audio played", "word", word, "error", ErrAllEnginesFailed)
	return false, nil
}

// resolve runs one engine behind its breaker and the resolution deadline
func (c *Chain) resolve(ctx context.Context, entry chainEntry, word string, opts Options) Resolution {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	name := entry.engine.Name()
	out, err := entry.breaker.Execute(func() (interface{}, error) {
		res := entry.engine.Resolve(ctx, word, opts)
		if res.Status != Resolved {
			if res.Err == nil {
				res.Err = fmt.Errorf("%s: %s", name, res.Status)
			}
			return res, res.Err
		}
		return res, nil
	})

	var res Resolution
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		res = unavailableWith(fmt.Errorf("%w: %s: %v", ErrUnavailable, name, err))
	default:
		res, _ = out.(Resolution)
		if err != nil && res.Status == Resolved {
			res = failedWith(err)
		}
	}
	if res.Status != Resolved && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(res.Err, ErrTimeout) {
		res.Err = fmt.Errorf("%w: %s: %v", ErrTimeout, name, res.Err)
	}

	c.metrics.RecordAudioAttempt(ctx, name, res.Status.String())
	return res
}

// playResolved caches h under key and plays it. A handle that fails to
// play is dropped from the cache so the next call resolves again.
func (c *Chain) playResolved(ctx context.Context, key string, h Handle) (bool, error) {
	if !h.Spoken {
		c.mu.Lock()
		c.cache[key] = h
		c.mu.Unlock()
	}

	ok, err := c.play(ctx, h)
	if err != nil {
		c.mu.Lock()
		delete(c.cache, key)
		c.mu.Unlock()
	}
	return ok, err
}

func (c *Chain) play(ctx context.Context, h Handle) (bool, error) {
	if h.Spoken {
		c.metrics.RecordPlayback(ctx, "ok")
		return true, nil
	}
	if c.player == nil {
		c.metrics.RecordPlayback(ctx, "error")
		return false, fmt.Errorf("%w: no player configured", ErrPlayback)
	}
	if err := c.player.Play(ctx, h.Source); err != nil {
		c.metrics.RecordPlayback(ctx, "error")
		return false, fmt.Errorf("%w: %v", ErrPlayback, err)
	}
	c.metrics.RecordPlayback(ctx, "ok")
	return true, nil
}

// CurrentEngine returns the current engine name, or "" when none works
func (c *Chain) CurrentEngine() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current < 0 {
		return ""
	}
	return c.entries[c.current].engine.Name()
}

// CurrentEngineInfo describes the current engine
func (c *Chain) CurrentEngineInfo() (Info, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current < 0 {
		return Info{}, false
	}
	return c.entries[c.current].engine.Describe(), true
}

// EngineStatus reports an engine with its availability and breaker state
type EngineStatus struct {
	Info
	Available bool
	Current   bool
	Breaker   string
}

// Engines returns the status of every configured engine in order
func (c *Chain) Engines(ctx context.Context) []EngineStatus {
	c.mu.Lock()
	current := c.current
	c.mu.Unlock()

	statuses := make([]EngineStatus, len(c.entries))
	for i, entry := range c.entries {
		statuses[i] = EngineStatus{
			Info:      entry.engine.Describe(),
			Available: c.available(ctx, entry),
			Current:   i == current,
			Breaker:   entry.breaker.State().String(),
		}
	}
	return statuses
}

// ClearCache forgets every resolved handle
func (c *Chain) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]Handle)
}

// CacheSize returns the number of cached handles
func (c *Chain) CacheSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}
