package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"codeberg.org/snonux/learnword/internal/store"
)

// ErrStoreDown is returned by FailingStore
var ErrStoreDown = errors.New("store unavailable")

// Clock is a settable time source for tests
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock fixed at t
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// AddDays moves the clock by n calendar days
func (c *Clock) AddDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, n)
}

// RecordingStore wraps a MemoryStore and records every call
type RecordingStore struct {
	*store.MemoryStore
	mu    sync.Mutex
	Calls []string

	// FailKeys makes Set on the listed keys fail with ErrStoreDown
	FailKeys map[string]bool
}

// NewRecordingStore creates an empty recording store
func NewRecordingStore() *RecordingStore {
	return &RecordingStore{
		MemoryStore: store.NewMemoryStore(),
		FailKeys:    make(map[string]bool),
	}
}

// Get records and delegates
func (r *RecordingStore) Get(ctx context.Context, key string) (string, bool, error) {
	r.record(fmt.Sprintf("GET %s", key))
	return r.MemoryStore.Get(ctx, key)
}

// Set records and delegates, failing on FailKeys
func (r *RecordingStore) Set(ctx context.Context, key, value string) error {
	r.record(fmt.Sprintf("SET %s", key))
	if r.FailKeys[key] {
		return ErrStoreDown
	}
	return r.MemoryStore.Set(ctx, key, value)
}

// Remove records and delegates
func (r *RecordingStore) Remove(ctx context.Context, key string) error {
	r.record(fmt.Sprintf("DEL %s", key))
	return r.MemoryStore.Remove(ctx, key)
}

// Writes returns how many Set calls targeted key
func (r *RecordingStore) Writes(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.Calls {
		if c == "SET "+key {
			n++
		}
	}
	return n
}

func (r *RecordingStore) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, call)
}

// FailingStore fails every operation
type FailingStore struct{}

// Get always fails
func (FailingStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, ErrStoreDown
}

// Set always fails
func (FailingStore) Set(ctx context.Context, key, value string) error {
	return ErrStoreDown
}

// Remove always fails
func (FailingStore) Remove(ctx context.Context, key string) error {
	return ErrStoreDown
}

// Close does nothing
func (FailingStore) Close() error {
	return nil
}
