package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Keys used by the application. The values match the keys the browser
// version wrote to localStorage so exported data stays compatible.
const (
	KeyStudyProgress  = "learn_word_study_progress"
	KeyErrorWords     = "learn_word_error_words"
	KeyLearnedWords   = "learn_word_learned_words"
	KeyDailyGoal      = "learn_word_daily_goal"
	KeySelectedCourse = "learn_word_selected_course"
	KeyStudyTime      = "learn_word_study_time"
	KeyDarkMode       = "learn_word_dark_mode"
)

// Store is a durable string key-value store
type Store interface {
	// Get returns the value for key and whether it was present
	Get(ctx context.Context, key string) (string, bool, error)

	// Set replaces the value stored under key
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases backend resources
	Close() error
}

// Config selects and configures a store backend
type Config struct {
	Driver   string // "memory", "sqlite" or "redis"
	Path     string // SQLite database file
	RedisURL string // redis://host:port/db
	Prefix   string // Key prefix for the redis backend
}

// DefaultConfig returns the default store configuration
func DefaultConfig() *Config {
	return &Config{
		Driver: "sqlite",
		Path:   "learnword.db",
		Prefix: "learnword:",
	}
}

// Open creates the store backend described by config
func Open(ctx context.Context, config *Config) (Store, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite", "":
		st, err := OpenSQLite(config.Path)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "redis":
		st, err := OpenRedis(ctx, config.RedisURL, config.Prefix)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", config.Driver)
	}
}

// GetJSON decodes the record stored under key into v.
// It reports false when the key is absent.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	data, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || data == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and writes it under key as a single replace
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
