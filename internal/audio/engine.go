package audio

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrAllEnginesFailed is logged when no engine could resolve a word
	ErrAllEnginesFailed = errors.New("all audio engines failed")

	// ErrPlayback is returned when a resolved handle could not be played
	ErrPlayback = errors.New("audio playback failed")

	// ErrUnavailable marks an engine that cannot be used right now
	ErrUnavailable = errors.New("audio engine unavailable")

	// ErrTimeout marks a resolution that ran past its deadline
	ErrTimeout = errors.New("audio resolution timed out")
)

// Options tune how a word is spoken. Zero fields use engine defaults.
type Options struct {
	Voice  string  `json:"voice,omitempty"`
	Lang   string  `json:"lang,omitempty"`
	Rate   float64 `json:"rate,omitempty"`
	Pitch  float64 `json:"pitch,omitempty"`
	Volume float64 `json:"volume,omitempty"`
}

// DefaultOptions returns the speaking parameters used for learners:
// US English, slightly slow
func DefaultOptions() Options {
	return Options{
		Lang:   "en-US",
		Rate:   0.75,
		Pitch:  1.0,
		Volume: 1.0,
	}
}

// withDefaults fills zero fields from DefaultOptions
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Lang == "" {
		o.Lang = d.Lang
	}
	if o.Rate == 0 {
		o.Rate = d.Rate
	}
	if o.Pitch == 0 {
		o.Pitch = d.Pitch
	}
	if o.Volume == 0 {
		o.Volume = d.Volume
	}
	return o
}

// cacheKey identifies a resolution of word with opts
func cacheKey(word string, opts Options) string {
	data, _ := json.Marshal(opts)
	return word + "_" + string(data)
}

// Status is the outcome of a resolution
type Status int

const (
	Resolved Status = iota
	Unavailable
	ResolutionFailed
)

func (s Status) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case Unavailable:
		return "unavailable"
	default:
		return "failed"
	}
}

// Handle is something a Player can play. Spoken handles were already played
// by the engine while resolving and are never cached.
type Handle struct {
	Source string
	Spoken bool
}

// Resolution is the result of asking an engine for a word
type Resolution struct {
	Status Status
	Handle Handle
	Err    error
}

func resolvedWith(h Handle) Resolution {
	return Resolution{Status: Resolved, Handle: h}
}

func failedWith(err error) Resolution {
	return Resolution{Status: ResolutionFailed, Err: err}
}

func unavailableWith(err error) Resolution {
	return Resolution{Status: Unavailable, Err: err}
}

// Info describes an engine for display
type Info struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Quality      string `json:"quality"`
	Limitations  string `json:"limitations,omitempty"`
	CurrentVoice string `json:"currentVoice,omitempty"`
}

// Engine is a pronunciation backend
type Engine interface {
	// Name returns the engine name used in configuration
	Name() string

	// IsAvailable reports whether the engine can be used
	IsAvailable(ctx context.Context) bool

	// Resolve produces a playable handle for word
	Resolve(ctx context.Context, word string, opts Options) Resolution

	// Describe returns display information
	Describe() Info
}
