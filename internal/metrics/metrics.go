// Package metrics records learnword counters through the OpenTelemetry
// metrics API. A nil *Recorder is valid and records nothing.
package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope for all learnword metrics
const meterName = "codeberg.org/snonux/learnword"

// Recorder holds the metric instruments
type Recorder struct {
	// Answers counts recorded answers. Attribute: correct (bool).
	Answers metric.Int64Counter

	// AudioAttempts counts engine resolutions. Attributes: engine, status.
	AudioAttempts metric.Int64Counter

	// Playbacks counts PlayWord outcomes. Attribute: status.
	Playbacks metric.Int64Counter
}

// NewRecorder creates the instruments on provider. A nil provider uses the
// global meter provider.
func NewRecorder(provider metric.MeterProvider) (*Recorder, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	answers, err := meter.Int64Counter("learnword.answers",
		metric.WithDescription("Answers recorded by the progress tracker"))
	if err != nil {
		return nil, err
	}
	attempts, err := meter.Int64Counter("learnword.audio.attempts",
		metric.WithDescription("Audio engine resolution attempts"))
	if err != nil {
		return nil, err
	}
	playbacks, err := meter.Int64Counter("learnword.audio.playbacks",
		metric.WithDescription("Word playback requests by outcome"))
	if err != nil {
		return nil, err
	}

	return &Recorder{Answers: answers, AudioAttempts: attempts, Playbacks: playbacks}, nil
}

// RecordAnswer counts one answer
func (r *Recorder) RecordAnswer(ctx context.Context, correct bool) {
	if r == nil {
		return
	}
	r.Answers.Add(ctx, 1, metric.WithAttributes(attribute.Bool("correct", correct)))
}

// RecordAudioAttempt counts one engine resolution with its status
func (r *Recorder) RecordAudioAttempt(ctx context.Context, engine, status string) {
	if r == nil {
		return
	}
	r.AudioAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("engine", engine),
		attribute.String("status", status),
	))
}

// RecordPlayback counts one PlayWord outcome
func (r *Recorder) RecordPlayback(ctx context.Context, status string) {
	if r == nil {
		return
	}
	r.Playbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
