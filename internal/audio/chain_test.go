package audio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"codeberg.org/snonux/learnword/internal/metrics"
)

// mockEngine implements Engine for testing
type mockEngine struct {
	name         string
	available    bool
	resolveErr   error
	spoken       bool
	delay        time.Duration
	resolveCalls int
	mu           sync.Mutex
}

func (m *mockEngine) Name() string {
	return m.name
}

func (m *mockEngine) IsAvailable(ctx context.Context) bool {
	return m.available
}

func (m *mockEngine) Resolve(ctx context.Context, word string, opts Options) Resolution {
	m.mu.Lock()
	m.resolveCalls++
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return failedWith(ctx.Err())
		}
	}
	if m.resolveErr != nil {
		return failedWith(m.resolveErr)
	}
	return resolvedWith(Handle{Source: m.name + ":" + word, Spoken: m.spoken})
}

func (m *mockEngine) Describe() Info {
	return Info{Name: m.name, Type: "mock"}
}

func (m *mockEngine) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveCalls
}

// mockPlayer records played sources
type mockPlayer struct {
	played []string
	err    error
}

func (p *mockPlayer) Play(ctx context.Context, source string) error {
	p.played = append(p.played, source)
	return p.err
}

func TestChainFallbackSwitchesEngine(t *testing.T) {
	a := &mockEngine{name: "A", available: true, resolveErr: errors.New("404")}
	b := &mockEngine{name: "B", available: true}
	player := &mockPlayer{}
	chain := NewChain([]Engine{a, b}, player)
	ctx := context.Background()

	if err := chain.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if got := chain.CurrentEngine(); got != "A" {
		t.Fatalf("CurrentEngine() after Init = %q, want A", got)
	}

	ok, err := chain.PlayWord(ctx, "cat", Options{})
	if !ok || err != nil {
		t.Fatalf("PlayWord() = %v, %v; want true, nil", ok, err)
	}
	if got := chain.CurrentEngine(); got != "B" {
		t.Errorf("CurrentEngine() = %q, want B", got)
	}
	if len(player.played) != 1 || player.played[0] != "B:cat" {
		t.Errorf("played = %v, want [B:cat]", player.played)
	}

	// B stays current; A is not asked again
	aCalls := a.calls()
	if ok, _ := chain.PlayWord(ctx, "dog", Options{}); !ok {
		t.Error("second PlayWord() = false")
	}
	if a.calls() != aCalls {
		t.Errorf("engine A resolved %d more times after the switch", a.calls()-aCalls)
	}
	if info, ok := chain.CurrentEngineInfo(); !ok || info.Name != "B" {
		t.Errorf("CurrentEngineInfo() = %+v, %v", info, ok)
	}
}

func TestChainInitSkipsUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		engines []Engine
		want    string
		wantErr bool
	}{
		{
			name:    "first available",
			engines: []Engine{&mockEngine{name: "A", available: true}, &mockEngine{name: "B", available: true}},
			want:    "A",
		},
		{
			name:    "skip unavailable",
			engines: []Engine{&mockEngine{name: "A"}, &mockEngine{name: "B", available: true}},
			want:    "B",
		},
		{
			name:    "none available",
			engines: []Engine{&mockEngine{name: "A"}, &mockEngine{name: "B"}},
			want:    "",
			wantErr: true,
		},
		{
			name:    "no engines",
			want:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := NewChain(tt.engines, &mockPlayer{})
			err := chain.Init(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Init() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrUnavailable) {
				t.Errorf("Init() error = %v, want ErrUnavailable", err)
			}
			if got := chain.CurrentEngine(); got != tt.want {
				t.Errorf("CurrentEngine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChainCachesHandles(t *testing.T) {
	a := &mockEngine{name: "A", available: true}
	player := &mockPlayer{}
	chain := NewChain([]Engine{a}, player)
	ctx := context.Background()

	chain.PlayWord(ctx, "cat", Options{})
	chain.PlayWord(ctx, "cat", Options{})
	if a.calls() != 1 {
		t.Errorf("resolve calls = %d, want 1 with cache", a.calls())
	}
	if len(player.played) != 2 {
		t.Errorf("played %d times, want 2", len(player.played))
	}

	// Different options are a different cache entry
	chain.PlayWord(ctx, "cat", Options{Rate: 1.2})
	if a.calls() != 2 {
		t.Errorf("resolve calls = %d, want 2 for new options", a.calls())
	}
	if chain.CacheSize() != 2 {
		t.Errorf("CacheSize() = %d, want 2", chain.CacheSize())
	}

	chain.ClearCache()
	chain.PlayWord(ctx, "cat", Options{})
	if a.calls() != 3 {
		t.Errorf("resolve calls = %d, want 3 after ClearCache", a.calls())
	}
}

func TestChainSpokenHandlesNotCached(t *testing.T) {
	speech := &mockEngine{name: "speech", available: true, spoken: true}
	player := &mockPlayer{}
	chain := NewChain([]Engine{speech}, player)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if ok, err := chain.PlayWord(ctx, "cat", Options{}); !ok || err != nil {
			t.Fatalf("PlayWord() = %v, %v", ok, err)
		}
	}
	if speech.calls() != 2 {
		t.Errorf("resolve calls = %d, want 2", speech.calls())
	}
	if len(player.played) != 0 {
		t.Errorf("player used for spoken handle: %v", player.played)
	}
	if chain.CacheSize() != 0 {
		t.Errorf("CacheSize() = %d, want 0", chain.CacheSize())
	}
}

func TestChainAllEnginesFail(t *testing.T) {
	a := &mockEngine{name: "A", available: true, resolveErr: errors.New("down")}
	b := &mockEngine{name: "B", available: true, resolveErr: errors.New("down")}
	c := &mockEngine{name: "C", available: false}
	chain := NewChain([]Engine{a, b, c}, &mockPlayer{})

	ok, err := chain.PlayWord(context.Background(), "cat", Options{})
	if ok || err != nil {
		t.Errorf("PlayWord() = %v, %v; want false, nil", ok, err)
	}
	if c.calls() != 0 {
		t.Error("unavailable engine was asked to resolve")
	}
	if got := chain.CurrentEngine(); got != "A" {
		t.Errorf("CurrentEngine() = %q, want A unchanged", got)
	}
}

func TestChainEmptyWord(t *testing.T) {
	a := &mockEngine{name: "A", available: true}
	chain := NewChain([]Engine{a}, &mockPlayer{})

	if ok, err := chain.PlayWord(context.Background(), "  ", Options{}); ok || err != nil {
		t.Errorf("PlayWord(empty) = %v, %v", ok, err)
	}
	if a.calls() != 0 {
		t.Error("engine asked to resolve an empty word")
	}
}

func TestChainPlaybackFailure(t *testing.T) {
	a := &mockEngine{name: "A", available: true}
	player := &mockPlayer{err: errors.New("no device")}
	chain := NewChain([]Engine{a}, player)
	ctx := context.Background()

	ok, err := chain.PlayWord(ctx, "cat", Options{})
	if ok || !errors.Is(err, ErrPlayback) {
		t.Fatalf("PlayWord() = %v, %v; want false, ErrPlayback", ok, err)
	}
	if chain.CurrentEngine() != "A" {
		t.Error("playback failure changed the current engine")
	}

	// The failed handle is evicted and the chain keeps working
	if chain.CacheSize() != 0 {
		t.Errorf("CacheSize() = %d after failed playback, want 0", chain.CacheSize())
	}
	player.err = nil
	ok, err = chain.PlayWord(ctx, "cat", Options{})
	if !ok || err != nil {
		t.Errorf("PlayWord() after recovery = %v, %v", ok, err)
	}
	if a.calls() != 2 {
		t.Errorf("resolve calls = %d, want 2", a.calls())
	}
}

func TestChainTimeout(t *testing.T) {
	slow := &mockEngine{name: "slow", available: true, delay: time.Second}
	fast := &mockEngine{name: "fast", available: true}
	chain := NewChain([]Engine{slow, fast}, &mockPlayer{}, WithTimeout(20*time.Millisecond))

	start := time.Now()
	ok, err := chain.PlayWord(context.Background(), "cat", Options{})
	if !ok || err != nil {
		t.Fatalf("PlayWord() = %v, %v", ok, err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("PlayWord() took %v, want the timeout to cut the slow engine short", elapsed)
	}
	if chain.CurrentEngine() != "fast" {
		t.Errorf("CurrentEngine() = %q, want fast", chain.CurrentEngine())
	}
}

func TestChainBreakerOpens(t *testing.T) {
	flaky := &mockEngine{name: "flaky", available: true, resolveErr: errors.New("500")}
	chain := NewChain([]Engine{flaky}, &mockPlayer{},
		WithBreaker(BreakerConfig{MaxFailures: 2, ResetTimeout: time.Hour}))
	ctx := context.Background()

	for i, word := range []string{"a", "b", "c", "d"} {
		chain.PlayWord(ctx, word, Options{})
		if i >= 1 && flaky.calls() != 2 {
			t.Errorf("after %d words resolve calls = %d, want 2 once the breaker is open", i+1, flaky.calls())
		}
	}

	statuses := chain.Engines(ctx)
	if len(statuses) != 1 || statuses[0].Breaker != "open" || statuses[0].Available {
		t.Errorf("Engines() = %+v, want open breaker and unavailable", statuses)
	}
}

func TestChainMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	recorder, err := metrics.NewRecorder(provider)
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}

	a := &mockEngine{name: "A", available: true, resolveErr: errors.New("down")}
	b := &mockEngine{name: "B", available: true}
	chain := NewChain([]Engine{a, b}, &mockPlayer{}, WithMetrics(recorder))
	chain.PlayWord(context.Background(), "cat", Options{})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	attempts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "learnword.audio.attempts" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("attempts data = %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				engine, _ := dp.Attributes.Value(attribute.Key("engine"))
				status, _ := dp.Attributes.Value(attribute.Key("status"))
				attempts[engine.AsString()+"/"+status.AsString()] += dp.Value
			}
		}
	}
	if attempts["A/failed"] != 1 || attempts["B/resolved"] != 1 {
		t.Errorf("attempts = %v", attempts)
	}
}

func TestCacheKey(t *testing.T) {
	if cacheKey("cat", Options{}) != "cat_{}" {
		t.Errorf("cacheKey() = %q", cacheKey("cat", Options{}))
	}
	if cacheKey("cat", Options{Rate: 0.75}) == cacheKey("cat", Options{}) {
		t.Error("cacheKey() ignores options")
	}
}
