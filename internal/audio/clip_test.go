package audio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newClipServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/mp3/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch strings.TrimPrefix(r.URL.Path, "/mp3/") {
		case "cat.mp3", "ice cream.mp3":
			w.Header().Set("Content-Type", "audio/mpeg")
			w.Write([]byte("ID3fake-mp3-data"))
		case "Polish.mp3", "polish.mp3", "it's.mp3", "it s.mp3":
			w.Header().Set("Content-Type", "audio/mpeg")
			w.Write([]byte("clip-for:" + strings.TrimPrefix(r.URL.Path, "/mp3/")))
		case "slow.mp3":
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		case "page.mp3":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html>not found</html>"))
		case "empty.mp3":
			w.Header().Set("Content-Type", "audio/mpeg")
		default:
			http.NotFound(w, r)
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &hits
}

func TestClipURL(t *testing.T) {
	e := NewClipEngine(&ClipConfig{BaseURL: "https://example.com/"})

	tests := []struct {
		word string
		want string
	}{
		{"cat", "https://example.com/mp3/cat.mp3"},
		{"ice cream", "https://example.com/mp3/ice%20cream.mp3"},
		{"a/b", "https://example.com/mp3/a%2Fb.mp3"},
	}
	for _, tt := range tests {
		if got := e.ClipURL(tt.word); got != tt.want {
			t.Errorf("ClipURL(%q) = %s, want %s", tt.word, got, tt.want)
		}
	}

	if got := NewClipEngine(nil).ClipURL("cat"); got != DefaultClipBaseURL+"/mp3/cat.mp3" {
		t.Errorf("default ClipURL() = %s", got)
	}
}

func TestClipEngineResolve(t *testing.T) {
	server, hits := newClipServer(t)
	e := NewClipEngine(&ClipConfig{BaseURL: server.URL, CacheDir: t.TempDir(), Timeout: 200 * time.Millisecond})
	ctx := context.Background()

	tests := []struct {
		name   string
		word   string
		status Status
	}{
		{"found", "cat", Resolved},
		{"phrase", "ice cream", Resolved},
		{"not found", "zzyzx", ResolutionFailed},
		{"html page", "page", ResolutionFailed},
		{"empty body", "empty", ResolutionFailed},
		{"invalid word", "苹果", ResolutionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Resolve(ctx, tt.word, Options{})
			if res.Status != tt.status {
				t.Fatalf("Resolve(%q) status = %v, want %v (err %v)", tt.word, res.Status, tt.status, res.Err)
			}
			if res.Status != Resolved {
				return
			}
			if res.Handle.Spoken {
				t.Error("clip handle marked spoken")
			}
			data, err := os.ReadFile(res.Handle.Source)
			if err != nil {
				t.Fatalf("cached clip not readable: %v", err)
			}
			if string(data) != "ID3fake-mp3-data" {
				t.Errorf("cached clip = %q", data)
			}
		})
	}

	// A second resolve is served from the cache directory
	before := atomic.LoadInt32(hits)
	if res := e.Resolve(ctx, "cat", Options{}); res.Status != Resolved {
		t.Fatalf("cached Resolve() = %+v", res)
	}
	if atomic.LoadInt32(hits) != before {
		t.Error("cached clip fetched again")
	}

	count, size, err := e.CacheStats()
	if err != nil || count != 2 || size == 0 {
		t.Errorf("CacheStats() = %d, %d, %v; want 2 files", count, size, err)
	}
	if err := e.ClearCache(); err != nil {
		t.Fatalf("ClearCache() error = %v", err)
	}
	if count, _, _ := e.CacheStats(); count != 0 {
		t.Errorf("CacheStats() after clear = %d files", count)
	}
}

func TestClipEngineCacheKeepsWordsApart(t *testing.T) {
	server, _ := newClipServer(t)
	e := NewClipEngine(&ClipConfig{BaseURL: server.URL, CacheDir: t.TempDir(), Timeout: time.Second})
	ctx := context.Background()

	for _, word := range []string{"Polish", "polish", "it's", "it s"} {
		res := e.Resolve(ctx, word, Options{})
		if res.Status != Resolved {
			t.Fatalf("Resolve(%q) = %+v", word, res)
		}
		data, err := os.ReadFile(res.Handle.Source)
		if err != nil {
			t.Fatalf("cached clip not readable: %v", err)
		}
		if want := "clip-for:" + word + ".mp3"; string(data) != want {
			t.Errorf("Resolve(%q) played %q, want %q", word, data, want)
		}
	}

	if count, _, _ := e.CacheStats(); count != 4 {
		t.Errorf("CacheStats() = %d files, want 4", count)
	}
}

func TestClipEngineTimeout(t *testing.T) {
	server, _ := newClipServer(t)
	e := NewClipEngine(&ClipConfig{BaseURL: server.URL, CacheDir: t.TempDir(), Timeout: 50 * time.Millisecond})

	start := time.Now()
	res := e.Resolve(context.Background(), "slow", Options{})
	if res.Status != ResolutionFailed {
		t.Fatalf("Resolve() status = %v, want failed", res.Status)
	}
	if !errors.Is(res.Err, ErrTimeout) {
		t.Errorf("Resolve() error = %v, want ErrTimeout", res.Err)
	}
	if time.Since(start) > time.Second {
		t.Error("Resolve() did not honour its timeout")
	}
}

func TestClipEngineDescribe(t *testing.T) {
	e := NewClipEngine(nil)
	if !e.IsAvailable(context.Background()) {
		t.Error("IsAvailable() = false")
	}
	info := e.Describe()
	if info.Name != "Howjsay" || info.Limitations == "" {
		t.Errorf("Describe() = %+v", info)
	}
}
