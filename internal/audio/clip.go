package audio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/snonux/learnword/internal"
)

// DefaultClipBaseURL hosts recorded human pronunciations
const DefaultClipBaseURL = "https://howjsay.com"

// ClipConfig configures the pronunciation clip engine
type ClipConfig struct {
	BaseURL  string
	CacheDir string
	Timeout  time.Duration
	Client   *http.Client
}

// ClipEngine downloads recorded pronunciations of common words
type ClipEngine struct {
	baseURL  string
	cacheDir string
	timeout  time.Duration
	client   *http.Client
}

// NewClipEngine creates a clip engine. A nil config uses the defaults.
func NewClipEngine(config *ClipConfig) *ClipEngine {
	if config == nil {
		config = &ClipConfig{}
	}
	e := &ClipEngine{
		baseURL:  strings.TrimRight(config.BaseURL, "/"),
		cacheDir: config.CacheDir,
		timeout:  config.Timeout,
		client:   config.Client,
	}
	if e.baseURL == "" {
		e.baseURL = DefaultClipBaseURL
	}
	if e.cacheDir == "" {
		e.cacheDir = filepath.Join(DefaultCacheDir(), "clips")
	}
	if e.timeout <= 0 {
		e.timeout = DefaultTimeout
	}
	if e.client == nil {
		e.client = &http.Client{}
	}
	return e
}

// Name returns the engine name
func (e *ClipEngine) Name() string {
	return "clip"
}

// IsAvailable always reports true; failures surface per word
func (e *ClipEngine) IsAvailable(ctx context.Context) bool {
	return true
}

// ClipURL returns the address of the recording for word
func (e *ClipEngine) ClipURL(word string) string {
	return fmt.Sprintf("%s/mp3/%s.mp3", e.baseURL, url.PathEscape(word))
}

func (e *ClipEngine) cachePath(word string) string {
	return hashedPath(e.cacheDir, internal.HashKey(word), ".mp3")
}

// Resolve downloads the recording for word into the cache directory.
// Options are ignored: a recording has a single voice.
func (e *ClipEngine) Resolve(ctx context.Context, word string, opts Options) Resolution {
	word = strings.TrimSpace(word)
	if err := ValidateWord(word); err != nil {
		return failedWith(err)
	}

	path := e.cachePath(word)
	if cached(path) {
		return resolvedWith(Handle{Source: path})
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.ClipURL(word), nil)
	if err != nil {
		return failedWith(fmt.Errorf("build clip request: %w", err))
	}
	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return failedWith(fmt.Errorf("%w: clip for %q", ErrTimeout, word))
		}
		return failedWith(fmt.Errorf("fetch clip for %q: %w", word, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return failedWith(fmt.Errorf("fetch clip for %q: %s", word, resp.Status))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "audio/") && ct != "application/octet-stream" {
		return failedWith(fmt.Errorf("fetch clip for %q: unexpected content type %s", word, ct))
	}

	if _, err := writeCacheFile(path, resp.Body); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return failedWith(fmt.Errorf("%w: clip for %q", ErrTimeout, word))
		}
		return failedWith(err)
	}
	return resolvedWith(Handle{Source: path})
}

// Describe returns display information
func (e *ClipEngine) Describe() Info {
	return Info{
		Name:        "Howjsay",
		Type:        "Human pronunciation",
		Quality:     "Very Good",
		Limitations: "Common words only",
	}
}

// ClearCache removes downloaded recordings
func (e *ClipEngine) ClearCache() error {
	return clearDir(e.cacheDir)
}

// CacheStats returns the number and total size of downloaded recordings
func (e *ClipEngine) CacheStats() (int, int64, error) {
	return cacheStats(e.cacheDir)
}
