package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultCacheDir returns the directory audio files are cached in when none
// is configured
func DefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "learnword", "audio")
	}
	return filepath.Join(os.TempDir(), "learnword", "audio")
}

// cached reports whether path holds a non-empty file
func cached(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

// writeCacheFile stores r at path through a temporary file so a partial
// download never looks like a cache hit
func writeCacheFile(path string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("failed to write audio file: %w", err)
	}
	if written == 0 {
		return 0, fmt.Errorf("no audio data received")
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("failed to store audio file: %w", err)
	}
	return written, nil
}

// hashedPath spreads cache files over subdirectories named by the first two
// characters of hash
func hashedPath(dir, hash, ext string) string {
	return filepath.Join(dir, hash[:2], hash[2:]+ext)
}

// clearDir removes every cached file below dir
func clearDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.RemoveAll(dir)
}

// cacheStats counts the files below dir and their total size
func cacheStats(dir string) (fileCount int, totalSize int64, err error) {
	if dir == "" {
		return 0, 0, nil
	}
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if !info.IsDir() {
			fileCount++
			totalSize += info.Size()
		}
		return nil
	})
	return fileCount, totalSize, err
}
