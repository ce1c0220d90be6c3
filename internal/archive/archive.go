package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ErrMissing is returned when the file to back up does not exist
var ErrMissing = errors.New("file does not exist")

// BackupFile copies path into an archive directory next to it, named
// <name>-<timestamp>, and returns the backup's path
func BackupFile(path string) (string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrMissing, path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("cannot back up directory: %s", path)
	}

	archiveDir := filepath.Join(filepath.Dir(path), "archive")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	name := filepath.Base(path)
	archivePath := filepath.Join(archiveDir, fmt.Sprintf("%s-%s", name, time.Now().Format("20060102-150405")))

	// Two backups within the same second get microseconds appended
	if _, err := os.Stat(archivePath); err == nil {
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("%s-%s", name, time.Now().Format("20060102-150405.000000")))
	}

	if err := copyFile(path, archivePath, info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", path, err)
	}
	return archivePath, nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
