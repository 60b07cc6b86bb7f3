// Package staging spools uploaded documents to local disk between the HTTP
// request and the provider upload worker.
package staging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Store writes incoming files into a spool directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New ensures the spool directory exists.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Save copies src to a uniquely named file and returns its path.
func (s *Store) Save(src io.Reader) (string, error) {
	path := filepath.Join(s.dir, uuid.NewString()+".pdf")
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("write staged file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close staged file: %w", err)
	}
	return path, nil
}

// StartCleaner periodically removes staged files older than ttl. Workers
// normally delete their own file; the cleaner catches files a crash left
// behind.
func (s *Store) StartCleaner(ctx context.Context, interval, ttl time.Duration) {
	go s.cleanupLoop(ctx, interval, ttl)
}

func (s *Store) cleanupLoop(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ttl); err != nil {
				s.logger.Warn("sweep staging directory", "error", err)
			}
		}
	}
}

// Sweep removes staged files whose modification time is older than ttl.
func (s *Store) Sweep(ttl time.Duration) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read staging directory: %w", err)
	}
	cutoff := time.Now().Add(-ttl)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("remove stale staged file", "path", path, "error", err)
		}
	}
	return nil
}
