// Package session owns the lifecycle of the single remote document reference:
// at most one live handle at a time, replaced on re-upload and released on
// shutdown.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"docchatgo/internal/models"
)

// ErrNoDocument is returned when a question arrives before any document has
// been successfully uploaded.
var ErrNoDocument = errors.New("no document has been successfully uploaded")

// FileStore is the provider boundary: upload a file, delete it by name, and
// generate an answer with an uploaded file as context.
type FileStore interface {
	Upload(ctx context.Context, path, displayName string) (models.RemoteFile, error)
	Delete(ctx context.Context, name string) error
	Generate(ctx context.Context, file models.RemoteFile, prompt string) (string, error)
}

// Registry persists handle ownership across process restarts.
type Registry interface {
	Record(ctx context.Context, file models.RemoteFile) error
	Remove(ctx context.Context, name string) error
	List(ctx context.Context) ([]models.RemoteFile, error)
}

// DocumentSession wraps the provider calls and holds the current handle.
type DocumentSession struct {
	store  FileStore
	ledger Registry
	logger *slog.Logger

	mu      sync.Mutex
	current *models.RemoteFile
}

// New builds a session. The ledger may be nil, in which case handles are not
// persisted.
func New(store FileStore, ledger Registry, logger *slog.Logger) *DocumentSession {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentSession{store: store, ledger: ledger, logger: logger}
}

// Upload releases any previously held handle (best effort), then sends the
// file at path to the provider. On failure the session holds no handle.
func (s *DocumentSession) Upload(ctx context.Context, path, displayName string) error {
	s.Release(ctx)

	file, err := s.store.Upload(ctx, path, displayName)
	if err != nil {
		return fmt.Errorf("upload document: %w", err)
	}

	s.mu.Lock()
	s.current = &file
	s.mu.Unlock()

	if s.ledger != nil {
		if err := s.ledger.Record(ctx, file); err != nil {
			s.logger.Warn("record uploaded file in ledger", "name", file.Name, "error", err)
		}
	}
	s.logger.Info("document uploaded", "name", file.Name, "display_name", file.DisplayName)
	return nil
}

// Ask sends the held handle plus the question to the generation endpoint and
// returns the answer verbatim. Fails with ErrNoDocument when nothing is held;
// the provider is never called in that case.
func (s *DocumentSession) Ask(ctx context.Context, question string) (string, error) {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	if current == nil {
		return "", ErrNoDocument
	}
	answer, err := s.store.Generate(ctx, *current, question)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return answer, nil
}

// Release deletes the held handle from the provider, if any. Idempotent:
// calling it again without a new upload issues no further delete. Deletion
// errors are logged and swallowed; the handle is cleared regardless.
func (s *DocumentSession) Release(ctx context.Context) {
	s.mu.Lock()
	current := s.current
	s.current = nil
	s.mu.Unlock()

	if current == nil {
		return
	}
	if err := s.store.Delete(ctx, current.Name); err != nil {
		s.logger.Warn("release remote file", "name", current.Name, "error", err)
	} else {
		s.logger.Info("released remote file", "name", current.Name)
	}
	if s.ledger != nil {
		if err := s.ledger.Remove(ctx, current.Name); err != nil {
			s.logger.Warn("remove ledger row", "name", current.Name, "error", err)
		}
	}
}

// Document returns the held handle, if any.
func (s *DocumentSession) Document() (models.RemoteFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return models.RemoteFile{}, false
	}
	return *s.current, true
}

// SweepOrphans deletes remote files a previous run recorded but never
// released. Provider deletes are best effort: remote files expire on their
// own, so stale rows are dropped either way.
func (s *DocumentSession) SweepOrphans(ctx context.Context) error {
	if s.ledger == nil {
		return nil
	}
	files, err := s.ledger.List(ctx)
	if err != nil {
		return fmt.Errorf("list orphaned files: %w", err)
	}
	for _, f := range files {
		if err := s.store.Delete(ctx, f.Name); err != nil {
			s.logger.Warn("delete orphaned remote file", "name", f.Name, "error", err)
		} else {
			s.logger.Info("deleted orphaned remote file", "name", f.Name)
		}
		if err := s.ledger.Remove(ctx, f.Name); err != nil {
			s.logger.Warn("remove orphan ledger row", "name", f.Name, "error", err)
		}
	}
	return nil
}
