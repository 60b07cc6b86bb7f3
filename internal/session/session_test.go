package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"docchatgo/internal/models"
)

type fakeStore struct {
	uploads   int
	deletes   []string
	generates int
	uploadErr error
	deleteErr error
	answer    string
	genErr    error
}

func (f *fakeStore) Upload(ctx context.Context, path, displayName string) (models.RemoteFile, error) {
	f.uploads++
	if f.uploadErr != nil {
		return models.RemoteFile{}, f.uploadErr
	}
	return models.RemoteFile{
		Name:        fmt.Sprintf("files/upload-%d", f.uploads),
		DisplayName: displayName,
		URI:         "https://example.com/" + displayName,
		MIMEType:    "application/pdf",
	}, nil
}

func (f *fakeStore) Delete(ctx context.Context, name string) error {
	f.deletes = append(f.deletes, name)
	return f.deleteErr
}

func (f *fakeStore) Generate(ctx context.Context, file models.RemoteFile, prompt string) (string, error) {
	f.generates++
	if f.genErr != nil {
		return "", f.genErr
	}
	return f.answer, nil
}

type recordingLedger struct {
	records []string
	removes []string
	listed  []models.RemoteFile
}

func (r *recordingLedger) Record(ctx context.Context, file models.RemoteFile) error {
	r.records = append(r.records, file.Name)
	return nil
}

func (r *recordingLedger) Remove(ctx context.Context, name string) error {
	r.removes = append(r.removes, name)
	return nil
}

func (r *recordingLedger) List(ctx context.Context) ([]models.RemoteFile, error) {
	return r.listed, nil
}

func TestAskWithoutDocument(t *testing.T) {
	store := &fakeStore{answer: "unused"}
	s := New(store, nil, nil)

	if _, err := s.Ask(context.Background(), "What is X?"); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
	if store.generates != 0 {
		t.Fatalf("provider must not be called without a handle")
	}
}

func TestUploadStoresHandleAndRecords(t *testing.T) {
	store := &fakeStore{}
	led := &recordingLedger{}
	s := New(store, led, nil)

	if err := s.Upload(context.Background(), "/tmp/doc.pdf", "doc.pdf"); err != nil {
		t.Fatalf("upload: %v", err)
	}
	doc, ok := s.Document()
	if !ok || doc.DisplayName != "doc.pdf" {
		t.Fatalf("handle not stored: %#v", doc)
	}
	if len(led.records) != 1 {
		t.Fatalf("expected one ledger record, got %v", led.records)
	}
}

func TestUploadReleasesPreviousHandle(t *testing.T) {
	store := &fakeStore{}
	s := New(store, nil, nil)
	ctx := context.Background()

	if err := s.Upload(ctx, "/tmp/a.pdf", "a.pdf"); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	first, _ := s.Document()
	if err := s.Upload(ctx, "/tmp/b.pdf", "b.pdf"); err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if len(store.deletes) != 1 || store.deletes[0] != first.Name {
		t.Fatalf("old handle not released before re-upload: %v", store.deletes)
	}
	doc, ok := s.Document()
	if !ok || doc.DisplayName != "b.pdf" {
		t.Fatalf("new handle not held: %#v", doc)
	}
}

func TestUploadProceedsWhenReleaseFails(t *testing.T) {
	store := &fakeStore{deleteErr: errors.New("remote delete failed")}
	s := New(store, nil, nil)
	ctx := context.Background()

	if err := s.Upload(ctx, "/tmp/a.pdf", "a.pdf"); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if err := s.Upload(ctx, "/tmp/b.pdf", "b.pdf"); err != nil {
		t.Fatalf("upload must not fail when cleanup fails: %v", err)
	}
	if store.uploads != 2 {
		t.Fatalf("expected both uploads to reach provider, got %d", store.uploads)
	}
}

func TestUploadFailureLeavesNoHandle(t *testing.T) {
	store := &fakeStore{uploadErr: errors.New("transport error")}
	s := New(store, nil, nil)

	if err := s.Upload(context.Background(), "/tmp/a.pdf", "a.pdf"); err == nil {
		t.Fatalf("expected upload error")
	}
	if _, ok := s.Document(); ok {
		t.Fatalf("failed upload must leave the session without a handle")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	store := &fakeStore{}
	led := &recordingLedger{}
	s := New(store, led, nil)
	ctx := context.Background()

	if err := s.Upload(ctx, "/tmp/a.pdf", "a.pdf"); err != nil {
		t.Fatalf("upload: %v", err)
	}
	s.Release(ctx)
	s.Release(ctx)

	if len(store.deletes) != 1 {
		t.Fatalf("expected at most one delete, got %d", len(store.deletes))
	}
	if len(led.removes) != 1 {
		t.Fatalf("expected one ledger removal, got %v", led.removes)
	}
}

func TestAskReturnsAnswerVerbatim(t *testing.T) {
	store := &fakeStore{answer: "X is Y"}
	s := New(store, nil, nil)
	ctx := context.Background()

	if err := s.Upload(ctx, "/tmp/a.pdf", "a.pdf"); err != nil {
		t.Fatalf("upload: %v", err)
	}
	answer, err := s.Ask(ctx, "What is X?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if answer != "X is Y" {
		t.Fatalf("answer altered: %q", answer)
	}
}

func TestSweepOrphansDeletesRecordedHandles(t *testing.T) {
	store := &fakeStore{deleteErr: errors.New("already expired")}
	led := &recordingLedger{listed: []models.RemoteFile{
		{Name: "files/old-1"},
		{Name: "files/old-2"},
	}}
	s := New(store, led, nil)

	if err := s.SweepOrphans(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(store.deletes) != 2 {
		t.Fatalf("expected delete attempts for both orphans, got %v", store.deletes)
	}
	// rows are dropped even when the provider delete fails
	if len(led.removes) != 2 {
		t.Fatalf("expected both ledger rows removed, got %v", led.removes)
	}
}
