package staging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSaveWritesUniqueFiles(t *testing.T) {
	store, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	first, err := store.Save(bytes.NewReader([]byte("%PDF-1.4 one")))
	if err != nil {
		t.Fatalf("save first: %v", err)
	}
	second, err := store.Save(bytes.NewReader([]byte("%PDF-1.4 two")))
	if err != nil {
		t.Fatalf("save second: %v", err)
	}
	if first == second {
		t.Fatalf("staged paths must be unique")
	}
	if !strings.HasSuffix(first, ".pdf") {
		t.Fatalf("staged file should keep pdf extension: %s", first)
	}
	data, err := os.ReadFile(first)
	if err != nil || string(data) != "%PDF-1.4 one" {
		t.Fatalf("staged content mismatch: %q, %v", data, err)
	}
}

func TestSweepRemovesOnlyStaleFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	stale := filepath.Join(dir, "stale.pdf")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatalf("write stale file: %v", err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("age stale file: %v", err)
	}

	fresh, err := store.Save(bytes.NewReader([]byte("new")))
	if err != nil {
		t.Fatalf("save fresh file: %v", err)
	}

	if err := store.Sweep(time.Hour); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale file should be removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh file should survive sweep: %v", err)
	}
}
