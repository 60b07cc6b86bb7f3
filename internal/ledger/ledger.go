// Package ledger records which remote files this process has uploaded so a
// later run can delete handles that a crash left behind on the provider.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"docchatgo/internal/models"
)

// Open connects to the SQLite database at the provided path, creating the
// parent directory when needed.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger path must be provided")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping ledger database: %w", err)
	}
	return db, nil
}

// Migrate ensures the required tables are present.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS remote_files (
			name TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			uri TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			uploaded_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate ledger: %w", err)
		}
	}
	return nil
}

// Ledger persists remote file handles.
type Ledger struct {
	db *sql.DB
}

// New wraps an opened database.
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Record stores a freshly uploaded handle. Re-recording the same name
// replaces the previous row.
func (l *Ledger) Record(ctx context.Context, file models.RemoteFile) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO remote_files (name, display_name, uri, mime_type, uploaded_at) VALUES (?, ?, ?, ?, ?)`,
		file.Name, file.DisplayName, file.URI, file.MIMEType, file.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("record remote file: %w", err)
	}
	return nil
}

// Remove drops the row for a released handle. Removing an unknown name is
// not an error.
func (l *Ledger) Remove(ctx context.Context, name string) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM remote_files WHERE name = ?`, name); err != nil {
		return fmt.Errorf("remove remote file: %w", err)
	}
	return nil
}

// List returns every recorded handle, oldest first.
func (l *Ledger) List(ctx context.Context) ([]models.RemoteFile, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT name, display_name, uri, mime_type, uploaded_at FROM remote_files ORDER BY uploaded_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list remote files: %w", err)
	}
	defer rows.Close()

	var files []models.RemoteFile
	for rows.Next() {
		var f models.RemoteFile
		if err := rows.Scan(&f.Name, &f.DisplayName, &f.URI, &f.MIMEType, &f.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan remote file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}
