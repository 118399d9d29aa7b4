package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pop/internal/storage"

	_ "modernc.org/sqlite"
)

// Store persists index records inside a SQLite database.
type Store struct {
	db *sql.DB
}

// Open initializes (or reuses) a SQLite database at the provided path.
//
// The connection runs with synchronous=OFF and an in-memory journal so bulk
// indexing is not bound by disk flushes. A process killed mid-scan may leave
// the database incomplete; re-running the index rebuilds it.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: database path cannot be empty", storage.ErrInit)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create database directory: %w", storage.ErrInit, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite database: %w", storage.ErrInit, err)
	}
	// PRAGMAs are per connection; a single connection keeps them in effect.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA synchronous = OFF;",
		"PRAGMA journal_mode = MEMORY;",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			db.Close()
			return nil, fmt.Errorf("%w: apply pragma %q: %w", storage.ErrInit, pragma, execErr)
		}
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS files (
        path TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        extension TEXT,
        size INTEGER NOT NULL,
        last_modified INTEGER NOT NULL,
        is_dir INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_name ON files(name);
CREATE INDEX IF NOT EXISTS idx_files_extension ON files(extension);
CREATE INDEX IF NOT EXISTS idx_files_size ON files(size);
CREATE INDEX IF NOT EXISTS idx_files_last_modified ON files(last_modified);
`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("%w: initialize schema: %w", storage.ErrInit, err)
	}
	return nil
}

const upsertSQL = `
INSERT INTO files(path, name, extension, size, last_modified, is_dir)
VALUES(?, ?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
        name=excluded.name,
        extension=excluded.extension,
        size=excluded.size,
        last_modified=excluded.last_modified,
        is_dir=excluded.is_dir
`

// UpsertBatch writes records in one transaction. An existing path is replaced
// in full. On any failure nothing from the batch is committed.
func (s *Store) UpsertBatch(ctx context.Context, records []storage.Record) (err error) {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin batch: %w", storage.ErrWrite, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return fmt.Errorf("%w: prepare upsert: %w", storage.ErrWrite, err)
	}
	defer stmt.Close()

	for _, record := range records {
		_, err = stmt.ExecContext(ctx,
			record.Path,
			record.Name,
			nullString(record.Extension),
			record.Size,
			record.LastModified,
			record.IsDir,
		)
		if err != nil {
			return fmt.Errorf("%w: upsert record %s: %w", storage.ErrWrite, record.Path, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit batch: %w", storage.ErrWrite, err)
	}
	return nil
}

// Clear removes every record. Freed pages are not reclaimed.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM files`); err != nil {
		return fmt.Errorf("%w: clear records: %w", storage.ErrWrite, err)
	}
	return nil
}

// Query executes plan and returns the matching records in plan order.
func (s *Store) Query(ctx context.Context, plan storage.Plan) ([]storage.Record, error) {
	query, args, err := compile(plan)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrQuery, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query records: %w", storage.ErrQuery, err)
	}
	defer rows.Close()

	records := make([]storage.Record, 0)
	for rows.Next() {
		var (
			record    storage.Record
			extension sql.NullString
		)
		if scanErr := rows.Scan(
			&record.Path,
			&record.Name,
			&extension,
			&record.Size,
			&record.LastModified,
			&record.IsDir,
		); scanErr != nil {
			return nil, fmt.Errorf("%w: scan record: %w", storage.ErrQuery, scanErr)
		}
		record.Extension = extension.String
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate records: %w", storage.ErrQuery, err)
	}

	return records, nil
}

// Stats counts stored files and directories and sums file sizes.
func (s *Store) Stats(ctx context.Context) (storage.Stats, error) {
	var stats storage.Stats
	err := s.db.QueryRowContext(ctx, `
SELECT
        COALESCE(SUM(CASE WHEN is_dir = 0 THEN 1 ELSE 0 END), 0),
        COALESCE(SUM(CASE WHEN is_dir != 0 THEN 1 ELSE 0 END), 0),
        COALESCE(SUM(CASE WHEN is_dir = 0 THEN size ELSE 0 END), 0)
FROM files
`).Scan(&stats.Files, &stats.Dirs, &stats.TotalSize)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Stats{}, nil
	}
	if err != nil {
		return storage.Stats{}, fmt.Errorf("%w: query stats: %w", storage.ErrQuery, err)
	}
	return stats, nil
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
