// Package sqlite implements the vault's persistence ports on SQLite.
// Credential rows hold ciphertext only; encryption happens above this layer.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB provides dual reader/writer database connections with WAL mode enabled.
// The writer connection is limited to a single connection to avoid "database
// is locked" errors; writes to different credentials still interleave through
// it without blocking readers. The reader pool allows concurrent readers.
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
	path   string
}

// NewDB opens a dual-connection SQLite database with WAL mode, busy timeout,
// synchronous NORMAL, foreign keys enabled, and a 64MB cache.
func NewDB(ctx context.Context, dbPath string) (*DB, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		dbPath,
	)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	if err := writer.PingContext(ctx); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("ping writer: %w", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	reader.SetMaxOpenConns(4)

	if err := reader.PingContext(ctx); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		return nil, fmt.Errorf("ping reader: %w", err)
	}

	return &DB{
		Writer: writer,
		Reader: reader,
		path:   dbPath,
	}, nil
}

// Close closes both reader and writer connections. Returns the first error encountered.
func (db *DB) Close() error {
	var firstErr error

	if err := db.Reader.Close(); err != nil {
		firstErr = fmt.Errorf("close reader: %w", err)
	}

	if err := db.Writer.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close writer: %w", err)
	}

	return firstErr
}
