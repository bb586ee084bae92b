// Package sqlite keeps the decision ID index in a local SQLite file, so a
// file-backed audit log can be reopened without rebuilding it.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS audit_index (
	decision_id TEXT PRIMARY KEY,
	position    INTEGER NOT NULL
);`

// Index is an audit.Index over SQLite.
type Index struct {
	db *sql.DB
}

// Open opens the index database at path and creates its table.
func Open(ctx context.Context, path string) (*Index, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)
	idx, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return idx, nil
}

// New uses an already opened database.
func New(ctx context.Context, db *sql.DB) (*Index, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("migrate index: %w", err)
	}
	return &Index{db: db}, nil
}

func (i *Index) Put(ctx context.Context, decisionID string, pos int64) error {
	_, err := i.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO audit_index (decision_id, position) VALUES (?, ?)`,
		decisionID, pos,
	)
	if err != nil {
		return fmt.Errorf("index put: %w", err)
	}
	return nil
}

func (i *Index) Lookup(ctx context.Context, decisionID string) (int64, bool, error) {
	var pos int64
	err := i.db.QueryRowContext(ctx, `SELECT position FROM audit_index WHERE decision_id = ?`, decisionID).Scan(&pos)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("index lookup: %w", err)
	}
	return pos, true, nil
}

func (i *Index) Close() error {
	return i.db.Close()
}
