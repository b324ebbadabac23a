package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/statusboard/internal/repository"
	"github.com/rpggio/statusboard/internal/sheet"
)

// SnapshotRepository implements repository.SnapshotBackend
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save overwrites the snapshot stored under name
func (r *SnapshotRepository) Save(ctx context.Context, name string, data sheet.Table) error {
	now := time.Now().UTC()
	doc, err := sheet.MarshalDocument(name, data, now)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	query := `
		INSERT INTO snapshots (name, document, row_count, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			document = excluded.document,
			row_count = excluded.row_count,
			saved_at = excluded.saved_at
	`
	if _, err := r.db.ExecContext(ctx, query, name, string(doc), data.Len(), now); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot stored under name
func (r *SnapshotRepository) Load(ctx context.Context, name string) (sheet.Table, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, `SELECT document FROM snapshots WHERE name = ?`, name).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return sheet.Table{}, repository.ErrNotFound
	}
	if err != nil {
		return sheet.Table{}, fmt.Errorf("loading snapshot: %w", err)
	}

	_, table, err := sheet.UnmarshalDocument([]byte(doc))
	if err != nil {
		return sheet.Table{}, err
	}
	return table, nil
}

// Close closes the underlying database
func (r *SnapshotRepository) Close() error {
	return r.db.Close()
}
