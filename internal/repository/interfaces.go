package repository

import (
	"context"

	"github.com/rpggio/statusboard/internal/sheet"
)

// TableGateway reads and overwrites whole tables in the remote spreadsheet.
type TableGateway interface {
	// FetchAll returns the named table keyed by its current header.
	FetchAll(ctx context.Context, table string) (sheet.Table, error)
	// ReplaceAll overwrites the named table, header and rows, in one call.
	ReplaceAll(ctx context.Context, table string, data sheet.Table) error
}

// SnapshotBackend persists the last good copy of each dataset locally.
type SnapshotBackend interface {
	Save(ctx context.Context, name string, data sheet.Table) error
	// Load returns ErrNotFound when no snapshot was saved under name.
	Load(ctx context.Context, name string) (sheet.Table, error)
	Close() error
}
