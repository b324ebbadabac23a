package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/rpggio/statusboard/internal/repository"
	"github.com/rpggio/statusboard/internal/sheet"
)

const (
	postgresTableName        = "statusboard_snapshots"
	postgresOperationTimeout = 5 * time.Second
)

type sqlOpenFunc func(driverName, dsn string) (*sql.DB, error)

// PostgresBackend stores one JSON document per dataset. The table is created
// on first use.
type PostgresBackend struct {
	dsn    string
	openDB sqlOpenFunc

	initOnce sync.Once
	initErr  error
	db       *sql.DB
}

func NewPostgresBackend(dsn string) (*PostgresBackend, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, repository.ErrInvalidInput
	}
	return &PostgresBackend{dsn: dsn, openDB: sql.Open}, nil
}

func (b *PostgresBackend) Save(ctx context.Context, name string, data sheet.Table) error {
	if err := b.ensureReady(ctx); err != nil {
		return err
	}
	now := time.Now().UTC()
	doc, err := sheet.MarshalDocument(name, data, now)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO %s (name, document, row_count, saved_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name)
		DO UPDATE SET document = EXCLUDED.document, row_count = EXCLUDED.row_count, saved_at = EXCLUDED.saved_at`,
		postgresTableName)
	_, err = b.db.ExecContext(ctx, query, name, string(doc), data.Len(), now)
	return err
}

func (b *PostgresBackend) Load(ctx context.Context, name string) (sheet.Table, error) {
	if err := b.ensureReady(ctx); err != nil {
		return sheet.Table{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	var doc string
	query := fmt.Sprintf("SELECT document FROM %s WHERE name = $1", postgresTableName)
	err := b.db.QueryRowContext(ctx, query, name).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return sheet.Table{}, repository.ErrNotFound
	}
	if err != nil {
		return sheet.Table{}, err
	}
	_, table, err := sheet.UnmarshalDocument([]byte(doc))
	return table, err
}

func (b *PostgresBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *PostgresBackend) ensureReady(ctx context.Context) error {
	b.initOnce.Do(func() {
		db, err := b.openDB("postgres", b.dsn)
		if err != nil {
			b.initErr = err
			return
		}
		ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
		defer cancel()

		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				name TEXT PRIMARY KEY,
				document TEXT NOT NULL,
				row_count INTEGER NOT NULL DEFAULT 0,
				saved_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, postgresTableName)
		if _, err := db.ExecContext(ctx, query); err != nil {
			_ = db.Close()
			b.initErr = err
			return
		}
		b.db = db
	})
	return b.initErr
}
