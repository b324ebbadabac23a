// Package snapshot keeps a local copy of each dataset for when the remote
// store and the cache both come up empty.
package snapshot

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rpggio/statusboard/internal/repository"
	"github.com/rpggio/statusboard/internal/sqlite"
)

// Open builds a backend from a DSN:
//
//	file://<dir>       CSV files named <dataset>_backup.csv (default ".")
//	memory://          process memory
//	sqlite://<path>    one JSON document per dataset in a SQLite file
//	postgres://...     one JSON document per dataset in PostgreSQL
func Open(dsn string) (repository.SnapshotBackend, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return NewFileBackend("."), nil
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot dsn: %w", err)
	}
	scheme := strings.ToLower(strings.TrimSpace(parsed.Scheme))
	switch scheme {
	case "", "file":
		return NewFileBackend(dsnPath(parsed, dsn, ".")), nil
	case "memory", "mem":
		return NewMemoryBackend(), nil
	case "sqlite":
		path := dsnPath(parsed, dsn, "statusboard.db")
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		db, err := sqlite.New(path)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, err
		}
		return sqlite.NewSnapshotRepository(db), nil
	case "postgres", "postgresql":
		return NewPostgresBackend(dsn)
	default:
		return nil, fmt.Errorf("%w: unsupported snapshot scheme %q", repository.ErrInvalidInput, scheme)
	}
}

func dsnPath(parsed *url.URL, raw, fallback string) string {
	if parsed.Scheme == "" {
		return raw
	}
	path := parsed.Host + parsed.Path
	if parsed.Opaque != "" {
		path = parsed.Opaque
	}
	if path == "" {
		return fallback
	}
	return path
}

func ensureDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
