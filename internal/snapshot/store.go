package snapshot

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/rpggio/statusboard/internal/cell"
	"github.com/rpggio/statusboard/internal/repository"
	"github.com/rpggio/statusboard/internal/schema"
	"github.com/rpggio/statusboard/internal/sheet"
)

// Store wraps a backend so that callers never see an error: saves report
// success as a bool and failed loads read as "no snapshot".
type Store struct {
	backend     repository.SnapshotBackend
	logger      *slog.Logger
	dateColumns map[string][]string
}

// Option configures a Store.
type Option func(*Store)

// WithDateColumns makes Load re-parse the given headers of dataset name into
// time values. Headers match ignoring case and surrounding whitespace.
func WithDateColumns(name string, headers ...string) Option {
	return func(s *Store) {
		s.dateColumns[name] = append(s.dateColumns[name], headers...)
	}
}

func NewStore(backend repository.SnapshotBackend, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Store{
		backend:     backend,
		logger:      logger,
		dateColumns: make(map[string][]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save overwrites the snapshot for name and reports whether it succeeded.
func (s *Store) Save(ctx context.Context, name string, data sheet.Table) bool {
	if err := s.backend.Save(ctx, name, data); err != nil {
		s.logger.Error("snapshot save failed", "dataset", name, "error", err)
		return false
	}
	s.logger.Debug("snapshot saved", "dataset", name, "rows", data.Len())
	return true
}

// Load returns the snapshot for name, or false when none exists or it can't
// be read.
func (s *Store) Load(ctx context.Context, name string) (sheet.Table, bool) {
	t, err := s.backend.Load(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Info("no snapshot", "dataset", name)
		return sheet.Table{}, false
	}
	if err != nil {
		s.logger.Error("snapshot load failed", "dataset", name, "error", err)
		return sheet.Table{}, false
	}
	if cols := s.dateColumns[name]; len(cols) > 0 {
		reparseDates(t, cols)
	}
	s.logger.Info("snapshot loaded", "dataset", name, "rows", t.Len())
	return t, true
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func reparseDates(t sheet.Table, columns []string) {
	wanted := make(map[string]bool, len(columns))
	for _, c := range columns {
		wanted[schema.Key(c)] = true
	}
	for _, h := range t.Header {
		if !wanted[schema.Key(h)] {
			continue
		}
		for _, row := range t.Rows {
			if tm, ok := cell.ParseTime(row[h]); ok {
				row[h] = cell.Truncate(tm)
			}
		}
	}
}
