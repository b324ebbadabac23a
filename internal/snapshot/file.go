package snapshot

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rpggio/statusboard/internal/cell"
	"github.com/rpggio/statusboard/internal/repository"
	"github.com/rpggio/statusboard/internal/sheet"
)

// FileBackend stores each dataset as <dir>/<name>_backup.csv.
type FileBackend struct {
	dir string
}

func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

func (b *FileBackend) path(name string) string {
	return filepath.Join(b.dir, name+"_backup.csv")
}

// Save writes to a temp file and renames it over the previous snapshot.
func (b *FileBackend) Save(_ context.Context, name string, data sheet.Table) error {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(b.dir, name+"_backup-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	for _, row := range data.Values() {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = cell.String(v)
		}
		if err := w.Write(rec); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), b.path(name))
}

func (b *FileBackend) Load(_ context.Context, name string) (sheet.Table, error) {
	f, err := os.Open(b.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return sheet.Table{}, repository.ErrNotFound
	}
	if err != nil {
		return sheet.Table{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return sheet.Table{}, fmt.Errorf("parse %s: %w", b.path(name), err)
	}
	values := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		values[i] = row
	}
	return sheet.FromValues(values), nil
}

func (b *FileBackend) Close() error {
	return nil
}
