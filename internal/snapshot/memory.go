package snapshot

import (
	"context"
	"sync"

	"github.com/rpggio/statusboard/internal/repository"
	"github.com/rpggio/statusboard/internal/sheet"
)

// MemoryBackend keeps snapshots for the life of the process.
type MemoryBackend struct {
	mu     sync.Mutex
	tables map[string]sheet.Table
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{tables: make(map[string]sheet.Table)}
}

func (b *MemoryBackend) Save(_ context.Context, name string, data sheet.Table) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tables[name] = data.Clone()
	return nil
}

func (b *MemoryBackend) Load(_ context.Context, name string) (sheet.Table, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tables[name]
	if !ok {
		return sheet.Table{}, repository.ErrNotFound
	}
	return t.Clone(), nil
}

func (b *MemoryBackend) Close() error {
	return nil
}
