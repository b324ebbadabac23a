package mocks

import (
	"context"

	"github.com/rpggio/statusboard/internal/dataset"
	"github.com/rpggio/statusboard/internal/sheet"
	"github.com/stretchr/testify/mock"
)

// TableGateway is a mock for repository.TableGateway.
type TableGateway struct {
	mock.Mock
}

func (m *TableGateway) FetchAll(ctx context.Context, table string) (sheet.Table, error) {
	args := m.Called(ctx, table)
	if t, ok := args.Get(0).(sheet.Table); ok {
		return t, args.Error(1)
	}
	return sheet.Table{}, args.Error(1)
}

func (m *TableGateway) ReplaceAll(ctx context.Context, table string, data sheet.Table) error {
	args := m.Called(ctx, table, data)
	return args.Error(0)
}

// SnapshotBackend is a mock for repository.SnapshotBackend.
type SnapshotBackend struct {
	mock.Mock
}

func (m *SnapshotBackend) Save(ctx context.Context, name string, data sheet.Table) error {
	args := m.Called(ctx, name, data)
	return args.Error(0)
}

func (m *SnapshotBackend) Load(ctx context.Context, name string) (sheet.Table, error) {
	args := m.Called(ctx, name)
	if t, ok := args.Get(0).(sheet.Table); ok {
		return t, args.Error(1)
	}
	return sheet.Table{}, args.Error(1)
}

func (m *SnapshotBackend) Close() error {
	args := m.Called()
	return args.Error(0)
}

// SnapshotStore is a mock for dataset.SnapshotStore.
type SnapshotStore struct {
	mock.Mock
}

func (m *SnapshotStore) Save(ctx context.Context, name string, data sheet.Table) bool {
	args := m.Called(ctx, name, data)
	return args.Bool(0)
}

func (m *SnapshotStore) Load(ctx context.Context, name string) (sheet.Table, bool) {
	args := m.Called(ctx, name)
	if t, ok := args.Get(0).(sheet.Table); ok {
		return t, args.Bool(1)
	}
	return sheet.Table{}, args.Bool(1)
}

// Tables is a mock for the dataset access the domain services depend on.
type Tables struct {
	mock.Mock
}

func (m *Tables) Load(ctx context.Context, name string, force bool) dataset.Result {
	args := m.Called(ctx, name, force)
	return args.Get(0).(dataset.Result)
}

func (m *Tables) Authoritative(ctx context.Context, name string) (sheet.Table, error) {
	args := m.Called(ctx, name)
	if t, ok := args.Get(0).(sheet.Table); ok {
		return t, args.Error(1)
	}
	return sheet.Table{}, args.Error(1)
}

func (m *Tables) Replace(ctx context.Context, name string, data sheet.Table) (string, error) {
	args := m.Called(ctx, name, data)
	return args.String(0), args.Error(1)
}
