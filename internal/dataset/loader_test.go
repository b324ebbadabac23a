package dataset_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/statusboard/internal/cache"
	"github.com/rpggio/statusboard/internal/dataset"
	"github.com/rpggio/statusboard/internal/events"
	"github.com/rpggio/statusboard/internal/repository"
	"github.com/rpggio/statusboard/internal/repository/mocks"
	"github.com/rpggio/statusboard/internal/retry"
	"github.com/rpggio/statusboard/internal/sheet"
	"github.com/rpggio/statusboard/internal/snapshot"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func noSleep(context.Context, time.Duration) error { return nil }

func policy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, InitialDelay: time.Second, Sleep: noSleep}
}

func projects(names ...string) sheet.Table {
	t := sheet.Table{Header: []string{"Projeto"}}
	for _, n := range names {
		t.Rows = append(t.Rows, sheet.Row{"Projeto": n})
	}
	return t
}

func setup(t *testing.T, snapshots dataset.SnapshotStore, opts ...dataset.Option) (*dataset.Loader, *mocks.TableGateway, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)}
	gw := &mocks.TableGateway{}
	state := cache.New(10*time.Minute, cache.WithClock(clk.Now))
	return dataset.NewLoader(gw, state, policy(), snapshots, nil, opts...), gw, clk
}

func TestLoad_RemoteThenFreshCache(t *testing.T) {
	ctx := context.Background()
	loader, gw, _ := setup(t, nil)
	gw.On("FetchAll", mock.Anything, sheet.Projects).Return(projects("A | One"), nil).Once()

	res := loader.Load(ctx, sheet.Projects, false)
	require.Equal(t, dataset.SourceRemote, res.Source)
	require.Equal(t, 1, res.Table.Len())

	res = loader.Load(ctx, sheet.Projects, false)
	require.Equal(t, dataset.SourceCache, res.Source)
	require.Equal(t, "A | One", res.Table.Rows[0]["Projeto"])
	gw.AssertNumberOfCalls(t, "FetchAll", 1)
}

func TestLoad_ForceBypassesFreshCache(t *testing.T) {
	ctx := context.Background()
	loader, gw, _ := setup(t, nil)
	gw.On("FetchAll", mock.Anything, sheet.Projects).Return(projects("A"), nil).Once()
	gw.On("FetchAll", mock.Anything, sheet.Projects).Return(projects("A", "B"), nil).Once()

	loader.Load(ctx, sheet.Projects, false)
	res := loader.Load(ctx, sheet.Projects, true)
	require.Equal(t, dataset.SourceRemote, res.Source)
	require.Equal(t, 2, res.Table.Len())
}

func TestLoad_StaleCacheWhenRemoteUnavailable(t *testing.T) {
	ctx := context.Background()
	loader, gw, clk := setup(t, nil)
	gw.On("FetchAll", mock.Anything, sheet.Projects).Return(projects("A", "B"), nil).Once()
	gw.On("FetchAll", mock.Anything, sheet.Projects).Return(sheet.Table{}, repository.ErrUnavailable)

	loader.Load(ctx, sheet.Projects, false)
	clk.Advance(11 * time.Minute)

	res := loader.Load(ctx, sheet.Projects, false)
	require.Equal(t, dataset.SourceStale, res.Source)
	require.Equal(t, 2, res.Table.Len())
	require.True(t, res.Source.Degraded())
}

func TestLoad_SnapshotWhenCacheEmpty(t *testing.T) {
	ctx := context.Background()
	store := snapshot.NewStore(snapshot.NewMemoryBackend(), nil)
	require.True(t, store.Save(ctx, sheet.Projects, projects("Saved")))

	loader, gw, _ := setup(t, store)
	gw.On("FetchAll", mock.Anything, sheet.Projects).Return(sheet.Table{}, repository.ErrUnavailable)

	res := loader.Load(ctx, sheet.Projects, false)
	require.Equal(t, dataset.SourceSnapshot, res.Source)
	require.Equal(t, "Saved", res.Table.Rows[0]["Projeto"])
}

func TestLoad_EmptyWhenNothingAvailable(t *testing.T) {
	ctx := context.Background()
	loader, gw, _ := setup(t, snapshot.NewStore(snapshot.NewMemoryBackend(), nil))
	gw.On("FetchAll", mock.Anything, sheet.Roster).Return(sheet.Table{}, errors.New("dial tcp: refused"))

	res := loader.Load(ctx, sheet.Roster, false)
	require.Equal(t, dataset.SourceEmpty, res.Source)
	require.True(t, res.Table.Empty())
}

func TestLoad_RetriesRateLimitAndSavesSnapshot(t *testing.T) {
	ctx := context.Background()
	backend := snapshot.NewMemoryBackend()
	loader, gw, _ := setup(t, snapshot.NewStore(backend, nil))
	gw.On("FetchAll", mock.Anything, sheet.Tasks).Return(sheet.Table{}, repository.ErrRateLimited).Once()
	gw.On("FetchAll", mock.Anything, sheet.Tasks).Return(projects("A"), nil).Once()

	res := loader.Load(ctx, sheet.Tasks, false)
	require.Equal(t, dataset.SourceRemote, res.Source)

	saved, err := backend.Load(ctx, sheet.Tasks)
	require.NoError(t, err)
	require.Equal(t, 1, saved.Len())
}

func TestLoad_EmptyTasksReadServesSnapshot(t *testing.T) {
	ctx := context.Background()
	store := snapshot.NewStore(snapshot.NewMemoryBackend(), nil)
	require.True(t, store.Save(ctx, sheet.Tasks, projects("T1", "T2")))

	loader, gw, _ := setup(t, store)
	gw.On("FetchAll", mock.Anything, sheet.Tasks).Return(sheet.Table{Header: []string{"Projeto"}}, nil).Once()

	res := loader.Load(ctx, sheet.Tasks, false)
	require.Equal(t, dataset.SourceSnapshot, res.Source)
	require.Equal(t, 2, res.Table.Len())

	// the empty read did not overwrite the snapshot, and the served copy is cached
	saved, ok := store.Load(ctx, sheet.Tasks)
	require.True(t, ok)
	require.Equal(t, 2, saved.Len())
	res = loader.Load(ctx, sheet.Tasks, false)
	require.Equal(t, dataset.SourceCache, res.Source)
	require.Equal(t, 2, res.Table.Len())
	gw.AssertNumberOfCalls(t, "FetchAll", 1)
}

func TestLoad_EmptyReadAcceptedForOtherDatasets(t *testing.T) {
	ctx := context.Background()
	store := snapshot.NewStore(snapshot.NewMemoryBackend(), nil)
	require.True(t, store.Save(ctx, sheet.Projects, projects("Saved")))

	loader, gw, _ := setup(t, store)
	gw.On("FetchAll", mock.Anything, sheet.Projects).Return(projects(), nil).Once()

	res := loader.Load(ctx, sheet.Projects, false)
	require.Equal(t, dataset.SourceRemote, res.Source)
	require.Zero(t, res.Table.Len())

	saved, ok := store.Load(ctx, sheet.Projects)
	require.True(t, ok)
	require.Equal(t, 1, saved.Len())
}

func TestLoad_EmptyFallbackConfigurable(t *testing.T) {
	ctx := context.Background()
	store := snapshot.NewStore(snapshot.NewMemoryBackend(), nil)
	require.True(t, store.Save(ctx, sheet.Tasks, projects("T1")))
	require.True(t, store.Save(ctx, sheet.Roster, projects("Ana")))

	loader, gw, _ := setup(t, store, dataset.WithEmptyFallback(sheet.Roster))
	gw.On("FetchAll", mock.Anything, sheet.Tasks).Return(projects(), nil)
	gw.On("FetchAll", mock.Anything, sheet.Roster).Return(projects(), nil)

	require.Equal(t, dataset.SourceRemote, loader.Load(ctx, sheet.Tasks, false).Source)
	require.Equal(t, dataset.SourceSnapshot, loader.Load(ctx, sheet.Roster, false).Source)
}

func TestLoad_UsesTabMapping(t *testing.T) {
	ctx := context.Background()
	loader, gw, _ := setup(t, nil, dataset.WithTabs(map[string]string{sheet.Tasks: "Ações"}))
	gw.On("FetchAll", mock.Anything, "Ações").Return(projects("A"), nil).Once()

	res := loader.Load(ctx, sheet.Tasks, false)
	require.Equal(t, dataset.SourceRemote, res.Source)
	require.Equal(t, "Ações", loader.Tab(sheet.Tasks))
	require.Equal(t, sheet.Roster, loader.Tab(sheet.Roster))
	gw.AssertExpectations(t)
}

func TestAuthoritative_NoFallback(t *testing.T) {
	ctx := context.Background()
	loader, gw, _ := setup(t, nil)
	gw.On("FetchAll", mock.Anything, sheet.Tasks).Return(projects("A"), nil).Once()
	gw.On("FetchAll", mock.Anything, sheet.Tasks).Return(sheet.Table{}, repository.ErrRateLimited)

	loader.Load(ctx, sheet.Tasks, false)
	_, err := loader.Authoritative(ctx, sheet.Tasks)
	require.ErrorIs(t, err, repository.ErrRetriesExhausted)
	require.ErrorIs(t, err, repository.ErrRateLimited)
}

func TestReplace_WritesInvalidatesAndPublishes(t *testing.T) {
	ctx := context.Background()
	hub := events.NewHub(nil)
	feed, stop := hub.Subscribe()
	defer stop()

	store := snapshot.NewStore(snapshot.NewMemoryBackend(), nil)
	loader, gw, _ := setup(t, store,
		dataset.WithPublisher(hub),
		dataset.WithIDGenerator(func() string { return "write-1" }))

	written := projects("A", "B", "C")
	gw.On("ReplaceAll", mock.Anything, sheet.Tasks, written).Return(nil).Once()
	gw.On("FetchAll", mock.Anything, sheet.Tasks).Return(sheet.Table{}, repository.ErrUnavailable)

	id, err := loader.Replace(ctx, sheet.Tasks, written)
	require.NoError(t, err)
	require.Equal(t, "write-1", id)

	ev := <-feed
	require.Equal(t, events.TypeWritten, ev.Type)
	require.Equal(t, "write-1", ev.WriteID)
	require.Equal(t, 3, ev.Rows)

	// the written table is no longer fresh, so the next read goes remote
	// and falls back to it
	res := loader.Load(ctx, sheet.Tasks, false)
	require.Equal(t, dataset.SourceStale, res.Source)
	require.Equal(t, 3, res.Table.Len())

	saved, ok := store.Load(ctx, sheet.Tasks)
	require.True(t, ok)
	require.Equal(t, 3, saved.Len())
}

func TestReplace_FailureLeavesCacheAlone(t *testing.T) {
	ctx := context.Background()
	snapshots := &mocks.SnapshotStore{}
	loader, gw, _ := setup(t, snapshots)

	gw.On("ReplaceAll", mock.Anything, sheet.Tasks, mock.Anything).Return(repository.ErrUnavailable)

	_, err := loader.Replace(ctx, sheet.Tasks, projects("A"))
	require.ErrorIs(t, err, repository.ErrUnavailable)
	snapshots.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshAll(t *testing.T) {
	ctx := context.Background()
	loader, gw, _ := setup(t, nil)
	gw.On("FetchAll", mock.Anything, sheet.Projects).Return(projects("A"), nil)
	gw.On("FetchAll", mock.Anything, sheet.Roster).Return(sheet.Table{}, repository.ErrUnavailable)
	gw.On("FetchAll", mock.Anything, sheet.Tasks).Return(projects("T"), nil)

	out := loader.RefreshAll(ctx)
	require.Len(t, out, 3)
	require.Equal(t, dataset.SourceRemote, out[sheet.Projects].Source)
	require.Equal(t, dataset.SourceEmpty, out[sheet.Roster].Source)
	require.Equal(t, dataset.SourceRemote, out[sheet.Tasks].Source)
}
