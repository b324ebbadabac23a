// Package dataset loads and writes whole spreadsheet tables with caching and
// local fallbacks.
package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rpggio/statusboard/internal/cache"
	"github.com/rpggio/statusboard/internal/events"
	"github.com/rpggio/statusboard/internal/repository"
	"github.com/rpggio/statusboard/internal/retry"
	"github.com/rpggio/statusboard/internal/sheet"
)

// Source tells where a loaded table came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceRemote   Source = "remote"
	SourceStale    Source = "stale"
	SourceSnapshot Source = "snapshot"
	SourceEmpty    Source = "empty"
)

// Degraded reports whether the table is anything other than fresh data.
func (s Source) Degraded() bool {
	return s == SourceStale || s == SourceSnapshot || s == SourceEmpty
}

// Result is a loaded table with its provenance.
type Result struct {
	Table     sheet.Table
	Source    Source
	FetchedAt time.Time
}

// All lists every dataset the loader knows about.
var All = []string{sheet.Projects, sheet.Roster, sheet.Tasks}

// SnapshotStore persists the last good copy of a dataset. Implementations
// never fail loudly.
type SnapshotStore interface {
	Save(ctx context.Context, name string, data sheet.Table) bool
	Load(ctx context.Context, name string) (sheet.Table, bool)
}

// Publisher receives change notifications.
type Publisher interface {
	Publish(ev events.Event)
}

// Loader owns the cache state and resolves reads through the fallback
// chain: fresh cache, remote, stale cache, snapshot, empty.
type Loader struct {
	gateway   repository.TableGateway
	cache     *cache.State
	retry     retry.Policy
	snapshots SnapshotStore
	publisher Publisher
	tabs      map[string]string
	emptyOK   map[string]bool
	newID     func() string
	logger    *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithTabs maps dataset names to remote tab names. Unmapped datasets use
// their own name.
func WithTabs(tabs map[string]string) Option {
	return func(l *Loader) {
		for k, v := range tabs {
			if v != "" {
				l.tabs[k] = v
			}
		}
	}
}

// WithEmptyFallback lists the datasets for which a remote read with no rows
// is treated as suspect and answered from the snapshot when it has rows.
// The default is the tasks dataset only.
func WithEmptyFallback(names ...string) Option {
	return func(l *Loader) {
		for _, name := range All {
			l.emptyOK[name] = true
		}
		for _, name := range names {
			l.emptyOK[name] = false
		}
	}
}

// WithPublisher sends refresh and write events to p.
func WithPublisher(p Publisher) Option {
	return func(l *Loader) {
		l.publisher = p
	}
}

// WithIDGenerator replaces the write correlation id source.
func WithIDGenerator(fn func() string) Option {
	return func(l *Loader) {
		l.newID = fn
	}
}

func NewLoader(gateway repository.TableGateway, state *cache.State, policy retry.Policy, snapshots SnapshotStore, logger *slog.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	l := &Loader{
		gateway:   gateway,
		cache:     state,
		retry:     policy,
		snapshots: snapshots,
		tabs:      make(map[string]string),
		emptyOK:   map[string]bool{sheet.Projects: true, sheet.Roster: true},
		newID:     uuid.NewString,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Tab returns the remote tab backing dataset name.
func (l *Loader) Tab(name string) string {
	if tab, ok := l.tabs[name]; ok {
		return tab
	}
	return name
}

// Load returns dataset name. force skips the fresh cache check. Remote
// failures are absorbed: the result degrades to the stale cache, then the
// snapshot, then an empty table, and Source says which one was used. A
// remote read with no rows is also answered from a non-empty snapshot for
// the datasets set by WithEmptyFallback.
func (l *Loader) Load(ctx context.Context, name string, force bool) Result {
	if !force {
		if t, ok := l.cache.Get(name); ok {
			at, _ := l.cache.FetchedAt(name)
			l.logger.Debug("dataset served from cache", "dataset", name, "rows", t.Len())
			return Result{Table: t, Source: SourceCache, FetchedAt: at}
		}
	}

	t, err := l.fetch(ctx, name)
	if err == nil && t.Len() == 0 && !l.emptyOK[name] && l.snapshots != nil {
		if saved, ok := l.snapshots.Load(ctx, name); ok && saved.Len() > 0 {
			l.logger.Warn("remote returned no rows, serving snapshot", "dataset", name, "rows", saved.Len())
			l.cache.Put(name, saved)
			at, _ := l.cache.FetchedAt(name)
			return Result{Table: saved.Clone(), Source: SourceSnapshot, FetchedAt: at}
		}
	}
	if err == nil {
		l.publish(events.Event{Type: events.TypeRefreshed, Dataset: name, Source: string(SourceRemote), Rows: t.Len()})
		at, _ := l.cache.FetchedAt(name)
		return Result{Table: t, Source: SourceRemote, FetchedAt: at}
	}
	l.logger.Warn("remote unavailable, falling back", "dataset", name, "error", err)

	if t, ok := l.cache.Stale(name); ok {
		at, _ := l.cache.FetchedAt(name)
		l.logger.Info("dataset served from stale cache", "dataset", name, "rows", t.Len())
		return Result{Table: t, Source: SourceStale, FetchedAt: at}
	}
	if l.snapshots != nil {
		if t, ok := l.snapshots.Load(ctx, name); ok {
			return Result{Table: t, Source: SourceSnapshot}
		}
	}
	l.logger.Warn("no data available, using empty table", "dataset", name)
	return Result{Table: sheet.Table{}, Source: SourceEmpty}
}

// Authoritative reads dataset name from the remote store with no fallback.
// A successful read also refreshes the cache and the snapshot.
func (l *Loader) Authoritative(ctx context.Context, name string) (sheet.Table, error) {
	return l.fetch(ctx, name)
}

// Replace overwrites dataset name remotely and returns the write's
// correlation id. On success the written table becomes the stale cache
// entry, so the next read goes remote, and the snapshot is rewritten. The
// remote write and the cache update are separate steps: a crash between
// them leaves the cache stale for at most one TTL.
func (l *Loader) Replace(ctx context.Context, name string, data sheet.Table) (string, error) {
	writeID := l.newID()
	tab := l.Tab(name)
	logger := l.logger.With("dataset", name, "write_id", writeID)

	err := l.retry.Execute(ctx, func(ctx context.Context) error {
		return l.gateway.ReplaceAll(ctx, tab, data)
	})
	if err != nil {
		logger.Error("remote write failed", "error", err)
		return writeID, fmt.Errorf("replacing %s: %w", name, err)
	}

	l.cache.Put(name, data)
	l.cache.Invalidate(name)
	if l.snapshots != nil {
		l.snapshots.Save(ctx, name, data)
	}
	logger.Info("dataset written", "rows", data.Len())
	l.publish(events.Event{Type: events.TypeWritten, Dataset: name, Rows: data.Len(), WriteID: writeID})
	return writeID, nil
}

// Invalidate marks dataset name stale so the next read refetches it.
func (l *Loader) Invalidate(name string) {
	l.cache.Invalidate(name)
	l.logger.Info("dataset invalidated", "dataset", name)
	l.publish(events.Event{Type: events.TypeInvalidated, Dataset: name})
}

// RefreshAll force-loads every dataset.
func (l *Loader) RefreshAll(ctx context.Context) map[string]Result {
	out := make(map[string]Result, len(All))
	for _, name := range All {
		out[name] = l.Load(ctx, name, true)
	}
	return out
}

func (l *Loader) fetch(ctx context.Context, name string) (sheet.Table, error) {
	tab := l.Tab(name)
	t, err := retry.Do(ctx, l.retry, func(ctx context.Context) (sheet.Table, error) {
		return l.gateway.FetchAll(ctx, tab)
	})
	if err != nil {
		return sheet.Table{}, fmt.Errorf("fetching %s: %w", name, err)
	}
	l.cache.Put(name, t)
	// an empty read never replaces the last good snapshot
	if l.snapshots != nil && t.Len() > 0 {
		l.snapshots.Save(ctx, name, t)
	}
	l.logger.Info("dataset fetched", "dataset", name, "tab", tab, "rows", t.Len())
	return t.Clone(), nil
}

func (l *Loader) publish(ev events.Event) {
	if l.publisher != nil {
		l.publisher.Publish(ev)
	}
}
