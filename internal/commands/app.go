package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/rpggio/statusboard/internal/cache"
	"github.com/rpggio/statusboard/internal/config"
	"github.com/rpggio/statusboard/internal/dataset"
	"github.com/rpggio/statusboard/internal/domain/project"
	"github.com/rpggio/statusboard/internal/domain/roster"
	"github.com/rpggio/statusboard/internal/domain/task"
	"github.com/rpggio/statusboard/internal/events"
	"github.com/rpggio/statusboard/internal/repository"
	"github.com/rpggio/statusboard/internal/retry"
	"github.com/rpggio/statusboard/internal/sheet"
	"github.com/rpggio/statusboard/internal/sheet/googlesheets"
	"github.com/rpggio/statusboard/internal/sheet/xlsx"
	"github.com/rpggio/statusboard/internal/snapshot"
)

// app holds the wired services for one process.
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	hub       *events.Hub
	loader    *dataset.Loader
	workbook  *xlsx.Gateway
	projects  *project.Service
	tasks     *task.Service
	roster    *roster.Service
	snapshots *snapshot.Store
	closeLog  func() error
}

// newApp loads configuration and wires every service. Logs go to the
// writer logOut picks unless the config names a log file.
func newApp(logOut func(config.Config) io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	logger, closeLog, err := newLogger(cfg.Log.Level, cfg.Log.Path, logOut(cfg))
	if err != nil {
		return nil, fmt.Errorf("log file error: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, closeLog: closeLog, hub: events.NewHub(logger)}

	var gateway repository.TableGateway
	switch cfg.Source.Kind {
	case "xlsx":
		a.workbook = xlsx.New(cfg.Source.WorkbookPath, logger)
		gateway = a.workbook
	default:
		gateway = googlesheets.New(cfg.Source.SpreadsheetID, logger,
			googlesheets.WithCredentialsFile(cfg.Source.CredentialsFile)...)
	}

	backend, err := snapshot.Open(cfg.Snapshot.DSN)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	a.snapshots = snapshot.NewStore(backend, logger,
		snapshot.WithDateColumns(sheet.Tasks, task.DateColumnNames()...))

	policy := retry.New(cfg.Retry.MaxAttempts, cfg.Retry.InitialDelay(), cfg.Retry.Jitter(), logger)
	a.loader = dataset.NewLoader(gateway, cache.New(cfg.Cache.TTL()), policy, a.snapshots, logger,
		dataset.WithTabs(map[string]string{
			sheet.Projects: cfg.Source.Tabs.Projects,
			sheet.Roster:   cfg.Source.Tabs.Roster,
			sheet.Tasks:    cfg.Source.Tabs.Tasks,
		}),
		dataset.WithPublisher(a.hub),
	)

	a.projects = project.NewService(a.loader, logger)
	a.tasks = task.NewService(a.loader, logger, task.WithStrictRefetch(cfg.Reconcile.StrictRefetch))
	a.roster = roster.NewService(a.loader, logger)

	logger.Info("configured",
		"source", cfg.Source.Kind,
		"snapshot_dsn", cfg.Snapshot.DSN,
		"cache_ttl", cfg.Cache.TTL(),
		"strict_refetch", cfg.Reconcile.StrictRefetch,
	)
	return a, nil
}

// watch invalidates every dataset when the local workbook changes. It is a
// no-op for remote spreadsheets or when watching is off.
func (a *app) watch(ctx context.Context) error {
	if a.workbook == nil || !a.cfg.Source.Watch {
		return nil
	}
	return a.workbook.Watch(ctx, func() {
		for _, name := range dataset.All {
			a.loader.Invalidate(name)
		}
	})
}

func (a *app) Close() error {
	err := a.snapshots.Close()
	if cerr := a.closeLog(); err == nil {
		err = cerr
	}
	return err
}
