// Package testserver runs the full stack against a local workbook for
// end-to-end tests.
package testserver

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/statusboard/internal/cache"
	"github.com/rpggio/statusboard/internal/config"
	"github.com/rpggio/statusboard/internal/dataset"
	"github.com/rpggio/statusboard/internal/domain/project"
	"github.com/rpggio/statusboard/internal/domain/roster"
	"github.com/rpggio/statusboard/internal/domain/task"
	"github.com/rpggio/statusboard/internal/events"
	"github.com/rpggio/statusboard/internal/mcp"
	"github.com/rpggio/statusboard/internal/retry"
	"github.com/rpggio/statusboard/internal/sheet"
	"github.com/rpggio/statusboard/internal/sheet/xlsx"
	"github.com/rpggio/statusboard/internal/snapshot"
)

type TestServer struct {
	Server    *httptest.Server
	Token     string
	Workbook  *xlsx.Gateway
	Tabs      config.TabsConfig
	Loader    *dataset.Loader
	Hub       *events.Hub
	Snapshots *snapshot.Store
}

// New seeds a workbook with the given datasets and serves the MCP surface
// over HTTP with bearer auth. now fixes the task clock.
func New(t *testing.T, token string, seed map[string]sheet.Table, now func() time.Time) *TestServer {
	t.Helper()

	tabs := config.Default().Source.Tabs
	tabFor := map[string]string{
		sheet.Projects: tabs.Projects,
		sheet.Roster:   tabs.Roster,
		sheet.Tasks:    tabs.Tasks,
	}

	workbook := xlsx.New(filepath.Join(t.TempDir(), "workbook.xlsx"), nil)
	for name, table := range seed {
		require.NoError(t, workbook.ReplaceAll(context.Background(), tabFor[name], table))
	}

	hub := events.NewHub(nil)
	snapshots := snapshot.NewStore(snapshot.NewMemoryBackend(), nil,
		snapshot.WithDateColumns(sheet.Tasks, task.DateColumnNames()...))
	loader := dataset.NewLoader(workbook, cache.New(10*time.Minute), retry.New(1, 0, 0, nil), snapshots, nil,
		dataset.WithTabs(tabFor),
		dataset.WithPublisher(hub),
	)

	server := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Projects:  project.NewService(loader, nil),
			Tasks:     task.NewService(loader, nil, task.WithClock(now)),
			Roster:    roster.NewService(loader, nil),
			Refresher: loader,
		},
		AuthEnabled:   true,
		AuthToken:     token,
		TransportMode: "http",
	})
	srv := httptest.NewServer(mcp.NewHTTPHandler(server, hub))

	t.Cleanup(func() {
		srv.Close()
		_ = snapshots.Close()
	})

	return &TestServer{
		Server:    srv,
		Token:     token,
		Workbook:  workbook,
		Tabs:      tabs,
		Loader:    loader,
		Hub:       hub,
		Snapshots: snapshots,
	}
}

// URL is the MCP endpoint.
func (ts *TestServer) URL() string {
	return ts.Server.URL + "/mcp"
}
