package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/statusboard/internal/dataset"
	"github.com/rpggio/statusboard/internal/domain/project"
	"github.com/rpggio/statusboard/internal/domain/task"
)

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	List(ctx context.Context, req project.ListRequest) project.View
	Options(ctx context.Context) project.Options
}

// TaskService defines task operations needed by MCP.
type TaskService interface {
	List(ctx context.Context, req task.ListRequest) task.View
	Options(ctx context.Context) task.Options
	Create(ctx context.Context, in task.CreateInput) (task.Record, error)
	Edit(ctx context.Context, id int, f task.Fields) (task.Record, error)
}

// RosterService lists team members.
type RosterService interface {
	Members(ctx context.Context, force bool) []string
}

// Refresher reloads every dataset from the remote source.
type Refresher interface {
	RefreshAll(ctx context.Context) map[string]dataset.Result
}

// Services contains all domain services needed by MCP.
type Services struct {
	Projects  ProjectService
	Tasks     TaskService
	Roster    RosterService
	Refresher Refresher
}

// Config contains server configuration.
type Config struct {
	Services      Services
	AuthEnabled   bool
	AuthToken     string
	TransportMode string // "stdio" or "http"
	Version       string
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "statusboard",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is local only; auth applies to HTTP.
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.AuthToken))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services, cfg.Logger)

	return server
}
