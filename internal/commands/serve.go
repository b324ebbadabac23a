package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/rpggio/statusboard/internal/config"
	"github.com/rpggio/statusboard/internal/events"
	"github.com/rpggio/statusboard/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the MCP tool surface",
	Long:  "Serve the MCP tools over stdio (default) or streamable HTTP, as set by transport.mode.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(serveLogOutput)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := a.watch(ctx); err != nil {
			a.logger.Warn("workbook watch disabled", "error", err)
		}

		server := mcp.NewServer(mcp.Config{
			Services: mcp.Services{
				Projects:  a.projects,
				Tasks:     a.tasks,
				Roster:    a.roster,
				Refresher: a.loader,
			},
			AuthEnabled:   a.cfg.Auth.Enabled,
			AuthToken:     a.cfg.Auth.Token,
			TransportMode: a.cfg.Transport.Mode,
			Version:       version,
			Logger:        a.logger,
		})

		if a.cfg.Transport.Mode == "stdio" {
			return runStdioMode(ctx, a.logger, server)
		}
		addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
		return runHTTPMode(ctx, a.logger, server, a.hub, addr)
	},
}

// serveLogOutput keeps stdout clean for JSON-RPC in stdio mode.
func serveLogOutput(cfg config.Config) io.Writer {
	if cfg.Transport.Mode == "stdio" {
		return os.Stderr
	}
	return os.Stdout
}

func runStdioMode(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Run blocks until stdin closes or ctx is canceled.
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("stdio server error", "error", err)
		return err
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server, hub *events.Hub, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mcp.NewHTTPHandler(server, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}
	return waitForShutdown(logger, httpServer)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}
	return nil
}
