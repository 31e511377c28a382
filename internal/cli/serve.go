package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/todoflow/internal/config"
	"github.com/rpggio/todoflow/internal/mcp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the task list over MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if transport != "" {
				cfg.Transport.Mode = transport
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			a, closeFn, err := opts.open(cmd, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			services := mcp.Services{Tasks: a.Store}
			if a.Activity != nil {
				services.Activity = a.Activity
			}
			server := mcp.NewServer(mcp.Config{
				Services: services,
				Version:  opts.version,
				Logger:   a.Logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.Transport.Mode == config.TransportStdio {
				return runStdio(ctx, a.Logger, server)
			}
			addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
			return runHTTP(ctx, a.Logger, server, addr)
		},
	}

	cmd.Flags().StringVarP(&transport, "transport", "t", "", "stdio or http; overrides the configured transport")
	return cmd
}

func runStdio(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server) error {
	logger.Info("starting stdio transport")

	// Run blocks until stdin closes or ctx is canceled.
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTP(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server, addr string) error {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: mcp.NewHTTPHandler(server),
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
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
