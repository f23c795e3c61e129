package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/vizkit/internal/adapters/http"
	"github.com/aretw0/vizkit/internal/adapters/mcp"
)

// Serve polls in the background and serves the HTTP API on addr until ctx is done.
func Serve(ctx context.Context, app *App, addr string) error {
	if addr == "" {
		addr = app.Config.Listen
	}
	opts := []httpAdapter.Option{httpAdapter.WithLogger(app.Logger)}
	if app.Gatherer != nil {
		opts = append(opts, httpAdapter.WithMetrics(app.Gatherer))
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: httpAdapter.NewHandler(app.Inspector, opts...),
	}

	go func() {
		if err := app.Run(ctx); err != nil && !IsInterrupted(err) {
			app.Logger.Error("poll loop stopped", "err", err)
		}
	}()

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("HTTP server listening", "address", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			if cerr := srv.Close(); cerr != nil {
				err = errors.Join(err, cerr)
			}
			return fmt.Errorf("graceful shutdown did not complete: %w", err)
		}
		return nil
	}
}

// ServeMCP polls in the background and serves MCP tools over the transport.
func ServeMCP(ctx context.Context, app *App, transport, addr string) error {
	srv := mcp.NewServer(app.Inspector, app.Logger)
	go func() {
		if err := app.Run(ctx); err != nil && !IsInterrupted(err) {
			app.Logger.Error("poll loop stopped", "err", err)
		}
	}()

	switch transport {
	case "stdio":
		return srv.ServeStdio()
	case "sse":
		if addr == "" {
			addr = app.Config.Listen
		}
		return srv.ServeSSE(ctx, addr)
	default:
		return fmt.Errorf("unknown transport %q, supported: stdio, sse", transport)
	}
}
