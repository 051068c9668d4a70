package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rezkam/todoline/internal/application/todo"
	"github.com/rezkam/todoline/internal/config"
	httpserver "github.com/rezkam/todoline/internal/infrastructure/http"
	"github.com/rezkam/todoline/internal/infrastructure/http/handler"
	"github.com/rezkam/todoline/internal/infrastructure/observability"
	"github.com/rezkam/todoline/internal/infrastructure/persistence"
	"github.com/rezkam/todoline/internal/parser"
)

func main() {
	if err := run(); err != nil {
		// slog may not be set up yet if config failed.
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return err
	}

	// Root context for normal operation; cancelled on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	level, _ := cfg.Observability.Level()
	shutdownTelemetry, err := observability.Setup(ctx, observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: cfg.Observability.ServiceName,
		LogLevel:    level,
	})
	if err != nil {
		return err
	}

	loc, _ := cfg.Parser.Location()

	store, err := persistence.Open(ctx, cfg.Storage)
	if err != nil {
		_ = shutdownTelemetry(context.Background())
		return err
	}

	p := parser.New(parser.Options{
		DefaultProject: cfg.Parser.DefaultProject,
		StrictTime:     cfg.Parser.StrictTime,
		Location:       loc,
	})
	svc := todo.NewService(store, p, todo.Config{
		UndoWindow: cfg.UndoWindow,
		Location:   loc,
	})

	server := httpserver.NewAPIServer(handler.NewRouter(svc, loc), httpserver.ServerConfig{
		Host:              cfg.HTTP.Host,
		Port:              cfg.HTTP.Port,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MaxBodyBytes:      cfg.HTTP.MaxBodyBytes,
		ServiceName:       cfg.Observability.ServiceName,
	})

	slog.InfoContext(ctx, "starting todoline server",
		"storage", cfg.Storage.Type,
		"timezone", loc.String(),
		"strict_time", cfg.Parser.StrictTime)

	errResult := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errResult <- fmt.Errorf("failed to serve HTTP: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		slog.InfoContext(ctx, "shutting down")
	case serveErr = <-errResult:
	}

	// The root context is already cancelled; shutdown gets a fresh window.
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	newCleanup(server, store, shutdownTelemetry)(shutdownCtx)

	return serveErr
}
