package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rezkam/todoline/internal/application/reminder"
	"github.com/rezkam/todoline/internal/config"
	"github.com/rezkam/todoline/internal/infrastructure/notify"
	"github.com/rezkam/todoline/internal/infrastructure/observability"
	"github.com/rezkam/todoline/internal/infrastructure/persistence"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		return err
	}

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
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "failed to shut down telemetry", "error", err)
		}
	}()

	notifier, err := buildNotifier(ctx, cfg.Notify)
	if err != nil {
		return err
	}

	store, err := persistence.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()

	loc, _ := cfg.Parser.Location()
	w := reminder.New(store, notifier,
		reminder.WithInterval(cfg.Interval),
		reminder.WithOperationTimeout(cfg.OperationTimeout),
		reminder.WithLocation(loc),
	)

	slog.InfoContext(ctx, "starting todoline reminder worker",
		"storage", cfg.Storage.Type,
		"channels", cfg.Notify.Channels)

	// Start returns once ctx is cancelled and any running poll has finished.
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("worker stopped: %w", err)
	}
	slog.Info("Worker shut down gracefully")
	return nil
}

// buildNotifier returns one notifier per configured channel, fanned out
// through reminder.Multi when there is more than one.
func buildNotifier(ctx context.Context, cfg config.NotifyConfig) (reminder.Notifier, error) {
	var notifiers reminder.Multi
	for _, ch := range cfg.Channels {
		switch ch {
		case config.ChannelLog:
			notifiers = append(notifiers, reminder.LogNotifier{})
		case config.ChannelDesktop:
			notifiers = append(notifiers, notify.NewDesktop(cfg.DesktopAppName, cfg.DesktopIcon))
		case config.ChannelFCM:
			fcm, err := notify.NewFCM(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile, cfg.FCMTopic)
			if err != nil {
				return nil, fmt.Errorf("failed to set up %s notifications: %w", ch, err)
			}
			notifiers = append(notifiers, fcm)
		default:
			return nil, fmt.Errorf("unknown notification channel: %q", ch)
		}
	}

	if len(notifiers) == 1 {
		return notifiers[0], nil
	}
	return notifiers, nil
}
