// Package persistence opens the task store selected by configuration.
package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/rezkam/todoline/internal/application/todo"
	"github.com/rezkam/todoline/internal/config"
	"github.com/rezkam/todoline/internal/infrastructure/notify"
	"github.com/rezkam/todoline/internal/infrastructure/persistence/firestore"
	"github.com/rezkam/todoline/internal/infrastructure/persistence/fs"
	"github.com/rezkam/todoline/internal/infrastructure/persistence/gcs"
	"github.com/rezkam/todoline/internal/infrastructure/persistence/postgres"
	"github.com/rezkam/todoline/internal/infrastructure/persistence/sqlite"
)

// Store is a task repository that holds resources until closed.
type Store interface {
	todo.Repository
	Close() error
}

// unclosed adapts stores that hold nothing open.
type unclosed struct {
	*fs.Store
}

func (unclosed) Close() error { return nil }

// Open builds the backend named by cfg.Type. Backends with schemas are
// migrated before Open returns.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		store  Store
		target string
		err    error
	)
	switch cfg.Type {
	case config.StorageFS:
		var s *fs.Store
		s, err = fs.NewStore(cfg.FSDir)
		store, target = unclosed{s}, cfg.FSDir

	case config.StorageSQLite:
		store, err = sqlite.NewStore(ctx, cfg.SQLitePath)
		target = cfg.SQLitePath

	case config.StoragePostgres:
		store, err = postgres.NewStoreWithConfig(ctx, postgres.DBConfig{
			DSN:             cfg.Database.DSN,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		})
		target = maskPassword(cfg.Database.DSN)

	case config.StorageGCS:
		store, err = gcs.NewStore(ctx, cfg.GCSBucket, cfg.GCSPrefix)
		target = "gs://" + cfg.GCSBucket + "/" + cfg.GCSPrefix

	case config.StorageFirestore:
		store, err = openFirestore(ctx, cfg)
		target = cfg.Firebase.ProjectID
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Type, err)
	}

	slog.InfoContext(ctx, "storage initialized", "type", cfg.Type, "target", target)
	return store, nil
}

func openFirestore(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	app, err := notify.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		return nil, err
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get firestore client: %w", err)
	}
	return firestore.NewStore(client, cfg.FirestorePrefix), nil
}

// maskPassword masks the password in a connection string for logging.
func maskPassword(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil {
		// Unparseable DSNs may still hold a password.
		return "[REDACTED]"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "xxxxxx")
		}
	}
	return u.String()
}
