package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerConfig_Defaults(t *testing.T) {
	cfg, err := LoadServerConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, int64(65536), cfg.HTTP.MaxBodyBytes)
	assert.Equal(t, StorageFS, cfg.Storage.Type)
	assert.Equal(t, "./todoline-data", cfg.Storage.FSDir)
	assert.Equal(t, "#Inbox", cfg.Parser.DefaultProject)
	assert.False(t, cfg.Parser.StrictTime)
	assert.Equal(t, 5*time.Second, cfg.UndoWindow)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.Observability.OTelEnabled)
}

func TestLoadServerConfig_WithEnv(t *testing.T) {
	t.Setenv("TODOLINE_HTTP_PORT", "9090")
	t.Setenv("TODOLINE_STORAGE_TYPE", "postgres")
	t.Setenv("TODOLINE_DB_DSN", "postgres://todo:secret@db:5432/todo")
	t.Setenv("TODOLINE_DB_MAX_CONNS", "20")
	t.Setenv("TODOLINE_TIMEZONE", "Europe/Berlin")
	t.Setenv("TODOLINE_STRICT_TIME", "true")
	t.Setenv("TODOLINE_LOG_LEVEL", "debug")

	cfg, err := LoadServerConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, StoragePostgres, cfg.Storage.Type)
	assert.Equal(t, int32(20), cfg.Storage.Database.MaxConns)
	assert.True(t, cfg.Parser.StrictTime)

	loc, err := cfg.Parser.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())

	level, err := cfg.Observability.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestStorageConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     StorageConfig
		wantErr string
	}{
		{"fs", StorageConfig{Type: StorageFS, FSDir: "/data"}, ""},
		{"fs without dir", StorageConfig{Type: StorageFS}, "TODOLINE_FS_DIR"},
		{"sqlite", StorageConfig{Type: StorageSQLite, SQLitePath: "x.db"}, ""},
		{"postgres without dsn", StorageConfig{Type: StoragePostgres}, "TODOLINE_DB_DSN"},
		{"gcs without bucket", StorageConfig{Type: StorageGCS}, "TODOLINE_GCS_BUCKET"},
		{"firestore", StorageConfig{Type: StorageFirestore}, ""},
		{"unknown", StorageConfig{Type: "s3"}, "unknown TODOLINE_STORAGE_TYPE"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadServerConfig_Invalid(t *testing.T) {
	t.Run("timezone", func(t *testing.T) {
		t.Setenv("TODOLINE_TIMEZONE", "Mars/Olympus")
		_, err := LoadServerConfig()
		assert.ErrorContains(t, err, "TODOLINE_TIMEZONE")
	})

	t.Run("log level", func(t *testing.T) {
		t.Setenv("TODOLINE_LOG_LEVEL", "loud")
		_, err := LoadServerConfig()
		assert.ErrorContains(t, err, "TODOLINE_LOG_LEVEL")
	})

	t.Run("default project", func(t *testing.T) {
		t.Setenv("TODOLINE_DEFAULT_PROJECT", "")
		_, err := LoadServerConfig()
		assert.ErrorIs(t, err, ErrDefaultProjectRequired)
	})
}

func TestLoadWorkerConfig(t *testing.T) {
	t.Setenv("TODOLINE_NOTIFY_CHANNELS", "log, desktop")
	t.Setenv("TODOLINE_WORKER_INTERVAL", "1m")

	cfg, err := LoadWorkerConfig()
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.Interval)
	assert.Equal(t, []string{"log", "desktop"}, cfg.Notify.Channels)
	assert.True(t, cfg.Notify.Enabled(ChannelDesktop))
	assert.False(t, cfg.Notify.Enabled(ChannelFCM))
	assert.Equal(t, "Todoline", cfg.Notify.DesktopAppName)
}

func TestNotifyConfig_Validate(t *testing.T) {
	assert.NoError(t, (&NotifyConfig{Channels: []string{"fcm"}, FCMTopic: "r"}).Validate())
	assert.Error(t, (&NotifyConfig{Channels: []string{"sms"}}).Validate())
	assert.Error(t, (&NotifyConfig{}).Validate())
	assert.Error(t, (&NotifyConfig{Channels: []string{"fcm"}}).Validate())
}
