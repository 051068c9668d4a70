// Package config holds the typed configuration of each binary, loaded from
// TODOLINE_* environment variables through internal/env.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rezkam/todoline/internal/env"
)

// ObservabilityConfig holds observability configuration.
type ObservabilityConfig struct {
	OTelEnabled bool   `env:"TODOLINE_OTEL_ENABLED" default:"false"`
	ServiceName string `env:"OTEL_SERVICE_NAME"`
	LogLevel    string `env:"TODOLINE_LOG_LEVEL" default:"info"`
}

// Validate checks the log level.
func (c *ObservabilityConfig) Validate() error {
	_, err := c.Level()
	return err
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c *ObservabilityConfig) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("TODOLINE_LOG_LEVEL: %w", err)
	}
	return level, nil
}

// ParserConfig configures how task text is interpreted.
type ParserConfig struct {
	DefaultProject string `env:"TODOLINE_DEFAULT_PROJECT" default:"#Inbox"`
	StrictTime     bool   `env:"TODOLINE_STRICT_TIME" default:"false"`
	// Timezone is an IANA name; dates like "today" resolve in it.
	Timezone string `env:"TODOLINE_TIMEZONE" default:"Local"`
}

// ErrDefaultProjectRequired is returned when the default project is blank.
var ErrDefaultProjectRequired = errors.New("TODOLINE_DEFAULT_PROJECT is required")

// Validate checks the timezone and default project.
func (c *ParserConfig) Validate() error {
	if c.DefaultProject == "" {
		return ErrDefaultProjectRequired
	}
	_, err := c.Location()
	return err
}

// Location loads Timezone.
func (c *ParserConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TODOLINE_TIMEZONE: %w", err)
	}
	return loc, nil
}

// FirebaseConfig identifies the Firebase project used by Firestore storage
// and push notifications.
type FirebaseConfig struct {
	ProjectID       string `env:"TODOLINE_FIREBASE_PROJECT_ID"`
	CredentialsFile string `env:"TODOLINE_FIREBASE_CREDENTIALS_FILE"`
}

func load[T any](name string) (*T, error) {
	cfg := new(T)
	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load %s config: %w", name, err)
	}
	return cfg, nil
}

// LoadParserConfig loads parser settings alone, for tools that do not store tasks.
func LoadParserConfig() (*ParserConfig, error) {
	return load[ParserConfig]("parser")
}
