package config

import "time"

// ServerConfig holds all configuration for the server binary.
type ServerConfig struct {
	HTTP            HTTPConfig
	Storage         StorageConfig
	Parser          ParserConfig
	Observability   ObservabilityConfig
	UndoWindow      time.Duration `env:"TODOLINE_UNDO_WINDOW" default:"5s"`
	ShutdownTimeout time.Duration `env:"TODOLINE_SHUTDOWN_TIMEOUT" default:"10s"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host              string        `env:"TODOLINE_HTTP_HOST"`
	Port              string        `env:"TODOLINE_HTTP_PORT" default:"8080"`
	ReadTimeout       time.Duration `env:"TODOLINE_HTTP_READ_TIMEOUT" default:"5s"`
	WriteTimeout      time.Duration `env:"TODOLINE_HTTP_WRITE_TIMEOUT" default:"10s"`
	IdleTimeout       time.Duration `env:"TODOLINE_HTTP_IDLE_TIMEOUT" default:"120s"`
	ReadHeaderTimeout time.Duration `env:"TODOLINE_HTTP_READ_HEADER_TIMEOUT" default:"5s"`
	MaxHeaderBytes    int           `env:"TODOLINE_HTTP_MAX_HEADER_BYTES" default:"1048576"`
	MaxBodyBytes      int64         `env:"TODOLINE_HTTP_MAX_BODY_BYTES" default:"65536"`
}

// LoadServerConfig loads and validates server configuration from environment.
func LoadServerConfig() (*ServerConfig, error) {
	return load[ServerConfig]("server")
}
