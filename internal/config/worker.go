package config

import "time"

// WorkerConfig holds all configuration for the reminder worker binary.
type WorkerConfig struct {
	Storage          StorageConfig
	Parser           ParserConfig
	Notify           NotifyConfig
	Observability    ObservabilityConfig
	Interval         time.Duration `env:"TODOLINE_WORKER_INTERVAL" default:"30s"`
	OperationTimeout time.Duration `env:"TODOLINE_WORKER_OPERATION_TIMEOUT" default:"30s"`
}

// LoadWorkerConfig loads and validates worker configuration from environment.
func LoadWorkerConfig() (*WorkerConfig, error) {
	return load[WorkerConfig]("worker")
}
