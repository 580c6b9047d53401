package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// WorkerProcessConfig configures the standalone worker binary from BARBER_* variables.
type WorkerProcessConfig struct {
	Database      DatabaseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Events        EventsConfig
	Outbox        OutboxConfig
	Log           LogConfig
	Metrics       MonitoringConfig
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	SweepBatch    int           `envconfig:"SWEEP_BATCH" default:"100"`
	MetricsPort   int           `envconfig:"METRICS_PORT" default:"9091"`
	// Scheduling values shared with the API. Keep in step with config.yaml.
	DefaultCommissionRate float64 `envconfig:"DEFAULT_COMMISSION_RATE" default:"50"`
}

func LoadWorkerConfig() (*WorkerProcessConfig, error) {
	var cfg WorkerProcessConfig
	if err := envconfig.Process("barber", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process worker env config: %w", err)
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive")
	}
	return &cfg, nil
}
