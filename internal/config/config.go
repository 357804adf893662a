package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the daemon's runtime configuration, read from the environment.
type Config struct {
	// DBPath is the SQLite database file. Everything lives in this one file:
	// the event log, snapshots, checkpoints and projection tables.
	DBPath string `env:"NOTELOG_DB_PATH" envDefault:"notelog.db"`

	// CatchUpBatchSize bounds how many events one catch-up batch reads.
	CatchUpBatchSize int `env:"NOTELOG_CATCHUP_BATCH_SIZE" envDefault:"200"`

	// CatchUpInterval is how often the background loop polls for new events.
	CatchUpInterval time.Duration `env:"NOTELOG_CATCHUP_INTERVAL" envDefault:"2s"`

	// MetricsAddr serves Prometheus metrics when non-empty.
	MetricsAddr string `env:"NOTELOG_METRICS_ADDR" envDefault:":9090"`

	// KafkaBrokers enables the advisory sync-signal publisher when non-empty.
	KafkaBrokers []string `env:"NOTELOG_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"NOTELOG_KAFKA_TOPIC" envDefault:"notelog.projection.sync"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.CatchUpBatchSize <= 0 {
		return nil, fmt.Errorf("catch-up batch size must be positive, got %d", cfg.CatchUpBatchSize)
	}
	return cfg, nil
}
