// Package config centralises configuration parsing for the signup service.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Config captures runtime configuration values for the API and the roster consumer.
type Config struct {
	HTTPAddress       string `env:"HTTP_ADDRESS" default:":8080"`
	MetricsAddress    string `env:"METRICS_ADDRESS" default:":9090"`
	LogLevel          string `env:"LOG_LEVEL" default:"info"`
	LogFormat         string `env:"LOG_FORMAT" default:"text"`
	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" default:"http://localhost:5173"`

	CatalogPath     string `env:"CATALOG_PATH"`
	EnforceCapacity bool   `env:"ENFORCE_CAPACITY" default:"false"`

	KafkaBrokersRaw    string        `env:"KAFKA_BROKERS"`
	RosterTopic        string        `env:"ROSTER_TOPIC" default:"activity_roster_events"`
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" default:"2s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" default:"25"`
	OutboxBufferSize   int           `env:"OUTBOX_BUFFER_SIZE" default:"1024"`
	ConsumerGroupID    string        `env:"CONSUMER_GROUP_ID" default:"activity-roster-audit"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// Load reads an optional .env file and the environment into Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// KafkaBrokers returns the configured broker list. Empty means roster events are disabled.
func (c *Config) KafkaBrokers() []string {
	return splitAndTrim(c.KafkaBrokersRaw)
}

// EventsEnabled reports whether roster events should be shipped to Kafka.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers()) > 0
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddress) == "" {
		return errors.New("HTTP_ADDRESS must not be empty")
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be > 0, got %d", c.OutboxBatchSize)
	}
	if c.OutboxBufferSize <= 0 {
		return fmt.Errorf("OUTBOX_BUFFER_SIZE must be > 0, got %d", c.OutboxBufferSize)
	}
	if c.OutboxPollInterval <= 0 {
		return fmt.Errorf("OUTBOX_POLL_INTERVAL must be > 0, got %s", c.OutboxPollInterval)
	}
	if c.EventsEnabled() && strings.TrimSpace(c.RosterTopic) == "" {
		return errors.New("ROSTER_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
