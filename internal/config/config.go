package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the stock ledger service configuration, read from the environment
type Config struct {
	ServerAddr  string `env:"SERVER_ADDR" envDefault:":8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Version     string `env:"SERVICE_VERSION" envDefault:"1.0.0"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	MongoDB MongoDBConfig
	Kafka   KafkaConfig
	Outbox  OutboxConfig
	Tracing TracingConfig

	ThresholdsFile string `env:"THRESHOLDS_FILE" envDefault:"config/thresholds.yaml"`
}

// MongoDBConfig holds MongoDB connection settings
type MongoDBConfig struct {
	URI            string        `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017/?replicaSet=rs0"`
	Database       string        `env:"MONGODB_DATABASE" envDefault:"stock_ledger"`
	ConnectTimeout time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`
	MaxPoolSize    uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"100"`
}

// KafkaConfig holds event transport settings
type KafkaConfig struct {
	Brokers     []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	ClientID    string   `env:"KAFKA_CLIENT_ID" envDefault:"stock-ledger-service"`
	EventsTopic string   `env:"KAFKA_EVENTS_TOPIC" envDefault:"wms.ledger.events"`
	AlertsTopic string   `env:"KAFKA_ALERTS_TOPIC" envDefault:"wms.ledger.alerts"`
}

// OutboxConfig controls the outbox relay
type OutboxConfig struct {
	PollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"1s"`
	BatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	Enabled      bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	SampleRate   float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load parses the environment into a Config and validates it
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express
func (c *Config) Validate() error {
	if strings.TrimSpace(c.MongoDB.URI) == "" {
		return fmt.Errorf("MONGODB_URI must not be empty")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS must list at least one broker")
	}
	if c.Outbox.BatchSize <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be positive, got %d", c.Outbox.BatchSize)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be within [0,1], got %v", c.Tracing.SampleRate)
	}
	return nil
}
