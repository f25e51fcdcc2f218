// Package config loads and validates the worker's configuration from
// environment variables, with .env file support.
package config

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/nova-stream/eventpipe/internal/pipeline"
)

// WorkerConfig holds every option recognized by the worker.
type WorkerConfig struct {
	BrokerURL     string `env:"BROKER_URL" env-default:"redis://localhost:6379/0"`
	StreamName    string `env:"STREAM_NAME" env-default:"events"`
	ConsumerGroup string `env:"CONSUMER_GROUP" env-default:"workers"`

	BlockTimeoutMS int `env:"BLOCK_TIMEOUT_MS" env-default:"5000"`

	WorkerID string `env:"WORKER_ID" env-default:"worker-1" validate:"required"`

	BatchSize int `env:"BATCH_SIZE" env-default:"10" validate:"gt=0"`

	ProcessingTimeoutSeconds int `env:"PROCESSING_TIMEOUT_SECONDS" env-default:"30" validate:"gt=0"`

	MaxRetries        int `env:"MAX_RETRIES" env-default:"3" validate:"gt=0"`
	RetryDelaySeconds int `env:"RETRY_DELAY_SECONDS" env-default:"2" validate:"gt=0"`

	StoreURL string `env:"STORE_URL" env-default:"postgres://localhost:5432/eventpipe?sslmode=disable"`

	LogLevel    string `env:"LOG_LEVEL" env-default:"INFO"`
	MetricsPort int    `env:"METRICS_PORT" env-default:"8001"`
}

// BlockTimeout returns the configured broker read timeout as a Duration.
func (c WorkerConfig) BlockTimeout() time.Duration {
	return time.Duration(c.BlockTimeoutMS) * time.Millisecond
}

// ProcessingTimeout returns the configured per-event deadline as a
// Duration.
func (c WorkerConfig) ProcessingTimeout() time.Duration {
	return time.Duration(c.ProcessingTimeoutSeconds) * time.Second
}

// RetryDelay returns the configured base backoff as a Duration.
func (c WorkerConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// Load reads WorkerConfig from a .env file (if present) and the
// environment, then validates it.
func Load() (WorkerConfig, error) {
	var cfg WorkerConfig

	if err := cleanenv.ReadConfig(".env", &cfg); err != nil {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, pipeline.FatalStartupError("failed to read configuration", err)
		}
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return cfg, pipeline.FatalStartupError("configuration validation failed", err)
	}

	return cfg, nil
}
