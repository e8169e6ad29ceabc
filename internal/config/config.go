// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreDynamoDB = "dynamodb"
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Identity backends.
const (
	IdentityCognito = "cognito"
	IdentityLocal   = "local"
)

// Config holds all application configuration.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	Stage   string `env:"STAGE" envDefault:"dev"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts. Batch transcription can take minutes, hence the write timeout.
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"5m"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Request body size limit in bytes (default 15MB, enough for base64 audio)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"15728640"`

	Store        StoreConfig
	Identity     IdentityConfig
	Speechmatics SpeechmaticsConfig `envPrefix:"SPEECHMATICS_"`
	Archive      ArchiveConfig      `envPrefix:"ARCHIVE_"`
}

// StoreConfig selects and configures the key-value backend.
type StoreConfig struct {
	Backend             string `env:"STORE_BACKEND" envDefault:"dynamodb"`
	TranscriptionsTable string `env:"TRANSCRIPTIONS_TABLE" envDefault:"TranscriptionTable"`
	UsersTable          string `env:"USERS_TABLE" envDefault:"UsersTable"`

	AWSRegion        string `env:"AWS_REGION" envDefault:"us-east-1"`
	DynamoDBEndpoint string `env:"DYNAMODB_ENDPOINT"`
	AWSAccessKeyID   string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey     string `env:"AWS_SECRET_ACCESS_KEY"`

	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
}

// IdentityConfig selects and configures the identity provider.
type IdentityConfig struct {
	Backend      string `env:"IDENTITY_BACKEND" envDefault:"cognito"`
	UserPoolID   string `env:"USER_POOL_ID"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`

	LocalSecret   string        `env:"LOCAL_AUTH_SECRET"`
	LocalTokenTTL time.Duration `env:"LOCAL_AUTH_TOKEN_TTL" envDefault:"1h"`
}

// SpeechmaticsConfig configures the speech provider. An empty APIKey is
// allowed at startup; the speech routes report it per request.
type SpeechmaticsConfig struct {
	APIKey       string        `env:"API_KEY"`
	RealtimeURL  string        `env:"RT_URL" envDefault:"https://mp.speechmatics.com/v1"`
	BatchURL     string        `env:"BATCH_URL" envDefault:"https://asr.api.speechmatics.com/v2"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"3s"`
}

// ArchiveConfig configures the optional audio archive.
type ArchiveConfig struct {
	Enabled   bool   `env:"ENABLED" envDefault:"false"`
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET" envDefault:"transcription-audio"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"true"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate checks the settings each selected backend requires.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Backend {
	case StoreDynamoDB, StoreMemory:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case StoreRedis:
		if c.Store.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend))
	}

	switch c.Identity.Backend {
	case IdentityCognito:
		if c.Identity.UserPoolID == "" || c.Identity.ClientID == "" {
			errs = append(errs, errors.New("USER_POOL_ID and CLIENT_ID are required for the cognito identity backend"))
		}
	case IdentityLocal:
		if c.Identity.LocalSecret == "" {
			errs = append(errs, errors.New("LOCAL_AUTH_SECRET is required for the local identity backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown IDENTITY_BACKEND %q", c.Identity.Backend))
	}

	if c.Archive.Enabled && c.Archive.Endpoint == "" {
		errs = append(errs, errors.New("ARCHIVE_ENDPOINT is required when ARCHIVE_ENABLED is set"))
	}
	if c.MaxRequestBodySize <= 0 {
		errs = append(errs, errors.New("MAX_REQUEST_BODY_SIZE must be positive"))
	}

	return errors.Join(errs...)
}

// Load reads an optional env file named by ENV_FILE (default .env), then
// parses and validates the environment. Variables already set win over the file.
func Load() (*Config, error) {
	file := os.Getenv("ENV_FILE")
	if file == "" {
		file = ".env"
	}
	if _, err := os.Stat(file); err == nil {
		if err := godotenv.Load(file); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
