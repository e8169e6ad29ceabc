// Package app wires configuration into the stores, providers and handlers
// shared by the HTTP server and the Lambda entrypoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/vocali/transcription-api/internal/archive"
	"github.com/vocali/transcription-api/internal/config"
	"github.com/vocali/transcription-api/internal/handler"
	"github.com/vocali/transcription-api/internal/identity"
	"github.com/vocali/transcription-api/internal/identity/cognito"
	"github.com/vocali/transcription-api/internal/identity/local"
	"github.com/vocali/transcription-api/internal/kv"
	"github.com/vocali/transcription-api/internal/kv/dynamo"
	"github.com/vocali/transcription-api/internal/kv/memory"
	"github.com/vocali/transcription-api/internal/kv/postgres"
	"github.com/vocali/transcription-api/internal/kv/redis"
	"github.com/vocali/transcription-api/internal/logger"
	"github.com/vocali/transcription-api/internal/metrics"
	"github.com/vocali/transcription-api/internal/repository"
	"github.com/vocali/transcription-api/internal/service"
	"github.com/vocali/transcription-api/internal/speech"
)

// localIdentityTable holds accounts for the local identity backend.
const localIdentityTable = "IdentityTable"

// App is the assembled application.
type App struct {
	Router  *handler.Router
	Store   kv.Store
	Metrics *metrics.InMemoryRecorder
}

// New builds the application from cfg. The caller must Close it.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	var (
		awsCfg aws.Config
		err    error
	)
	if cfg.Store.Backend == config.StoreDynamoDB || cfg.Identity.Backend == config.IdentityCognito {
		awsCfg, err = LoadAWSConfig(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
	}

	store, err := OpenStore(ctx, cfg.Store, awsCfg)
	if err != nil {
		return nil, err
	}
	log.Info("store ready", "backend", cfg.Store.Backend)

	provider, err := newIdentity(cfg.Identity, awsCfg, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	var archiver service.Archiver
	if cfg.Archive.Enabled {
		a, err := archive.New(ctx, archive.Config{
			Endpoint:  cfg.Archive.Endpoint,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Bucket:    cfg.Archive.Bucket,
			UseSSL:    cfg.Archive.UseSSL,
		})
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("open audio archive: %w", err)
		}
		archiver = a
		log.Info("audio archive ready", "endpoint", cfg.Archive.Endpoint, "bucket", cfg.Archive.Bucket)
	}

	if cfg.Speechmatics.APIKey == "" {
		log.Warn("SPEECHMATICS_API_KEY is not set; speech routes will fail")
	}
	speechClient := speech.New(speech.Config{
		APIKey:       cfg.Speechmatics.APIKey,
		RealtimeURL:  cfg.Speechmatics.RealtimeURL,
		BatchURL:     cfg.Speechmatics.BatchURL,
		PollInterval: cfg.Speechmatics.PollInterval,
	}, nil)

	recorder := metrics.NewInMemory()
	transcriptions := repository.NewTranscriptionRepository(store.Table(cfg.Store.TranscriptionsTable))
	users := repository.NewUserRepository(store.Table(cfg.Store.UsersTable))

	routes := handler.DefaultRoutes(handler.Services{
		Auth:           service.NewAuthService(provider, users, log),
		Transcriptions: service.NewTranscriptionService(transcriptions, recorder, log),
		Speech:         service.NewSpeechService(speechClient, transcriptions, archiver, recorder, log),
		Environment:    cfg.AppEnv,
		Now:            time.Now,
	})

	router := handler.NewRouter(handler.Base{Logger: log, Metrics: recorder, Stage: cfg.Stage}, routes...)
	router.SetMaxBodyBytes(cfg.MaxRequestBodySize)

	return &App{Router: router, Store: store, Metrics: recorder}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}

// LoadAWSConfig resolves the AWS configuration. Static keys, when both are
// set, replace the default credential chain.
func LoadAWSConfig(ctx context.Context, cfg config.StoreConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

// OpenStore connects the configured kv backend. Postgres migrations run first.
func OpenStore(ctx context.Context, cfg config.StoreConfig, awsCfg aws.Config) (kv.Store, error) {
	switch cfg.Backend {
	case config.StoreMemory:
		return memory.New(), nil
	case config.StoreDynamoDB:
		return dynamo.NewFromConfig(awsCfg, cfg.DynamoDBEndpoint), nil
	case config.StorePostgres:
		if err := postgres.Migrate(ctx, cfg.DatabaseURL); err != nil {
			return nil, errors.New("migrate postgres: " + logger.SanitizeError(err, cfg.DatabaseURL))
		}
		s, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.New("connect postgres: " + logger.SanitizeError(err, cfg.DatabaseURL))
		}
		return s, nil
	case config.StoreRedis:
		s, err := redis.New(ctx, cfg.RedisURL)
		if err != nil {
			return nil, errors.New("connect redis: " + logger.SanitizeError(err, cfg.RedisURL))
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func newIdentity(cfg config.IdentityConfig, awsCfg aws.Config, store kv.Store) (identity.Provider, error) {
	switch cfg.Backend {
	case config.IdentityCognito:
		return cognito.NewFromConfig(awsCfg, cognito.Config{
			UserPoolID:   cfg.UserPoolID,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
		}), nil
	case config.IdentityLocal:
		p, err := local.New(store.Table(localIdentityTable), local.Config{
			Secret:   cfg.LocalSecret,
			Issuer:   "vocali-local",
			TokenTTL: cfg.LocalTokenTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("create local identity: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown identity backend %q", cfg.Backend)
	}
}
