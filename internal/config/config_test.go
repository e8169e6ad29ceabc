package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noEnvFile points ENV_FILE at a path that does not exist.
func noEnvFile(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoad_Defaults(t *testing.T) {
	noEnvFile(t)
	t.Setenv("USER_POOL_ID", "pool")
	t.Setenv("CLIENT_ID", "client")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "dev", cfg.Stage)
	assert.Equal(t, 8080, cfg.AppPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 5*time.Minute, cfg.WriteTimeout)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, int64(15728640), cfg.MaxRequestBodySize)

	assert.Equal(t, StoreDynamoDB, cfg.Store.Backend)
	assert.Equal(t, "TranscriptionTable", cfg.Store.TranscriptionsTable)
	assert.Equal(t, "UsersTable", cfg.Store.UsersTable)
	assert.Equal(t, "us-east-1", cfg.Store.AWSRegion)

	assert.Equal(t, IdentityCognito, cfg.Identity.Backend)
	assert.Equal(t, time.Hour, cfg.Identity.LocalTokenTTL)

	assert.Empty(t, cfg.Speechmatics.APIKey)
	assert.Equal(t, "https://mp.speechmatics.com/v1", cfg.Speechmatics.RealtimeURL)
	assert.Equal(t, 3*time.Second, cfg.Speechmatics.PollInterval)
	assert.False(t, cfg.Archive.Enabled)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_PrefixedGroups(t *testing.T) {
	noEnvFile(t)
	t.Setenv("IDENTITY_BACKEND", "local")
	t.Setenv("LOCAL_AUTH_SECRET", "s")
	t.Setenv("SPEECHMATICS_API_KEY", "key")
	t.Setenv("SPEECHMATICS_POLL_INTERVAL", "250ms")
	t.Setenv("ARCHIVE_ENABLED", "true")
	t.Setenv("ARCHIVE_ENDPOINT", "localhost:9000")
	t.Setenv("ARCHIVE_USE_SSL", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "key", cfg.Speechmatics.APIKey)
	assert.Equal(t, 250*time.Millisecond, cfg.Speechmatics.PollInterval)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, "localhost:9000", cfg.Archive.Endpoint)
	assert.False(t, cfg.Archive.UseSSL)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("STORE_BACKEND=memory\nIDENTITY_BACKEND=local\nLOCAL_AUTH_SECRET=from-file\nAPP_PORT=9090\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Setenv("APP_PORT", "7070")

	// godotenv sets variables process-wide; clear them afterwards.
	t.Cleanup(func() {
		os.Unsetenv("STORE_BACKEND")
		os.Unsetenv("IDENTITY_BACKEND")
		os.Unsetenv("LOCAL_AUTH_SECRET")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, "from-file", cfg.Identity.LocalSecret)
	assert.Equal(t, 7070, cfg.AppPort, "environment wins over the file")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			MaxRequestBodySize: 1,
			Store:              StoreConfig{Backend: StoreMemory},
			Identity:           IdentityConfig{Backend: IdentityLocal, LocalSecret: "s"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"postgres without url", func(c *Config) { c.Store.Backend = StorePostgres }, "DATABASE_URL"},
		{"redis without url", func(c *Config) { c.Store.Backend = StoreRedis }, "REDIS_URL"},
		{"unknown store", func(c *Config) { c.Store.Backend = "sqlite" }, "STORE_BACKEND"},
		{"cognito without pool", func(c *Config) { c.Identity.Backend = IdentityCognito }, "USER_POOL_ID"},
		{"local without secret", func(c *Config) { c.Identity.LocalSecret = "" }, "LOCAL_AUTH_SECRET"},
		{"unknown identity", func(c *Config) { c.Identity.Backend = "ldap" }, "IDENTITY_BACKEND"},
		{"archive without endpoint", func(c *Config) { c.Archive.Enabled = true }, "ARCHIVE_ENDPOINT"},
		{"zero body size", func(c *Config) { c.MaxRequestBodySize = 0 }, "MAX_REQUEST_BODY_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	noEnvFile(t)
	t.Setenv("APP_PORT", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}
