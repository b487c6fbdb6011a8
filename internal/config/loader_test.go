package config

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/theo-core/pkg/logger"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConfigLoading(t *testing.T) {
	t.Run("load from file", func(t *testing.T) {
		path := writeConfig(t, `
environment: test
port: 9999
log_level: debug

database:
  url: "postgres://app@db:5432/theo"
  migrate_url: "postgres://owner@db:5432/theo"
  max_conns: 4

auth:
  jwt:
    secret: "s3cret"

cache:
  nodes:
    - "test-valkey:6379"
  ttl: 30
`)
		t.Setenv("CONFIG_PATH", path)

		config, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test", config.Environment)
		assert.Equal(t, 9999, config.Port)
		assert.Equal(t, "debug", config.LogLevel)
		assert.Equal(t, "postgres://app@db:5432/theo", config.Database.URL)
		assert.Equal(t, "postgres://owner@db:5432/theo", config.Database.MigrationURL())
		assert.Equal(t, int32(4), config.Database.MaxConns)
		assert.Equal(t, "theo_app", config.Database.SessionRole)
		assert.Equal(t, []string{"test-valkey:6379"}, config.Cache.Nodes)
		assert.Equal(t, 30*time.Second, config.Cache.TTLDuration())
		assert.Equal(t, "X-Tenant-ID", config.Tenancy.HeaderName)
		assert.Equal(t, "tenant", config.Auth.JWT.TenantClaim)
		assert.Equal(t, "tka_", config.Auth.AgentKeyPrefix)
	})

	t.Run("env var precedence", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", "")
		t.Setenv("THEO_PORT", "7777")
		t.Setenv("THEO_LOG_LEVEL", "warn")
		t.Setenv("THEO_AUTH_JWT_SECRET", "from-env")
		t.Setenv("DATABASE_URL", "postgres://env@db/theo")

		config, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 7777, config.Port)
		assert.Equal(t, "warn", config.LogLevel)
		assert.Equal(t, "from-env", config.Auth.JWT.Secret)
		assert.Equal(t, "postgres://env@db/theo", config.Database.URL)
		assert.Equal(t, config.Database.URL, config.Database.MigrationURL())
	})
}

func TestConfigValidation(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment: "development",
			Port:        8080,
			LogLevel:    "info",
			Database:    DatabaseConfig{URL: "postgres://x", MaxConns: 2},
			Tenancy:     TenancyConfig{HeaderName: "X-Tenant-ID"},
			Auth:        AuthConfig{Enabled: true, JWT: JWTConfig{Secret: "k"}, AgentKeyPrefix: "tka_"},
			Cache:       CacheConfig{TTL: 60},
		}
	}

	require.NoError(t, validateConfig(valid()))

	cases := map[string]func(c *Config){
		"missing database url": func(c *Config) { c.Database.URL = "" },
		"bad port":             func(c *Config) { c.Port = 70000 },
		"bad log level":        func(c *Config) { c.LogLevel = "verbose" },
		"bad environment":      func(c *Config) { c.Environment = "qa" },
		"missing jwt secret":   func(c *Config) { c.Auth.JWT.Secret = "" },
		"min above max":        func(c *Config) { c.Database.MinConns = 5 },
		"short credential key": func(c *Config) {
			c.Secrets.CredentialKey = base64.StdEncoding.EncodeToString([]byte("short"))
		},
		"bad env tenant": func(c *Config) { c.Tenancy.EnvVar = "THEO_TEST_TENANT_ENV" },
	}
	t.Setenv("THEO_TEST_TENANT_ENV", "not-a-uuid")
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, validateConfig(c))
		})
	}

	t.Run("auth disabled needs no secret", func(t *testing.T) {
		c := valid()
		c.Auth.Enabled = false
		c.Auth.JWT.Secret = ""
		assert.NoError(t, validateConfig(c))
	})
}

func TestConfigWatcher_ReloadsLogLevel(t *testing.T) {
	path := writeConfig(t, "environment: test\nlog_level: info\nauth:\n  enabled: false\n")
	initial, err := LoadFile(path)
	require.NoError(t, err)

	buf := &lockedBuffer{}
	log := logger.NewMockLogger(buf)
	w := NewConfigWatcher(path, initial, log)

	levels := make(chan string, 4)
	w.RegisterWatcher(func(c *Config) {
		select {
		case levels <- c.LogLevel:
		default:
		}
	})
	w.RegisterWatcher(LogLevelWatcher(log))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "Configuration watcher started")
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("environment: test\nlog_level: warn\nauth:\n  enabled: false\n"), 0o600))

	select {
	case lvl := <-levels:
		assert.Equal(t, "warn", lvl)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload")
	}
	assert.Equal(t, "warn", w.GetConfig().LogLevel)

	w.Stop()
	require.NoError(t, <-done)
}

func TestApplyEnvironment(t *testing.T) {
	c := &Config{LogLevel: "debug", Database: DatabaseConfig{AutoMigrate: true}}
	c = ApplyEnvironment(c, "production")
	assert.Equal(t, "info", c.LogLevel)
	assert.False(t, c.Database.AutoMigrate)
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
