package config

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "SECURE_COOKIE", "SESSION_TTL", "DB_PATH", "PASSCODE_HASH", "CURRENCY_SYMBOL", "LOG_ENV"} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9000"
  secure-cookie: true
session:
  ttl: 30m
app:
  currency-symbol: "€"
log:
  env: prod
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	t.Setenv("PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port, "env overrides the file")
	assert.True(t, cfg.Server.SecureCookie)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "€", cfg.App.CurrencySymbol)
	assert.Equal(t, "prod", cfg.Log.Env)
	assert.Equal(t, ":memory:", cfg.Storage.DBPath, "unset keys keep defaults")
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing yaml")
}

func TestLoad_InvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_TTL", "forever")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_TTL")
}

func TestLoad_InvalidSecureCookieKeepsCause(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECURE_COOKIE", "maybe")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid SECURE_COOKIE \"maybe\"")

	var parseErr *strconv.NumError
	assert.True(t, errors.As(errors.Cause(err), &parseErr), "cause is the strconv error")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"non numeric port", func(c *Config) { c.Server.Port = "http" }, "must be a number"},
		{"port out of range", func(c *Config) { c.Server.Port = "70000" }, "between 1 and 65535"},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }, "session ttl"},
		{"empty db path", func(c *Config) { c.Storage.DBPath = " " }, "database path"},
		{"bad log env", func(c *Config) { c.Log.Env = "staging" }, "invalid log env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
