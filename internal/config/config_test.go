package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"ENV", "LOG_LEVEL", "LOG_FORMAT", "ADDR",
	"SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(Flags{})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "", cfg.Logger.Format)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 1.0, cfg.RateLimit.RPS)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvAndFlagPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "staging")
	t.Setenv("ADDR", ":9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("RATE_LIMIT_BURST", "2")

	cfg, err := Load(Flags{Env: "production", LogFormat: "json"})
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Environment, "flag wins over env")
	assert.Equal(t, ":9000", cfg.Server.Addr, "env wins over default")
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, 0.5, cfg.RateLimit.RPS)
	assert.Equal(t, 2, cfg.RateLimit.Burst)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad environment", map[string]string{"ENV": "test"}, "invalid environment"},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}, "invalid log format"},
		{"bad timeout", map[string]string{"SERVER_READ_TIMEOUT": "soon"}, "SERVER_READ_TIMEOUT"},
		{"bad rps", map[string]string{"RATE_LIMIT_RPS": "fast"}, "RATE_LIMIT_RPS"},
		{"zero burst", map[string]string{"RATE_LIMIT_BURST": "0"}, "RATE_LIMIT_BURST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(Flags{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCheckWriteTimeout(t *testing.T) {
	tests := []struct {
		name     string
		write    time.Duration
		upstream time.Duration
		wantErr  bool
	}{
		{name: "defaults leave room", write: 30 * time.Second, upstream: 25 * time.Second},
		{name: "no write timeout", write: 0, upstream: 125 * time.Second},
		{name: "upstream longer than write", write: 30 * time.Second, upstream: 125 * time.Second, wantErr: true},
		{name: "equal is too tight", write: 25 * time.Second, upstream: 25 * time.Second, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Server: ServerConfig{WriteTimeout: tt.write}}
			err := cfg.CheckWriteTimeout(tt.upstream)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "SERVER_WRITE_TIMEOUT")
				return
			}
			assert.NoError(t, err)
		})
	}
}
