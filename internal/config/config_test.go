package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default().Server.Addr, cfg.Server.Addr)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Server.SessionLifetime)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
  allowed_origins: ["https://chess.example.com"]
database:
  driver: postgres
  dsn: postgres://localhost/chess
jwt:
  secret: from-file
  default_ttl: 1h
`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DISCORD_KEY", "discord-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, []string{"https://chess.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, time.Hour, cfg.JWT.DefaultTTL)
	assert.Equal(t, "discord-key", cfg.Auth.Discord.Key)
	assert.Equal(t, "migrations", cfg.Database.MigrationsPath, "defaults survive a partial file")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "unknown driver", content: "database:\n  driver: mysql\n"},
		{name: "bad yaml", content: "server: [\n"},
		{name: "bad ttl", env: map[string]string{"JWT_DEFAULT_TTL": "forever"}},
		{name: "zero rate", content: "rate_limit:\n  requests_per_second: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}
