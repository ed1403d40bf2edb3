package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "google/gemini-2.5-flash-image-preview", cfg.Provider.Model)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
server:
  http_port: 9000
provider:
  base_url: "https://example.com/api"
  model: "test/model"
database:
  driver: sqlite
  name: "test.db"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.HTTPPort)
	assert.Equal(t, "https://example.com/api", cfg.Provider.BaseURL)
	assert.Equal(t, "test/model", cfg.Provider.Model)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	// 未覆盖的字段保留默认值
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_port: 9000\n"), 0o600))

	t.Setenv("IMGETHANCER_SERVER_HTTP_PORT", "9100")
	t.Setenv("IMGETHANCER_PROVIDER_API_KEY", "sk-test-key")
	t.Setenv("IMGETHANCER_PROVIDER_TIMEOUT", "90s")
	t.Setenv("IMGETHANCER_TELEMETRY_ENABLED", "true")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.HTTPPort)
	assert.Equal(t, "sk-test-key", cfg.Provider.APIKey)
	assert.Equal(t, 90*time.Second, cfg.Provider.Timeout)
	assert.True(t, cfg.Telemetry.Enabled)
}

func TestEnvStringSlice(t *testing.T) {
	t.Setenv("IMGETHANCER_LOG_OUTPUT_PATHS", "stdout, /var/log/imgethancer.log")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"stdout", "/var/log/imgethancer.log"}, cfg.Log.OutputPaths)
}

func TestCustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVER_HTTP_PORT", "7070")

	cfg, err := NewLoader().WithEnvPrefix("MYAPP").Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.HTTPPort)
}

func TestInvalidEnvValue(t *testing.T) {
	t.Setenv("IMGETHANCER_SERVER_HTTP_PORT", "not-a-number")

	_, err := NewLoader().Load()
	assert.Error(t, err)
}

func TestValidatorRejectsConfig(t *testing.T) {
	_, err := NewLoader().
		WithValidator(func(c *Config) error { return c.Validate() }).
		Load()
	require.NoError(t, err)

	_, err = NewLoader().
		WithValidator(func(c *Config) error {
			c.Provider.Model = ""
			return c.Validate()
		}).
		Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.HTTPPort = 0 },
			wantErr: true,
		},
		{
			name:    "missing base URL",
			mutate:  func(c *Config) { c.Provider.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "missing model",
			mutate:  func(c *Config) { c.Provider.Model = "" },
			wantErr: true,
		},
		{
			name:    "non-positive token TTL",
			mutate:  func(c *Config) { c.Auth.TokenTTL = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	pg := DatabaseConfig{
		Driver: "postgres", Host: "db", Port: 5432,
		User: "u", Password: "p", Name: "imgs", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=imgs sslmode=disable", pg.DSN())

	sq := DatabaseConfig{Driver: "sqlite", Name: "/tmp/imgs.db"}
	assert.Equal(t, "/tmp/imgs.db", sq.DSN())

	unknown := DatabaseConfig{Driver: "oracle"}
	assert.Empty(t, unknown.DSN())
}

func TestMigrateURL(t *testing.T) {
	pg := DatabaseConfig{
		Driver: "postgres", Host: "db", Port: 5432,
		User: "u", Password: "p", Name: "imgs", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://u:p@db:5432/imgs?sslmode=disable", pg.MigrateURL())

	sq := DatabaseConfig{Driver: "sqlite", Name: "imgs.db"}
	assert.Equal(t, "file:imgs.db?mode=rwc", sq.MigrateURL())
}
