package initializers

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Kariqs/eden-store-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 10*time.Minute, cfg.Redis.CatalogTTL)
	assert.Equal(t, 2, cfg.Carrier.RetryCount)
	assert.False(t, cfg.Mail.Enabled)

	err := cfg.Validate()
	assert.True(t, errors.Is(err, models.ErrMissingConfiguration), "defaults carry no DSN")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://eden@localhost/eden")
	t.Setenv("REDIS_CATALOG_TTL", "90s")
	t.Setenv("CARRIER_RETRY_COUNT", "5")
	t.Setenv("MAIL_ENABLED", "Yes")
	t.Setenv("FROM_EMAIL", "shop@example.com")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())
	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.App.CORSOrigins)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 90*time.Second, cfg.Redis.CatalogTTL)
	assert.Equal(t, 5, cfg.Carrier.RetryCount)
	assert.True(t, cfg.Mail.Enabled)
	assert.Equal(t, "shop@example.com", cfg.Mail.FromEmail)
}

func TestLoadFromEnvReportsMalformedValues(t *testing.T) {
	t.Setenv("PORT", "eighty")
	t.Setenv("DB_SLOW_THRESHOLD", "fast")

	err := DefaultConfig().LoadFromEnv()
	require.Error(t, err)
	assert.True(t, models.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "DB_SLOW_THRESHOLD")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Database.DSN = "user:pass@tcp(localhost:3306)/eden"
		return cfg
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"port out of range", func(c *Config) { c.App.Port = 70000 }, models.ErrInvalidConfiguration},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, models.ErrInvalidConfiguration},
		{"missing dsn", func(c *Config) { c.Database.DSN = "" }, models.ErrMissingConfiguration},
		{"negative retries", func(c *Config) { c.Carrier.RetryCount = -1 }, models.ErrInvalidConfiguration},
		{"mail without sender", func(c *Config) { c.Mail.Enabled = true }, models.ErrMissingConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.True(t, errors.Is(err, tt.want), "unexpected error: %v", err)
			assert.True(t, models.IsConfigurationError(err))
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eden.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  port: 3000
database:
  driver: postgres
  dsn: postgres://eden@db/eden
redis:
  catalog_ttl: 45s
carrier:
  base_url: https://carriers.example.com
`), 0o600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))
	assert.Equal(t, 3000, cfg.App.Port)
	assert.Equal(t, "eden-store-api", cfg.App.Name, "unset keys keep their defaults")
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 45*time.Second, cfg.Redis.CatalogTTL)
	assert.Equal(t, "https://carriers.example.com", cfg.Carrier.BaseURL)

	err := cfg.LoadFromFile(filepath.Join(dir, "eden.json"))
	assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))

	broken := filepath.Join(dir, "broken.yml")
	require.NoError(t, os.WriteFile(broken, []byte("app: [unterminated"), 0o600))
	assert.True(t, models.IsConfigurationError(cfg.LoadFromFile(broken)))

	assert.Error(t, cfg.LoadFromFile(filepath.Join(dir, "missing.yaml")))
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eden.yml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  port: 3000\ndatabase:\n  dsn: from-file\n"), 0o600))

	t.Setenv("EDEN_CONFIG_FILE", path)
	t.Setenv("PORT", "4000")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.App.Port, "environment wins over the file")
	assert.Equal(t, "from-file", cfg.Database.DSN)
}
