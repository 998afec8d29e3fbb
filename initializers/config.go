package initializers

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Kariqs/eden-store-api/models"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Name        string   `yaml:"name"`
	Env         string   `yaml:"env"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
	LogLevel    string   `yaml:"log_level"`
	LogFormat   string   `yaml:"log_format"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	LogLevel        string        `yaml:"log_level"`
	SlowThreshold   time.Duration `yaml:"slow_threshold"`
}

type RedisConfig struct {
	URL        string        `yaml:"url"`
	CatalogTTL time.Duration `yaml:"catalog_ttl"`
	Prefix     string        `yaml:"prefix"`
}

type StorageConfig struct {
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	PublicBaseURL string `yaml:"public_base_url"`
}

type CarrierConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	RetryCount int           `yaml:"retry_count"`
}

type PaymentConfig struct {
	BaseURL        string `yaml:"base_url"`
	ConsumerKey    string `yaml:"consumer_key"`
	ConsumerSecret string `yaml:"consumer_secret"`
}

type MailConfig struct {
	Enabled      bool   `yaml:"enabled"`
	FromEmail    string `yaml:"from_email"`
	Password     string `yaml:"password"`
	SMTPHost     string `yaml:"smtp_host"`
	SMTPAddress  string `yaml:"smtp_address"`
	TemplatePath string `yaml:"template_path"`
}

// Config is the whole runtime configuration. It is built from defaults, then
// an optional YAML file named by EDEN_CONFIG_FILE, then environment variables.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Carrier  CarrierConfig  `yaml:"carrier"`
	Payment  PaymentConfig  `yaml:"payment"`
	Mail     MailConfig     `yaml:"mail"`
}

func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "eden-store-api",
			Env:         "development",
			Port:        8080,
			CORSOrigins: []string{"http://localhost:4200"},
			LogLevel:    "INFO",
			LogFormat:   "text",
		},
		Database: DatabaseConfig{
			Driver:          "mysql",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			LogLevel:        "warn",
			SlowThreshold:   200 * time.Millisecond,
		},
		Redis: RedisConfig{
			CatalogTTL: 10 * time.Minute,
			Prefix:     "eden:catalog:",
		},
		Carrier: CarrierConfig{
			Timeout:    30 * time.Second,
			RetryCount: 2,
		},
		Payment: PaymentConfig{
			BaseURL: "https://pay.pesapal.com/v3",
		},
	}
}

// LoadEnv reads .env into the process environment. A missing file is fine.
func LoadEnv() error {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// LoadConfig builds and validates the configuration.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()
	if path := os.Getenv("EDEN_CONFIG_FILE"); path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile overlays a YAML file onto c.
func (c *Config) LoadFromFile(path string) error {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".yaml" && ext != ".yml" {
		return configError(fmt.Sprintf("unsupported config file extension %s", ext), models.ErrInvalidConfiguration)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", cleanPath, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return configError("failed to parse YAML config file: "+err.Error(), models.ErrInvalidConfiguration)
	}
	return nil
}

// LoadFromEnv overlays environment variables onto c. Malformed numbers and
// durations are reported rather than ignored.
func (c *Config) LoadFromEnv() error {
	var errs []string
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, key)
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, key)
				return
			}
			*dst = d
		}
	}

	str("APP_NAME", &c.App.Name)
	str("APP_ENV", &c.App.Env)
	num("PORT", &c.App.Port)
	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok {
		c.App.CORSOrigins = parseStringList(v)
	}
	str("LOG_LEVEL", &c.App.LogLevel)
	str("LOG_FORMAT", &c.App.LogFormat)

	str("DB_DRIVER", &c.Database.Driver)
	str("DB_DSN", &c.Database.DSN)
	num("DB_MAX_OPEN_CONNS", &c.Database.MaxOpenConns)
	num("DB_MAX_IDLE_CONNS", &c.Database.MaxIdleConns)
	dur("DB_CONN_MAX_LIFETIME", &c.Database.ConnMaxLifetime)
	str("DB_LOG_LEVEL", &c.Database.LogLevel)
	dur("DB_SLOW_THRESHOLD", &c.Database.SlowThreshold)

	str("REDIS_URL", &c.Redis.URL)
	dur("REDIS_CATALOG_TTL", &c.Redis.CatalogTTL)
	str("REDIS_PREFIX", &c.Redis.Prefix)

	str("S3_BUCKET", &c.Storage.Bucket)
	str("AWS_REGION", &c.Storage.Region)
	str("S3_PUBLIC_BASE_URL", &c.Storage.PublicBaseURL)

	str("CARRIER_API_URL", &c.Carrier.BaseURL)
	str("CARRIER_API_KEY", &c.Carrier.APIKey)
	dur("CARRIER_TIMEOUT", &c.Carrier.Timeout)
	num("CARRIER_RETRY_COUNT", &c.Carrier.RetryCount)

	str("PESAPAL_BASE_URL", &c.Payment.BaseURL)
	str("PESAPAL_CONSUMER_KEY", &c.Payment.ConsumerKey)
	str("PESAPAL_CONSUMER_SECRET", &c.Payment.ConsumerSecret)

	if v, ok := os.LookupEnv("MAIL_ENABLED"); ok {
		c.Mail.Enabled = parseBool(v)
	}
	str("FROM_EMAIL", &c.Mail.FromEmail)
	str("FROM_EMAIL_PASSWORD", &c.Mail.Password)
	str("FROM_EMAIL_SMTP", &c.Mail.SMTPHost)
	str("SMTP_ADDRESS", &c.Mail.SMTPAddress)
	str("MAIL_TEMPLATE_PATH", &c.Mail.TemplatePath)

	if len(errs) > 0 {
		return configError("malformed value for "+strings.Join(errs, ", "), models.ErrInvalidConfiguration)
	}
	return nil
}

// Validate checks the settings that must hold before anything connects.
func (c *Config) Validate() error {
	if c.App.Port < 1 || c.App.Port > 65535 {
		return configError(fmt.Sprintf("invalid port: %d", c.App.Port), models.ErrInvalidConfiguration)
	}
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return configError(fmt.Sprintf("unsupported database driver %q", c.Database.Driver), models.ErrInvalidConfiguration)
	}
	if c.Database.DSN == "" {
		return configError("database DSN is required", models.ErrMissingConfiguration)
	}
	if c.Carrier.RetryCount < 0 {
		return configError("carrier retry count must not be negative", models.ErrInvalidConfiguration)
	}
	if c.Mail.Enabled && (c.Mail.FromEmail == "" || c.Mail.SMTPAddress == "") {
		return configError("from email and SMTP address are required when mail is enabled", models.ErrMissingConfiguration)
	}
	return nil
}

func configError(message string, err error) error {
	return &models.DomainError{
		Op:      "Config.Validate",
		Kind:    models.KindConfig,
		Message: message,
		Err:     err,
	}
}

func parseStringList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
