package config

import (
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// DefaultConnectionLimit is used when DATABASE_URL carries no connection_limit.
	DefaultConnectionLimit = 10
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	LLM       LLMConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Assembly  AssemblyAIConfig
	Synthesis SynthesisConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string        `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL         string `envconfig:"DATABASE_URL" required:"true"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// LLMConfig holds the chat-completion provider settings.
// The API key is not validated locally; the provider rejects bad keys.
type LLMConfig struct {
	APIKey      string        `envconfig:"OPENAI_API_KEY"`
	OrgID       string        `envconfig:"OPENAI_ORG_ID"`
	BaseURL     string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	Model       string        `envconfig:"OPENAI_MODEL" default:"gpt-4-turbo-preview"`
	Timeout     time.Duration `envconfig:"LLM_TIMEOUT" default:"60s"`
	MaxRetries  int           `envconfig:"LLM_MAX_RETRIES" default:"3"`
	PricingFile string        `envconfig:"MODEL_PRICING_FILE"`
}

// RedisConfig holds Redis configuration. An empty Addr selects the in-memory lock.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// StorageConfig holds storage configuration. An empty Endpoint disables uploads.
type StorageConfig struct {
	Endpoint        string `envconfig:"STORAGE_ENDPOINT"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"complexchaos"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
}

// AssemblyAIConfig holds transcription settings. An empty APIKey disables audio submissions.
type AssemblyAIConfig struct {
	APIKey string `envconfig:"ASSEMBLYAI_API_KEY"`
}

// SynthesisConfig holds workflow tuning
type SynthesisConfig struct {
	LockTTL time.Duration `envconfig:"SYNTHESIS_LOCK_TTL" default:"5m"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Server.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("ENVIRONMENT must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Server.Environment)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if _, _, err := ParseDatabaseURL(c.Database.URL); err != nil {
		return err
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("LLM_MAX_RETRIES must not be negative")
	}
	return nil
}

// IsProduction reports whether the runtime mode is production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// StorageEnabled reports whether attachment uploads are configured
func (c *Config) StorageEnabled() bool {
	return c.Storage.Endpoint != ""
}

// ParseDatabaseURL strips the connection_limit query parameter from a
// postgres URL and returns the cleaned DSN together with the limit.
func ParseDatabaseURL(raw string) (string, int, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", 0, fmt.Errorf("invalid DATABASE_URL: unsupported scheme %q", u.Scheme)
	}

	limit := DefaultConnectionLimit
	q := u.Query()
	if v := q.Get("connection_limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return "", 0, fmt.Errorf("invalid DATABASE_URL: connection_limit must be a positive integer, got %q", v)
		}
		limit = n
	}
	q.Del("connection_limit")
	u.RawQuery = q.Encode()

	return u.String(), limit, nil
}
