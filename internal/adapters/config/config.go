package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/syedkamrannspark/Cashflow-Backend/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	AI            AIConfig
	Orchestrator  OrchestratorConfig
	Workers       WorkersConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"cashflow-backend"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type HTTPConfig struct {
	Port int `envconfig:"HTTP_PORT" default:"8080"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"cashflow"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"cashflow"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool          `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int           `envconfig:"REDIS_PORT" default:"6379"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL time.Duration `envconfig:"REDIS_CACHE_TTL" default:"5m"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AIConfig configures the language-model completion endpoint.
// The OpenRouter API is wire-compatible with the OpenAI chat completions API.
type AIConfig struct {
	APIKey            string        `envconfig:"OPENROUTER_API_KEY"`
	BaseURL           string        `envconfig:"LLM_BASE_URL" default:"https://openrouter.ai/api/v1"`
	Model             string        `envconfig:"LLM_MODEL" default:"openai/gpt-3.5-turbo"`
	Timeout           time.Duration `envconfig:"LLM_TIMEOUT" default:"45s"`
	RequestsPerMinute int           `envconfig:"LLM_REQUESTS_PER_MINUTE" default:"60"`
}

// OrchestratorConfig bounds agent execution on both query and workflow paths.
type OrchestratorConfig struct {
	ForecastTimeout time.Duration `envconfig:"ORCHESTRATOR_FORECAST_TIMEOUT" default:"5s"`
	InsightTimeout  time.Duration `envconfig:"ORCHESTRATOR_INSIGHT_TIMEOUT" default:"45s"`
	WorkflowTimeout time.Duration `envconfig:"ORCHESTRATOR_WORKFLOW_TIMEOUT" default:"90s"`
	InsightRetries  int           `envconfig:"ORCHESTRATOR_INSIGHT_RETRIES" default:"1"`
	RetryBackoff    time.Duration `envconfig:"ORCHESTRATOR_RETRY_BACKOFF" default:"2s"`
	ForecastPeriods int           `envconfig:"ORCHESTRATOR_FORECAST_PERIODS" default:"4"`
}

// WorkersConfig tunes the background maintenance workers.
type WorkersConfig struct {
	RunRetention      time.Duration `envconfig:"WORKER_RUN_RETENTION" default:"24h"`
	RetentionInterval time.Duration `envconfig:"WORKER_RETENTION_INTERVAL" default:"10m"`
	CacheWarmInterval time.Duration `envconfig:"WORKER_CACHE_WARM_INTERVAL" default:"15m"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
