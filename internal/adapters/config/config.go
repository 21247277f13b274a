package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"tradeanalysis/pkg/errors"
)

type Config struct {
	App           AppConfig
	LLM           LLMConfig
	ErrorTracking ErrorTrackingConfig
	Metrics       MetricsConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"tradeanalysis"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"warn"`

	// PromptsDir overrides the embedded prompt templates when set.
	PromptsDir string `envconfig:"PROMPTS_DIR"`
}

// LLMConfig describes the Azure OpenAI deployment every agent talks to.
type LLMConfig struct {
	Endpoint   string        `envconfig:"AZURE_OPENAI_ENDPOINT"`
	Deployment string        `envconfig:"MODEL_DEPLOYMENT_NAME" default:"gpt-4o"`
	APIKey     string        `envconfig:"AZURE_OPENAI_API_KEY"`
	APIVersion string        `envconfig:"AZURE_OPENAI_API_VERSION"`
	Timeout    time.Duration `envconfig:"LLM_TIMEOUT" default:"2m"`

	Temperature  float64 `envconfig:"LLM_TEMPERATURE" default:"0.7"`
	MaxTokens    int     `envconfig:"LLM_MAX_TOKENS" default:"4096"`
	RateLimitRPM int     `envconfig:"LLM_RATE_LIMIT_RPM" default:"0"` // 0 disables local rate limiting

	// Pricing used for the run cost estimate (USD per 1K tokens, gpt-4o list price)
	InputCostPer1K  decimal.Decimal `envconfig:"MODEL_INPUT_COST_PER_1K" default:"0.0025"`
	OutputCostPer1K decimal.Decimal `envconfig:"MODEL_OUTPUT_COST_PER_1K" default:"0.01"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

type MetricsConfig struct {
	PushgatewayURL string `envconfig:"METRICS_PUSHGATEWAY_URL"`
	JobName        string `envconfig:"METRICS_JOB_NAME" default:"tradeanalysis"`
}

// Error reports a missing or malformed setting.
type Error struct {
	Setting string
	Reason  string
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s %s", e.Setting, e.Reason)
}

// Unwrap lets callers match configuration problems with errors.Is(err, errors.ErrInvalidConfig)
func (e *Error) Unwrap() error {
	return errors.ErrInvalidConfig
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &Error{Setting: "environment", Reason: err.Error()}
	}

	return &cfg, nil
}

// Validate checks the settings an analysis run cannot start without.
func (c *Config) Validate() error {
	return c.LLM.Validate()
}

// Validate checks the LLM settings.
func (c LLMConfig) Validate() error {
	endpoint := strings.TrimSpace(c.Endpoint)
	if endpoint == "" {
		return &Error{
			Setting: "AZURE_OPENAI_ENDPOINT",
			Reason:  "not set. Please set it in your .env file or environment variables",
		}
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return &Error{Setting: "AZURE_OPENAI_ENDPOINT", Reason: fmt.Sprintf("is not a valid http(s) URL: %q", endpoint)}
	}

	if strings.TrimSpace(c.Deployment) == "" {
		return &Error{Setting: "MODEL_DEPLOYMENT_NAME", Reason: "must not be empty"}
	}
	if c.MaxTokens <= 0 {
		return &Error{Setting: "LLM_MAX_TOKENS", Reason: fmt.Sprintf("must be positive, got %d", c.MaxTokens)}
	}
	if c.Timeout < 0 {
		return &Error{Setting: "LLM_TIMEOUT", Reason: fmt.Sprintf("must not be negative, got %s", c.Timeout)}
	}
	if c.RateLimitRPM < 0 {
		return &Error{Setting: "LLM_RATE_LIMIT_RPM", Reason: fmt.Sprintf("must not be negative, got %d", c.RateLimitRPM)}
	}

	return nil
}
