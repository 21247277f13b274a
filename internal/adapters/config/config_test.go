package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeanalysis/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.LLM.Deployment)
	assert.Equal(t, 2*time.Minute, cfg.LLM.Timeout)
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
	assert.Equal(t, 0, cfg.LLM.RateLimitRPM)
	assert.True(t, cfg.LLM.InputCostPer1K.Equal(decimal.RequireFromString("0.0025")))
	assert.True(t, cfg.LLM.OutputCostPer1K.Equal(decimal.RequireFromString("0.01")))
	assert.Equal(t, "development", cfg.App.Env)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("MODEL_DEPLOYMENT_NAME", "gpt-4o-mini")
	t.Setenv("LLM_RATE_LIMIT_RPM", "120")
	t.Setenv("MODEL_INPUT_COST_PER_1K", "0.00015")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Deployment)
	assert.Equal(t, 120, cfg.LLM.RateLimitRPM)
	assert.True(t, cfg.LLM.InputCostPer1K.Equal(decimal.RequireFromString("0.00015")))
}

func TestLoad_MalformedValueIsConfigError(t *testing.T) {
	t.Setenv("LLM_MAX_TOKENS", "lots")

	_, err := Load()
	require.Error(t, err)

	var cfgErr *Error
	assert.ErrorAs(t, err, &cfgErr)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

func TestLLMConfig_Validate(t *testing.T) {
	valid := LLMConfig{
		Endpoint:   "https://example.openai.azure.com",
		Deployment: "gpt-4o",
		MaxTokens:  4096,
	}

	tests := []struct {
		name    string
		mutate  func(c *LLMConfig)
		setting string
	}{
		{name: "valid", mutate: func(c *LLMConfig) {}},
		{name: "missing endpoint", mutate: func(c *LLMConfig) { c.Endpoint = "  " }, setting: "AZURE_OPENAI_ENDPOINT"},
		{name: "relative endpoint", mutate: func(c *LLMConfig) { c.Endpoint = "example.com/openai" }, setting: "AZURE_OPENAI_ENDPOINT"},
		{name: "empty deployment", mutate: func(c *LLMConfig) { c.Deployment = "" }, setting: "MODEL_DEPLOYMENT_NAME"},
		{name: "zero max tokens", mutate: func(c *LLMConfig) { c.MaxTokens = 0 }, setting: "LLM_MAX_TOKENS"},
		{name: "negative timeout", mutate: func(c *LLMConfig) { c.Timeout = -time.Second }, setting: "LLM_TIMEOUT"},
		{name: "negative rate limit", mutate: func(c *LLMConfig) { c.RateLimitRPM = -1 }, setting: "LLM_RATE_LIMIT_RPM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.setting == "" {
				assert.NoError(t, err)
				return
			}

			var cfgErr *Error
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.setting, cfgErr.Setting)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
		})
	}
}
