package ai

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeanalysis/internal/adapters/config"
	"tradeanalysis/pkg/errors"
)

func TestNewChatProvider(t *testing.T) {
	provider, err := NewChatProvider(config.LLMConfig{
		Endpoint:        "https://example.openai.azure.com",
		Deployment:      "gpt-4o-mini",
		MaxTokens:       512,
		RateLimitRPM:    60,
		InputCostPer1K:  decimal.RequireFromString("0.00015"),
		OutputCostPer1K: decimal.RequireFromString("0.0006"),
	})
	require.NoError(t, err)

	assert.Equal(t, "azure_openai", provider.Name())
	model := provider.Model()
	assert.Equal(t, "gpt-4o-mini", model.Name)
	assert.Equal(t, ProviderNameAzureOpenAI, model.Provider)
	assert.True(t, model.OutputCostPer1K.Equal(decimal.RequireFromString("0.0006")))

	azure, ok := provider.(*AzureOpenAIProvider)
	require.True(t, ok)
	assert.InDelta(t, 60, azure.rateLimiter.Limit(), 0.001)
}

func TestNewChatProvider_InvalidConfig(t *testing.T) {
	_, err := NewChatProvider(config.LLMConfig{Deployment: "gpt-4o", MaxTokens: 1})
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}
