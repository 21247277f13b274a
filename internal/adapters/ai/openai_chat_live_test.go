package ai_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeanalysis/internal/adapters/ai"
	"tradeanalysis/internal/testsupport"
)

func TestAzureOpenAIProvider_Live(t *testing.T) {
	if testing.Short() {
		t.Skip("live test")
	}
	cfg := testsupport.LoadLLMConfigFromEnv(t)

	provider, err := ai.NewAzureOpenAIProvider(cfg, ai.NewRateLimiter(ai.ProviderNameAzureOpenAI, 0))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	resp, err := provider.Chat(ctx, ai.ChatRequest{
		Model:     cfg.Deployment,
		Messages:  []ai.Message{ai.SystemMessage("Answer with one word."), ai.UserMessage("Say ok.")},
		MaxTokens: 16,
	})
	require.NoError(t, err)

	text, ok := resp.FinalText()
	assert.True(t, ok)
	assert.NotEmpty(t, text)
	assert.Positive(t, resp.Usage.TotalTokens)
}
