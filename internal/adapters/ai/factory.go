package ai

import (
	"tradeanalysis/internal/adapters/config"
)

// NewChatProvider builds the chat provider described by cfg, with local rate
// limiting when LLM_RATE_LIMIT_RPM is positive.
func NewChatProvider(cfg config.LLMConfig) (ChatProvider, error) {
	limiter := NewRateLimiter(ProviderNameAzureOpenAI, cfg.RateLimitRPM)

	provider, err := NewAzureOpenAIProvider(cfg, limiter)
	if err != nil {
		return nil, err
	}

	return provider, nil
}
