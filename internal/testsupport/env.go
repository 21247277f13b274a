package testsupport

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tradeanalysis/internal/adapters/config"
)

// LoadLLMConfigFromEnv reads the configuration for live model tests.
// Tests are skipped when the endpoint is not configured.
func LoadLLMConfigFromEnv(t *testing.T) config.LLMConfig {
	t.Helper()

	required := []string{"AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_API_KEY"}

	missing := make([]string, 0)
	for _, key := range required {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		t.Skipf("live LLM environment missing, set %v to run", missing)
	}

	return config.LLMConfig{
		Endpoint:        os.Getenv("AZURE_OPENAI_ENDPOINT"),
		Deployment:      valueWithDefault("MODEL_DEPLOYMENT_NAME", "gpt-4o"),
		APIKey:          os.Getenv("AZURE_OPENAI_API_KEY"),
		APIVersion:      os.Getenv("AZURE_OPENAI_API_VERSION"),
		Timeout:         2 * time.Minute,
		Temperature:     0.2,
		MaxTokens:       intValue("LLM_MAX_TOKENS", 256),
		InputCostPer1K:  decimal.Zero,
		OutputCostPer1K: decimal.Zero,
	}
}

func valueWithDefault(key string, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func intValue(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		_, err := fmt.Sscanf(val, "%d", &parsed)
		if err == nil {
			return parsed
		}
	}

	return fallback
}
