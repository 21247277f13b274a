package ai

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider defines the contract each AI provider implementation must satisfy.
type Provider interface {
	Name() string

	// Model returns metadata for the model requests are routed to.
	Model() ModelInfo
}

// ChatProvider extends Provider with chat completion capabilities.
type ChatProvider interface {
	Provider

	// Chat sends a single chat completion request.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ModelInfo describes a deployed model and its pricing.
type ModelInfo struct {
	Provider        ProviderName
	Name            string          // Deployment / model identifier
	InputCostPer1K  decimal.Decimal // USD per 1K input tokens
	OutputCostPer1K decimal.Decimal // USD per 1K output tokens
}

// ProviderName represents an AI provider identifier
type ProviderName string

const (
	ProviderNameAzureOpenAI ProviderName = "azure_openai"
)

// String returns the string representation of the provider name
func (p ProviderName) String() string {
	return string(p)
}
