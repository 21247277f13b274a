package ai

import (
	"context"
	"net/url"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"tradeanalysis/internal/adapters/config"
	"tradeanalysis/pkg/errors"
	"tradeanalysis/pkg/logger"
)

// Ensure AzureOpenAIProvider implements ChatProvider
var _ ChatProvider = (*AzureOpenAIProvider)(nil)

// AzureOpenAIProvider talks to an Azure OpenAI deployment through the
// OpenAI-compatible v1 surface of the official SDK.
type AzureOpenAIProvider struct {
	client      openai.Client
	model       ModelInfo
	rateLimiter RateLimiter
	log         *logger.Logger
}

// NewAzureOpenAIProvider builds a provider for one run.
// The SDK's own retry loop is disabled: a failed call fails the run.
func NewAzureOpenAIProvider(cfg config.LLMConfig, limiter RateLimiter, opts ...option.RequestOption) (*AzureOpenAIProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if limiter == nil {
		limiter = NewNoOpLimiter()
	}

	baseURL, err := azureBaseURL(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	clientOpts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	if cfg.APIKey != "" {
		clientOpts = append(clientOpts,
			option.WithAPIKey(cfg.APIKey),
			option.WithHeader("api-key", cfg.APIKey),
		)
	}
	if cfg.APIVersion != "" {
		clientOpts = append(clientOpts, option.WithQuery("api-version", cfg.APIVersion))
	}
	if cfg.Timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(cfg.Timeout))
	}
	clientOpts = append(clientOpts, opts...)

	return &AzureOpenAIProvider{
		client: openai.NewClient(clientOpts...),
		model: ModelInfo{
			Provider:        ProviderNameAzureOpenAI,
			Name:            cfg.Deployment,
			InputCostPer1K:  cfg.InputCostPer1K,
			OutputCostPer1K: cfg.OutputCostPer1K,
		},
		rateLimiter: limiter,
		log:         logger.Get().With("component", "azure_openai", "deployment", cfg.Deployment),
	}, nil
}

// Name returns provider name.
func (p *AzureOpenAIProvider) Name() string { return ProviderNameAzureOpenAI.String() }

// Model returns the deployment metadata.
func (p *AzureOpenAIProvider) Model() ModelInfo { return p.model }

// Chat sends a chat completion request to the deployment.
func (p *AzureOpenAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if len(req.Messages) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "chat request has no messages")
	}

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = p.model.Name
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(msg.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(msg.Content))
		}
	}

	p.log.Debugw("Calling LLM", "messages", len(params.Messages), "model", model)

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, errors.Wrapf(errors.ErrExternal, "azure openai API error (%d): %v", apiErr.StatusCode, err)
		}
		return nil, errors.Wrap(err, "send azure openai request")
	}

	resp := &ChatResponse{
		ID:    completion.ID,
		Model: completion.Model,
		Usage: Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}

	for _, choice := range completion.Choices {
		resp.Choices = append(resp.Choices, Choice{
			Index:        int(choice.Index),
			Message:      Message{Role: RoleAssistant, Content: choice.Message.Content},
			FinishReason: convertFinishReason(string(choice.FinishReason)),
		})
	}

	p.log.Debugw("LLM response received", "choices", len(resp.Choices), "tokens", resp.Usage.TotalTokens)

	return resp, nil
}

func convertFinishReason(reason string) FinishReason {
	switch reason {
	case "stop":
		return FinishReasonStop
	case "length":
		return FinishReasonLength
	case "content_filter":
		return FinishReasonContentFilter
	default:
		return FinishReasonOther
	}
}

// azureBaseURL maps a resource endpoint to the OpenAI-compatible base URL.
// Endpoints that already point below /openai are used as-is.
func azureBaseURL(endpoint string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", errors.Wrapf(errors.ErrInvalidConfig, "parse endpoint %q", endpoint)
	}

	path := strings.TrimRight(u.Path, "/")
	if !strings.Contains(path, "/openai") {
		path += "/openai/v1"
	}
	u.Path = path + "/"

	return u.String(), nil
}
