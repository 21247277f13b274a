package adk

import (
	"context"
	"iter"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"tradeanalysis/internal/adapters/ai"
	"tradeanalysis/pkg/errors"
	"tradeanalysis/pkg/logger"
)

// ModelAdapter adapts our AI ChatProvider to ADK's model.LLM interface.
type ModelAdapter struct {
	provider ai.ChatProvider
	defaults GenerationDefaults
	log      *logger.Logger
}

// GenerationDefaults apply when a request leaves the parameter unset.
type GenerationDefaults struct {
	Temperature float64
	MaxTokens   int
}

// NewModelAdapter creates a new ADK model adapter.
func NewModelAdapter(provider ai.ChatProvider, defaults GenerationDefaults) *ModelAdapter {
	return &ModelAdapter{
		provider: provider,
		defaults: defaults,
		log:      logger.Get().With("component", "model_adapter", "model", provider.Model().Name),
	}
}

// Name returns the deployment name requests are routed to.
func (m *ModelAdapter) Name() string {
	return m.provider.Model().Name
}

// Info returns the pricing metadata of the wrapped provider.
func (m *ModelAdapter) Info() ai.ModelInfo {
	return m.provider.Model()
}

// GenerateContent implements the ADK model.LLM interface.
func (m *ModelAdapter) GenerateContent(
	ctx context.Context,
	req *model.LLMRequest,
	stream bool,
) iter.Seq2[*model.LLMResponse, error] {
	if stream {
		return func(yield func(*model.LLMResponse, error) bool) {
			yield(nil, errors.Wrap(errors.ErrNotImplemented, "streaming"))
		}
	}

	return func(yield func(*model.LLMResponse, error) bool) {
		chatReq := m.convertToChatRequest(req)

		m.log.Debugw("Calling LLM", "messages", len(chatReq.Messages), "max_tokens", chatReq.MaxTokens)

		resp, err := m.provider.Chat(ctx, chatReq)
		if err != nil {
			yield(nil, err)
			return
		}

		m.log.Debugw("LLM response received",
			"choices", len(resp.Choices),
			"tokens", resp.Usage.TotalTokens,
		)

		yield(m.convertToADKResponse(resp), nil)
	}
}

// convertToChatRequest converts ADK request to our format. The system
// instruction becomes the leading system message.
func (m *ModelAdapter) convertToChatRequest(req *model.LLMRequest) ai.ChatRequest {
	chatReq := ai.ChatRequest{
		Model:       m.Name(),
		Temperature: m.defaults.Temperature,
		MaxTokens:   m.defaults.MaxTokens,
	}
	if req == nil {
		return chatReq
	}

	if cfg := req.Config; cfg != nil {
		if cfg.Temperature != nil {
			chatReq.Temperature = float64(*cfg.Temperature)
		}
		if cfg.MaxOutputTokens > 0 {
			chatReq.MaxTokens = int(cfg.MaxOutputTokens)
		}
		if text := contentText(cfg.SystemInstruction); text != "" {
			chatReq.Messages = append(chatReq.Messages, ai.SystemMessage(text))
		}
	}

	for _, content := range req.Contents {
		if content == nil {
			continue
		}

		var role ai.MessageRole
		switch content.Role {
		case "model":
			role = ai.RoleAssistant
		case "system":
			role = ai.RoleSystem
		default:
			role = ai.RoleUser
		}

		chatReq.Messages = append(chatReq.Messages, ai.Message{Role: role, Content: contentText(content)})
	}

	return chatReq
}

// convertToADKResponse converts our response to ADK format. A response
// without usable text yields content with no parts.
func (m *ModelAdapter) convertToADKResponse(resp *ai.ChatResponse) *model.LLMResponse {
	if resp == nil {
		resp = &ai.ChatResponse{}
	}

	adkResp := &model.LLMResponse{
		Content:      &genai.Content{Role: "model", Parts: []*genai.Part{}},
		TurnComplete: true,
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(resp.Usage.PromptTokens),
			CandidatesTokenCount: int32(resp.Usage.CompletionTokens),
			TotalTokenCount:      int32(resp.Usage.TotalTokens),
		},
	}

	if len(resp.Choices) == 0 {
		adkResp.FinishReason = genai.FinishReasonOther
		adkResp.ErrorMessage = "no choices in response"
		return adkResp
	}

	if text, ok := resp.FinalText(); ok {
		adkResp.Content.Parts = append(adkResp.Content.Parts, &genai.Part{Text: text})
	}

	switch resp.Choices[len(resp.Choices)-1].FinishReason {
	case ai.FinishReasonLength:
		adkResp.FinishReason = genai.FinishReasonMaxTokens
	case ai.FinishReasonContentFilter:
		adkResp.FinishReason = genai.FinishReasonSafety
	default:
		adkResp.FinishReason = genai.FinishReasonStop
	}

	return adkResp
}

func contentText(content *genai.Content) string {
	if content == nil {
		return ""
	}

	text := ""
	for _, part := range content.Parts {
		if part == nil || part.Text == "" {
			continue
		}
		if text != "" {
			text += "\n"
		}
		text += part.Text
	}
	return text
}

// Ensure ModelAdapter implements model.LLM
var _ model.LLM = (*ModelAdapter)(nil)
