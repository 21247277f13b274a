package adk

import (
	"context"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"tradeanalysis/internal/adapters/ai"
	"tradeanalysis/internal/testsupport"
	"tradeanalysis/pkg/errors"
)

var testDefaults = GenerationDefaults{Temperature: 0.7, MaxTokens: 1024}

func collectResponses(t *testing.T, seq iter.Seq2[*model.LLMResponse, error]) ([]*model.LLMResponse, error) {
	t.Helper()

	var out []*model.LLMResponse
	for resp, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func TestModelAdapter_GenerateContent(t *testing.T) {
	provider := &testsupport.MockChatProvider{}
	var got ai.ChatRequest
	provider.On("Chat", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(1).(ai.ChatRequest) }).
		Return(testsupport.TextResponse("Bullish momentum."), nil)

	adapter := NewModelAdapter(provider, testDefaults)
	req := &model.LLMRequest{
		Contents: []*genai.Content{
			genai.NewContentFromText("Analyze AAPL", genai.RoleUser),
			genai.NewContentFromText("Earlier answer", genai.RoleModel),
		},
		Config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText("You are a market analyst.", genai.RoleUser),
		},
	}

	responses, err := collectResponses(t, adapter.GenerateContent(context.Background(), req, false))
	require.NoError(t, err)
	require.Len(t, responses, 1)

	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 0.7, got.Temperature)
	assert.Equal(t, 1024, got.MaxTokens)
	assert.Equal(t, []ai.Message{
		ai.SystemMessage("You are a market analyst."),
		ai.UserMessage("Analyze AAPL"),
		{Role: ai.RoleAssistant, Content: "Earlier answer"},
	}, got.Messages)

	resp := responses[0]
	assert.True(t, resp.TurnComplete)
	assert.False(t, resp.Partial)
	assert.Equal(t, genai.FinishReasonStop, resp.FinishReason)
	require.NotNil(t, resp.Content)
	require.Len(t, resp.Content.Parts, 1)
	assert.Equal(t, "Bullish momentum.", resp.Content.Parts[0].Text)
	require.NotNil(t, resp.UsageMetadata)
	assert.Equal(t, int32(100), resp.UsageMetadata.PromptTokenCount)
	assert.Equal(t, int32(50), resp.UsageMetadata.CandidatesTokenCount)
	assert.Equal(t, int32(150), resp.UsageMetadata.TotalTokenCount)
}

func TestModelAdapter_ConfigOverridesDefaults(t *testing.T) {
	provider := &testsupport.MockChatProvider{}
	adapter := NewModelAdapter(provider, testDefaults)

	temperature := float32(0.5)
	req := adapter.convertToChatRequest(&model.LLMRequest{
		Config: &genai.GenerateContentConfig{Temperature: &temperature, MaxOutputTokens: 256},
	})

	assert.Equal(t, 0.5, req.Temperature)
	assert.Equal(t, 256, req.MaxTokens)
	assert.Empty(t, req.Messages)

	req = adapter.convertToChatRequest(nil)
	assert.Equal(t, 0.7, req.Temperature)
	assert.Equal(t, 1024, req.MaxTokens)
}

func TestModelAdapter_BlankResponseHasNoParts(t *testing.T) {
	adapter := NewModelAdapter(&testsupport.MockChatProvider{}, testDefaults)

	tests := []struct {
		name   string
		resp   *ai.ChatResponse
		reason genai.FinishReason
	}{
		{"nil response", nil, genai.FinishReasonOther},
		{"no choices", &ai.ChatResponse{}, genai.FinishReasonOther},
		{"whitespace content", testsupport.TextResponse("  \n\t"), genai.FinishReasonStop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := adapter.convertToADKResponse(tt.resp)
			require.NotNil(t, resp.Content)
			assert.Empty(t, resp.Content.Parts)
			assert.Equal(t, tt.reason, resp.FinishReason)
		})
	}
}

func TestModelAdapter_FinishReasons(t *testing.T) {
	adapter := NewModelAdapter(&testsupport.MockChatProvider{}, testDefaults)

	tests := []struct {
		in   ai.FinishReason
		want genai.FinishReason
	}{
		{ai.FinishReasonStop, genai.FinishReasonStop},
		{ai.FinishReasonLength, genai.FinishReasonMaxTokens},
		{ai.FinishReasonContentFilter, genai.FinishReasonSafety},
		{ai.FinishReasonOther, genai.FinishReasonStop},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			chatResp := testsupport.TextResponse("text")
			chatResp.Choices[0].FinishReason = tt.in
			assert.Equal(t, tt.want, adapter.convertToADKResponse(chatResp).FinishReason)
		})
	}
}

func TestModelAdapter_ProviderErrorPassesThrough(t *testing.T) {
	provider := &testsupport.MockChatProvider{}
	provider.On("Chat", mock.Anything, mock.Anything).Return(nil, errors.ErrExternal)

	adapter := NewModelAdapter(provider, testDefaults)
	responses, err := collectResponses(t, adapter.GenerateContent(context.Background(), &model.LLMRequest{}, false))

	assert.ErrorIs(t, err, errors.ErrExternal)
	assert.Empty(t, responses)
}

func TestModelAdapter_StreamingNotSupported(t *testing.T) {
	provider := &testsupport.MockChatProvider{}
	adapter := NewModelAdapter(provider, testDefaults)

	_, err := collectResponses(t, adapter.GenerateContent(context.Background(), &model.LLMRequest{}, true))

	assert.ErrorIs(t, err, errors.ErrNotImplemented)
	provider.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
}

func TestModelAdapter_Info(t *testing.T) {
	adapter := NewModelAdapter(&testsupport.MockChatProvider{}, testDefaults)

	assert.Equal(t, "test-model", adapter.Name())
	assert.Equal(t, testsupport.TestModel, adapter.Info())
}
