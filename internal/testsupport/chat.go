package testsupport

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"tradeanalysis/internal/adapters/ai"
)

// TestModel is the model metadata reported by the test providers.
var TestModel = ai.ModelInfo{
	Provider:        ai.ProviderNameAzureOpenAI,
	Name:            "test-model",
	InputCostPer1K:  decimal.RequireFromString("0.0025"),
	OutputCostPer1K: decimal.RequireFromString("0.01"),
}

// TextResponse builds a single-choice response carrying text.
func TextResponse(text string) *ai.ChatResponse {
	return &ai.ChatResponse{
		ID:    "chatcmpl-test",
		Model: TestModel.Name,
		Choices: []ai.Choice{{
			Message:      ai.Message{Role: ai.RoleAssistant, Content: text},
			FinishReason: ai.FinishReasonStop,
		}},
		Usage: ai.Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	}
}

// MockChatProvider is a testify mock of ai.ChatProvider.
type MockChatProvider struct {
	mock.Mock
}

func (m *MockChatProvider) Name() string        { return "mock" }
func (m *MockChatProvider) Model() ai.ModelInfo { return TestModel }

func (m *MockChatProvider) Chat(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*ai.ChatResponse)
	return resp, args.Error(1)
}

// ScriptedReply is what ScriptedChatProvider returns for a matching request.
type ScriptedReply struct {
	Response *ai.ChatResponse
	Err      error
}

// ScriptedChatProvider answers by matching a substring of the system prompt.
// It records every request and is safe for concurrent use.
type ScriptedChatProvider struct {
	mu       sync.Mutex
	rules    []scriptRule
	requests []ai.ChatRequest
}

type scriptRule struct {
	match string
	reply ScriptedReply
}

// NewScriptedChatProvider creates an empty script.
func NewScriptedChatProvider() *ScriptedChatProvider {
	return &ScriptedChatProvider{}
}

// On registers a reply for requests whose system prompt contains match.
// Rules are evaluated in registration order.
func (p *ScriptedChatProvider) On(match string, reply ScriptedReply) *ScriptedChatProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules = append(p.rules, scriptRule{match: match, reply: reply})
	return p
}

// Reply is shorthand for On with a text response.
func (p *ScriptedChatProvider) Reply(match, text string) *ScriptedChatProvider {
	return p.On(match, ScriptedReply{Response: TextResponse(text)})
}

func (p *ScriptedChatProvider) Name() string        { return "scripted" }
func (p *ScriptedChatProvider) Model() ai.ModelInfo { return TestModel }

func (p *ScriptedChatProvider) Chat(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	rules := append([]scriptRule(nil), p.rules...)
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	system := ""
	if len(req.Messages) > 0 && req.Messages[0].Role == ai.RoleSystem {
		system = req.Messages[0].Content
	}
	for _, rule := range rules {
		if strings.Contains(system, rule.match) {
			return rule.reply.Response, rule.reply.Err
		}
	}
	return TextResponse(""), nil
}

// Requests returns a copy of every request received so far.
func (p *ScriptedChatProvider) Requests() []ai.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ai.ChatRequest(nil), p.requests...)
}

// Calls returns the number of requests received so far.
func (p *ScriptedChatProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}
