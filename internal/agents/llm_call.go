package agents

import (
	"context"
	"time"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"tradeanalysis/internal/adapters/ai"
	"tradeanalysis/internal/metrics"
	"tradeanalysis/internal/workflow"
	"tradeanalysis/pkg/errors"
	"tradeanalysis/pkg/logger"
)

// Model is an ADK model that also reports the pricing of the deployment
// behind it.
type Model interface {
	model.LLM
	Info() ai.ModelInfo
}

// llmCaller performs one model call on behalf of an agent and accounts for
// it.
type llmCaller struct {
	agent string
	llm   Model
	costs *CostTracker
	log   *logger.Logger
}

type completion struct {
	text     string
	ok       bool
	usage    ai.Usage
	duration time.Duration
}

func (c *llmCaller) complete(ctx context.Context, messages []ai.Message) (completion, error) {
	info := c.llm.Info()

	start := time.Now()
	resp, err := c.generate(ctx, c.request(messages))
	duration := time.Since(start)

	if err != nil {
		metrics.RecordAgentCall(c.agent, info.Name, duration, 0, 0, 0, err)
		return completion{}, errors.Wrapf(err, "%s chat completion", c.agent)
	}

	usage := usageOf(resp)
	cost := c.costs.RecordUsage(info, usage.PromptTokens, usage.CompletionTokens)
	metrics.RecordAgentCall(c.agent, info.Name, duration, usage.PromptTokens, usage.CompletionTokens, cost.InexactFloat64(), nil)

	text := ""
	if resp != nil {
		text = workflow.ContentText(resp.Content)
	}
	ok := text != ""
	if !ok {
		metrics.RecordEmptyResponse(c.agent, info.Name)
		c.log.Warnw("Model returned no content", "model", info.Name)
	}

	c.log.Debugw("Chat completion finished",
		"model", info.Name,
		"duration", duration,
		"prompt_tokens", usage.PromptTokens,
		"completion_tokens", usage.CompletionTokens,
		"cost_usd", cost.StringFixed(6),
	)

	return completion{text: text, ok: ok, usage: usage, duration: duration}, nil
}

// generate returns the last complete response of a non-streaming call.
func (c *llmCaller) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	var last *model.LLMResponse
	for resp, err := range c.llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return nil, err
		}
		if resp != nil && !resp.Partial {
			last = resp
		}
	}
	return last, nil
}

// request maps a conversation onto an ADK request: system messages become the
// system instruction, the rest become contents. Generation parameters come
// from the model's defaults.
func (c *llmCaller) request(messages []ai.Message) *model.LLMRequest {
	req := &model.LLMRequest{
		Model:  c.llm.Name(),
		Config: &genai.GenerateContentConfig{},
	}

	for _, msg := range messages {
		switch msg.Role {
		case ai.RoleSystem:
			req.Config.SystemInstruction = genai.NewContentFromText(msg.Content, genai.RoleUser)
		case ai.RoleAssistant:
			req.Contents = append(req.Contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			req.Contents = append(req.Contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	return req
}

func usageOf(resp *model.LLMResponse) ai.Usage {
	if resp == nil || resp.UsageMetadata == nil {
		return ai.Usage{}
	}
	return ai.Usage{
		PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
		CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
	}
}
