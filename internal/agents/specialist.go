package agents

import (
	"context"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"tradeanalysis/internal/workflow"
	"tradeanalysis/pkg/logger"
)

// Specialist analyzes the query from a single perspective with one LLM call.
type Specialist struct {
	name     AgentName
	caller   *llmCaller
	prompts  *Prompts
	reporter Reporter
	log      *logger.Logger
}

// Name returns the perspective this specialist covers.
func (s *Specialist) Name() AgentName { return s.name }

func (s *Specialist) ID() workflow.NodeID { return s.name.NodeID() }

// Agent wraps the specialist into an ADK agent. The agent reads the query
// from the run's user message and publishes its result as a session event.
func (s *Specialist) Agent() (agent.Agent, error) {
	return workflow.NewAgent(s.ID(), "Analyzes the query from the "+string(s.name)+" perspective",
		func(ctx agent.InvocationContext, emit func(*session.Event) bool) error {
			result, err := s.Analyze(ctx, Query(workflow.ContentText(ctx.UserContent())))
			if err != nil {
				return err
			}

			emit(resultEvent(ctx, result))
			return nil
		})
}

// Analyze runs the specialist outside a workflow.
func (s *Specialist) Analyze(ctx context.Context, query Query) (AnalysisResult, error) {
	messages, err := s.prompts.Specialist(s.name, query)
	if err != nil {
		return AnalysisResult{}, err
	}

	c, err := s.caller.complete(ctx, messages)
	if err != nil {
		return AnalysisResult{}, err
	}

	text := c.text
	if !c.ok {
		text = NoAnalysisText
	}

	result := AnalysisResult{
		Source:   s.name,
		Query:    query,
		Text:     text,
		Usage:    c.usage,
		Duration: c.duration,
	}

	s.log.Infow("Analysis completed", "duration", c.duration, "chars", len(text))
	s.reporter.AnalysisCompleted(result)

	return result, nil
}

func resultEvent(ctx agent.InvocationContext, result AnalysisResult) *session.Event {
	ev := workflow.NewEvent(ctx)
	ev.Content = genai.NewContentFromText(result.Text, genai.RoleModel)
	ev.TurnComplete = true
	ev.Actions.StateDelta[resultKey(result.Source)] = result
	return ev
}
