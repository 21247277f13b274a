package agents

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/workflowagents/sequentialagent"
	"google.golang.org/adk/session"

	"tradeanalysis/internal/adapters/ai"
	"tradeanalysis/internal/testsupport"
	"tradeanalysis/internal/workflow"
)

type recordingReporter struct {
	mu         sync.Mutex
	dispatched []Query
	completed  []AnalysisResult
	received   []AgentName
}

func (r *recordingReporter) QueryDispatched(query Query, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatched = append(r.dispatched, query)
}

func (r *recordingReporter) AnalysisCompleted(result AnalysisResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, result)
}

func (r *recordingReporter) AnalysisReceived(source AgentName, _, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = append(r.received, source)
}

func newTestFactory(t *testing.T, provider ai.ChatProvider, reporter Reporter) *Factory {
	t.Helper()

	f, err := NewFactory(FactoryDeps{
		Provider: provider,
		Reporter: reporter,
		Settings: Settings{Temperature: 0.7, MaxTokens: 1024},
	})
	require.NoError(t, err)
	return f
}

func captureChat(provider *testsupport.MockChatProvider, resp *ai.ChatResponse, err error) *[]ai.ChatRequest {
	var requests []ai.ChatRequest
	provider.On("Chat", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			requests = append(requests, args.Get(1).(ai.ChatRequest))
		}).
		Return(resp, err)
	return &requests
}

func result(source AgentName, text string) AnalysisResult {
	return AnalysisResult{Source: source, Query: "AAPL", Text: text}
}

// emitter is an agent that publishes a fixed specialist result.
func emitter(t *testing.T, id string, r AnalysisResult) agent.Agent {
	t.Helper()

	a, err := workflow.NewAgent(workflow.NodeID(id), "", func(ctx agent.InvocationContext, emit func(*session.Event) bool) error {
		emit(resultEvent(ctx, r))
		return nil
	})
	require.NoError(t, err)
	return a
}

// runSequence runs agents one after another in a fresh session.
func runSequence(t *testing.T, query string, agents ...agent.Agent) ([]workflow.OutputEvent, error) {
	t.Helper()

	root, err := sequentialagent.New(sequentialagent.Config{AgentConfig: agent.Config{
		Name:      "test_sequence",
		SubAgents: agents,
	}})
	require.NoError(t, err)

	runner, err := workflow.NewRunner("agents_test", root)
	require.NoError(t, err)
	return runner.Run(context.Background(), query)
}

// permutations returns every ordering of names.
func permutations(names []AgentName) [][]AgentName {
	if len(names) <= 1 {
		return [][]AgentName{append([]AgentName(nil), names...)}
	}

	var out [][]AgentName
	for i, head := range names {
		rest := make([]AgentName, 0, len(names)-1)
		rest = append(rest, names[:i]...)
		rest = append(rest, names[i+1:]...)
		for _, tail := range permutations(rest) {
			out = append(out, append([]AgentName{head}, tail...))
		}
	}
	return out
}
