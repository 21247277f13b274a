package workflow

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"tradeanalysis/pkg/errors"
)

// OutputKey is the state delta key under which an agent publishes a run
// output. The runner turns every such event into an OutputEvent.
const OutputKey = "workflow:output"

// Step is the body of a custom agent. Events go out through emit, which
// returns false once the consumer has stopped the run.
type Step func(ctx agent.InvocationContext, emit func(*session.Event) bool) error

// NewAgent builds an ADK agent around step. Errors and panics raised by step
// come out of the agent as *errors.NodeError carrying id.
func NewAgent(id NodeID, description string, step Step) (agent.Agent, error) {
	return agent.New(agent.Config{
		Name:        string(id),
		Description: description,
		Run: func(ctx agent.InvocationContext) iter.Seq2[*session.Event, error] {
			return func(yield func(*session.Event, error) bool) {
				stopped := false
				emit := func(ev *session.Event) bool {
					if stopped {
						return false
					}
					stopped = !yield(ev, nil)
					return !stopped
				}

				err := runStep(ctx, id, step, emit)
				if err == nil {
					return
				}
				if rec := failuresFrom(ctx); rec != nil {
					rec.record(err)
				}
				if !stopped {
					yield(nil, err)
				}
			}
		},
	})
}

func runStep(ctx agent.InvocationContext, id NodeID, step Step, emit func(*session.Event) bool) (err *errors.NodeError) {
	defer func() {
		if r := recover(); r != nil {
			err = &errors.NodeError{NodeID: string(id), Err: errors.Newf("panic: %v", r)}
		}
	}()

	if stepErr := step(ctx, emit); stepErr != nil {
		return &errors.NodeError{NodeID: string(id), Err: stepErr}
	}
	return nil
}

// failures keeps the first agent failure of a run. Parallel branches may fail
// concurrently and the error that reaches the runner first is not
// necessarily the earliest one.
type failures struct {
	mu    sync.Mutex
	first *errors.NodeError
}

type failuresKey struct{}

func withFailures(ctx context.Context) (context.Context, *failures) {
	rec := &failures{}
	return context.WithValue(ctx, failuresKey{}, rec), rec
}

func failuresFrom(ctx context.Context) *failures {
	rec, _ := ctx.Value(failuresKey{}).(*failures)
	return rec
}

func (f *failures) record(err *errors.NodeError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.first == nil {
		f.first = err
	}
}

func (f *failures) get() *errors.NodeError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.first
}

// NewEvent creates an empty event authored by the agent running ctx.
func NewEvent(ctx agent.InvocationContext) *session.Event {
	return &session.Event{
		ID:           uuid.NewString(),
		Timestamp:    time.Now(),
		InvocationID: ctx.InvocationID(),
		Branch:       ctx.Branch(),
		Author:       ctx.Agent().Name(),
		Actions:      session.EventActions{StateDelta: map[string]any{}},
	}
}

// NewOutput creates the final event of an agent that publishes text as a run
// output.
func NewOutput(ctx agent.InvocationContext, text string) *session.Event {
	ev := NewEvent(ctx)
	ev.Content = genai.NewContentFromText(text, genai.RoleModel)
	ev.TurnComplete = true
	ev.Actions.StateDelta[OutputKey] = text
	return ev
}

// ContentText joins the text parts of content.
func ContentText(content *genai.Content) string {
	if content == nil {
		return ""
	}

	text := ""
	for _, part := range content.Parts {
		if part != nil {
			text += part.Text
		}
	}
	return text
}
