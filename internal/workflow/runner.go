package workflow

import (
	"context"
	"fmt"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"tradeanalysis/pkg/errors"
	"tradeanalysis/pkg/logger"
)

const (
	eventBuffer = 64
	runUserID   = "tradeanalysis"
)

// Runner executes an agent tree through the ADK runner. Every call to Stream
// starts a new in-memory session, so one Runner can serve many runs as long
// as its agents keep no state between them.
type Runner struct {
	appName  string
	root     agent.Agent
	sessions session.Service
	runner   *runner.Runner
	log      *logger.Logger
}

// NewRunner creates a runner for the agent tree rooted at root.
func NewRunner(appName string, root agent.Agent) (*Runner, error) {
	if root == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "root agent is required")
	}

	sessions := session.InMemoryService()
	adkRunner, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          root,
		SessionService: sessions,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create ADK runner")
	}

	return &Runner{
		appName:  appName,
		root:     root,
		sessions: sessions,
		runner:   adkRunner,
		log:      logger.Get().With("component", "workflow", "app", appName),
	}, nil
}

// Stream starts a run with input as the user message and returns its event
// stream. The channel is closed after the final StatusEvent; callers must
// drain it.
//
// The first agent failure stops the run and cancels the agents still
// working. A failed run always ends with RunFailedEvent followed by
// StatusEvent{StateFailed}.
func (r *Runner) Stream(ctx context.Context, input string) <-chan Event {
	events := make(chan Event, eventBuffer)
	go r.run(ctx, input, events)
	return events
}

// Run drives the agent tree to completion and returns the published outputs
// in emission order.
func (r *Runner) Run(ctx context.Context, input string) ([]OutputEvent, error) {
	var (
		outputs []OutputEvent
		runErr  error
	)
	for ev := range r.Stream(ctx, input) {
		switch e := ev.(type) {
		case OutputEvent:
			outputs = append(outputs, e)
		case RunFailedEvent:
			runErr = e.Err
		}
	}
	return outputs, runErr
}

func (r *Runner) run(parent context.Context, input string, events chan<- Event) {
	defer close(events)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	ctx, rec := withFailures(ctx)

	events <- StatusEvent{State: StateInProgress}

	runErr := r.execute(ctx, input, rec, events)
	if runErr == nil && parent.Err() != nil {
		runErr = errors.Wrap(context.Cause(parent), "run cancelled")
	}

	if runErr != nil {
		events <- RunFailedEvent{Err: fmt.Errorf("%w: %w", errors.ErrRunFailed, runErr)}
		events <- StatusEvent{State: StateFailed}
		return
	}
	events <- StatusEvent{State: StateIdle}
}

// execute consumes the ADK event stream. It returns on the first error, which
// stops the agent tree.
func (r *Runner) execute(ctx context.Context, input string, rec *failures, events chan<- Event) error {
	created, err := r.sessions.Create(ctx, &session.CreateRequest{
		AppName: r.appName,
		UserID:  runUserID,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create session")
	}
	sessionID := created.Session.ID()
	log := r.log.With("session_id", sessionID)

	msg := genai.NewContentFromText(input, genai.RoleUser)
	runConfig := agent.RunConfig{StreamingMode: agent.StreamingModeNone}

	for ev, err := range r.runner.Run(ctx, runUserID, sessionID, msg, runConfig) {
		if err != nil {
			if ctx.Err() != nil {
				log.Debugw("Run stopped by cancellation", "error", err)
				return errors.Wrap(context.Cause(ctx), "run cancelled")
			}
			return r.fail(err, rec, events)
		}
		if ev == nil || ev.Partial {
			continue
		}

		log.Debugw("Agent event", "author", ev.Author, "branch", ev.Branch)

		if out, ok := ev.Actions.StateDelta[OutputKey]; ok {
			events <- OutputEvent{Source: NodeID(ev.Author), Data: out}
		}
	}
	return nil
}

// fail reports the first agent failure of the run and returns it as the root
// cause. Errors raised outside our agents are attributed to the root.
func (r *Runner) fail(err error, rec *failures, events chan<- Event) error {
	nodeErr := rec.get()
	if nodeErr == nil && !errors.As(err, &nodeErr) {
		nodeErr = &errors.NodeError{NodeID: r.root.Name(), Err: err}
	}

	r.log.Errorw("Agent failed", "node", nodeErr.NodeID, "error", nodeErr.Err)
	events <- NodeFailedEvent{Node: NodeID(nodeErr.NodeID), Err: nodeErr.Err}
	return nodeErr
}
