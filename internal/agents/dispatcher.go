package agents

import (
	"strings"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/session"

	"tradeanalysis/internal/workflow"
	"tradeanalysis/pkg/errors"
	"tradeanalysis/pkg/logger"
)

// QueryStateKey is the session state key the dispatcher records the query
// under.
const QueryStateKey = "analysis:query"

// Dispatcher is the entry agent. It accepts the query the specialists will
// all receive unchanged as the run's user message.
type Dispatcher struct {
	targets  int
	reporter Reporter
	log      *logger.Logger
}

func (d *Dispatcher) ID() workflow.NodeID { return NodeDispatcher }

// Dispatch validates query and returns it unchanged.
func (d *Dispatcher) Dispatch(query Query) (Query, error) {
	if strings.TrimSpace(string(query)) == "" {
		return "", errors.Wrap(errors.ErrInvalidInput, "query is empty")
	}

	d.log.Debugw("Dispatching query", "query", query, "targets", d.targets)
	d.reporter.QueryDispatched(query, d.targets)
	return query, nil
}

// Agent wraps the dispatcher into an ADK agent.
func (d *Dispatcher) Agent() (agent.Agent, error) {
	return workflow.NewAgent(d.ID(), "Validates the query and fans it out to the specialists",
		func(ctx agent.InvocationContext, emit func(*session.Event) bool) error {
			query, err := d.Dispatch(Query(workflow.ContentText(ctx.UserContent())))
			if err != nil {
				return err
			}

			ev := workflow.NewEvent(ctx)
			ev.Actions.StateDelta[QueryStateKey] = string(query)
			emit(ev)
			return nil
		})
}
