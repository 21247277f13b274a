package workflow

// NodeID names an agent of the pipeline. It is the ADK agent name and the
// author of the session events the agent produces.
type NodeID string

// Event is one entry of a run's event stream. The concrete types are
// StatusEvent, OutputEvent, NodeFailedEvent and RunFailedEvent.
type Event interface {
	isEvent()
}

// RunState is the lifecycle state reported by StatusEvent.
type RunState int

const (
	StateInProgress RunState = iota
	StateIdle
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateInProgress:
		return "in_progress"
	case StateIdle:
		return "idle"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StatusEvent reports a run lifecycle transition.
type StatusEvent struct {
	State RunState
}

// OutputEvent carries a value published by an agent under OutputKey.
type OutputEvent struct {
	Source NodeID
	Data   any
}

// NodeFailedEvent reports the error or panic that stopped the run.
type NodeFailedEvent struct {
	Node NodeID
	Err  error
}

// RunFailedEvent is emitted once when the run terminates with a failure.
type RunFailedEvent struct {
	Err error
}

func (StatusEvent) isEvent()     {}
func (OutputEvent) isEvent()     {}
func (NodeFailedEvent) isEvent() {}
func (RunFailedEvent) isEvent()  {}
