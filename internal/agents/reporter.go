package agents

// Reporter receives progress notifications from agent executors.
// Implementations must be safe for concurrent use: specialists report from
// their own goroutines.
type Reporter interface {
	// QueryDispatched is called by the dispatcher before fanning out.
	QueryDispatched(query Query, targets int)

	// AnalysisCompleted is called by a specialist once its analysis is ready.
	AnalysisCompleted(result AnalysisResult)

	// AnalysisReceived is called by the orchestrator for every collected result.
	AnalysisReceived(source AgentName, collected, required int)
}

// NopReporter discards all notifications.
type NopReporter struct{}

func (NopReporter) QueryDispatched(Query, int)           {}
func (NopReporter) AnalysisCompleted(AnalysisResult)     {}
func (NopReporter) AnalysisReceived(AgentName, int, int) {}
