package agents

import (
	"time"

	"tradeanalysis/internal/adapters/ai"
	"tradeanalysis/internal/workflow"
)

// AgentName identifies a specialist perspective.
type AgentName string

const (
	AgentMarket       AgentName = "market"
	AgentFundamentals AgentName = "fundamentals"
	AgentNews         AgentName = "news"
	AgentSentiment    AgentName = "sentiment"
)

// RequiredAgents lists the perspectives the orchestrator waits for, in the
// order their sections appear in the synthesis prompt.
var RequiredAgents = []AgentName{
	AgentMarket,
	AgentFundamentals,
	AgentNews,
	AgentSentiment,
}

// NodeID returns the workflow node id of the agent's specialist.
func (a AgentName) NodeID() workflow.NodeID {
	return workflow.NodeID(string(a) + "_agent")
}

// Fixed node ids of the non-specialist agents.
const (
	NodeDispatcher   workflow.NodeID = "dispatcher"
	NodeOrchestrator workflow.NodeID = "orchestrator"
)

// Placeholder texts used when the model returns no content.
const (
	NoAnalysisText       = "No analysis available"
	NoRecommendationText = "Unable to generate recommendation"
)

// Query is the user's free-form subject of analysis, e.g. a ticker or a
// company name. It is forwarded to every specialist unchanged.
type Query string

// AnalysisResult is the output of one specialist.
type AnalysisResult struct {
	Source   AgentName
	Query    Query
	Text     string
	Usage    ai.Usage
	Duration time.Duration
}

// Settings holds generation parameters applied to every request.
type Settings struct {
	Temperature float64
	MaxTokens   int
}
