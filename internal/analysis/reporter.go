package analysis

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradeanalysis/internal/agents"
	"tradeanalysis/internal/workflow"
)

// RunInfo describes a run that is about to start.
type RunInfo struct {
	ID    uuid.UUID
	Query agents.Query
	Model string
}

// RunSummary is the accounting of a finished run.
type RunSummary struct {
	ID           uuid.UUID
	Duration     time.Duration
	Calls        int64
	InputTokens  int64
	OutputTokens int64
	CostUSD      decimal.Decimal
	Err          error
}

// RunReporter receives the progress of an analysis run.
type RunReporter interface {
	agents.Reporter

	RunStarted(info RunInfo)
	StatusChanged(state workflow.RunState)
	NodeFailed(node workflow.NodeID, err error)
	RecommendationReady(text string)
	RunFinished(summary RunSummary)
}

type nopRunReporter struct {
	agents.NopReporter
}

func (nopRunReporter) RunStarted(RunInfo)                {}
func (nopRunReporter) StatusChanged(workflow.RunState)   {}
func (nopRunReporter) NodeFailed(workflow.NodeID, error) {}
func (nopRunReporter) RecommendationReady(string)        {}
func (nopRunReporter) RunFinished(RunSummary)            {}
