package agents

import (
	"sync"

	"github.com/shopspring/decimal"

	"tradeanalysis/internal/adapters/ai"
)

var thousand = decimal.NewFromInt(1_000)

// CostTracker tracks AI model usage costs across the calls of one run.
type CostTracker struct {
	mu    sync.RWMutex
	costs map[string]*ModelCost // model ID -> cost data
}

// ModelCost tracks cost for a specific model
type ModelCost struct {
	ModelID      string
	InputTokens  int64
	OutputTokens int64
	TotalCostUSD decimal.Decimal
	CallCount    int64
}

// NewCostTracker creates a new cost tracker
func NewCostTracker() *CostTracker {
	return &CostTracker{
		costs: make(map[string]*ModelCost),
	}
}

// RecordUsage records token usage for a model and returns the cost of the call
func (ct *CostTracker) RecordUsage(model ai.ModelInfo, inputTokens, outputTokens int) decimal.Decimal {
	cost := CalculateCost(model, inputTokens, outputTokens)

	ct.mu.Lock()
	defer ct.mu.Unlock()

	mc, exists := ct.costs[model.Name]
	if !exists {
		mc = &ModelCost{ModelID: model.Name}
		ct.costs[model.Name] = mc
	}

	mc.InputTokens += int64(inputTokens)
	mc.OutputTokens += int64(outputTokens)
	mc.TotalCostUSD = mc.TotalCostUSD.Add(cost)
	mc.CallCount++

	return cost
}

// TotalCost returns the total cost across all models
func (ct *CostTracker) TotalCost() decimal.Decimal {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	total := decimal.Zero
	for _, cost := range ct.costs {
		total = total.Add(cost.TotalCostUSD)
	}

	return total
}

// TotalUsage returns token and call totals across all models
func (ct *CostTracker) TotalUsage() (inputTokens, outputTokens, calls int64) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	for _, cost := range ct.costs {
		inputTokens += cost.InputTokens
		outputTokens += cost.OutputTokens
		calls += cost.CallCount
	}

	return inputTokens, outputTokens, calls
}

// CalculateCost calculates the cost for a given token usage
func CalculateCost(model ai.ModelInfo, inputTokens, outputTokens int) decimal.Decimal {
	inputCost := decimal.NewFromInt(int64(inputTokens)).Div(thousand).Mul(model.InputCostPer1K)
	outputCost := decimal.NewFromInt(int64(outputTokens)).Div(thousand).Mul(model.OutputCostPer1K)
	return inputCost.Add(outputCost)
}
