package agents

import (
	"tradeanalysis/internal/adapters/adk"
	"tradeanalysis/internal/adapters/ai"
	"tradeanalysis/pkg/errors"
	"tradeanalysis/pkg/logger"
	"tradeanalysis/pkg/templates"
)

// FactoryDeps gathers external dependencies needed to instantiate agents.
type FactoryDeps struct {
	Provider  ai.ChatProvider
	Templates *templates.Registry
	Costs     *CostTracker
	Reporter  Reporter
	Settings  Settings
}

// Factory creates the agents of an analysis workflow. All of them call the
// model through one ADK model adapter.
type Factory struct {
	llm      Model
	prompts  *Prompts
	costs    *CostTracker
	reporter Reporter
}

// NewFactory builds an agent factory with required dependencies.
func NewFactory(deps FactoryDeps) (*Factory, error) {
	if deps.Provider == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "chat provider is required")
	}

	if deps.Templates == nil {
		deps.Templates = templates.Get()
	}
	if deps.Costs == nil {
		deps.Costs = NewCostTracker()
	}
	if deps.Reporter == nil {
		deps.Reporter = NopReporter{}
	}

	prompts, err := NewPrompts(deps.Templates)
	if err != nil {
		return nil, err
	}

	return &Factory{
		llm: adk.NewModelAdapter(deps.Provider, adk.GenerationDefaults{
			Temperature: deps.Settings.Temperature,
			MaxTokens:   deps.Settings.MaxTokens,
		}),
		prompts:  prompts,
		costs:    deps.Costs,
		reporter: deps.Reporter,
	}, nil
}

// Dispatcher creates the entry agent.
func (f *Factory) Dispatcher() *Dispatcher {
	return &Dispatcher{
		targets:  len(RequiredAgents),
		reporter: f.reporter,
		log:      logger.Get().With("component", "dispatcher"),
	}
}

// Specialist creates the agent for one perspective.
func (f *Factory) Specialist(name AgentName) *Specialist {
	return &Specialist{
		name:     name,
		caller:   f.caller(string(name)),
		prompts:  f.prompts,
		reporter: f.reporter,
		log:      logger.Get().With("component", "specialist", "agent", name),
	}
}

// Specialists creates one agent per required perspective.
func (f *Factory) Specialists() []*Specialist {
	out := make([]*Specialist, 0, len(RequiredAgents))
	for _, name := range RequiredAgents {
		out = append(out, f.Specialist(name))
	}
	return out
}

// Orchestrator creates a fresh fan-in collector. Orchestrators hold per-run
// state and must not be shared between runs.
func (f *Factory) Orchestrator() *Orchestrator {
	return &Orchestrator{
		caller:   f.caller(string(NodeOrchestrator)),
		prompts:  f.prompts,
		reporter: f.reporter,
		state:    StateCollecting,
		results:  make(map[AgentName]AnalysisResult, len(RequiredAgents)),
		log:      logger.Get().With("component", "orchestrator"),
	}
}

func (f *Factory) caller(agent string) *llmCaller {
	return &llmCaller{
		agent: agent,
		llm:   f.llm,
		costs: f.costs,
		log:   logger.Get().With("component", "llm", "agent", agent),
	}
}
