package agents

import (
	"context"
	"strings"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/session"

	"tradeanalysis/internal/adapters/ai"
	"tradeanalysis/internal/workflow"
	"tradeanalysis/pkg/errors"
	"tradeanalysis/pkg/logger"
)

// OrchestratorState is the fan-in collector's lifecycle state.
type OrchestratorState int

const (
	// StateCollecting accepts results until every required agent has reported.
	StateCollecting OrchestratorState = iota
	// StateSynthesized is terminal: the recommendation has been requested.
	StateSynthesized
)

func (s OrchestratorState) String() string {
	if s == StateSynthesized {
		return "synthesized"
	}
	return "collecting"
}

// Orchestrator collects specialist results and synthesizes the final
// recommendation once all required perspectives are present.
//
// It is not safe for concurrent use. Its agent runs once per run, after every
// specialist has finished.
type Orchestrator struct {
	caller   *llmCaller
	prompts  *Prompts
	reporter Reporter
	state    OrchestratorState
	query    Query
	results  map[AgentName]AnalysisResult
	log      *logger.Logger
}

func (o *Orchestrator) ID() workflow.NodeID { return NodeOrchestrator }

// Agent wraps the orchestrator into an ADK agent. It runs after the
// specialists, replays their result events from the session in arrival order
// and publishes the recommendation as the run output.
func (o *Orchestrator) Agent() (agent.Agent, error) {
	return workflow.NewAgent(o.ID(), "Synthesizes the specialist analyses into one recommendation",
		func(ctx agent.InvocationContext, emit func(*session.Event) bool) error {
			var (
				recommendation string
				done           bool
			)
			for ev := range ctx.Session().Events().All() {
				results, err := resultsIn(ev)
				if err != nil {
					return err
				}
				for _, result := range results {
					text, ok, err := o.Receive(ctx, result)
					if err != nil {
						return err
					}
					if ok {
						recommendation, done = text, true
					}
				}
			}

			if !done {
				o.log.Warnw("Required analyses missing, nothing to synthesize",
					"collected", o.collectedRequired(), "required", len(RequiredAgents))
				return nil
			}

			emit(workflow.NewOutput(ctx, recommendation))
			return nil
		})
}

// Receive collects result and synthesizes the recommendation when result
// completes the required set. done reports whether text holds it.
func (o *Orchestrator) Receive(ctx context.Context, result AnalysisResult) (text string, done bool, err error) {
	if !o.Collect(result) {
		return "", false, nil
	}

	text, err = o.Synthesize(ctx)
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// Collect stores result and reports whether it completed the required set.
// A later result from the same source replaces the earlier one. Results that
// arrive after synthesis are dropped.
func (o *Orchestrator) Collect(result AnalysisResult) bool {
	if o.state == StateSynthesized {
		o.log.Warnw("Result arrived after synthesis, dropping", "source", result.Source)
		return false
	}

	if _, dup := o.results[result.Source]; dup {
		o.log.Warnw("Duplicate result, replacing previous", "source", result.Source)
	}
	o.results[result.Source] = result
	o.query = result.Query

	collected := o.collectedRequired()
	o.reporter.AnalysisReceived(result.Source, collected, len(RequiredAgents))
	o.log.Infow("Received analysis", "source", result.Source, "collected", collected, "required", len(RequiredAgents))

	return collected == len(RequiredAgents)
}

// Synthesize issues the one synthesis request. It moves the orchestrator to
// StateSynthesized before calling the model, so it can run at most once.
func (o *Orchestrator) Synthesize(ctx context.Context) (string, error) {
	if o.state == StateSynthesized {
		return "", errors.Wrap(errors.ErrInternal, "recommendation already synthesized")
	}
	if o.collectedRequired() != len(RequiredAgents) {
		return "", errors.Wrap(errors.ErrInvalidInput, "not all required analyses collected")
	}
	o.state = StateSynthesized

	var usage ai.Usage
	for _, result := range o.results {
		usage = usage.Add(result.Usage)
	}
	o.log.Infow("Synthesizing recommendation",
		"analyses", len(o.results),
		"analysis_prompt_tokens", usage.PromptTokens,
		"analysis_completion_tokens", usage.CompletionTokens,
	)

	messages, err := o.prompts.Synthesis(o.query, o.results)
	if err != nil {
		return "", err
	}

	c, err := o.caller.complete(ctx, messages)
	if err != nil {
		return "", err
	}
	if !c.ok {
		return NoRecommendationText, nil
	}
	return c.text, nil
}

func (o *Orchestrator) collectedRequired() int {
	n := 0
	for _, name := range RequiredAgents {
		if _, ok := o.results[name]; ok {
			n++
		}
	}
	return n
}

const resultKeyPrefix = "analysis:result:"

func resultKey(name AgentName) string { return resultKeyPrefix + string(name) }

// resultsIn returns the specialist results carried by ev's state delta.
func resultsIn(ev *session.Event) ([]AnalysisResult, error) {
	if ev == nil {
		return nil, nil
	}

	var results []AnalysisResult
	for key, value := range ev.Actions.StateDelta {
		if !strings.HasPrefix(key, resultKeyPrefix) {
			continue
		}
		result, ok := value.(AnalysisResult)
		if !ok {
			return nil, errors.Wrapf(errors.ErrUnexpectedMessage, "%s holds %T", key, value)
		}
		results = append(results, result)
	}
	return results, nil
}
