// Package analysis drives the investment analysis workflow: a dispatcher fans
// the query out to four specialists whose results are synthesized by an
// orchestrator into one recommendation.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/workflowagents/parallelagent"
	"google.golang.org/adk/agent/workflowagents/sequentialagent"

	"tradeanalysis/internal/adapters/ai"
	"tradeanalysis/internal/agents"
	"tradeanalysis/internal/metrics"
	"tradeanalysis/internal/workflow"
	"tradeanalysis/pkg/errors"
	"tradeanalysis/pkg/logger"
	"tradeanalysis/pkg/templates"
)

// NoRecommendationText is returned when a run finishes without output.
const NoRecommendationText = "No recommendation generated"

// AppName is the ADK application name of analysis runs.
const AppName = "tradeanalysis"

const (
	pipelineAgentName    = "analysis_pipeline"
	specialistsAgentName = "specialists"
)

// ServiceDeps gathers the collaborators of a Service.
type ServiceDeps struct {
	Provider  ai.ChatProvider
	Templates *templates.Registry
	Settings  agents.Settings
	Reporter  RunReporter
	Tracker   errors.Tracker
}

// Service runs analyses against one chat provider.
type Service struct {
	provider  ai.ChatProvider
	templates *templates.Registry
	settings  agents.Settings
	reporter  RunReporter
	tracker   errors.Tracker
	log       *logger.Logger
}

// NewService validates deps and creates a Service.
func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Provider == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "chat provider is required")
	}
	if deps.Templates == nil {
		deps.Templates = templates.Get()
	}
	if deps.Reporter == nil {
		deps.Reporter = nopRunReporter{}
	}

	return &Service{
		provider:  deps.Provider,
		templates: deps.Templates,
		settings:  deps.Settings,
		reporter:  deps.Reporter,
		tracker:   deps.Tracker,
		log:       logger.Get().With("component", "analysis"),
	}, nil
}

// Run analyzes query and returns the synthesized recommendation.
// Every call builds a fresh pipeline, so a Service can serve concurrent runs.
func (s *Service) Run(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", errors.Wrap(errors.ErrInvalidInput, "query is empty")
	}

	runID := uuid.New()
	log := s.log.With("run_id", runID.String())
	model := s.provider.Model().Name
	start := time.Now()

	costs := agents.NewCostTracker()
	factory, err := agents.NewFactory(agents.FactoryDeps{
		Provider:  s.provider,
		Templates: s.templates,
		Costs:     costs,
		Reporter:  s.reporter,
		Settings:  s.settings,
	})
	if err != nil {
		return "", errors.Wrap(err, "create agents")
	}

	pipeline, err := BuildPipeline(factory)
	if err != nil {
		return "", err
	}
	runner, err := workflow.NewRunner(AppName, pipeline)
	if err != nil {
		return "", err
	}

	s.reporter.RunStarted(RunInfo{ID: runID, Query: agents.Query(query), Model: model})
	s.breadcrumb(ctx, "analysis started", map[string]interface{}{"run_id": runID.String(), "query": query})
	log.Infow("Starting analysis", "query", query, "model", model)

	text, runErr := s.drive(ctx, log, runner, query)

	duration := time.Since(start)
	metrics.RecordWorkflowRun(duration, runErr)

	in, out, calls := costs.TotalUsage()
	summary := RunSummary{
		ID:           runID,
		Duration:     duration,
		Calls:        calls,
		InputTokens:  in,
		OutputTokens: out,
		CostUSD:      costs.TotalCost(),
		Err:          runErr,
	}
	s.reporter.RunFinished(summary)

	if runErr != nil {
		log.Errorw("Analysis failed", "duration", duration, "error", runErr)
		if s.tracker != nil {
			_ = s.tracker.CaptureError(ctx, runErr, map[string]string{"run_id": runID.String(), "model": model})
		}
		return "", runErr
	}

	log.Infow("Analysis completed",
		"duration", duration,
		"calls", calls,
		"input_tokens", in,
		"output_tokens", out,
		"cost_usd", summary.CostUSD.StringFixed(4),
	)
	return text, nil
}

// drive consumes the run's event stream until it closes.
func (s *Service) drive(ctx context.Context, log *logger.Logger, runner *workflow.Runner, query string) (string, error) {
	var (
		output    string
		hasOutput bool
		runErr    error
	)

	for ev := range runner.Stream(ctx, query) {
		switch e := ev.(type) {
		case workflow.StatusEvent:
			log.Debugw("Workflow status", "state", e.State)
			s.reporter.StatusChanged(e.State)

		case workflow.OutputEvent:
			text, ok := e.Data.(string)
			if !ok {
				log.Warnw("Ignoring non-text output", "source", e.Source, "type", fmt.Sprintf("%T", e.Data))
				continue
			}
			output, hasOutput = text, true
			s.reporter.RecommendationReady(text)

		case workflow.NodeFailedEvent:
			metrics.RecordNodeFailure(string(e.Node))
			s.breadcrumb(ctx, "agent failed", map[string]interface{}{"node": string(e.Node), "error": e.Err.Error()})
			s.reporter.NodeFailed(e.Node, e.Err)

		case workflow.RunFailedEvent:
			runErr = e.Err

		default:
			log.Warnw("Unknown workflow event", "type", fmt.Sprintf("%T", ev))
		}
	}

	if runErr != nil {
		return "", runErr
	}
	if !hasOutput {
		return NoRecommendationText, nil
	}
	return output, nil
}

func (s *Service) breadcrumb(ctx context.Context, message string, data map[string]interface{}) {
	if s.tracker == nil {
		return
	}
	s.tracker.AddBreadcrumb(ctx, message, "workflow", errors.LevelInfo, data)
}

// BuildPipeline composes the agents as
// dispatcher -> parallel(specialists) -> orchestrator.
func BuildPipeline(factory *agents.Factory) (agent.Agent, error) {
	dispatcher, err := factory.Dispatcher().Agent()
	if err != nil {
		return nil, errors.Wrap(err, "create dispatcher agent")
	}

	specialists := make([]agent.Agent, 0, len(agents.RequiredAgents))
	for _, specialist := range factory.Specialists() {
		a, err := specialist.Agent()
		if err != nil {
			return nil, errors.Wrapf(err, "create %s agent", specialist.Name())
		}
		specialists = append(specialists, a)
	}

	parallel, err := parallelagent.New(parallelagent.Config{AgentConfig: agent.Config{
		Name:        specialistsAgentName,
		Description: "Concurrent market, fundamentals, news and sentiment analysis",
		SubAgents:   specialists,
	}})
	if err != nil {
		return nil, errors.Wrap(err, "create specialists agent")
	}

	orchestrator, err := factory.Orchestrator().Agent()
	if err != nil {
		return nil, errors.Wrap(err, "create orchestrator agent")
	}

	pipeline, err := sequentialagent.New(sequentialagent.Config{AgentConfig: agent.Config{
		Name:        pipelineAgentName,
		Description: "Investment analysis: fan out to specialists, then synthesize",
		SubAgents:   []agent.Agent{dispatcher, parallel, orchestrator},
	}})
	if err != nil {
		return nil, errors.Wrap(err, "create analysis pipeline")
	}
	return pipeline, nil
}
