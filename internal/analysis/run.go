package analysis

import (
	"context"
	"time"

	"tradeanalysis/internal/adapters/ai"
	"tradeanalysis/internal/adapters/config"
	"tradeanalysis/internal/agents"
	"tradeanalysis/internal/metrics"
	"tradeanalysis/pkg/errors"
	"tradeanalysis/pkg/logger"
	"tradeanalysis/pkg/templates"
)

const metricsPushTimeout = 10 * time.Second

type runOptions struct {
	provider ai.ChatProvider
	reporter RunReporter
	tracker  errors.Tracker
}

// Option customizes RunAnalysis.
type Option func(*runOptions)

// WithProvider replaces the Azure OpenAI provider built from configuration.
func WithProvider(p ai.ChatProvider) Option {
	return func(o *runOptions) { o.provider = p }
}

// WithReporter sets the progress reporter.
func WithReporter(r RunReporter) Option {
	return func(o *runOptions) { o.reporter = r }
}

// WithTracker sets the error tracker that receives run failures.
func WithTracker(t errors.Tracker) Option {
	return func(o *runOptions) { o.tracker = t }
}

// RunAnalysis validates cfg, builds the model client and runs one analysis.
// Configuration problems are reported as *config.Error before any request
// is made.
func RunAnalysis(ctx context.Context, cfg *config.Config, query string, opts ...Option) (string, error) {
	if cfg == nil {
		return "", &config.Error{Setting: "configuration", Reason: "is not loaded"}
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.provider == nil {
		provider, err := ai.NewChatProvider(cfg.LLM)
		if err != nil {
			return "", err
		}
		o.provider = provider
	}

	registry, err := loadTemplates(cfg.App.PromptsDir)
	if err != nil {
		return "", err
	}

	svc, err := NewService(ServiceDeps{
		Provider:  o.provider,
		Templates: registry,
		Settings: agents.Settings{
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		},
		Reporter: o.reporter,
		Tracker:  o.tracker,
	})
	if err != nil {
		return "", err
	}

	text, runErr := svc.Run(ctx, query)
	pushMetrics(cfg.Metrics)
	return text, runErr
}

func loadTemplates(dir string) (*templates.Registry, error) {
	if dir == "" {
		return templates.Get(), nil
	}

	registry, err := templates.NewRegistry(dir)
	if err != nil {
		return nil, &config.Error{Setting: "PROMPTS_DIR", Reason: err.Error()}
	}
	return registry, nil
}

// pushMetrics runs after the caller's context may already be cancelled, so it
// uses its own deadline. Failures are logged only.
func pushMetrics(cfg config.MetricsConfig) {
	if cfg.PushgatewayURL == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), metricsPushTimeout)
	defer cancel()

	metrics.Init()
	if err := metrics.Push(ctx, cfg.PushgatewayURL, cfg.JobName); err != nil {
		logger.Get().Warnw("Failed to push metrics", "error", err)
	}
}
