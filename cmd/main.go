package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tradeanalysis/internal/adapters/config"
	"tradeanalysis/internal/adapters/errors/noop"
	"tradeanalysis/internal/adapters/errors/sentry"
	"tradeanalysis/internal/analysis"
	"tradeanalysis/internal/metrics"
	"tradeanalysis/pkg/errors"
	"tradeanalysis/pkg/logger"
)

const usage = `
╔════════════════════════════════════════════════════════════════╗
║     Trading Analysis Multi-Agent System                        ║
║     Market · Fundamentals · News · Sentiment → Recommendation  ║
╚════════════════════════════════════════════════════════════════╝

Usage:
    tradeanalysis <query>

Examples:
    tradeanalysis "AAPL"
    tradeanalysis "Microsoft Corporation"
    tradeanalysis Tesla stock analysis
    tradeanalysis "Bitcoin cryptocurrency"

Prerequisites:
    1. Deploy a chat model (e.g. gpt-4o) on Azure OpenAI
    2. Copy .env.example to .env and configure:
       - AZURE_OPENAI_ENDPOINT
       - AZURE_OPENAI_API_KEY
       - MODEL_DEPLOYMENT_NAME
`

const trackerFlushTimeout = 2 * time.Second

var errNoQuery = errors.New("no query given")

// analyzeQuery runs one analysis. Tests replace it to reach the failure paths
// without a model deployment.
var analyzeQuery = analyze

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	// cobra falls back to os.Args when given nil
	if args == nil {
		args = []string{}
	}

	cmd := newRootCmd(stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(context.Background())
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errNoQuery):
		fmt.Fprint(stdout, usage)
		return 1
	case errors.Is(err, errors.ErrInvalidConfig):
		fmt.Fprintf(stdout, "\n❌ Configuration Error: %v\n", err)
		fmt.Fprintln(stdout, "\nPlease ensure your .env file is configured correctly.")
		fmt.Fprintln(stdout, "See .env.example for the required variables.")
		return 1
	default:
		fmt.Fprintf(stdout, "\n❌ Error during analysis: %v\n", err)
		fmt.Fprintf(stderr, "%+v\n", err)
		return 1
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "tradeanalysis <query>",
		Short: "Multi-agent investment analysis",
		// The query is free text; "-h" and friends are matched by hand so a
		// query like "-5% drop" still reaches the agents.
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		Args:               cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errNoQuery
			}

			query := strings.Join(args, " ")
			if isHelp(query) {
				fmt.Fprint(stdout, usage)
				return nil
			}

			return analyzeQuery(cmd.Context(), stdout, query)
		},
	}
}

func isHelp(query string) bool {
	switch strings.ToLower(query) {
	case "--help", "-h", "help":
		return true
	}
	return false
}

func analyze(parent context.Context, stdout io.Writer, query string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := initLogger(cfg); err != nil {
		return errors.Wrap(err, "init logger")
	}
	defer logger.Sync()

	log := logger.Get()
	log.Debugf("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)
	defer flushTracker(errorTracker)

	metrics.Init()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = analysis.RunAnalysis(ctx, cfg, query,
		analysis.WithReporter(analysis.NewConsole(stdout)),
		analysis.WithTracker(errorTracker),
	)
	if err != nil {
		// Failed runs are captured by the analysis service itself.
		if !errors.Is(err, errors.ErrRunFailed) {
			log.ErrorWithContext(ctx, err, map[string]string{"component": "cli", "query": query})
		}
		return err
	}

	rule := strings.Repeat("=", 60)
	fmt.Fprintf(stdout, "\n%s\n📋 ANALYSIS COMPLETE\n%s\n\nThe full recommendation has been printed above.\n%s\n", rule, rule, rule)
	return nil
}

// loadConfig loads application configuration from environment
func loadConfig() (*config.Config, error) {
	return config.Load()
}

// initLogger initializes structured logging
func initLogger(cfg *config.Config) error {
	return logger.Init(cfg.App.LogLevel, cfg.App.Env)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Debug("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Debug("Error tracking initialized (Sentry)")
	return tracker
}

func flushTracker(tracker errors.Tracker) {
	ctx, cancel := context.WithTimeout(context.Background(), trackerFlushTimeout)
	defer cancel()
	if err := tracker.Flush(ctx); err != nil {
		logger.Get().Warnf("Error tracker flush: %v", err)
	}
}
