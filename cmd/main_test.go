package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"tradeanalysis/pkg/errors"
)

func TestIsHelp(t *testing.T) {
	for _, q := range []string{"--help", "-h", "help", "HELP", "-H", "Help"} {
		assert.True(t, isHelp(q), q)
	}
	for _, q := range []string{"AAPL", "help me", "--helpful", ""} {
		assert.False(t, isHelp(q), q)
	}
}

func TestRun_NoArgsPrintsUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run(nil, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "Usage:")
}

func TestRun_EmptyArgsPrintsUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run([]string{}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "Usage:")
}

func stubAnalyze(t *testing.T, fn func(ctx context.Context, stdout io.Writer, query string) error) {
	t.Helper()

	orig := analyzeQuery
	analyzeQuery = fn
	t.Cleanup(func() { analyzeQuery = orig })
}

func TestRun_AnalysisFailurePrintsErrorChain(t *testing.T) {
	cause := &errors.NodeError{NodeID: "news_agent", Err: errors.Wrap(errors.ErrExternal, "azure openai chat")}
	stubAnalyze(t, func(context.Context, io.Writer, string) error {
		return fmt.Errorf("%w: %w", errors.ErrRunFailed, cause)
	})
	var stdout, stderr bytes.Buffer

	code := run([]string{"AAPL"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "Error during analysis")
	assert.Contains(t, stderr.String(), "workflow run failed: node news_agent: azure openai chat: external service error")
	assert.NotContains(t, stdout.String(), "ANALYSIS COMPLETE")
}

func TestRun_JoinsQueryWords(t *testing.T) {
	var got string
	stubAnalyze(t, func(_ context.Context, _ io.Writer, query string) error {
		got = query
		return nil
	})
	var stdout, stderr bytes.Buffer

	code := run([]string{"Tesla", "stock", "analysis"}, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Equal(t, "Tesla stock analysis", got)
	assert.Empty(t, stderr.String())
}

func TestRun_HelpExitsZero(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {"-h"}, {"HELP"}} {
		var stdout, stderr bytes.Buffer

		code := run(args, &stdout, &stderr)

		assert.Equal(t, 0, code, args)
		assert.Contains(t, stdout.String(), "Usage:")
	}
}

func TestRun_MissingEndpointIsConfigError(t *testing.T) {
	t.Setenv("AZURE_OPENAI_ENDPOINT", "")
	t.Setenv("ERROR_TRACKING_ENABLED", "false")
	t.Setenv("METRICS_PUSHGATEWAY_URL", "")
	var stdout, stderr bytes.Buffer

	code := run([]string{"AAPL"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "Configuration Error")
	assert.Contains(t, stdout.String(), "AZURE_OPENAI_ENDPOINT")
	assert.NotContains(t, stdout.String(), "ANALYSIS COMPLETE")
}

func TestRun_MalformedSettingIsConfigError(t *testing.T) {
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("LLM_MAX_TOKENS", "lots")
	var stdout, stderr bytes.Buffer

	code := run([]string{"AAPL"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "Configuration Error")
}
