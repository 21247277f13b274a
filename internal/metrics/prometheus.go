package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"tradeanalysis/pkg/errors"
)

var (
	// Agent metrics
	AgentCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradeanalysis_agent_calls_total",
			Help: "Total number of agent LLM calls",
		},
		[]string{"agent", "model", "status"}, // status: success|error|empty
	)

	AgentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tradeanalysis_agent_latency_seconds",
			Help:    "Agent LLM call latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"agent", "model"},
	)

	AgentTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradeanalysis_agent_tokens_total",
			Help: "Total tokens used by agents",
		},
		[]string{"agent", "model", "type"}, // type: input|output
	)

	AgentCost = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradeanalysis_agent_cost_usd",
			Help: "Estimated AI cost in USD",
		},
		[]string{"agent", "model"},
	)

	// Workflow metrics
	WorkflowRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradeanalysis_workflow_runs_total",
			Help: "Total number of analysis workflow runs",
		},
		[]string{"status"}, // status: success|failed
	)

	WorkflowDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tradeanalysis_workflow_duration_seconds",
			Help:    "End-to-end analysis workflow duration in seconds",
			Buckets: []float64{5, 10, 20, 30, 60, 120, 300},
		},
	)

	NodeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradeanalysis_workflow_node_failures_total",
			Help: "Total number of workflow node failures",
		},
		[]string{"node"},
	)
)

var initOnce sync.Once

// Init registers all metrics with Prometheus
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(AgentCalls)
		prometheus.MustRegister(AgentLatency)
		prometheus.MustRegister(AgentTokens)
		prometheus.MustRegister(AgentCost)

		prometheus.MustRegister(WorkflowRuns)
		prometheus.MustRegister(WorkflowDuration)
		prometheus.MustRegister(NodeFailures)
	})
}

// RecordAgentCall records an agent invocation
func RecordAgentCall(agent, model string, latency time.Duration, inputTokens, outputTokens int, cost float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	AgentCalls.WithLabelValues(agent, model, status).Inc()
	AgentLatency.WithLabelValues(agent, model).Observe(latency.Seconds())

	if inputTokens > 0 {
		AgentTokens.WithLabelValues(agent, model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		AgentTokens.WithLabelValues(agent, model, "output").Add(float64(outputTokens))
	}
	if cost > 0 {
		AgentCost.WithLabelValues(agent, model).Add(cost)
	}
}

// RecordEmptyResponse counts a call whose response carried no text
func RecordEmptyResponse(agent, model string) {
	AgentCalls.WithLabelValues(agent, model, "empty").Inc()
}

// RecordWorkflowRun records the outcome of one analysis run
func RecordWorkflowRun(duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}

	WorkflowRuns.WithLabelValues(status).Inc()
	WorkflowDuration.Observe(duration.Seconds())
}

// RecordNodeFailure records a failed workflow node
func RecordNodeFailure(node string) {
	NodeFailures.WithLabelValues(node).Inc()
}

// Push sends the registered metrics to a Prometheus Pushgateway.
// A CLI run is too short-lived to be scraped.
func Push(ctx context.Context, gatewayURL, job string) error {
	err := push.New(gatewayURL, job).
		Gatherer(prometheus.DefaultGatherer).
		PushContext(ctx)
	if err != nil {
		return errors.Wrapf(err, "push metrics to %s", gatewayURL)
	}
	return nil
}
