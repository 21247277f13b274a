package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeanalysis/pkg/errors"
)

func TestRecordAgentCall(t *testing.T) {
	before := testutil.ToFloat64(AgentCalls.WithLabelValues("news", "test-model", "success"))
	beforeIn := testutil.ToFloat64(AgentTokens.WithLabelValues("news", "test-model", "input"))

	RecordAgentCall("news", "test-model", 2*time.Second, 100, 20, 0.0005, nil)
	RecordAgentCall("news", "test-model", time.Second, 0, 0, 0, errors.ErrExternal)

	assert.Equal(t, before+1, testutil.ToFloat64(AgentCalls.WithLabelValues("news", "test-model", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(AgentCalls.WithLabelValues("news", "test-model", "error")))
	assert.Equal(t, beforeIn+100, testutil.ToFloat64(AgentTokens.WithLabelValues("news", "test-model", "input")))
}

func TestRecordWorkflowRun(t *testing.T) {
	before := testutil.ToFloat64(WorkflowRuns.WithLabelValues("failed"))
	RecordWorkflowRun(3*time.Second, errors.ErrRunFailed)
	assert.Equal(t, before+1, testutil.ToFloat64(WorkflowRuns.WithLabelValues("failed")))
}

func TestPush(t *testing.T) {
	Init()
	Init() // idempotent

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, Push(context.Background(), srv.URL, "tradeanalysis"))
	assert.True(t, strings.HasPrefix(gotPath, "/metrics/job/tradeanalysis"), gotPath)
}
