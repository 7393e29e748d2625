package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestRecorders_ExposedOnHandler(t *testing.T) {
	RecordExtraction("application/pdf", false)
	RecordExtraction("", true)
	RecordAssessment("rule_based")
	RecordClassifierFallback("unconfigured")
	RecordInterviewTurn(true)
	ObserveCompletion("openai", 120*time.Millisecond, errors.New("timeout"))
	RecordVerdict("low", 27)
	RecordBreakerTransition("classifier", "closed", "open", 1)

	body := scrape(t)

	assert.Contains(t, body, `claimrisk_documents_extracted_total{media_type="application/pdf",outcome="ok"}`)
	assert.Contains(t, body, `claimrisk_documents_extracted_total{media_type="unknown",outcome="failed"}`)
	assert.Contains(t, body, `claimrisk_assessments_total{method="rule_based"}`)
	assert.Contains(t, body, `claimrisk_classifier_fallbacks_total{reason="unconfigured"}`)
	assert.Contains(t, body, `claimrisk_interview_turns_total{source="fallback"}`)
	assert.Contains(t, body, `claimrisk_completion_duration_seconds_count{provider="openai",status="error"}`)
	assert.Contains(t, body, `claimrisk_verdicts_total{risk_level="low"}`)
	assert.Contains(t, body, `claimrisk_fraud_score_count`)
	assert.Contains(t, body, `claimrisk_circuit_breaker_state{breaker="classifier"} 1`)
	assert.Contains(t, body, `claimrisk_circuit_breaker_state_changes_total{breaker="classifier",from="closed",to="open"}`)
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0") }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
