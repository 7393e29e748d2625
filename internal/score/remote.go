package score

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ppiankov/claimrisk/internal/model"
	"github.com/ppiankov/claimrisk/internal/resilience"
)

const remoteMaxRetries = 2

// remoteSleepFunc waits between retries (injectable for tests)
var remoteSleepFunc = sleepContext

// sleepContext waits for d or until ctx is done, whichever comes first
func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// RemoteClassifier calls an inference service: POST {base}/predict with {"features":[...]}
// answered by {"probability_legit":0.87}. Calls go through a circuit breaker.
type RemoteClassifier struct {
	endpoint string
	client   *http.Client
	breaker  *resilience.Breaker
}

type predictRequest struct {
	Features []float64 `json:"features"`
	Names    []string  `json:"feature_names"`
}

type predictResponse struct {
	ProbabilityLegit *float64 `json:"probability_legit"`
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return "classifier returned " + http.StatusText(e.code) + ": " + e.body
}

// NewRemoteClassifier creates a remote classifier
func NewRemoteClassifier(baseURL string, timeout time.Duration, breakerFailures int) *RemoteClassifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RemoteClassifier{
		endpoint: strings.TrimSuffix(baseURL, "/") + "/predict",
		client:   &http.Client{Timeout: timeout},
		breaker:  resilience.NewBreaker("classifier", breakerFailures, 30*time.Second),
	}
}

// Name identifies the classifier in logs
func (c *RemoteClassifier) Name() string {
	return "remote"
}

// Predict asks the service for P(legitimate). Every failure wraps ErrClassifierUnavailable.
func (c *RemoteClassifier) Predict(ctx context.Context, vector []float64) (float64, error) {
	p, err := resilience.Do(c.breaker, func() (float64, error) {
		return c.predictWithRetry(ctx, vector)
	})
	if err != nil {
		return 0, eris.Wrapf(model.ErrClassifierUnavailable, "remote classifier: %v", err)
	}
	return p, nil
}

// predictWithRetry retries 5xx and 429 responses with exponential backoff
func (c *RemoteClassifier) predictWithRetry(ctx context.Context, vector []float64) (float64, error) {
	var lastErr error
	for attempt := 0; attempt <= remoteMaxRetries; attempt++ {
		p, err := c.predictOnce(ctx, vector)
		if err == nil {
			return p, nil
		}
		lastErr = err
		if !isRetryable(err) || ctx.Err() != nil {
			break
		}
		if attempt < remoteMaxRetries {
			if err := remoteSleepFunc(ctx, time.Duration(1<<uint(attempt))*200*time.Millisecond); err != nil {
				break
			}
		}
	}
	return 0, lastErr
}

func (c *RemoteClassifier) predictOnce(ctx context.Context, vector []float64) (float64, error) {
	body, err := json.Marshal(predictRequest{Features: vector, Names: FeatureNames})
	if err != nil {
		return 0, eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, eris.Wrap(err, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, eris.Wrap(err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return 0, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(respBody))}
	}

	var pr predictResponse
	if err := json.Unmarshal(respBody, &pr); err != nil {
		return 0, eris.Wrap(err, "decode response")
	}
	if pr.ProbabilityLegit == nil {
		return 0, eris.New("response missing probability_legit")
	}
	p := *pr.ProbabilityLegit
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, eris.Errorf("probability %v outside [0,1]", p)
	}
	return p, nil
}

func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	return false
}
