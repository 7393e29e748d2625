package worker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/claimrisk/internal/model"
)

// ClaimRunner processes one scripted claim end to end
type ClaimRunner interface {
	RunClaim(ctx context.Context, spec model.ClaimSpec) (*model.FraudVerdict, error)
}

// ClaimJob runs one claim of a manifest
type ClaimJob struct {
	Spec   model.ClaimSpec
	Runner ClaimRunner
}

// Execute executes the claim job
func (j *ClaimJob) Execute(ctx context.Context) Result {
	start := time.Now()
	v, err := j.Runner.RunClaim(ctx, j.Spec)
	return &ClaimResult{
		ClaimID:  j.Spec.ClaimID,
		Verdict:  v,
		Error:    err,
		Duration: time.Since(start),
	}
}

// ClaimResult represents the outcome of one claim
type ClaimResult struct {
	ClaimID  string
	Verdict  *model.FraudVerdict
	Error    error
	Duration time.Duration
}

// GetError returns the error from the claim result
func (r *ClaimResult) GetError() error {
	return r.Error
}

// Summary counts batch outcomes
type Summary struct {
	Total  int
	Failed int
	ByRisk map[model.RiskLevel]int
}

// Summarize tallies results by risk level
func Summarize(results []*ClaimResult) Summary {
	s := Summary{Total: len(results), ByRisk: make(map[model.RiskLevel]int)}
	for _, r := range results {
		if r.Error != nil || r.Verdict == nil {
			s.Failed++
			continue
		}
		s.ByRisk[r.Verdict.RiskLevel]++
	}
	return s
}

// BatchProcessor processes the claims of a manifest concurrently
type BatchProcessor struct {
	runner      ClaimRunner
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(runner ClaimRunner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		runner:      runner,
		concurrency: concurrency,
	}
}

// ProcessClaims runs every claim and returns results in manifest order
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claims []model.ClaimSpec) []*ClaimResult {
	if len(claims) == 0 {
		return []*ClaimResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, spec := range claims {
		if !pool.Submit(&ClaimJob{Spec: spec, Runner: b.runner}) {
			break
		}
	}

	results := pool.Wait()

	out := make([]*ClaimResult, len(results))
	for i, r := range results {
		out[i] = r.(*ClaimResult)
		if out[i].Error != nil {
			zap.L().Warn("claim failed", zap.String("claim_id", out[i].ClaimID), zap.Error(out[i].Error))
		}
	}
	return out
}

// ProcessManifest reads a manifest file and processes its claims
func (b *BatchProcessor) ProcessManifest(ctx context.Context, path string) ([]*ClaimResult, error) {
	m, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	return b.ProcessClaims(ctx, m.Claims), nil
}

// ReadManifest loads a YAML manifest. Relative document paths are resolved against
// the manifest's directory; claim IDs must be present and unique.
func ReadManifest(path string) (*model.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read manifest")
	}

	var m model.Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "parse manifest %s", path)
	}

	base := filepath.Dir(path)
	seen := make(map[string]bool, len(m.Claims))
	for i := range m.Claims {
		c := &m.Claims[i]
		c.ClaimID = strings.TrimSpace(c.ClaimID)
		if c.ClaimID == "" {
			return nil, eris.Errorf("manifest claim %d: missing claim_id", i+1)
		}
		if seen[c.ClaimID] {
			return nil, eris.Errorf("manifest: duplicate claim_id %q", c.ClaimID)
		}
		seen[c.ClaimID] = true

		for j := range c.Documents {
			p := c.Documents[j].Path
			if p == "" || strings.Contains(p, "://") || filepath.IsAbs(p) {
				continue
			}
			c.Documents[j].Path = filepath.Join(base, p)
		}
	}
	return &m, nil
}
