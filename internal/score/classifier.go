package score

import (
	"context"

	"github.com/ppiankov/claimrisk/internal/model"
)

// Classifier returns the probability that a claim is legitimate.
// Any failure must wrap model.ErrClassifierUnavailable.
type Classifier interface {
	Name() string
	Predict(ctx context.Context, vector []float64) (float64, error)
}

// NewClassifier builds the configured classifier: a remote inference service when
// classifier_url is set, otherwise a local model file, otherwise none (nil).
func NewClassifier(cfg model.ScoringConfig, breakerFailures int) (Classifier, error) {
	switch {
	case cfg.ClassifierURL != "":
		return NewRemoteClassifier(cfg.ClassifierURL, cfg.ClassifierTimeout, breakerFailures), nil
	case cfg.ModelPath != "":
		return LoadModel(cfg.ModelPath)
	default:
		return nil, nil
	}
}
