package score

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/ppiankov/claimrisk/internal/model"
)

const modelVersion = 1

// LogisticModel is a standardised logistic-regression classifier stored as JSON.
// Inference is plain arithmetic and fully deterministic.
type LogisticModel struct {
	Version  int       `json:"version"`
	Features []string  `json:"features"`
	Weights  []float64 `json:"weights"`
	Bias     float64   `json:"bias"`
	Mean     []float64 `json:"mean"`
	Scale    []float64 `json:"scale"`
	Samples  int       `json:"samples"`
	Accuracy float64   `json:"training_accuracy"`
}

// LoadModel reads and validates a model file
func LoadModel(path string) (*LogisticModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read model %s", path)
	}
	var m LogisticModel
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, eris.Wrapf(err, "parse model %s", path)
	}
	if err := m.Validate(); err != nil {
		return nil, eris.Wrapf(err, "model %s", path)
	}
	return &m, nil
}

// Save writes the model as indented JSON
func (m *LogisticModel) Save(path string) error {
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal model")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrap(err, "create model dir")
		}
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return eris.Wrapf(err, "write model %s", path)
	}
	return nil
}

// Validate checks the model against the current feature layout
func (m *LogisticModel) Validate() error {
	if m.Version != modelVersion {
		return eris.Errorf("unsupported model version %d", m.Version)
	}
	n := len(FeatureNames)
	if len(m.Weights) != n || len(m.Mean) != n || len(m.Scale) != n {
		return eris.Errorf("model has %d weights, %d means, %d scales; want %d", len(m.Weights), len(m.Mean), len(m.Scale), n)
	}
	if len(m.Features) != n {
		return eris.Errorf("model names %d features, want %d", len(m.Features), n)
	}
	for i, name := range m.Features {
		if name != FeatureNames[i] {
			return eris.Errorf("feature %d is %q, want %q", i, name, FeatureNames[i])
		}
	}
	return nil
}

// Name identifies the classifier in logs
func (m *LogisticModel) Name() string {
	return "local-logistic"
}

// Predict returns P(legitimate) for the vector
func (m *LogisticModel) Predict(_ context.Context, vector []float64) (float64, error) {
	if len(vector) != len(m.Weights) {
		return 0, eris.Wrapf(model.ErrClassifierUnavailable, "vector has %d dimensions, model expects %d", len(vector), len(m.Weights))
	}
	p := sigmoid(m.logit(vector))
	if math.IsNaN(p) {
		return 0, eris.Wrap(model.ErrClassifierUnavailable, "model produced NaN")
	}
	return p, nil
}

func (m *LogisticModel) logit(vector []float64) float64 {
	z := m.Bias
	for i, x := range vector {
		z += m.Weights[i] * standardise(x, m.Mean[i], m.Scale[i])
	}
	return z
}

func standardise(x, mean, scale float64) float64 {
	if scale == 0 {
		return x - mean
	}
	return (x - mean) / scale
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
