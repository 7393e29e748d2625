package score

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/ppiankov/claimrisk/internal/model"
)

// Sample is one labelled training example
type Sample struct {
	Vector []float64
	Label  float64 // 1 legitimate, 0 not
}

// TrainOptions tunes gradient descent
type TrainOptions struct {
	Epochs       int
	LearningRate float64
	L2           float64
}

// DefaultTrainOptions returns settings that converge on a few hundred documents
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{Epochs: 2000, LearningRate: 0.1, L2: 0.01}
}

// HeuristicLabel labels a single document for bootstrapping a model when no
// adjudicated outcomes exist: authenticity markers and substantive text vote
// legitimate, very short or undated text votes against.
func HeuristicLabel(f model.DocumentFeatures) float64 {
	points := 0
	for _, set := range []bool{f.Flags.HasSignature, f.Flags.HasStamp, f.Flags.HasDoctorName, f.Flags.HasHospitalName} {
		if set {
			points += 2
		}
	}
	if f.Terms.Medical > 5 {
		points += 2
	}
	if f.RawTextLength > 500 {
		points++
	}
	if f.HasDates() {
		points++
	} else {
		points -= 2
	}
	if f.HasAmounts() {
		points++
	}
	if f.RawTextLength < 100 {
		points -= 3
	}
	if points >= 3 {
		return 1
	}
	return 0
}

// SampleFromDocument builds a single-document training sample. A lone document is
// trivially consistent with itself.
func SampleFromDocument(f model.DocumentFeatures) Sample {
	report := model.ConsistencyReport{DatesConsistent: true, AmountsConsistent: true}
	if f.HasDates() {
		report.DocumentsWithDates = 1
	}
	if f.IsInvoice() && f.HasAmounts() {
		report.InvoicesWithAmounts = 1
	}
	return Sample{
		Vector: Vector([]model.DocumentFeatures{f}, report),
		Label:  HeuristicLabel(f),
	}
}

// Train fits a standardised logistic regression by batch gradient descent.
// Weights start at zero, so the same samples always give the same model.
func Train(samples []Sample, opts TrainOptions) (*LogisticModel, error) {
	if len(samples) < 2 {
		return nil, eris.Errorf("need at least 2 samples, got %d", len(samples))
	}
	dims := len(FeatureNames)
	for i, s := range samples {
		if len(s.Vector) != dims {
			return nil, eris.Errorf("sample %d has %d dimensions, want %d", i, len(s.Vector), dims)
		}
	}
	if opts.Epochs <= 0 || opts.LearningRate <= 0 {
		opts = DefaultTrainOptions()
	}

	mean, scale := moments(samples, dims)

	x := make([][]float64, len(samples))
	for i, s := range samples {
		x[i] = make([]float64, dims)
		for j, v := range s.Vector {
			x[i][j] = standardise(v, mean[j], scale[j])
		}
	}

	weights := make([]float64, dims)
	bias := 0.0
	n := float64(len(samples))
	grad := make([]float64, dims)

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		gradBias := 0.0

		for i, s := range samples {
			z := bias
			for j := range weights {
				z += weights[j] * x[i][j]
			}
			diff := sigmoid(z) - s.Label
			for j := range grad {
				grad[j] += diff * x[i][j]
			}
			gradBias += diff
		}

		for j := range weights {
			weights[j] -= opts.LearningRate * (grad[j]/n + opts.L2*weights[j])
		}
		bias -= opts.LearningRate * gradBias / n
	}

	m := &LogisticModel{
		Version:  modelVersion,
		Features: append([]string(nil), FeatureNames...),
		Weights:  weights,
		Bias:     bias,
		Mean:     mean,
		Scale:    scale,
		Samples:  len(samples),
	}
	m.Accuracy = accuracy(m, samples)
	return m, nil
}

// moments returns per-dimension mean and population standard deviation.
// Constant dimensions get scale 1.
func moments(samples []Sample, dims int) ([]float64, []float64) {
	mean := make([]float64, dims)
	scale := make([]float64, dims)
	n := float64(len(samples))

	for _, s := range samples {
		for j, v := range s.Vector {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, s := range samples {
		for j, v := range s.Vector {
			d := v - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		if scale[j] == 0 {
			scale[j] = 1
		}
	}
	return mean, scale
}

func accuracy(m *LogisticModel, samples []Sample) float64 {
	correct := 0
	for _, s := range samples {
		pred := 0.0
		if sigmoid(m.logit(s.Vector)) >= 0.5 {
			pred = 1
		}
		if pred == s.Label {
			correct++
		}
	}
	return float64(correct) / float64(len(samples))
}
