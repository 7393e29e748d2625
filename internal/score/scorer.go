package score

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/claimrisk/internal/metrics"
	"github.com/ppiankov/claimrisk/internal/model"
)

// Scorer maps a claim's features to a legitimacy percentage. The strategy is chosen per
// call: the classifier when one was supplied and answers, the rule scorer otherwise.
type Scorer struct {
	classifier Classifier
	rules      *RuleScorer
	timeout    time.Duration
}

// NewScorer creates a scorer. A nil classifier means rule-based scoring only.
func NewScorer(cfg model.ScoringConfig, classifier Classifier) *Scorer {
	return &Scorer{
		classifier: classifier,
		rules:      NewRuleScorer(cfg),
		timeout:    cfg.ClassifierTimeout,
	}
}

// HasClassifier reports whether a classifier is configured
func (s *Scorer) HasClassifier() bool {
	return s.classifier != nil
}

// Score produces the assessment for one claim. An empty feature set is rejected with
// model.ErrNoDocuments; classifier failures fall back to the rules and are not errors.
func (s *Scorer) Score(ctx context.Context, claimID string, features []model.DocumentFeatures, report model.ConsistencyReport) (*model.LegitimacyAssessment, error) {
	if len(features) == 0 {
		return nil, model.ErrNoDocuments
	}

	assessment := &model.LegitimacyAssessment{
		ClaimID:     claimID,
		Features:    features,
		Consistency: report,
	}

	if s.classifier != nil {
		p, err := s.predict(ctx, Vector(features, report))
		if err == nil {
			assessment.LegitPercentage = clampPercent(p * 100)
			assessment.Method = model.MethodClassifier
			assessment.Signals = []model.ScoreSignal{{
				Rule:        "classifier",
				Delta:       assessment.LegitPercentage,
				Description: fmt.Sprintf("%s classifier: P(legitimate)=%.4f", s.classifier.Name(), p),
			}}
			metrics.RecordAssessment(string(model.MethodClassifier))
			return assessment, nil
		}
		zap.L().Warn("classifier unavailable, using rule-based scoring",
			zap.String("claim_id", claimID),
			zap.String("classifier", s.classifier.Name()),
			zap.Error(err),
		)
		metrics.RecordClassifierFallback("unavailable")
	} else {
		metrics.RecordClassifierFallback("unconfigured")
	}

	assessment.LegitPercentage, assessment.Signals = s.rules.Score(features, report)
	assessment.Method = model.MethodRuleBased
	metrics.RecordAssessment(string(model.MethodRuleBased))
	return assessment, nil
}

func (s *Scorer) predict(ctx context.Context, vector []float64) (float64, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.classifier.Predict(ctx, vector)
}
