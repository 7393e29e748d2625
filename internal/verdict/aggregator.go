// Package verdict combines the document assessment and the interview into a fraud verdict.
package verdict

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/ppiankov/claimrisk/internal/metrics"
	"github.com/ppiankov/claimrisk/internal/model"
)

// Document indicators, in reporting order
const (
	IndicatorDatesInconsistent   = "inconsistent dates across documents"
	IndicatorAmountsInconsistent = "inconsistent amounts across invoices"
	IndicatorMissingAmount       = "missing invoice amount"
	IndicatorNoDates             = "no dates found in documents"
	IndicatorShortDocument       = "very short document"
	IndicatorUnreadable          = "unreadable document"
)

// Recommendation lines
const (
	RecommendEscalate      = "escalate for manual investigation"
	RecommendMoreDocuments = "request additional documentation"
	RecommendProceed       = "proceed with standard processing"
	RecommendSeniorReview  = "flag for senior review"
)

// Aggregator turns an assessment and a completed interview into a verdict
type Aggregator struct {
	indicatorWeight    float64
	maxPenalty         float64
	mediumThreshold    float64
	highThreshold      float64
	seniorReviewCount  int
	shortDocumentWords int
}

// NewAggregator creates an aggregator; zero values take the defaults
func NewAggregator(cfg model.VerdictConfig, minWordCount int) *Aggregator {
	def := model.DefaultConfig().Verdict
	if cfg.IndicatorWeight <= 0 {
		cfg.IndicatorWeight = def.IndicatorWeight
	}
	if cfg.MaxInterviewPenalty <= 0 {
		cfg.MaxInterviewPenalty = def.MaxInterviewPenalty
	}
	if cfg.MediumThreshold <= 0 {
		cfg.MediumThreshold = def.MediumThreshold
	}
	if cfg.HighThreshold <= 0 {
		cfg.HighThreshold = def.HighThreshold
	}
	if cfg.SeniorReviewIndicatorCount <= 0 {
		cfg.SeniorReviewIndicatorCount = def.SeniorReviewIndicatorCount
	}
	if minWordCount <= 0 {
		minWordCount = 10
	}
	return &Aggregator{
		indicatorWeight:    cfg.IndicatorWeight,
		maxPenalty:         cfg.MaxInterviewPenalty,
		mediumThreshold:    cfg.MediumThreshold,
		highThreshold:      cfg.HighThreshold,
		seniorReviewCount:  cfg.SeniorReviewIndicatorCount,
		shortDocumentWords: minWordCount,
	}
}

// Aggregate builds the verdict. The session must be completed.
func (a *Aggregator) Aggregate(assessment *model.LegitimacyAssessment, session *model.InterviewSession) (*model.FraudVerdict, error) {
	if assessment == nil {
		return nil, eris.Wrap(model.ErrNoDocuments, "no assessment")
	}
	if session == nil || !session.IsComplete() {
		return nil, eris.Wrap(model.ErrInvalidSessionState, "interview not completed")
	}

	penalty := a.InterviewPenalty(session)
	score := clamp(100-assessment.LegitPercentage+penalty, 0, 100)
	level := a.RiskLevel(score)
	indicators := dedupe(append(DocumentIndicators(assessment, a.shortDocumentWords), session.Indicators()...))

	v := &model.FraudVerdict{
		ClaimID:          assessment.ClaimID,
		FraudScore:       score,
		RiskLevel:        level,
		Indicators:       indicators,
		Recommendations:  a.Recommendations(level, len(indicators)),
		Confidence:       Confidence(assessment),
		LegitPercentage:  assessment.LegitPercentage,
		Method:           assessment.Method,
		InterviewPenalty: penalty,
	}
	metrics.RecordVerdict(string(level), score)
	return v, nil
}

// InterviewPenalty weights the distinct interview indicators, capped
func (a *Aggregator) InterviewPenalty(session *model.InterviewSession) float64 {
	distinct := len(dedupe(session.Indicators()))
	return math.Min(a.indicatorWeight*float64(distinct), a.maxPenalty)
}

// RiskLevel bands a fraud score; lower bounds are inclusive
func (a *Aggregator) RiskLevel(score float64) model.RiskLevel {
	switch {
	case score >= a.highThreshold:
		return model.RiskHigh
	case score >= a.mediumThreshold:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// Recommendations returns the template for the level, plus senior review for many indicators
func (a *Aggregator) Recommendations(level model.RiskLevel, indicatorCount int) []string {
	var recs []string
	switch level {
	case model.RiskHigh:
		recs = []string{RecommendEscalate}
	case model.RiskMedium:
		recs = []string{RecommendMoreDocuments}
	default:
		recs = []string{RecommendProceed}
	}
	if indicatorCount > a.seniorReviewCount {
		recs = append(recs, RecommendSeniorReview)
	}
	return recs
}

// DocumentIndicators derives the document indicators in their fixed order
func DocumentIndicators(assessment *model.LegitimacyAssessment, shortDocumentWords int) []string {
	var (
		missingAmount bool
		anyDates      bool
		short         bool
		unreadable    bool
	)
	for _, f := range assessment.Features {
		if f.IsInvoice() && !f.HasAmounts() {
			missingAmount = true
		}
		if f.HasDates() {
			anyDates = true
		}
		if f.ExtractionFailed() {
			unreadable = true
		} else if f.WordCount < shortDocumentWords {
			short = true
		}
	}

	out := []string{}
	if !assessment.Consistency.DatesConsistent {
		out = append(out, IndicatorDatesInconsistent)
	}
	if !assessment.Consistency.AmountsConsistent {
		out = append(out, IndicatorAmountsInconsistent)
	}
	if missingAmount {
		out = append(out, IndicatorMissingAmount)
	}
	if len(assessment.Features) > 0 && !anyDates {
		out = append(out, IndicatorNoDates)
	}
	if short {
		out = append(out, IndicatorShortDocument)
	}
	if unreadable {
		out = append(out, IndicatorUnreadable)
	}
	return out
}

// Confidence rates how much the verdict's document signal can be trusted
func Confidence(assessment *model.LegitimacyAssessment) float64 {
	var c float64
	switch {
	case assessment.Method == model.MethodClassifier &&
		assessment.Consistency.DateCheckRan() && assessment.Consistency.AmountCheckRan():
		c = 0.9
	case assessment.Method == model.MethodClassifier:
		c = 0.75
	default:
		c = 0.6
	}
	if assessment.HasExtractionFailure() {
		c = math.Max(c-0.2, 0.1)
	}
	// Round to two places so 0.6-0.2 reports as 0.4
	return math.Round(c*100) / 100
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
