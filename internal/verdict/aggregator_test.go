package verdict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimrisk/internal/model"
)

func newAggregator() *Aggregator {
	return NewAggregator(model.DefaultConfig().Verdict, 10)
}

func completedSession(indicators ...[]string) *model.InterviewSession {
	s := &model.InterviewSession{State: model.StateCompleted, MaxTurns: 3}
	for i := 0; i < 3; i++ {
		turn := model.Turn{Question: "q", Answer: "a", Answered: true, Indicators: []string{}}
		if i < len(indicators) {
			turn.Indicators = indicators[i]
		}
		s.Turns = append(s.Turns, turn)
	}
	return s
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func healthyAssessment(legit float64) *model.LegitimacyAssessment {
	return &model.LegitimacyAssessment{
		ClaimID:         "CLM-1",
		LegitPercentage: legit,
		Method:          model.MethodRuleBased,
		Consistency:     model.ConsistencyReport{DatesConsistent: true, AmountsConsistent: true},
		Features: []model.DocumentFeatures{
			{DocumentID: "inv", DeclaredType: model.DeclaredInvoice, WordCount: 40, ExtractedDates: []time.Time{day(2)}, ExtractedAmts: []float64{500, 520}},
			{DocumentID: "rep", DeclaredType: model.DeclaredMedicalReport, WordCount: 150, ExtractedDates: []time.Time{day(4)}},
		},
	}
}

func TestAggregate_HospitalisationScenario(t *testing.T) {
	v, err := newAggregator().Aggregate(healthyAssessment(73), completedSession())
	require.NoError(t, err)

	assert.Equal(t, 27.0, v.FraudScore)
	assert.Equal(t, model.RiskLow, v.RiskLevel)
	assert.Empty(t, v.Indicators)
	assert.Equal(t, []string{RecommendProceed}, v.Recommendations)
	assert.Equal(t, 0.6, v.Confidence)
	assert.Equal(t, 0.0, v.InterviewPenalty)
	assert.Equal(t, model.MethodRuleBased, v.Method)
}

func TestAggregate_RequiresCompletedSession(t *testing.T) {
	a := newAggregator()

	open := completedSession()
	open.State = model.StateAwaitingAnswer
	_, err := a.Aggregate(healthyAssessment(73), open)
	assert.ErrorIs(t, err, model.ErrInvalidSessionState)

	_, err = a.Aggregate(healthyAssessment(73), nil)
	assert.ErrorIs(t, err, model.ErrInvalidSessionState)

	_, err = a.Aggregate(nil, completedSession())
	assert.ErrorIs(t, err, model.ErrNoDocuments)
}

func TestInterviewPenalty_DistinctAndCapped(t *testing.T) {
	a := newAggregator()

	s := completedSession([]string{"evasive answer"}, []string{"evasive answer", "inconsistent timeline"})
	assert.Equal(t, 10.0, a.InterviewPenalty(s))

	s = completedSession([]string{"a", "b"}, []string{"c", "d"}, []string{"e", "f"})
	assert.Equal(t, 20.0, a.InterviewPenalty(s))
}

func TestRiskLevel_Boundaries(t *testing.T) {
	a := newAggregator()
	tests := []struct {
		score float64
		want  model.RiskLevel
	}{
		{0, model.RiskLow},
		{39.999, model.RiskLow},
		{40.0, model.RiskMedium},
		{69.999, model.RiskMedium},
		{70.0, model.RiskHigh},
		{100, model.RiskHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, a.RiskLevel(tt.score), "score %v", tt.score)
	}
}

func TestAggregate_ScoreClamped(t *testing.T) {
	a := newAggregator()
	s := completedSession([]string{"a", "b", "c", "d", "e"})

	v, err := a.Aggregate(healthyAssessment(0), s)
	require.NoError(t, err)
	assert.Equal(t, 100.0, v.FraudScore)
	assert.Equal(t, model.RiskHigh, v.RiskLevel)

	v, err = a.Aggregate(healthyAssessment(100), completedSession())
	require.NoError(t, err)
	assert.Equal(t, 0.0, v.FraudScore)
}

func TestAggregate_IndicatorOrderAndDedup(t *testing.T) {
	assessment := &model.LegitimacyAssessment{
		ClaimID:         "CLM-2",
		LegitPercentage: 30,
		Method:          model.MethodRuleBased,
		Consistency:     model.ConsistencyReport{DatesConsistent: false, AmountsConsistent: true},
		Features: []model.DocumentFeatures{
			{DocumentID: "inv", DeclaredType: model.DeclaredInvoice, WordCount: 5, ExtractedDates: []time.Time{day(1)}, ExtractedAmts: []float64{}},
			{DocumentID: "rep", DeclaredType: model.DeclaredMedicalReport, WordCount: 0},
		},
	}
	s := completedSession(
		[]string{"evasive answer"},
		[]string{"missing invoice amount", "evasive answer"},
		[]string{"inconsistent timeline"},
	)

	v, err := newAggregator().Aggregate(assessment, s)
	require.NoError(t, err)

	assert.Equal(t, []string{
		IndicatorDatesInconsistent,
		IndicatorMissingAmount,
		IndicatorShortDocument,
		IndicatorUnreadable,
		"evasive answer",
		"inconsistent timeline",
	}, v.Indicators)

	// 70 + 3 distinct interview indicators * 5
	assert.Equal(t, 85.0, v.FraudScore)
	assert.Equal(t, []string{RecommendEscalate, RecommendSeniorReview}, v.Recommendations)
	assert.Equal(t, 0.4, v.Confidence)
}

func TestDocumentIndicators_NoDates(t *testing.T) {
	assessment := &model.LegitimacyAssessment{
		Consistency: model.ConsistencyReport{DatesConsistent: true, AmountsConsistent: true},
		Features: []model.DocumentFeatures{
			{DeclaredType: model.DeclaredPrescription, WordCount: 30},
		},
	}
	assert.Equal(t, []string{IndicatorNoDates}, DocumentIndicators(assessment, 10))
}

func TestRecommendations(t *testing.T) {
	a := newAggregator()
	assert.Equal(t, []string{RecommendMoreDocuments}, a.Recommendations(model.RiskMedium, 3))
	assert.Equal(t, []string{RecommendMoreDocuments, RecommendSeniorReview}, a.Recommendations(model.RiskMedium, 4))
	assert.Equal(t, []string{RecommendProceed}, a.Recommendations(model.RiskLow, 0))
}

func TestConfidence(t *testing.T) {
	both := model.ConsistencyReport{DatesConsistent: true, AmountsConsistent: true, DocumentsWithDates: 2, InvoicesWithAmounts: 2}
	ok := model.DocumentFeatures{WordCount: 50}
	failed := model.DocumentFeatures{WordCount: 0}

	tests := []struct {
		name string
		a    model.LegitimacyAssessment
		want float64
	}{
		{"classifier with both checks", model.LegitimacyAssessment{Method: model.MethodClassifier, Consistency: both, Features: []model.DocumentFeatures{ok, ok}}, 0.9},
		{"classifier without checks", model.LegitimacyAssessment{Method: model.MethodClassifier, Features: []model.DocumentFeatures{ok}}, 0.75},
		{"rule based", model.LegitimacyAssessment{Method: model.MethodRuleBased, Consistency: both, Features: []model.DocumentFeatures{ok, ok}}, 0.6},
		{"classifier with failed document", model.LegitimacyAssessment{Method: model.MethodClassifier, Consistency: both, Features: []model.DocumentFeatures{ok, failed}}, 0.7},
		{"rule based with failed document", model.LegitimacyAssessment{Method: model.MethodRuleBased, Features: []model.DocumentFeatures{failed}}, 0.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.a
			assert.Equal(t, tt.want, Confidence(&a))
		})
	}
}
