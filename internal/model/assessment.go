package model

// ConsistencyReport captures cross-document agreement for one claim.
// It is derived from the claim's feature set and recomputed from scratch.
type ConsistencyReport struct {
	DatesConsistent     bool    `json:"dates_consistent"`
	AmountsConsistent   bool    `json:"amounts_consistent"`
	DocumentsWithDates  int     `json:"documents_with_dates"`
	InvoicesWithAmounts int     `json:"invoices_with_amounts"`
	DateSpanDays        int     `json:"date_span_days"`
	MaxAmountDeviation  float64 `json:"max_amount_deviation"`
}

// DateCheckRan reports whether enough documents carried dates to compare them
func (r ConsistencyReport) DateCheckRan() bool {
	return r.DocumentsWithDates >= 2
}

// AmountCheckRan reports whether enough invoices carried amounts to compare them
func (r ConsistencyReport) AmountCheckRan() bool {
	return r.InvoicesWithAmounts >= 2
}

// ScoringMethod records which path produced a legitimacy percentage
type ScoringMethod string

const (
	MethodClassifier ScoringMethod = "classifier"
	MethodRuleBased  ScoringMethod = "rule_based"
)

// ScoreSignal is one transparent contribution to a rule-based score
type ScoreSignal struct {
	Rule        string  `json:"rule"`
	Delta       float64 `json:"delta"`
	DocumentID  string  `json:"document_id,omitempty"` // Empty for claim-level rules
	Description string  `json:"description"`
}

// LegitimacyAssessment is the scorer output for one claim
type LegitimacyAssessment struct {
	ClaimID         string             `json:"claim_id"`
	LegitPercentage float64            `json:"legit_percentage"`
	Method          ScoringMethod      `json:"method"`
	Features        []DocumentFeatures `json:"per_document_features"`
	Consistency     ConsistencyReport  `json:"consistency"`
	Signals         []ScoreSignal      `json:"signals,omitempty"`  // Rule-based breakdown
	Warnings        []string           `json:"warnings,omitempty"` // Non-fatal extraction problems
}

// HasExtractionFailure reports whether any consumed document yielded no text
func (a LegitimacyAssessment) HasExtractionFailure() bool {
	for _, f := range a.Features {
		if f.ExtractionFailed() {
			return true
		}
	}
	return false
}
