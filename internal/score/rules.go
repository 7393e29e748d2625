package score

import (
	"fmt"
	"math"

	"github.com/ppiankov/claimrisk/internal/model"
)

// Rule point deltas
const (
	presenceBonus        = 5
	sufficientTextBonus  = 3
	shortDocumentPenalty = -10
	noDatesPenalty       = -5
	missingAmountPenalty = -10
	inconsistencyPenalty = -10
)

// RuleScorer is the deterministic fallback strategy. Presence flags are OR'd across
// the claim so duplicate uploads cannot inflate the score; length and invoice rules
// apply per document.
type RuleScorer struct {
	baseline        float64
	minWords        int
	sufficientWords int
}

// NewRuleScorer creates a rule scorer from config
func NewRuleScorer(cfg model.ScoringConfig) *RuleScorer {
	return &RuleScorer{
		baseline:        cfg.Baseline,
		minWords:        cfg.MinWordCount,
		sufficientWords: cfg.SufficientWordCount,
	}
}

// Score returns the clamped legitimacy percentage and the signals that produced it
func (r *RuleScorer) Score(features []model.DocumentFeatures, report model.ConsistencyReport) (float64, []model.ScoreSignal) {
	var signals []model.ScoreSignal
	add := func(rule string, delta float64, docID, desc string) {
		signals = append(signals, model.ScoreSignal{Rule: rule, Delta: delta, DocumentID: docID, Description: desc})
	}

	var flags model.Flags
	anyDates := false
	for _, f := range features {
		flags = flags.Or(f.Flags)
		anyDates = anyDates || f.HasDates()
	}

	presence := []struct {
		rule string
		set  bool
		desc string
	}{
		{"has_signature", flags.HasSignature, "signature present"},
		{"has_stamp", flags.HasStamp, "stamp or seal present"},
		{"has_doctor_name", flags.HasDoctorName, "doctor named"},
		{"has_hospital_name", flags.HasHospitalName, "hospital or clinic named"},
		{"has_medical_terms", flags.HasMedicalTerms, "medical terminology present"},
	}
	for _, p := range presence {
		if p.set {
			add(p.rule, presenceBonus, "", p.desc)
		}
	}

	for _, f := range features {
		switch {
		case f.WordCount > r.sufficientWords:
			add("sufficient_text", sufficientTextBonus, f.DocumentID,
				fmt.Sprintf("%d words exceeds %d", f.WordCount, r.sufficientWords))
		case f.WordCount < r.minWords:
			add("short_document", shortDocumentPenalty, f.DocumentID,
				fmt.Sprintf("%d words is below %d", f.WordCount, r.minWords))
		}
		if f.IsInvoice() && !f.HasAmounts() {
			add("invoice_missing_amount", missingAmountPenalty, f.DocumentID, "invoice without any amount")
		}
	}

	if !anyDates {
		add("no_dates", noDatesPenalty, "", "no dates found in any document")
	}
	if !report.DatesConsistent {
		add("dates_inconsistent", inconsistencyPenalty, "",
			fmt.Sprintf("dates span %d days", report.DateSpanDays))
	}
	if !report.AmountsConsistent {
		add("amounts_inconsistent", inconsistencyPenalty, "",
			fmt.Sprintf("invoice totals deviate by %.0f%%", math.Min(report.MaxAmountDeviation, 100)*100))
	}

	total := r.baseline
	for _, s := range signals {
		total += s.Delta
	}
	return clampPercent(total), signals
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
