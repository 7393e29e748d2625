package score

import (
	"math"

	"github.com/ppiankov/claimrisk/internal/model"
)

// FeatureNames are the classifier input dimensions, in vector order.
// Changing this list invalidates trained model files.
var FeatureNames = []string{
	"document_count",
	"mean_type_weight",
	"log_text_length",
	"log_word_count",
	"date_count",
	"amount_count",
	"phone_count",
	"email_count",
	"has_signature",
	"has_stamp",
	"has_doctor_name",
	"has_hospital_name",
	"has_medical_terms",
	"has_policy_number",
	"has_claim_number",
	"medical_terms",
	"prescription_terms",
	"invoice_terms",
	"dates_consistent",
	"amounts_consistent",
	"failed_document_ratio",
	"invoices_missing_amounts",
}

var typeWeights = map[model.DeclaredType]float64{
	model.DeclaredMedicalReport: 1.0,
	model.DeclaredPrescription:  0.8,
	model.DeclaredInvoice:       0.6,
	model.DeclaredOther:         0.5,
}

// Vector reduces a claim's features and consistency report to the fixed-order classifier input
func Vector(features []model.DocumentFeatures, report model.ConsistencyReport) []float64 {
	var (
		typeSum, textLen, words      float64
		dates, amounts, phones, mail float64
		medical, rx, invoice         float64
		failed, missingAmounts       float64
		flags                        model.Flags
	)

	for _, f := range features {
		w, ok := typeWeights[f.DeclaredType]
		if !ok {
			w = typeWeights[model.DeclaredOther]
		}
		typeSum += w
		textLen += float64(f.RawTextLength)
		words += float64(f.WordCount)
		dates += float64(len(f.ExtractedDates))
		amounts += float64(len(f.ExtractedAmts))
		phones += float64(len(f.Contacts.Phones))
		mail += float64(len(f.Contacts.Emails))
		medical += float64(f.Terms.Medical)
		rx += float64(f.Terms.Prescription)
		invoice += float64(f.Terms.Invoice)
		flags = flags.Or(f.Flags)
		if f.ExtractionFailed() {
			failed++
		}
		if f.IsInvoice() && !f.HasAmounts() {
			missingAmounts++
		}
	}

	n := float64(len(features))
	meanType, failedRatio := 0.0, 0.0
	if n > 0 {
		meanType = typeSum / n
		failedRatio = failed / n
	}

	return []float64{
		n,
		meanType,
		math.Log1p(textLen),
		math.Log1p(words),
		dates,
		amounts,
		phones,
		mail,
		boolFloat(flags.HasSignature),
		boolFloat(flags.HasStamp),
		boolFloat(flags.HasDoctorName),
		boolFloat(flags.HasHospitalName),
		boolFloat(flags.HasMedicalTerms),
		boolFloat(flags.HasPolicyNumber),
		boolFloat(flags.HasClaimNumber),
		medical,
		rx,
		invoice,
		boolFloat(report.DatesConsistent),
		boolFloat(report.AmountsConsistent),
		failedRatio,
		missingAmounts,
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
