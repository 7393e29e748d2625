package interview

import "strings"

const genericOpener = "Please describe in your own words what happened and what treatment you received."

// openers maps a normalised claim type to its first question
var openers = map[string]string{
	"medical_treatment": "Can you describe the medical treatment you received and why it was needed?",
	"hospitalization":   "Can you tell me when you were admitted to the hospital and what led to the admission?",
	"surgery":           "What surgery was performed, and who recommended it?",
	"emergency":         "Please describe the emergency: what happened and how quickly did you reach care?",
	"prescription":      "Which medicines were prescribed, and by which doctor?",
	"outpatient":        "What was the reason for your outpatient visit, and how many visits were there?",
	"dental":            "What dental treatment did you receive, and was it planned in advance?",
	"maternity":         "Can you tell me about the delivery, including the hospital and the admission dates?",
}

// OpeningQuestion returns the fixed first question for a claim type
func OpeningQuestion(claimType string) string {
	if q, ok := openers[normaliseClaimType(claimType)]; ok {
		return q
	}
	return genericOpener
}

// normaliseClaimType folds "Medical Treatment", "medical-treatment" and "medical_treatment" together
func normaliseClaimType(claimType string) string {
	s := strings.ToLower(strings.TrimSpace(claimType))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	if s == "hospitalisation" {
		return "hospitalization"
	}
	return s
}
