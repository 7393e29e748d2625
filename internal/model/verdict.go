package model

// RiskLevel is the banded fraud risk
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// FraudVerdict is the terminal artifact for a claim; recomputation replaces it wholesale
type FraudVerdict struct {
	ClaimID          string        `json:"claim_id"`
	FraudScore       float64       `json:"fraud_score"`
	RiskLevel        RiskLevel     `json:"risk_level"`
	Indicators       []string      `json:"indicators"`
	Recommendations  []string      `json:"recommendations"`
	Confidence       float64       `json:"confidence"`
	LegitPercentage  float64       `json:"legit_percentage"`
	Method           ScoringMethod `json:"method"`
	InterviewPenalty float64       `json:"interview_penalty"`
}
