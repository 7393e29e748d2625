package llm

import (
	"context"
)

// FallbackName identifies replies produced without a collaborator
const FallbackName = "fallback"

var acknowledgements = []string{
	"Thank you for that information. Could you walk me through the dates of your treatment in order?",
	"I understand. Which hospital or clinic treated you, and who was the attending doctor?",
	"Thanks for clarifying. How were the bills paid, and do the amounts match your invoices?",
	"Noted. Were any of these expenses already claimed with another insurer?",
	"That helps. Is there anything else about this claim we should know?",
}

// ClosingMessage ends every interview
const ClosingMessage = "Thank you for answering our questions. Your responses have been recorded and will be reviewed together with your documents."

// Fallback is the deterministic local generator used when no collaborator answers.
// It acknowledges the answer and reports no indicators.
type Fallback struct{}

// NewFallback creates the local generator
func NewFallback() *Fallback {
	return &Fallback{}
}

// Name returns the provider name
func (f *Fallback) Name() string {
	return FallbackName
}

// IsAvailable always reports true
func (f *Fallback) IsAvailable(ctx context.Context) bool {
	return true
}

// Complete picks the acknowledgement for the turn index
func (f *Fallback) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if req.Final {
		return &CompletionResponse{Message: ClosingMessage, Indicators: []string{}, Model: FallbackName}, nil
	}
	idx := req.TurnIndex
	if idx < 0 {
		idx = 0
	}
	message := acknowledgements[idx%len(acknowledgements)]
	return &CompletionResponse{
		Message:    message,
		Indicators: []string{},
		FollowUps:  ExtractFollowUps(message),
		Model:      FallbackName,
	}, nil
}
