package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/claimrisk/internal/model"
)

// Completer defines the interface for text-completion collaborators used by the interview
type Completer interface {
	// Name returns the provider name (e.g., "openai", "anthropic")
	Name() string

	// Complete produces the next interviewer message for the conversation so far
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is reachable and configured
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest carries the claim context and the running conversation
type CompletionRequest struct {
	Context   model.ClaimContext
	History   []model.Turn // Oldest first; the last turn holds the answer just given
	TurnIndex int          // Zero-based index of the turn being answered
	Final     bool         // No further question will be asked after this reply
}

// CompletionResponse is the collaborator's reply for one turn
type CompletionResponse struct {
	Message    string
	Indicators []string
	FollowUps  []string
	Model      string
}

// Message is one entry of a chat transcript
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

const systemPrompt = `You are a fraud investigator interviewing a health insurance claimant.
Ask one short, specific question at a time about the claim: timeline, treatment, billing and documents.
Be polite and neutral; never accuse the claimant.
Reply with a JSON object only:
{"message": "<your next question>", "indicators": ["<short fraud indicator>", ...]}
List an indicator only for concrete problems in the claimant's answers (for example "inconsistent timeline"
or "evasive answer"). Use an empty list when there is nothing suspicious.`

const finalInstruction = `This was the claimant's last answer. Do not ask another question.
Reply with a brief closing acknowledgement in "message" and the indicators for this answer.`

// SystemPrompt returns the instructions for the given request
func SystemPrompt(req CompletionRequest) string {
	if req.Final {
		return systemPrompt + "\n\n" + finalInstruction
	}
	return systemPrompt
}

// BuildClaimContext renders the claim description handed to the collaborator
func BuildClaimContext(claim model.ClaimContext) string {
	var sb strings.Builder
	sb.WriteString("Claim context:\n")
	fmt.Fprintf(&sb, "- Claim type: %s\n", orUnknown(claim.ClaimType))
	fmt.Fprintf(&sb, "- Incident date: %s\n", orUnknown(claim.IncidentDate))
	fmt.Fprintf(&sb, "- Description: %s\n", orUnknown(claim.Description))

	if len(claim.Documents) == 0 {
		sb.WriteString("- Uploaded documents: none\n")
	} else {
		sb.WriteString("- Uploaded documents:\n")
		for _, doc := range claim.Documents {
			fmt.Fprintf(&sb, "  - %s\n", doc)
		}
	}
	return sb.String()
}

// BuildMessages converts a request into an alternating chat transcript.
// The claim context opens as a user message so the transcript always starts and ends with the user.
func BuildMessages(req CompletionRequest) []Message {
	messages := []Message{{Role: "user", Content: BuildClaimContext(req.Context)}}
	for _, turn := range req.History {
		messages = append(messages, Message{Role: "assistant", Content: turn.Question})
		if turn.Answered {
			messages = append(messages, Message{Role: "user", Content: turn.Answer})
		}
	}
	return messages
}

// BuildPrompt flattens a request into a single prompt for completion-style APIs
func BuildPrompt(req CompletionRequest) string {
	var sb strings.Builder
	sb.WriteString(BuildClaimContext(req.Context))

	if len(req.History) > 0 {
		sb.WriteString("\nConversation so far:\n")
		for _, turn := range req.History {
			fmt.Fprintf(&sb, "Q: %s\n", turn.Question)
			if turn.Answered {
				fmt.Fprintf(&sb, "A: %s\n", turn.Answer)
			}
		}
	}

	if req.Final {
		sb.WriteString("\n" + finalInstruction + "\n")
	} else {
		sb.WriteString("\nAsk the next question.\n")
	}
	return sb.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not provided"
	}
	return s
}
