package model

// SessionState is the interview state machine position
type SessionState string

const (
	StateAwaitingFirstQuestion SessionState = "awaiting_first_question"
	StateAwaitingAnswer        SessionState = "awaiting_answer"
	StateCompleted             SessionState = "completed"
)

// ClaimContext describes the claim to the interview and its collaborator
type ClaimContext struct {
	ClaimID      string   `json:"claim_id"`
	ClaimType    string   `json:"claim_type"`
	IncidentDate string   `json:"incident_date,omitempty"`
	Description  string   `json:"description,omitempty"`
	Documents    []string `json:"documents,omitempty"` // "<declared_type>: <filename>" lines
}

// Turn is one question/answer exchange
type Turn struct {
	Question   string   `json:"question"`
	Answer     string   `json:"answer,omitempty"`
	Answered   bool     `json:"answered"`
	Indicators []string `json:"indicators"`
	FollowUps  []string `json:"follow_ups,omitempty"`
	Fallback   bool     `json:"fallback,omitempty"` // Reply came from the local generator
}

// InterviewSession is the per-claim dialogue record. Turns are append-only.
type InterviewSession struct {
	ID       string       `json:"id"`
	Context  ClaimContext `json:"context"`
	State    SessionState `json:"state"`
	Turns    []Turn       `json:"turns"`
	MaxTurns int          `json:"max_turns"`
	Closing  string       `json:"closing,omitempty"`
}

// TurnCount is the number of answered turns
func (s *InterviewSession) TurnCount() int {
	n := 0
	for _, t := range s.Turns {
		if t.Answered {
			n++
		}
	}
	return n
}

// IsComplete reports whether the session reached its terminal state
func (s *InterviewSession) IsComplete() bool {
	return s.State == StateCompleted
}

// Indicators returns interview indicators in turn order, duplicates included
func (s *InterviewSession) Indicators() []string {
	var out []string
	for _, t := range s.Turns {
		out = append(out, t.Indicators...)
	}
	return out
}

// Clone returns a deep copy so a new version can be built without touching the published one
func (s *InterviewSession) Clone() *InterviewSession {
	c := *s
	c.Context.Documents = append([]string(nil), s.Context.Documents...)
	c.Turns = make([]Turn, len(s.Turns))
	for i, t := range s.Turns {
		t.Indicators = append([]string(nil), t.Indicators...)
		t.FollowUps = append([]string(nil), t.FollowUps...)
		c.Turns[i] = t
	}
	return &c
}
