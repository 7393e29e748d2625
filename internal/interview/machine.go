// Package interview runs the three-turn fraud interview as an explicit state machine.
// Machine methods never modify the session they are given; they return a new version
// that the caller publishes once the collaborator call has returned.
package interview

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/claimrisk/internal/llm"
	"github.com/ppiankov/claimrisk/internal/metrics"
	"github.com/ppiankov/claimrisk/internal/model"
)

// ErrEmptyAnswer is returned for blank answers; the session is left untouched
var ErrEmptyAnswer = eris.New("answer is empty")

// Reply is what the claimant sees after an answer
type Reply struct {
	Message    string
	Indicators []string
	FollowUps  []string
	IsComplete bool
	Fallback   bool // Produced by the local generator
}

// Machine drives interview sessions
type Machine struct {
	completer     llm.Completer // nil means the local generator only
	fallback      *llm.Fallback
	maxTurns      int
	timeout       time.Duration
	historyWindow int
}

// NewMachine creates an interview machine. A nil completer is allowed.
func NewMachine(cfg model.InterviewConfig, completer llm.Completer) *Machine {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 5
	}
	return &Machine{
		completer:     completer,
		fallback:      llm.NewFallback(),
		maxTurns:      cfg.MaxTurns,
		timeout:       cfg.Timeout,
		historyWindow: cfg.HistoryWindow,
	}
}

// HasCompleter reports whether a collaborator is configured
func (m *Machine) HasCompleter() bool {
	return m.completer != nil
}

// NewSession returns a session awaiting its first question
func (m *Machine) NewSession(claim model.ClaimContext) *model.InterviewSession {
	return &model.InterviewSession{
		ID:       uuid.NewString(),
		Context:  claim,
		State:    model.StateAwaitingFirstQuestion,
		Turns:    []model.Turn{},
		MaxTurns: m.maxTurns,
	}
}

// Start asks the opening question for the claim type
func (m *Machine) Start(session *model.InterviewSession) (*model.InterviewSession, string, error) {
	if session == nil || session.State != model.StateAwaitingFirstQuestion {
		return nil, "", eris.Wrap(model.ErrInvalidSessionState, "interview already started")
	}

	next := session.Clone()
	question := OpeningQuestion(next.Context.ClaimType)
	next.Turns = append(next.Turns, model.Turn{Question: question, Indicators: []string{}})
	next.State = model.StateAwaitingAnswer
	return next, question, nil
}

// Answer records the claimant's answer to the open question and produces the next message.
// The returned session is a new version; on error the input session is still current.
func (m *Machine) Answer(ctx context.Context, session *model.InterviewSession, text string) (*model.InterviewSession, *Reply, error) {
	if session == nil {
		return nil, nil, eris.Wrap(model.ErrInvalidSessionState, "no interview session")
	}
	switch session.State {
	case model.StateCompleted:
		return nil, nil, model.ErrSessionCompleted
	case model.StateAwaitingAnswer:
	default:
		return nil, nil, eris.Wrap(model.ErrInvalidSessionState, "interview not started")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil, ErrEmptyAnswer
	}

	next := session.Clone()
	idx := len(next.Turns) - 1
	next.Turns[idx].Answer = text
	next.Turns[idx].Answered = true

	answered := next.TurnCount()
	final := answered >= next.MaxTurns

	req := llm.CompletionRequest{
		Context:   next.Context,
		History:   m.window(next.Turns),
		TurnIndex: answered - 1,
		Final:     final,
	}
	resp, usedFallback := m.complete(ctx, req)
	metrics.RecordInterviewTurn(usedFallback)

	turn := &next.Turns[idx]
	turn.Indicators = llm.NormalizeIndicators(resp.Indicators)
	turn.FollowUps = resp.FollowUps
	turn.Fallback = usedFallback

	reply := &Reply{
		Indicators: turn.Indicators,
		FollowUps:  turn.FollowUps,
		Fallback:   usedFallback,
	}

	if final {
		next.State = model.StateCompleted
		next.Closing = closingMessage(resp)
		reply.Message = next.Closing
		reply.IsComplete = true
		reply.FollowUps = nil
		return next, reply, nil
	}

	next.Turns = append(next.Turns, model.Turn{Question: resp.Message, Indicators: []string{}})
	reply.Message = resp.Message
	return next, reply, nil
}

// IsComplete reports whether the session has reached its terminal state
func IsComplete(session *model.InterviewSession) bool {
	return session != nil && session.IsComplete()
}

// complete calls the collaborator under the turn timeout. Any failure, including a
// collaborator that ignores cancellation, yields the local generator's reply.
func (m *Machine) complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, bool) {
	if m.completer == nil {
		resp, _ := m.fallback.Complete(ctx, req)
		return resp, true
	}

	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	type result struct {
		resp *llm.CompletionResponse
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := m.completer.Complete(callCtx, req)
		done <- result{resp: resp, err: err}
	}()

	var err error
	select {
	case r := <-done:
		if r.err == nil && r.resp != nil && strings.TrimSpace(r.resp.Message) != "" {
			return r.resp, false
		}
		err = r.err
		if err == nil {
			err = eris.New("empty completion")
		}
	case <-callCtx.Done():
		err = callCtx.Err()
	}

	zap.L().Warn("interview collaborator failed, using local generator",
		zap.String("claim_id", req.Context.ClaimID),
		zap.String("provider", m.completer.Name()),
		zap.Int("turn", req.TurnIndex+1),
		zap.Error(err),
	)
	resp, _ := m.fallback.Complete(ctx, req)
	return resp, true
}

// window keeps the most recent turns handed to the collaborator
func (m *Machine) window(turns []model.Turn) []model.Turn {
	if len(turns) > m.historyWindow {
		turns = turns[len(turns)-m.historyWindow:]
	}
	// The collaborator may outlive the call, so it gets its own copy
	return append([]model.Turn(nil), turns...)
}

// closingMessage keeps the collaborator's acknowledgement unless it asks another question
func closingMessage(resp *llm.CompletionResponse) string {
	msg := strings.TrimSpace(resp.Message)
	if msg == "" || strings.Contains(msg, "?") {
		return llm.ClosingMessage
	}
	return msg
}
