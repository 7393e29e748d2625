package interview

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimrisk/internal/llm"
	"github.com/ppiankov/claimrisk/internal/model"
)

type scriptedCompleter struct {
	replies []*llm.CompletionResponse
	err     error
	delay   time.Duration
	calls   atomic.Int32
	lastReq atomic.Pointer[llm.CompletionRequest]
}

func (s *scriptedCompleter) Name() string                         { return "scripted" }
func (s *scriptedCompleter) IsAvailable(ctx context.Context) bool { return true }

func (s *scriptedCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	n := int(s.calls.Add(1)) - 1
	s.lastReq.Store(&req)
	if s.delay > 0 {
		time.Sleep(s.delay) // ignores ctx on purpose
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.replies[n%len(s.replies)], nil
}

func testConfig() model.InterviewConfig {
	return model.InterviewConfig{MaxTurns: 3, Timeout: time.Second, HistoryWindow: 5}
}

func startSession(t *testing.T, m *Machine, claimType string) *model.InterviewSession {
	t.Helper()
	s, _, err := m.Start(m.NewSession(model.ClaimContext{ClaimID: "CLM-1", ClaimType: claimType}))
	require.NoError(t, err)
	return s
}

func TestOpeningQuestion(t *testing.T) {
	assert.Equal(t, openers["hospitalization"], OpeningQuestion("Hospitalization"))
	assert.Equal(t, openers["hospitalization"], OpeningQuestion("hospitalisation"))
	assert.Equal(t, openers["medical_treatment"], OpeningQuestion("Medical Treatment"))
	assert.Equal(t, genericOpener, OpeningQuestion("Other"))
	assert.Equal(t, genericOpener, OpeningQuestion(""))
}

func TestStart(t *testing.T) {
	m := NewMachine(testConfig(), nil)
	fresh := m.NewSession(model.ClaimContext{ClaimType: "Surgery"})
	assert.Equal(t, model.StateAwaitingFirstQuestion, fresh.State)

	s, question, err := m.Start(fresh)
	require.NoError(t, err)
	assert.Equal(t, openers["surgery"], question)
	assert.Equal(t, model.StateAwaitingAnswer, s.State)
	require.Len(t, s.Turns, 1)
	assert.Equal(t, question, s.Turns[0].Question)

	// The input version is untouched
	assert.Equal(t, model.StateAwaitingFirstQuestion, fresh.State)
	assert.Empty(t, fresh.Turns)

	_, _, err = m.Start(s)
	assert.ErrorIs(t, err, model.ErrInvalidSessionState)
}

func TestAnswer_CompletesAfterThreeTurnsWithoutCollaborator(t *testing.T) {
	m := NewMachine(testConfig(), nil)
	s := startSession(t, m, "Hospitalization")

	for i := 0; i < 3; i++ {
		next, reply, err := m.Answer(context.Background(), s, "answer")
		require.NoError(t, err)
		assert.True(t, reply.Fallback)
		assert.Empty(t, reply.Indicators)
		assert.Equal(t, i+1, next.TurnCount())
		assert.Equal(t, i == 2, reply.IsComplete)
		assert.Equal(t, i == 2, IsComplete(next))
		s = next
	}

	assert.Equal(t, llm.ClosingMessage, s.Closing)
	assert.Len(t, s.Turns, 3)
}

func TestAnswer_AfterCompletionRejected(t *testing.T) {
	m := NewMachine(testConfig(), nil)
	s := startSession(t, m, "Emergency")
	for i := 0; i < 3; i++ {
		var err error
		s, _, err = m.Answer(context.Background(), s, "answer")
		require.NoError(t, err)
	}

	next, reply, err := m.Answer(context.Background(), s, "one more")
	assert.ErrorIs(t, err, model.ErrSessionCompleted)
	assert.ErrorIs(t, err, model.ErrInvalidSessionState)
	assert.Nil(t, next)
	assert.Nil(t, reply)
	assert.Equal(t, 3, s.TurnCount())
}

func TestAnswer_BeforeStartRejected(t *testing.T) {
	m := NewMachine(testConfig(), nil)
	_, _, err := m.Answer(context.Background(), m.NewSession(model.ClaimContext{}), "hello")
	assert.ErrorIs(t, err, model.ErrInvalidSessionState)

	_, _, err = m.Answer(context.Background(), nil, "hello")
	assert.ErrorIs(t, err, model.ErrInvalidSessionState)
}

func TestAnswer_EmptyRejected(t *testing.T) {
	m := NewMachine(testConfig(), nil)
	s := startSession(t, m, "Surgery")
	_, _, err := m.Answer(context.Background(), s, "   ")
	assert.ErrorIs(t, err, ErrEmptyAnswer)
	assert.Equal(t, 0, s.TurnCount())
}

func TestAnswer_UsesCollaborator(t *testing.T) {
	c := &scriptedCompleter{replies: []*llm.CompletionResponse{
		{Message: "Which doctor treated you?", Indicators: []string{"evasive answer", "evasive answer"}, FollowUps: []string{"Which doctor treated you?"}},
		{Message: "Who paid the bill?", Indicators: []string{}},
		{Message: "Thanks, that is all.", Indicators: []string{"inconsistent timeline"}},
	}}
	m := NewMachine(testConfig(), c)
	s := startSession(t, m, "Hospitalization")

	s1, r1, err := m.Answer(context.Background(), s, "I was admitted on Monday")
	require.NoError(t, err)
	assert.False(t, r1.Fallback)
	assert.Equal(t, "Which doctor treated you?", r1.Message)
	assert.Equal(t, []string{"evasive answer"}, r1.Indicators)
	require.Len(t, s1.Turns, 2)
	assert.Equal(t, "Which doctor treated you?", s1.Turns[1].Question)

	req := c.lastReq.Load()
	require.NotNil(t, req)
	assert.Equal(t, 0, req.TurnIndex)
	assert.False(t, req.Final)
	require.Len(t, req.History, 1)
	assert.Equal(t, "I was admitted on Monday", req.History[0].Answer)

	s2, _, err := m.Answer(context.Background(), s1, "Dr. Rao")
	require.NoError(t, err)
	s3, r3, err := m.Answer(context.Background(), s2, "My employer")
	require.NoError(t, err)

	assert.True(t, c.lastReq.Load().Final)
	assert.True(t, r3.IsComplete)
	assert.Equal(t, "Thanks, that is all.", r3.Message)
	assert.Equal(t, []string{"evasive answer", "inconsistent timeline"}, s3.Indicators())

	// Earlier versions keep their own indicators
	assert.Equal(t, []string{"evasive answer"}, s1.Indicators())
}

func TestAnswer_ClosingIgnoresQuestions(t *testing.T) {
	c := &scriptedCompleter{replies: []*llm.CompletionResponse{{Message: "Anything else?", Indicators: []string{}}}}
	m := NewMachine(model.InterviewConfig{MaxTurns: 1, Timeout: time.Second}, c)
	s := startSession(t, m, "Dental")

	_, reply, err := m.Answer(context.Background(), s, "A filling")
	require.NoError(t, err)
	assert.True(t, reply.IsComplete)
	assert.Equal(t, llm.ClosingMessage, reply.Message)
}

func TestAnswer_CollaboratorErrorFallsBack(t *testing.T) {
	c := &scriptedCompleter{err: errors.New("service down")}
	m := NewMachine(testConfig(), c)
	s := startSession(t, m, "Prescription")

	for i := 0; i < 3; i++ {
		next, reply, err := m.Answer(context.Background(), s, "answer")
		require.NoError(t, err)
		assert.True(t, reply.Fallback)
		assert.Empty(t, reply.Indicators)
		s = next
	}
	assert.True(t, IsComplete(s))
	assert.Equal(t, int32(3), c.calls.Load())
}

func TestAnswer_TimeoutFallsBack(t *testing.T) {
	c := &scriptedCompleter{
		replies: []*llm.CompletionResponse{{Message: "too late?"}},
		delay:   500 * time.Millisecond,
	}
	m := NewMachine(model.InterviewConfig{MaxTurns: 3, Timeout: 20 * time.Millisecond}, c)
	s := startSession(t, m, "Surgery")

	start := time.Now()
	next, reply, err := m.Answer(context.Background(), s, "answer")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
	assert.True(t, reply.Fallback)
	assert.Equal(t, 1, next.TurnCount())
	assert.True(t, next.Turns[0].Fallback)
}

func TestWindow(t *testing.T) {
	m := NewMachine(model.InterviewConfig{HistoryWindow: 2}, nil)
	turns := []model.Turn{{Question: "a"}, {Question: "b"}, {Question: "c"}}
	got := m.window(turns)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Question)

	got[0].Question = "changed"
	assert.Equal(t, "b", turns[1].Question)
}
