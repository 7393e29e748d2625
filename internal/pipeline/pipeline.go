// Package pipeline is the core facade: document assessment, the interview and the final verdict.
package pipeline

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/claimrisk/internal/cache"
	"github.com/ppiankov/claimrisk/internal/consistency"
	"github.com/ppiankov/claimrisk/internal/extract"
	"github.com/ppiankov/claimrisk/internal/interview"
	"github.com/ppiankov/claimrisk/internal/llm"
	"github.com/ppiankov/claimrisk/internal/model"
	"github.com/ppiankov/claimrisk/internal/ocr"
	"github.com/ppiankov/claimrisk/internal/score"
	"github.com/ppiankov/claimrisk/internal/verdict"
)

// Pipeline orchestrates per-claim processing. Claims are independent; within a claim
// the interview is strictly sequential.
type Pipeline struct {
	extractor  *extract.Extractor
	checker    *consistency.Checker
	scorer     *score.Scorer
	machine    *interview.Machine
	aggregator *verdict.Aggregator
	loader     *Loader
	config     *model.Config

	mu     sync.RWMutex
	claims map[string]*claimState
}

// claimState holds the published versions of a claim's records.
// Each pointer is replaced wholesale; readers never see a partial update.
type claimState struct {
	assessment atomic.Pointer[model.LegitimacyAssessment]
	session    atomic.Pointer[model.InterviewSession]
	verdict    atomic.Pointer[model.FraudVerdict]
	busy       atomic.Bool // An interview answer is in flight
}

// AnswerResult is returned to the portal for each interview answer
type AnswerResult struct {
	Message    string   `json:"message"`
	Indicators []string `json:"indicators"`
	FollowUps  []string `json:"follow_ups,omitempty"`
	IsComplete bool     `json:"is_complete"`
	Fallback   bool     `json:"fallback,omitempty"`
}

type options struct {
	completer     llm.Completer
	completerSet  bool
	classifier    score.Classifier
	classifierSet bool
	engine        ocr.Engine
	engineSet     bool
	cache         cache.Cache
	cacheSet      bool
}

// Option overrides a collaborator that would otherwise be built from config
type Option func(*options)

// WithCompleter sets the interview collaborator; nil selects the local generator
func WithCompleter(c llm.Completer) Option {
	return func(o *options) {
		o.completer = c
		o.completerSet = true
	}
}

// WithClassifier sets the legitimacy classifier; nil selects the rule-based path
func WithClassifier(c score.Classifier) Option {
	return func(o *options) {
		o.classifier = c
		o.classifierSet = true
	}
}

// WithOCREngine sets the OCR engine; nil disables OCR
func WithOCREngine(e ocr.Engine) Option {
	return func(o *options) {
		o.engine = e
		o.engineSet = true
	}
}

// WithCache sets the feature cache backend; nil disables caching
func WithCache(c cache.Cache) Option {
	return func(o *options) {
		o.cache = c
		o.cacheSet = true
	}
}

// NewPipeline creates a pipeline. Collaborators not given as options are built from cfg;
// whether a collaborator exists is decided here, once.
func NewPipeline(cfg *model.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if !o.completerSet {
		c, err := llm.NewCompleter(cfg.LLM)
		if err != nil {
			return nil, eris.Wrap(err, "llm provider")
		}
		o.completer = c
	}
	if !o.classifierSet {
		c, err := score.NewClassifier(cfg.Scoring, cfg.LLM.BreakerFailures)
		if err != nil {
			return nil, eris.Wrap(err, "classifier")
		}
		o.classifier = c
	}
	if !o.engineSet {
		e, err := ocr.NewEngine(cfg.Extract.OCR)
		if err != nil {
			return nil, eris.Wrap(err, "ocr engine")
		}
		o.engine = e
	}
	if !o.cacheSet {
		o.cache = cache.New(cfg.Cache)
	}

	store := cache.NewFeatureStore(o.cache, cfg.Cache.DiskTTL)

	zap.L().Debug("pipeline configured",
		zap.Bool("completer", o.completer != nil),
		zap.Bool("classifier", o.classifier != nil),
		zap.Bool("ocr", o.engine != nil),
		zap.Bool("cache", o.cache != nil),
	)

	return &Pipeline{
		extractor:  extract.New(cfg.Extract, o.engine, extract.WithFeatureStore(store)),
		checker:    consistency.NewChecker(cfg.Consistency),
		scorer:     score.NewScorer(cfg.Scoring, o.classifier),
		machine:    interview.NewMachine(cfg.Interview, o.completer),
		aggregator: verdict.NewAggregator(cfg.Verdict, cfg.Scoring.MinWordCount),
		loader:     NewLoader(cfg.Extract.OCR.Timeout, cfg.Extract.MaxDocumentBytes),
		config:     cfg,
		claims:     make(map[string]*claimState),
	}, nil
}

// Loader returns the document loader used for file and URL references
func (p *Pipeline) Loader() *Loader {
	return p.loader
}

// AssessDocuments extracts, checks and scores a claim's documents and publishes the assessment.
// Unreadable documents are reported in the assessment's warnings, never as errors.
func (p *Pipeline) AssessDocuments(ctx context.Context, claimID string, docs []model.DocumentInput) (*model.LegitimacyAssessment, error) {
	if len(docs) == 0 {
		return nil, model.ErrNoDocuments
	}

	features, warnings := p.extractor.ExtractAll(ctx, docs)
	report := p.checker.Check(features)

	assessment, err := p.scorer.Score(ctx, claimID, features, report)
	if err != nil {
		return nil, err
	}
	assessment.Warnings = warnings

	p.state(claimID, true).assessment.Store(assessment)

	zap.L().Info("documents assessed",
		zap.String("claim_id", claimID),
		zap.Int("documents", len(docs)),
		zap.Float64("legit_percentage", assessment.LegitPercentage),
		zap.String("method", string(assessment.Method)),
		zap.Int("warnings", len(warnings)),
	)
	return assessment, nil
}

// Assessment returns the published assessment of a claim
func (p *Pipeline) Assessment(claimID string) (*model.LegitimacyAssessment, bool) {
	st := p.state(claimID, false)
	if st == nil {
		return nil, false
	}
	a := st.assessment.Load()
	return a, a != nil
}

// InterviewStart opens a new interview and returns its first question.
// A session still in progress must be completed first.
func (p *Pipeline) InterviewStart(ctx context.Context, claimID string, claim model.ClaimContext) (string, error) {
	claim.ClaimID = claimID
	if len(claim.Documents) == 0 {
		if a, ok := p.Assessment(claimID); ok {
			claim.Documents = documentLabels(a)
		}
	}

	st := p.state(claimID, true)
	if !st.busy.CompareAndSwap(false, true) {
		return "", model.ErrSessionBusy
	}
	defer st.busy.Store(false)

	if current := st.session.Load(); current != nil && !current.IsComplete() {
		return "", eris.Wrap(model.ErrInvalidSessionState, "interview already in progress")
	}

	session, question, err := p.machine.Start(p.machine.NewSession(claim))
	if err != nil {
		return "", err
	}
	st.session.Store(session)
	st.verdict.Store(nil)

	zap.L().Info("interview started",
		zap.String("claim_id", claimID),
		zap.String("session_id", session.ID),
		zap.Bool("collaborator", p.machine.HasCompleter()),
	)
	return question, nil
}

// InterviewAnswer records an answer. Concurrent answers for one claim are rejected with
// model.ErrSessionBusy; the session version is swapped only after the collaborator returns.
func (p *Pipeline) InterviewAnswer(ctx context.Context, claimID, text string) (*AnswerResult, error) {
	st := p.state(claimID, false)
	if st == nil {
		return nil, eris.Wrapf(model.ErrClaimNotFound, "claim %s", claimID)
	}
	if st.session.Load() == nil {
		return nil, eris.Wrapf(model.ErrInvalidSessionState, "no interview for claim %s", claimID)
	}

	if !st.busy.CompareAndSwap(false, true) {
		return nil, model.ErrSessionBusy
	}
	defer st.busy.Store(false)

	next, reply, err := p.machine.Answer(ctx, st.session.Load(), text)
	if err != nil {
		return nil, err
	}
	st.session.Store(next)

	return &AnswerResult{
		Message:    reply.Message,
		Indicators: reply.Indicators,
		FollowUps:  reply.FollowUps,
		IsComplete: reply.IsComplete,
		Fallback:   reply.Fallback,
	}, nil
}

// Session returns the published interview session of a claim
func (p *Pipeline) Session(claimID string) (*model.InterviewSession, bool) {
	st := p.state(claimID, false)
	if st == nil {
		return nil, false
	}
	s := st.session.Load()
	return s, s != nil
}

// Finalize aggregates the assessment and the completed interview. Calling it again
// recomputes the verdict from the current records and replaces the previous one.
func (p *Pipeline) Finalize(ctx context.Context, claimID string) (*model.FraudVerdict, error) {
	st := p.state(claimID, false)
	if st == nil {
		return nil, eris.Wrapf(model.ErrClaimNotFound, "claim %s", claimID)
	}

	assessment := st.assessment.Load()
	if assessment == nil {
		return nil, eris.Wrapf(model.ErrNoDocuments, "claim %s has no assessment", claimID)
	}

	v, err := p.aggregator.Aggregate(assessment, st.session.Load())
	if err != nil {
		return nil, err
	}
	st.verdict.Store(v)

	zap.L().Info("claim finalized",
		zap.String("claim_id", claimID),
		zap.Float64("fraud_score", v.FraudScore),
		zap.String("risk_level", string(v.RiskLevel)),
		zap.Int("indicators", len(v.Indicators)),
	)
	return v, nil
}

// Verdict returns the last verdict of a claim
func (p *Pipeline) Verdict(claimID string) (*model.FraudVerdict, bool) {
	st := p.state(claimID, false)
	if st == nil {
		return nil, false
	}
	v := st.verdict.Load()
	return v, v != nil
}

// RunClaim processes a scripted claim end to end: load, assess, interview, finalize
func (p *Pipeline) RunClaim(ctx context.Context, spec model.ClaimSpec) (*model.FraudVerdict, error) {
	docs, err := p.loader.LoadAll(ctx, spec.Documents)
	if err != nil {
		return nil, eris.Wrapf(err, "claim %s: load documents", spec.ClaimID)
	}

	if _, err := p.AssessDocuments(ctx, spec.ClaimID, docs); err != nil {
		return nil, eris.Wrapf(err, "claim %s: assess", spec.ClaimID)
	}

	if _, err := p.InterviewStart(ctx, spec.ClaimID, spec.Context()); err != nil {
		return nil, eris.Wrapf(err, "claim %s: start interview", spec.ClaimID)
	}

	for i := 0; ; i++ {
		answer := "No further information."
		if i < len(spec.Answers) {
			answer = spec.Answers[i]
		}
		res, err := p.InterviewAnswer(ctx, spec.ClaimID, answer)
		if err != nil {
			return nil, eris.Wrapf(err, "claim %s: answer %d", spec.ClaimID, i+1)
		}
		if res.IsComplete {
			break
		}
	}

	return p.Finalize(ctx, spec.ClaimID)
}

// state returns the claim's state, creating it when create is set
func (p *Pipeline) state(claimID string, create bool) *claimState {
	p.mu.RLock()
	st, ok := p.claims[claimID]
	p.mu.RUnlock()
	if ok || !create {
		return st
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.claims[claimID]; ok {
		return st
	}
	st = &claimState{}
	p.claims[claimID] = st
	return st
}

func documentLabels(a *model.LegitimacyAssessment) []string {
	labels := make([]string, 0, len(a.Features))
	for _, f := range a.Features {
		labels = append(labels, model.DocumentLabel(f.DeclaredType, filepath.Base(f.DocumentID)))
	}
	return labels
}
