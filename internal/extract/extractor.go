// Package extract turns uploaded claim documents into typed feature records.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/claimrisk/internal/cache"
	"github.com/ppiankov/claimrisk/internal/extract/adapters"
	"github.com/ppiankov/claimrisk/internal/metrics"
	"github.com/ppiankov/claimrisk/internal/model"
	"github.com/ppiankov/claimrisk/internal/ocr"
)

// Extractor recovers text from documents and parses features from it.
// Extraction failures never surface as errors; they degrade to the all-absent record
// and are reported as warnings.
type Extractor struct {
	registry *adapters.Registry
	store    *cache.FeatureStore
	maxBytes int64
	workers  int
	timeout  time.Duration // Per-document bound on text recovery, mostly OCR
}

// Option configures an Extractor
type Option func(*Extractor)

// WithFeatureStore enables the feature cache
func WithFeatureStore(store *cache.FeatureStore) Option {
	return func(e *Extractor) {
		e.store = store
	}
}

// WithRegistry replaces the default adapter registry
func WithRegistry(r *adapters.Registry) Option {
	return func(e *Extractor) {
		e.registry = r
	}
}

// New creates an Extractor. A nil engine disables OCR.
func New(cfg model.ExtractConfig, engine ocr.Engine, opts ...Option) *Extractor {
	e := &Extractor{
		registry: adapters.NewRegistry(engine),
		maxBytes: cfg.MaxDocumentBytes,
		workers:  cfg.Workers,
		timeout:  cfg.OCR.Timeout,
	}
	if e.workers <= 0 {
		e.workers = 1
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the features of one document. The features are always usable;
// a non-nil warning wraps model.ErrExtractionFailed and explains why they are empty.
func (e *Extractor) Extract(ctx context.Context, in model.DocumentInput) (features model.DocumentFeatures, warning error) {
	if in.DocumentID == "" {
		in.DocumentID = uuid.NewString()
	}
	declared := model.ParseDeclaredType(string(in.DeclaredType))
	mediaType := adapters.DetectMediaType(in.Data, in.MediaType)

	if len(in.Data) == 0 {
		return model.NewEmptyFeatures(in.DocumentID, declared, mediaType),
			eris.Wrapf(model.ErrExtractionFailed, "document %s: empty content", in.DocumentID)
	}
	if e.maxBytes > 0 && int64(len(in.Data)) > e.maxBytes {
		return model.NewEmptyFeatures(in.DocumentID, declared, mediaType),
			eris.Wrapf(model.ErrExtractionFailed, "document %s: %d bytes exceeds limit of %d", in.DocumentID, len(in.Data), e.maxBytes)
	}

	key := cache.FeatureKey(in.Data, declared, mediaType)
	if cached, failure, ok := e.store.Get(key); ok {
		cached.DocumentID = in.DocumentID
		zap.L().Debug("features served from cache", zap.String("document_id", in.DocumentID))
		if cached.ExtractionFailed() {
			return cached, failureWarning(in.DocumentID, failure)
		}
		return cached, nil
	}

	adapter := e.registry.FindAdapter(mediaType)
	extractCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		extractCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	res, err := adapter.ExtractText(extractCtx, in.Data, mediaType)
	if err != nil {
		features = model.NewEmptyFeatures(in.DocumentID, declared, mediaType)
		if extractCtx.Err() != nil {
			// Timed-out or cancelled runs are not cached as failures
			return features, eris.Wrapf(model.ErrExtractionFailed, "document %s: %v", in.DocumentID, extractCtx.Err())
		}
		failure := fmt.Sprintf("(%s via %s): %v", mediaType, adapter.Name(), err)
		if errors.Is(err, ocr.ErrEngineUnavailable) {
			// The engine may recover; only failures caused by the document itself are cached
			return features, failureWarning(in.DocumentID, failure)
		}
		failure = strings.ToValidUTF8(failure, "\uFFFD")
		e.store.Put(key, features, failure)
		return features, failureWarning(in.DocumentID, failure)
	}

	// Invalid UTF-8 would not survive the JSON cache unchanged
	text := strings.ToValidUTF8(res.Text, "\uFFFD")
	features = ParseFeatures(in.DocumentID, declared, mediaType, text)
	features.OCR = res.OCR && !features.ExtractionFailed()

	failure := ""
	if features.ExtractionFailed() {
		failure = fmt.Sprintf("(%s via %s): no readable text", mediaType, adapter.Name())
	}
	e.store.Put(key, features, failure)

	if failure != "" {
		return features, failureWarning(in.DocumentID, failure)
	}
	return features, nil
}

func failureWarning(documentID, failure string) error {
	if failure == "" {
		failure = ": no readable text"
	}
	return eris.Wrapf(model.ErrExtractionFailed, "document %s %s", documentID, failure)
}

// ExtractAll extracts every document of a claim in parallel, bounded by the worker count.
// Results keep input order; warnings are returned as display strings.
func (e *Extractor) ExtractAll(ctx context.Context, docs []model.DocumentInput) ([]model.DocumentFeatures, []string) {
	features := make([]model.DocumentFeatures, len(docs))
	warnings := make([]error, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, doc := range docs {
		g.Go(func() error {
			features[i], warnings[i] = e.Extract(gctx, doc)
			return nil
		})
	}
	_ = g.Wait()

	var out []string
	for i, w := range warnings {
		metrics.RecordExtraction(features[i].MediaType, features[i].ExtractionFailed())
		if w == nil {
			continue
		}
		zap.L().Warn("document extraction degraded",
			zap.String("document_id", features[i].DocumentID),
			zap.String("media_type", features[i].MediaType),
			zap.Error(w),
		)
		out = append(out, fmt.Sprint(w))
	}
	return features, out
}
