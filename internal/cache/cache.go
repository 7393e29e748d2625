// Package cache stores extracted document features keyed by document content,
// so re-assessing a claim with the same uploads skips text extraction and OCR.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/claimrisk/internal/model"
)

// keyVersion is bumped whenever feature parsing changes shape
const keyVersion = "claimrisk:features:v2:"

// Cache defines the byte-level cache backends
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// New builds the layered memory+disk cache from config, or nil when caching is disabled
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

// FeatureKey derives the cache key of a document from its bytes and the type hints
// that influence extraction. The caller-assigned document ID is not part of the key.
func FeatureKey(data []byte, declared model.DeclaredType, mediaType string) string {
	h := sha256.New()
	h.Write(data)
	h.Write([]byte{0})
	h.Write([]byte(declared))
	h.Write([]byte{0})
	h.Write([]byte(mediaType))
	return keyVersion + hex.EncodeToString(h.Sum(nil))
}

// FeatureStore is a typed view over a Cache holding DocumentFeatures
type FeatureStore struct {
	backend Cache
	ttl     time.Duration
}

// entry is the stored form. Failure keeps the reason an unreadable document yielded
// no text, so a cache hit reports the same warning as the original extraction.
type entry struct {
	Features model.DocumentFeatures `json:"features"`
	Failure  string                 `json:"failure,omitempty"`
}

// NewFeatureStore wraps a backend. A nil backend yields a store that never hits.
func NewFeatureStore(backend Cache, ttl time.Duration) *FeatureStore {
	return &FeatureStore{backend: backend, ttl: ttl}
}

// Get returns the cached features for key and the recorded failure reason, if any
func (s *FeatureStore) Get(key string) (model.DocumentFeatures, string, bool) {
	if s == nil || s.backend == nil {
		return model.DocumentFeatures{}, "", false
	}
	raw, ok := s.backend.Get(key)
	if !ok {
		return model.DocumentFeatures{}, "", false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		zap.L().Debug("cache: dropping undecodable entry", zap.String("key", key), zap.Error(err))
		_ = s.backend.Delete(key)
		return model.DocumentFeatures{}, "", false
	}
	return e.Features, e.Failure, true
}

// Put stores features under key with an optional failure reason.
// Failures are logged and otherwise ignored.
func (s *FeatureStore) Put(key string, f model.DocumentFeatures, failure string) {
	if s == nil || s.backend == nil {
		return
	}
	raw, err := json.Marshal(entry{Features: f, Failure: failure})
	if err != nil {
		zap.L().Warn("cache: marshal features", zap.String("document_id", f.DocumentID), zap.Error(err))
		return
	}
	if err := s.backend.Set(key, raw, s.ttl); err != nil {
		zap.L().Warn("cache: store features", zap.String("document_id", f.DocumentID), zap.Error(err))
	}
}
