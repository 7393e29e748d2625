package adapters

import (
	"context"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ppiankov/claimrisk/internal/ocr"
)

// Result is the text recovered from one document
type Result struct {
	Text string
	OCR  bool // Text came from optical recognition
}

// Adapter defines the interface for media-type specific text extractors
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter can handle the given media type
	CanHandle(mediaType string) bool

	// ExtractText recovers the readable text of the document
	ExtractText(ctx context.Context, data []byte, mediaType string) (Result, error)
}

// Registry manages media-type adapters
type Registry struct {
	adapters []Adapter
	generic  Adapter
}

// NewRegistry creates a registry with the built-in adapters.
// A nil engine disables OCR for scanned PDFs and images.
func NewRegistry(engine ocr.Engine) *Registry {
	registry := &Registry{
		adapters: make([]Adapter, 0),
	}

	registry.Register(NewPDFAdapter(engine))
	registry.Register(NewImageAdapter(engine))
	registry.Register(NewHTMLAdapter())
	registry.Register(NewDOCXAdapter())

	// Plain text is the fallback
	registry.generic = NewPlainTextAdapter()

	return registry
}

// Register registers a new adapter. Later registrations do not override earlier ones.
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter finds the adapter for the given media type
func (r *Registry) FindAdapter(mediaType string) Adapter {
	for _, adapter := range r.adapters {
		if adapter.CanHandle(mediaType) {
			return adapter
		}
	}
	return r.generic
}

// DetectMediaType returns the declared media type unless it is empty or generic,
// in which case the content is sniffed.
func DetectMediaType(data []byte, declared string) string {
	declared = normalizeMediaType(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return normalizeMediaType(mimetype.Detect(data).String())
}

// normalizeMediaType lowercases and drops parameters such as charset
func normalizeMediaType(mediaType string) string {
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
