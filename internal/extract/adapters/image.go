package adapters

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/ppiankov/claimrisk/internal/ocr"
)

// ImageAdapter runs OCR over raster images (scanned bills, phone photos of reports)
type ImageAdapter struct {
	engine ocr.Engine
}

// NewImageAdapter creates a new image adapter
func NewImageAdapter(engine ocr.Engine) *ImageAdapter {
	return &ImageAdapter{engine: engine}
}

// Name returns the adapter name
func (a *ImageAdapter) Name() string {
	return "image"
}

// CanHandle checks for raster image media types
func (a *ImageAdapter) CanHandle(mediaType string) bool {
	return ocr.IsImage(mediaType) && mediaType != "image/svg+xml"
}

// ExtractText recognises the image text
func (a *ImageAdapter) ExtractText(ctx context.Context, data []byte, mediaType string) (Result, error) {
	if a.engine == nil {
		return Result{}, eris.Wrap(ocr.ErrEngineUnavailable, "image document requires ocr, which is disabled")
	}
	text, err := a.engine.Recognize(ctx, data, mediaType)
	if err != nil {
		return Result{}, eris.Wrapf(ocr.ErrEngineUnavailable, "image ocr: %v", err)
	}
	return Result{Text: text, OCR: true}, nil
}
