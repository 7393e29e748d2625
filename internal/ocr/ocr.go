// Package ocr recognises text in scanned PDFs and raster images.
package ocr

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ppiankov/claimrisk/internal/model"
)

// ErrEngineUnavailable marks a failure of the OCR engine itself (disabled, missing binary,
// API error) as opposed to a document it could not read
var ErrEngineUnavailable = eris.New("ocr engine unavailable")

// Engine turns document bytes into text via optical recognition.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, data []byte, mediaType string) (string, error)
}

// NewEngine creates an Engine based on config. Provider "none" disables OCR and returns nil.
func NewEngine(cfg model.OCRConfig) (Engine, error) {
	switch strings.ToLower(cfg.Provider) {
	case "tesseract", "local", "":
		return NewTesseract(cfg.TesseractPath, cfg.PdftoppmPath, cfg.Language), nil
	case "mistral":
		if cfg.MistralAPIKey == "" {
			return nil, eris.New("ocr: mistral provider requires mistral_api_key")
		}
		return NewMistralOCR(cfg.MistralAPIKey, cfg.MistralModel), nil
	case "none", "off":
		return nil, nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}

// IsImage reports whether the media type is a raster image OCR can read
func IsImage(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/")
}
