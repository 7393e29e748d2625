package adapters

import (
	"bytes"
	"context"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"

	"github.com/ppiankov/claimrisk/internal/ocr"
)

// PDFAdapter reads embedded PDF text and falls back to OCR for image-only pages
type PDFAdapter struct {
	engine ocr.Engine
}

// NewPDFAdapter creates a new PDF adapter
func NewPDFAdapter(engine ocr.Engine) *PDFAdapter {
	return &PDFAdapter{engine: engine}
}

// Name returns the adapter name
func (a *PDFAdapter) Name() string {
	return "pdf"
}

// CanHandle checks for PDF media types
func (a *PDFAdapter) CanHandle(mediaType string) bool {
	return mediaType == "application/pdf" || mediaType == "application/x-pdf"
}

// ExtractText returns embedded text, or OCR output when the PDF has no text layer
func (a *PDFAdapter) ExtractText(ctx context.Context, data []byte, mediaType string) (Result, error) {
	text, err := embeddedText(data)
	if err == nil && len(strings.Fields(text)) > 0 {
		return Result{Text: text}, nil
	}

	if a.engine == nil {
		if err != nil {
			return Result{}, err
		}
		return Result{}, eris.Wrap(ocr.ErrEngineUnavailable, "pdf has no text layer and ocr is disabled")
	}

	ocrText, ocrErr := a.engine.Recognize(ctx, data, "application/pdf")
	if ocrErr != nil {
		return Result{}, eris.Wrapf(ocr.ErrEngineUnavailable, "pdf ocr: %v", ocrErr)
	}
	return Result{Text: ocrText, OCR: true}, nil
}

// embeddedText reads the text layer of every page. The pdf package panics on
// some malformed inputs, so a panic is turned into an error.
func embeddedText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", eris.Wrap(err, "open pdf")
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String()), nil
}
