package ocr

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Tesseract recognises text with the tesseract CLI. PDFs are first rasterised with pdftoppm.
type Tesseract struct {
	binPath      string
	pdftoppmPath string
	language     string
}

// NewTesseract creates a Tesseract engine. Empty paths fall back to the binaries on PATH.
func NewTesseract(binPath, pdftoppmPath, language string) *Tesseract {
	if binPath == "" {
		binPath = "tesseract"
	}
	if pdftoppmPath == "" {
		pdftoppmPath = "pdftoppm"
	}
	if language == "" {
		language = "eng"
	}
	return &Tesseract{binPath: binPath, pdftoppmPath: pdftoppmPath, language: language}
}

// Name returns the engine name
func (t *Tesseract) Name() string {
	return "tesseract"
}

// Recognize runs tesseract over an image, or over every rasterised page of a PDF
func (t *Tesseract) Recognize(ctx context.Context, data []byte, mediaType string) (string, error) {
	if mediaType == "application/pdf" {
		return t.recognizePDF(ctx, data)
	}
	return t.recognizeImage(ctx, data)
}

func (t *Tesseract) recognizeImage(ctx context.Context, data []byte) (string, error) {
	cmd := exec.CommandContext(ctx, t.binPath, "stdin", "stdout", "-l", t.language)
	cmd.Stdin = bytes.NewReader(data)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "ocr: tesseract failed: %s", strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func (t *Tesseract) recognizePDF(ctx context.Context, data []byte) (string, error) {
	dir, err := os.MkdirTemp("", "claimrisk-ocr-")
	if err != nil {
		return "", eris.Wrap(err, "ocr: create temp dir")
	}
	defer func() { _ = os.RemoveAll(dir) }()

	pdfPath := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		return "", eris.Wrap(err, "ocr: write temp pdf")
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.pdftoppmPath, "-r", "300", "-png", pdfPath, filepath.Join(dir, "page"))
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "ocr: pdftoppm failed: %s", strings.TrimSpace(stderr.String()))
	}

	pages, err := filepath.Glob(filepath.Join(dir, "page*.png"))
	if err != nil {
		return "", eris.Wrap(err, "ocr: list rasterised pages")
	}
	sort.Strings(pages)

	var sb strings.Builder
	for i, page := range pages {
		img, err := os.ReadFile(page)
		if err != nil {
			return "", eris.Wrapf(err, "ocr: read page %d", i+1)
		}
		text, err := t.recognizeImage(ctx, img)
		if err != nil {
			return "", err
		}
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}
