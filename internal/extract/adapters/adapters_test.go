package adapters

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimrisk/internal/ocr"
)

type fakeEngine struct {
	text      string
	err       error
	calls     int
	mediaType string
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(_ context.Context, _ []byte, mediaType string) (string, error) {
	f.calls++
	f.mediaType = mediaType
	return f.text, f.err
}

func TestDetectMediaType(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		declared string
		want     string
	}{
		{"declared wins", []byte("hello"), "application/pdf", "application/pdf"},
		{"declared params stripped", []byte("hello"), "Text/Plain; charset=utf-8", "text/plain"},
		{"sniff pdf", []byte("%PDF-1.4\n%âãÏÓ\n"), "", "application/pdf"},
		{"sniff png on octet-stream", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), "application/octet-stream", "image/png"},
		{"sniff html", []byte("<html><body><p>Invoice</p></body></html>"), "", "text/html"},
		{"sniff text", []byte("Patient seen on 12/03/2024"), "", "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectMediaType(tt.data, tt.declared))
		})
	}
}

func TestRegistry_FindAdapter(t *testing.T) {
	r := NewRegistry(nil)

	assert.Equal(t, "pdf", r.FindAdapter("application/pdf").Name())
	assert.Equal(t, "image", r.FindAdapter("image/jpeg").Name())
	assert.Equal(t, "html", r.FindAdapter("text/html").Name())
	assert.Equal(t, "docx", r.FindAdapter(docxMediaType).Name())
	assert.Equal(t, "text", r.FindAdapter("text/plain").Name())
	assert.Equal(t, "text", r.FindAdapter("application/x-unknown").Name(), "unknown types fall back to text")
}

func TestPDFAdapter_MalformedWithoutOCR(t *testing.T) {
	a := NewPDFAdapter(nil)
	_, err := a.ExtractText(context.Background(), []byte("%PDF-1.4 truncated"), "application/pdf")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ocr.ErrEngineUnavailable), "a corrupt file is a document failure")
}

func TestPDFAdapter_FallsBackToOCR(t *testing.T) {
	eng := &fakeEngine{text: "Scanned discharge summary"}
	a := NewPDFAdapter(eng)

	res, err := a.ExtractText(context.Background(), []byte("%PDF-1.4 image only"), "application/pdf")
	require.NoError(t, err)
	assert.True(t, res.OCR)
	assert.Equal(t, "Scanned discharge summary", res.Text)
	assert.Equal(t, 1, eng.calls)
	assert.Equal(t, "application/pdf", eng.mediaType)
}

func TestPDFAdapter_OCRError(t *testing.T) {
	a := NewPDFAdapter(&fakeEngine{err: errors.New("tesseract missing")})
	_, err := a.ExtractText(context.Background(), []byte("not a pdf"), "application/pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tesseract missing")
	assert.ErrorIs(t, err, ocr.ErrEngineUnavailable)
}

func TestImageAdapter(t *testing.T) {
	eng := &fakeEngine{text: "Rs. 500 paid"}
	a := NewImageAdapter(eng)

	res, err := a.ExtractText(context.Background(), []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, res.OCR)
	assert.Equal(t, "image/jpeg", eng.mediaType)

	assert.False(t, a.CanHandle("image/svg+xml"))

	_, err = NewImageAdapter(nil).ExtractText(context.Background(), []byte("jpeg"), "image/jpeg")
	assert.ErrorIs(t, err, ocr.ErrEngineUnavailable)
}

func TestHTMLAdapter_VisibleText(t *testing.T) {
	doc := `<html><head><title>ignored</title><style>.x{}</style></head>
<body>
<script>var total = 999;</script>
<table><tr><td>Consultation</td><td>$120.00</td></tr><tr><td>Total</td><td>$150.00</td></tr></table>
<p>Paid on 02/03/2024</p>
</body></html>`

	res, err := NewHTMLAdapter().ExtractText(context.Background(), []byte(doc), "text/html")
	require.NoError(t, err)
	assert.NotContains(t, res.Text, "999")
	assert.NotContains(t, res.Text, "ignored")
	assert.Contains(t, res.Text, "Consultation $120.00")
	assert.Contains(t, res.Text, "Paid on 02/03/2024")

	lines := strings.Split(res.Text, "\n")
	assert.GreaterOrEqual(t, len(lines), 3, "rows should be on separate lines")
}

func TestDOCXAdapter(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t>Diagnosis: </w:t></w:r><w:r><w:t>fracture</w:t></w:r></w:p><w:p><w:r><w:t>Dr. Mehta</w:t></w:r></w:p></w:body>
</w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	res, err := NewDOCXAdapter().ExtractText(context.Background(), buf.Bytes(), docxMediaType)
	require.NoError(t, err)
	assert.Equal(t, "Diagnosis: fracture\nDr. Mehta", res.Text)
}

func TestDOCXAdapter_NotZip(t *testing.T) {
	_, err := NewDOCXAdapter().ExtractText(context.Background(), []byte("plain"), docxMediaType)
	require.Error(t, err)
}

func TestPlainTextAdapter_Encodings(t *testing.T) {
	a := NewPlainTextAdapter()

	t.Run("utf8 bom", func(t *testing.T) {
		res, err := a.ExtractText(context.Background(), append([]byte{0xEF, 0xBB, 0xBF}, "Café bill"...), "text/plain")
		require.NoError(t, err)
		assert.Equal(t, "Café bill", res.Text)
	})

	t.Run("utf16 le", func(t *testing.T) {
		data := []byte{0xFF, 0xFE, 'O', 0, 'K', 0}
		res, err := a.ExtractText(context.Background(), data, "text/plain")
		require.NoError(t, err)
		assert.Equal(t, "OK", res.Text)
	})

	t.Run("windows-1252", func(t *testing.T) {
		data := []byte{'C', 'a', 'f', 0xE9}
		res, err := a.ExtractText(context.Background(), data, "text/plain")
		require.NoError(t, err)
		assert.Equal(t, "Café", res.Text)
	})

	t.Run("crlf and blank lines", func(t *testing.T) {
		res, err := a.ExtractText(context.Background(), []byte("line one\r\n\r\n  line two  \r\n"), "text/plain")
		require.NoError(t, err)
		assert.Equal(t, "line one\nline two", res.Text)
	})
}

func TestPlainTextAdapter_Rejects(t *testing.T) {
	a := NewPlainTextAdapter()

	_, err := a.ExtractText(context.Background(), nil, "text/plain")
	require.Error(t, err)

	_, err = a.ExtractText(context.Background(), bytes.Repeat([]byte{0x01, 0x02, 0x00}, 100), "application/x-unknown")
	require.Error(t, err)
}
