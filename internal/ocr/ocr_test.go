package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimrisk/internal/model"
)

func TestNewEngine_TesseractDefault(t *testing.T) {
	eng, err := NewEngine(model.OCRConfig{})
	require.NoError(t, err)
	assert.IsType(t, &Tesseract{}, eng)
	assert.Equal(t, "tesseract", eng.Name())
}

func TestNewEngine_None(t *testing.T) {
	eng, err := NewEngine(model.OCRConfig{Provider: "none"})
	require.NoError(t, err)
	assert.Nil(t, eng)
}

func TestNewEngine_MistralMissingKey(t *testing.T) {
	_, err := NewEngine(model.OCRConfig{Provider: "mistral"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires mistral_api_key")
}

func TestNewEngine_Unknown(t *testing.T) {
	_, err := NewEngine(model.OCRConfig{Provider: "abbyy"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "abbyy"`)
}

func TestNewTesseract_Defaults(t *testing.T) {
	tess := NewTesseract("", "", "")
	assert.Equal(t, "tesseract", tess.binPath)
	assert.Equal(t, "pdftoppm", tess.pdftoppmPath)
	assert.Equal(t, "eng", tess.language)
}

func TestTesseract_MissingBinary(t *testing.T) {
	tess := NewTesseract("/nonexistent/tesseract", "", "")
	_, err := tess.Recognize(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "image/png")
	require.Error(t, err)
}

func TestMistralOCR_Image(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req mistralOCRRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "image_url", req.Document.Type)
		assert.Contains(t, req.Document.ImageURL, "data:image/png;base64,")

		_ = json.NewEncoder(w).Encode(mistralOCRResponse{Pages: []mistralOCRPage{
			{Index: 0, Markdown: "Invoice total $500"},
			{Index: 1, Markdown: "Signed Dr. Rao"},
		}})
	}))
	defer srv.Close()

	m := NewMistralOCR("test-key", "")
	m.endpoint = srv.URL

	text, err := m.Recognize(context.Background(), []byte("img"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "Invoice total $500\n\nSigned Dr. Rao", text)
}

func TestMistralOCR_PDFUsesDocumentURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req mistralOCRRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "document_url", req.Document.Type)
		assert.Equal(t, defaultMistralModel, req.Model)
		_ = json.NewEncoder(w).Encode(mistralOCRResponse{})
	}))
	defer srv.Close()

	m := NewMistralOCR("k", "")
	m.endpoint = srv.URL

	text, err := m.Recognize(context.Background(), []byte("%PDF"), "application/pdf")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestMistralOCR_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad key"}`))
	}))
	defer srv.Close()

	m := NewMistralOCR("k", "")
	m.endpoint = srv.URL

	_, err := m.Recognize(context.Background(), []byte("x"), "image/jpeg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
