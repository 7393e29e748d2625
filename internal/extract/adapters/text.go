package adapters

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// PlainTextAdapter decodes text files in common encodings. It is the registry fallback.
type PlainTextAdapter struct{}

// NewPlainTextAdapter creates a new plain text adapter
func NewPlainTextAdapter() *PlainTextAdapter {
	return &PlainTextAdapter{}
}

// Name returns the adapter name
func (a *PlainTextAdapter) Name() string {
	return "text"
}

// CanHandle accepts any text/* media type
func (a *PlainTextAdapter) CanHandle(mediaType string) bool {
	return strings.HasPrefix(mediaType, "text/")
}

// ExtractText decodes the bytes. Binary content is rejected rather than scored as garbage.
func (a *PlainTextAdapter) ExtractText(_ context.Context, data []byte, _ string) (Result, error) {
	if len(data) == 0 {
		return Result{}, eris.New("empty document")
	}
	if looksBinary(data) {
		return Result{}, eris.New("document does not appear to be text")
	}
	text, err := decodeText(data)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: cleanText(text)}, nil
}

// decodeText honours UTF-8/UTF-16 byte order marks and falls back to Windows-1252
// for bytes that are not valid UTF-8.
func decodeText(data []byte) (string, error) {
	switch {
	case len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF:
		return string(data[3:]), nil
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE:
		return transformString(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), data)
	case len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF:
		return transformString(unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder(), data)
	case utf8.Valid(data):
		return string(data), nil
	default:
		return transformString(charmap.Windows1252.NewDecoder(), data)
	}
}

func transformString(t transform.Transformer, data []byte) (string, error) {
	decoded, _, err := transform.Bytes(t, data)
	if err != nil {
		return "", eris.Wrap(err, "decode text")
	}
	return string(decoded), nil
}

// looksBinary samples the head of the data; UTF-16 input is recognised by its BOM first
func looksBinary(data []byte) bool {
	if len(data) >= 2 && ((data[0] == 0xFF && data[1] == 0xFE) || (data[0] == 0xFE && data[1] == 0xFF)) {
		return false
	}
	sample := data
	if len(sample) > 512 {
		sample = sample[:512]
	}
	control := 0
	for _, b := range sample {
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' && b != '\f' {
			control++
		}
	}
	return float64(control)/float64(len(sample)) > 0.1
}

// cleanText normalises line endings, drops NULs and blank lines
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\x00", "")

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
