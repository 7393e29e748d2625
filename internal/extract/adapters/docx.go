package adapters

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

const docxMediaType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

type wordDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    wordBody `xml:"body"`
}

type wordBody struct {
	Paragraphs []wordParagraph `xml:"p"`
}

type wordParagraph struct {
	Runs []wordRun `xml:"r"`
}

type wordRun struct {
	Text string `xml:"t"`
}

// DOCXAdapter reads the paragraph text of Word documents
type DOCXAdapter struct{}

// NewDOCXAdapter creates a new DOCX adapter
func NewDOCXAdapter() *DOCXAdapter {
	return &DOCXAdapter{}
}

// Name returns the adapter name
func (a *DOCXAdapter) Name() string {
	return "docx"
}

// CanHandle checks for the Word OOXML media type
func (a *DOCXAdapter) CanHandle(mediaType string) bool {
	return mediaType == docxMediaType
}

// ExtractText joins the runs of every paragraph, one paragraph per line
func (a *DOCXAdapter) ExtractText(_ context.Context, data []byte, _ string) (Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, eris.Wrap(err, "read docx archive")
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return Result{}, eris.New("docx archive has no word/document.xml")
	}

	rc, err := docFile.Open()
	if err != nil {
		return Result{}, eris.Wrap(err, "open document.xml")
	}
	defer rc.Close() //nolint:errcheck

	raw, err := io.ReadAll(rc)
	if err != nil {
		return Result{}, eris.Wrap(err, "read document.xml")
	}

	var doc wordDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return Result{}, eris.Wrap(err, "parse document.xml")
	}

	var sb strings.Builder
	for _, para := range doc.Body.Paragraphs {
		for _, run := range para.Runs {
			sb.WriteString(run.Text)
		}
		sb.WriteString("\n")
	}
	return Result{Text: cleanText(sb.String())}, nil
}
