package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/claimrisk/internal/model"
)

const previewLength = 1000

// ParseFeatures builds the feature record of one document from its recovered text.
// Text without any words yields the all-absent record.
func ParseFeatures(documentID string, declared model.DeclaredType, mediaType, text string) model.DocumentFeatures {
	words := strings.Fields(text)
	if len(words) == 0 {
		return model.NewEmptyFeatures(documentID, declared, mediaType)
	}

	terms := model.TermCounts{
		Medical:      countTerms(medicalTermRe, text),
		Prescription: countTerms(prescriptionTermRe, text),
		Invoice:      countTerms(invoiceTermRe, text),
	}

	return model.DocumentFeatures{
		DocumentID:     documentID,
		DeclaredType:   declared,
		MediaType:      mediaType,
		RawTextLength:  utf8.RuneCountInString(text),
		WordCount:      len(words),
		ExtractedDates: extractDates(text),
		ExtractedAmts:  extractAmounts(text),
		Contacts:       extractContacts(text),
		Flags:          detectFlags(text, terms),
		Terms:          terms,
		Preview:        preview(text),
	}
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLength])
}
