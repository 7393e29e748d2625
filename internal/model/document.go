package model

import "time"

// DeclaredType is the caller-supplied category of an uploaded document
type DeclaredType string

const (
	DeclaredMedicalReport DeclaredType = "medical_report"
	DeclaredPrescription  DeclaredType = "prescription"
	DeclaredInvoice       DeclaredType = "invoice"
	DeclaredOther         DeclaredType = "other"
)

// ParseDeclaredType maps free-form input onto a known type; unknown values become "other"
func ParseDeclaredType(s string) DeclaredType {
	switch DeclaredType(s) {
	case DeclaredMedicalReport, DeclaredPrescription, DeclaredInvoice:
		return DeclaredType(s)
	default:
		return DeclaredOther
	}
}

// DocumentFeatures is the typed feature record for one uploaded document.
// It is built once at extraction time and only read afterwards.
type DocumentFeatures struct {
	DocumentID     string       `json:"document_id"`
	DeclaredType   DeclaredType `json:"declared_type"`
	MediaType      string       `json:"media_type,omitempty"`       // Media type actually used for extraction
	RawTextLength  int          `json:"raw_text_length"`            // Characters of extracted text
	WordCount      int          `json:"word_count"`                 // Whitespace-separated tokens
	ExtractedDates []time.Time  `json:"extracted_dates"`            // Order of first appearance
	ExtractedAmts  []float64    `json:"extracted_amounts"`          // Currency-agnostic values
	Contacts       ContactRefs  `json:"contact_refs"`               // Phones and emails found
	Flags          Flags        `json:"flags"`                      // Presence flags
	Terms          TermCounts   `json:"term_counts"`                // Vocabulary hit counts
	Preview        string       `json:"preview,omitempty"`          // First 1000 chars of text
	OCR            bool         `json:"ocr,omitempty"`              // Text came from optical recognition
}

// ContactRefs holds the distinct phone numbers and emails found in a document
type ContactRefs struct {
	Phones []string `json:"phones"`
	Emails []string `json:"emails"`
}

// Flags are the boolean presence signals of a document
type Flags struct {
	HasSignature    bool `json:"has_signature"`
	HasStamp        bool `json:"has_stamp"`
	HasDoctorName   bool `json:"has_doctor_name"`
	HasHospitalName bool `json:"has_hospital_name"`
	HasMedicalTerms bool `json:"has_medical_terms"`
	HasPolicyNumber bool `json:"has_policy_number"`
	HasClaimNumber  bool `json:"has_claim_number"`
}

// Or combines two flag sets; a flag is set if either side has it
func (f Flags) Or(o Flags) Flags {
	return Flags{
		HasSignature:    f.HasSignature || o.HasSignature,
		HasStamp:        f.HasStamp || o.HasStamp,
		HasDoctorName:   f.HasDoctorName || o.HasDoctorName,
		HasHospitalName: f.HasHospitalName || o.HasHospitalName,
		HasMedicalTerms: f.HasMedicalTerms || o.HasMedicalTerms,
		HasPolicyNumber: f.HasPolicyNumber || o.HasPolicyNumber,
		HasClaimNumber:  f.HasClaimNumber || o.HasClaimNumber,
	}
}

// Any reports whether at least one flag is set
func (f Flags) Any() bool {
	return f != Flags{}
}

// TermCounts counts distinct vocabulary terms matched per category
type TermCounts struct {
	Medical      int `json:"medical"`
	Prescription int `json:"prescription"`
	Invoice      int `json:"invoice"`
}

// NewEmptyFeatures returns the all-absent record used when extraction fails
func NewEmptyFeatures(documentID string, declared DeclaredType, mediaType string) DocumentFeatures {
	return DocumentFeatures{
		DocumentID:     documentID,
		DeclaredType:   declared,
		MediaType:      mediaType,
		ExtractedDates: []time.Time{},
		ExtractedAmts:  []float64{},
		Contacts:       ContactRefs{Phones: []string{}, Emails: []string{}},
	}
}

// ExtractionFailed reports whether no usable text was recovered
func (d DocumentFeatures) ExtractionFailed() bool {
	return d.WordCount == 0
}

// HasDates reports whether any date was extracted
func (d DocumentFeatures) HasDates() bool {
	return len(d.ExtractedDates) > 0
}

// HasAmounts reports whether any monetary amount was extracted
func (d DocumentFeatures) HasAmounts() bool {
	return len(d.ExtractedAmts) > 0
}

// IsInvoice reports whether the caller declared the document an invoice
func (d DocumentFeatures) IsInvoice() bool {
	return d.DeclaredType == DeclaredInvoice
}

// DocumentInput is one document handed to the core by the portal
type DocumentInput struct {
	DocumentID   string       `json:"document_id"`
	Data         []byte       `json:"-"`
	MediaType    string       `json:"media_type"`
	DeclaredType DeclaredType `json:"declared_type"`
	Filename     string       `json:"filename,omitempty"`
}
