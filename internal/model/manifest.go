package model

import "path/filepath"

// DocumentRef points at a claim document on disk or over HTTP
type DocumentRef struct {
	Path         string       `yaml:"path" json:"path"` // File path or http(s) URL
	DeclaredType DeclaredType `yaml:"declared_type" json:"declared_type"`
	MediaType    string       `yaml:"media_type,omitempty" json:"media_type,omitempty"`
}

// ClaimSpec is one claim of a batch manifest: its documents plus scripted interview answers
type ClaimSpec struct {
	ClaimID      string        `yaml:"claim_id" json:"claim_id"`
	ClaimType    string        `yaml:"claim_type" json:"claim_type"`
	IncidentDate string        `yaml:"incident_date,omitempty" json:"incident_date,omitempty"`
	Description  string        `yaml:"description,omitempty" json:"description,omitempty"`
	Documents    []DocumentRef `yaml:"documents" json:"documents"`
	Answers      []string      `yaml:"answers" json:"answers"`
}

// Manifest lists the claims processed by a batch run
type Manifest struct {
	Claims []ClaimSpec `yaml:"claims" json:"claims"`
}

// Context returns the interview context of the claim
func (c ClaimSpec) Context() ClaimContext {
	docs := make([]string, 0, len(c.Documents))
	for _, d := range c.Documents {
		docs = append(docs, DocumentLabel(d.DeclaredType, filepath.Base(d.Path)))
	}
	return ClaimContext{
		ClaimID:      c.ClaimID,
		ClaimType:    c.ClaimType,
		IncidentDate: c.IncidentDate,
		Description:  c.Description,
		Documents:    docs,
	}
}

// DocumentLabel renders the "<declared_type>: <filename>" line shown to the interviewer
func DocumentLabel(declared DeclaredType, filename string) string {
	return string(ParseDeclaredType(string(declared))) + ": " + filename
}
