package model

import "github.com/rotisserie/eris"

var (
	// ErrNoDocuments is returned when an assessment is requested with an empty document set
	ErrNoDocuments = eris.New("no documents to assess")

	// ErrInvalidSessionState signals a protocol violation against the interview or verdict sequence
	ErrInvalidSessionState = eris.New("invalid session state")

	// ErrSessionCompleted is returned for answers sent to a completed session
	ErrSessionCompleted = eris.Wrap(ErrInvalidSessionState, "session already completed")

	// ErrSessionBusy is returned when another answer for the same session is in flight
	ErrSessionBusy = eris.New("session busy")

	// ErrClaimNotFound is returned for operations on a claim the core has never seen
	ErrClaimNotFound = eris.New("claim not found")

	// ErrClassifierUnavailable makes the scorer take the rule-based path
	ErrClassifierUnavailable = eris.New("classifier unavailable")

	// ErrExtractionFailed is the cause attached to out-of-band extraction warnings
	ErrExtractionFailed = eris.New("document text extraction failed")
)
