package domain

import "errors"

// Sentinel errors for conditions the API surface must tell apart.
var (
	// ErrNoMailData means a date has zero attributed mail records, so no
	// summary can or should be generated.
	ErrNoMailData = errors.New("no mail data for the requested date")

	// ErrSummaryUnavailable means the fold finished with an empty pending
	// window and no final summary could be produced.
	ErrSummaryUnavailable = errors.New("summary could not be generated")

	// ErrNotConnected means the mail transport or store is unavailable.
	ErrNotConnected = errors.New("not connected")

	// ErrTemplateNotFound means the named template does not exist.
	ErrTemplateNotFound = errors.New("template not found")
)
