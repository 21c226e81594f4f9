// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the patent-scout client.
package types

import "fmt"

// PatentDocument is one search hit, created with its identifier alone and
// progressively filled in by bibliographic enrichment. Documents are not
// persisted beyond the search that produced them (the history store keeps
// its own copies).
type PatentDocument struct {
	// ID is the document identifier. Zero when the hit's identifier
	// could not be parsed; the hit is still kept to preserve cardinality.
	ID DocumentID `json:"id" yaml:"id"`

	// Title is the invention title, empty when unresolved.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Abstract is the full abstract text. Never truncated here; trimming
	// to a preview length is the formatter's concern.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Applicants lists applicant names in source order.
	Applicants []string `json:"applicants,omitempty" yaml:"applicants,omitempty"`

	// PublicationDate is the raw upstream date string (typically YYYYMMDD),
	// empty when unknown.
	PublicationDate string `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`

	// EnrichFailed is set when a bibliographic lookup for this document
	// failed, so callers can tell "absent upstream" from "lookup failed".
	EnrichFailed bool `json:"enrich_failed,omitempty" yaml:"enrich_failed,omitempty"`
}

// Range is a 1-based inclusive result window.
type Range struct {
	Begin int `json:"begin" yaml:"begin"`
	End   int `json:"end" yaml:"end"`
}

// String returns the wire form "begin-end".
func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Begin, r.End)
}

// SearchResult is the sole return value of a search: either a successful
// result set (Docs present, possibly empty) or a failure with Error set and
// Docs nil. Total is the upstream total-hit count, which usually exceeds
// the window actually returned.
type SearchResult struct {
	Success bool             `json:"success" yaml:"success"`
	Total   int              `json:"total" yaml:"total"`
	Range   Range            `json:"range" yaml:"range"`
	Docs    []PatentDocument `json:"docs,omitempty" yaml:"docs,omitempty"`
	Query   string           `json:"query" yaml:"query"`
	Error   string           `json:"error,omitempty" yaml:"error,omitempty"`
}
