// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "regexp"

// docIDPattern matches canonical document identifiers: a two-letter country
// code, a serial number, and an optional dot-separated kind code such as
// "A1" or "B2" (e.g. "EP1234567.A1", "US20230012345").
var docIDPattern = regexp.MustCompile(`^([A-Z]{2})(\d+)(?:\.)?([A-Z]\d)?$`)

// DocumentID identifies a single published patent document. Immutable once
// constructed; the zero value marks an identifier that could not be parsed.
type DocumentID struct {
	// Country is the two-letter publication office code (e.g. "EP", "US").
	Country string `json:"country" yaml:"country"`

	// Number is the publication serial number, digits only.
	Number string `json:"number" yaml:"number"`

	// Kind is the optional kind code (e.g. "A1"). Empty when unknown.
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// IsZero reports whether the identifier is empty (an unparseable hit).
func (id DocumentID) IsZero() bool {
	return id.Country == "" && id.Number == "" && id.Kind == ""
}

// String returns the canonical form COUNTRY+NUMBER[.KIND]. The kind segment
// is omitted entirely when the kind code is empty, so String and
// ParseDocumentID round-trip losslessly.
func (id DocumentID) String() string {
	if id.Kind == "" {
		return id.Country + id.Number
	}
	return id.Country + id.Number + "." + id.Kind
}

// ParseDocumentID parses the canonical string form of a document identifier.
// It returns ok=false on malformed input rather than an error: callers skip
// or record the malformed id and keep going instead of aborting a batch.
func ParseDocumentID(s string) (DocumentID, bool) {
	m := docIDPattern.FindStringSubmatch(s)
	if m == nil {
		return DocumentID{}, false
	}
	return DocumentID{Country: m[1], Number: m[2], Kind: m[3]}, true
}
