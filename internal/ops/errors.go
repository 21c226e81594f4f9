// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ops

import "fmt"

// AuthError reports a failed client-credentials exchange. Fatal for the
// operation that needed the token; the caller decides whether to retry the
// whole search.
type AuthError struct {
	Status   int
	Endpoint string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("credential exchange failed: HTTP %d from %s", e.Status, e.Endpoint)
}

// SearchError reports a non-2xx response from the primary search call.
// Body is pre-truncated so the message cannot flood the caller.
type SearchError struct {
	Status int
	Body   string
}

func (e *SearchError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("search failed: HTTP %d", e.Status)
	}
	return fmt.Sprintf("search failed: HTTP %d: %s", e.Status, e.Body)
}

// errorBodyLimit caps how much of an upstream error body is surfaced.
const errorBodyLimit = 200

// truncateBody trims an upstream response body for inclusion in an error.
func truncateBody(body []byte) string {
	s := string(body)
	if len(s) > errorBodyLimit {
		s = s[:errorBodyLimit]
	}
	return s
}
