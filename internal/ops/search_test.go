// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pdiddy/patent-scout/pkg/types"
)

// --- Test fixtures ---

const sampleSearchJSON = `{
  "ops:world-patent-data": {
    "ops:biblio-search": {
      "@total-result-count": "42",
      "ops:search-result": {
        "ops:publication-reference": [
          {"document-id": {"country": {"$": "EP"}, "doc-number": {"$": "1234567"}, "kind": {"$": "A1"}}},
          {"document-id": {"country": {"$": "US"}, "doc-number": {"$": "9876543"}, "kind": {"$": "B2"}}}
        ]
      }
    }
  }
}`

// sampleBiblioJSON is a minimal bibliographic record; %s slots the doc number.
const sampleBiblioJSON = `{
  "ops:world-patent-data": {
    "exchange-documents": {
      "exchange-document": {
        "bibliographic-data": {
          "publication-reference": {
            "document-id": [
              {"country": {"$": "EP"}, "doc-number": {"$": "%s"}, "kind": {"$": "A1"}, "date": {"$": "20200315"}}
            ]
          },
          "invention-title": [
            {"@lang": "de", "$": "Vorrichtung"},
            {"@lang": "en", "$": "Widget %s"}
          ],
          "parties": {
            "applicants": {
              "applicant": {"applicant-name": {"name": {"$": "ACME CORP"}}}
            }
          }
        },
        "abstract": {"@lang": "en", "p": {"$": "An improved widget."}}
      }
    }
  }
}`

// searchServer serves the search endpoint and the per-document biblio
// endpoint, recording biblio call order and timing.
type searchServer struct {
	*httptest.Server

	mu          sync.Mutex
	biblioCalls []string
	biblioTimes []time.Time
}

func newSearchServer(t *testing.T, searchStatus int, searchBody string) *searchServer {
	t.Helper()
	ss := &searchServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("search Authorization = %q, want bearer token", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(searchStatus)
		fmt.Fprint(w, searchBody)
	})
	mux.HandleFunc("/biblio/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/biblio/")
		ss.mu.Lock()
		ss.biblioCalls = append(ss.biblioCalls, id)
		ss.biblioTimes = append(ss.biblioTimes, time.Now())
		ss.mu.Unlock()

		if strings.HasPrefix(id, "XX") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		num := strings.TrimLeft(id, "EPUSWO")
		if i := strings.IndexByte(num, '.'); i >= 0 {
			num = num[:i]
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, sampleBiblioJSON, num, num)
	})

	ss.Server = httptest.NewServer(mux)
	return ss
}

func (ss *searchServer) calls() []string {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return append([]string(nil), ss.biblioCalls...)
}

// newTestClient points the package endpoints at the server and returns a
// client with a pre-seeded token and a near-zero enrichment delay.
func newTestClient(t *testing.T, ss *searchServer) *Client {
	t.Helper()

	oldSearch, oldBiblio := searchURL, biblioURLFormat
	searchURL = ss.URL + "/search"
	biblioURLFormat = ss.URL + "/biblio/%s"
	t.Cleanup(func() {
		searchURL = oldSearch
		biblioURLFormat = oldBiblio
	})

	return &Client{
		HTTP: ss.Client(),
		Tokens: &TokenSource{
			Client: ss.Client(),
			token:  "test-token",
			expiry: time.Now().Add(time.Hour),
		},
		Config: types.SearchConfig{EnrichDelay: time.Millisecond},
		Warn:   io.Discard,
	}
}

// --- Search ---

func TestSearchEndToEnd(t *testing.T) {
	ss := newSearchServer(t, http.StatusOK, sampleSearchJSON)
	defer ss.Close()

	c := newTestClient(t, ss)
	c.Config.EnrichDelay = 30 * time.Millisecond

	result, err := c.Search(context.Background(), "neural networks", "1-2")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if !result.Success {
		t.Fatalf("Success = false, error = %q", result.Error)
	}
	if result.Total != 42 {
		t.Errorf("Total = %d, want 42", result.Total)
	}
	if result.Range != (types.Range{Begin: 1, End: 2}) {
		t.Errorf("Range = %+v, want {1 2}", result.Range)
	}
	if result.Query != "neural networks" {
		t.Errorf("Query = %q", result.Query)
	}
	if len(result.Docs) != 2 {
		t.Fatalf("len(Docs) = %d, want 2", len(result.Docs))
	}

	// No embedded bibliographic data: exactly one enrichment call per hit,
	// in hit order, paced by the configured delay.
	calls := ss.calls()
	if len(calls) != 2 {
		t.Fatalf("biblio calls = %v, want 2 calls", calls)
	}
	if calls[0] != "EP1234567.A1" || calls[1] != "US9876543.B2" {
		t.Errorf("biblio call order = %v", calls)
	}
	gap := ss.biblioTimes[1].Sub(ss.biblioTimes[0])
	if gap < 25*time.Millisecond {
		t.Errorf("gap between enrichment calls = %v, want >= ~30ms", gap)
	}

	d0 := result.Docs[0]
	if d0.ID.String() != "EP1234567.A1" {
		t.Errorf("doc 0 id = %s", d0.ID)
	}
	if d0.Title != "Widget 1234567" {
		t.Errorf("doc 0 title = %q", d0.Title)
	}
	if len(d0.Applicants) != 1 || d0.Applicants[0] != "ACME CORP" {
		t.Errorf("doc 0 applicants = %v", d0.Applicants)
	}
	if d0.Abstract != "An improved widget." {
		t.Errorf("doc 0 abstract = %q", d0.Abstract)
	}
	if d0.PublicationDate != "20200315" {
		t.Errorf("doc 0 date = %q", d0.PublicationDate)
	}
}

func TestSearchErrorSurfacing(t *testing.T) {
	ss := newSearchServer(t, http.StatusInternalServerError, "internal error")
	defer ss.Close()

	c := newTestClient(t, ss)
	result, err := c.Search(context.Background(), "anything", "1-25")
	if err == nil {
		t.Fatal("expected error")
	}

	var serr *SearchError
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T, want *SearchError", err)
	}
	if result.Success {
		t.Error("Success should be false")
	}
	if result.Docs != nil {
		t.Errorf("Docs = %v, want nil on failure", result.Docs)
	}
	if !strings.Contains(result.Error, "500") || !strings.Contains(result.Error, "internal error") {
		t.Errorf("Error = %q, want 500 and body", result.Error)
	}

	// A failed primary search must never trigger enrichment.
	if calls := ss.calls(); len(calls) != 0 {
		t.Errorf("biblio calls = %v, want none", calls)
	}
}

func TestSearchErrorBodyTruncated(t *testing.T) {
	longBody := strings.Repeat("x", 500)
	ss := newSearchServer(t, http.StatusBadRequest, longBody)
	defer ss.Close()

	c := newTestClient(t, ss)
	result, err := c.Search(context.Background(), "q", "1-25")
	if err == nil {
		t.Fatal("expected error")
	}
	// 200 chars of body plus the fixed prefix.
	if len(result.Error) > 250 {
		t.Errorf("len(Error) = %d, want truncated", len(result.Error))
	}
}

func TestSearchMissingTotalTreatedAsZero(t *testing.T) {
	body := `{"ops:world-patent-data": {"ops:biblio-search": {"ops:search-result": {}}}}`
	ss := newSearchServer(t, http.StatusOK, body)
	defer ss.Close()

	c := newTestClient(t, ss)
	result, err := c.Search(context.Background(), "q", "1-25")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !result.Success {
		t.Fatal("Success = false")
	}
	if result.Total != 0 {
		t.Errorf("Total = %d, want 0", result.Total)
	}
	if len(result.Docs) != 0 {
		t.Errorf("len(Docs) = %d, want 0", len(result.Docs))
	}
}

func TestSearchSingleReferenceObject(t *testing.T) {
	// A single hit arrives as a bare object, not a one-element array.
	body := `{
	  "ops:world-patent-data": {
	    "ops:biblio-search": {
	      "@total-result-count": "1",
	      "ops:search-result": {
	        "ops:publication-reference": {"document-id": {"country": {"$": "EP"}, "doc-number": {"$": "1234567"}}}
	      }
	    }
	  }
	}`
	ss := newSearchServer(t, http.StatusOK, body)
	defer ss.Close()

	c := newTestClient(t, ss)
	result, err := c.Search(context.Background(), "q", "1-1")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(result.Docs) != 1 {
		t.Fatalf("len(Docs) = %d, want 1", len(result.Docs))
	}
	if result.Docs[0].ID.String() != "EP1234567" {
		t.Errorf("id = %s, want EP1234567", result.Docs[0].ID)
	}
}

func TestSearchMalformedIDKeptAsEmpty(t *testing.T) {
	body := `{
	  "ops:world-patent-data": {
	    "ops:biblio-search": {
	      "@total-result-count": "2",
	      "ops:search-result": {
	        "ops:publication-reference": [
	          {"document-id": {"country": {"$": "E"}, "doc-number": {"$": "123"}}},
	          {"document-id": {"country": {"$": "US"}, "doc-number": {"$": "9876543"}}}
	        ]
	      }
	    }
	  }
	}`
	ss := newSearchServer(t, http.StatusOK, body)
	defer ss.Close()

	c := newTestClient(t, ss)
	result, err := c.Search(context.Background(), "q", "1-2")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	// Cardinality preserved: the malformed hit stays, with a zero id.
	if len(result.Docs) != 2 {
		t.Fatalf("len(Docs) = %d, want 2", len(result.Docs))
	}
	if !result.Docs[0].ID.IsZero() {
		t.Errorf("doc 0 id = %v, want zero", result.Docs[0].ID)
	}
	if result.Docs[1].ID.String() != "US9876543" {
		t.Errorf("doc 1 id = %s", result.Docs[1].ID)
	}
}

func TestSearchEmbeddedBiblioSkipsEnrichment(t *testing.T) {
	body := `{
	  "ops:world-patent-data": {
	    "ops:biblio-search": {
	      "@total-result-count": "1",
	      "ops:search-result": {
	        "ops:publication-reference": [
	          {"document-id": {"country": {"$": "EP"}, "doc-number": {"$": "1234567"}, "kind": {"$": "A1"}}}
	        ],
	        "exchange-documents": {
	          "exchange-document": {
	            "bibliographic-data": {
	              "invention-title": {"@lang": "en", "$": "Embedded Title"}
	            }
	          }
	        }
	      }
	    }
	  }
	}`
	ss := newSearchServer(t, http.StatusOK, body)
	defer ss.Close()

	c := newTestClient(t, ss)
	result, err := c.Search(context.Background(), "q", "1-1")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result.Docs[0].Title != "Embedded Title" {
		t.Errorf("Title = %q, want embedded title", result.Docs[0].Title)
	}
	if calls := ss.calls(); len(calls) != 0 {
		t.Errorf("biblio calls = %v, want none when data is embedded", calls)
	}
}

func TestSearchMismatchedEmbeddedListTriggersEnrichment(t *testing.T) {
	// Two hits but only one embedded document: alignment is positional, so
	// a length mismatch counts as no embedded data at all.
	body := `{
	  "ops:world-patent-data": {
	    "ops:biblio-search": {
	      "@total-result-count": "2",
	      "ops:search-result": {
	        "ops:publication-reference": [
	          {"document-id": {"country": {"$": "EP"}, "doc-number": {"$": "1234567"}, "kind": {"$": "A1"}}},
	          {"document-id": {"country": {"$": "US"}, "doc-number": {"$": "9876543"}, "kind": {"$": "B2"}}}
	        ],
	        "exchange-documents": {
	          "exchange-document": {
	            "bibliographic-data": {
	              "invention-title": {"@lang": "en", "$": "Only One"}
	            }
	          }
	        }
	      }
	    }
	  }
	}`
	ss := newSearchServer(t, http.StatusOK, body)
	defer ss.Close()

	c := newTestClient(t, ss)
	result, err := c.Search(context.Background(), "q", "1-2")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(result.Docs) != 2 {
		t.Fatalf("len(Docs) = %d, want 2", len(result.Docs))
	}
	if calls := ss.calls(); len(calls) != 2 {
		t.Errorf("biblio calls = %v, want full enrichment", calls)
	}
}

func TestSearchInvalidRange(t *testing.T) {
	ss := newSearchServer(t, http.StatusOK, sampleSearchJSON)
	defer ss.Close()

	c := newTestClient(t, ss)
	for _, rng := range []string{"abc", "5", "0-10", "10-5", "-3", "1-x"} {
		result, err := c.Search(context.Background(), "q", rng)
		if err == nil {
			t.Errorf("range %q: expected error", rng)
		}
		if result.Success {
			t.Errorf("range %q: Success should be false", rng)
		}
	}
}

func TestSearchDefaultRange(t *testing.T) {
	var gotRange string
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("X-OPS-Range")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ops:world-patent-data": {"ops:biblio-search": {"@total-result-count": "0"}}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	old := searchURL
	searchURL = srv.URL + "/search"
	defer func() { searchURL = old }()

	c := &Client{
		HTTP:   srv.Client(),
		Tokens: &TokenSource{Client: srv.Client(), token: "test-token", expiry: time.Now().Add(time.Hour)},
		Warn:   io.Discard,
	}

	result, err := c.Search(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotRange != "1-25" {
		t.Errorf("X-OPS-Range = %q, want 1-25", gotRange)
	}
	if result.Range != (types.Range{Begin: 1, End: 25}) {
		t.Errorf("Range = %+v, want {1 25}", result.Range)
	}
}

func TestSearchAuthFailureIsFatal(t *testing.T) {
	ss := newSearchServer(t, http.StatusOK, sampleSearchJSON)
	defer ss.Close()

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer tokenSrv.Close()

	oldToken := tokenURL
	tokenURL = tokenSrv.URL
	defer func() { tokenURL = oldToken }()

	c := newTestClient(t, ss)
	c.Tokens = NewTokenSource(tokenSrv.Client(), "bad", "creds")

	result, err := c.Search(context.Background(), "q", "1-25")
	if err == nil {
		t.Fatal("expected error")
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error type = %T, want *AuthError", err)
	}
	if result.Success {
		t.Error("Success should be false")
	}
	if result.Error == "" {
		t.Error("Error should carry the auth failure")
	}
	if calls := ss.calls(); len(calls) != 0 {
		t.Errorf("biblio calls = %v, want none", calls)
	}
}

func TestSearchQueryEscaped(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ops:world-patent-data": {"ops:biblio-search": {"@total-result-count": "0"}}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	old := searchURL
	searchURL = srv.URL + "/search"
	defer func() { searchURL = old }()

	c := &Client{
		HTTP:   srv.Client(),
		Tokens: &TokenSource{Client: srv.Client(), token: "test-token", expiry: time.Now().Add(time.Hour)},
		Warn:   io.Discard,
	}

	query := `ti="neural network" and pa=siemens`
	if _, err := c.Search(context.Background(), query, "1-25"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotQuery != query {
		t.Errorf("server saw q = %q, want %q", gotQuery, query)
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		input string
		want  types.Range
		ok    bool
	}{
		{"1-25", types.Range{Begin: 1, End: 25}, true},
		{"26-50", types.Range{Begin: 26, End: 50}, true},
		{"1-1", types.Range{Begin: 1, End: 1}, true},
		{"0-10", types.Range{}, false},
		{"10-5", types.Range{}, false},
		{"5", types.Range{}, false},
		{"", types.Range{}, false},
		{"a-b", types.Range{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseRange(tt.input)
			if (err == nil) != tt.ok {
				t.Fatalf("parseRange(%q) err = %v, ok = %v", tt.input, err, tt.ok)
			}
			if tt.ok && got != tt.want {
				t.Errorf("parseRange(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}
