// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ops is a client for the OPS published-data REST services: it
// authenticates via OAuth2 client credentials, runs paginated CQL searches,
// and enriches hits with bibliographic data where the search response
// carries none. The whole pipeline is synchronous; the upstream rate limits
// make concurrent fan-out counter-productive.
package ops

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/patent-scout/pkg/types"
)

// searchURL is the published-data search endpoint. Declared as a var so
// tests can substitute an httptest server.
var searchURL = "https://ops.epo.org/3.2/rest-services/published-data/search"

// defaultRange is the result window requested when the caller gives none.
const defaultRange = "1-25"

// Client executes patent searches against the OPS service. Warn receives
// non-fatal per-document messages (enrichment failures, malformed ids);
// nothing on the fatal path is written there.
type Client struct {
	HTTP   *http.Client
	Tokens *TokenSource
	Config types.SearchConfig
	Warn   io.Writer
}

// NewClient builds a Client from config. Warnings go to warn; pass
// io.Discard to silence them.
func NewClient(cfg types.SearchConfig, warn io.Writer) *Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	return &Client{
		HTTP:   httpClient,
		Tokens: NewTokenSource(httpClient, cfg.ConsumerKey, cfg.ConsumerSecret),
		Config: cfg,
		Warn:   warn,
	}
}

// Search runs a CQL query against the published-data search endpoint and
// returns a normalized result set. rng is a 1-based inclusive window
// "begin-end" ("" means 1-25); the window cap is the server's business, not
// ours. The primary call is never retried: any failure there fails the
// whole search, reported both in the returned error and in the result's
// Error field so the caller can render it either way. When the response
// embeds no bibliographic data the hits are enriched sequentially before
// returning; cancellation mid-enrichment yields the partial result.
func (c *Client) Search(ctx context.Context, query, rng string) (types.SearchResult, error) {
	if rng == "" {
		rng = c.Config.DefaultRange
	}
	if rng == "" {
		rng = defaultRange
	}

	result := types.SearchResult{Query: query}

	window, err := parseRange(rng)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	result.Range = window

	token, err := c.Tokens.Token(ctx)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		searchURL+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-OPS-Range", rng)
	if c.Config.UserAgent != "" {
		req.Header.Set("User-Agent", c.Config.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		wrapped := fmt.Errorf("search request: %w", err)
		result.Error = wrapped.Error()
		return result, wrapped
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		wrapped := fmt.Errorf("reading search response: %w", err)
		result.Error = wrapped.Error()
		return result, wrapped
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := &SearchError{Status: resp.StatusCode, Body: truncateBody(body)}
		result.Error = serr.Error()
		return result, serr
	}

	root, err := decodeNode(body)
	if err != nil {
		wrapped := fmt.Errorf("parsing search response: %w", err)
		result.Error = wrapped.Error()
		return result, wrapped
	}

	biblioSearch := root.Path("ops:world-patent-data", "ops:biblio-search")

	// An absent or unparseable total counts as zero, not as an error.
	if n, convErr := strconv.Atoi(biblioSearch.Get("@total-result-count").Text()); convErr == nil {
		result.Total = n
	}

	searchResult := biblioSearch.Get("ops:search-result")
	refs := searchResult.Get("ops:publication-reference").List()

	docs := make([]types.PatentDocument, 0, len(refs))
	for _, ref := range refs {
		docs = append(docs, types.PatentDocument{ID: parsePublicationReference(ref, c.Warn)})
	}

	// A biblio-constituent response carries exchange documents aligned by
	// position with the reference list. Anything else (absent, or a length
	// mismatch) means no embedded data and triggers full enrichment.
	embedded := exchangeDocuments(searchResult)
	if len(docs) > 0 && len(embedded) == len(docs) {
		for i, exch := range embedded {
			fillBiblio(&docs[i], exch)
		}
	} else if len(docs) > 0 {
		docs = c.Enrich(ctx, docs, token)
	}

	result.Success = true
	result.Docs = docs
	return result, nil
}

// parsePublicationReference extracts the tagged country/doc-number/kind
// values of one hit and validates them through the canonical-id parser. A
// hit that fails to parse yields the zero id; the hit itself is kept so
// result cardinality matches the reference list.
func parsePublicationReference(ref Node, warn io.Writer) types.DocumentID {
	// A reference may carry several document-id renderings; take the first
	// that resolves to a country and number.
	for _, docID := range ref.Get("document-id").List() {
		country := docID.Get("country").Text()
		number := docID.Get("doc-number").Text()
		if country == "" || number == "" {
			continue
		}
		raw := country + number
		if kind := docID.Get("kind").Text(); kind != "" {
			raw += "." + kind
		}
		id, ok := types.ParseDocumentID(raw)
		if !ok {
			if warn != nil {
				fmt.Fprintf(warn, "warning: skipping malformed document id %q\n", raw)
			}
			return types.DocumentID{}
		}
		return id
	}
	return types.DocumentID{}
}

// exchangeDocuments flattens the embedded bibliographic list of a search
// response into one exchange-document node per hit.
func exchangeDocuments(searchResult Node) []Node {
	var flat []Node
	for _, wrapper := range searchResult.Get("exchange-documents").List() {
		flat = append(flat, wrapper.Get("exchange-document").List()...)
	}
	return flat
}

// parseRange parses a 1-based inclusive "begin-end" window.
func parseRange(rng string) (types.Range, error) {
	parts := strings.SplitN(rng, "-", 2)
	if len(parts) != 2 {
		return types.Range{}, fmt.Errorf("invalid range %q: want \"begin-end\"", rng)
	}
	begin, err := strconv.Atoi(parts[0])
	if err != nil {
		return types.Range{}, fmt.Errorf("invalid range %q: %w", rng, err)
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return types.Range{}, fmt.Errorf("invalid range %q: %w", rng, err)
	}
	if begin < 1 || end < begin {
		return types.Range{}, fmt.Errorf("invalid range %q: want 1 <= begin <= end", rng)
	}
	return types.Range{Begin: begin, End: end}, nil
}
