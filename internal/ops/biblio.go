// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ops

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/patent-scout/internal/httputil"
	"github.com/pdiddy/patent-scout/pkg/types"
)

// biblioURLFormat is the per-document bibliographic endpoint, templated
// with the canonical document id. Declared as a var so tests can
// substitute an httptest server.
var biblioURLFormat = "https://ops.epo.org/3.2/rest-services/published-data/publication/epodoc/%s/biblio"

// defaultEnrichDelay paces consecutive bibliographic lookups at ~2.5 req/s.
// A fixed sequential delay, not a token bucket: windows are at most a page.
const defaultEnrichDelay = 400 * time.Millisecond

// Enrich fills title, abstract, applicant, and date fields of each document
// by a per-document bibliographic lookup. Lookups run strictly one at a
// time with a pause between calls; a failed lookup marks that document
// EnrichFailed and moves on, so one bad document never costs the batch.
// Cancellation is honored before each lookup and during each pause, and
// returns whatever was enriched so far.
func (c *Client) Enrich(ctx context.Context, docs []types.PatentDocument, token string) []types.PatentDocument {
	delay := c.Config.EnrichDelay
	if delay <= 0 {
		delay = defaultEnrichDelay
	}

	enriched := make([]types.PatentDocument, len(docs))
	copy(enriched, docs)

	for i := range enriched {
		if ctx.Err() != nil {
			return enriched
		}

		if enriched[i].ID.IsZero() {
			// No canonical id to look up; counts as a failed enrichment.
			enriched[i].EnrichFailed = true
			continue
		}

		doc, err := c.fetchBiblio(ctx, enriched[i].ID, token)
		if err != nil {
			enriched[i].EnrichFailed = true
			if c.Warn != nil {
				fmt.Fprintf(c.Warn, "warning: enrichment failed for %s: %v\n", enriched[i].ID, err)
			}
		} else {
			enriched[i] = doc
		}

		if i < len(enriched)-1 {
			select {
			case <-ctx.Done():
				return enriched
			case <-time.After(delay):
			}
		}
	}
	return enriched
}

// Lookup fetches the bibliographic record for a single document, obtaining
// a token itself. Unlike enrichment inside a search, a direct lookup rides
// the 429-retry helper: it is a one-shot caller-facing request, not part of
// a paced batch.
func (c *Client) Lookup(ctx context.Context, id types.DocumentID) (types.PatentDocument, error) {
	token, err := c.Tokens.Token(ctx)
	if err != nil {
		return types.PatentDocument{}, err
	}

	req, err := c.biblioRequest(ctx, id, token)
	if err != nil {
		return types.PatentDocument{}, err
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 0)
	if err != nil {
		return types.PatentDocument{}, fmt.Errorf("bibliographic request: %w", err)
	}
	defer resp.Body.Close()

	return parseBiblioResponse(resp, id)
}

// fetchBiblio retrieves and parses one bibliographic record with a plain,
// unretried GET.
func (c *Client) fetchBiblio(ctx context.Context, id types.DocumentID, token string) (types.PatentDocument, error) {
	req, err := c.biblioRequest(ctx, id, token)
	if err != nil {
		return types.PatentDocument{}, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return types.PatentDocument{}, fmt.Errorf("bibliographic request: %w", err)
	}
	defer resp.Body.Close()

	return parseBiblioResponse(resp, id)
}

func (c *Client) biblioRequest(ctx context.Context, id types.DocumentID, token string) (*http.Request, error) {
	u := fmt.Sprintf(biblioURLFormat, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating bibliographic request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if c.Config.UserAgent != "" {
		req.Header.Set("User-Agent", c.Config.UserAgent)
	}
	return req, nil
}

func parseBiblioResponse(resp *http.Response, id types.DocumentID) (types.PatentDocument, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.PatentDocument{}, fmt.Errorf("reading bibliographic response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return types.PatentDocument{}, fmt.Errorf("bibliographic lookup returned HTTP %d", resp.StatusCode)
	}

	root, err := decodeNode(body)
	if err != nil {
		return types.PatentDocument{}, fmt.Errorf("parsing bibliographic response: %w", err)
	}

	doc := types.PatentDocument{ID: id}
	for _, exch := range exchangeDocuments(root.Get("ops:world-patent-data")) {
		fillBiblio(&doc, exch)
		break
	}
	return doc, nil
}

// fillBiblio extracts bibliographic fields from one exchange-document node.
// Every rule below goes through Node, so scalar-or-array and $-wrapped
// variants are handled uniformly.
func fillBiblio(doc *types.PatentDocument, exch Node) {
	biblio := exch.Get("bibliographic-data")

	doc.Title = preferredText(biblio.Get("invention-title").List())
	doc.Abstract = abstractText(exch.Get("abstract").List())
	doc.Applicants = applicantNames(biblio.Path("parties", "applicants", "applicant").List())
	doc.PublicationDate = publicationDate(biblio)
}

// preferredText picks the English candidate when one exists, the first
// candidate otherwise, and "" when there are none.
func preferredText(candidates []Node) string {
	pick := pickByLanguage(candidates)
	if pick == nil {
		return ""
	}
	return pick.Text()
}

// abstractText applies the same language preference as titles; the text of
// an abstract sits one level deeper, in paragraph children.
func abstractText(candidates []Node) string {
	pick := pickByLanguage(candidates)
	if pick == nil {
		return ""
	}
	var text string
	for _, p := range pick.Get("p").List() {
		if s := p.Text(); s != "" {
			if text != "" {
				text += "\n"
			}
			text += s
		}
	}
	if text == "" {
		text = pick.Text()
	}
	return text
}

// pickByLanguage returns the entry tagged @lang "en" if present, otherwise
// the first entry, otherwise nil.
func pickByLanguage(candidates []Node) *Node {
	if len(candidates) == 0 {
		return nil
	}
	for i := range candidates {
		if candidates[i].Get("@lang").Text() == "en" {
			return &candidates[i]
		}
	}
	return &candidates[0]
}

// applicantNames descends each applicant entry into its name sub-structure
// and keeps the first resolvable string name; unresolved entries are
// dropped, order is preserved.
func applicantNames(applicants []Node) []string {
	var names []string
	for _, app := range applicants {
		for _, name := range app.Path("applicant-name", "name").List() {
			if s := name.Text(); s != "" {
				names = append(names, s)
				break
			}
		}
	}
	return names
}

// publicationDate takes the first dated document-id under the publication
// reference.
func publicationDate(biblio Node) string {
	for _, docID := range biblio.Path("publication-reference", "document-id").List() {
		if d := docID.Get("date").Text(); d != "" {
			return d
		}
	}
	return ""
}
