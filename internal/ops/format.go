// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ops

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/patent-scout/pkg/types"
)

// abstractPreviewLen is the rendered abstract length; the stored abstract
// stays untruncated.
const abstractPreviewLen = 200

// FormatText renders a result set as a compact text block. Fields that
// were not resolved are omitted outright, never shown as placeholders.
// Always produces a string; a failed or empty search renders as one line.
func FormatText(result types.SearchResult) string {
	if !result.Success || len(result.Docs) == 0 {
		return fmt.Sprintf("no patents found for query: %s\n", result.Query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d patents for query: %s (showing %d-%d)\n",
		result.Total, result.Query, result.Range.Begin, result.Range.End)

	for _, doc := range result.Docs {
		fmt.Fprintf(&b, "\n%s\n", doc.ID)
		if doc.Title != "" {
			fmt.Fprintf(&b, "  Title: %s\n", doc.Title)
		}
		if len(doc.Applicants) > 0 {
			fmt.Fprintf(&b, "  Applicants: %s\n", strings.Join(doc.Applicants, ", "))
		}
		if doc.PublicationDate != "" {
			fmt.Fprintf(&b, "  Published: %s\n", doc.PublicationDate)
		}
		if doc.Abstract != "" {
			abstract := doc.Abstract
			if len(abstract) > abstractPreviewLen {
				abstract = abstract[:abstractPreviewLen] + "..."
			}
			fmt.Fprintf(&b, "  Abstract: %s\n", abstract)
		}
	}

	b.WriteString("\nLook up any document id for full bibliographic details.\n")
	return b.String()
}

// FormatJSON writes the result set as indented JSON to w.
func FormatJSON(result types.SearchResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
