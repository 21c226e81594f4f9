package ops

import (
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/patent-scout/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names follow the CSL-JSON/CSL-YAML schema so output is
// consumable by Pandoc and reference managers; patents use the "patent"
// item type with the canonical id as the number field.
type CSLItem struct {
	ID       string    `yaml:"id"`
	Type     string    `yaml:"type"`
	Title    string    `yaml:"title,omitempty"`
	Author   []CSLName `yaml:"author,omitempty"`
	Abstract string    `yaml:"abstract,omitempty"`
	Number   string    `yaml:"number,omitempty"`
	Issued   *CSLDate  `yaml:"issued,omitempty"`
}

// CSLName represents a name in CSL format. Applicants are organizations as
// often as people, so they are emitted as literal names.
type CSLName struct {
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes the result set as a CSL-YAML list to w.
func FormatCSL(result types.SearchResult, w io.Writer) error {
	items := make([]CSLItem, len(result.Docs))
	for i, doc := range result.Docs {
		items[i] = toCSLItem(doc)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// toCSLItem converts a PatentDocument to a CSLItem.
func toCSLItem(doc types.PatentDocument) CSLItem {
	item := CSLItem{
		ID:       doc.ID.String(),
		Type:     "patent",
		Title:    doc.Title,
		Abstract: doc.Abstract,
		Number:   doc.ID.String(),
	}
	for _, a := range doc.Applicants {
		item.Author = append(item.Author, CSLName{Literal: a})
	}
	if d := cslDate(doc.PublicationDate); d != nil {
		item.Issued = d
	}
	return item
}

// cslDate converts an upstream YYYYMMDD date string to CSL date-parts.
// Shorter forms degrade to year or year-month; non-numeric input yields nil.
func cslDate(raw string) *CSLDate {
	var parts []int
	for _, seg := range []struct{ from, to int }{{0, 4}, {4, 6}, {6, 8}} {
		if len(raw) < seg.to {
			break
		}
		n := 0
		for _, r := range raw[seg.from:seg.to] {
			if r < '0' || r > '9' {
				return nil
			}
			n = n*10 + int(r-'0')
		}
		parts = append(parts, n)
	}
	if len(parts) == 0 {
		return nil
	}
	return &CSLDate{DateParts: [][]int{parts}}
}
