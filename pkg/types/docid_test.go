// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "testing"

func TestParseDocumentID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  DocumentID
		ok    bool
	}{
		{
			name:  "country number and kind",
			input: "EP1234567.A1",
			want:  DocumentID{Country: "EP", Number: "1234567", Kind: "A1"},
			ok:    true,
		},
		{
			name:  "country and number only",
			input: "US20230012345",
			want:  DocumentID{Country: "US", Number: "20230012345"},
			ok:    true,
		},
		{
			name:  "kind without separating dot",
			input: "EP1234567B2",
			want:  DocumentID{Country: "EP", Number: "1234567", Kind: "B2"},
			ok:    true,
		},
		{
			name:  "lowercase country rejected",
			input: "ep1234567",
			ok:    false,
		},
		{
			name:  "missing number rejected",
			input: "EP.A1",
			ok:    false,
		},
		{
			name:  "three letter country rejected",
			input: "EPO1234567",
			ok:    false,
		},
		{
			name:  "empty string rejected",
			input: "",
			ok:    false,
		},
		{
			name:  "trailing garbage rejected",
			input: "EP1234567.A1x",
			ok:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDocumentID(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseDocumentID(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseDocumentID(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
			if !ok && !got.IsZero() {
				t.Errorf("failed parse should return zero id, got %+v", got)
			}
		})
	}
}

func TestDocumentIDRoundTrip(t *testing.T) {
	ids := []DocumentID{
		{Country: "EP", Number: "1234567", Kind: "A1"},
		{Country: "US", Number: "9876543", Kind: "B2"},
		{Country: "WO", Number: "2020123456"},
		{Country: "JP", Number: "1", Kind: "A1"},
	}
	for _, id := range ids {
		t.Run(id.String(), func(t *testing.T) {
			got, ok := ParseDocumentID(id.String())
			if !ok {
				t.Fatalf("ParseDocumentID(%q) failed", id.String())
			}
			if got != id {
				t.Errorf("round trip = %+v, want %+v", got, id)
			}
		})
	}
}

func TestDocumentIDStringOmitsEmptyKind(t *testing.T) {
	id := DocumentID{Country: "EP", Number: "1234567"}
	if s := id.String(); s != "EP1234567" {
		t.Errorf("String() = %q, want %q", s, "EP1234567")
	}

	got, ok := ParseDocumentID("EP1234567")
	if !ok {
		t.Fatal("ParseDocumentID failed")
	}
	if got.Kind != "" {
		t.Errorf("Kind = %q, want empty", got.Kind)
	}
}

func TestRangeString(t *testing.T) {
	r := Range{Begin: 1, End: 25}
	if r.String() != "1-25" {
		t.Errorf("String() = %q, want %q", r.String(), "1-25")
	}
}
