// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ops

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/patent-scout/pkg/types"
)

// QueryFile is the on-disk representation of a search and its results. A
// search can be saved to a file and reloaded later without hitting the API
// (or its rate limits) again.
type QueryFile struct {
	Query   string             `yaml:"query"`
	Range   string             `yaml:"range"`
	Result  types.SearchResult `yaml:"result"`
	Summary QuerySummary       `yaml:"summary"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total        int       `yaml:"total"`
	Returned     int       `yaml:"returned"`
	EnrichFailed int       `yaml:"enrich_failed,omitempty"`
	Timestamp    time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves a search and its results to a YAML file.
func WriteQueryFile(path string, result types.SearchResult) error {
	failed := 0
	for _, doc := range result.Docs {
		if doc.EnrichFailed {
			failed++
		}
	}

	qf := QueryFile{
		Query:  result.Query,
		Range:  result.Range.String(),
		Result: result,
		Summary: QuerySummary{
			Total:        result.Total,
			Returned:     len(result.Docs),
			EnrichFailed: failed,
			Timestamp:    time.Now(),
		},
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}
