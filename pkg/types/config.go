package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "patent-scout/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the patent search client.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// ConsumerKey and ConsumerSecret are the OAuth2 client credentials
	// for the patent data service. Usually loaded from .secrets/ rather
	// than the config file.
	ConsumerKey    string `json:"consumer_key,omitempty" yaml:"consumer_key,omitempty"`
	ConsumerSecret string `json:"consumer_secret,omitempty" yaml:"consumer_secret,omitempty"`

	// DefaultRange is the result window requested when the caller gives
	// none (default "1-25").
	DefaultRange string `json:"default_range" yaml:"default_range"`

	// EnrichDelay is the pause between consecutive bibliographic lookups
	// (default 400ms, ~2.5 req/s). Tests set this near zero.
	EnrichDelay time.Duration `json:"enrich_delay" yaml:"enrich_delay"`
}

// HistoryConfig holds settings for the local search-history store.
type HistoryConfig struct {
	// HistoryDir is the directory holding the SQLite database.
	HistoryDir string `json:"history_dir" yaml:"history_dir"`

	// MaxEntries is the default maximum number of history rows listed
	// (default 20).
	MaxEntries int `json:"max_entries" yaml:"max_entries"`
}
