// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the patent-scout CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/patent-scout/internal/secrets"
	"github.com/pdiddy/patent-scout/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// secretDefault returns fallback when set, the secret value for key
// otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets.Get(key)
}

// rootCmd is the base command for the patent-scout CLI.
var rootCmd = &cobra.Command{
	Use:   "patent-scout",
	Short: "Search and enrich patent bibliographic data",
	Long: `patent-scout queries the OPS published-data services for patent documents
matching a CQL query, then fills in titles, abstracts, and applicants with
rate-limited bibliographic lookups when the search response carries none.

Credentials (consumer key and secret) are read from .secrets/ or the config
file; searches are recorded in a local history database.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Keys())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./patent-scout.yaml or ~/.config/patent-scout/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("patent-scout")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "patent-scout"))
		}
	}

	viper.SetEnvPrefix("PATENT_SCOUT")
	viper.AutomaticEnv()

	viper.SetDefault("search.timeout", 30*time.Second)
	viper.SetDefault("search.user_agent", "patent-scout/"+version)
	viper.SetDefault("search.default_range", "1-25")
	viper.SetDefault("search.enrich_delay", 400*time.Millisecond)
	viper.SetDefault("history.dir", ".patent-scout")
	viper.SetDefault("history.max_entries", 20)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// searchConfig assembles the search client configuration from config file,
// environment, and loaded secrets.
func searchConfig() types.SearchConfig {
	return types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("search.timeout"),
			UserAgent: viper.GetString("search.user_agent"),
		},
		ConsumerKey:    secretDefault("ops-consumer-key", viper.GetString("search.consumer_key")),
		ConsumerSecret: secretDefault("ops-consumer-secret", viper.GetString("search.consumer_secret")),
		DefaultRange:   viper.GetString("search.default_range"),
		EnrichDelay:    viper.GetDuration("search.enrich_delay"),
	}
}

// historyConfig assembles the history store configuration.
func historyConfig() types.HistoryConfig {
	return types.HistoryConfig{
		HistoryDir: viper.GetString("history.dir"),
		MaxEntries: viper.GetInt("history.max_entries"),
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
