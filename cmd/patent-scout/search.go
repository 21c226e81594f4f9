package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/patent-scout/internal/history"
	"github.com/pdiddy/patent-scout/internal/ops"
	"github.com/pdiddy/patent-scout/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for patents matching a CQL query",
	Long: `Search runs a CQL query against the published-data search service and
prints the matching documents with their bibliographic data. When the search
response does not embed bibliographic data, each hit is enriched with a
separate rate-limited lookup.

The query string is passed to the service verbatim; see the OPS documentation
for CQL syntax (e.g. 'ti="neural network" and pa=siemens').

Use --load to reprint a previously saved search without querying the API.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("range", "", "result window as begin-end, 1-based inclusive (default 1-25)")
	searchCmd.Flags().Bool("json", false, "output the result set as JSON")
	searchCmd.Flags().Bool("csl", false, "output the result set as CSL-YAML")
	searchCmd.Flags().String("save", "", "save the search and results to a YAML file")
	searchCmd.Flags().String("load", "", "load a previously saved search instead of querying")
	searchCmd.Flags().Bool("no-history", false, "do not record this search in the history database")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	loadPath, _ := cmd.Flags().GetString("load")
	if loadPath != "" {
		qf, err := ops.ReadQueryFile(loadPath)
		if err != nil {
			return err
		}
		return outputResult(cmd, qf.Result)
	}

	if len(args) == 0 || args[0] == "" {
		return fmt.Errorf("query required: provide a CQL query string or --load")
	}
	query := args[0]
	rng, _ := cmd.Flags().GetString("range")

	cfg := searchConfig()
	if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		return fmt.Errorf("missing credentials: put ops-consumer-key and ops-consumer-secret in .secrets/ or set search.consumer_key/search.consumer_secret")
	}

	client := ops.NewClient(cfg, os.Stderr)
	result, err := client.Search(cmd.Context(), query, rng)
	if err != nil {
		// The result carries the same failure; render it the way the
		// caller-facing contract promises and fail the command.
		fmt.Print(ops.FormatText(result))
		return err
	}

	if savePath, _ := cmd.Flags().GetString("save"); savePath != "" {
		if err := ops.WriteQueryFile(savePath, result); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved search to %s\n", savePath)
	}

	if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory {
		recordSearch(cmd.Context(), result)
	}

	return outputResult(cmd, result)
}

// recordSearch best-effort persists a successful search; history failures
// never fail the search itself.
func recordSearch(ctx context.Context, result types.SearchResult) {
	store, err := history.NewStore(historyConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not open history store: %v\n", err)
		return
	}
	defer store.Close()

	if _, err := store.Record(ctx, result); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not record search: %v\n", err)
	}
}

func outputResult(cmd *cobra.Command, result types.SearchResult) error {
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		return ops.FormatJSON(result, os.Stdout)
	}
	if cslOut, _ := cmd.Flags().GetBool("csl"); cslOut {
		return ops.FormatCSL(result, os.Stdout)
	}
	fmt.Print(ops.FormatText(result))
	return nil
}
