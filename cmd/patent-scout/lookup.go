package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/patent-scout/internal/history"
	"github.com/pdiddy/patent-scout/internal/ops"
	"github.com/pdiddy/patent-scout/pkg/types"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [docid]",
	Short: "Fetch bibliographic data for one document",
	Long: `Lookup fetches the bibliographic record for a single document identified
by its canonical id, e.g. EP1234567.A1 or US20230012345. Rate-limit (429)
responses are retried with backoff.

Use --cached to read earlier copies from the local history database instead
of querying the API.`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().Bool("cached", false, "read the document from the history database")
	lookupCmd.Flags().Bool("json", false, "output the document as JSON")

	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	id, ok := types.ParseDocumentID(strings.TrimSpace(args[0]))
	if !ok {
		return fmt.Errorf("invalid document id %q: want COUNTRY+NUMBER[.KIND], e.g. EP1234567.A1", args[0])
	}

	if cached, _ := cmd.Flags().GetBool("cached"); cached {
		return lookupCached(cmd, id)
	}

	cfg := searchConfig()
	if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		return fmt.Errorf("missing credentials: put ops-consumer-key and ops-consumer-secret in .secrets/ or set search.consumer_key/search.consumer_secret")
	}

	client := ops.NewClient(cfg, os.Stderr)
	doc, err := client.Lookup(cmd.Context(), id)
	if err != nil {
		return err
	}
	return outputDocument(cmd, doc)
}

func lookupCached(cmd *cobra.Command, id types.DocumentID) error {
	store, err := history.NewStore(historyConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	docs, err := store.FindDocument(cmd.Context(), id)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("%s not found in history", id)
	}
	return outputDocument(cmd, docs[0])
}

func outputDocument(cmd *cobra.Command, doc types.PatentDocument) error {
	result := types.SearchResult{
		Success: true,
		Total:   1,
		Range:   types.Range{Begin: 1, End: 1},
		Docs:    []types.PatentDocument{doc},
		Query:   doc.ID.String(),
	}
	return outputResult(cmd, result)
}
