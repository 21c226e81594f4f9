package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/patent-scout/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent searches from the local history database",
	Long: `History lists recently recorded searches: when they ran, the query, the
requested window, and how many documents came back. Searches are recorded
automatically unless --no-history was given.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 0, "maximum number of entries to list (default from config)")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.NewStore(historyConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No searches recorded yet.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-19s  %-50s  %-9s  %-6s  %s\n",
		"ID", "When", "Query", "Range", "Total", "Docs")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for _, e := range entries {
		query := e.Query
		if len(query) > 50 {
			query = query[:47] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-5d  %-19s  %-50s  %-9s  %-6d  %d\n",
			e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			query, e.Range.String(), e.Total, e.Returned)
	}
	return nil
}
