package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Nurdvu1et/email-archiver/internal/store"
	"github.com/Nurdvu1et/email-archiver/internal/textutil"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search <terms...>",
	Short: "Search the archive",
	Long: `Search archived emails by subject, sender, date, attachment names,
or indexed keywords. Terms are joined into one case-insensitive substring
query. At most 100 results are shown, newest first.

Examples:
  email-archiver search invoice
  email-archiver search alice@example.com
  email-archiver search quarterly report --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		results, err := searchStore(query)
		if err != nil {
			// A missing or uninitialized database is not fatal for
			// search; there is simply nothing to find yet.
			logger.Error("search failed", "query", query, "error", err)
		}

		if searchJSON {
			return outputSearchJSON(query, results)
		}
		return outputSearchTable(query, results)
	},
}

func searchStore(query string) ([]store.SearchResult, error) {
	s, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer s.Close()
	return s.SearchArchived(query)
}

func outputSearchTable(query string, results []store.SearchResult) error {
	if len(results) == 0 {
		fmt.Printf("No results for %q.\n", query)
		return nil
	}

	fmt.Printf("Found %d results for %q:\n\n", len(results), query)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tFROM\tSUBJECT\tATTACHMENTS\tPATH")
	for _, r := range results {
		date := textutil.TruncateRunes(textutil.FirstLine(r.DateReceived), 25)
		from := textutil.TruncateRunes(r.Sender, 30)
		subject := textutil.TruncateRunes(textutil.FirstLine(r.Subject), 50)
		attachments := textutil.TruncateRunes(strings.Join(r.Attachments, ", "), 40)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", date, from, subject, attachments, r.ArchivePath)
	}
	return w.Flush()
}

func outputSearchJSON(query string, results []store.SearchResult) error {
	if results == nil {
		results = []store.SearchResult{}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(searchCmd)
}
