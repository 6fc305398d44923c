package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Nurdvu1et/email-archiver/internal/store"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show archive statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(cfg.DatabasePath())
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		stats, err := s.GetStats()
		if err != nil {
			return fmt.Errorf("get stats: %w", err)
		}

		if statsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]interface{}{
				"emails":              stats.EmailCount,
				"keywords":            stats.KeywordCount,
				"senders":             stats.SenderCount,
				"last_processed_at":   stats.LastProcessedAt,
				"database_size_bytes": stats.DatabaseSize,
			})
		}

		fmt.Printf("Database: %s\n", cfg.DatabasePath())
		fmt.Printf("  Emails:    %d\n", stats.EmailCount)
		fmt.Printf("  Keywords:  %d\n", stats.KeywordCount)
		fmt.Printf("  Senders:   %d\n", stats.SenderCount)
		if stats.LastProcessedAt != "" {
			fmt.Printf("  Last run:  %s\n", stats.LastProcessedAt)
		}
		fmt.Printf("  Size:      %.2f MB\n", float64(stats.DatabaseSize)/(1024*1024))
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statsCmd)
}
