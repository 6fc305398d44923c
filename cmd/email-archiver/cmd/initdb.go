package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nurdvu1et/email-archiver/internal/store"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Initialize the database schema",
	Long: `Create the email-archiver database schema.

Safe to run multiple times; tables are only created if they don't
already exist. The archive command runs this implicitly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := cfg.DatabasePath()
		logger.Info("initializing database", "path", dbPath)

		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		if err := s.InitSchema(); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}

		stats, err := s.GetStats()
		if err != nil {
			return fmt.Errorf("get stats: %w", err)
		}

		fmt.Printf("Database: %s\n", dbPath)
		fmt.Printf("  Emails:   %d\n", stats.EmailCount)
		fmt.Printf("  Keywords: %d\n", stats.KeywordCount)
		fmt.Printf("  Size:     %.2f MB\n", float64(stats.DatabaseSize)/(1024*1024))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initDBCmd)
}
