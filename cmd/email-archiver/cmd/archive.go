package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nurdvu1et/email-archiver/internal/archive"
	"github.com/Nurdvu1et/email-archiver/internal/mailbox"
	"github.com/Nurdvu1et/email-archiver/internal/store"
)

var archiveDelete bool

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive attachments from unseen messages",
	Long: `Connect to the configured mailbox, download unseen messages, save
their attachments under the archive root, and record metadata in the
database. Each run handles at most 100 messages.

With --delete (or delete_after_archive in the config) archived messages
are flagged \Deleted on the server. Flagged messages are only purged by
the separate cleanup command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deleteAfter := cfg.Archive.DeleteAfterArchive
		if cmd.Flags().Changed("delete") {
			deleteAfter = archiveDelete
		}
		return runArchive(cmd.Context(), deleteAfter)
	},
}

// runArchive performs one pipeline run and prints its summary. Shared
// with the interactive menu.
func runArchive(ctx context.Context, deleteAfter bool) error {
	if err := cfg.ValidateMailbox(); err != nil {
		return fmt.Errorf("mailbox config: %w", err)
	}

	s, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	if err := s.InitSchema(); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	client := mailbox.NewClient(cfg.MailboxConfig(), mailbox.WithLogger(logger))
	archiver := archive.New(client, s, archive.Options{
		ArchiveRoot:        cfg.Archive.Root,
		DeleteAfterArchive: deleteAfter,
	}).WithLogger(logger)

	summary, err := archiver.Run(ctx)
	if err != nil {
		return fmt.Errorf("archive run: %w", err)
	}

	fmt.Printf("Processed %d of %d unseen messages\n", summary.Processed, summary.Found)
	if summary.NoAttachments > 0 {
		fmt.Printf("  No attachments: %d\n", summary.NoAttachments)
	}
	if summary.Duplicates > 0 {
		fmt.Printf("  Already archived: %d\n", summary.Duplicates)
	}
	if summary.Failed > 0 || summary.FetchFailures > 0 {
		fmt.Printf("  Failures: %d (fetch: %d)\n", summary.Failed, summary.FetchFailures)
	}
	return nil
}

func init() {
	archiveCmd.Flags().BoolVar(&archiveDelete, "delete", false, "flag archived messages \\Deleted (overrides config)")
	rootCmd.AddCommand(archiveCmd)
}
