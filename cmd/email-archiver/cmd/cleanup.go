package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Nurdvu1et/email-archiver/internal/mailbox"
)

var cleanupYes bool

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Permanently remove messages flagged \\Deleted",
	Long: `Expunge messages flagged \Deleted from the configured mailbox.

The archive command only flags messages; nothing is removed from the
server until cleanup is run and confirmed. This cannot be undone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cleanupYes && !isatty.IsTerminal(os.Stdin.Fd()) {
			return fmt.Errorf("not a terminal, use --yes to confirm cleanup")
		}
		return runCleanup(cmd.Context(), cleanupYes)
	},
}

// runCleanup expunges flagged messages, asking for confirmation first
// unless skipConfirm is set. Shared with the interactive menu.
func runCleanup(ctx context.Context, skipConfirm bool) error {
	if err := cfg.ValidateMailbox(); err != nil {
		return fmt.Errorf("mailbox config: %w", err)
	}

	if !skipConfirm {
		confirmed, err := confirmCleanup()
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Cleanup cancelled.")
			return nil
		}
	}

	client := mailbox.NewClient(cfg.MailboxConfig(), mailbox.WithLogger(logger))
	session, err := client.Dial(ctx)
	if err != nil {
		return fmt.Errorf("connect mailbox: %w", err)
	}
	defer session.Close()

	if err := session.ExpungeFlagged(ctx); err != nil {
		return fmt.Errorf("expunge: %w", err)
	}

	fmt.Println("Flagged messages removed.")
	return nil
}

func confirmCleanup() (bool, error) {
	var confirmed bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Permanently delete all flagged messages from the server?").
			Description("This cannot be undone.").
			Affirmative("Delete").
			Negative("Cancel").
			Value(&confirmed),
	))
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("confirm: %w", err)
	}
	return confirmed, nil
}

func init() {
	cleanupCmd.Flags().BoolVarP(&cleanupYes, "yes", "y", false, "skip confirmation prompt")
	rootCmd.AddCommand(cleanupCmd)
}
