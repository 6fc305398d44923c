package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const (
	menuArchive = "archive"
	menuSearch  = "search"
	menuCleanup = "cleanup"
	menuExit    = "exit"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Interactive menu",
	Long: `Run email-archiver interactively. The menu loops until Exit is
chosen, offering the archive run, archive search, and mailbox cleanup
actions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isatty.IsTerminal(os.Stdin.Fd()) {
			return fmt.Errorf("menu requires a terminal, use the archive/search/cleanup commands instead")
		}

		for {
			choice, err := menuSelect()
			if err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return err
			}

			switch choice {
			case menuArchive:
				if err := runArchive(cmd.Context(), cfg.Archive.DeleteAfterArchive); err != nil {
					fmt.Fprintf(os.Stderr, "Archive failed: %v\n", err)
				}
			case menuSearch:
				if err := menuSearchAction(); err != nil {
					fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
				}
			case menuCleanup:
				if err := runCleanup(cmd.Context(), false); err != nil {
					fmt.Fprintf(os.Stderr, "Cleanup failed: %v\n", err)
				}
			case menuExit:
				return nil
			}
			fmt.Println()
		}
	},
}

func menuSelect() (string, error) {
	var choice string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Email Archiver").
			Options(
				huh.NewOption("Archive new emails", menuArchive),
				huh.NewOption("Search archived emails", menuSearch),
				huh.NewOption("Clean up mailbox", menuCleanup),
				huh.NewOption("Exit", menuExit),
			).
			Value(&choice),
	))
	if err := form.Run(); err != nil {
		return "", err
	}
	return choice, nil
}

func menuSearchAction() error {
	var term string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Search term").
			Value(&term),
	))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}

	results, err := searchStore(term)
	if err != nil {
		logger.Error("search failed", "query", term, "error", err)
	}
	return outputSearchTable(term, results)
}

func init() {
	rootCmd.AddCommand(menuCmd)
}
