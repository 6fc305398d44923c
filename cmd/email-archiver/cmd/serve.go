package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Nurdvu1et/email-archiver/internal/api"
	"github.com/Nurdvu1et/email-archiver/internal/archive"
	"github.com/Nurdvu1et/email-archiver/internal/mailbox"
	"github.com/Nurdvu1et/email-archiver/internal/scheduler"
	"github.com/Nurdvu1et/email-archiver/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a daemon with scheduled archive runs",
	Long: `Run email-archiver as a long-running daemon:
  - HTTP API server on the configured port (default: 8080)
  - Scheduled archive runs per the [schedule] cron expression

Configure the schedule in config.toml:
  [schedule]
  cron = "0 2 * * *"   # 2am daily
  enabled = true

Cron format: minute hour day-of-month month day-of-week
  Examples:
    0 2 * * *     = 2:00 AM daily
    */15 * * * *  = Every 15 minutes
    0 0 * * 0     = Midnight on Sundays

Use Ctrl+C to stop the daemon gracefully.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if !cfg.Schedule.Enabled {
		return fmt.Errorf("no schedule configured\n\nAdd to config.toml:\n\n  [schedule]\n  cron = \"0 2 * * *\"\n  enabled = true")
	}
	if err := scheduler.ValidateCronExpr(cfg.Schedule.Cron); err != nil {
		return fmt.Errorf("invalid [schedule] cron: %w", err)
	}
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

	mailboxCfg := cfg.MailboxConfig()
	jobName := mailboxCfg.Identifier()

	job := func(ctx context.Context) error {
		logger.Info("starting scheduled archive run", "mailbox", jobName)
		start := time.Now()

		client := mailbox.NewClient(mailboxCfg, mailbox.WithLogger(logger))
		archiver := archive.New(client, s, archive.Options{
			ArchiveRoot:        cfg.Archive.Root,
			DeleteAfterArchive: cfg.Archive.DeleteAfterArchive,
		}).WithLogger(logger)

		summary, err := archiver.Run(ctx)
		if err != nil {
			return err
		}
		logger.Info("scheduled archive run completed",
			"mailbox", jobName,
			"processed", summary.Processed,
			"found", summary.Found,
			"duration", time.Since(start),
		)
		return nil
	}

	sched := scheduler.New().WithLogger(logger)
	if err := sched.Add(jobName, cfg.Schedule.Cron, job); err != nil {
		return fmt.Errorf("schedule archive run: %w", err)
	}
	sched.Start()

	apiServer := api.NewServer(cfg, s, sched, jobName, logger)

	bindAddr := cfg.Server.BindAddr
	if bindAddr == "" {
		bindAddr = "127.0.0.1"
	}
	fmt.Printf("email-archiver daemon started\n")
	fmt.Printf("  API server: http://%s\n", net.JoinHostPort(bindAddr, strconv.Itoa(cfg.Server.Port)))
	fmt.Printf("  Archive root: %s\n", cfg.Archive.Root)
	for _, status := range sched.Status() {
		fmt.Printf("  %s: next run at %s\n", status.Name, status.NextRun.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop.")

	g, ctx := errgroup.WithContext(cmd.Context())

	g.Go(func() error {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		fmt.Println("\nShutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("API server shutdown error", "error", err)
		}

		schedCtx := sched.Stop()
		select {
		case <-schedCtx.Done():
		case <-time.After(30 * time.Second):
			logger.Warn("scheduler shutdown timed out")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Println("Shutdown complete.")
	return nil
}
