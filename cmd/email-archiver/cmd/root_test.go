package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func TestRegisteredCommands(t *testing.T) {
	want := map[string]bool{
		"archive": false,
		"search":  false,
		"stats":   false,
		"cleanup": false,
		"init-db": false,
		"menu":    false,
		"serve":   false,
		"update":  false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q is not registered", name)
		}
	}
}

func TestExecuteContext_CancellationPropagates(t *testing.T) {
	handlerStarted := make(chan struct{})
	testRoot := &cobra.Command{Use: "email-archiver"}
	testRoot.AddCommand(&cobra.Command{
		Use: "test-cancel",
		RunE: func(cmd *cobra.Command, args []string) error {
			close(handlerStarted)
			<-cmd.Context().Done()
			return cmd.Context().Err()
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		testRoot.SetArgs([]string{"test-cancel"})
		done <- testRoot.ExecuteContext(ctx)
	}()

	select {
	case <-handlerStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("command handler did not start in time")
	}

	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("ExecuteContext() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ExecuteContext did not return after cancellation")
	}
}
