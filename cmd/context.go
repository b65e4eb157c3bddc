package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// newCommandContext returns the context for one devfleet invocation,
// cancelled on SIGINT/SIGTERM so in-flight port reclaims and database
// readiness waits unwind instead of leaving a workspace half-started.
func newCommandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// commandContext extracts the invocation context from a cobra command,
// falling back to Background when none was attached.
func commandContext(cmd *cobra.Command) context.Context {
	if cmd == nil || cmd.Context() == nil {
		return context.Background()
	}
	return cmd.Context()
}
