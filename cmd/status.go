package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/opensaas/devfleet/database"
	"github.com/opensaas/devfleet/supervisor"
	"github.com/opensaas/devfleet/workspace"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show every workspace's database and dev-server state",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	table, db, sup, err := initFleet()
	if err != nil {
		return err
	}

	rows, err := db.Status(ctx)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	byName := map[workspace.Name]*workspace.Workspace{}
	for _, ws := range table.All() {
		byName[ws.Name] = ws
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WORKSPACE\tDATABASE\tDB PORT\tCONTAINER\tUPTIME\tWEB\tAPI")
	for _, row := range rows {
		ws := byName[row.Workspace]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			row.Workspace,
			dbStateLabel(row),
			row.Port,
			row.Container,
			uptime(row),
			appStateLabel(ctx, sup, ws.WebPort),
			appStateLabel(ctx, sup, ws.APIPort),
		)
	}
	w.Flush() //nolint:errcheck,gosec
	return nil
}

// dbStateLabel renders one probe result. Probe errors show inline; the
// report never aborts on a single broken row.
func dbStateLabel(row database.InstanceStatus) string {
	switch {
	case row.Err != nil:
		return fmt.Sprintf("error: %v", row.Err)
	case !row.Exists:
		return "absent"
	case row.Running:
		return "running"
	default:
		return "stopped"
	}
}

func uptime(row database.InstanceStatus) string {
	if !row.Running || row.StartedAt.IsZero() {
		return "-"
	}
	return units.HumanDuration(time.Since(row.StartedAt))
}

func appStateLabel(ctx context.Context, sup *supervisor.Supervisor, port int) string {
	if sup.PortBound(ctx, port) {
		return fmt.Sprintf("up :%d", port)
	}
	return "down"
}
