package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	"github.com/opensaas/devfleet/database"
	"github.com/opensaas/devfleet/docker"
)

var dbCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage per-workspace database containers",
	}
	cmd.AddCommand(dbStartCmd, dbStopCmd, dbResetCmd, dbStatusCmd, dbShellCmd)
	return cmd
}()

var dbStartCmd = &cobra.Command{
	Use:   "start [workspace]",
	Short: "Create/start the workspace's database and wait until it accepts connections",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		table, db, _, err := initFleet()
		if err != nil {
			return err
		}
		ws, err := argWorkspace(table, args)
		if err != nil {
			return err
		}
		return withWorkspaceLock(ctx, ws.Name, func() error {
			return db.Start(ctx, ws)
		})
	},
}

var dbStopCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop [workspace]",
		Short: "Stop the workspace's database (or all of them)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDBStop,
	}
	cmd.Flags().Bool("all", false, "stop every workspace's database (best-effort)")
	return cmd
}()

func runDBStop(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	table, db, _, err := initFleet()
	if err != nil {
		return err
	}

	if all, _ := cmd.Flags().GetBool("all"); all {
		if len(args) > 0 {
			return fmt.Errorf("--all takes no workspace argument")
		}
		return db.StopAll(ctx)
	}

	ws, err := argWorkspace(table, args)
	if err != nil {
		return err
	}
	return withWorkspaceLock(ctx, ws.Name, func() error {
		return db.Stop(ctx, ws)
	})
}

var dbResetCmd = &cobra.Command{
	Use:   "reset [workspace]",
	Short: "Destroy the workspace's database and recreate it empty (irreversible)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		logger := log.WithFunc("cmd.db.reset")
		table, db, _, err := initFleet()
		if err != nil {
			return err
		}
		ws, err := argWorkspace(table, args)
		if err != nil {
			return err
		}
		logger.Warnf(ctx, "resetting %s: all data in %s will be destroyed", ws.Name, ws.DBContainer)
		return withWorkspaceLock(ctx, ws.Name, func() error {
			return db.Reset(ctx, ws)
		})
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the run state of every workspace's database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := commandContext(cmd)
		_, db, _, err := initFleet()
		if err != nil {
			return err
		}
		rows, err := db.Status(ctx)
		if err != nil {
			return fmt.Errorf("db status: %w", err)
		}
		renderDBStatus(rows)
		return nil
	},
}

var dbShellCmd = &cobra.Command{
	Use:   "shell [workspace]",
	Short: "Open an interactive psql session in the workspace's database container",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		table, db, _, err := initFleet()
		if err != nil {
			return err
		}
		ws, err := argWorkspace(table, args)
		if err != nil {
			return err
		}
		// The container must be accepting connections before psql attaches.
		// Start under the lock; the exec replacement happens outside it.
		if err := withWorkspaceLock(ctx, ws.Name, func() error {
			return db.Start(ctx, ws)
		}); err != nil {
			return err
		}
		cli := docker.NewCLI(conf.DockerBinary)
		return cli.ReplaceWithExec(ws.DBContainer, "psql", "-U", conf.PostgresUser, "-d", ws.DBName)
	},
}

func renderDBStatus(rows []database.InstanceStatus) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WORKSPACE\tSTATE\tPORT\tCONTAINER\tUPTIME")
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			row.Workspace, dbStateLabel(row), row.Port, row.Container, uptime(row))
	}
	w.Flush() //nolint:errcheck,gosec
}
