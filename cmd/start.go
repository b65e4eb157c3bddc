package cmd

import (
	"fmt"
	"os"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	"github.com/opensaas/devfleet/workspace"
)

var startCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Safe-start the current workspace (reclaim ports, ensure DB, launch dev servers)",
		Args:  cobra.NoArgs,
		RunE:  runStart,
	}
	cmd.Flags().Bool("clean", false, "wipe build artifacts before launching (slow)")
	cmd.Flags().String("workspace", "", "start this workspace instead of the one resolved from the current directory")
	return cmd
}()

func runStart(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	logger := log.WithFunc("cmd.start")

	table, _, sup, err := initFleet()
	if err != nil {
		return err
	}
	var (
		ws   *workspace.Workspace
		root string
	)
	if name, _ := cmd.Flags().GetString("workspace"); name != "" {
		// Explicit identity: the worktree root must come from the table.
		if ws, err = table.Lookup(workspace.Name(name)); err != nil {
			return err
		}
		if root = ws.Root; root == "" {
			return fmt.Errorf("workspace %s has no worktree root configured; run start from its directory instead", ws.Name)
		}
	} else {
		if ws, err = currentWorkspace(table); err != nil {
			return err
		}
		if root, err = os.Getwd(); err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
	}

	clean, _ := cmd.Flags().GetBool("clean")

	if err := withWorkspaceLock(ctx, ws.Name, func() error {
		return sup.SafeStart(ctx, root, ws, clean)
	}); err != nil {
		return err
	}
	logger.Infof(ctx, "workspace %s started: web %s, api %s", ws.Name, ws.WebURL(), ws.APIURL())
	return nil
}
