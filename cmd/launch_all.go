package cmd

import (
	"errors"
	"fmt"
	"sync"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var launchAllCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch-all",
		Short: "Safe-start every workspace with a configured worktree root",
		Args:  cobra.NoArgs,
		RunE:  runLaunchAll,
	}
	cmd.Flags().Bool("with-db-status", false, "print the database fleet status afterwards")
	return cmd
}()

// runLaunchAll fans safe start out across the allocation table. Workspace
// resource footprints never intersect, so the launches can run concurrently;
// each workspace's failure is isolated — one broken worktree must not stop
// the rest from coming up.
func runLaunchAll(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	logger := log.WithFunc("cmd.launchAll")

	table, db, sup, err := initFleet()
	if err != nil {
		return err
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, ws := range table.All() {
		ws := ws
		if ws.Root == "" {
			logger.Warnf(ctx, "skipping %s: no worktree root configured", ws.Name)
			continue
		}
		g.Go(func() error {
			if err := withWorkspaceLock(gctx, ws.Name, func() error {
				return sup.SafeStart(gctx, ws.Root, ws, false)
			}); err != nil {
				logger.Warnf(gctx, "launch %s: %v", ws.Name, err)
				record(fmt.Errorf("workspace %s: %w", ws.Name, err))
				return nil // isolate: keep the rest launching
			}
			logger.Infof(gctx, "launched %s: web %s, api %s", ws.Name, ws.WebURL(), ws.APIURL())
			return nil
		})
	}
	_ = g.Wait()

	if withStatus, _ := cmd.Flags().GetBool("with-db-status"); withStatus {
		rows, serr := db.Status(ctx)
		if serr != nil {
			record(fmt.Errorf("db status: %w", serr))
		} else {
			renderDBStatus(rows)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("launch-all: %w", errors.Join(errs...))
	}
	return nil
}
