package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/opensaas/devfleet/database"
	"github.com/opensaas/devfleet/docker"
	"github.com/opensaas/devfleet/lock"
	"github.com/opensaas/devfleet/lock/flock"
	"github.com/opensaas/devfleet/supervisor"
	"github.com/opensaas/devfleet/workspace"
)

// initFleet wires the allocation table, container runtime, database manager,
// and supervisor from the loaded config.
func initFleet() (*workspace.Table, *database.Manager, *supervisor.Supervisor, error) {
	table, err := conf.Table()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("allocation table: %w", err)
	}
	rt := docker.NewCLI(conf.DockerBinary)
	db := database.NewManager(conf, table, rt)
	return table, db, supervisor.New(conf, db), nil
}

// currentWorkspace resolves the workspace identity from the invoking
// directory. Fails closed on unknown paths — no default bundle, ever.
func currentWorkspace(table *workspace.Table) (*workspace.Workspace, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determine working directory: %w", err)
	}
	return table.Resolve(cwd)
}

// argWorkspace returns the workspace named by args[0], or the current one
// when no argument was given.
func argWorkspace(table *workspace.Table, args []string) (*workspace.Workspace, error) {
	if len(args) > 0 {
		return table.Lookup(workspace.Name(args[0]))
	}
	return currentWorkspace(table)
}

// withWorkspaceLock serializes mutating operations for one workspace across
// processes via its flock.
func withWorkspaceLock(ctx context.Context, id workspace.Name, fn func() error) error {
	if err := conf.EnsureWorkspaceDirs(id); err != nil {
		return err
	}
	return lock.WithLock(ctx, flock.New(conf.WorkspaceLock(id)), fn)
}
