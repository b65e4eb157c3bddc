// Package database manages the per-workspace Postgres containers. Each
// workspace owns exactly one container; isolating workspaces at the container
// level (rather than as logical databases in a shared engine) means a reset
// can never touch a neighbour's data, and status reflects true OS-level
// running state.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/opensaas/devfleet/config"
	"github.com/opensaas/devfleet/docker"
	"github.com/opensaas/devfleet/utils"
	"github.com/opensaas/devfleet/workspace"
)

// ErrStartTimeout means a container was started but did not accept
// connections within the configured bound. Distinct from port problems so
// operators can tell "your database is broken" from "your ports are stuck".
var ErrStartTimeout = errors.New("database start timeout")

// InstanceStatus is one row of the fleet report.
type InstanceStatus struct {
	Workspace workspace.Name
	Container string
	Port      int
	Exists    bool
	Running   bool
	StartedAt time.Time
	// Err records a per-row probe failure; the report as a whole never aborts.
	Err error
}

// Manager owns database container lifecycles. No other component mutates
// container state directly.
type Manager struct {
	conf  *config.Config
	table *workspace.Table
	rt    docker.Runtime
}

// NewManager returns a Manager over the given runtime and allocation table.
func NewManager(conf *config.Config, table *workspace.Table, rt docker.Runtime) *Manager {
	return &Manager{conf: conf, table: table, rt: rt}
}

// Status probes every workspace in the allocation table. Probe errors are
// reported inline per row; ErrUnavailable still aborts (nothing useful can
// be probed without an engine).
func (m *Manager) Status(ctx context.Context) ([]InstanceStatus, error) {
	if err := m.rt.Ping(ctx); err != nil {
		return nil, err
	}
	rows := make([]InstanceStatus, 0, len(m.table.All()))
	for _, ws := range m.table.All() {
		row := InstanceStatus{Workspace: ws.Name, Container: ws.DBContainer, Port: ws.DBPort}
		st, err := m.rt.Inspect(ctx, ws.DBContainer)
		switch {
		case errors.Is(err, docker.ErrNotFound):
			// Absent is a normal state, not an error.
		case err != nil:
			row.Err = err
		default:
			row.Exists = true
			row.Running = st.Running
			row.StartedAt = st.StartedAt
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Start is idempotent: it creates the container on first use, starts it when
// stopped, no-ops when already running, and in every case waits until the
// database accepts connections before returning.
func (m *Manager) Start(ctx context.Context, ws *workspace.Workspace) error {
	logger := log.WithFunc("database.Start")

	st, err := m.rt.Inspect(ctx, ws.DBContainer)
	switch {
	case errors.Is(err, docker.ErrNotFound):
		logger.Infof(ctx, "creating database container %s (port %d)", ws.DBContainer, ws.DBPort)
		if err := m.rt.Create(ctx, m.containerConfig(ws)); err != nil {
			return fmt.Errorf("create %s: %w", ws.DBContainer, err)
		}
		st = &docker.ContainerState{}
	case err != nil:
		return fmt.Errorf("inspect %s: %w", ws.DBContainer, err)
	}

	if !st.Running {
		logger.Infof(ctx, "starting database container %s", ws.DBContainer)
		if err := m.rt.Start(ctx, ws.DBContainer); err != nil {
			return fmt.Errorf("start %s: %w", ws.DBContainer, err)
		}
	}

	return m.waitReady(ctx, ws)
}

// Stop is idempotent: a stopped or absent container is a no-op.
func (m *Manager) Stop(ctx context.Context, ws *workspace.Workspace) error {
	st, err := m.rt.Inspect(ctx, ws.DBContainer)
	switch {
	case errors.Is(err, docker.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("inspect %s: %w", ws.DBContainer, err)
	case !st.Running:
		return nil
	}
	if err := m.rt.Stop(ctx, ws.DBContainer); err != nil {
		return fmt.Errorf("stop %s: %w", ws.DBContainer, err)
	}
	return nil
}

// Reset destroys the workspace's database and recreates it empty. Destroys
// all data; confirmation is the caller's concern. Only ws.DBContainer is
// ever touched — other workspaces' instances cannot be affected.
func (m *Manager) Reset(ctx context.Context, ws *workspace.Workspace) error {
	logger := log.WithFunc("database.Reset")

	st, err := m.rt.Inspect(ctx, ws.DBContainer)
	switch {
	case errors.Is(err, docker.ErrNotFound):
		// Nothing to remove; fall through to a fresh Start.
	case err != nil:
		return fmt.Errorf("inspect %s: %w", ws.DBContainer, err)
	default:
		if st.Running {
			if err := m.rt.Stop(ctx, ws.DBContainer); err != nil {
				return fmt.Errorf("stop %s: %w", ws.DBContainer, err)
			}
		}
		logger.Infof(ctx, "removing database container %s (all data destroyed)", ws.DBContainer)
		if err := m.rt.Remove(ctx, ws.DBContainer); err != nil {
			return fmt.Errorf("remove %s: %w", ws.DBContainer, err)
		}
	}

	return m.Start(ctx, ws)
}

// StopAll stops every workspace's database, best-effort. Individual failures
// are collected and reported together; the batch never aborts early.
func (m *Manager) StopAll(ctx context.Context) error {
	logger := log.WithFunc("database.StopAll")
	var errs []error
	for _, ws := range m.table.All() {
		if err := m.Stop(ctx, ws); err != nil {
			logger.Warnf(ctx, "stop %s: %v", ws.Name, err)
			errs = append(errs, fmt.Errorf("workspace %s: %w", ws.Name, err))
		}
	}
	return errors.Join(errs...)
}

// URL returns the connection string applications use to reach this
// workspace's database from the host.
func (m *Manager) URL(ws *workspace.Workspace) string {
	return fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s",
		m.conf.PostgresUser, m.conf.PostgresPassword, ws.DBPort, ws.DBName)
}

func (m *Manager) containerConfig(ws *workspace.Workspace) docker.ContainerConfig {
	return docker.ContainerConfig{
		Name:     ws.DBContainer,
		Image:    m.conf.PostgresImage,
		HostPort: ws.DBPort,
		Env: []string{
			"POSTGRES_USER=" + m.conf.PostgresUser,
			"POSTGRES_PASSWORD=" + m.conf.PostgresPassword,
			"POSTGRES_DB=" + ws.DBName,
		},
	}
}

// waitReady polls pg_isready inside the container until Postgres accepts
// connections or the configured timeout expires. Launched applications read
// the connection string at startup and would otherwise race an unready
// database.
func (m *Manager) waitReady(ctx context.Context, ws *workspace.Workspace) error {
	err := utils.WaitFor(ctx, m.conf.DBStartTimeout(), m.conf.DBPollInterval(), func() (bool, error) {
		// pg_isready exits zero only once Postgres accepts connections.
		_, execErr := m.rt.Exec(ctx, ws.DBContainer, "pg_isready", "-U", m.conf.PostgresUser)
		if execErr != nil {
			// The engine disappearing mid-wait is fatal; a refused probe is
			// just "not yet".
			if errors.Is(execErr, docker.ErrUnavailable) {
				return false, execErr
			}
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		if errors.Is(err, docker.ErrUnavailable) || errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %s did not accept connections within %s",
			ErrStartTimeout, ws.DBContainer, m.conf.DBStartTimeout())
	}
	return nil
}
