// Package supervisor implements safe start: the idempotent sequence that
// converges one workspace to "my ports, my database, my dev servers" without
// any coordination with other humans or agents on the same machine. Repeated
// invocations, from any caller, always end in the same state.
package supervisor

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/projecteru2/core/log"

	"github.com/opensaas/devfleet/config"
	"github.com/opensaas/devfleet/database"
	"github.com/opensaas/devfleet/utils"
	"github.com/opensaas/devfleet/workspace"
)

// Supervisor launches the application process pair for one workspace.
type Supervisor struct {
	conf *config.Config
	db   *database.Manager

	// Injectable OS touchpoints, defaulted in New.
	listListeners ListenersFunc
	terminate     TerminateFunc
	launch        LaunchFunc
}

// New returns a Supervisor over the given database manager.
func New(conf *config.Config, db *database.Manager) *Supervisor {
	return &Supervisor{
		conf:          conf,
		db:            db,
		listListeners: lsofListeners(conf.LsofBinary),
		terminate:     utils.TerminatePID,
		launch:        launchProcess,
	}
}

// SafeStart converges the workspace to a freshly running state:
//
//  1. reclaim this bundle's ports (and only this bundle's);
//  2. ensure the database container is up and connectable;
//  3. materialize the per-invocation environment;
//  4. optionally wipe build artifacts (clean);
//  5. launch the web and API dev servers bound to the resolved ports.
//
// Steps run strictly in order: ports must be free before the database is
// confirmed, and the database confirmed before the processes launch, because
// they read DATABASE_URL at startup. Any step failing aborts; a later retry
// is always safe — idempotency is the recovery mechanism.
func (s *Supervisor) SafeStart(ctx context.Context, root string, ws *workspace.Workspace, clean bool) error {
	logger := log.WithFunc("supervisor.SafeStart")

	if err := s.conf.EnsureWorkspaceDirs(ws.Name); err != nil {
		return err
	}

	for _, port := range ws.Ports() {
		if err := s.reclaimPort(ctx, port); err != nil {
			return fmt.Errorf("workspace %s: %w", ws.Name, err)
		}
	}

	if err := s.db.Start(ctx, ws); err != nil {
		return fmt.Errorf("workspace %s: database: %w", ws.Name, err)
	}

	runID := uuid.NewString()
	env := append(os.Environ(), BuildEnv(ws, s.db.URL(ws), runID)...)

	if clean {
		logger.Infof(ctx, "clean start: wiping build artifacts under %s", root)
		if err := wipeArtifacts(ctx, root, s.conf.CleanPaths); err != nil {
			return fmt.Errorf("workspace %s: clean: %w", ws.Name, err)
		}
	}

	webPID, err := s.launch(ctx, "web", s.conf.WebCommand, root, env,
		s.conf.WebLogFile(ws.Name), s.conf.WebPIDFile(ws.Name))
	if err != nil {
		return fmt.Errorf("workspace %s: launch web: %w", ws.Name, err)
	}
	apiPID, err := s.launch(ctx, "api", s.conf.APICommand, root, env,
		s.conf.APILogFile(ws.Name), s.conf.APIPIDFile(ws.Name))
	if err != nil {
		// The web process was already handed its ports; take it back down so
		// a failed launch leaves no half-started pair behind, and drop its
		// PID file so the file never points at a dead process.
		_ = s.terminate(ctx, webPID, s.conf.ReclaimGrace())
		_ = os.Remove(s.conf.WebPIDFile(ws.Name))
		return fmt.Errorf("workspace %s: launch api: %w", ws.Name, err)
	}

	logger.Infof(ctx, "workspace %s up: web pid %d port %d, api pid %d port %d, run %s",
		ws.Name, webPID, ws.WebPort, apiPID, ws.APIPort, runID)
	return nil
}
