package supervisor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/projecteru2/core/log"
)

// ErrPortReclaimFailed means a process holding one of this workspace's ports
// survived the termination budget. Likely needs elevated privileges or
// manual intervention — an operator-visible condition, never papered over.
var ErrPortReclaimFailed = errors.New("port reclaim failed")

// ListenersFunc enumerates PIDs listening on a TCP port. Injectable so tests
// can run without real sockets.
type ListenersFunc func(ctx context.Context, port int) ([]int, error)

// TerminateFunc kills one PID with a grace window. Injectable for tests.
type TerminateFunc func(ctx context.Context, pid int, grace time.Duration) error

// lsofListeners lists listener PIDs via `lsof -w -t -iTCP:<port> -sTCP:LISTEN`.
// lsof exits 1 with a quiet stderr when nothing matches; any other failure
// (permission denied, unsupported flag) must surface — treating it as "no
// listeners" would report an occupied port as reclaimed.
func lsofListeners(binary string) ListenersFunc {
	return func(ctx context.Context, port int) ([]int, error) {
		cmd := exec.CommandContext(ctx, binary, "-w", "-t", fmt.Sprintf("-iTCP:%d", port), "-sTCP:LISTEN") //nolint:gosec
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			if errors.Is(err, exec.ErrNotFound) {
				return nil, fmt.Errorf("%s not found in PATH: %w", binary, err)
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 && strings.TrimSpace(stderr.String()) == "" {
				return nil, nil // no process matched
			}
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return nil, fmt.Errorf("%s on port %d: %s: %w", binary, port, msg, err)
			}
			return nil, fmt.Errorf("%s on port %d: %w", binary, port, err)
		}
		return parsePIDs(stdout.String()), nil
	}
}

// parsePIDs decodes lsof -t output (one PID per line), dropping our own PID
// so the orchestrator never terminates itself.
func parsePIDs(out string) []int {
	self := os.Getpid()
	var pids []int
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pid, err := strconv.Atoi(line)
		if err != nil || pid <= 0 || pid == self {
			continue
		}
		pids = append(pids, pid)
	}
	return pids
}

// reclaimPort converges one port to "this workspace owns it": enumerate
// listeners, terminate each (graceful then forceful), settle, re-check.
// Runs up to conf.ReclaimRetries passes; a port still occupied after the
// budget is ErrPortReclaimFailed. Only ports from this workspace's bundle
// are ever passed in.
func (s *Supervisor) reclaimPort(ctx context.Context, port int) error {
	logger := log.WithFunc("supervisor.reclaimPort")

	passes := s.conf.ReclaimRetries
	if passes < 1 {
		passes = 1
	}
	for pass := 1; pass <= passes; pass++ {
		pids, err := s.listListeners(ctx, port)
		if err != nil {
			return fmt.Errorf("list listeners on port %d: %w", port, err)
		}
		if len(pids) == 0 {
			return nil
		}
		logger.Infof(ctx, "port %d occupied by %v, terminating (pass %d/%d)", port, pids, pass, passes)
		for _, pid := range pids {
			if err := s.terminate(ctx, pid, s.conf.ReclaimGrace()); err != nil {
				logger.Warnf(ctx, "terminate pid %d on port %d: %v", pid, port, err)
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.conf.ReclaimSettle()):
		}
	}

	pids, err := s.listListeners(ctx, port)
	if err != nil {
		return fmt.Errorf("list listeners on port %d: %w", port, err)
	}
	if len(pids) > 0 {
		return fmt.Errorf("%w: port %d still held by %v after %d passes",
			ErrPortReclaimFailed, port, pids, passes)
	}
	return nil
}

// PortBound reports whether anything currently listens on port. Read-only;
// used by the status view to show the app-process side of the fleet.
func (s *Supervisor) PortBound(ctx context.Context, port int) bool {
	pids, err := s.listListeners(ctx, port)
	return err == nil && len(pids) > 0
}
