package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/projecteru2/core/log"

	"github.com/opensaas/devfleet/utils"
)

// LaunchFunc starts one dev-server process. Injectable for tests.
type LaunchFunc func(ctx context.Context, name, command, dir string, env []string, logPath, pidPath string) (int, error)

// launchProcess starts one dev-server command via `sh -c` from the worktree
// root, writes its PID file, and releases the process handle so it lives as
// an independent OS process past the lifetime of this invocation. devfleet
// never waits on it — the OS port table is how it is found again.
func launchProcess(ctx context.Context, name, command, dir string, env []string, logPath, pidPath string) (int, error) {
	logger := log.WithFunc("supervisor.launchProcess")

	logFile, err := os.Create(logPath) //nolint:gosec
	if err != nil {
		logger.Warnf(ctx, "create %s log file: %v", name, err)
	} else {
		defer logFile.Close() //nolint:errcheck
	}

	cmd := exec.Command("sh", "-c", command) //nolint:gosec
	cmd.Dir = dir
	cmd.Env = env
	// Detach from the parent process group so the dev server survives when
	// this invocation exits.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if logFile != nil {
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("exec %s command: %w", name, err)
	}
	pid := cmd.Process.Pid

	if err := utils.WritePIDFile(pidPath, pid); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return 0, fmt.Errorf("write %s PID file: %w", name, err)
	}

	_ = cmd.Process.Release()
	logger.Infof(ctx, "launched %s (pid %d): %s", name, pid, command)
	return pid, nil
}
