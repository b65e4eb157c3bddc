//go:build darwin || linux

package docker

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// ReplaceWithExec replaces the current process with `docker exec -it` running
// args inside the named container. Used for interactive sessions (psql);
// does not return on success.
func (c *CLI) ReplaceWithExec(name string, args ...string) error {
	path, err := exec.LookPath(c.binary)
	if err != nil {
		return fmt.Errorf("%w: %s not found in PATH", ErrUnavailable, c.binary)
	}
	argv := append([]string{c.binary, "exec", "-it", name}, args...)
	return syscall.Exec(path, argv, os.Environ())
}
