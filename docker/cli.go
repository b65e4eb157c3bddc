package docker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// compile-time interface check.
var _ Runtime = (*CLI)(nil)

// CLI implements Runtime by invoking the docker binary.
type CLI struct {
	binary string
}

// NewCLI returns a Runtime backed by the given docker binary (path or name).
func NewCLI(binary string) *CLI {
	if binary == "" {
		binary = "docker"
	}
	return &CLI{binary: binary}
}

// run executes a docker subcommand and returns trimmed stdout. Errors are
// classified: missing binary or unreachable daemon become ErrUnavailable so
// callers can abort instead of retrying a dead engine.
func (c *CLI) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, c.binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", c.classify(err, args, stderr.String())
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (c *CLI) classify(err error, args []string, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return fmt.Errorf("%w: %s not found in PATH", ErrUnavailable, c.binary)
	case strings.Contains(stderr, "Cannot connect to the Docker daemon"),
		strings.Contains(stderr, "Is the docker daemon running"),
		strings.Contains(stderr, "docker daemon is not running"):
		return fmt.Errorf("%w: %s", ErrUnavailable, stderr)
	case strings.Contains(stderr, "No such container"),
		strings.Contains(stderr, "No such object"):
		return fmt.Errorf("%w: %s", ErrNotFound, strings.Join(args, " "))
	case stderr != "":
		return fmt.Errorf("%s %s: %s", c.binary, args[0], stderr)
	default:
		return fmt.Errorf("%s %s: %w", c.binary, args[0], err)
	}
}

// Ping verifies the daemon answers. `docker version` round-trips to the
// daemon, unlike `docker --version` which only checks the client binary.
func (c *CLI) Ping(ctx context.Context) error {
	_, err := c.run(ctx, "version", "--format", "{{.Server.Version}}")
	return err
}

// Inspect probes one container by exact name.
func (c *CLI) Inspect(ctx context.Context, name string) (*ContainerState, error) {
	out, err := c.run(ctx, "inspect", "--format", "{{.State.Running}}\t{{.State.StartedAt}}", name)
	if err != nil {
		return nil, err
	}
	return parseState(out), nil
}

// parseState decodes the "{{.State.Running}}\t{{.State.StartedAt}}" template
// output. Unparseable fields degrade to zero values rather than failing —
// a probe that reaches the daemon should never abort on formatting.
func parseState(out string) *ContainerState {
	fields := strings.SplitN(out, "\t", 2)
	st := &ContainerState{}
	if running, err := strconv.ParseBool(fields[0]); err == nil {
		st.Running = running
	}
	if len(fields) == 2 {
		if ts, err := time.Parse(time.RFC3339Nano, fields[1]); err == nil {
			st.StartedAt = ts
		}
	}
	return st
}

// Create creates a stopped container publishing cfg.HostPort to Postgres.
func (c *CLI) Create(ctx context.Context, cfg ContainerConfig) error {
	args := []string{
		"create",
		"--name", cfg.Name,
		"-p", fmt.Sprintf("127.0.0.1:%d:5432", cfg.HostPort),
	}
	for _, e := range cfg.Env {
		args = append(args, "-e", e)
	}
	args = append(args, cfg.Image)
	_, err := c.run(ctx, args...)
	return err
}

func (c *CLI) Start(ctx context.Context, name string) error {
	_, err := c.run(ctx, "start", name)
	return err
}

func (c *CLI) Stop(ctx context.Context, name string) error {
	_, err := c.run(ctx, "stop", name)
	return err
}

// Remove deletes the container together with its anonymous data volume, so a
// recreated container starts empty.
func (c *CLI) Remove(ctx context.Context, name string) error {
	_, err := c.run(ctx, "rm", "-v", name)
	return err
}

func (c *CLI) Exec(ctx context.Context, name string, args ...string) (string, error) {
	return c.run(ctx, append([]string{"exec", name}, args...)...)
}
