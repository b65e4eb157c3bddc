package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/opensaas/devfleet/database"
	"github.com/opensaas/devfleet/docker"
	"github.com/opensaas/devfleet/supervisor"
	"github.com/opensaas/devfleet/workspace"
)

func codeFor(err error) int {
	for _, m := range ExitCodes {
		if errors.Is(err, m.Err) {
			return m.Code
		}
	}
	return 1
}

func TestExitCodes_DistinctAndStable(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("resolve: %w", workspace.ErrUnknown), 2},
		{fmt.Errorf("workspace dev1: %w: port 3100 still held", supervisor.ErrPortReclaimFailed), 3},
		{fmt.Errorf("workspace dev1: database: %w", database.ErrStartTimeout), 4},
		{fmt.Errorf("status: %w: daemon down", docker.ErrUnavailable), 5},
		{errors.New("something else"), 1},
	}
	for _, c := range cases {
		if got := codeFor(c.err); got != c.want {
			t.Errorf("codeFor(%v) = %d, want %d", c.err, got, c.want)
		}
	}

	seen := map[int]bool{}
	for _, m := range ExitCodes {
		if m.Code <= 1 {
			t.Errorf("exit code %d for %v collides with the generic failure code", m.Code, m.Err)
		}
		if seen[m.Code] {
			t.Errorf("duplicate exit code %d", m.Code)
		}
		seen[m.Code] = true
	}
}
