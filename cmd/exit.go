package cmd

import (
	"github.com/opensaas/devfleet/database"
	"github.com/opensaas/devfleet/docker"
	"github.com/opensaas/devfleet/supervisor"
	"github.com/opensaas/devfleet/workspace"
)

// ExitCode pairs a sentinel error with the process exit code it maps to.
type ExitCode struct {
	Err  error
	Code int
}

// ExitCodes is the stable error→exit-code mapping, checked in order with
// errors.Is. Anything unmatched exits 1.
var ExitCodes = []ExitCode{
	{workspace.ErrUnknown, 2},
	{supervisor.ErrPortReclaimFailed, 3},
	{database.ErrStartTimeout, 4},
	{docker.ErrUnavailable, 5},
}
