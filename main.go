package main

import (
	"errors"
	"os"

	"github.com/opensaas/devfleet/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps sentinel errors to distinct process exit codes so callers
// (scripts, agents) can tell "fix your path/table" from "your ports are
// stuck" from "your database is broken".
func exitCode(err error) int {
	for _, m := range cmd.ExitCodes {
		if errors.Is(err, m.Err) {
			return m.Code
		}
	}
	return 1
}
