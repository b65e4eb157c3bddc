package version

import (
	"fmt"
	"runtime"
)

// Populated at build time via -ldflags.
var (
	VERSION  = "unknown"
	REVISION = "HEAD"
	BUILTAT  = "now"
)

// String renders the full version block printed by `devfleet version`.
func String() string {
	return fmt.Sprintf(
		"devfleet %s\nGit hash:       %s\nBuilt:          %s\nGolang version: %s\nOS/Arch:        %s/%s\n",
		VERSION, REVISION, BUILTAT, runtime.Version(), runtime.GOOS, runtime.GOARCH,
	)
}
