package utils

import (
	"fmt"
	"os"
)

// EnsureDirs creates every path (and parents) with 0755 permissions.
func EnsureDirs(paths ...string) error {
	for _, p := range paths {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", p, err)
		}
	}
	return nil
}
