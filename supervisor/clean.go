package supervisor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/projecteru2/core/log"
)

// wipeArtifacts removes the configured build-artifact paths under the
// worktree root. Paths must stay inside the worktree; absolute entries or
// ones escaping via ".." are rejected rather than silently skipped.
func wipeArtifacts(ctx context.Context, root string, paths []string) error {
	logger := log.WithFunc("supervisor.wipeArtifacts")

	for _, p := range paths {
		if filepath.IsAbs(p) {
			return fmt.Errorf("clean path %q must be worktree-relative", p)
		}
		full := filepath.Join(root, p)
		rel, err := filepath.Rel(root, full)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == "." {
			return fmt.Errorf("clean path %q escapes the worktree", p)
		}
		logger.Infof(ctx, "removing %s", full)
		if err := os.RemoveAll(full); err != nil {
			return fmt.Errorf("remove %s: %w", full, err)
		}
	}
	return nil
}
