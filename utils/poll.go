package utils

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// WaitFor polls check every interval until it reports done or fails, bounded
// by timeout and the caller's context. The first probe runs before any tick,
// so an already-satisfied condition (a port already free, a database already
// accepting connections) returns without waiting.
func WaitFor(ctx context.Context, timeout, interval time.Duration, check func() (done bool, err error)) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := check()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("timeout after %s", timeout)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
