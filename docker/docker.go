// Package docker wraps the container runtime behind a small interface. The
// concrete implementation shells out to the docker CLI — the same interface
// the humans debugging a broken workspace reach for — so devfleet holds no
// private view of container state that could drift from reality.
package docker

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable means the container engine itself is unreachable
	// (daemon down or binary missing). Fatal for any database operation;
	// reported once, never retried indefinitely.
	ErrUnavailable = errors.New("container runtime unavailable")
	// ErrNotFound means the named container does not exist.
	ErrNotFound = errors.New("container not found")
)

// ContainerState is a point-in-time probe result for one container.
type ContainerState struct {
	Running   bool
	StartedAt time.Time
}

// ContainerConfig describes a database container to create. The container is
// created stopped; Start transitions it to running.
type ContainerConfig struct {
	Name  string
	Image string
	// HostPort is published to the container's Postgres port (5432).
	HostPort int
	// Env entries in KEY=value form (superuser credentials, db name).
	Env []string
}

// Runtime is the container engine surface devfleet needs. Implemented by CLI;
// tests substitute fakes.
type Runtime interface {
	// Ping verifies the engine is reachable. Returns ErrUnavailable if not.
	Ping(ctx context.Context) error
	// Inspect probes one container. Returns ErrNotFound when it does not exist.
	Inspect(ctx context.Context, name string) (*ContainerState, error)
	// Create creates a stopped container.
	Create(ctx context.Context, cfg ContainerConfig) error
	// Start starts a created/stopped container.
	Start(ctx context.Context, name string) error
	// Stop stops a running container.
	Stop(ctx context.Context, name string) error
	// Remove deletes a container and its anonymous volumes.
	Remove(ctx context.Context, name string) error
	// Exec runs a command inside a running container, returning combined output.
	Exec(ctx context.Context, name string, args ...string) (string, error)
}
