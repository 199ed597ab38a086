package update

import "context"

// ContainerRuntime is the narrow runtime surface the update state machine
// drives. The orchestration logic never parses CLI output; the docker
// package provides the real driver and tests substitute a double.
type ContainerRuntime interface {
	Pull(ctx context.Context, imageRef string) error
	ImageID(ctx context.Context, ref string) (string, error)

	// ServiceContainer resolves a compose service to its container ID,
	// name and the image reference it was created from.
	ServiceContainer(ctx context.Context, service string) (id, name, imageRef string, err error)
	ContainerImageID(ctx context.Context, containerID string) (string, error)

	// Status returns running/exited/missing; Health returns
	// healthy/unhealthy/none.
	Status(ctx context.Context, containerID string) (string, error)
	Health(ctx context.Context, containerID string) (string, error)

	Start(ctx context.Context, containerID string) error
	Stop(ctx context.Context, containerID string) error
	Remove(ctx context.Context, containerID string) error
	Commit(ctx context.Context, containerID, tag string) (string, error)
	Rename(ctx context.Context, containerID, newName string) error
	RemoveImage(ctx context.Context, ref string) error

	// ComposeUp recreates one service under its compose-managed name.
	ComposeUp(ctx context.Context, service string) error
}
