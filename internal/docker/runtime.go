package docker

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Runtime bundles the SDK client and the compose driver into the surface
// the update orchestrator works against.
type Runtime struct {
	client  *Client
	compose *Compose
}

func NewRuntime(client *Client, compose *Compose) *Runtime {
	return &Runtime{client: client, compose: compose}
}

func (r *Runtime) Pull(ctx context.Context, imageRef string) error {
	return r.client.PullImage(imageRef, os.Stdout)
}

func (r *Runtime) ImageID(ctx context.Context, ref string) (string, error) {
	return r.client.ImageID(ctx, ref)
}

func (r *Runtime) ServiceContainer(ctx context.Context, service string) (string, string, string, error) {
	id, err := r.client.FindServiceContainer(ctx, r.compose.Project, service)
	if err != nil {
		return "", "", "", err
	}

	inspect, err := r.client.GetClient().ContainerInspect(ctx, id)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to inspect container for service %s: %w", service, err)
	}

	name := strings.TrimPrefix(inspect.Name, "/")
	return id, name, inspect.Config.Image, nil
}

func (r *Runtime) ContainerImageID(ctx context.Context, containerID string) (string, error) {
	return r.client.ContainerImageID(ctx, containerID)
}

func (r *Runtime) Status(ctx context.Context, containerID string) (string, error) {
	return r.client.ContainerStatus(ctx, containerID)
}

func (r *Runtime) Health(ctx context.Context, containerID string) (string, error) {
	return r.client.ContainerHealth(ctx, containerID)
}

func (r *Runtime) Start(ctx context.Context, containerID string) error {
	return r.client.StartContainer(containerID)
}

func (r *Runtime) Stop(ctx context.Context, containerID string) error {
	return r.client.StopContainer(containerID)
}

func (r *Runtime) Remove(ctx context.Context, containerID string) error {
	return r.client.RemoveContainer(containerID)
}

func (r *Runtime) Commit(ctx context.Context, containerID, tag string) (string, error) {
	return r.client.CommitContainer(ctx, containerID, tag)
}

func (r *Runtime) Rename(ctx context.Context, containerID, newName string) error {
	return r.client.RenameContainer(ctx, containerID, newName)
}

func (r *Runtime) RemoveImage(ctx context.Context, ref string) error {
	return r.client.RemoveImage(ctx, ref)
}

func (r *Runtime) ComposeUp(ctx context.Context, service string) error {
	return r.compose.Up(ctx, service)
}
