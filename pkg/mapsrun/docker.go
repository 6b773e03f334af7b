package mapsrun

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

const (
	// DefaultImage is the container image carrying the MAPS toolchain.
	DefaultImage = "ghcr.io/piyanatk/maps:latest"

	// DefaultContainerName names the long-lived toolchain container.
	DefaultContainerName = "mapsim-maps"
)

// DockerRunner executes tools inside a long-lived toolchain container.
// The mount directory is bind-mounted at the same path on both sides so
// file handoffs line up; invocation work directories must live under it.
type DockerRunner struct {
	docker   client.APIClient
	image    string
	name     string
	mountDir string
}

// DockerOption configures a DockerRunner.
type DockerOption func(*DockerRunner)

func WithImage(img string) DockerOption {
	return func(r *DockerRunner) { r.image = img }
}

func WithContainerName(name string) DockerOption {
	return func(r *DockerRunner) { r.name = name }
}

// NewDockerRunner returns a runner that executes tools inside the
// toolchain container, creating it on first use. mountDir is the host
// directory the container shares with the run.
func NewDockerRunner(docker client.APIClient, mountDir string, opts ...DockerOption) *DockerRunner {
	r := &DockerRunner{
		docker:   docker,
		image:    DefaultImage,
		name:     DefaultContainerName,
		mountDir: mountDir,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *DockerRunner) Run(ctx context.Context, inv Invocation) (Result, error) {
	if err := r.ensure(ctx); err != nil {
		return Result{}, err
	}

	execCfg := container.ExecOptions{
		Cmd:          append([]string{inv.Path}, inv.Args...),
		WorkingDir:   inv.Dir,
		AttachStdout: true,
		AttachStderr: true,
	}
	resp, err := r.docker.ContainerExecCreate(ctx, r.name, execCfg)
	if err != nil {
		return Result{}, fmt.Errorf("create exec %s: %w", inv.Path, err)
	}

	attach, err := r.docker.ContainerExecAttach(ctx, resp.ID, container.ExecAttachOptions{})
	if err != nil {
		return Result{}, fmt.Errorf("attach exec %s: %w", inv.Path, err)
	}
	defer attach.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, attach.Reader); err != nil {
		return Result{}, fmt.Errorf("read exec output %s: %w", inv.Path, err)
	}
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	info, err := r.docker.ContainerExecInspect(ctx, resp.ID)
	if err != nil {
		return res, fmt.Errorf("inspect exec %s: %w", inv.Path, err)
	}
	if info.ExitCode != 0 {
		return res, fmt.Errorf("run %s: exit code %d", inv.Path, info.ExitCode)
	}
	return res, nil
}

// ensure brings the toolchain container up. A running container is
// reused, a stopped one restarted, a missing one created from the image
// (pulling it when absent).
func (r *DockerRunner) ensure(ctx context.Context) error {
	info, err := r.docker.ContainerInspect(ctx, r.name)
	if err == nil {
		if info.State != nil && info.State.Running {
			return nil
		}
		if err := r.docker.ContainerStart(ctx, r.name, container.StartOptions{}); err != nil {
			return fmt.Errorf("start existing toolchain container: %w", err)
		}
		slog.Info("Started existing toolchain container.", "name", r.name)
		return nil
	}
	if !errdefs.IsNotFound(err) {
		return fmt.Errorf("inspect toolchain container: %w", err)
	}

	if err := r.createAndStart(ctx); err != nil {
		return fmt.Errorf("start toolchain container: %w", err)
	}
	slog.Info("Toolchain container started.", "name", r.name, "image", r.image)
	return nil
}

func (r *DockerRunner) createAndStart(ctx context.Context) error {
	containerCfg := &container.Config{
		Image: r.image,
		// Idle until tools are exec'd into it.
		Cmd: []string{"sleep", "infinity"},
	}
	hostCfg := &container.HostConfig{
		Mounts: []mount.Mount{
			{
				Type:   mount.TypeBind,
				Source: r.mountDir,
				Target: r.mountDir,
			},
		},
	}

	_, err := r.docker.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, r.name)
	if err != nil {
		if !errdefs.IsNotFound(err) {
			return fmt.Errorf("create container: %w", err)
		}
		if err := r.pullImage(ctx); err != nil {
			return err
		}
		if _, err = r.docker.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, r.name); err != nil {
			return fmt.Errorf("create container after pull: %w", err)
		}
	}

	if err := r.docker.ContainerStart(ctx, r.name, container.StartOptions{}); err != nil {
		return fmt.Errorf("start container: %w", err)
	}
	return nil
}

func (r *DockerRunner) pullImage(ctx context.Context) error {
	slog.Info("Pulling toolchain image.", "image", r.image)
	resp, err := r.docker.ImagePull(ctx, r.image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull toolchain image: %w", err)
	}
	defer resp.Close()
	// Drain the pull output to completion.
	if _, err := io.Copy(io.Discard, resp); err != nil {
		return fmt.Errorf("pull toolchain image: read response: %w", err)
	}
	return nil
}

// Remove stops and deletes the toolchain container. Missing containers
// are not an error.
func (r *DockerRunner) Remove(ctx context.Context) error {
	if err := r.docker.ContainerStop(ctx, r.name, container.StopOptions{}); err != nil {
		if !errdefs.IsNotFound(err) {
			return fmt.Errorf("stop toolchain container: %w", err)
		}
	}
	if err := r.docker.ContainerRemove(ctx, r.name, container.RemoveOptions{Force: true}); err != nil {
		if !errdefs.IsNotFound(err) {
			return fmt.Errorf("remove toolchain container: %w", err)
		}
	}
	return nil
}
