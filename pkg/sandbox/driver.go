// Package sandbox mediates every interaction with the container runtime on
// behalf of a validation: connecting to the daemon, materializing a
// codebase into a host workspace, creating a resource-capped container
// bound to that workspace, running the chosen entrypoint, and guaranteeing
// the workspace and container are both gone before the run is finalized.
package sandbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/namespaces"
	hashierrors "github.com/hashicorp/go-multierror"

	"github.com/kwality/kwality/pkg/config"
	"github.com/kwality/kwality/pkg/errs"
	"github.com/kwality/kwality/pkg/log"
	"github.com/kwality/kwality/pkg/types"
)

const (
	// DefaultNamespace is the containerd namespace kwality runs under.
	DefaultNamespace = "kwality"

	// DefaultSocketPath is the default containerd socket.
	DefaultSocketPath = "/run/containerd/containerd.sock"

	// defaultStopTimeout is the graceful-stop grace period before SIGKILL.
	defaultStopTimeout = 10 * time.Second
)

// HealthReport is returned by Driver.Health.
type HealthReport struct {
	DaemonReachable  bool
	RunnerImage      string
	ImagePresent     bool
	RunningContainers int
}

// ExecutionResult is the outcome of running the chosen entrypoint inside a
// sandboxed container.
type ExecutionResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Usage    types.ResourceUsage
}

// Driver is the Sandbox Driver's operation set, matching the design's
// connect/create_environment/execute/cleanup/health contract.
type Driver interface {
	Connect(ctx context.Context) error
	CreateEnvironment(ctx context.Context, codebase *types.Codebase) (*types.Environment, error)
	Execute(ctx context.Context, env *types.Environment, command []string) (*ExecutionResult, error)
	ExecuteInput(ctx context.Context, env *types.Environment, command []string, stdin []byte) (*ExecutionResult, error)
	Cleanup(ctx context.Context, env *types.Environment) error
	Health(ctx context.Context) (*HealthReport, error)
	Close() error
}

// ContainerdDriver implements Driver against a local containerd daemon.
type ContainerdDriver struct {
	cfg       *config.ContainerConfig
	namespace string

	mu     sync.Mutex
	client *containerd.Client

	socketPath string
}

// NewContainerdDriver builds a driver that lazily connects on first use.
func NewContainerdDriver(cfg *config.ContainerConfig, socketPath string) *ContainerdDriver {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	return &ContainerdDriver{
		cfg:        cfg,
		namespace:  DefaultNamespace,
		socketPath: socketPath,
	}
}

// Connect establishes a session with the local container runtime, verifies
// liveness, and ensures the configured runner image is present.
func (d *ContainerdDriver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client != nil {
		return nil
	}

	client, err := containerd.New(d.socketPath)
	if err != nil {
		return errs.RuntimeUnavailable("connect to containerd", err)
	}

	nsCtx := namespaces.WithNamespace(ctx, d.namespace)
	if _, err := client.Version(nsCtx); err != nil {
		_ = client.Close()
		return errs.RuntimeUnavailable("containerd daemon did not respond", err)
	}

	d.client = client

	if _, err := client.GetImage(nsCtx, d.cfg.Image); err != nil {
		log.WithComponent("sandbox").Info().Str("image", d.cfg.Image).Msg("pulling runner image")
		if _, err := client.Pull(nsCtx, d.cfg.Image, containerd.WithPullUnpack); err != nil {
			return errs.RuntimeUnavailable(fmt.Sprintf("pull runner image %s", d.cfg.Image), err)
		}
	}

	return nil
}

// Close closes the containerd client connection.
func (d *ContainerdDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	return err
}

// Health reports daemon reachability, runner-image presence, and running
// container count, per the design's health() operation.
func (d *ContainerdDriver) Health(ctx context.Context) (*HealthReport, error) {
	d.mu.Lock()
	client := d.client
	d.mu.Unlock()

	report := &HealthReport{RunnerImage: d.cfg.Image}
	if client == nil {
		return report, nil
	}

	nsCtx := namespaces.WithNamespace(ctx, d.namespace)
	if _, err := client.Version(nsCtx); err != nil {
		return report, nil
	}
	report.DaemonReachable = true

	if _, err := client.GetImage(nsCtx, d.cfg.Image); err == nil {
		report.ImagePresent = true
	}

	containers, err := client.Containers(nsCtx)
	if err == nil {
		report.RunningContainers = len(containers)
	}

	return report, nil
}

func (d *ContainerdDriver) nsContext(ctx context.Context) context.Context {
	return namespaces.WithNamespace(ctx, d.namespace)
}

// combineCleanupErrors folds non-fatal teardown errors into one, matching
// the design's rule that cleanup errors are collected and logged but never
// surface as a hard validation failure.
func combineCleanupErrors(errors ...error) error {
	var merged *hashierrors.Error
	for _, e := range errors {
		if e != nil {
			merged = hashierrors.Append(merged, e)
		}
	}
	if merged == nil {
		return nil
	}
	return merged
}
