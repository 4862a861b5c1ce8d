package sandbox

import (
	"context"

	"github.com/containerd/containerd"

	"github.com/kwality/kwality/pkg/log"
	"github.com/kwality/kwality/pkg/types"
)

// Cleanup force-removes any surviving container and deletes the workspace
// directory. Idempotent: calling it twice succeeds both times.
func (d *ContainerdDriver) Cleanup(ctx context.Context, env *types.Environment) error {
	logger := log.WithComponent("sandbox")
	var containerErr error

	if env.ContainerID != "" && d.client != nil {
		nsCtx := d.nsContext(ctx)
		if container, err := d.client.LoadContainer(nsCtx, env.ContainerID); err == nil {
			if task, err := container.Task(nsCtx, nil); err == nil {
				d.stopAndRemove(nsCtx, container, task)
			} else {
				containerErr = container.Delete(nsCtx, containerd.WithSnapshotCleanup)
			}
		}
	}

	workspaceErr := removeWorkspace(env.WorkspaceDir)

	if merged := combineCleanupErrors(containerErr, workspaceErr); merged != nil {
		logger.Warn().Err(merged).Str("environment_id", env.ID).Msg("cleanup completed with non-fatal errors")
	}

	return nil
}
