package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/containerd/cgroups/v3/cgroup1/stats"
	"github.com/containerd/containerd"
	apitypes "github.com/containerd/containerd/api/types"
	"github.com/containerd/containerd/cio"
	"github.com/containerd/containerd/oci"
	"github.com/containerd/typeurl/v2"
	"github.com/google/uuid"
	specs "github.com/opencontainers/runtime-spec/specs-go"

	"github.com/kwality/kwality/pkg/errs"
	"github.com/kwality/kwality/pkg/types"
)

// Execute creates a container bound to the Environment's workspace, starts
// it, runs command, captures stdout/stderr, samples resource usage, then
// stops (with a bounded graceful period) and forcibly removes the
// container. Removal is always attempted, even if start or exec failed.
func (d *ContainerdDriver) Execute(ctx context.Context, env *types.Environment, command []string) (*ExecutionResult, error) {
	return d.ExecuteInput(ctx, env, command, nil)
}

// ExecuteInput is Execute with an additional stdin payload piped to the
// process, the hook the Fuzz Driver uses to feed each generated input to the
// entrypoint without otherwise duplicating container lifecycle management.
func (d *ContainerdDriver) ExecuteInput(ctx context.Context, env *types.Environment, command []string, stdin []byte) (*ExecutionResult, error) {
	if err := d.Connect(ctx); err != nil {
		return nil, err
	}

	nsCtx := d.nsContext(ctx)
	containerID := "kwality-" + uuid.NewString()

	image, err := d.client.GetImage(nsCtx, d.cfg.Image)
	if err != nil {
		return nil, errs.ExecutionError("get runner image", err)
	}

	specOpts := d.specOpts(image, command, env)

	container, err := d.client.NewContainer(
		nsCtx,
		containerID,
		containerd.WithImage(image),
		containerd.WithNewSnapshot(containerID+"-snapshot", image),
		containerd.WithNewSpec(specOpts...),
	)
	if err != nil {
		return nil, errs.ExecutionError("create container", err)
	}

	var stdout, stderr bytes.Buffer
	var stdinReader io.Reader
	if len(stdin) > 0 {
		stdinReader = bytes.NewReader(stdin)
	}
	creator := cio.NewCreator(cio.WithStreams(stdinReader, &stdout, &stderr))

	result := &ExecutionResult{}
	start := time.Now()

	task, err := container.NewTask(nsCtx, creator)
	if err != nil {
		d.forceRemove(nsCtx, container)
		return nil, errs.ExecutionError("create task", err)
	}

	statusC, err := task.Wait(nsCtx)
	if err != nil {
		d.stopAndRemove(nsCtx, container, task)
		return nil, errs.ExecutionError("wait on task", err)
	}

	if err := task.Start(nsCtx); err != nil {
		d.stopAndRemove(nsCtx, container, task)
		result.Stdout = stdout.String()
		result.Stderr = stderr.String()
		return result, errs.ExecutionError("start task", err)
	}

	usage := d.sampleUsage(nsCtx, task)

	status := <-statusC
	result.Duration = time.Since(start)
	result.ExitCode = int(status.ExitCode())
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	result.Usage = usage

	d.stopAndRemove(nsCtx, container, task)

	return result, nil
}

func (d *ContainerdDriver) specOpts(image containerd.Image, command []string, env *types.Environment) []oci.SpecOpts {
	opts := []oci.SpecOpts{
		oci.WithImageConfig(image),
		oci.WithProcessArgs(command...),
	}

	var envVars []string
	for k, v := range d.cfg.Environment {
		envVars = append(envVars, k+"="+v)
	}
	if len(envVars) > 0 {
		opts = append(opts, oci.WithEnv(envVars))
	}

	if d.cfg.CPULimitCores > 0 {
		shares := uint64(d.cfg.CPULimitCores * 1024)
		quota := int64(d.cfg.CPULimitCores * 100000)
		period := uint64(100000)
		opts = append(opts, oci.WithCPUShares(shares), oci.WithCPUCFS(quota, period))
	}
	if d.cfg.MemoryLimitMB > 0 {
		opts = append(opts, oci.WithMemoryLimit(uint64(d.cfg.MemoryLimitMB)*1024*1024))
	}

	if d.cfg.NetworkIsolation {
		opts = append(opts, oci.WithLinuxNamespace(specs.LinuxNamespace{Type: specs.NetworkNamespace}))
	}

	if d.cfg.ReadonlyFilesystem {
		opts = append(opts, oci.WithRootFSReadonly())
	}

	mounts := []specs.Mount{
		{
			Source:      filepath.Join(env.WorkspaceDir, workspaceDirName),
			Destination: "/workspace",
			Type:        "bind",
			Options:     []string{"rbind", boolOption(d.cfg.ReadonlyFilesystem)},
		},
		{
			Source:      "tmpfs",
			Destination: "/tmp",
			Type:        "tmpfs",
			Options:     []string{"nosuid", "nodev", fmt.Sprintf("size=%dm", tmpfsSizeMB(d.cfg.TempDirSizeMB))},
		},
	}
	opts = append(opts, oci.WithMounts(mounts), oci.WithProcessCwd("/workspace"))

	return opts
}

func boolOption(readonly bool) string {
	if readonly {
		return "ro"
	}
	return "rw"
}

func tmpfsSizeMB(v int64) int64 {
	if v <= 0 {
		return 64
	}
	return v
}

// sampleUsage takes two consecutive stats samples and derives a
// ResourceUsage; containerd's cgroup stats backing Metrics() aren't
// available on every platform, so a failed sample yields a zero-valued
// usage rather than aborting the run.
func (d *ContainerdDriver) sampleUsage(ctx context.Context, task containerd.Task) types.ResourceUsage {
	usage := types.ResourceUsage{SampledAt: time.Now()}

	first, err := task.Metrics(ctx)
	if err != nil {
		return usage
	}
	time.Sleep(100 * time.Millisecond)
	second, err := task.Metrics(ctx)
	if err != nil {
		return usage
	}

	firstStats, firstErr := decodeCgroupStats(first)
	secondStats, secondErr := decodeCgroupStats(second)
	if firstErr != nil || secondErr != nil {
		return usage
	}

	cpuDelta, sysDelta, onlineCPUs := extractCPUDeltas(firstStats, secondStats)
	if cpuDelta > 0 && sysDelta > 0 {
		usage.CPUUsagePercent = (float64(cpuDelta) / float64(sysDelta)) * float64(onlineCPUs) * 100
	}

	usage.MemoryMB, usage.PeakMemoryMB = extractMemoryMB(firstStats, secondStats)
	usage.IO = extractIOCounters(secondStats)
	usage.SampledAt = time.Now()
	return usage
}

// stopAndRemove attempts a graceful SIGTERM stop, falling back to SIGKILL
// after defaultStopTimeout, then always removes the container and its
// snapshot. Errors from the stop and delete calls are discarded: they are
// neither returned nor passed to combineCleanupErrors.
func (d *ContainerdDriver) stopAndRemove(ctx context.Context, container containerd.Container, task containerd.Task) {
	stopCtx, cancel := context.WithTimeout(ctx, defaultStopTimeout)
	defer cancel()

	status, err := task.Status(ctx)
	if err == nil && status.Status == containerd.Running {
		_ = task.Kill(stopCtx, syscall.SIGTERM)
		statusC, waitErr := task.Wait(stopCtx)
		if waitErr == nil {
			select {
			case <-statusC:
			case <-stopCtx.Done():
				_ = task.Kill(ctx, syscall.SIGKILL)
			}
		}
	}

	_, _ = task.Delete(ctx)
	_ = container.Delete(ctx, containerd.WithSnapshotCleanup)
}

func (d *ContainerdDriver) forceRemove(ctx context.Context, container containerd.Container) {
	_ = container.Delete(ctx, containerd.WithSnapshotCleanup)
}

// extractCPUDeltas computes (cpu_delta, system_delta, online_cpus) from two
// consecutive cgroup v1 CPU accounting samples, per the performance
// observer's CPU-fraction formula. Either delta is 0 if the sample carries
// no CPU stats (e.g. running under cgroup v2 without the v1 shim).
func extractCPUDeltas(first, second *stats.Metrics) (cpuDelta, sysDelta uint64, onlineCPUs int) {
	onlineCPUs = runtime.NumCPU()

	if first.CPU == nil || second.CPU == nil {
		return 0, 0, onlineCPUs
	}

	if second.CPU.Usage.Total > first.CPU.Usage.Total {
		cpuDelta = second.CPU.Usage.Total - first.CPU.Usage.Total
	}
	if second.CPU.Usage.Kernel > first.CPU.Usage.Kernel {
		sysDelta = second.CPU.Usage.Kernel - first.CPU.Usage.Kernel
	}
	return cpuDelta, sysDelta, onlineCPUs
}

// extractMemoryMB derives (final, peak) memory usage in MB from the cgroup
// memory accounting sample: current usage from the later sample, peak from
// the larger of the two samples' high-water mark (Max grows monotonically,
// but a fresh cgroup reset between samples would otherwise understate it).
func extractMemoryMB(first, second *stats.Metrics) (finalMB, peakMB float64) {
	if second.Memory == nil || second.Memory.Usage == nil {
		return 0, 0
	}
	finalMB = bytesToMB(second.Memory.Usage.Usage)
	peakMB = bytesToMB(second.Memory.Usage.Max)
	if first.Memory != nil && first.Memory.Usage != nil {
		if firstPeak := bytesToMB(first.Memory.Usage.Max); firstPeak > peakMB {
			peakMB = firstPeak
		}
	}
	if finalMB > peakMB {
		peakMB = finalMB
	}
	return finalMB, peakMB
}

// extractIOCounters sums the cgroup blkio accounting entries (recursive over
// every backing device) into the design's flat read/write byte and op
// counts, plus cumulative I/O wait time.
func extractIOCounters(m *stats.Metrics) types.IOCounters {
	var counters types.IOCounters
	if m.Blkio == nil {
		return counters
	}

	for _, e := range m.Blkio.IoServiceBytesRecursive {
		switch e.Op {
		case "Read":
			counters.ReadBytes += int64(e.Value)
		case "Write":
			counters.WriteBytes += int64(e.Value)
		}
	}
	for _, e := range m.Blkio.IoServicedRecursive {
		switch e.Op {
		case "Read":
			counters.ReadOps += int64(e.Value)
		case "Write":
			counters.WriteOps += int64(e.Value)
		}
	}
	for _, e := range m.Blkio.IoWaitTimeRecursive {
		counters.IOWait += time.Duration(e.Value)
	}
	return counters
}

func bytesToMB(b uint64) float64 {
	return float64(b) / (1024 * 1024)
}

func decodeCgroupStats(m *apitypes.Metric) (*stats.Metrics, error) {
	v, err := typeurl.UnmarshalAny(m)
	if err != nil {
		return nil, err
	}
	cg, ok := v.(*stats.Metrics)
	if !ok {
		return nil, fmt.Errorf("unsupported cgroup metrics type")
	}
	return cg, nil
}
