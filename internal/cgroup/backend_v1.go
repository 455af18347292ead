package cgroup

import (
	"fmt"

	runtimespec "github.com/opencontainers/runtime-spec/specs-go"

	cgroupsv1 "github.com/containerd/cgroups"

	"github.com/judgecore/sandbox-core/internal/limits"
)

// v1Handle wraps a containerd/cgroups v1 Cgroup, the legacy per-
// controller hierarchy (memory, pids, cpu trees mounted separately).
type v1Handle struct {
	cg cgroupsv1.Cgroup
}

func newV1Handle(name string) (*v1Handle, error) {
	cg, err := cgroupsv1.New(cgroupsv1.V1, cgroupsv1.StaticPath("/judgecore/"+name), &runtimespec.LinuxResources{})
	if err != nil {
		return nil, fmt.Errorf("create v1 cgroup: %w", err)
	}
	return &v1Handle{cg: cg}, nil
}

func (h *v1Handle) SetLimits(rl limits.ResourceLimits) error {
	mem := rl.MemoryBytes
	pids := rl.TaskCount
	// cpu.cfs_quota_us / cfs_period_us: give it a generous period and a
	// quota derived from the CPU-time bound isn't meaningful (quota
	// bounds a *rate*, not a total), so cap at one full core; actual
	// CPU-time enforcement happens in the wall/cpu watcher, not here.
	period := uint64(100000)
	quota := int64(period)
	res := &runtimespec.LinuxResources{
		Memory: &runtimespec.LinuxMemory{Limit: &mem},
		Pids:   &runtimespec.LinuxPids{Limit: pids},
		CPU:    &runtimespec.LinuxCPU{Period: &period, Quota: &quota},
	}
	return h.cg.Update(res)
}

func (h *v1Handle) Attach(pid int) error {
	return h.cg.Add(cgroupsv1.Process{Pid: pid})
}

func (h *v1Handle) MemoryUsageBytes() (int64, error) {
	m, err := h.cg.Stat()
	if err != nil {
		return 0, err
	}
	if m.Memory == nil || m.Memory.Usage == nil {
		return 0, fmt.Errorf("no memory stat available")
	}
	return int64(m.Memory.Usage.Usage), nil
}

func (h *v1Handle) TaskCount() (int64, error) {
	m, err := h.cg.Stat()
	if err != nil {
		return 0, err
	}
	if m.Pids == nil {
		return 0, fmt.Errorf("no pids stat available")
	}
	return int64(m.Pids.Current), nil
}

func (h *v1Handle) CPUTimeNanos() (int64, error) {
	m, err := h.cg.Stat()
	if err != nil {
		return 0, err
	}
	if m.CPU == nil || m.CPU.Usage == nil {
		return 0, fmt.Errorf("no cpu stat available")
	}
	return int64(m.CPU.Usage.Total), nil
}

func (h *v1Handle) Delete() error {
	return h.cg.Delete()
}
