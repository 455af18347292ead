package cgroup

import (
	"os"

	"github.com/judgecore/sandbox-core/internal/limits"
)

// handle is the narrow capability object the re-architecture notes in
// spec.md §9 call for: the supervisor and watchers only ever see this
// interface, never whether the host is running cgroup v1 or v2.
type handle interface {
	// SetLimits writes the memory/pids/cpu caps into the controller.
	SetLimits(rl limits.ResourceLimits) error
	// Attach moves pid into this cgroup.
	Attach(pid int) error
	// MemoryUsageBytes returns current resident memory accounted by the
	// controller.
	MemoryUsageBytes() (int64, error)
	// TaskCount returns the current number of tasks (processes+threads)
	// in the cgroup.
	TaskCount() (int64, error)
	// CPUTimeNanos returns cumulative CPU time consumed by the cgroup.
	CPUTimeNanos() (int64, error)
	// Delete removes the per-invocation subdirectory. Must tolerate
	// being called on a cgroup that still has a (just-reaped) zombie
	// task briefly lingering; callers retry with backoff.
	Delete() error
}

// unifiedCgroupRoot is the conventional cgroup v2 mountpoint. When this
// path exists with a cgroup.controllers file, the host is running
// unified hierarchy and the v2 backend (v2Handle) is used regardless of
// which of CgroupLocs' three roots the caller configured (v2 is a
// single tree, so Controller.Arm uses CgroupLocs.MemoryRoot as the
// unified root in that mode, or this path when MemoryRoot is empty).
const unifiedCgroupRoot = "/sys/fs/cgroup"

// detectVersion2 reports whether the host cgroup filesystem is mounted
// as the unified (v2) hierarchy.
func detectVersion2() bool {
	_, err := os.Stat(unifiedCgroupRoot + "/cgroup.controllers")
	return err == nil
}
