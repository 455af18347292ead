// Package limits holds the resource-bound types shared between the
// sandbox supervisor and the resource-limit controller, so neither
// package needs to import the other just to see these shapes.
package limits

import "time"

// ResourceLimits bounds one invocation. WallTime is distinct from
// CPUTime: CPU-time overshoot is attributed to the same TimeExceeded
// outcome, but the watchers measure it separately.
type ResourceLimits struct {
	MemoryBytes int64
	TaskCount   int64
	CPUTime     time.Duration
	WallTime    time.Duration
}

// CgroupLocs holds the absolute paths of the per-controller cgroup
// directories. Only MemoryRoot is read (see internal/cgroup): it must
// exist and be writable by the supervisor, and it holds the token and
// active-list files. Under cgroup v2 the per-invocation subdirectory is
// created in MemoryRoot; under v1 it is created at /judgecore/<name> in
// each mounted v1 hierarchy, not under these paths. PidsRoot and
// CPURoot are not read. Concurrent invocations may share these paths,
// since the subdirectory name embeds a flock-guarded monotonic token,
// not a bare pid.
type CgroupLocs struct {
	MemoryRoot string
	PidsRoot   string
	CPURoot    string
}
