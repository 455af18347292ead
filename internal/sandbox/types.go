// Package sandbox implements the isolated-execution core: the
// supervisor that brings up an untrusted child under a cgroup + PID
// namespace + chroot + seccomp jail, and classifies its outcome.
package sandbox

import "github.com/judgecore/sandbox-core/internal/limits"

// Outcome is the programmatic boundary to the enclosing judge. Exactly
// one of these is returned by Execute, never a partial result.
type Outcome int

const (
	OK Outcome = iota
	RuntimeError
	MemExceeded
	TimeExceeded
	TaskExceeded
	Failure
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "OK"
	case RuntimeError:
		return "RUNTIME_ERROR"
	case MemExceeded:
		return "MEM_EXCEEDED"
	case TimeExceeded:
		return "TIME_EXCEEDED"
	case TaskExceeded:
		return "TASK_EXCEEDED"
	case Failure:
		return "FAILURE"
	default:
		return "UNKNOWN"
	}
}

// Request is the immutable, caller-owned description of one execution.
type Request struct {
	// ExecPath is the absolute path of the executable, resolved from
	// inside the jail (i.e. as it will be seen after chroot).
	ExecPath string
	// JailPath is the absolute host path that becomes the child's root.
	JailPath string
	// InputFile and OutputFile are host-absolute paths, opened before
	// chroot and bound to the child's stdin/stdout.
	InputFile  string
	OutputFile string
	// Whitelist is the host-absolute path to the syscall whitelist.
	Whitelist string
	// UID/GID are the target low-privilege identity inside the child.
	UID uint32
	GID uint32

	Limits limits.ResourceLimits
	Cgroup limits.CgroupLocs

	// InvocationID labels the supervisor's and controller's log lines;
	// caller supplies it so it can correlate with its own submission
	// record. The cgroup subdirectory name does not include it.
	InvocationID string
}

// bootstrapFailedExitCode is the reserved child exit status meaning
// "sandbox could not bring the child up to the exec point". It always
// maps to Outcome Failure regardless of the exceeded indicator. Picked
// high (the original source used 1) to shrink, not eliminate, the
// chance of colliding with a legitimate exit status from the untrusted
// program itself -- such a collision is misreported as FAILURE rather
// than RUNTIME_ERROR/OK, a known accepted imprecision.
const bootstrapFailedExitCode = 111
