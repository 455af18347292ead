package sandbox

import (
	"os/exec"
	"syscall"

	"github.com/judgecore/sandbox-core/internal/cgroup"
)

// classify implements spec.md §4.1.1: a tripped limit always dominates
// the raw wait status, except when the child exited with the reserved
// bootstrap-failed sentinel, which forces Failure regardless of the
// indicator.
func classify(cmd *exec.Cmd, indicator cgroup.Indicator) Outcome {
	ws, ok := waitStatus(cmd)
	if !ok {
		return Failure
	}

	if ws.Exited() && ws.ExitStatus() == bootstrapFailedExitCode {
		return Failure
	}

	switch indicator {
	case cgroup.Memory:
		return MemExceeded
	case cgroup.Time:
		return TimeExceeded
	case cgroup.Tasks:
		return TaskExceeded
	case cgroup.Fatal:
		return Failure
	case cgroup.None:
		switch {
		case ws.Exited():
			return OK
		case ws.Signaled():
			return RuntimeError
		default:
			return Failure
		}
	default:
		return Failure
	}
}

func waitStatus(cmd *exec.Cmd) (syscall.WaitStatus, bool) {
	if cmd.ProcessState == nil {
		return syscall.WaitStatus(0), false
	}
	ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus)
	return ws, ok
}
