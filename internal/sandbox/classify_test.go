package sandbox

import (
	"os/exec"
	"testing"

	"github.com/judgecore/sandbox-core/internal/cgroup"
)

// runAndWait executes a trivial command and returns the *exec.Cmd with
// ProcessState populated, the way the supervisor has it by the time it
// calls classify.
func runAndWait(t *testing.T, args ...string) *exec.Cmd {
	t.Helper()
	cmd := exec.Command(args[0], args[1:]...)
	_ = cmd.Run() // error (e.g. non-zero exit, signal) is expected in some cases
	if cmd.ProcessState == nil {
		t.Fatalf("ProcessState is nil after Run() for %v", args)
	}
	return cmd
}

func TestClassifyOK(t *testing.T) {
	cmd := runAndWait(t, "true")
	got := classify(cmd, cgroup.None)
	if got != OK {
		t.Fatalf("classify() = %v, want OK", got)
	}
}

func TestClassifyRuntimeErrorOnSignal(t *testing.T) {
	cmd := runAndWait(t, "sh", "-c", "kill -SEGV $$")
	got := classify(cmd, cgroup.None)
	if got != RuntimeError {
		t.Fatalf("classify() = %v, want RUNTIME_ERROR", got)
	}
}

func TestClassifyBreachDominatesExitStatus(t *testing.T) {
	cmd := runAndWait(t, "true")
	for indicator, want := range map[cgroup.Indicator]Outcome{
		cgroup.Memory: MemExceeded,
		cgroup.Time:   TimeExceeded,
		cgroup.Tasks:  TaskExceeded,
		cgroup.Fatal:  Failure,
	} {
		if got := classify(cmd, indicator); got != want {
			t.Errorf("classify(indicator=%v) = %v, want %v", indicator, got, want)
		}
	}
}

func TestClassifyBootstrapFailedSentinelForcesFailure(t *testing.T) {
	cmd := runAndWait(t, "sh", "-c", "exit 111")
	// Even if a watcher happened to claim a breach, the bootstrap
	// sentinel always wins.
	for _, indicator := range []cgroup.Indicator{cgroup.None, cgroup.Memory, cgroup.Time, cgroup.Tasks} {
		if got := classify(cmd, indicator); got != Failure {
			t.Errorf("classify(indicator=%v) = %v, want FAILURE", indicator, got)
		}
	}
}
