package sandbox

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/judgecore/sandbox-core/internal/cgroup"
	"github.com/judgecore/sandbox-core/internal/donation"
	"github.com/judgecore/sandbox-core/internal/sberror"
)

// Supervisor is the sandbox core's top-level entry point (spec.md
// §4.1). One Supervisor can drive many sequential or concurrent
// invocations; all per-invocation state lives in Execute's locals.
type Supervisor struct {
	controller *cgroup.Controller
	log        *logrus.Logger
	selfExe    string
}

// NewSupervisor binds a Supervisor to a resource-limit controller and
// logger. selfExe is usually "/proc/self/exe"; overridable for tests
// that want to re-exec a stub binary instead of this process's own.
func NewSupervisor(controller *cgroup.Controller, log *logrus.Logger, selfExe string) *Supervisor {
	if selfExe == "" {
		selfExe = "/proc/self/exe"
	}
	return &Supervisor{controller: controller, log: log, selfExe: selfExe}
}

// Execute runs one untrusted program against req and returns exactly
// one Outcome, never a partial result and never a panic. It implements
// the ten-step algorithm of spec.md §4.1.
func (s *Supervisor) Execute(req Request) Outcome {
	log := s.log.WithField("invocation_id", req.InvocationID)

	// Step 1: allocate both notification edges.
	readyEdge, err := newEdge("ready")
	if err != nil {
		log.WithError(sberror.New(sberror.PhaseBootstrap, "allocate ready edge", err)).Error("bootstrap failed")
		return Failure
	}
	goEdge, err := newEdge("go")
	if err != nil {
		readyEdge.Close()
		log.WithError(sberror.New(sberror.PhaseBootstrap, "allocate go edge", err)).Error("bootstrap failed")
		return Failure
	}

	reqData, err := newChildRequest(req).encode()
	if err != nil {
		readyEdge.Close()
		goEdge.Close()
		log.WithError(sberror.New(sberror.PhaseBootstrap, "encode child request", err)).Error("bootstrap failed")
		return Failure
	}
	reqR, reqW, err := os.Pipe()
	if err != nil {
		readyEdge.Close()
		goEdge.Close()
		log.WithError(sberror.New(sberror.PhaseBootstrap, "allocate request pipe", err)).Error("bootstrap failed")
		return Failure
	}
	if _, err := reqW.Write(reqData); err != nil {
		readyEdge.Close()
		goEdge.Close()
		reqR.Close()
		reqW.Close()
		log.WithError(sberror.New(sberror.PhaseBootstrap, "write child request", err)).Error("bootstrap failed")
		return Failure
	}
	reqW.Close()

	agency := &donation.Agency{}
	agency.Donate("ready", readyEdge.File())
	agency.Donate("go", goEdge.File())
	agency.Donate("request", reqR)

	cmd := exec.Command(s.selfExe, "init")
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: syscall.CLONE_NEWPID,
		Setpgid:    true,
		Pdeathsig:  syscall.SIGKILL,
	}
	agency.Transfer(cmd)

	// Step 2: spawn the child.
	if err := cmd.Start(); err != nil {
		readyEdge.Close()
		goEdge.Close()
		reqR.Close()
		log.WithError(sberror.New(sberror.PhaseBootstrap, "spawn child", err)).Error("bootstrap failed")
		return Failure
	}
	reqR.Close()
	pid := cmd.Process.Pid
	log = log.WithField("pid", pid)

	// Step 3: wait on the child->parent "ready" edge.
	if err := readyEdge.Wait(); err != nil {
		log.WithError(sberror.New(sberror.PhaseHandshake, "wait on ready edge", err)).Error("handshake failed")
		bestEffortKill(pid)
		readyEdge.Close()
		goEdge.Close()
		reapBestEffort(cmd)
		return Failure
	}

	// Step 4: arm the resource-limit controller. It returns only once
	// every cap is written and the pid is attached, so the child
	// cannot run a single instruction of the untrusted image before
	// its limits are in force -- step 5 below is what releases it.
	armed, err := s.controller.Arm(pid, req.Limits, req.Cgroup, req.InvocationID)
	if err != nil {
		log.WithError(sberror.New(sberror.PhaseArm, "arm resource limits", err)).Error("arm failed")
		bestEffortKill(pid)
		readyEdge.Close()
		goEdge.Close()
		reapBestEffort(cmd)
		return Failure
	}

	// Step 5: release the child.
	if err := goEdge.Signal(); err != nil {
		log.WithError(sberror.New(sberror.PhaseHandshake, "signal go edge", err)).Error("handshake failed")
		bestEffortKill(pid)
		_ = armed.Disarm()
		readyEdge.Close()
		goEdge.Close()
		reapBestEffort(cmd)
		return Failure
	}

	// Step 6: close both edges.
	readyEdge.Close()
	goEdge.Close()

	// Step 7: wait for the child to terminate. A watcher may
	// concurrently fire the terminator and kill it first.
	waitErr := cmd.Wait()
	if waitErr != nil {
		if _, ok := waitErr.(*exec.ExitError); !ok {
			log.WithError(sberror.New(sberror.PhaseWait, "wait for child", waitErr)).Warn("unexpected error waiting for child")
		}
	}

	// Step 8: join the terminator.
	armed.Term.MarkExitObserved()
	if armed.Term.HasFired() {
		armed.Term.Join()
	} else {
		// No watcher ever fired: drive the same teardown path
		// ourselves, with no victim to (re-)signal.
		armed.Term.Fire(0)
	}

	// Step 9: release the cgroup subdirectory, regardless of outcome.
	if err := armed.Disarm(); err != nil {
		log.WithError(err).Warn("failed to disarm cgroup controller")
	}

	// Step 10: classify.
	outcome := classify(cmd, armed.Indicator.Load())
	log.WithField("outcome", outcome).Info("invocation complete")
	return outcome
}

func bestEffortKill(pid int) {
	if pid <= 0 {
		return
	}
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
		_ = syscall.Kill(pid, syscall.SIGKILL)
	}
}

func reapBestEffort(cmd *exec.Cmd) {
	_ = cmd.Wait()
}
