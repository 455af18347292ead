package sandbox

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/syndtr/gocapability/capability"
	"golang.org/x/sys/unix"

	"github.com/judgecore/sandbox-core/internal/donation"
	"github.com/judgecore/sandbox-core/internal/seccomp"
)

// ChildBootstrapFDs names the fixed ExtraFiles slots the supervisor
// donates to the re-exec child, in order.
const (
	ChildReadyEdgeSlot = 0
	ChildGoEdgeSlot    = 1
	ChildRequestSlot   = 2
)

// RunChildBootstrap performs spec.md §4.1.2 inside the re-exec'd
// "init" process, which runs alone in a fresh PID namespace. It never
// returns on success (the final step replaces the process image); on
// any failure it logs a diagnostic and exits with the bootstrap-failed
// sentinel, exactly mirroring the source's "any failure -> exit
// EXIT_CHILD_FAILURE" discipline.
func RunChildBootstrap(log *logrus.Logger) {
	req, err := readChildRequest()
	if err != nil {
		fail(log, "read child request", err)
	}

	// Step 1: redirect stdio to the input/output files, close the
	// originals.
	in, err := os.Open(req.InputFile)
	if err != nil {
		fail(log, "open input file", err)
	}
	out, err := os.OpenFile(req.OutputFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		fail(log, "open output file", err)
	}
	if err := unix.Dup2(int(in.Fd()), unix.Stdin); err != nil {
		fail(log, "dup2 stdin", err)
	}
	if err := unix.Dup2(int(out.Fd()), unix.Stdout); err != nil {
		fail(log, "dup2 stdout", err)
	}
	in.Close()
	out.Close()

	// Step 2: ready/go handshake.
	ready := edgeFromFD(uintptr(donation.FDAt(ChildReadyEdgeSlot)), "ready")
	goEdge := edgeFromFD(uintptr(donation.FDAt(ChildGoEdgeSlot)), "go")
	if err := ready.Signal(); err != nil {
		fail(log, "signal ready edge", err)
	}
	if err := goEdge.Wait(); err != nil {
		fail(log, "wait go edge", err)
	}
	ready.Close()
	goEdge.Close()

	// Step 3: open the whitelist read-only, close-on-exec, before
	// chroot (the path is on the host filesystem).
	wl, err := os.OpenFile(req.Whitelist, os.O_RDONLY, 0)
	if err != nil {
		fail(log, "open whitelist", err)
	}
	unix.CloseOnExec(int(wl.Fd()))
	allowed, err := seccomp.LoadWhitelist(wl)
	if err != nil {
		fail(log, "parse whitelist", err)
	}

	// Step 4: chdir + chroot.
	if err := unix.Chdir(req.JailPath); err != nil {
		fail(log, "chdir jail path", err)
	}
	if err := unix.Chroot("./"); err != nil {
		fail(log, "chroot", err)
	}

	// Step 5: drop gid, then uid -- order is mandatory, since dropping
	// uid first strips the capability needed to drop gid.
	logCapabilities(log)
	if err := unix.Setgid(int(req.GID)); err != nil {
		fail(log, "setgid", err)
	}
	if err := unix.Setuid(int(req.UID)); err != nil {
		fail(log, "setuid", err)
	}

	// Step 6: install the seccomp filter. Any syscall outside the
	// whitelist is fatal from here on. The filter binds only the calling
	// OS thread, so the goroutine is pinned to it until exec.
	runtime.LockOSThread()
	wl.Close()
	if err := seccomp.Install(allowed); err != nil {
		fail(log, "install seccomp filter", err)
	}

	// Step 7: replace the process image. If this returns, it failed.
	argv := []string{req.ExecPath}
	if err := unix.Exec(req.ExecPath, argv, os.Environ()); err != nil {
		fail(log, "exec untrusted binary", err)
	}
}

func readChildRequest() (childRequest, error) {
	f := os.NewFile(uintptr(donation.FDAt(ChildRequestSlot)), "request")
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return childRequest{}, fmt.Errorf("read request fd: %w", err)
	}
	return decodeChildRequest(data)
}

// logCapabilities is a best-effort diagnostic: the authoritative
// failure signal is the setgid/setuid syscall itself, but logging
// which capabilities were missing beforehand makes post-mortem triage
// far faster than an unexplained EPERM.
func logCapabilities(log *logrus.Logger) {
	caps, err := capability.NewPid2(0)
	if err != nil {
		log.WithError(err).Debug("could not inspect capabilities")
		return
	}
	if err := caps.Load(); err != nil {
		log.WithError(err).Debug("could not load capabilities")
		return
	}
	if !caps.Get(capability.EFFECTIVE, capability.CAP_SETUID) || !caps.Get(capability.EFFECTIVE, capability.CAP_SETGID) {
		log.Warn("missing CAP_SETUID/CAP_SETGID before privilege drop; setuid/setgid will likely fail")
	}
}

func fail(log *logrus.Logger, msg string, err error) {
	log.WithError(err).Error(msg)
	os.Exit(bootstrapFailedExitCode)
}
