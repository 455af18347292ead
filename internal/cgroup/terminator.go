package cgroup

import (
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/sirupsen/logrus"
)

// terminatorState is the ARMED -> FIRED -> DONE state machine from
// spec.md §4.3. ARMED is implicit at construction; FIRED is set by
// whichever watcher trips first; DONE is set once all sibling watchers
// are cancelled and the victim has been signalled (or the supervisor
// has declared it already reaped).
type terminatorState int32

const (
	stateArmed terminatorState = iota
	stateFired
	stateDone
)

// Terminator forcibly ends the child and tears down sibling watchers on
// a breach, or on an abnormal parent path. The busy spin on a raw
// "done" flag from the source is replaced with a channel close, which
// every waiter can safely observe without a memory-barrier hazard.
type Terminator struct {
	log *logrus.Entry

	state atomic.Int32 // terminatorState
	once  sync.Once
	done  chan struct{}

	// observedExit is set by the supervisor after waitpid returns, so a
	// still-running watcher knows the victim is already reaped and must
	// not signal it again.
	observedExit atomic.Bool

	cancelSiblings func()
}

// NewTerminator constructs an armed terminator. cancelSiblings is
// called exactly once, by whichever path (watcher breach or supervisor
// unwind) drives the state machine to Done; it should cancel any
// watcher goroutines that have not yet fired.
func NewTerminator(log *logrus.Entry, cancelSiblings func()) *Terminator {
	return &Terminator{
		log:            log,
		done:           make(chan struct{}),
		cancelSiblings: cancelSiblings,
	}
}

// MarkExitObserved records that the supervisor has reaped the child via
// waitpid. Safe to call from only the supervisor, exactly once.
func (t *Terminator) MarkExitObserved() {
	t.observedExit.Store(true)
}

// Fire is invoked by whichever watcher (at most one, by construction of
// the Indicator CAS) detects a breach. It signals the victim pid
// (unless already reaped) and tears down sibling watchers, then
// transitions to Done. The supervisor's own teardown path calls it with
// pid=0. Fire takes no skip argument: cancelSiblings only cancels the
// watchers' shared context and never waits on a watcher, so a watcher
// calling Fire from its own goroutine does not block on itself.
func (t *Terminator) Fire(pid int) {
	t.once.Do(func() {
		t.state.Store(int32(stateFired))
		if pid > 0 && !t.observedExit.Load() {
			// Kill the whole process group: the child may have spawned
			// its own subprocesses/threads before tripping a limit.
			if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
				if err2 := syscall.Kill(pid, syscall.SIGKILL); err2 != nil {
					t.log.WithError(err2).Warn("failed to signal victim pid")
				}
			}
		}
		if t.cancelSiblings != nil {
			t.cancelSiblings()
		}
		t.state.Store(int32(stateDone))
		close(t.done)
	})
}

// HasFired reports whether Fire has already been entered by a watcher,
// i.e. whether the supervisor should wait for Done rather than perform
// the teardown itself.
func (t *Terminator) HasFired() bool {
	return terminatorState(t.state.Load()) != stateArmed
}

// Join blocks until the terminator reaches Done. If no watcher ever
// fired, the supervisor calls Fire itself with pid=0 (no victim to
// signal, since the child has already exited normally) to drive the
// same teardown path and then Join returns immediately after.
func (t *Terminator) Join() {
	<-t.done
}
