package cgroup

import "sync/atomic"

// Indicator is the single enumerated value shared between the watchers
// and the supervisor. It is monotonic: once set to anything but None it
// is never cleared. Exactly one watcher is permitted to perform the
// NONE -> non-NONE transition; CompareAndSwap below is how they
// serialize against each other.
type Indicator int32

const (
	None Indicator = iota
	Memory
	Time
	Tasks
	Fatal
)

func (i Indicator) String() string {
	switch i {
	case None:
		return "none"
	case Memory:
		return "memory"
	case Time:
		return "time"
	case Tasks:
		return "tasks"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// AtomicIndicator is the shared cell the watchers race to claim.
type AtomicIndicator struct {
	v int32
}

// Claim attempts to transition the indicator from None to want. Returns
// true if this call performed the transition (i.e. this watcher is the
// first and only breacher to be recorded).
func (a *AtomicIndicator) Claim(want Indicator) bool {
	return atomic.CompareAndSwapInt32(&a.v, int32(None), int32(want))
}

// Load reads the current value. Safe to call only after the supervisor
// has joined the child (per the data-model invariant); watchers may
// read it themselves to short-circuit once claimed.
func (a *AtomicIndicator) Load() Indicator {
	return Indicator(atomic.LoadInt32(&a.v))
}
