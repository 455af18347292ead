// Package cgroup is the resource-limit controller (spec.md §4.2) and
// the terminator (§4.3). It creates a per-invocation cgroup
// subdirectory, writes the memory/task/CPU-time caps, attaches the
// child pid, and starts the two asynchronous watchers that publish the
// shared exceeded indicator.
package cgroup

import (
	"context"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"

	"github.com/judgecore/sandbox-core/internal/limits"
)

// Controller arms and disarms cgroup-based limits. It holds no
// per-invocation state itself -- CgroupLocs travels with each request,
// per spec.md's data model -- so one Controller is reused across
// concurrent invocations; every subdirectory name is unique (token.go)
// so they never collide.
type Controller struct {
	log *logrus.Logger
	v2  bool
}

// New returns a Controller. The backend (v1 per-subsystem trees vs v2
// unified hierarchy) is auto-detected from the host.
func New(log *logrus.Logger) *Controller {
	return &Controller{log: log, v2: detectVersion2()}
}

// Armed is what Arm hands back to the supervisor: the shared indicator
// the watchers publish to, the terminator that coordinates teardown,
// and a disarm function that must be called exactly once regardless of
// outcome to release the cgroup subdirectory.
type Armed struct {
	Indicator *AtomicIndicator
	Term      *Terminator
	Disarm    func() error
}

// Arm creates the per-invocation cgroup subdirectory, writes the caps,
// attaches pid, and starts the watchers. It returns only after all caps
// are written and pid is attached -- the supervisor must not release
// the child from its handshake until Arm has returned, which is what
// guarantees the child cannot execute a single instruction of the
// untrusted image before its limits are in force.
func (c *Controller) Arm(pid int, rl limits.ResourceLimits, locs limits.CgroupLocs, invocationID string) (*Armed, error) {
	log := c.log.WithFields(logrus.Fields{"invocation_id": invocationID, "pid": pid})

	root := locs.MemoryRoot
	if root == "" {
		root = unifiedCgroupRoot
	}
	if c.v2 {
		if err := EnsureDelegated(root); err != nil {
			return nil, fmt.Errorf("ensure cgroup delegation on %q: %w", root, err)
		}
	}
	token, err := reserveToken(root)
	if err != nil {
		return nil, fmt.Errorf("reserve cgroup token: %w", err)
	}
	name := subdirName(pid, token)

	h, err := c.create(root, name)
	if err != nil {
		return nil, fmt.Errorf("create cgroup %q: %w", name, err)
	}

	cleanupPartial := func() {
		if derr := h.Delete(); derr != nil {
			log.WithError(derr).Warn("failed to remove partially-armed cgroup")
		}
	}

	if err := h.SetLimits(rl); err != nil {
		cleanupPartial()
		return nil, fmt.Errorf("set cgroup limits: %w", err)
	}

	if err := attachWithRetry(h, pid); err != nil {
		cleanupPartial()
		return nil, fmt.Errorf("attach pid %d: %w", pid, err)
	}

	if err := markActive(root, name); err != nil {
		// Non-fatal: janitor visibility is best-effort, not correctness.
		log.WithError(err).Warn("failed to record cgroup as active")
	}

	wctx, cancel := context.WithCancel(context.Background())
	term := NewTerminator(log, cancel)
	indicator := &AtomicIndicator{}

	startWatchers(wctx, h, rl, pid, indicator, term, log)

	disarmed := false
	disarm := func() error {
		if disarmed {
			return nil
		}
		disarmed = true
		cancel()
		_ = unmarkActive(root, name)
		return deleteWithRetry(h)
	}

	return &Armed{Indicator: indicator, Term: term, Disarm: disarm}, nil
}

func (c *Controller) create(root, name string) (handle, error) {
	if c.v2 {
		return newV2Handle(root, name)
	}
	return newV1Handle(name)
}

// attachWithRetry bounds the transient races some kernels exhibit
// between cgroup directory creation and the first cgroup.procs write.
func attachWithRetry(h handle, pid int) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxElapsedTime = 500 * time.Millisecond
	return backoff.Retry(func() error {
		return h.Attach(pid)
	}, b)
}

func deleteWithRetry(h handle) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxElapsedTime = 1 * time.Second
	return backoff.Retry(func() error {
		return h.Delete()
	}, b)
}
