package cgroup

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/judgecore/sandbox-core/internal/limits"
)

// pollInterval is how often the memory/task watcher samples the
// cgroup's accounting files. Fine enough to catch a fork-bomb or a
// rapid allocation well inside the wall-time bound, coarse enough not
// to be a second cgroup subsystem in its own right.
const pollInterval = 20 * time.Millisecond

// startWatchers launches the memory/task watcher and the wall-time
// watcher under one errgroup, per SPEC_FULL.md §3. Both select on
// ctx.Done() so the terminator's cancelSiblings (which cancels ctx)
// winds them down without a second signal to the victim.
func startWatchers(ctx context.Context, h handle, rl limits.ResourceLimits, pid int, indicator *AtomicIndicator, term *Terminator, log *logrus.Entry) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		memTaskWatcher(gctx, h, rl, pid, indicator, term, log)
		return nil
	})
	g.Go(func() error {
		wallWatcher(gctx, rl.WallTime, pid, indicator, term, log)
		return nil
	})

	go func() {
		if err := g.Wait(); err != nil {
			log.WithError(err).Warn("watcher group returned an error")
		}
	}()
}

// memTaskWatcher polls memory usage, task count, and cumulative CPU
// time against their bounds. CPU-time overshoot is attributed to Time,
// not a separate outcome, per spec.md §4.2.
func memTaskWatcher(ctx context.Context, h handle, rl limits.ResourceLimits, pid int, indicator *AtomicIndicator, term *Terminator, log *logrus.Entry) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if rl.MemoryBytes > 0 {
				if usage, err := h.MemoryUsageBytes(); err == nil && usage > rl.MemoryBytes {
					if indicator.Claim(Memory) {
						log.Info("memory limit exceeded")
						term.Fire(pid)
					}
					return
				}
			}
			if rl.TaskCount > 0 {
				if tasks, err := h.TaskCount(); err == nil && tasks > rl.TaskCount {
					if indicator.Claim(Tasks) {
						log.Info("task limit exceeded")
						term.Fire(pid)
					}
					return
				}
			}
			if rl.CPUTime > 0 {
				if cpu, err := h.CPUTimeNanos(); err == nil && time.Duration(cpu) > rl.CPUTime {
					if indicator.Claim(Time) {
						log.Info("cpu time limit exceeded")
						term.Fire(pid)
					}
					return
				}
			}
		}
	}
}

// wallWatcher sleeps for the wall-time bound; on expiry it is the
// timeout itself (no external cancellation except ctx, which is what
// "parent observed exit" drives through the terminator's cancel).
func wallWatcher(ctx context.Context, wall time.Duration, pid int, indicator *AtomicIndicator, term *Terminator, log *logrus.Entry) {
	if wall <= 0 {
		<-ctx.Done()
		return
	}
	timer := time.NewTimer(wall)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
		if indicator.Claim(Time) {
			log.Info("wall time limit exceeded")
			term.Fire(pid)
		}
	}
}
