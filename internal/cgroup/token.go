package cgroup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// reserveToken hands out a monotonically increasing counter, flock-
// guarded so concurrent invocations never race on the same value. This
// resolves the Open Question in spec.md §9: pid uniqueness alone does
// not survive PID-namespace reuse, so the per-invocation cgroup
// subdirectory is named "<pid>-<token>" rather than bare "<pid>".
func reserveToken(root string) (uint64, error) {
	lockPath := filepath.Join(root, ".judgecore-token.lock")
	counterPath := filepath.Join(root, ".judgecore-token")

	fl := flock.New(lockPath)
	if err := fl.Lock(); err != nil {
		return 0, fmt.Errorf("lock token file: %w", err)
	}
	defer fl.Unlock()

	var next uint64
	if data, err := os.ReadFile(counterPath); err == nil {
		if v, perr := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64); perr == nil {
			next = v + 1
		}
	}
	if err := os.WriteFile(counterPath, []byte(strconv.FormatUint(next, 10)), 0600); err != nil {
		return 0, fmt.Errorf("write token file: %w", err)
	}
	return next, nil
}

// subdirName builds the unique, janitor-legible cgroup subdirectory
// name for one invocation.
func subdirName(pid int, token uint64) string {
	return fmt.Sprintf("%d-%d", pid, token)
}

// markActive/unmarkActive maintain the ".judgecore-active" contract
// described in SPEC_FULL.md §5: a plain-text list of currently-live
// subdirectory names an external janitor can read without talking to
// this process. Controller is reused across concurrent invocations
// (controller.go), so both read-modify-write against the same file and
// must be flock-guarded exactly like reserveToken above, not just the
// append in markActive -- unmarkActive's read/filter/rewrite is the
// one that actually races.
func markActive(root, name string) error {
	return withActiveLock(root, func(path string) error {
		return appendLine(path, name)
	})
}

func unmarkActive(root, name string) error {
	return withActiveLock(root, func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		lines := strings.Split(string(data), "\n")
		out := lines[:0]
		for _, l := range lines {
			if l != "" && l != name {
				out = append(out, l)
			}
		}
		return os.WriteFile(path, []byte(strings.Join(out, "\n")+"\n"), 0600)
	})
}

// withActiveLock runs fn against the active-list file while holding
// the file's own flock, the same guard reserveToken uses for the
// token counter.
func withActiveLock(root string, fn func(path string) error) error {
	lockPath := filepath.Join(root, ".judgecore-active.lock")
	path := filepath.Join(root, ".judgecore-active")

	fl := flock.New(lockPath)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("lock active file: %w", err)
	}
	defer fl.Unlock()

	return fn(path)
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}
