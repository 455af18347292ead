// Package seccomp implements the whitelist loader and the filter
// install step of spec.md §4.4: a pure function from a list of
// syscall names to a kernel filter program, loaded as the final step
// before exec.
package seccomp

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sys/unix"
)

// LoadWhitelist parses a text file of allowed syscall names, one per
// line, blank and comment ("#"-prefixed) lines permitted, into the set
// of syscall numbers for the host architecture.
func LoadWhitelist(r io.Reader) (map[int]struct{}, error) {
	allowed := make(map[int]struct{})
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		nr, ok := syscallNumbers[line]
		if !ok {
			return nil, fmt.Errorf("unknown syscall name in whitelist: %q", line)
		}
		allowed[nr] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read whitelist: %w", err)
	}
	return allowed, nil
}

// syscallNumbers maps the syscall names a contest sandbox whitelist
// typically needs to their amd64 numbers. Kept small and explicit
// rather than pulling in a full per-arch syscall table generator: the
// whitelist is short and curated by construction (spec.md §4.4
// rationale), so an explicit table is the honest size for this
// concern.
var syscallNumbers = map[string]int{
	"read":            unix.SYS_READ,
	"write":           unix.SYS_WRITE,
	"open":            unix.SYS_OPEN,
	"openat":          unix.SYS_OPENAT,
	"close":           unix.SYS_CLOSE,
	"fstat":           unix.SYS_FSTAT,
	"lseek":           unix.SYS_LSEEK,
	"mmap":            unix.SYS_MMAP,
	"mprotect":        unix.SYS_MPROTECT,
	"munmap":          unix.SYS_MUNMAP,
	"brk":             unix.SYS_BRK,
	"rt_sigaction":    unix.SYS_RT_SIGACTION,
	"rt_sigprocmask":  unix.SYS_RT_SIGPROCMASK,
	"rt_sigreturn":    unix.SYS_RT_SIGRETURN,
	"ioctl":           unix.SYS_IOCTL,
	"pread64":         unix.SYS_PREAD64,
	"pwrite64":        unix.SYS_PWRITE64,
	"readv":           unix.SYS_READV,
	"writev":          unix.SYS_WRITEV,
	"access":          unix.SYS_ACCESS,
	"dup":             unix.SYS_DUP,
	"dup2":            unix.SYS_DUP2,
	"nanosleep":       unix.SYS_NANOSLEEP,
	"getpid":          unix.SYS_GETPID,
	"exit":            unix.SYS_EXIT,
	"exit_group":      unix.SYS_EXIT_GROUP,
	"execve":          unix.SYS_EXECVE,
	"fcntl":           unix.SYS_FCNTL,
	"getrandom":       unix.SYS_GETRANDOM,
	"clock_gettime":   unix.SYS_CLOCK_GETTIME,
	"gettimeofday":    unix.SYS_GETTIMEOFDAY,
	"futex":           unix.SYS_FUTEX,
	"sched_getaffinity": unix.SYS_SCHED_GETAFFINITY,
	"sigaltstack":     unix.SYS_SIGALTSTACK,
	"arch_prctl":      unix.SYS_ARCH_PRCTL,
	"set_tid_address": unix.SYS_SET_TID_ADDRESS,
	"set_robust_list": unix.SYS_SET_ROBUST_LIST,
	"prlimit64":       unix.SYS_PRLIMIT64,
	"getcwd":          unix.SYS_GETCWD,
	"madvise":         unix.SYS_MADVISE,
}
