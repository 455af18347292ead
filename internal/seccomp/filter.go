package seccomp

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Byte offsets within the kernel's struct seccomp_data: arch at 4, nr
// at 0. The arch field must be checked before nr -- a 32-bit (ia32 ABI)
// syscall reaches the filter with the same struct layout but a
// different, overlapping syscall-number space, so a bare nr compare
// lets a legacy int 0x80 call execute an unlisted i386 syscall under a
// whitelisted amd64 number. libseccomp pins the architecture for
// exactly this reason; this filter must too.
const (
	seccompDataOffsetNr   = 0
	seccompDataOffsetArch = 4
)

// Install builds a classic-BPF filter program whose default action is
// "kill process" and whose per-entry rule is "allow this syscall
// unconditionally", then loads it via prctl(PR_SET_SECCOMP). It must
// be called after chroot and privilege drop and before exec, per
// spec.md §4.1.2 step 6.
func Install(allowed map[int]struct{}) error {
	prog, err := buildFilter(allowed)
	if err != nil {
		return fmt.Errorf("build seccomp filter: %w", err)
	}

	// Required before PR_SET_SECCOMP for an unprivileged (post
	// setuid/setgid) process to install a filter.
	if err := unix.Prctl(unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0); err != nil {
		return fmt.Errorf("prctl(PR_SET_NO_NEW_PRIVS): %w", err)
	}

	fprog := unix.SockFprog{
		Len:    uint16(len(prog)),
		Filter: &prog[0],
	}
	if err := unix.Prctl(unix.PR_SET_SECCOMP, unix.SECCOMP_MODE_FILTER, uintptr(unsafe.Pointer(&fprog)), 0, 0); err != nil {
		return fmt.Errorf("prctl(PR_SET_SECCOMP): %w", err)
	}
	return nil
}

// buildFilter returns the classic-BPF program: pin the audit
// architecture, load the syscall number, compare against each allowed
// number (falling through on mismatch), allow on match, kill by
// default.
func buildFilter(allowed map[int]struct{}) ([]unix.SockFilter, error) {
	if len(allowed) == 0 {
		return nil, fmt.Errorf("refusing to install an empty-allow seccomp filter")
	}

	// Instruction layout:
	//   0: load arch
	//   1: JEQ AUDIT_ARCH_X86_64 -> fall through to load nr, else jump to KILL
	//   2: load nr
	//   3..N+2: for each allowed nr, JEQ -> jump to ALLOW, else fall through
	//   N+3: KILL_PROCESS (default)
	//   N+4: ALLOW
	nrs := make([]int, 0, len(allowed))
	for nr := range allowed {
		nrs = append(nrs, nr)
	}

	prog := make([]unix.SockFilter, 0, len(nrs)+5)
	prog = append(prog, bpfStmt(unix.BPF_LD|unix.BPF_W|unix.BPF_ABS, seccompDataOffsetArch))
	// jf is relative to the instruction after this jump (the nr load);
	// the remaining nr compares plus KILL sit between there and KILL.
	prog = append(prog, bpfJump(unix.BPF_JMP|unix.BPF_JEQ|unix.BPF_K, unix.AUDIT_ARCH_X86_64, 0, uint8(len(nrs)+1)))
	prog = append(prog, bpfStmt(unix.BPF_LD|unix.BPF_W|unix.BPF_ABS, seccompDataOffsetNr))

	for i, nr := range nrs {
		// Jt/Jf are relative to the instruction after this one; the
		// remaining compares plus the KILL instruction sit between
		// this jump and the final ALLOW.
		remaining := uint8(len(nrs) - i - 1)
		prog = append(prog, bpfJump(unix.BPF_JMP|unix.BPF_JEQ|unix.BPF_K, uint32(nr), remaining+1, 0))
	}
	prog = append(prog, bpfStmt(unix.BPF_RET|unix.BPF_K, seccompRetKillProcess))
	prog = append(prog, bpfStmt(unix.BPF_RET|unix.BPF_K, seccompRetAllow))

	return prog, nil
}

const (
	seccompRetKillProcess = 0x80000000 // SECCOMP_RET_KILL_PROCESS
	seccompRetAllow       = 0x7fff0000 // SECCOMP_RET_ALLOW
)

func bpfStmt(code uint16, k uint32) unix.SockFilter {
	return unix.SockFilter{Code: code, K: k}
}

func bpfJump(code uint16, k uint32, jt, jf uint8) unix.SockFilter {
	return unix.SockFilter{Code: code, Jt: jt, Jf: jf, K: k}
}
