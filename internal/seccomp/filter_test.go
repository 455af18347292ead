package seccomp

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestBuildFilterRejectsEmptyAllowList(t *testing.T) {
	if _, err := buildFilter(nil); err == nil {
		t.Fatal("expected an error building a filter with no allowed syscalls")
	}
}

func TestBuildFilterShapeMatchesAllowListSize(t *testing.T) {
	allowed := map[int]struct{}{
		unix.SYS_READ:  {},
		unix.SYS_WRITE: {},
		unix.SYS_EXIT:  {},
	}
	prog, err := buildFilter(allowed)
	if err != nil {
		t.Fatalf("buildFilter() error = %v", err)
	}
	// arch load + arch JEQ + nr load + one JEQ per allowed syscall + KILL + ALLOW.
	want := 3 + len(allowed) + 2
	if len(prog) != want {
		t.Fatalf("program length = %d, want %d", len(prog), want)
	}
	last := prog[len(prog)-1]
	if last.K != seccompRetAllow {
		t.Errorf("final instruction K = %#x, want ALLOW (%#x)", last.K, seccompRetAllow)
	}
	killInstr := prog[len(prog)-2]
	if killInstr.K != seccompRetKillProcess {
		t.Errorf("penultimate instruction K = %#x, want KILL_PROCESS (%#x)", killInstr.K, seccompRetKillProcess)
	}
}

func TestBuildFilterChecksArchBeforeLoadingNr(t *testing.T) {
	allowed := map[int]struct{}{unix.SYS_READ: {}}
	prog, err := buildFilter(allowed)
	if err != nil {
		t.Fatalf("buildFilter() error = %v", err)
	}
	archLoad := prog[0]
	if archLoad.Code != unix.BPF_LD|unix.BPF_W|unix.BPF_ABS || archLoad.K != seccompDataOffsetArch {
		t.Fatalf("instruction 0 = %+v, want a load of the arch field", archLoad)
	}
	archJeq := prog[1]
	if archJeq.Code != unix.BPF_JMP|unix.BPF_JEQ|unix.BPF_K || archJeq.K != unix.AUDIT_ARCH_X86_64 {
		t.Fatalf("instruction 1 = %+v, want a JEQ against AUDIT_ARCH_X86_64", archJeq)
	}
	if archJeq.Jt != 0 {
		t.Errorf("arch JEQ Jt = %d, want 0 (fall through to the nr load on match)", archJeq.Jt)
	}
	wantJf := uint8(len(allowed) + 1)
	if archJeq.Jf != wantJf {
		t.Errorf("arch JEQ Jf = %d, want %d (jump straight to KILL_PROCESS on mismatch)", archJeq.Jf, wantJf)
	}
	nrLoad := prog[2]
	if nrLoad.Code != unix.BPF_LD|unix.BPF_W|unix.BPF_ABS || nrLoad.K != seccompDataOffsetNr {
		t.Fatalf("instruction 2 = %+v, want a load of the nr field", nrLoad)
	}
}
