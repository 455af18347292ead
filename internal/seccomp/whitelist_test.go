package seccomp

import (
	"strings"
	"testing"

	"golang.org/x/sys/unix"
)

func TestLoadWhitelistSkipsBlankAndCommentLines(t *testing.T) {
	input := "# comment\n\nread\nwrite\n  \nclose\n"
	allowed, err := LoadWhitelist(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadWhitelist() error = %v", err)
	}
	want := map[int]struct{}{
		unix.SYS_READ:  {},
		unix.SYS_WRITE: {},
		unix.SYS_CLOSE: {},
	}
	if len(allowed) != len(want) {
		t.Fatalf("got %d entries, want %d", len(allowed), len(want))
	}
	for nr := range want {
		if _, ok := allowed[nr]; !ok {
			t.Errorf("missing syscall nr %d in result", nr)
		}
	}
}

func TestLoadWhitelistRejectsUnknownName(t *testing.T) {
	_, err := LoadWhitelist(strings.NewReader("not_a_real_syscall\n"))
	if err == nil {
		t.Fatal("expected an error for an unknown syscall name")
	}
}
