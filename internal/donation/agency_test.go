package donation

import (
	"os"
	"os/exec"
	"testing"
)

func TestTransferAppendsInDonationOrder(t *testing.T) {
	a := &Agency{}
	r1, w1, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe() error = %v", err)
	}
	defer r1.Close()
	defer w1.Close()
	r2, w2, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe() error = %v", err)
	}
	defer r2.Close()
	defer w2.Close()

	a.Donate("first", r1)
	a.Donate("second", r2)

	cmd := exec.Command("true")
	a.Transfer(cmd)

	if len(cmd.ExtraFiles) != 2 {
		t.Fatalf("len(ExtraFiles) = %d, want 2", len(cmd.ExtraFiles))
	}
	if cmd.ExtraFiles[0] != r1 || cmd.ExtraFiles[1] != r2 {
		t.Fatal("ExtraFiles does not preserve donation order")
	}
	if FDAt(0) != 3 || FDAt(1) != 4 {
		t.Fatalf("FDAt(0)=%d FDAt(1)=%d, want 3 and 4", FDAt(0), FDAt(1))
	}
}

func TestOpenAndDonateFailsOnMissingPath(t *testing.T) {
	a := &Agency{}
	err := a.OpenAndDonate("missing", "/nonexistent/path/for/test", os.O_RDONLY, 0)
	if err == nil {
		t.Fatal("expected error opening a nonexistent path")
	}
}

func TestCloseReleasesAllDonations(t *testing.T) {
	a := &Agency{}
	f, err := os.CreateTemp(t.TempDir(), "donation")
	if err != nil {
		t.Fatalf("CreateTemp() error = %v", err)
	}
	a.Donate("tmp", f)
	a.Close()

	if err := f.Close(); err == nil {
		t.Fatal("expected second Close() on an already-closed file to error")
	}
}
