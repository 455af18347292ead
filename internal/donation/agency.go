// Package donation manages the set of extra file descriptors handed
// to the re-exec child, the way runsc/sandbox/sandbox.go's
// donation.Agency hands fds to the `boot` command: by name, in a
// stable order, materialized into cmd.ExtraFiles at the end.
package donation

import (
	"fmt"
	"os"
	"os/exec"
)

// Agency accumulates named donations and transfers them onto a single
// exec.Cmd's ExtraFiles in the order they were donated. The receiving
// process gets fd 3, 4, 5... in donation order; FDAt below is how the
// child recovers the index for a name it knows statically.
type Agency struct {
	names []string
	files []*os.File
}

// Donate adds f to the set, to be transferred starting at fd 3.
func (a *Agency) Donate(name string, f *os.File) {
	a.names = append(a.names, name)
	a.files = append(a.files, f)
}

// OpenAndDonate opens path with the given flags and donates the
// resulting file under name.
func (a *Agency) OpenAndDonate(name, path string, flag int, perm os.FileMode) error {
	f, err := os.OpenFile(path, flag, perm)
	if err != nil {
		return fmt.Errorf("open %q for donation %q: %w", path, name, err)
	}
	a.Donate(name, f)
	return nil
}

// Transfer appends the accumulated donations to cmd.ExtraFiles, in
// order. The fd numbers FDAt reports hold only when cmd.ExtraFiles was
// empty beforehand.
func (a *Agency) Transfer(cmd *exec.Cmd) {
	cmd.ExtraFiles = append(cmd.ExtraFiles, a.files...)
}

// FDAt returns the fd number (as seen by the child) for the i-th
// donation in order, i.e. 3+i, matching Go's convention that
// ExtraFiles[0] becomes fd 3.
func FDAt(i int) int {
	return 3 + i
}

// Close releases every donated file in the parent's fd table. Call
// after the child has been started (or on a start failure) so the
// parent doesn't leak these descriptors.
func (a *Agency) Close() {
	for _, f := range a.files {
		f.Close()
	}
}
