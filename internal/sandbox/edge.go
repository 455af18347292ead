package sandbox

import (
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// edge is a level-triggered counter pair (an eventfd) used as one of
// the two handshake points: "child ready" or "parent go". Each edge
// carries exactly one wake in the normal path -- no edge is written
// more than once per invocation.
type edge struct {
	f *os.File
}

// newEdge creates a fresh eventfd-backed edge, inheritable by a child
// process via exec.Cmd.ExtraFiles.
func newEdge(name string) (*edge, error) {
	fd, err := unix.Eventfd(0, 0)
	if err != nil {
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	return &edge{f: os.NewFile(uintptr(fd), name)}, nil
}

// edgeFromFD wraps an already-open fd (typically one recovered from a
// donated ExtraFiles slot in the re-exec child).
func edgeFromFD(fd uintptr, name string) *edge {
	return &edge{f: os.NewFile(fd, name)}
}

// File returns the underlying *os.File, for donation into a child's
// ExtraFiles.
func (e *edge) File() *os.File { return e.f }

// Signal writes the single wake for this edge.
func (e *edge) Signal() error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, err := e.f.Write(buf[:])
	return err
}

// Wait blocks until the edge has been signalled.
func (e *edge) Wait() error {
	var buf [8]byte
	_, err := e.f.Read(buf[:])
	return err
}

func (e *edge) Close() error {
	return e.f.Close()
}
