package cgroup

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func discardLogger() *logrus.Entry {
	l := logrus.New()
	l.Out = io.Discard
	return logrus.NewEntry(l)
}

func TestTerminatorFiresOnceAndCancelsSiblings(t *testing.T) {
	var cancelled int
	var mu sync.Mutex
	term := NewTerminator(discardLogger(), func() {
		mu.Lock()
		cancelled++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			term.Fire(0)
		}()
	}
	wg.Wait()

	joined := make(chan struct{})
	go func() {
		term.Join()
		close(joined)
	}()
	select {
	case <-joined:
	case <-time.After(time.Second):
		t.Fatal("terminator never reached Done")
	}

	mu.Lock()
	defer mu.Unlock()
	if cancelled != 1 {
		t.Fatalf("cancelSiblings called %d times, want 1", cancelled)
	}
}

func TestTerminatorHasFired(t *testing.T) {
	term := NewTerminator(discardLogger(), func() {})
	if term.HasFired() {
		t.Fatal("fresh terminator should not report fired")
	}
	term.Fire(0)
	if !term.HasFired() {
		t.Fatal("terminator should report fired after Fire")
	}
}
