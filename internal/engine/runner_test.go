package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunnerFiresMaxTicks(t *testing.T) {
	var fired []int
	r := NewRunner(func(tick int) { fired = append(fired, tick) }, 3)
	r.Interval = time.Millisecond

	r.Run()

	assert.Equal(t, []int{1, 2, 3}, fired)
}

func TestRunnerStopHaltsLoop(t *testing.T) {
	count := 0
	var r *Runner
	r = NewRunner(func(int) {
		count++
		if count == 2 {
			r.Stop()
		}
	}, 0)
	r.Interval = time.Millisecond

	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
	assert.Equal(t, 2, count)
}

func TestRunnerStopFromAnotherGoroutine(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	r := NewRunner(func(int) { once.Do(func() { close(started) }) }, 0)
	r.Interval = time.Millisecond

	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()

	<-started
	r.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after concurrent Stop")
	}
}
