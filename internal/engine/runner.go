// Runner paces the tick loop against wall-clock time for interactive runs.
package engine

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Runner drives a step function at a configurable pace. The simulation
// itself is synchronous; the runner only controls when ticks happen. Stop
// is safe to call from another goroutine.
type Runner struct {
	Speed    float64       // multiplier: 1.0 = one tick per Interval, 0 = paused
	Interval time.Duration // base tick interval

	running atomic.Bool
	onTick  func(tick int)
	ticks   int
	maxTick int
}

// NewRunner creates a runner firing onTick up to maxTicks times (0 means
// unbounded).
func NewRunner(onTick func(tick int), maxTicks int) *Runner {
	return &Runner{
		Speed:    1.0,
		Interval: time.Second,
		onTick:   onTick,
		maxTick:  maxTicks,
	}
}

// Run starts the loop. Blocks until Stop is called or maxTicks is reached.
func (r *Runner) Run() {
	r.running.Store(true)
	slog.Info("runner started", "speed", r.Speed, "interval", r.Interval)

	for r.running.Load() {
		if r.maxTick > 0 && r.ticks >= r.maxTick {
			break
		}
		if r.Speed <= 0 {
			// Paused.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		r.ticks++
		r.onTick(r.ticks)

		elapsed := time.Since(start)
		target := time.Duration(float64(r.Interval) / r.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("runner stopped", "ticks", r.ticks)
}

// Stop halts the loop after the current tick.
func (r *Runner) Stop() { r.running.Store(false) }
