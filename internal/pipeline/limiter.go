package pipeline

import (
	"time"

	"voxel-pipeline/internal/config"
)

// FPSLimiter paces a presentation loop to the configured frame cap.
type FPSLimiter struct {
	next time.Time
}

// NewFPSLimiter creates a new FPS limiter
func NewFPSLimiter() *FPSLimiter {
	return &FPSLimiter{}
}

// Wait blocks until the next frame is due under config.GetFPSLimit. It
// returns at once when the cap is 0.
func (f *FPSLimiter) Wait() {
	f.WaitFor(config.GetFPSLimit())
}

// WaitFor blocks until the next frame is due at limit frames per second.
// Sleeps most of the interval and spins the last stretch for precision.
func (f *FPSLimiter) WaitFor(limit int) {
	if limit <= 0 {
		f.next = time.Time{}
		return
	}

	target := time.Second / time.Duration(limit)
	if f.next.IsZero() {
		f.next = time.Now().Add(target)
	} else {
		f.next = f.next.Add(target)
	}

	for {
		remaining := time.Until(f.next)
		if remaining <= 0 {
			break
		}
		if remaining > 200*time.Microsecond {
			time.Sleep(remaining - 200*time.Microsecond)
		}
	}

	// resync after a hitch instead of racing to catch up
	if late := -time.Until(f.next); late > target {
		f.next = time.Now().Add(target)
	}
}
