package engine

import "time"

// Clock is the engine's source of real time. The loop reconciles the
// scheduler against it on every step.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
