package engine

import "time"

// Clock supplies wall-clock time. Yield accrues against it, so tests inject
// a manual clock to make elapsed time exact.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host clock.
type SystemClock struct{}

// Now returns the current time in UTC.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
