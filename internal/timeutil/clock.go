package timeutil

import "time"

// Clock supplies the current time. Services take a Clock so report windows and
// days-held calculations are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the real time, in IST
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return Now()
}

// FixedClock always returns the same instant
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time {
	return c.T
}
