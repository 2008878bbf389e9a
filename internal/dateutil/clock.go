package dateutil

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }

// Today returns the current calendar day according to clock.
func Today(clock Clock) Date {
	return FromTime(clock.Now())
}
