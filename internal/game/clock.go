package game

import "time"

// Clock supplies the current time. Engines and the session store never call
// time.Now directly so tests can drive deadlines with a fake clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }
