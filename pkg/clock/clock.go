package clock

import "time"

// Clock supplies the current instant. Services take it as a dependency so
// cooldown and revocation-window logic can be tested against a fixed time.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

func (System) Now() time.Time {
	return time.Now()
}

// Fixed always returns the same instant.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time {
	return f.T
}
