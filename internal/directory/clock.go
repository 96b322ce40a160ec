package directory

import "time"

// Clock abstracts time.Now() to allow deterministic testing.
// It is used by the Aggregator to judge cache freshness and to anchor the
// trailing attendee-scan window.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}
