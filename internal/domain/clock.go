package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock stamps generated reports. Tests freeze it via SetClock so file names
// and headers are deterministic.
var clock = clockwork.NewRealClock()

// SetClock swaps the report time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current report time in UTC.
func Now() time.Time {
	return clock.Now().UTC()
}
