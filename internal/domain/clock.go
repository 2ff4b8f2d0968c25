package domain

import "github.com/jonboulle/clockwork"

// clock stamps Observation.ProcessedAt. Tests freeze it with SetClock.
var clock clockwork.Clock = clockwork.NewRealClock()

// SetClock replaces the ProcessedAt time source; nil restores the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clock = c
}
