package scheduler

import "time"

// Clock supplies the current time in the application's fixed zone.
// Injected so tests can pin "today" to a known date.
type Clock interface {
	Now() time.Time
}

// ZoneClock is the production Clock: wall time in a fixed location.
type ZoneClock struct {
	loc *time.Location
}

func NewZoneClock(loc *time.Location) *ZoneClock {
	return &ZoneClock{loc: loc}
}

func (c *ZoneClock) Now() time.Time { return time.Now().In(c.loc) }
