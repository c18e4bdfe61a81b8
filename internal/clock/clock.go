package clock

import "time"

// Clock lets services read the current time through an injected value.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

// NewFixed returns a clock frozen at t.
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}

type zonedClock struct {
	base Clock
	loc  *time.Location
}

// InLocation reports c's instants in loc, which moves the day boundary Today
// uses to loc's midnight.
func InLocation(c Clock, loc *time.Location) Clock {
	if loc == nil {
		return c
	}
	return zonedClock{base: c, loc: loc}
}

func (z zonedClock) Now() time.Time {
	return z.base.Now().In(z.loc)
}

// Today returns the calendar date of the clock's instant, in the clock's
// location, as a UTC midnight so it compares with stored dates.
func Today(c Clock) time.Time {
	now := c.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
