// Package clock supplies the current time to services so tests can pin
// "today".
package clock

import (
	"time"

	"github.com/dukerupert/chores/internal/model"
)

type Clock interface {
	Now() time.Time
}

// System reads the wall clock. A nil Location means the process local zone.
type System struct {
	Location *time.Location
}

func (s System) Now() time.Time {
	now := time.Now()
	if s.Location != nil {
		return now.In(s.Location)
	}
	return now
}

// Fixed always reports the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }

// Today returns the calendar day of c.Now() in the clock's zone.
func Today(c Clock) model.Date {
	return model.DateOf(c.Now())
}
