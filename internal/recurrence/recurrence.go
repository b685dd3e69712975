// Package recurrence computes the due date of a task's next iteration.
package recurrence

import (
	"github.com/dukerupert/chores/internal/model"
)

// Unit is the calendar unit an interval counts in.
type Unit = model.RecurrenceUnit

const (
	Days   = model.Days
	Weeks  = model.Weeks
	Months = model.Months
)

// Next returns the date interval units after from. Months follow
// time.AddDate normalization: an overflowing day of month rolls into the
// following month.
//
// interval must be at least 1 and unit must be valid; callers validate both
// before persisting a task, so Next treats anything else as a programming
// error and panics.
func Next(unit Unit, interval int, from model.Date) model.Date {
	if interval < 1 {
		panic("recurrence: interval must be at least 1")
	}
	switch unit {
	case Days:
		return from.AddDate(0, 0, interval)
	case Weeks:
		return from.AddDate(0, 0, 7*interval)
	case Months:
		return from.AddDate(0, interval, 0)
	default:
		panic("recurrence: unknown unit " + string(unit))
	}
}
