package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecurrenceUnit is the calendar unit a task's recurrence interval counts in.
type RecurrenceUnit string

const (
	Days   RecurrenceUnit = "Days"
	Weeks  RecurrenceUnit = "Weeks"
	Months RecurrenceUnit = "Months"
)

// ParseRecurrenceUnit accepts the exact unit names used on the wire.
func ParseRecurrenceUnit(s string) (RecurrenceUnit, error) {
	u := RecurrenceUnit(s)
	if !u.Valid() {
		return "", fmt.Errorf("unknown recurrence unit %q", s)
	}
	return u, nil
}

func (u RecurrenceUnit) Valid() bool {
	switch u {
	case Days, Weeks, Months:
		return true
	}
	return false
}

func (u RecurrenceUnit) Value() (driver.Value, error) {
	return string(u), nil
}

func (u *RecurrenceUnit) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("scan recurrence unit: unsupported type %T", src)
	}
	parsed, err := ParseRecurrenceUnit(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

type Task struct {
	ID                 uuid.UUID      `json:"id"`
	HouseholdID        uuid.UUID      `json:"householdId"`
	Title              string         `json:"title"`
	RecurrenceUnit     RecurrenceUnit `json:"recurrenceUnit"`
	RecurrenceInterval int            `json:"recurrenceInterval"`
}

// Todo is one scheduled iteration of a Task. CompletedBy and CompletedOn are
// either both set or both nil.
type Todo struct {
	TaskID      uuid.UUID  `json:"taskId"`
	Iteration   int        `json:"iteration"`
	DueDate     Date       `json:"dueDate"`
	CompletedBy *uuid.UUID `json:"completedBy"`
	CompletedOn *time.Time `json:"completedOn"`
}

func (t Todo) Completed() bool {
	return t.CompletedOn != nil
}
