package task

import "github.com/dukerupert/chores/internal/model"

type Status string

const (
	StatusOverdue     Status = "overdue"
	StatusDue         Status = "due"
	StatusUpcoming    Status = "upcoming"
	StatusUnscheduled Status = "unscheduled"
)

// ComputeStatus places the open iteration's due date relative to today. A
// task with no open iteration is unscheduled.
func ComputeStatus(next *model.Date, today model.Date) Status {
	switch {
	case next == nil:
		return StatusUnscheduled
	case next.Before(today):
		return StatusOverdue
	case next.Equal(today):
		return StatusDue
	default:
		return StatusUpcoming
	}
}
