package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dukerupert/chores/internal/model"
)

func TestComputeStatus(t *testing.T) {
	day := func(d int) *model.Date {
		v := model.NewDate(2025, time.January, d)
		return &v
	}
	today := *day(10)

	tests := []struct {
		name string
		next *model.Date
		want Status
	}{
		{"no open iteration", nil, StatusUnscheduled},
		{"yesterday", day(9), StatusOverdue},
		{"long ago", day(1), StatusOverdue},
		{"today", day(10), StatusDue},
		{"tomorrow", day(11), StatusUpcoming},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStatus(tt.next, today))
		})
	}
}
