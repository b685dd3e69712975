// Package task implements the recurring-task lifecycle: creating and editing
// tasks, completing their open iteration and reading their schedule.
package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/chores/internal/apperr"
	"github.com/dukerupert/chores/internal/clock"
	"github.com/dukerupert/chores/internal/model"
	"github.com/dukerupert/chores/internal/recurrence"
	"github.com/dukerupert/chores/internal/store"
)

type CreateRequest struct {
	Title              string               `json:"title"`
	RecurrenceUnit     model.RecurrenceUnit `json:"recurrenceUnit"`
	RecurrenceInterval int                  `json:"recurrenceInterval"`
}

// EditRequest changes only the fields that are set. MoveNextTodo
// reschedules the open iteration from today when the recurrence changes.
type EditRequest struct {
	Title              *string               `json:"title"`
	RecurrenceUnit     *model.RecurrenceUnit `json:"recurrenceUnit"`
	RecurrenceInterval *int                  `json:"recurrenceInterval"`
	MoveNextTodo       bool                  `json:"moveNextTodo"`
}

type Summary struct {
	ID                 uuid.UUID            `json:"id"`
	Title              string               `json:"title"`
	RecurrenceUnit     model.RecurrenceUnit `json:"recurrenceUnit"`
	RecurrenceInterval int                  `json:"recurrenceInterval"`
	NextDue            *model.Date          `json:"nextDue"`
	Status             Status               `json:"status"`
}

type Completion struct {
	Iteration   int        `json:"iteration"`
	DueOn       model.Date `json:"dueOn"`
	CompletedOn time.Time  `json:"completedOn"`
	CompletedBy *uuid.UUID `json:"completedBy"`
}

type Details struct {
	Summary
	PastCompletions []Completion `json:"pastCompletions"`
}

type Service struct {
	tasks  *store.TaskStore
	clock  clock.Clock
	logger *slog.Logger

	// afterLookup runs between reading the open iteration and starting the
	// completion transaction.
	afterLookup func()
}

func NewService(tasks *store.TaskStore, c clock.Clock, logger *slog.Logger) *Service {
	return &Service{tasks: tasks, clock: c, logger: logger}
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperr.Invalid("title must not be empty")
	}
	return title, nil
}

func validateRecurrence(unit model.RecurrenceUnit, interval int) error {
	if !unit.Valid() {
		return apperr.Invalid("recurrenceUnit must be one of Days, Weeks or Months")
	}
	if interval < 1 {
		return apperr.Invalid("recurrenceInterval needs to be at least 1")
	}
	return nil
}

// Create adds a task whose first iteration is due today.
func (s *Service) Create(ctx context.Context, householdID uuid.UUID, req CreateRequest) (Summary, error) {
	title, err := validateTitle(req.Title)
	if err != nil {
		return Summary{}, err
	}
	if err := validateRecurrence(req.RecurrenceUnit, req.RecurrenceInterval); err != nil {
		return Summary{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Summary{}, fmt.Errorf("generate task id: %w", err)
	}
	t := &model.Task{
		ID:                 id,
		HouseholdID:        householdID,
		Title:              title,
		RecurrenceUnit:     req.RecurrenceUnit,
		RecurrenceInterval: req.RecurrenceInterval,
	}
	today := clock.Today(s.clock)

	var first *model.Todo
	err = s.tasks.InTx(ctx, func(tx *store.TaskStore) error {
		if err := tx.Create(ctx, t); err != nil {
			return err
		}
		first, err = tx.InsertInitialTodo(ctx, t.ID, today)
		return err
	})
	if err != nil {
		return Summary{}, fmt.Errorf("create task: %w", err)
	}

	s.logger.Debug("task created", "task_id", t.ID, "household_id", householdID)
	return summarize(t, &first.DueDate, today), nil
}

// Edit applies the set fields of req to the task.
func (s *Service) Edit(ctx context.Context, householdID, taskID uuid.UUID, req EditRequest) (Summary, error) {
	var title string
	if req.Title != nil {
		var err error
		if title, err = validateTitle(*req.Title); err != nil {
			return Summary{}, err
		}
	}
	if req.RecurrenceUnit != nil && !req.RecurrenceUnit.Valid() {
		return Summary{}, apperr.Invalid("recurrenceUnit must be one of Days, Weeks or Months")
	}
	if req.RecurrenceInterval != nil && *req.RecurrenceInterval < 1 {
		return Summary{}, apperr.Invalid("recurrenceInterval needs to be at least 1")
	}
	recurrenceChanged := req.RecurrenceUnit != nil || req.RecurrenceInterval != nil
	today := clock.Today(s.clock)

	var summary Summary
	err := s.tasks.InTx(ctx, func(tx *store.TaskStore) error {
		t, err := tx.Get(ctx, householdID, taskID)
		if err != nil {
			return err
		}
		if t == nil {
			return apperr.NotFound("task")
		}

		if req.Title != nil {
			t.Title = title
		}
		if req.RecurrenceUnit != nil {
			t.RecurrenceUnit = *req.RecurrenceUnit
		}
		if req.RecurrenceInterval != nil {
			t.RecurrenceInterval = *req.RecurrenceInterval
		}
		if err := tx.Update(ctx, t); err != nil {
			return err
		}

		if recurrenceChanged && req.MoveNextTodo {
			due := recurrence.Next(t.RecurrenceUnit, t.RecurrenceInterval, today)
			if err := reschedule(ctx, tx, t.ID, due); err != nil {
				return err
			}
		}

		next, err := nextDue(ctx, tx, t.ID)
		if err != nil {
			return err
		}
		summary = summarize(t, next, today)
		return nil
	})
	if err != nil {
		return Summary{}, fmt.Errorf("edit task: %w", err)
	}
	return summary, nil
}

// reschedule moves the open iteration to due. A task without any iteration
// gets its first one; a task whose latest iteration is already closed gets
// the following one, so the task is left with exactly one open iteration.
func reschedule(ctx context.Context, tx *store.TaskStore, taskID uuid.UUID, due model.Date) error {
	latest, err := tx.LatestTodo(ctx, taskID)
	if err != nil {
		return err
	}
	switch {
	case latest == nil:
		_, err = tx.InsertInitialTodo(ctx, taskID, due)
	case latest.Completed():
		_, err = tx.InsertNextTodo(ctx, taskID, latest.Iteration, due)
	default:
		err = tx.MoveTodoDueDate(ctx, taskID, latest.Iteration, due)
	}
	return err
}

// Complete closes the open iteration on behalf of userID and opens the next
// one, due one recurrence interval after today. Losing a race with another
// completion of the same iteration returns apperr.ErrConflict.
func (s *Service) Complete(ctx context.Context, householdID, taskID, userID uuid.UUID) (Summary, error) {
	t, err := s.tasks.Get(ctx, householdID, taskID)
	if err != nil {
		return Summary{}, fmt.Errorf("complete task: %w", err)
	}
	if t == nil {
		return Summary{}, apperr.NotFound("task")
	}

	latest, err := s.tasks.LatestTodo(ctx, taskID)
	if err != nil {
		return Summary{}, fmt.Errorf("complete task: %w", err)
	}
	if latest == nil || latest.Completed() {
		return Summary{}, apperr.NotFound("open todo")
	}

	if s.afterLookup != nil {
		s.afterLookup()
	}

	now := s.clock.Now()
	today := model.DateOf(now)

	var summary Summary
	err = s.tasks.InTx(ctx, func(tx *store.TaskStore) error {
		if err := tx.CompleteTodo(ctx, taskID, latest.Iteration, userID, now); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.Conflict("todo was completed concurrently")
			}
			return err
		}

		t, err := tx.Get(ctx, householdID, taskID)
		if err != nil {
			return err
		}
		if t == nil {
			return apperr.NotFound("task")
		}

		due := recurrence.Next(t.RecurrenceUnit, t.RecurrenceInterval, today)
		next, err := tx.InsertNextTodo(ctx, taskID, latest.Iteration, due)
		if err != nil {
			if errors.Is(err, apperr.ErrConflict) {
				return apperr.Conflict("todo was completed concurrently")
			}
			return err
		}
		summary = summarize(t, &next.DueDate, today)
		return nil
	})
	if err != nil {
		return Summary{}, fmt.Errorf("complete task: %w", err)
	}

	s.logger.Debug("task completed",
		"task_id", taskID,
		"iteration", latest.Iteration,
		"user_id", userID,
		"next_due", summary.NextDue,
	)
	return summary, nil
}

func (s *Service) Get(ctx context.Context, householdID, taskID uuid.UUID) (Summary, error) {
	t, err := s.tasks.Get(ctx, householdID, taskID)
	if err != nil {
		return Summary{}, fmt.Errorf("get task: %w", err)
	}
	if t == nil {
		return Summary{}, apperr.NotFound("task")
	}
	next, err := nextDue(ctx, s.tasks, taskID)
	if err != nil {
		return Summary{}, fmt.Errorf("get task: %w", err)
	}
	return summarize(t, next, clock.Today(s.clock)), nil
}

// Details returns the task with its completed iterations in order.
func (s *Service) Details(ctx context.Context, householdID, taskID uuid.UUID) (Details, error) {
	t, err := s.tasks.Get(ctx, householdID, taskID)
	if err != nil {
		return Details{}, fmt.Errorf("get task details: %w", err)
	}
	if t == nil {
		return Details{}, apperr.NotFound("task")
	}
	todos, err := s.tasks.ListTodos(ctx, taskID)
	if err != nil {
		return Details{}, fmt.Errorf("get task details: %w", err)
	}

	d := Details{PastCompletions: []Completion{}}
	var next *model.Date
	for _, td := range todos {
		if td.Completed() {
			d.PastCompletions = append(d.PastCompletions, Completion{
				Iteration:   td.Iteration,
				DueOn:       td.DueDate,
				CompletedOn: *td.CompletedOn,
				CompletedBy: td.CompletedBy,
			})
			continue
		}
		if next == nil {
			due := td.DueDate
			next = &due
		}
	}
	d.Summary = summarize(t, next, clock.Today(s.clock))
	return d, nil
}

// ListForHousehold returns every task of the household with its next due
// date. It never returns a nil slice.
func (s *Service) ListForHousehold(ctx context.Context, householdID uuid.UUID) ([]Summary, error) {
	tasks, err := s.tasks.ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	due, err := s.tasks.NextDueDates(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	today := clock.Today(s.clock)
	summaries := make([]Summary, 0, len(tasks))
	for i := range tasks {
		var next *model.Date
		if d, ok := due[tasks[i].ID]; ok {
			next = &d
		}
		summaries = append(summaries, summarize(&tasks[i], next, today))
	}
	return summaries, nil
}

func nextDue(ctx context.Context, tasks *store.TaskStore, taskID uuid.UUID) (*model.Date, error) {
	todos, err := tasks.ListTodos(ctx, taskID)
	if err != nil {
		return nil, err
	}
	for _, td := range todos {
		if !td.Completed() {
			due := td.DueDate
			return &due, nil
		}
	}
	return nil, nil
}

func summarize(t *model.Task, next *model.Date, today model.Date) Summary {
	return Summary{
		ID:                 t.ID,
		Title:              t.Title,
		RecurrenceUnit:     t.RecurrenceUnit,
		RecurrenceInterval: t.RecurrenceInterval,
		NextDue:            next,
		Status:             ComputeStatus(next, today),
	}
}
