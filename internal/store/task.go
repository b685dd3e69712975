package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/chores/internal/apperr"
	"github.com/dukerupert/chores/internal/model"
)

// TaskStore persists tasks and their iterations. A store returned to an
// InTx callback runs every statement on that transaction.
type TaskStore struct {
	db *sql.DB
	q  DBTX
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db, q: db}
}

// InTx runs fn against a store bound to a single transaction. The
// transaction commits if fn returns nil and rolls back otherwise. Calling
// InTx on a store that is already transactional reuses the transaction.
func (s *TaskStore) InTx(ctx context.Context, fn func(*TaskStore) error) error {
	if s.db == nil {
		return fn(s)
	}
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&TaskStore{q: tx})
	})
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	err := scanner.Scan(&t.ID, &t.HouseholdID, &t.Title, &t.RecurrenceUnit, &t.RecurrenceInterval)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTodo(scanner interface{ Scan(...any) error }) (*model.Todo, error) {
	var td model.Todo
	var completedBy uuid.NullUUID
	var completedOn sql.NullTime

	err := scanner.Scan(&td.TaskID, &td.Iteration, &td.DueDate, &completedBy, &completedOn)
	if err != nil {
		return nil, err
	}
	if completedBy.Valid {
		td.CompletedBy = &completedBy.UUID
	}
	if completedOn.Valid {
		td.CompletedOn = &completedOn.Time
	}
	return &td, nil
}

const taskCols = `id, household_id, title, recurrence_unit, recurrence_interval`
const todoCols = `task_id, iteration, due_date, completed_by, completed_on`

func (s *TaskStore) Create(ctx context.Context, t *model.Task) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO tasks (`+taskCols+`) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.HouseholdID, t.Title, t.RecurrenceUnit, t.RecurrenceInterval,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", classify(err))
	}
	return nil
}

// Get returns the task only if it belongs to householdID.
func (s *TaskStore) Get(ctx context.Context, householdID, id uuid.UUID) (*model.Task, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+taskCols+` FROM tasks WHERE id = ? AND household_id = ?`,
		id, householdID,
	)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) Update(ctx context.Context, t *model.Task) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE tasks SET title = ?, recurrence_unit = ?, recurrence_interval = ?
		 WHERE id = ? AND household_id = ?`,
		t.Title, t.RecurrenceUnit, t.RecurrenceInterval, t.ID, t.HouseholdID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return requireRow(res, "task")
}

func (s *TaskStore) ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]model.Task, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+taskCols+` FROM tasks WHERE household_id = ? ORDER BY title ASC, id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// NextDueDates maps each task of the household that has an open iteration
// to that iteration's due date.
func (s *TaskStore) NextDueDates(ctx context.Context, householdID uuid.UUID) (map[uuid.UUID]model.Date, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT td.task_id, MIN(td.iteration), td.due_date
		 FROM todos td
		 JOIN tasks t ON t.id = td.task_id
		 WHERE t.household_id = ? AND td.completed_on IS NULL
		 GROUP BY td.task_id`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list next due dates: %w", err)
	}
	defer rows.Close()

	due := make(map[uuid.UUID]model.Date)
	for rows.Next() {
		var taskID uuid.UUID
		var iteration int
		var d model.Date
		if err := rows.Scan(&taskID, &iteration, &d); err != nil {
			return nil, fmt.Errorf("scan next due date: %w", err)
		}
		due[taskID] = d
	}
	return due, rows.Err()
}

// LatestTodo returns the highest iteration of the task whether or not it is
// completed, or nil if the task has none.
func (s *TaskStore) LatestTodo(ctx context.Context, taskID uuid.UUID) (*model.Todo, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+todoCols+` FROM todos WHERE task_id = ? ORDER BY iteration DESC LIMIT 1`,
		taskID,
	)
	td, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest todo: %w", err)
	}
	return td, nil
}

func (s *TaskStore) InsertInitialTodo(ctx context.Context, taskID uuid.UUID, due model.Date) (*model.Todo, error) {
	return s.insertTodo(ctx, taskID, 0, due)
}

// InsertNextTodo opens iteration after+1. A concurrent insert of the same
// iteration fails with apperr.ErrConflict.
func (s *TaskStore) InsertNextTodo(ctx context.Context, taskID uuid.UUID, after int, due model.Date) (*model.Todo, error) {
	return s.insertTodo(ctx, taskID, after+1, due)
}

func (s *TaskStore) insertTodo(ctx context.Context, taskID uuid.UUID, iteration int, due model.Date) (*model.Todo, error) {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO todos (task_id, iteration, due_date) VALUES (?, ?, ?)`,
		taskID, iteration, due,
	)
	if err != nil {
		return nil, fmt.Errorf("insert todo: %w", classify(err))
	}
	return &model.Todo{TaskID: taskID, Iteration: iteration, DueDate: due}, nil
}

// CompleteTodo records who completed an open iteration and when. It returns
// apperr.ErrNotFound if the iteration does not exist or was already completed.
func (s *TaskStore) CompleteTodo(ctx context.Context, taskID uuid.UUID, iteration int, by uuid.UUID, on time.Time) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE todos SET completed_by = ?, completed_on = ?
		 WHERE task_id = ? AND iteration = ? AND completed_on IS NULL`,
		by, on.UTC(), taskID, iteration,
	)
	if err != nil {
		return fmt.Errorf("complete todo: %w", err)
	}
	return requireRow(res, "todo")
}

// MoveTodoDueDate changes the due date of an open iteration.
func (s *TaskStore) MoveTodoDueDate(ctx context.Context, taskID uuid.UUID, iteration int, due model.Date) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE todos SET due_date = ? WHERE task_id = ? AND iteration = ? AND completed_on IS NULL`,
		due, taskID, iteration,
	)
	if err != nil {
		return fmt.Errorf("move todo due date: %w", err)
	}
	return requireRow(res, "todo")
}

// ListTodos returns every iteration of the task in ascending order.
func (s *TaskStore) ListTodos(ctx context.Context, taskID uuid.UUID) ([]model.Todo, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+todoCols+` FROM todos WHERE task_id = ? ORDER BY iteration ASC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	todos := []model.Todo{}
	for rows.Next() {
		td, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, *td)
	}
	return todos, rows.Err()
}

func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return apperr.NotFound(what)
	}
	return nil
}
