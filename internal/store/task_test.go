package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/chores/internal/apperr"
	"github.com/dukerupert/chores/internal/database"
	"github.com/dukerupert/chores/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func setupTaskTestDB(t *testing.T) (*TaskStore, *model.Household, *model.User) {
	t.Helper()
	db := openTestDB(t)
	ctx := context.Background()

	u, err := NewUserStore(db).GetOrRegister(ctx, "subject-alice", "Alice")
	if err != nil {
		t.Fatalf("register user: %v", err)
	}
	h, err := NewHouseholdStore(db).Create(ctx, "Home", u.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	return NewTaskStore(db), h, u
}

func createTestTask(t *testing.T, ts *TaskStore, householdID uuid.UUID, title string) *model.Task {
	t.Helper()
	task := &model.Task{
		ID:                 uuid.Must(uuid.NewV7()),
		HouseholdID:        householdID,
		Title:              title,
		RecurrenceUnit:     model.Days,
		RecurrenceInterval: 3,
	}
	if err := ts.Create(context.Background(), task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func TestTaskCreateAndGet(t *testing.T) {
	ts, h, _ := setupTaskTestDB(t)
	ctx := context.Background()

	created := createTestTask(t, ts, h.ID, "Dishes")

	got, err := ts.Get(ctx, h.ID, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected task")
	}
	if got.Title != "Dishes" {
		t.Errorf("title = %q, want %q", got.Title, "Dishes")
	}
	if got.RecurrenceUnit != model.Days {
		t.Errorf("unit = %q, want %q", got.RecurrenceUnit, model.Days)
	}
	if got.RecurrenceInterval != 3 {
		t.Errorf("interval = %d, want 3", got.RecurrenceInterval)
	}
}

func TestTaskGetOtherHousehold(t *testing.T) {
	ts, h, _ := setupTaskTestDB(t)

	created := createTestTask(t, ts, h.ID, "Dishes")

	got, err := ts.Get(context.Background(), uuid.Must(uuid.NewV7()), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected nil for task in another household")
	}
}

func TestTaskUpdate(t *testing.T) {
	ts, h, _ := setupTaskTestDB(t)
	ctx := context.Background()

	task := createTestTask(t, ts, h.ID, "Dishes")
	task.Title = "Wash dishes"
	task.RecurrenceUnit = model.Weeks
	task.RecurrenceInterval = 1
	if err := ts.Update(ctx, task); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := ts.Get(ctx, h.ID, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Wash dishes" || got.RecurrenceUnit != model.Weeks || got.RecurrenceInterval != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestTaskUpdateMissing(t *testing.T) {
	ts, h, _ := setupTaskTestDB(t)

	err := ts.Update(context.Background(), &model.Task{
		ID: uuid.Must(uuid.NewV7()), HouseholdID: h.ID, Title: "x", RecurrenceUnit: model.Days, RecurrenceInterval: 1,
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTaskListByHouseholdEmpty(t *testing.T) {
	ts, h, _ := setupTaskTestDB(t)

	tasks, err := ts.ListByHousehold(context.Background(), h.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if tasks == nil {
		t.Error("expected empty slice, got nil")
	}
	if len(tasks) != 0 {
		t.Errorf("len = %d, want 0", len(tasks))
	}
}

func TestTodoLifecycle(t *testing.T) {
	ts, h, u := setupTaskTestDB(t)
	ctx := context.Background()
	task := createTestTask(t, ts, h.ID, "Dishes")

	latest, err := ts.LatestTodo(ctx, task.ID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest != nil {
		t.Fatal("expected no todo before insert")
	}

	day := model.NewDate(2025, time.January, 1)
	if _, err := ts.InsertInitialTodo(ctx, task.ID, day); err != nil {
		t.Fatalf("insert initial: %v", err)
	}

	latest, err = ts.LatestTodo(ctx, task.ID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Iteration != 0 || !latest.DueDate.Equal(day) || latest.Completed() {
		t.Fatalf("latest = %+v", latest)
	}

	on := time.Date(2025, time.January, 2, 8, 30, 0, 0, time.UTC)
	if err := ts.CompleteTodo(ctx, task.ID, 0, u.ID, on); err != nil {
		t.Fatalf("complete: %v", err)
	}
	next, err := ts.InsertNextTodo(ctx, task.ID, 0, model.NewDate(2025, time.January, 5))
	if err != nil {
		t.Fatalf("insert next: %v", err)
	}
	if next.Iteration != 1 {
		t.Errorf("next iteration = %d, want 1", next.Iteration)
	}

	todos, err := ts.ListTodos(ctx, task.ID)
	if err != nil {
		t.Fatalf("list todos: %v", err)
	}
	if len(todos) != 2 {
		t.Fatalf("len = %d, want 2", len(todos))
	}
	first := todos[0]
	if first.CompletedBy == nil || *first.CompletedBy != u.ID {
		t.Errorf("completed by = %v, want %v", first.CompletedBy, u.ID)
	}
	if first.CompletedOn == nil || !first.CompletedOn.Equal(on) {
		t.Errorf("completed on = %v, want %v", first.CompletedOn, on)
	}
	if todos[1].Completed() {
		t.Error("expected iteration 1 open")
	}

	latest, err = ts.LatestTodo(ctx, task.ID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Iteration != 1 {
		t.Errorf("latest iteration = %d, want 1", latest.Iteration)
	}
}

func TestCompleteTodoTwice(t *testing.T) {
	ts, h, u := setupTaskTestDB(t)
	ctx := context.Background()
	task := createTestTask(t, ts, h.ID, "Dishes")

	if _, err := ts.InsertInitialTodo(ctx, task.ID, model.NewDate(2025, time.January, 1)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := ts.CompleteTodo(ctx, task.ID, 0, u.ID, time.Now()); err != nil {
		t.Fatalf("complete: %v", err)
	}
	err := ts.CompleteTodo(ctx, task.ID, 0, u.ID, time.Now())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestInsertDuplicateIterationConflicts(t *testing.T) {
	ts, h, _ := setupTaskTestDB(t)
	ctx := context.Background()
	task := createTestTask(t, ts, h.ID, "Dishes")

	if _, err := ts.InsertInitialTodo(ctx, task.ID, model.NewDate(2025, time.January, 1)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_, err := ts.InsertInitialTodo(ctx, task.ID, model.NewDate(2025, time.January, 2))
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestMoveTodoDueDate(t *testing.T) {
	ts, h, _ := setupTaskTestDB(t)
	ctx := context.Background()
	task := createTestTask(t, ts, h.ID, "Dishes")

	if _, err := ts.InsertInitialTodo(ctx, task.ID, model.NewDate(2025, time.January, 1)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	moved := model.NewDate(2025, time.February, 1)
	if err := ts.MoveTodoDueDate(ctx, task.ID, 0, moved); err != nil {
		t.Fatalf("move: %v", err)
	}
	latest, err := ts.LatestTodo(ctx, task.ID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if !latest.DueDate.Equal(moved) {
		t.Errorf("due = %s, want %s", latest.DueDate, moved)
	}
}

func TestNextDueDates(t *testing.T) {
	ts, h, u := setupTaskTestDB(t)
	ctx := context.Background()
	a := createTestTask(t, ts, h.ID, "A")
	b := createTestTask(t, ts, h.ID, "B")
	createTestTask(t, ts, h.ID, "C")

	if _, err := ts.InsertInitialTodo(ctx, a.ID, model.NewDate(2025, time.January, 1)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := ts.InsertInitialTodo(ctx, b.ID, model.NewDate(2025, time.January, 1)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := ts.CompleteTodo(ctx, b.ID, 0, u.ID, time.Now()); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := ts.InsertNextTodo(ctx, b.ID, 0, model.NewDate(2025, time.January, 8)); err != nil {
		t.Fatalf("insert next: %v", err)
	}

	due, err := ts.NextDueDates(ctx, h.ID)
	if err != nil {
		t.Fatalf("next due dates: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("len = %d, want 2", len(due))
	}
	if d := due[a.ID]; !d.Equal(model.NewDate(2025, time.January, 1)) {
		t.Errorf("a due = %s", d)
	}
	if d := due[b.ID]; !d.Equal(model.NewDate(2025, time.January, 8)) {
		t.Errorf("b due = %s", d)
	}
}

func TestInTxRollsBack(t *testing.T) {
	ts, h, _ := setupTaskTestDB(t)
	ctx := context.Background()
	task := createTestTask(t, ts, h.ID, "Dishes")

	boom := errors.New("boom")
	err := ts.InTx(ctx, func(tx *TaskStore) error {
		if _, err := tx.InsertInitialTodo(ctx, task.ID, model.NewDate(2025, time.January, 1)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	latest, err := ts.LatestTodo(ctx, task.ID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest != nil {
		t.Error("expected rollback to discard the todo")
	}
}

func TestDeleteUserKeepsCompletion(t *testing.T) {
	ts, h, u := setupTaskTestDB(t)
	ctx := context.Background()
	task := createTestTask(t, ts, h.ID, "Dishes")

	if _, err := ts.InsertInitialTodo(ctx, task.ID, model.NewDate(2025, time.January, 1)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := ts.CompleteTodo(ctx, task.ID, 0, u.ID, time.Now()); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := ts.db.Exec(`DELETE FROM users WHERE id = ?`, u.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	todos, err := ts.ListTodos(ctx, task.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if todos[0].CompletedBy != nil {
		t.Error("expected completed_by cleared")
	}
	if todos[0].CompletedOn == nil {
		t.Error("expected completed_on kept")
	}
}
