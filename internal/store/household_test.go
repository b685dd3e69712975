package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/dukerupert/chores/internal/apperr"
	"github.com/dukerupert/chores/internal/database"
	"github.com/dukerupert/chores/internal/model"
)

func setupHouseholdTestDB(t *testing.T) (*HouseholdStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewHouseholdStore(db), NewUserStore(db)
}

func registerTestUser(t *testing.T, us *UserStore, name string) *model.User {
	t.Helper()
	u, err := us.GetOrRegister(context.Background(), "subject-"+name, name)
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return u
}

func TestHouseholdCreate(t *testing.T) {
	hs, us := setupHouseholdTestDB(t)
	ctx := context.Background()
	alice := registerTestUser(t, us, "Alice")

	h, err := hs.Create(ctx, "Test Household", alice.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if h.Name != "Test Household" {
		t.Errorf("name = %q, want %q", h.Name, "Test Household")
	}
	if h.ID == uuid.Nil {
		t.Error("expected non-nil ID")
	}

	m, err := hs.GetMember(ctx, h.ID, alice.ID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if m == nil {
		t.Fatal("expected creator to be a member")
	}
	if m.JoinedViaInvite != nil {
		t.Error("expected creator membership without invite")
	}
}

func TestHouseholdCreateUnknownCreator(t *testing.T) {
	hs, _ := setupHouseholdTestDB(t)
	ctx := context.Background()

	if _, err := hs.Create(ctx, "Orphan", uuid.Must(uuid.NewV7())); err == nil {
		t.Fatal("expected foreign key error")
	}
	households, err := hs.ListHouseholdsForUser(ctx, uuid.Nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(households) != 0 {
		t.Errorf("expected no households, got %d", len(households))
	}
	var n int
	if err := hs.db.QueryRow(`SELECT COUNT(*) FROM households`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("households = %d, want 0 after rollback", n)
	}
}

func TestHouseholdGetByIDNotFound(t *testing.T) {
	hs, _ := setupHouseholdTestDB(t)

	h, err := hs.GetByID(context.Background(), uuid.Must(uuid.NewV7()))
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if h != nil {
		t.Error("expected nil for nonexistent household")
	}
}

func TestHouseholdUpdate(t *testing.T) {
	hs, us := setupHouseholdTestDB(t)
	ctx := context.Background()
	alice := registerTestUser(t, us, "Alice")

	created, err := hs.Create(ctx, "Old Name", alice.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := hs.Update(ctx, created.ID, "New Name"); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := hs.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "New Name" {
		t.Errorf("name = %q, want %q", got.Name, "New Name")
	}

	_, err = hs.Update(ctx, uuid.Must(uuid.NewV7()), "Nobody")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("update missing: err = %v, want ErrNotFound", err)
	}
}

func TestHouseholdDeleteCascades(t *testing.T) {
	hs, us := setupHouseholdTestDB(t)
	ctx := context.Background()
	alice := registerTestUser(t, us, "Alice")

	h, err := hs.Create(ctx, "To Delete", alice.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := hs.Delete(ctx, h.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := hs.GetByID(ctx, h.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
	ok, err := hs.IsMember(ctx, h.ID, alice.ID)
	if err != nil {
		t.Fatalf("is member: %v", err)
	}
	if ok {
		t.Error("expected membership removed with household")
	}
}

func TestHouseholdAddMemberDuplicate(t *testing.T) {
	hs, us := setupHouseholdTestDB(t)
	ctx := context.Background()
	alice := registerTestUser(t, us, "Alice")

	h, _ := hs.Create(ctx, "Test Household", alice.ID)
	err := hs.AddMember(ctx, h.ID, alice.ID, nil)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestHouseholdRemoveMember(t *testing.T) {
	hs, us := setupHouseholdTestDB(t)
	ctx := context.Background()
	alice := registerTestUser(t, us, "Alice")
	bob := registerTestUser(t, us, "Bob")

	h, _ := hs.Create(ctx, "Test Household", alice.ID)
	if err := hs.AddMember(ctx, h.ID, bob.ID, nil); err != nil {
		t.Fatalf("add member: %v", err)
	}

	removed, err := hs.RemoveMember(ctx, h.ID, bob.ID)
	if err != nil {
		t.Fatalf("remove member: %v", err)
	}
	if !removed {
		t.Error("expected removed = true")
	}
	m, err := hs.GetMember(ctx, h.ID, bob.ID)
	if err != nil {
		t.Fatalf("get member after remove: %v", err)
	}
	if m != nil {
		t.Error("expected nil after remove")
	}

	removed, err = hs.RemoveMember(ctx, h.ID, bob.ID)
	if err != nil {
		t.Fatalf("remove again: %v", err)
	}
	if removed {
		t.Error("expected removed = false for non-member")
	}
}

func TestHouseholdListMembers(t *testing.T) {
	hs, us := setupHouseholdTestDB(t)
	ctx := context.Background()
	alice := registerTestUser(t, us, "Alice")
	bob := registerTestUser(t, us, "Bob")

	h, _ := hs.Create(ctx, "Test Household", alice.ID)
	hs.AddMember(ctx, h.ID, bob.ID, nil)

	members, err := hs.ListMembers(ctx, h.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	names := map[string]bool{}
	for _, m := range members {
		names[m.DisplayName] = true
	}
	if !names["Alice"] || !names["Bob"] {
		t.Errorf("members = %+v", members)
	}
}

func TestHouseholdListHouseholdsForUser(t *testing.T) {
	hs, us := setupHouseholdTestDB(t)
	ctx := context.Background()
	alice := registerTestUser(t, us, "Alice")
	bob := registerTestUser(t, us, "Bob")

	hs.Create(ctx, "Household B", alice.ID)
	hs.Create(ctx, "Household A", alice.ID)
	hs.Create(ctx, "Bob's", bob.ID)

	households, err := hs.ListHouseholdsForUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list households for user: %v", err)
	}
	if len(households) != 2 {
		t.Fatalf("expected 2 households, got %d", len(households))
	}
	if households[0].Name != "Household A" {
		t.Errorf("first = %q, want %q", households[0].Name, "Household A")
	}
}
