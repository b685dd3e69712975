package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/chores/internal/database"
)

func setupSessionTestDB(t *testing.T) (*SessionStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSessionStore(db), NewUserStore(db)
}

func TestSessionCreate(t *testing.T) {
	ss, us := setupSessionTestDB(t)
	ctx := context.Background()
	u := registerTestUser(t, us, "Alice")

	sess, err := ss.Create(ctx, u.ID, time.Hour)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 { // 32 bytes hex-encoded
		t.Errorf("token length = %d, want 64", len(sess.Token))
	}
	if sess.UserID != u.ID {
		t.Errorf("user_id = %v, want %v", sess.UserID, u.ID)
	}
	if !sess.ExpiresAt.After(sess.CreatedAt) {
		t.Error("expected expiry after creation")
	}
}

func TestSessionGetByToken(t *testing.T) {
	ss, us := setupSessionTestDB(t)
	ctx := context.Background()
	u := registerTestUser(t, us, "Alice")
	created, _ := ss.Create(ctx, u.ID, time.Hour)

	sess, err := ss.GetByToken(ctx, created.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session, got nil")
	}
	if sess.UserID != u.ID {
		t.Errorf("user_id = %v, want %v", sess.UserID, u.ID)
	}
}

func TestSessionGetByTokenNotFound(t *testing.T) {
	ss, _ := setupSessionTestDB(t)

	sess, err := ss.GetByToken(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess != nil {
		t.Error("expected nil for nonexistent token")
	}
}

func TestSessionExpired(t *testing.T) {
	ss, us := setupSessionTestDB(t)
	ctx := context.Background()
	u := registerTestUser(t, us, "Alice")

	base := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	ss.now = func() time.Time { return base }
	short, _ := ss.Create(ctx, u.ID, time.Minute)
	long, _ := ss.Create(ctx, u.ID, 24*time.Hour)

	ss.now = func() time.Time { return base.Add(time.Hour) }
	sess, err := ss.GetByToken(ctx, short.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess != nil {
		t.Error("expected nil for expired session")
	}

	n, err := ss.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	sess, _ = ss.GetByToken(ctx, long.Token)
	if sess == nil {
		t.Error("expected unexpired session to survive cleanup")
	}
}

func TestSessionDelete(t *testing.T) {
	ss, us := setupSessionTestDB(t)
	ctx := context.Background()
	u := registerTestUser(t, us, "Alice")
	created, _ := ss.Create(ctx, u.ID, time.Hour)

	if err := ss.Delete(ctx, created.Token); err != nil {
		t.Fatalf("delete: %v", err)
	}

	sess, err := ss.GetByToken(ctx, created.Token)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if sess != nil {
		t.Error("expected nil after delete")
	}
}
