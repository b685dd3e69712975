package auth

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

// AuthContext identifies the caller of a request. HouseholdID is set only on
// household-scoped routes once membership has been checked.
type AuthContext struct {
	UserID       uuid.UUID
	SessionToken string
	HouseholdID  uuid.UUID
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func HouseholdID(ctx context.Context) uuid.UUID {
	ac, ok := FromContext(ctx)
	if !ok {
		return uuid.Nil
	}
	return ac.HouseholdID
}

func UserID(ctx context.Context) uuid.UUID {
	ac, ok := FromContext(ctx)
	if !ok {
		return uuid.Nil
	}
	return ac.UserID
}
