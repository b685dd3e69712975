package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dukerupert/chores/internal/auth"
	"github.com/dukerupert/chores/internal/store"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "chores_session"

// MembershipChecker reports whether a user belongs to a household.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID, householdID uuid.UUID) (bool, error)
}

// SessionToken returns the token from the session cookie, or from an
// Authorization: Bearer header when there is no cookie.
func SessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return ""
}

// RequireAuth validates the session and populates AuthContext.
func RequireAuth(sessionStore *store.SessionStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "not logged in")
				return
			}

			sess, err := sessionStore.GetByToken(r.Context(), token)
			if err != nil {
				logger.Error("session lookup", "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if sess == nil {
				writeError(w, http.StatusUnauthorized, "session expired")
				return
			}

			ac := auth.AuthContext{
				UserID:       sess.UserID,
				SessionToken: sess.Token,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireMember checks that the authenticated user belongs to the household
// named by the {householdID} route parameter and records it in AuthContext.
// It must run after RequireAuth.
func RequireMember(checker MembershipChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := auth.FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "not logged in")
				return
			}

			householdID, err := uuid.Parse(chi.URLParam(r, "householdID"))
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid household id")
				return
			}

			member, err := checker.IsMember(r.Context(), ac.UserID, householdID)
			if err != nil {
				logger.Error("membership lookup", "error", err, "household_id", householdID)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if !member {
				writeError(w, http.StatusForbidden, "not in household")
				return
			}

			ac.HouseholdID = householdID
			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
