package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/chores/internal/apperr"
	"github.com/dukerupert/chores/internal/auth"
	"github.com/dukerupert/chores/internal/middleware"
	"github.com/dukerupert/chores/internal/store"
)

type AuthHandler struct {
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	sessionTTL   time.Duration
	secureCookie bool
	logger       *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, sessionTTL time.Duration, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userStore:    us,
		sessionStore: ss,
		sessionTTL:   sessionTTL,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

type userResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.userStore.GetByID(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if u == nil {
		writeError(w, h.logger, apperr.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{ID: u.ID.String(), Name: u.DisplayName})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if err := h.sessionStore.Delete(r.Context(), ac.SessionToken); err != nil {
		writeError(w, h.logger, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

type devLoginRequest struct {
	Subject string `json:"subject"`
	Name    string `json:"name"`
}

// DevLogin signs in as an arbitrary identity provider subject. It is only
// routed in debug mode, standing in for the OIDC callback.
func (h *AuthHandler) DevLogin(w http.ResponseWriter, r *http.Request) {
	var req devLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Subject = strings.TrimSpace(req.Subject)
	req.Name = strings.TrimSpace(req.Name)
	if req.Subject == "" || req.Name == "" {
		writeError(w, h.logger, apperr.Invalid("subject and name are required"))
		return
	}

	u, err := h.userStore.GetOrRegister(r.Context(), req.Subject, req.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	sess, err := h.sessionStore.Create(r.Context(), u.ID, h.sessionTTL)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	h.logger.Info("dev login", "user_id", u.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":      userResponse{ID: u.ID.String(), Name: u.DisplayName},
		"token":     sess.Token,
		"expiresAt": sess.ExpiresAt,
	})
}
