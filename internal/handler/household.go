package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/dukerupert/chores/internal/auth"
	"github.com/dukerupert/chores/internal/household"
	"github.com/dukerupert/chores/internal/websocket"
)

type HouseholdHandler struct {
	households *household.Service
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewHouseholdHandler(households *household.Service, hub *websocket.Hub, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{households: households, hub: hub, logger: logger}
}

func (h *HouseholdHandler) broadcast(householdID uuid.UUID, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(householdID, msg)
	}
}

type nameRequest struct {
	Name string `json:"name"`
}

type joinRequest struct {
	InviteCode string `json:"inviteCode"`
	Secret     string `json:"secret"`
}

func (h *HouseholdHandler) List(w http.ResponseWriter, r *http.Request) {
	households, err := h.households.ListForUser(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, households)
}

func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.households.Create(r.Context(), auth.UserID(r.Context()), req.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *HouseholdHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	renamed, err := h.households.Rename(r.Context(), auth.HouseholdID(r.Context()), req.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast(renamed.ID, websocket.NewMessage("household", "updated", renamed.ID, nil))

	writeJSON(w, http.StatusOK, renamed)
}

func (h *HouseholdHandler) Leave(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if err := h.households.Leave(r.Context(), ac.HouseholdID, ac.UserID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast(ac.HouseholdID, websocket.NewMessage("household", "member_left", ac.HouseholdID, map[string]any{"userId": ac.UserID}))

	w.WriteHeader(http.StatusNoContent)
}

func (h *HouseholdHandler) Invite(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	inv, err := h.households.Invite(r.Context(), ac.HouseholdID, ac.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *HouseholdHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	joined, err := h.households.Join(r.Context(), auth.UserID(r.Context()), req.InviteCode, req.Secret)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast(joined.ID, websocket.NewMessage("household", "member_joined", joined.ID, map[string]any{"userId": auth.UserID(r.Context())}))

	writeJSON(w, http.StatusOK, joined)
}
