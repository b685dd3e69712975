package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chores/internal/auth"
	"github.com/dukerupert/chores/internal/task"
	"github.com/dukerupert/chores/internal/websocket"
)

type TaskHandler struct {
	tasks  *task.Service
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewTaskHandler(tasks *task.Service, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, hub: hub, logger: logger}
}

func (h *TaskHandler) broadcast(r *http.Request, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(auth.HouseholdID(r.Context()), msg)
	}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListForHousehold(r.Context(), auth.HouseholdID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req task.CreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.tasks.Create(r.Context(), auth.HouseholdID(r.Context()), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast(r, websocket.NewMessage("task", "created", created.ID, nil))

	writeJSON(w, http.StatusCreated, created)
}

func (h *TaskHandler) Details(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "taskID")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid task id")
		return
	}

	details, err := h.tasks.Details(r.Context(), auth.HouseholdID(r.Context()), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *TaskHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "taskID")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req task.EditRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.tasks.Edit(r.Context(), auth.HouseholdID(r.Context()), id, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast(r, websocket.NewMessage("task", "updated", id, nil))

	writeJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "taskID")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid task id")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	summary, err := h.tasks.Complete(r.Context(), ac.HouseholdID, id, ac.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast(r, websocket.NewMessage("task", "completed", id, nil))

	writeJSON(w, http.StatusOK, summary)
}
