package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Message is a change notification sent to the clients of one household.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     uuid.UUID      `json:"id"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action string, id uuid.UUID, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Hub tracks connected clients per household.
type Hub struct {
	mu         sync.RWMutex
	households map[uuid.UUID]map[*Client]struct{}
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		households: make(map[uuid.UUID]map[*Client]struct{}),
		logger:     logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.households[c.householdID]
	if !ok {
		clients = make(map[*Client]struct{})
		h.households[c.householdID] = clients
	}
	clients[c] = struct{}{}
}

// Unregister removes a client and closes its send channel. It is safe to
// call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.households[c.householdID]
	if !ok {
		return
	}
	if _, ok := clients[c]; ok {
		delete(clients, c)
		close(c.send)
	}
	if len(clients) == 0 {
		delete(h.households, c.householdID)
	}
}

// Broadcast sends msg to every client of householdID without blocking.
// Clients with a full buffer miss the message.
func (h *Hub) Broadcast(householdID uuid.UUID, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.households[householdID] {
		select {
		case c.send <- data:
		default:
			h.logger.Debug("dropping message for slow client", "household_id", householdID, "type", msg.Type)
		}
	}
}

// ClientCount returns the number of clients connected to householdID.
func (h *Hub) ClientCount(householdID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.households[householdID])
}
