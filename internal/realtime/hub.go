package realtime

import (
	"sync"

	"gittogether/api/internal/models"
)

// Session is a connected, authenticated client as seen by the hub and the
// gateway.
type Session interface {
	ID() string
	Identity() models.Identity
	// Send queues a frame without blocking. It reports false when the frame
	// was dropped.
	Send(frame Frame) bool
}

// Hub tracks room membership. A room is keyed by chat id.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Session
	joins map[string]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[string]Session),
		joins: make(map[string]map[string]struct{}),
	}
}

func (h *Hub) Join(chatID string, s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[chatID]
	if !ok {
		room = make(map[string]Session)
		h.rooms[chatID] = room
	}
	room[s.ID()] = s

	joined, ok := h.joins[s.ID()]
	if !ok {
		joined = make(map[string]struct{})
		h.joins[s.ID()] = joined
	}
	joined[chatID] = struct{}{}
}

// LeaveAll removes the session from every room it joined.
func (h *Hub) LeaveAll(s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for chatID := range h.joins[s.ID()] {
		room := h.rooms[chatID]
		delete(room, s.ID())
		if len(room) == 0 {
			delete(h.rooms, chatID)
		}
	}
	delete(h.joins, s.ID())
}

// Broadcast queues frame for every member of the room and returns how many
// members accepted it.
func (h *Hub) Broadcast(chatID string, frame Frame) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, s := range h.rooms[chatID] {
		if s.Send(frame) {
			delivered++
		}
	}
	return delivered
}

func (h *Hub) InRoom(chatID, sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[chatID][sessionID]
	return ok
}

func (h *Hub) RoomSize(chatID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatID])
}
