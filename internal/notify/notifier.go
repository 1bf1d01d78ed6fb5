package notify

import (
	"log"
	"sync"
	"time"
)

// Level classifies a notification for the UI.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is a user-visible message (toast material), e.g. "could not
// update favorites".
type Notification struct {
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Hub keeps a rolling window of notifications the bridge exposes to the UI.
// Every pushed notification is also logged, so nothing is silently swallowed
// even if the UI never polls.
type Hub struct {
	mu     sync.Mutex
	recent []Notification
	limit  int
}

func NewHub() *Hub {
	return &Hub{limit: 50}
}

func (h *Hub) Push(level Level, message string) {
	log.Printf("notify [%s]: %s", level, message)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recent = append(h.recent, Notification{Level: level, Message: message, CreatedAt: time.Now()})
	if len(h.recent) > h.limit {
		h.recent = h.recent[len(h.recent)-h.limit:]
	}
}

func (h *Hub) Error(message string) {
	h.Push(LevelError, message)
}

// Recent returns a copy of the current window, newest last.
func (h *Hub) Recent() []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Notification, len(h.recent))
	copy(out, h.recent)
	return out
}
