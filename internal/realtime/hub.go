package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Event types pushed to connected clients.
const (
	EventTaskAssigned  = "task_assigned"
	EventTaskCompleted = "task_completed"
	EventKYCSubmitted  = "kyc_submitted"
	EventKYCDecided    = "kyc_decided"
)

// Event is the JSON frame written to websocket clients.
type Event struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	TaskID  uint   `json:"taskId,omitempty"`
	UserID  uint   `json:"userId"`
	Status  string `json:"status,omitempty"`
	Version int    `json:"version"`
}

// NewEvent stamps a fresh id on an event.
func NewEvent(kind string, taskID, userID uint, status string) Event {
	return Event{
		ID:      uuid.NewString(),
		Type:    kind,
		TaskID:  taskID,
		UserID:  userID,
		Status:  status,
		Version: 1,
	}
}

// Client is one live connection. The network side lives in the ws handler.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Hub maintains active user connections and pushes events to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[Client]struct{}
}

var hubInstance *Hub
var once sync.Once

// GetHub returns the process-wide hub.
func GetHub() *Hub {
	once.Do(func() {
		hubInstance = NewHub()
	})
	return hubInstance
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[uint]map[Client]struct{})}
}

// Register adds a client under a user ID.
func (h *Hub) Register(userID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[userID]; !ok {
		h.clients[userID] = make(map[Client]struct{})
	}
	h.clients[userID][client] = struct{}{}
}

// Unregister removes a client; the user entry goes away with its last client.
func (h *Hub) Unregister(userID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, userID)
		}
	}
}

// Connected returns how many clients the user has open.
func (h *Hub) Connected(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Publish sends evt to every client of userID and returns how many accepted it.
// Clients whose write fails are left for their handler to unregister.
func (h *Hub) Publish(userID uint, evt Event) int {
	msg, err := json.Marshal(evt)
	if err != nil {
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for c := range h.clients[userID] {
		if c.Send(msg) {
			delivered++
		}
	}
	return delivered
}
