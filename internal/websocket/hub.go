package websocket

import (
	"sync"

	"driver-location-be/internal/pkg/logger"
)

// Hub tracks the sessions held by this instance. A driver may briefly have
// two sessions while a reconnect overlaps the old socket's timeout.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*Session]struct{}
	logger   logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		sessions: make(map[string]map[*Session]struct{}),
		logger:   log,
	}
}

func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	set, ok := h.sessions[s.DriverID]
	if !ok {
		set = make(map[*Session]struct{})
		h.sessions[s.DriverID] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("Hub", "Session registered", map[string]interface{}{"driver_id": s.DriverID, "session_id": s.ID})
}

func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.sessions[s.DriverID]
	if !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.sessions, s.DriverID)
		h.logger.Info("Hub", "Driver completely unregistered", map[string]interface{}{"driver_id": s.DriverID})
	}
}

// ActiveCount is the number of open sessions on this instance.
func (h *Hub) ActiveCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.sessions {
		n += len(set)
	}
	return n
}

// Connected reports whether driverID has a session on this instance.
func (h *Hub) Connected(driverID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[driverID]) > 0
}

// CloseAll closes every session. Their Run calls then unregister them.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	all := make([]*Session, 0, len(h.sessions))
	for _, set := range h.sessions {
		for s := range set {
			all = append(all, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range all {
		s.Close()
	}
	if len(all) > 0 {
		h.logger.Info("Hub", "Closed all sessions", map[string]interface{}{"count": len(all)})
	}
}
