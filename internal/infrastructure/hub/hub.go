package hub

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/groupnest/groupnest/internal/domain/negotiation"
	"github.com/groupnest/groupnest/internal/domain/presence"
)

// Hub is the in-process presence registry and fan-out channel. It is
// constructed at process start and injected wherever a registry or
// broadcaster is needed; Stop is the shutdown hook.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]map[string]*presence.Client
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[uuid.UUID]map[string]*presence.Client),
	}
}

// Register adds the client and announces the updated online list. A prior
// connection for the same (session, user) is closed and replaced.
func (h *Hub) Register(client *presence.Client) {
	h.mu.Lock()
	clients, ok := h.sessions[client.SessionID]
	if !ok {
		clients = make(map[string]*presence.Client)
		h.sessions[client.SessionID] = clients
	}
	prior := clients[client.UserID]
	clients[client.UserID] = client
	h.mu.Unlock()

	if prior != nil {
		prior.Close()
	}

	h.Publish(client.SessionID, negotiation.NewUserJoinedEvent(client.SessionID, client.UserID), client.UserID)
	h.broadcastOnline(client.SessionID)
}

// Unregister removes the client if it is still the current handle for its
// (session, user) pair, then announces the updated online list. The last
// connection leaving releases the session's map entry.
func (h *Hub) Unregister(client *presence.Client) {
	h.mu.Lock()
	removed := false
	if clients, ok := h.sessions[client.SessionID]; ok {
		if clients[client.UserID] == client {
			delete(clients, client.UserID)
			removed = true
			if len(clients) == 0 {
				delete(h.sessions, client.SessionID)
			}
		}
	}
	h.mu.Unlock()

	if !removed {
		return
	}
	client.Close()
	h.Publish(client.SessionID, negotiation.NewUserLeftEvent(client.SessionID, client.UserID), client.UserID)
	h.broadcastOnline(client.SessionID)
}

// Disconnect force-closes the current handle for (sessionID, userID) and
// announces the updated online list. The caller announces the departure
// itself when one is due, so no user-left event is emitted here.
func (h *Hub) Disconnect(sessionID uuid.UUID, userID string) {
	h.mu.Lock()
	var victim *presence.Client
	if clients, ok := h.sessions[sessionID]; ok {
		if c, ok := clients[userID]; ok {
			victim = c
			delete(clients, userID)
			if len(clients) == 0 {
				delete(h.sessions, sessionID)
			}
		}
	}
	h.mu.Unlock()

	if victim == nil {
		return
	}
	victim.Close()
	h.broadcastOnline(sessionID)
}

// ListOnline returns the user IDs with a live connection to the session.
func (h *Hub) ListOnline(sessionID uuid.UUID) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := h.sessions[sessionID]
	out := make([]string, 0, len(clients))
	for userID := range clients {
		out = append(out, userID)
	}
	sort.Strings(out)
	return out
}

// ClientCount reports live connections for the session.
func (h *Hub) ClientCount(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// Publish delivers the event to every live connection of the session except
// excludeUserID. A handle that is no longer writable is treated as stale and
// dropped from the registry as a side effect.
func (h *Hub) Publish(sessionID uuid.UUID, event *negotiation.Event, excludeUserID string) negotiation.PublishResult {
	h.mu.RLock()
	targets := make([]*presence.Client, 0, len(h.sessions[sessionID]))
	for userID, c := range h.sessions[sessionID] {
		if excludeUserID != "" && userID == excludeUserID {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	result := negotiation.PublishResult{}
	var stale []*presence.Client
	for _, c := range targets {
		if trySend(c, event) {
			result.SentCount++
		} else {
			result.FailedUserIDs = append(result.FailedUserIDs, c.UserID)
			stale = append(stale, c)
		}
	}

	for _, c := range stale {
		h.dropStale(c)
	}
	return result
}

// Stop closes every connection and clears the registry.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sessionID, clients := range h.sessions {
		for userID, c := range clients {
			c.Close()
			delete(clients, userID)
		}
		delete(h.sessions, sessionID)
	}
}

func (h *Hub) broadcastOnline(sessionID uuid.UUID) {
	h.Publish(sessionID, negotiation.NewOnlineUsersEvent(sessionID, h.ListOnline(sessionID)), "")
}

func (h *Hub) dropStale(client *presence.Client) {
	h.mu.Lock()
	if clients, ok := h.sessions[client.SessionID]; ok && clients[client.UserID] == client {
		delete(clients, client.UserID)
		if len(clients) == 0 {
			delete(h.sessions, client.SessionID)
		}
	}
	h.mu.Unlock()
	client.Close()
}

func trySend(c *presence.Client, event *negotiation.Event) (ok bool) {
	// Sending on a closed channel panics; a handle closed by a replacement
	// or shutdown mid-publish counts as a failed delivery.
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case c.EventChan <- event:
		return true
	default:
		return false
	}
}
