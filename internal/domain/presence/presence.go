package presence

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_registry.go -package=mocks . Registry

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/groupnest/groupnest/internal/domain/negotiation"
)

// Client is one live connection handle for a (session, user) pair. Events
// are pushed through a buffered channel; a full buffer means the subscriber
// is too slow and delivery to it fails.
type Client struct {
	SessionID   uuid.UUID
	UserID      string
	ConnectedAt time.Time

	EventChan chan *negotiation.Event

	closeOnce sync.Once
}

// NewClient builds a connection handle with a buffered event channel.
func NewClient(sessionID uuid.UUID, userID string) *Client {
	return &Client{
		SessionID:   sessionID,
		UserID:      userID,
		ConnectedAt: time.Now().UTC(),
		EventChan:   make(chan *negotiation.Event, 64),
	}
}

// Close releases the event channel. Safe to call more than once; the hub
// and the transport handler may both tear a client down.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.EventChan)
	})
}

// Registry tracks live connections per session. Registry state is rebuilt
// from scratch on process restart: a participant simply reads as offline
// until they reconnect, which is expected, not an error.
type Registry interface {
	// Register adds the handle for (client.SessionID, client.UserID). A
	// second connection for the same pair replaces the first and the prior
	// handle is closed, so a stale tab's stream terminates.
	Register(client *Client)
	// Unregister removes the handle only if it is still the current one for
	// the pair.
	Unregister(client *Client)
	// Disconnect force-closes whatever handle the pair currently holds.
	// Used when a user leaves the roster while their stream is still open.
	Disconnect(sessionID uuid.UUID, userID string)
	// ListOnline returns the user IDs currently connected to the session.
	ListOnline(sessionID uuid.UUID) []string
}
