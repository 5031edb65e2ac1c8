package negotiation

import (
	"time"

	"github.com/google/uuid"
)

// EventType describes a session broadcast event.
type EventType string

const (
	EventTypePercentageUpdate EventType = "percentage-update"
	EventTypeStatusChange     EventType = "status-change"
	EventTypeOnlineUsers      EventType = "online-users"
	EventTypeSessionLocked    EventType = "session-locked"
	EventTypeSessionCancelled EventType = "session-cancelled"
	EventTypeUserJoined       EventType = "user-joined"
	EventTypeUserLeft         EventType = "user-left"
)

// Event is the wire payload fanned out to every connection of a session.
// Only Type is always populated; the rest depends on the event kind.
type Event struct {
	EventID    uuid.UUID         `json:"eventId"`
	SessionID  uuid.UUID         `json:"sessionId"`
	Type       EventType         `json:"type"`
	UserID     string            `json:"userId,omitempty"`
	Percentage *float64          `json:"percentage,omitempty"`
	Status     ParticipantStatus `json:"status,omitempty"`
	Users      []string          `json:"users,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

func newEvent(sessionID uuid.UUID, eventType EventType) *Event {
	return &Event{
		EventID:   uuid.New(),
		SessionID: sessionID,
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

// NewPercentageUpdateEvent reports one participant's new share.
func NewPercentageUpdateEvent(sessionID uuid.UUID, userID string, percentage float64, status ParticipantStatus) *Event {
	e := newEvent(sessionID, EventTypePercentageUpdate)
	e.UserID = userID
	e.Percentage = &percentage
	e.Status = status
	return e
}

// NewStatusChangeEvent reports a confirm or revoke.
func NewStatusChangeEvent(sessionID uuid.UUID, userID string, status ParticipantStatus) *Event {
	e := newEvent(sessionID, EventTypeStatusChange)
	e.UserID = userID
	e.Status = status
	return e
}

// NewOnlineUsersEvent carries the current online roster.
func NewOnlineUsersEvent(sessionID uuid.UUID, users []string) *Event {
	e := newEvent(sessionID, EventTypeOnlineUsers)
	if users == nil {
		users = []string{}
	}
	e.Users = users
	return e
}

// NewSessionLockedEvent announces the whole-session lock.
func NewSessionLockedEvent(sessionID uuid.UUID) *Event {
	return newEvent(sessionID, EventTypeSessionLocked)
}

// NewSessionCancelledEvent announces session cancellation.
func NewSessionCancelledEvent(sessionID uuid.UUID) *Event {
	return newEvent(sessionID, EventTypeSessionCancelled)
}

// NewUserJoinedEvent reports a connection opening.
func NewUserJoinedEvent(sessionID uuid.UUID, userID string) *Event {
	e := newEvent(sessionID, EventTypeUserJoined)
	e.UserID = userID
	return e
}

// NewUserLeftEvent reports a connection closing.
func NewUserLeftEvent(sessionID uuid.UUID, userID string) *Event {
	e := newEvent(sessionID, EventTypeUserLeft)
	e.UserID = userID
	return e
}
