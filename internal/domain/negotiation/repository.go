package negotiation

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository,Broadcaster

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines durable persistence for negotiation sessions. Lookups
// return (nil, nil) when the row does not exist.
type Repository interface {
	// CreateSessionWithParticipants inserts the session and its whole roster
	// in one atomic step. On failure nothing is applied, so a retry never
	// resumes a half-created session.
	CreateSessionWithParticipants(ctx context.Context, session *Session, participants []*Participant) error
	GetSessionByID(ctx context.Context, sessionID uuid.UUID) (*Session, error)
	GetActiveSessionByContext(ctx context.Context, contextKey string) (*Session, error)
	// UpdateSessionStatus applies only while the session is still ACTIVE and
	// returns ErrSessionNotActive otherwise, so a racing terminal transition
	// cannot be overwritten.
	UpdateSessionStatus(ctx context.Context, sessionID uuid.UUID, status SessionStatus, updatedAt time.Time) error
	UpdateSessionTotal(ctx context.Context, sessionID uuid.UUID, total float64, updatedAt time.Time) error

	GetParticipant(ctx context.Context, sessionID uuid.UUID, userID string) (*Participant, error)
	ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]*Participant, error)
	UpdateParticipantShare(ctx context.Context, sessionID uuid.UUID, userID string, percentage float64, activityAt time.Time) error
	UpdateParticipantStatus(ctx context.Context, sessionID uuid.UUID, userID string, status ParticipantStatus, activityAt time.Time) error
	DeleteParticipant(ctx context.Context, sessionID uuid.UUID, userID string) error

	// LockSession moves every participant to LOCKED and the session to
	// COMPLETED in one atomic step. A partially locked roster must never be
	// observable; on failure nothing is applied. Guarded like
	// UpdateSessionStatus: a session already terminal returns
	// ErrSessionNotActive untouched, so two racing final confirms lock at
	// most once.
	LockSession(ctx context.Context, sessionID uuid.UUID, lockedAt time.Time) error
}

// PublishResult reports fan-out delivery of one event.
type PublishResult struct {
	SentCount     int
	FailedUserIDs []string
}

// Broadcaster delivers an event to every live connection of a session,
// optionally skipping the originator. Delivery is at-most-once and
// best-effort; the store stays the single source of truth and clients
// resynchronize on reconnect.
type Broadcaster interface {
	Publish(sessionID uuid.UUID, event *Event, excludeUserID string) PublishResult
}
