package negotiation

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// SessionStatus describes negotiation session state.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusCompleted SessionStatus = "COMPLETED"
	SessionStatusCancelled SessionStatus = "CANCELLED"
)

// ParticipantStatus describes one participant's state inside a session.
type ParticipantStatus string

const (
	ParticipantStatusAdjusting ParticipantStatus = "ADJUSTING"
	ParticipantStatusConfirmed ParticipantStatus = "CONFIRMED"
	ParticipantStatusLocked    ParticipantStatus = "LOCKED"
)

// Share bounds while a participant is still adjusting. The final locked
// value is whatever the group agreed on and is not re-checked.
const (
	MinSharePercent = 10.0
	MaxSharePercent = 90.0
)

// TotalTarget is the sum the group must reach; ConsensusTolerance absorbs
// floating-point accumulation error across participants.
const (
	TotalTarget        = 100.0
	ConsensusTolerance = 0.01
)

// MaxRosterSize is the largest roster an equal split can seed without
// breaking the MinSharePercent floor (100 / 10).
const MaxRosterSize = 10

// Session is one live percentage negotiation for a (group, property) pairing.
type Session struct {
	ID              int64         `json:"id"`
	SessionID       uuid.UUID     `json:"sessionId"`
	ContextKey      string        `json:"contextKey"`
	CalculationID   uuid.UUID     `json:"calculationId"`
	Status          SessionStatus `json:"status"`
	TotalPercentage float64       `json:"totalPercentage"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
	CompletedAt     *time.Time    `json:"completedAt,omitempty"`
}

// Participant is one group member's row inside a session.
type Participant struct {
	ID                 int64             `json:"id"`
	SessionID          uuid.UUID         `json:"sessionId"`
	UserID             string            `json:"userId"`
	CurrentPercentage  float64           `json:"currentPercentage"`
	IntendedPercentage *float64          `json:"intendedPercentage,omitempty"`
	Status             ParticipantStatus `json:"status"`
	IsOnline           bool              `json:"isOnline"`
	LastActivity       time.Time         `json:"lastActivity"`
}

// SessionState is the full reconciliation snapshot a connecting client seeds
// its local view from.
type SessionState struct {
	Session      *Session       `json:"session"`
	Participants []*Participant `json:"participants"`
}

// RosterMember describes one active group member at session-open time.
type RosterMember struct {
	UserID             string   `json:"userId"`
	IntendedPercentage *float64 `json:"intendedPercentage,omitempty"`
}

// CanTransitionTo reports whether the session may move to target. Terminal
// states are immutable.
func (s *Session) CanTransitionTo(target SessionStatus) bool {
	if s.Status != SessionStatusActive {
		return false
	}
	return target == SessionStatusCompleted || target == SessionStatusCancelled
}

// IsTerminal reports whether the session reached a final state.
func (s *Session) IsTerminal() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusCancelled
}

// CanTransitionTo reports whether the participant may move to target.
// LOCKED is terminal and only ever set by the engine for the whole roster at
// once; a user may walk CONFIRMED back to ADJUSTING until then.
func (p *Participant) CanTransitionTo(target ParticipantStatus) bool {
	switch p.Status {
	case ParticipantStatusAdjusting:
		return target == ParticipantStatusConfirmed || target == ParticipantStatusLocked
	case ParticipantStatusConfirmed:
		return target == ParticipantStatusAdjusting || target == ParticipantStatusLocked
	default:
		return false
	}
}

// ShareInBounds reports whether value is a legal share for an adjusting
// participant. Bounds are inclusive.
func ShareInBounds(value float64) bool {
	return value >= MinSharePercent && value <= MaxSharePercent
}

// ClampShare forces value into the adjusting bounds. Used when seeding rows
// from an intended percentage supplied by the pricing flow.
func ClampShare(value float64) float64 {
	if value < MinSharePercent {
		return MinSharePercent
	}
	if value > MaxSharePercent {
		return MaxSharePercent
	}
	return value
}

// EqualSplit returns the default seed share for a roster of n members.
func EqualSplit(n int) float64 {
	if n <= 0 {
		return 0
	}
	return TotalTarget / float64(n)
}

// WithinConsensus reports whether total is close enough to 100 to confirm.
func WithinConsensus(total float64) bool {
	return math.Abs(total-TotalTarget) < ConsensusTolerance
}

// SumShares recomputes the session total as a fresh sum over the roster.
// Always recomputed, never accumulated, so interleaved writes from different
// users converge regardless of order.
func SumShares(participants []*Participant) float64 {
	var total float64
	for _, p := range participants {
		total += p.CurrentPercentage
	}
	return total
}

// AllConfirmed reports whether every participant is CONFIRMED. False for an
// empty roster.
func AllConfirmed(participants []*Participant) bool {
	if len(participants) == 0 {
		return false
	}
	for _, p := range participants {
		if p.Status != ParticipantStatusConfirmed {
			return false
		}
	}
	return true
}
