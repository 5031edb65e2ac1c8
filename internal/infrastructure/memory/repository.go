package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/groupnest/groupnest/internal/domain/negotiation"
)

// NegotiationRepository is an in-memory negotiation.Repository used by the
// demo mode of the CLI and by scenario tests. Semantics match the postgres
// implementation, including the all-or-nothing lock.
type NegotiationRepository struct {
	mu           sync.RWMutex
	nextID       int64
	sessions     map[uuid.UUID]*negotiation.Session
	participants map[uuid.UUID]map[string]*negotiation.Participant
}

func NewNegotiationRepository() *NegotiationRepository {
	return &NegotiationRepository{
		sessions:     make(map[uuid.UUID]*negotiation.Session),
		participants: make(map[uuid.UUID]map[string]*negotiation.Participant),
	}
}

// CreateSessionWithParticipants stores the session and its roster under one
// lock hold; like the postgres transaction, the session is never visible
// with a partial roster.
func (r *NegotiationRepository) CreateSessionWithParticipants(_ context.Context, s *negotiation.Session, participants []*negotiation.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cp := *s
	cp.ID = r.nextID
	r.sessions[s.SessionID] = &cp
	s.ID = cp.ID

	rows := make(map[string]*negotiation.Participant, len(participants))
	for _, p := range participants {
		r.nextID++
		pcp := *p
		pcp.ID = r.nextID
		rows[p.UserID] = &pcp
		p.ID = pcp.ID
	}
	r.participants[s.SessionID] = rows
	return nil
}

func (r *NegotiationRepository) GetSessionByID(_ context.Context, sessionID uuid.UUID) (*negotiation.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *NegotiationRepository) GetActiveSessionByContext(_ context.Context, contextKey string) (*negotiation.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.ContextKey == contextKey && s.Status == negotiation.SessionStatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *NegotiationRepository) UpdateSessionStatus(_ context.Context, sessionID uuid.UUID, status negotiation.SessionStatus, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return negotiation.ErrSessionNotFound
	}
	if s.Status != negotiation.SessionStatusActive {
		return negotiation.ErrSessionNotActive
	}
	s.Status = status
	s.UpdatedAt = updatedAt
	return nil
}

func (r *NegotiationRepository) UpdateSessionTotal(_ context.Context, sessionID uuid.UUID, total float64, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return negotiation.ErrSessionNotFound
	}
	s.TotalPercentage = total
	s.UpdatedAt = updatedAt
	return nil
}

func (r *NegotiationRepository) GetParticipant(_ context.Context, sessionID uuid.UUID, userID string) (*negotiation.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[sessionID][userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *NegotiationRepository) ListParticipants(_ context.Context, sessionID uuid.UUID) ([]*negotiation.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := r.participants[sessionID]
	out := make([]*negotiation.Participant, 0, len(rows))
	for _, p := range rows {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *NegotiationRepository) UpdateParticipantShare(_ context.Context, sessionID uuid.UUID, userID string, percentage float64, activityAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[sessionID][userID]
	if !ok {
		return negotiation.ErrParticipantNotFound
	}
	p.CurrentPercentage = percentage
	p.LastActivity = activityAt
	return nil
}

func (r *NegotiationRepository) UpdateParticipantStatus(_ context.Context, sessionID uuid.UUID, userID string, status negotiation.ParticipantStatus, activityAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[sessionID][userID]
	if !ok {
		return negotiation.ErrParticipantNotFound
	}
	p.Status = status
	p.LastActivity = activityAt
	return nil
}

func (r *NegotiationRepository) DeleteParticipant(_ context.Context, sessionID uuid.UUID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.participants[sessionID], userID)
	return nil
}

func (r *NegotiationRepository) LockSession(_ context.Context, sessionID uuid.UUID, lockedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return negotiation.ErrSessionNotFound
	}
	if s.Status != negotiation.SessionStatusActive {
		return negotiation.ErrSessionNotActive
	}
	for _, p := range r.participants[sessionID] {
		p.Status = negotiation.ParticipantStatusLocked
		p.LastActivity = lockedAt
	}
	s.Status = negotiation.SessionStatusCompleted
	s.UpdatedAt = lockedAt
	s.CompletedAt = &lockedAt
	return nil
}
