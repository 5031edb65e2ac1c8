package negotiation

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/groupnest/groupnest/internal/domain/negotiation"
	"github.com/groupnest/groupnest/internal/domain/presence"
)

// Service is the negotiation engine: it owns every state transition
// (percentage update, confirm, revoke, auto-lock) and is the only writer of
// authoritative state. Clients mirror it optimistically and reconcile from
// its broadcasts.
type Service struct {
	repo        negotiation.Repository
	broadcaster negotiation.Broadcaster
	registry    presence.Registry
	sharePolicy string
	logger      zerolog.Logger
}

// NewService creates the negotiation engine. sharePolicy is an optional
// expression that tightens the built-in share bounds; empty means bounds
// only.
func NewService(
	repo negotiation.Repository,
	broadcaster negotiation.Broadcaster,
	registry presence.Registry,
	sharePolicy string,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:        repo,
		broadcaster: broadcaster,
		registry:    registry,
		sharePolicy: strings.TrimSpace(sharePolicy),
		logger:      logger.With().Str("service", "negotiation").Logger(),
	}
}

// GetOrCreateInput opens or resumes the negotiation for one (group,
// property) pairing. Roster is the group's active membership at open time;
// group CRUD itself lives outside this service.
type GetOrCreateInput struct {
	ContextKey    string
	CalculationID uuid.UUID
	Roster        []negotiation.RosterMember
}

// GetOrCreateSession is idempotent: it returns the existing active session
// for the context key or creates one with a participant row per roster
// member, seeded at the intended percentage when known, else an equal split.
func (s *Service) GetOrCreateSession(ctx context.Context, in GetOrCreateInput) (*negotiation.SessionState, error) {
	contextKey := strings.TrimSpace(in.ContextKey)
	if contextKey == "" {
		return nil, negotiation.NewValidationError("contextKey", "is required")
	}

	existing, err := s.repo.GetActiveSessionByContext(ctx, contextKey)
	if err != nil {
		return nil, negotiation.NewStorageError("get active session", err)
	}
	if existing != nil {
		return s.loadState(ctx, existing)
	}

	roster, err := normalizeRoster(in.Roster)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &negotiation.Session{
		SessionID:     uuid.New(),
		ContextKey:    contextKey,
		CalculationID: in.CalculationID,
		Status:        negotiation.SessionStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	seed := negotiation.EqualSplit(len(roster))
	participants := make([]*negotiation.Participant, 0, len(roster))
	for _, m := range roster {
		share := seed
		if m.IntendedPercentage != nil {
			share = negotiation.ClampShare(*m.IntendedPercentage)
		}
		participants = append(participants, &negotiation.Participant{
			SessionID:          session.SessionID,
			UserID:             m.UserID,
			CurrentPercentage:  share,
			IntendedPercentage: m.IntendedPercentage,
			Status:             negotiation.ParticipantStatusAdjusting,
			LastActivity:       now,
		})
	}
	session.TotalPercentage = negotiation.SumShares(participants)

	// One atomic insert for session plus roster: a store failure leaves no
	// half-created ACTIVE session for the idempotent retry to resume.
	if err := s.repo.CreateSessionWithParticipants(ctx, session, participants); err != nil {
		return nil, negotiation.NewStorageError("create session", err)
	}

	s.logger.Info().
		Str("session_id", session.SessionID.String()).
		Str("context_key", contextKey).
		Int("roster", len(participants)).
		Msg("negotiation session opened")

	s.stampOnline(session.SessionID, participants)
	return &negotiation.SessionState{Session: session, Participants: participants}, nil
}

// GetSession returns the full current state for reconciliation by a newly
// connecting client.
func (s *Service) GetSession(ctx context.Context, sessionID uuid.UUID) (*negotiation.SessionState, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.loadState(ctx, session)
}

// ProposePercentage updates one participant's share. Legal only while the
// participant is ADJUSTING and the session is ACTIVE; the value must pass
// the inclusive [10,90] bounds and the deployment share policy.
func (s *Service) ProposePercentage(ctx context.Context, sessionID uuid.UUID, userID string, value float64) (*negotiation.Participant, error) {
	session, participant, err := s.loadForUpdate(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if participant.Status != negotiation.ParticipantStatusAdjusting {
		return nil, negotiation.NewPreconditionError("percentage can only change while adjusting")
	}
	if !negotiation.ShareInBounds(value) {
		return nil, negotiation.NewValidationError("percentage", "must be between 10 and 90")
	}

	participants, err := s.repo.ListParticipants(ctx, sessionID)
	if err != nil {
		return nil, negotiation.NewStorageError("list participants", err)
	}
	ok, err := EvaluateSharePolicy(s.sharePolicy, value, len(participants), session.TotalPercentage)
	if err != nil {
		s.logger.Warn().Err(err).Str("policy", s.sharePolicy).Msg("share policy evaluation failed")
		return nil, negotiation.NewValidationError("percentage", "share policy could not evaluate value")
	}
	if !ok {
		return nil, negotiation.NewValidationError("percentage", "rejected by share policy")
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateParticipantShare(ctx, sessionID, userID, value, now); err != nil {
		return nil, negotiation.NewStorageError("update participant share", err)
	}
	participant.CurrentPercentage = value
	participant.LastActivity = now

	s.recomputeTotal(ctx, sessionID, now)
	s.broadcaster.Publish(sessionID, negotiation.NewPercentageUpdateEvent(sessionID, userID, value, participant.Status), "")
	s.evaluateLock(ctx, sessionID)
	return participant, nil
}

// Confirm freezes one participant's agreement. Legal only while ADJUSTING
// and while the freshly recomputed total is within tolerance of 100; the
// tolerance absorbs floating-point accumulation across members.
func (s *Service) Confirm(ctx context.Context, sessionID uuid.UUID, userID string) (*negotiation.Participant, error) {
	_, participant, err := s.loadForUpdate(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if participant.Status != negotiation.ParticipantStatusAdjusting {
		return nil, negotiation.NewPreconditionError("only an adjusting participant can confirm")
	}

	participants, err := s.repo.ListParticipants(ctx, sessionID)
	if err != nil {
		return nil, negotiation.NewStorageError("list participants", err)
	}
	if !negotiation.WithinConsensus(negotiation.SumShares(participants)) {
		return nil, negotiation.NewPreconditionError("total must equal 100% to confirm")
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateParticipantStatus(ctx, sessionID, userID, negotiation.ParticipantStatusConfirmed, now); err != nil {
		return nil, negotiation.NewStorageError("update participant status", err)
	}
	participant.Status = negotiation.ParticipantStatusConfirmed
	participant.LastActivity = now

	s.broadcaster.Publish(sessionID, negotiation.NewStatusChangeEvent(sessionID, userID, participant.Status), "")
	s.evaluateLock(ctx, sessionID)
	return participant, nil
}

// Revoke walks a confirmation back to ADJUSTING. Legal only while the
// session has not locked.
func (s *Service) Revoke(ctx context.Context, sessionID uuid.UUID, userID string) (*negotiation.Participant, error) {
	_, participant, err := s.loadForUpdate(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if participant.Status != negotiation.ParticipantStatusConfirmed {
		return nil, negotiation.NewPreconditionError("only a confirmed participant can revoke")
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateParticipantStatus(ctx, sessionID, userID, negotiation.ParticipantStatusAdjusting, now); err != nil {
		return nil, negotiation.NewStorageError("update participant status", err)
	}
	participant.Status = negotiation.ParticipantStatusAdjusting
	participant.LastActivity = now

	s.broadcaster.Publish(sessionID, negotiation.NewStatusChangeEvent(sessionID, userID, participant.Status), "")
	s.evaluateLock(ctx, sessionID)
	return participant, nil
}

// RemoveParticipant drops a member who left the group before lock, then
// re-evaluates consensus for the remaining roster.
func (s *Service) RemoveParticipant(ctx context.Context, sessionID uuid.UUID, userID string) error {
	if _, _, err := s.loadForUpdate(ctx, sessionID, userID); err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := s.repo.DeleteParticipant(ctx, sessionID, userID); err != nil {
		return negotiation.NewStorageError("delete participant", err)
	}

	s.recomputeTotal(ctx, sessionID, now)
	s.broadcaster.Publish(sessionID, negotiation.NewUserLeftEvent(sessionID, userID), "")
	// An open stream for the removed user is off the roster now; close it so
	// they stop receiving events and drop from the online list.
	s.registry.Disconnect(sessionID, userID)
	s.evaluateLock(ctx, sessionID)
	return nil
}

// CancelSession abandons an active negotiation. Terminal.
func (s *Service) CancelSession(ctx context.Context, sessionID uuid.UUID) error {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !session.CanTransitionTo(negotiation.SessionStatusCancelled) {
		return negotiation.NewPreconditionError("session is not active")
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateSessionStatus(ctx, sessionID, negotiation.SessionStatusCancelled, now); err != nil {
		// The guarded write lost to a concurrent lock or cancel: the session
		// is terminal and stays whatever it became first.
		if errors.Is(err, negotiation.ErrSessionNotActive) {
			return negotiation.NewPreconditionError("session is not active")
		}
		return negotiation.NewStorageError("update session status", err)
	}

	s.logger.Info().Str("session_id", sessionID.String()).Msg("negotiation session cancelled")
	s.broadcaster.Publish(sessionID, negotiation.NewSessionCancelledEvent(sessionID), "")
	return nil
}

// evaluateLock fires after every confirm, revoke and percentage change: when
// every participant is CONFIRMED and the total sits within tolerance of 100,
// the whole roster locks and the session completes in one atomic step. A
// storage failure leaves the session ACTIVE and the attempt simply retries
// on the next triggering event.
func (s *Service) evaluateLock(ctx context.Context, sessionID uuid.UUID) {
	participants, err := s.repo.ListParticipants(ctx, sessionID)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID.String()).Msg("lock evaluation read failed")
		return
	}
	if !negotiation.AllConfirmed(participants) {
		return
	}
	if !negotiation.WithinConsensus(negotiation.SumShares(participants)) {
		return
	}

	now := time.Now().UTC()
	if err := s.repo.LockSession(ctx, sessionID, now); err != nil {
		// Another writer got there first: the session is already terminal
		// and its winner broadcast the outcome. Exactly one session-locked
		// event reaches each client.
		if errors.Is(err, negotiation.ErrSessionNotActive) {
			s.logger.Debug().Str("session_id", sessionID.String()).Msg("lock already applied elsewhere")
			return
		}
		s.logger.Error().Err(err).Str("session_id", sessionID.String()).Msg("session lock failed, will retry on next event")
		return
	}

	s.logger.Info().Str("session_id", sessionID.String()).Msg("negotiation session locked")
	s.broadcaster.Publish(sessionID, negotiation.NewSessionLockedEvent(sessionID), "")
}

// recomputeTotal persists a fresh sum over all rows. Best effort: the next
// write recomputes again, so brief staleness is tolerated.
func (s *Service) recomputeTotal(ctx context.Context, sessionID uuid.UUID, at time.Time) {
	participants, err := s.repo.ListParticipants(ctx, sessionID)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID.String()).Msg("total recompute read failed")
		return
	}
	total := negotiation.SumShares(participants)
	if err := s.repo.UpdateSessionTotal(ctx, sessionID, total, at); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID.String()).Msg("total recompute write failed")
	}
}

func (s *Service) loadSession(ctx context.Context, sessionID uuid.UUID) (*negotiation.Session, error) {
	session, err := s.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, negotiation.NewStorageError("get session", err)
	}
	if session == nil {
		return nil, negotiation.ErrSessionNotFound
	}
	return session, nil
}

func (s *Service) loadForUpdate(ctx context.Context, sessionID uuid.UUID, userID string) (*negotiation.Session, *negotiation.Participant, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.Status != negotiation.SessionStatusActive {
		return nil, nil, negotiation.NewPreconditionError("session is not active")
	}
	participant, err := s.repo.GetParticipant(ctx, sessionID, userID)
	if err != nil {
		return nil, nil, negotiation.NewStorageError("get participant", err)
	}
	if participant == nil {
		return nil, nil, negotiation.ErrParticipantNotFound
	}
	return session, participant, nil
}

func (s *Service) loadState(ctx context.Context, session *negotiation.Session) (*negotiation.SessionState, error) {
	participants, err := s.repo.ListParticipants(ctx, session.SessionID)
	if err != nil {
		return nil, negotiation.NewStorageError("list participants", err)
	}
	s.stampOnline(session.SessionID, participants)
	return &negotiation.SessionState{Session: session, Participants: participants}, nil
}

func (s *Service) stampOnline(sessionID uuid.UUID, participants []*negotiation.Participant) {
	online := s.registry.ListOnline(sessionID)
	for _, p := range participants {
		p.IsOnline = slices.Contains(online, p.UserID)
	}
}

func normalizeRoster(in []negotiation.RosterMember) ([]negotiation.RosterMember, error) {
	if len(in) < 2 {
		return nil, negotiation.NewValidationError("roster", "needs at least two members")
	}
	if len(in) > negotiation.MaxRosterSize {
		return nil, negotiation.NewValidationError("roster", "too large for the 10% share floor")
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]negotiation.RosterMember, 0, len(in))
	for _, m := range in {
		userID := strings.TrimSpace(m.UserID)
		if userID == "" {
			return nil, negotiation.NewValidationError("roster", "member userId is required")
		}
		if _, ok := seen[userID]; ok {
			return nil, negotiation.NewValidationError("roster", "duplicate member "+userID)
		}
		seen[userID] = struct{}{}
		out = append(out, negotiation.RosterMember{UserID: userID, IntendedPercentage: m.IntendedPercentage})
	}
	return out, nil
}
