package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupnest/groupnest/internal/domain/negotiation"
)

func seedSession(t *testing.T, repo *NegotiationRepository) *negotiation.Session {
	t.Helper()
	now := time.Now().UTC()
	session := &negotiation.Session{
		SessionID:     uuid.New(),
		ContextKey:    "group-1:prop-1",
		CalculationID: uuid.New(),
		Status:        negotiation.SessionStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	participants := []*negotiation.Participant{
		{SessionID: session.SessionID, UserID: "alice", CurrentPercentage: 50, Status: negotiation.ParticipantStatusConfirmed},
		{SessionID: session.SessionID, UserID: "bob", CurrentPercentage: 50, Status: negotiation.ParticipantStatusConfirmed},
	}
	require.NoError(t, repo.CreateSessionWithParticipants(context.Background(), session, participants))
	return session
}

func TestCreateStoresFullRoster(t *testing.T) {
	repo := NewNegotiationRepository()
	session := seedSession(t, repo)

	rows, err := repo.ListParticipants(context.Background(), session.SessionID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "alice", rows[0].UserID)
	assert.Equal(t, "bob", rows[1].UserID)
	assert.NotZero(t, session.ID)
}

func TestLockedSessionRefusesFurtherTransitions(t *testing.T) {
	repo := NewNegotiationRepository()
	ctx := context.Background()
	session := seedSession(t, repo)
	now := time.Now().UTC()

	require.NoError(t, repo.LockSession(ctx, session.SessionID, now))

	// A cancel arriving after the lock must not overwrite the terminal state,
	// and a second lock must report that nothing applied.
	err := repo.UpdateSessionStatus(ctx, session.SessionID, negotiation.SessionStatusCancelled, now)
	assert.ErrorIs(t, err, negotiation.ErrSessionNotActive)
	assert.ErrorIs(t, repo.LockSession(ctx, session.SessionID, now), negotiation.ErrSessionNotActive)

	got, err := repo.GetSessionByID(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, negotiation.SessionStatusCompleted, got.Status)
}

func TestCancelledSessionCannotLock(t *testing.T) {
	repo := NewNegotiationRepository()
	ctx := context.Background()
	session := seedSession(t, repo)
	now := time.Now().UTC()

	require.NoError(t, repo.UpdateSessionStatus(ctx, session.SessionID, negotiation.SessionStatusCancelled, now))
	assert.ErrorIs(t, repo.LockSession(ctx, session.SessionID, now), negotiation.ErrSessionNotActive)

	rows, err := repo.ListParticipants(ctx, session.SessionID)
	require.NoError(t, err)
	for _, p := range rows {
		assert.NotEqual(t, negotiation.ParticipantStatusLocked, p.Status)
	}
}
