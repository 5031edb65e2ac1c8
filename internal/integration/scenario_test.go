package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appNegotiation "github.com/groupnest/groupnest/internal/application/negotiation"
	"github.com/groupnest/groupnest/internal/domain/negotiation"
	"github.com/groupnest/groupnest/internal/domain/presence"
	"github.com/groupnest/groupnest/internal/infrastructure/hub"
	"github.com/groupnest/groupnest/internal/infrastructure/memory"
)

// newScenario stands up the engine on the in-memory store with a real hub,
// opens a session for the given users and subscribes one connection per
// user.
func newScenario(t *testing.T, users ...string) (*appNegotiation.Service, *hub.Hub, uuid.UUID, map[string]*presence.Client) {
	t.Helper()

	eventHub := hub.NewHub()
	t.Cleanup(eventHub.Stop)
	svc := appNegotiation.NewService(memory.NewNegotiationRepository(), eventHub, eventHub, "", zerolog.Nop())

	roster := make([]negotiation.RosterMember, 0, len(users))
	for _, u := range users {
		roster = append(roster, negotiation.RosterMember{UserID: u})
	}
	state, err := svc.GetOrCreateSession(context.Background(), appNegotiation.GetOrCreateInput{
		ContextKey:    "group-7:42-elm-street",
		CalculationID: uuid.New(),
		Roster:        roster,
	})
	require.NoError(t, err)
	sessionID := state.Session.SessionID

	clients := make(map[string]*presence.Client, len(users))
	for _, u := range users {
		c := presence.NewClient(sessionID, u)
		eventHub.Register(c)
		clients[u] = c
	}
	return svc, eventHub, sessionID, clients
}

func collect(c *presence.Client) []*negotiation.Event {
	var out []*negotiation.Event
	for {
		select {
		case ev, ok := <-c.EventChan:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func countType(events []*negotiation.Event, eventType negotiation.EventType) int {
	n := 0
	for _, ev := range events {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

func TestConfirmBlockedUntilTotalReaches100(t *testing.T) {
	svc, _, sessionID, _ := newScenario(t, "alice", "bob", "carol")
	ctx := context.Background()

	// Everyone pulls back to 30: total 90.
	for _, u := range []string{"alice", "bob", "carol"} {
		_, err := svc.ProposePercentage(ctx, sessionID, u, 30)
		require.NoError(t, err)
	}

	_, err := svc.Confirm(ctx, sessionID, "alice")
	require.Error(t, err)
	assert.True(t, negotiation.IsPrecondition(err))

	// One member takes up the slack; now everyone can confirm.
	_, err = svc.ProposePercentage(ctx, sessionID, "alice", 40)
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, sessionID, "alice")
	require.NoError(t, err)
}

func TestFullConsensusLocksExactlyOnce(t *testing.T) {
	svc, _, sessionID, clients := newScenario(t, "alice", "bob", "carol")
	ctx := context.Background()

	_, err := svc.ProposePercentage(ctx, sessionID, "alice", 40)
	require.NoError(t, err)
	_, err = svc.ProposePercentage(ctx, sessionID, "bob", 30)
	require.NoError(t, err)
	_, err = svc.ProposePercentage(ctx, sessionID, "carol", 30)
	require.NoError(t, err)

	for _, u := range []string{"alice", "bob", "carol"} {
		_, err := svc.Confirm(ctx, sessionID, u)
		require.NoError(t, err)
	}

	state, err := svc.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, negotiation.SessionStatusCompleted, state.Session.Status)
	require.NotNil(t, state.Session.CompletedAt)
	for _, p := range state.Participants {
		assert.Equal(t, negotiation.ParticipantStatusLocked, p.Status)
	}

	// Every connection sees exactly one lock announcement.
	for u, c := range clients {
		events := collect(c)
		assert.Equal(t, 1, countType(events, negotiation.EventTypeSessionLocked), "user %s", u)
	}
}

func TestMutationsRejectedAfterLock(t *testing.T) {
	svc, _, sessionID, _ := newScenario(t, "alice", "bob")
	ctx := context.Background()

	_, err := svc.ProposePercentage(ctx, sessionID, "alice", 50)
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, sessionID, "alice")
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, sessionID, "bob")
	require.NoError(t, err)

	_, err = svc.ProposePercentage(ctx, sessionID, "alice", 60)
	assert.True(t, negotiation.IsPrecondition(err))
	_, err = svc.Confirm(ctx, sessionID, "alice")
	assert.True(t, negotiation.IsPrecondition(err))
	_, err = svc.Revoke(ctx, sessionID, "alice")
	assert.True(t, negotiation.IsPrecondition(err))
	err = svc.CancelSession(ctx, sessionID)
	assert.True(t, negotiation.IsPrecondition(err))
}

func TestRevokeReopensAdjustment(t *testing.T) {
	svc, _, sessionID, clients := newScenario(t, "alice", "bob")
	ctx := context.Background()

	_, err := svc.Confirm(ctx, sessionID, "alice")
	require.NoError(t, err)

	// Alice walks it back; bob sees both status changes.
	_, err = svc.Revoke(ctx, sessionID, "alice")
	require.NoError(t, err)

	_, err = svc.ProposePercentage(ctx, sessionID, "alice", 60)
	require.NoError(t, err)

	events := collect(clients["bob"])
	assert.Equal(t, 2, countType(events, negotiation.EventTypeStatusChange))
	assert.Equal(t, 1, countType(events, negotiation.EventTypePercentageUpdate))

	state, err := svc.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, negotiation.SessionStatusActive, state.Session.Status)
}

func TestPeerAdjustmentWhileOthersConfirmed(t *testing.T) {
	svc, _, sessionID, _ := newScenario(t, "alice", "bob")
	ctx := context.Background()

	// Alice confirms at the default split; bob keeps moving. No lock while
	// bob adjusts, even when the total stays at 100.
	_, err := svc.Confirm(ctx, sessionID, "alice")
	require.NoError(t, err)

	_, err = svc.ProposePercentage(ctx, sessionID, "bob", 50)
	require.NoError(t, err)

	state, err := svc.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, negotiation.SessionStatusActive, state.Session.Status)

	_, err = svc.Confirm(ctx, sessionID, "bob")
	require.NoError(t, err)

	state, err = svc.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, negotiation.SessionStatusCompleted, state.Session.Status)
}

func TestRemoveParticipantRecomputesTotal(t *testing.T) {
	svc, eventHub, sessionID, clients := newScenario(t, "alice", "bob", "carol", "dave")
	ctx := context.Background()

	require.NoError(t, svc.RemoveParticipant(ctx, sessionID, "dave"))

	state, err := svc.GetSession(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, state.Participants, 3)
	assert.InDelta(t, 75, state.Session.TotalPercentage, 0.000001)

	events := collect(clients["alice"])
	assert.GreaterOrEqual(t, countType(events, negotiation.EventTypeUserLeft), 1)

	// Dave's stream ends with the removal: the channel closes and the pair
	// drops out of the presence list.
	collect(clients["dave"])
	_, open := <-clients["dave"].EventChan
	assert.False(t, open)
	assert.NotContains(t, eventHub.ListOnline(sessionID), "dave")
}

func TestReconnectSeesLockedState(t *testing.T) {
	svc, eventHub, sessionID, clients := newScenario(t, "alice", "bob")
	ctx := context.Background()

	_, err := svc.ProposePercentage(ctx, sessionID, "alice", 50)
	require.NoError(t, err)

	// Bob drops right before the final confirmations.
	eventHub.Unregister(clients["bob"])

	_, err = svc.Confirm(ctx, sessionID, "alice")
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, sessionID, "bob")
	require.NoError(t, err)

	// On reconnect the resync fetch alone shows the finished negotiation.
	reconnected := presence.NewClient(sessionID, "bob")
	eventHub.Register(reconnected)
	defer eventHub.Unregister(reconnected)

	state, err := svc.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, negotiation.SessionStatusCompleted, state.Session.Status)
	for _, p := range state.Participants {
		assert.Equal(t, negotiation.ParticipantStatusLocked, p.Status)
		if p.UserID == "bob" {
			assert.True(t, p.IsOnline)
		}
	}
}

func TestCancelBroadcastsToEveryone(t *testing.T) {
	svc, _, sessionID, clients := newScenario(t, "alice", "bob", "carol")
	ctx := context.Background()

	require.NoError(t, svc.CancelSession(ctx, sessionID))

	for u, c := range clients {
		events := collect(c)
		assert.Equal(t, 1, countType(events, negotiation.EventTypeSessionCancelled), "user %s", u)
	}

	state, err := svc.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, negotiation.SessionStatusCancelled, state.Session.Status)
}

// flakyRepository fails the first session create outright, as a dropped
// connection mid-request would, then behaves normally.
type flakyRepository struct {
	*memory.NegotiationRepository
	failures int
}

func (r *flakyRepository) CreateSessionWithParticipants(ctx context.Context, s *negotiation.Session, participants []*negotiation.Participant) error {
	if r.failures > 0 {
		r.failures--
		return errors.New("connection reset by peer")
	}
	return r.NegotiationRepository.CreateSessionWithParticipants(ctx, s, participants)
}

func TestFailedCreateLeavesNothingBehind(t *testing.T) {
	eventHub := hub.NewHub()
	t.Cleanup(eventHub.Stop)
	repo := &flakyRepository{NegotiationRepository: memory.NewNegotiationRepository(), failures: 1}
	svc := appNegotiation.NewService(repo, eventHub, eventHub, "", zerolog.Nop())
	ctx := context.Background()

	input := appNegotiation.GetOrCreateInput{
		ContextKey:    "group-9:9-oak-lane",
		CalculationID: uuid.New(),
		Roster:        []negotiation.RosterMember{{UserID: "alice"}, {UserID: "bob"}, {UserID: "carol"}},
	}

	_, err := svc.GetOrCreateSession(ctx, input)
	require.Error(t, err)

	// The failed attempt left no active session, so the retry creates a
	// fresh one with the complete roster rather than resuming a stub.
	state, err := svc.GetOrCreateSession(ctx, input)
	require.NoError(t, err)
	require.Len(t, state.Participants, 3)
	assert.Equal(t, negotiation.SessionStatusActive, state.Session.Status)
}

func TestSecondSessionForSameContextResumes(t *testing.T) {
	svc, _, sessionID, _ := newScenario(t, "alice", "bob")
	ctx := context.Background()

	state, err := svc.GetOrCreateSession(ctx, appNegotiation.GetOrCreateInput{
		ContextKey:    "group-7:42-elm-street",
		CalculationID: uuid.New(),
		Roster:        []negotiation.RosterMember{{UserID: "alice"}, {UserID: "bob"}},
	})
	require.NoError(t, err)
	assert.Equal(t, sessionID, state.Session.SessionID)
}
