// Package sessionview is the client-side mirror of a negotiation session:
// it seeds from a full state fetch, applies local changes optimistically for
// responsiveness, debounces slider drags before calling the engine, and
// reconciles against the engine's broadcasts. The engine is the only writer
// of authoritative state, so merging is last-write-wins per event arrival —
// there is no real conflict to resolve, only latency to tolerate.
package sessionview

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/groupnest/groupnest/internal/domain/negotiation"
)

// DefaultDebounce coalesces a drag gesture's intermediate values while
// keeping peer-perceived movement near real time.
const DefaultDebounce = 150 * time.Millisecond

var ErrSessionClosed = errors.New("session is no longer active")

// Invoker is the engine surface the view drives. The application service
// satisfies it in-process; Client satisfies it over HTTP.
type Invoker interface {
	ProposePercentage(ctx context.Context, sessionID uuid.UUID, userID string, value float64) (*negotiation.Participant, error)
	Confirm(ctx context.Context, sessionID uuid.UUID, userID string) (*negotiation.Participant, error)
	Revoke(ctx context.Context, sessionID uuid.UUID, userID string) (*negotiation.Participant, error)
}

// provisional is a local value applied before server confirmation. It is
// tagged unconfirmed and replaced wholly by the next authoritative event or
// resync; it is never merged field-by-field, so a rejected operation cannot
// be masked.
type provisional struct {
	value float64
	prior float64
}

// View mirrors one participant's session.
type View struct {
	invoker  Invoker
	userID   string
	debounce time.Duration
	onError  func(error)

	mu           sync.Mutex
	sessionID    uuid.UUID
	session      negotiation.Session
	participants map[string]negotiation.Participant
	order        []string
	online       map[string]bool
	pending      *provisional
	timer        *time.Timer
	seeded       bool
}

// NewView creates a view for userID. onError receives rejections of
// optimistic operations after rollback; nil is allowed.
func NewView(invoker Invoker, userID string, debounce time.Duration, onError func(error)) *View {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if onError == nil {
		onError = func(error) {}
	}
	return &View{
		invoker:      invoker,
		userID:       userID,
		debounce:     debounce,
		onError:      onError,
		participants: make(map[string]negotiation.Participant),
		online:       make(map[string]bool),
	}
}

// Seed replaces the whole view from an authoritative state fetch. Used on
// connect and on every reconnect; any provisional value is dropped.
func (v *View) Seed(state *negotiation.SessionState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopTimerLocked()
	v.pending = nil
	v.sessionID = state.Session.SessionID
	v.session = *state.Session
	v.participants = make(map[string]negotiation.Participant, len(state.Participants))
	v.order = v.order[:0]
	v.online = make(map[string]bool)
	for _, p := range state.Participants {
		v.participants[p.UserID] = *p
		v.order = append(v.order, p.UserID)
		if p.IsOnline {
			v.online[p.UserID] = true
		}
	}
	v.seeded = true
}

// SetPercentage applies the slider value locally right away and schedules
// the engine call after the debounce window. Rapid calls coalesce; only the
// last value is sent.
func (v *View) SetPercentage(value float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.seeded {
		return errors.New("view not seeded")
	}
	if v.session.IsTerminal() {
		return ErrSessionClosed
	}
	own, ok := v.participants[v.userID]
	if !ok {
		return negotiation.ErrParticipantNotFound
	}
	if own.Status != negotiation.ParticipantStatusAdjusting {
		return errors.New("cannot adjust after confirming")
	}

	if v.pending == nil {
		v.pending = &provisional{prior: own.CurrentPercentage}
	}
	v.pending.value = value

	v.stopTimerLocked()
	v.timer = time.AfterFunc(v.debounce, v.flushPending)
	return nil
}

// Flush sends a pending percentage immediately instead of waiting out the
// debounce window.
func (v *View) Flush() {
	v.mu.Lock()
	hasPending := v.pending != nil
	v.stopTimerLocked()
	v.mu.Unlock()
	if hasPending {
		v.flushPending()
	}
}

func (v *View) flushPending() {
	v.mu.Lock()
	if v.pending == nil {
		v.mu.Unlock()
		return
	}
	value := v.pending.value
	prior := v.pending.prior
	sessionID := v.sessionID
	v.mu.Unlock()

	if _, err := v.invoker.ProposePercentage(context.Background(), sessionID, v.userID, value); err != nil {
		v.rollback(prior)
		v.onError(err)
	}
}

// Confirm freezes the user's share, optimistically flipping local status
// first. A pending percentage is flushed beforehand so the engine sees the
// final value.
func (v *View) Confirm(ctx context.Context) error {
	v.Flush()

	v.mu.Lock()
	own, ok := v.participants[v.userID]
	if !ok {
		v.mu.Unlock()
		return negotiation.ErrParticipantNotFound
	}
	priorStatus := own.Status
	own.Status = negotiation.ParticipantStatusConfirmed
	v.participants[v.userID] = own
	sessionID := v.sessionID
	v.mu.Unlock()

	if _, err := v.invoker.Confirm(ctx, sessionID, v.userID); err != nil {
		v.rollbackStatus(priorStatus)
		v.onError(err)
		return err
	}
	return nil
}

// Revoke walks the user's confirmation back.
func (v *View) Revoke(ctx context.Context) error {
	v.mu.Lock()
	own, ok := v.participants[v.userID]
	if !ok {
		v.mu.Unlock()
		return negotiation.ErrParticipantNotFound
	}
	priorStatus := own.Status
	own.Status = negotiation.ParticipantStatusAdjusting
	v.participants[v.userID] = own
	sessionID := v.sessionID
	v.mu.Unlock()

	if _, err := v.invoker.Revoke(ctx, sessionID, v.userID); err != nil {
		v.rollbackStatus(priorStatus)
		v.onError(err)
		return err
	}
	return nil
}

// OnEvent merges one broadcast into the view. An authoritative event for
// the user's own row replaces any provisional value wholly.
func (v *View) OnEvent(event *negotiation.Event) {
	if event == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	switch event.Type {
	case negotiation.EventTypePercentageUpdate:
		p, ok := v.participants[event.UserID]
		if !ok {
			return
		}
		if event.Percentage != nil {
			p.CurrentPercentage = *event.Percentage
		}
		if event.Status != "" {
			p.Status = event.Status
		}
		p.LastActivity = event.Timestamp
		v.participants[event.UserID] = p
		if event.UserID == v.userID {
			v.stopTimerLocked()
			v.pending = nil
		}

	case negotiation.EventTypeStatusChange:
		p, ok := v.participants[event.UserID]
		if !ok {
			return
		}
		p.Status = event.Status
		p.LastActivity = event.Timestamp
		v.participants[event.UserID] = p
		if event.UserID == v.userID {
			v.stopTimerLocked()
			v.pending = nil
		}

	case negotiation.EventTypeOnlineUsers:
		v.online = make(map[string]bool, len(event.Users))
		for _, u := range event.Users {
			v.online[u] = true
		}

	case negotiation.EventTypeUserJoined:
		v.online[event.UserID] = true

	case negotiation.EventTypeUserLeft:
		delete(v.online, event.UserID)

	case negotiation.EventTypeSessionLocked:
		v.session.Status = negotiation.SessionStatusCompleted
		for id, p := range v.participants {
			p.Status = negotiation.ParticipantStatusLocked
			v.participants[id] = p
		}
		v.stopTimerLocked()
		v.pending = nil

	case negotiation.EventTypeSessionCancelled:
		v.session.Status = negotiation.SessionStatusCancelled
		v.stopTimerLocked()
		v.pending = nil
	}
}

// Snapshot returns a render-ready copy: the user's provisional value is
// visible on their own row and the total reflects what is on screen.
func (v *View) Snapshot() *negotiation.SessionState {
	v.mu.Lock()
	defer v.mu.Unlock()

	session := v.session
	out := make([]*negotiation.Participant, 0, len(v.participants))
	for _, userID := range v.order {
		p, ok := v.participants[userID]
		if !ok {
			continue
		}
		cp := p
		if userID == v.userID && v.pending != nil {
			cp.CurrentPercentage = v.pending.value
		}
		cp.IsOnline = v.online[userID]
		out = append(out, &cp)
	}
	session.TotalPercentage = negotiation.SumShares(out)
	return &negotiation.SessionState{Session: &session, Participants: out}
}

// Online reports whether a participant currently holds a connection.
func (v *View) Online(userID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.online[userID]
}

func (v *View) rollback(prior float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pending = nil
	p, ok := v.participants[v.userID]
	if !ok {
		return
	}
	p.CurrentPercentage = prior
	v.participants[v.userID] = p
}

func (v *View) rollbackStatus(prior negotiation.ParticipantStatus) {
	v.mu.Lock()
	defer v.mu.Unlock()
	p, ok := v.participants[v.userID]
	if !ok {
		return
	}
	p.Status = prior
	v.participants[v.userID] = p
}

func (v *View) stopTimerLocked() {
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}
