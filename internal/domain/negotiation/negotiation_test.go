package negotiation

import (
	"math"
	"testing"
)

func TestSessionCanTransitionTo(t *testing.T) {
	active := &Session{Status: SessionStatusActive}
	if !active.CanTransitionTo(SessionStatusCompleted) {
		t.Fatal("ACTIVE should transition to COMPLETED")
	}
	if !active.CanTransitionTo(SessionStatusCancelled) {
		t.Fatal("ACTIVE should transition to CANCELLED")
	}

	completed := &Session{Status: SessionStatusCompleted}
	if completed.CanTransitionTo(SessionStatusActive) {
		t.Fatal("COMPLETED is terminal")
	}
	cancelled := &Session{Status: SessionStatusCancelled}
	if cancelled.CanTransitionTo(SessionStatusCompleted) {
		t.Fatal("CANCELLED is terminal")
	}
}

func TestParticipantCanTransitionTo(t *testing.T) {
	adjusting := &Participant{Status: ParticipantStatusAdjusting}
	if !adjusting.CanTransitionTo(ParticipantStatusConfirmed) {
		t.Fatal("ADJUSTING should transition to CONFIRMED")
	}
	if adjusting.CanTransitionTo(ParticipantStatusLocked) {
		t.Fatal("ADJUSTING must not jump straight to LOCKED")
	}

	confirmed := &Participant{Status: ParticipantStatusConfirmed}
	if !confirmed.CanTransitionTo(ParticipantStatusAdjusting) {
		t.Fatal("confirmation must be revocable")
	}
	if !confirmed.CanTransitionTo(ParticipantStatusLocked) {
		t.Fatal("CONFIRMED should transition to LOCKED")
	}

	locked := &Participant{Status: ParticipantStatusLocked}
	if locked.CanTransitionTo(ParticipantStatusAdjusting) {
		t.Fatal("LOCKED is terminal")
	}
}

func TestShareInBoundsInclusive(t *testing.T) {
	cases := []struct {
		value float64
		want  bool
	}{
		{9.99, false},
		{10, true},
		{50, true},
		{90, true},
		{90.01, false},
		{0, false},
		{100, false},
	}
	for _, tc := range cases {
		if got := ShareInBounds(tc.value); got != tc.want {
			t.Fatalf("ShareInBounds(%v) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestClampShare(t *testing.T) {
	if got := ClampShare(5); got != MinSharePercent {
		t.Fatalf("expected clamp to %v, got %v", MinSharePercent, got)
	}
	if got := ClampShare(95); got != MaxSharePercent {
		t.Fatalf("expected clamp to %v, got %v", MaxSharePercent, got)
	}
	if got := ClampShare(42.5); got != 42.5 {
		t.Fatalf("in-bounds value must pass through, got %v", got)
	}
}

func TestEqualSplit(t *testing.T) {
	if got := EqualSplit(4); got != 25 {
		t.Fatalf("expected 25, got %v", got)
	}
	if got := EqualSplit(3); math.Abs(got-100.0/3.0) > 1e-9 {
		t.Fatalf("expected a third, got %v", got)
	}
	if got := EqualSplit(0); got != 0 {
		t.Fatalf("expected 0 for empty roster, got %v", got)
	}
}

func TestWithinConsensus(t *testing.T) {
	if !WithinConsensus(100) {
		t.Fatal("exact total must pass")
	}
	if !WithinConsensus(100.009) {
		t.Fatal("total inside tolerance must pass")
	}
	if !WithinConsensus(99.995) {
		t.Fatal("total inside tolerance must pass")
	}
	if WithinConsensus(100.02) {
		t.Fatal("total outside tolerance must not pass")
	}
	if WithinConsensus(90) {
		t.Fatal("total of 90 must not pass")
	}
}

func TestSumSharesRecomputes(t *testing.T) {
	roster := []*Participant{
		{CurrentPercentage: 33.4},
		{CurrentPercentage: 33.3},
		{CurrentPercentage: 33.3},
	}
	if got := SumShares(roster); math.Abs(got-100) > 1e-9 {
		t.Fatalf("expected 100, got %v", got)
	}
	roster[0].CurrentPercentage = 40
	if got := SumShares(roster); math.Abs(got-106.6) > 1e-9 {
		t.Fatalf("expected 106.6 after mutation, got %v", got)
	}
}

func TestAllConfirmed(t *testing.T) {
	if AllConfirmed(nil) {
		t.Fatal("empty roster must not count as confirmed")
	}
	roster := []*Participant{
		{Status: ParticipantStatusConfirmed},
		{Status: ParticipantStatusAdjusting},
	}
	if AllConfirmed(roster) {
		t.Fatal("one adjusting participant blocks consensus")
	}
	roster[1].Status = ParticipantStatusConfirmed
	if !AllConfirmed(roster) {
		t.Fatal("all confirmed roster must pass")
	}
}
