package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/groupnest/groupnest/internal/domain/negotiation"
)

// NegotiationRepository implements negotiation.Repository.
type NegotiationRepository struct {
	pool *pgxpool.Pool
}

func NewNegotiationRepository(pool *pgxpool.Pool) *NegotiationRepository {
	return &NegotiationRepository{pool: pool}
}

// CreateSessionWithParticipants inserts the session and its roster in one
// transaction: a failure on any row leaves nothing behind, so the session
// can never come up ACTIVE with a partial roster.
func (r *NegotiationRepository) CreateSessionWithParticipants(ctx context.Context, s *negotiation.Session, participants []*negotiation.Participant) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO negotiation_sessions
			(session_id, context_key, calculation_id, status, total_percentage, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, s.SessionID, s.ContextKey, s.CalculationID, s.Status, s.TotalPercentage, s.CreatedAt, s.UpdatedAt); err != nil {
			return err
		}
		for _, p := range participants {
			if _, err := tx.Exec(ctx, `
				INSERT INTO negotiation_participants
				(session_id, user_id, current_percentage, intended_percentage, status, last_activity)
				VALUES ($1,$2,$3,$4,$5,$6)
			`, p.SessionID, p.UserID, p.CurrentPercentage, p.IntendedPercentage, p.Status, p.LastActivity); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *NegotiationRepository) GetSessionByID(ctx context.Context, sessionID uuid.UUID) (*negotiation.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, session_id, context_key, calculation_id, status, total_percentage, created_at, updated_at, completed_at
		FROM negotiation_sessions WHERE session_id=$1
	`, sessionID)
	return scanSession(row)
}

func (r *NegotiationRepository) GetActiveSessionByContext(ctx context.Context, contextKey string) (*negotiation.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, session_id, context_key, calculation_id, status, total_percentage, created_at, updated_at, completed_at
		FROM negotiation_sessions WHERE context_key=$1 AND status='ACTIVE'
	`, contextKey)
	return scanSession(row)
}

// UpdateSessionStatus only transitions out of ACTIVE. The guard makes the
// write conditional on the state the caller checked, so a racing lock or
// cancel cannot flip an already terminal session.
func (r *NegotiationRepository) UpdateSessionStatus(ctx context.Context, sessionID uuid.UUID, status negotiation.SessionStatus, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE negotiation_sessions SET status=$1, updated_at=$2
		WHERE session_id=$3 AND status='ACTIVE'
	`, status, updatedAt, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return negotiation.ErrSessionNotActive
	}
	return nil
}

func (r *NegotiationRepository) UpdateSessionTotal(ctx context.Context, sessionID uuid.UUID, total float64, updatedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE negotiation_sessions SET total_percentage=$1, updated_at=$2 WHERE session_id=$3
	`, total, updatedAt, sessionID)
	return err
}

func (r *NegotiationRepository) GetParticipant(ctx context.Context, sessionID uuid.UUID, userID string) (*negotiation.Participant, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, session_id, user_id, current_percentage, intended_percentage, status, last_activity
		FROM negotiation_participants WHERE session_id=$1 AND user_id=$2
	`, sessionID, userID)
	return scanParticipant(row)
}

func (r *NegotiationRepository) ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]*negotiation.Participant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, user_id, current_percentage, intended_percentage, status, last_activity
		FROM negotiation_participants WHERE session_id=$1 ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*negotiation.Participant, 0)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *NegotiationRepository) UpdateParticipantShare(ctx context.Context, sessionID uuid.UUID, userID string, percentage float64, activityAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE negotiation_participants SET current_percentage=$1, last_activity=$2
		WHERE session_id=$3 AND user_id=$4
	`, percentage, activityAt, sessionID, userID)
	return err
}

func (r *NegotiationRepository) UpdateParticipantStatus(ctx context.Context, sessionID uuid.UUID, userID string, status negotiation.ParticipantStatus, activityAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE negotiation_participants SET status=$1, last_activity=$2
		WHERE session_id=$3 AND user_id=$4
	`, status, activityAt, sessionID, userID)
	return err
}

func (r *NegotiationRepository) DeleteParticipant(ctx context.Context, sessionID uuid.UUID, userID string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM negotiation_participants WHERE session_id=$1 AND user_id=$2
	`, sessionID, userID)
	return err
}

// LockSession applies the whole-session lock in one transaction so a
// partially locked roster is never observable. The ACTIVE guard on the
// session row means a concurrent cancel or second lock finds no row and the
// transaction rolls back untouched.
func (r *NegotiationRepository) LockSession(ctx context.Context, sessionID uuid.UUID, lockedAt time.Time) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE negotiation_sessions SET status=$1, updated_at=$2, completed_at=$2
			WHERE session_id=$3 AND status='ACTIVE'
		`, negotiation.SessionStatusCompleted, lockedAt, sessionID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return negotiation.ErrSessionNotActive
		}
		_, err = tx.Exec(ctx, `
			UPDATE negotiation_participants SET status=$1, last_activity=$2 WHERE session_id=$3
		`, negotiation.ParticipantStatusLocked, lockedAt, sessionID)
		return err
	})
}

func scanSession(row pgx.Row) (*negotiation.Session, error) {
	var s negotiation.Session
	if err := row.Scan(&s.ID, &s.SessionID, &s.ContextKey, &s.CalculationID, &s.Status, &s.TotalPercentage, &s.CreatedAt, &s.UpdatedAt, &s.CompletedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func scanParticipant(row pgx.Row) (*negotiation.Participant, error) {
	var p negotiation.Participant
	if err := row.Scan(&p.ID, &p.SessionID, &p.UserID, &p.CurrentPercentage, &p.IntendedPercentage, &p.Status, &p.LastActivity); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
