package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"focusflow/internal/types"
)

// SessionRepository provides data access for the focus_sessions table.
// The quota subsystem reads counts from it; the timer feature writes rows
// through Insert.
type SessionRepository struct {
	db DBTX
}

// NewSessionRepository creates a new SessionRepository backed by the given
// database connection (pool or transaction).
func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// Insert persists a new focus session record. A missing ID is generated and
// a missing CreatedAt defaults to the database clock.
func (r *SessionRepository) Insert(ctx context.Context, rec *types.FocusSessionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Kind == "" {
		rec.Kind = types.SessionFocus
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO focus_sessions (id, user_id, kind, duration_minutes, created_at)
		 VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))`,
		rec.ID,
		rec.UserID,
		rec.Kind,
		rec.DurationMinutes,
		nilIfZeroTime(rec.CreatedAt),
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to insert focus session", err)
	}
	return nil
}

// CountInRange counts the user's focus sessions with created_at in the
// half-open window [startInclusive, endExclusive). Break sessions never
// count against the daily quota.
func (r *SessionRepository) CountInRange(ctx context.Context, userID string, startInclusive, endExclusive time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM focus_sessions
		 WHERE user_id = $1 AND kind = 'focus' AND created_at >= $2 AND created_at < $3`,
		userID,
		startInclusive,
		endExclusive,
	).Scan(&count)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to count focus sessions", err)
	}
	return count, nil
}

// ListRecent returns the user's most recent sessions, newest first.
// Used by the AI coach to summarize recent activity.
func (r *SessionRepository) ListRecent(ctx context.Context, userID string, limit int) ([]types.FocusSessionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, kind, duration_minutes, created_at
		 FROM focus_sessions
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID,
		limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query focus sessions", err)
	}
	defer rows.Close()

	var sessions []types.FocusSessionRecord
	for rows.Next() {
		var rec types.FocusSessionRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Kind, &rec.DurationMinutes, &rec.CreatedAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan focus session row", err)
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating focus session rows", err)
	}

	return sessions, nil
}

// nilIfZeroTime returns nil if the time is zero, otherwise returns a pointer
// to the time. Used to let the DB default (NOW()) apply when no time is set.
func nilIfZeroTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint
// violation (error code 23505). Used by repositories to detect duplicate
// key conflicts and return appropriate application-level errors.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
