package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"marvelcdc/internal/errs"
	"marvelcdc/internal/model"
)

// SessionRepo implements SessionRepository using PostgreSQL.
type SessionRepo struct{ db *DB }

// NewSessionRepo constructs a session repository.
func NewSessionRepo(db *DB) *SessionRepo { return &SessionRepo{db: db} }

// Create inserts a new session row.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	const q = `INSERT INTO sessions (id, user_id, expires_at) VALUES ($1, $2, $3)`
	_, err := r.db.Pool.Exec(ctx, q, s.ID, s.UserID, s.ExpiresAt)
	return err
}

// Get selects a session by ID.
func (r *SessionRepo) Get(ctx context.Context, id string) (*model.Session, error) {
	const q = `SELECT id, user_id, expires_at, created_at FROM sessions WHERE id=$1`
	var s model.Session
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&s.ID, &s.UserID, &s.ExpiresAt, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Delete removes one session; deleting a missing session is a no-op.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM sessions WHERE id=$1`, id)
	return err
}

// DeleteAllForUser removes every session of a user.
func (r *SessionRepo) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM sessions WHERE user_id=$1`, userID)
	return err
}

// DeleteExpired removes sessions past their expiry.
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
