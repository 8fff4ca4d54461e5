package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"marvelcdc/internal/model"
)

// SessionRepository provides server-side session storage, so password resets
// and account deletion can revoke every outstanding login.
type SessionRepository interface {
	// Create inserts a new session.
	Create(ctx context.Context, s *model.Session) error
	// Get loads a session by ID.
	Get(ctx context.Context, id string) (*model.Session, error)
	// Delete removes a single session; missing sessions are not an error.
	Delete(ctx context.Context, id string) error
	// DeleteAllForUser removes every session belonging to a user.
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
	// DeleteExpired removes sessions past their expiry and reports the count.
	DeleteExpired(ctx context.Context) (int64, error)
}
