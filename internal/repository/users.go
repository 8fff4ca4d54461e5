// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"marvelcdc/internal/model"
)

// UserRepository provides CRUD access for user accounts and their
// verification/reset token state.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByUsername loads a user by username.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// GetByEmail loads a user by email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// GetByVerificationToken loads a user by email verification token.
	GetByVerificationToken(ctx context.Context, token string) (*model.User, error)
	// GetByResetToken loads a user by password reset token.
	GetByResetToken(ctx context.Context, token string) (*model.User, error)
	// GetByPendingEmailToken loads a user by pending-email verification token.
	GetByPendingEmailToken(ctx context.Context, token string) (*model.User, error)

	// MarkEmailVerified sets email_verified and clears the verification token.
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
	// SetVerificationToken replaces the email verification token and its expiry.
	SetVerificationToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error

	// UpdateProfile persists username/name/profile-URL changes and any
	// pending-email state set on u.
	UpdateProfile(ctx context.Context, u *model.User) error
	// CommitPendingEmail promotes the pending email to the primary address
	// and clears the pending-email token.
	CommitPendingEmail(ctx context.Context, id uuid.UUID) error

	// SetResetToken stores a password reset token on the user.
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	// UpdatePassword replaces the password hash/salt and clears any reset token.
	UpdatePassword(ctx context.Context, id uuid.UUID, pwdHash, saltAuth []byte) error

	// Delete removes the user; dependent rows cascade in storage.
	Delete(ctx context.Context, id uuid.UUID) error
}
