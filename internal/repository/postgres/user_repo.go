package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"marvelcdc/internal/errs"
	"marvelcdc/internal/model"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `
id, username, email, pwd_hash, salt_auth,
email_verified, email_verification_token, email_token_expires_at,
password_reset_token, password_token_expires_at,
pending_email, pending_email_token, pending_email_token_expires_at,
first_name, last_name, marvelcdb_profile, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PwdHash, &u.SaltAuth,
		&u.EmailVerified, &u.EmailVerificationToken, &u.EmailTokenExpiresAt,
		&u.PasswordResetToken, &u.PasswordTokenExpiresAt,
		&u.PendingEmail, &u.PendingEmailToken, &u.PendingEmailTokenExpiresAt,
		&u.FirstName, &u.LastName, &u.MarvelCDBProfile, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (id, username, email, pwd_hash, salt_auth, email_verification_token, email_token_expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Pool.Exec(ctx, q,
		u.ID, u.Username, u.Email, u.PwdHash, u.SaltAuth,
		u.EmailVerificationToken, u.EmailTokenExpiresAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return scanUser(r.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

// GetByUsername selects a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return scanUser(r.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username))
}

// GetByEmail selects a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

// GetByVerificationToken selects a user by email verification token.
func (r *UserRepo) GetByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	return scanUser(r.db.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email_verification_token=$1`, token))
}

// GetByResetToken selects a user by password reset token.
func (r *UserRepo) GetByResetToken(ctx context.Context, token string) (*model.User, error) {
	return scanUser(r.db.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE password_reset_token=$1`, token))
}

// GetByPendingEmailToken selects a user by pending-email verification token.
func (r *UserRepo) GetByPendingEmailToken(ctx context.Context, token string) (*model.User, error) {
	return scanUser(r.db.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE pending_email_token=$1`, token))
}

// MarkEmailVerified sets email_verified and clears the verification token.
func (r *UserRepo) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	const q = `
UPDATE users
SET email_verified=true, email_verification_token='', email_token_expires_at=NULL, updated_at=now()
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SetVerificationToken replaces the email verification token and expiry.
func (r *UserRepo) SetVerificationToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	const q = `
UPDATE users SET email_verification_token=$2, email_token_expires_at=$3, updated_at=now()
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, token, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// UpdateProfile persists profile fields and pending-email state.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	const q = `
UPDATE users
SET username=$2, first_name=$3, last_name=$4, marvelcdb_profile=$5,
    pending_email=$6, pending_email_token=$7, pending_email_token_expires_at=$8,
    updated_at=now()
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q,
		u.ID, u.Username, u.FirstName, u.LastName, u.MarvelCDBProfile,
		u.PendingEmail, u.PendingEmailToken, u.PendingEmailTokenExpiresAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// CommitPendingEmail promotes the pending email to primary and clears the token.
func (r *UserRepo) CommitPendingEmail(ctx context.Context, id uuid.UUID) error {
	const q = `
UPDATE users
SET email=pending_email, email_verified=true,
    pending_email='', pending_email_token='', pending_email_token_expires_at=NULL,
    updated_at=now()
WHERE id=$1 AND pending_email <> ''`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SetResetToken stores a password reset token on the user.
func (r *UserRepo) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	const q = `
UPDATE users SET password_reset_token=$2, password_token_expires_at=$3, updated_at=now()
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, token, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the password hash/salt and clears any reset token.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, pwdHash, saltAuth []byte) error {
	const q = `
UPDATE users
SET pwd_hash=$2, salt_auth=$3, password_reset_token='', password_token_expires_at=NULL, updated_at=now()
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, pwdHash, saltAuth)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes the user row; collections, decks, and sessions cascade.
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
