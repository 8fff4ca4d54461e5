package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	pkgcrypto "marvelcdc/internal/crypto"
	"marvelcdc/internal/errs"
	"marvelcdc/internal/mailer"
	"marvelcdc/internal/model"
	"marvelcdc/internal/repository"
)

// ProfileUpdate carries the editable account fields. An Email differing
// from the current address starts the pending-email confirmation flow.
type ProfileUpdate struct {
	Username         string `json:"username"`
	Email            string `json:"email"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	MarvelCDBProfile string `json:"marvelcdbProfile"`
}

// ProfileService manages account settings for a signed-in user.
type ProfileService interface {
	// Get loads the account.
	Get(ctx context.Context, userID uuid.UUID) (*model.User, error)
	// Update applies profile changes. Email changes stay pending until the
	// new address confirms via the emailed token.
	Update(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*model.User, error)
	// VerifyEmailChange promotes the pending email behind the token.
	VerifyEmailChange(ctx context.Context, token string) (*model.User, error)
	// ResendEmailChange re-sends the pending-email confirmation.
	ResendEmailChange(ctx context.Context, userID uuid.UUID) error
	// DeleteAccount removes the account after a password check. Collection,
	// decks and sessions cascade in storage.
	DeleteAccount(ctx context.Context, userID uuid.UUID, password string) error
}

type ProfileServiceImpl struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	mail     mailer.Mailer
	baseURL  string
}

// NewProfileService constructs a profile service.
func NewProfileService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	mail mailer.Mailer,
	baseURL string,
) *ProfileServiceImpl {
	return &ProfileServiceImpl{users: users, sessions: sessions, mail: mail, baseURL: baseURL}
}

func (s *ProfileServiceImpl) Get(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty user id", errs.ErrValidation)
	}
	return s.users.GetByID(ctx, userID)
}

func validateProfileURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || !strings.Contains(u.Host, "marvelcdb.com") {
		return fmt.Errorf("%w: profile URL must point to marvelcdb.com", errs.ErrValidation)
	}
	return nil
}

func (s *ProfileServiceImpl) Update(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*model.User, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty user id", errs.ErrValidation)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	upd.Username = strings.TrimSpace(upd.Username)
	upd.Email = strings.ToLower(strings.TrimSpace(upd.Email))
	if err := validateUsername(upd.Username); err != nil {
		return nil, err
	}
	if err := validateEmail(upd.Email); err != nil {
		return nil, err
	}
	if err := validateProfileURL(upd.MarvelCDBProfile); err != nil {
		return nil, err
	}
	if len(upd.FirstName) > 100 || len(upd.LastName) > 100 {
		return nil, fmt.Errorf("%w: name too long", errs.ErrValidation)
	}

	u.Username = upd.Username
	u.FirstName = upd.FirstName
	u.LastName = upd.LastName
	u.MarvelCDBProfile = upd.MarvelCDBProfile

	var pendingToken string
	if upd.Email != u.Email {
		pendingToken, err = pkgcrypto.RandomToken()
		if err != nil {
			return nil, err
		}
		exp := time.Now().Add(verifyTokenTTL)
		u.PendingEmail = upd.Email
		u.PendingEmailToken = pendingToken
		u.PendingEmailTokenExpiresAt = &exp
	}

	if err := s.users.UpdateProfile(ctx, u); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: username or email already taken", errs.ErrAlreadyExists)
		}
		return nil, err
	}

	if pendingToken != "" {
		// Confirmation goes to the NEW address; the old one stays primary
		// until the token is used.
		_ = s.mail.Send(ctx, mailer.EmailChangeEmail(u.PendingEmail, u.Username, s.baseURL, pendingToken))
	}
	return u, nil
}

func (s *ProfileServiceImpl) VerifyEmailChange(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", errs.ErrValidation)
	}
	u, err := s.users.GetByPendingEmailToken(ctx, token)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid confirmation token", errs.ErrValidation)
		}
		return nil, err
	}
	if u.PendingEmailTokenExpiresAt == nil || u.PendingEmailTokenExpiresAt.Before(time.Now()) {
		return nil, errs.ErrTokenExpired
	}

	if err := s.users.CommitPendingEmail(ctx, u.ID); err != nil {
		return nil, err
	}
	u.Email = u.PendingEmail
	u.PendingEmail = ""
	u.PendingEmailToken = ""
	u.PendingEmailTokenExpiresAt = nil
	return u, nil
}

func (s *ProfileServiceImpl) ResendEmailChange(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("%w: empty user id", errs.ErrValidation)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.PendingEmail == "" {
		return fmt.Errorf("%w: no pending email change", errs.ErrValidation)
	}

	token, err := pkgcrypto.RandomToken()
	if err != nil {
		return err
	}
	exp := time.Now().Add(verifyTokenTTL)
	u.PendingEmailToken = token
	u.PendingEmailTokenExpiresAt = &exp
	if err := s.users.UpdateProfile(ctx, u); err != nil {
		return err
	}
	return s.mail.Send(ctx, mailer.EmailChangeEmail(u.PendingEmail, u.Username, s.baseURL, token))
}

func (s *ProfileServiceImpl) DeleteAccount(ctx context.Context, userID uuid.UUID, password string) error {
	if userID == uuid.Nil {
		return fmt.Errorf("%w: empty user id", errs.ErrValidation)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !pkgcrypto.VerifyPassword([]byte(password), u.SaltAuth, u.PwdHash) {
		return errs.ErrUnauthorized
	}

	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return err
	}
	return s.users.Delete(ctx, userID)
}
