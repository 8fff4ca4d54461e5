package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "marvelcdc/internal/crypto"
	"marvelcdc/internal/errs"
	"marvelcdc/internal/limiter"
	"marvelcdc/internal/mailer"
	"marvelcdc/internal/model"
	"marvelcdc/internal/repository"
)

// Token lifetimes for the email flows.
const (
	verifyTokenTTL = 24 * time.Hour
	resetTokenTTL  = time.Hour
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	// Passwords rejected regardless of composition rules.
	commonPasswords = map[string]struct{}{
		"password1": {}, "password123": {}, "qwerty123": {}, "abc123": {},
		"123456a": {}, "letmein1": {}, "welcome1": {}, "admin123": {},
	}
)

// AuthResult is a completed sign-in: the account plus a signed session
// token for the cookie.
type AuthResult struct {
	User      model.User
	Token     string
	ExpiresAt time.Time
}

// AuthService defines registration, login and the email-token flows.
type AuthService interface {
	// Register creates an unverified account and emails a verification link.
	Register(ctx context.Context, username, email, password string) (*model.User, error)
	// Login applies rate limiting and authenticates a verified account.
	Login(ctx context.Context, username, password, ip string) (AuthResult, error)
	// Logout revokes one session.
	Logout(ctx context.Context, sessionID string) error
	// Authenticate validates a session token and returns the session.
	Authenticate(ctx context.Context, token string) (*model.Session, error)

	// VerifyEmail consumes a verification token and signs the user in.
	VerifyEmail(ctx context.Context, token string) (AuthResult, error)
	// ResendVerification issues a fresh verification token for an
	// unverified account. Unknown emails succeed silently.
	ResendVerification(ctx context.Context, email string) error
	// ForgotPassword issues a reset token for a verified account.
	// Unknown and unverified emails succeed silently.
	ForgotPassword(ctx context.Context, email string) error
	// ResetPassword consumes a reset token, replaces the password,
	// revokes all sessions and signs the user in again.
	ResetPassword(ctx context.Context, token, newPassword string) (AuthResult, error)
}

type AuthServiceImpl struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	lim        limiter.Limiter
	mail       mailer.Mailer
	signKey    []byte
	sessionTTL time.Duration
	baseURL    string
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	lim limiter.Limiter,
	mail mailer.Mailer,
	signKey []byte,
	sessionTTL time.Duration,
	baseURL string,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		users:      users,
		sessions:   sessions,
		lim:        lim,
		mail:       mail,
		signKey:    signKey,
		sessionTTL: sessionTTL,
		baseURL:    baseURL,
	}
}

func validateUsername(username string) error {
	if len(username) < 3 || len(username) > 50 {
		return fmt.Errorf("%w: username must be 3-50 characters", errs.ErrValidation)
	}
	if !usernameRe.MatchString(username) {
		return fmt.Errorf("%w: username may contain only letters, digits, hyphens and underscores", errs.ErrValidation)
	}
	if strings.HasPrefix(username, "_") || strings.HasPrefix(username, "-") ||
		strings.HasSuffix(username, "_") || strings.HasSuffix(username, "-") {
		return fmt.Errorf("%w: username may not start or end with a hyphen or underscore", errs.ErrValidation)
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 320 || !emailRe.MatchString(email) {
		return fmt.Errorf("%w: invalid email address", errs.ErrValidation)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", errs.ErrValidation)
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			hasLetter = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("%w: password must contain at least one letter and one digit", errs.ErrValidation)
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		return fmt.Errorf("%w: password is too common", errs.ErrValidation)
	}
	return nil
}

// Register creates an unverified user record with a per-user salt.
func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	uid, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	saltAuth, err := pkgcrypto.RandBytes(16)
	if err != nil {
		return nil, err
	}
	verifyToken, err := pkgcrypto.RandomToken()
	if err != nil {
		return nil, err
	}
	tokenExp := time.Now().Add(verifyTokenTTL)

	u := &model.User{
		ID:                     uid,
		Username:               username,
		Email:                  email,
		PwdHash:                pkgcrypto.HashPassword([]byte(password), saltAuth),
		SaltAuth:               saltAuth,
		EmailVerificationToken: verifyToken,
		EmailTokenExpiresAt:    &tokenExp,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: username or email already taken", errs.ErrAlreadyExists)
		}
		return nil, err
	}

	// Delivery failures are recoverable through the resend endpoint.
	_ = s.mail.Send(ctx, mailer.VerificationEmail(u.Email, u.Username, s.baseURL, verifyToken))
	return u, nil
}

// Login authenticates with rate limiting by (username, ip).
func (s *AuthServiceImpl) Login(ctx context.Context, username, password, ip string) (AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return AuthResult{}, fmt.Errorf("%w: empty username or password", errs.ErrValidation)
	}

	ipHash := limiter.HashIP(ip)
	bucket := "login:" + username
	allowed, _, err := s.lim.Allow(ctx, bucket, ipHash)
	if err != nil {
		return AuthResult{}, err
	}
	if !allowed {
		return AuthResult{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), u.SaltAuth, u.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, bucket, ipHash); ferr == nil && blocked {
			return AuthResult{}, errs.ErrRateLimited
		}
		// hide whether the account exists
		return AuthResult{}, errs.ErrUnauthorized
	}
	if !u.EmailVerified {
		return AuthResult{}, fmt.Errorf("%w: email address not verified", errs.ErrUnauthorized)
	}

	_ = s.lim.Success(ctx, bucket, ipHash)
	_, _ = s.sessions.DeleteExpired(ctx)

	return s.startSession(ctx, u)
}

// startSession creates a session row and signs the cookie JWT whose sid
// claim points at it.
func (s *AuthServiceImpl) startSession(ctx context.Context, u *model.User) (AuthResult, error) {
	sid, err := pkgcrypto.RandomToken()
	if err != nil {
		return AuthResult{}, err
	}
	now := time.Now()
	exp := now.Add(s.sessionTTL)
	if err := s.sessions.Create(ctx, &model.Session{ID: sid, UserID: u.ID, ExpiresAt: exp}); err != nil {
		return AuthResult{}, err
	}

	claims := jwt.MapClaims{
		"sub": u.ID.String(),
		"sid": sid,
		"iat": jwt.NewNumericDate(now),
		"exp": jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: *u, Token: signed, ExpiresAt: exp}, nil
}

func (s *AuthServiceImpl) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

// Authenticate parses the cookie JWT and checks the referenced session row,
// so revoked logins fail even with a still-valid signature.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, token string) (*model.Session, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, errs.ErrUnauthorized
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errs.ErrUnauthorized
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return nil, errs.ErrUnauthorized
	}

	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return nil, errs.ErrUnauthorized
	}
	if sess.Expired(time.Now()) {
		_ = s.sessions.Delete(ctx, sid)
		return nil, errs.ErrUnauthorized
	}
	return sess, nil
}

// VerifyEmail activates the account behind the token and signs it in.
func (s *AuthServiceImpl) VerifyEmail(ctx context.Context, token string) (AuthResult, error) {
	if token == "" {
		return AuthResult{}, fmt.Errorf("%w: empty token", errs.ErrValidation)
	}
	u, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return AuthResult{}, fmt.Errorf("%w: invalid verification token", errs.ErrValidation)
		}
		return AuthResult{}, err
	}
	if u.EmailVerified {
		return AuthResult{}, fmt.Errorf("%w: email already verified", errs.ErrValidation)
	}
	if u.EmailTokenExpiresAt == nil || u.EmailTokenExpiresAt.Before(time.Now()) {
		return AuthResult{}, errs.ErrTokenExpired
	}

	if err := s.users.MarkEmailVerified(ctx, u.ID); err != nil {
		return AuthResult{}, err
	}
	u.EmailVerified = true
	u.EmailVerificationToken = ""
	u.EmailTokenExpiresAt = nil

	_ = s.mail.Send(ctx, mailer.WelcomeEmail(u.Email, u.Username, s.baseURL))
	return s.startSession(ctx, u)
}

func (s *AuthServiceImpl) ResendVerification(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return err
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil // do not reveal whether the address is registered
		}
		return err
	}
	if u.EmailVerified {
		return fmt.Errorf("%w: email already verified", errs.ErrValidation)
	}

	token, err := pkgcrypto.RandomToken()
	if err != nil {
		return err
	}
	if err := s.users.SetVerificationToken(ctx, u.ID, token, time.Now().Add(verifyTokenTTL)); err != nil {
		return err
	}
	return s.mail.Send(ctx, mailer.VerificationEmail(u.Email, u.Username, s.baseURL, token))
}

func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return err
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil // do not reveal whether the address is registered
		}
		return err
	}
	if !u.EmailVerified {
		return nil // resets go to verified addresses only
	}

	token, err := pkgcrypto.RandomToken()
	if err != nil {
		return err
	}
	if err := s.users.SetResetToken(ctx, u.ID, token, time.Now().Add(resetTokenTTL)); err != nil {
		return err
	}
	return s.mail.Send(ctx, mailer.PasswordResetEmail(u.Email, u.Username, s.baseURL, token))
}

// ResetPassword replaces the password behind the token and revokes every
// outstanding session before signing the user in again.
func (s *AuthServiceImpl) ResetPassword(ctx context.Context, token, newPassword string) (AuthResult, error) {
	if token == "" {
		return AuthResult{}, fmt.Errorf("%w: empty token", errs.ErrValidation)
	}
	if err := validatePassword(newPassword); err != nil {
		return AuthResult{}, err
	}

	u, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return AuthResult{}, fmt.Errorf("%w: invalid reset token", errs.ErrValidation)
		}
		return AuthResult{}, err
	}
	if u.PasswordTokenExpiresAt == nil || u.PasswordTokenExpiresAt.Before(time.Now()) {
		return AuthResult{}, errs.ErrTokenExpired
	}

	saltAuth, err := pkgcrypto.RandBytes(16)
	if err != nil {
		return AuthResult{}, err
	}
	pwdHash := pkgcrypto.HashPassword([]byte(newPassword), saltAuth)
	if err := s.users.UpdatePassword(ctx, u.ID, pwdHash, saltAuth); err != nil {
		return AuthResult{}, err
	}
	if err := s.sessions.DeleteAllForUser(ctx, u.ID); err != nil {
		return AuthResult{}, err
	}
	u.PwdHash = pwdHash
	u.SaltAuth = saltAuth
	u.PasswordResetToken = ""
	u.PasswordTokenExpiresAt = nil

	_ = s.mail.Send(ctx, mailer.PasswordChangedEmail(u.Email, u.Username))
	return s.startSession(ctx, u)
}
