package httpapi

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"marvelcdc/internal/errs"
	"marvelcdc/internal/limiter"
	"marvelcdc/internal/model"
	"marvelcdc/internal/repository"
	"marvelcdc/internal/service"
)

// Handler-level stubs. Each method delegates to an optional func field and
// falls back to an inert default, so tests only wire what they assert on.

type stubAuth struct {
	register     func(ctx context.Context, username, email, password string) (*model.User, error)
	login        func(ctx context.Context, username, password, ip string) (service.AuthResult, error)
	authenticate func(ctx context.Context, token string) (*model.Session, error)
	logout       func(ctx context.Context, sessionID string) error
	verifyEmail  func(ctx context.Context, token string) (service.AuthResult, error)

	logoutCalls int
}

var _ service.AuthService = (*stubAuth)(nil)

func (a *stubAuth) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	if a.register != nil {
		return a.register(ctx, username, email, password)
	}
	return nil, errs.ErrValidation
}

func (a *stubAuth) Login(ctx context.Context, username, password, ip string) (service.AuthResult, error) {
	if a.login != nil {
		return a.login(ctx, username, password, ip)
	}
	return service.AuthResult{}, errs.ErrUnauthorized
}

func (a *stubAuth) Logout(ctx context.Context, sessionID string) error {
	a.logoutCalls++
	if a.logout != nil {
		return a.logout(ctx, sessionID)
	}
	return nil
}

func (a *stubAuth) Authenticate(ctx context.Context, token string) (*model.Session, error) {
	if a.authenticate != nil {
		return a.authenticate(ctx, token)
	}
	return nil, errs.ErrUnauthorized
}

func (a *stubAuth) VerifyEmail(ctx context.Context, token string) (service.AuthResult, error) {
	if a.verifyEmail != nil {
		return a.verifyEmail(ctx, token)
	}
	return service.AuthResult{}, errs.ErrValidation
}

func (a *stubAuth) ResendVerification(context.Context, string) error { return nil }
func (a *stubAuth) ForgotPassword(context.Context, string) error     { return nil }

func (a *stubAuth) ResetPassword(context.Context, string, string) (service.AuthResult, error) {
	return service.AuthResult{}, errs.ErrValidation
}

type stubProfile struct {
	get func(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

var _ service.ProfileService = (*stubProfile)(nil)

func (p *stubProfile) Get(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	if p.get != nil {
		return p.get(ctx, userID)
	}
	return nil, errs.ErrNotFound
}

func (p *stubProfile) Update(context.Context, uuid.UUID, service.ProfileUpdate) (*model.User, error) {
	return nil, errs.ErrNotFound
}

func (p *stubProfile) VerifyEmailChange(context.Context, string) (*model.User, error) {
	return nil, errs.ErrValidation
}

func (p *stubProfile) ResendEmailChange(context.Context, uuid.UUID) error { return nil }
func (p *stubProfile) DeleteAccount(context.Context, uuid.UUID, string) error {
	return errs.ErrUnauthorized
}

type stubCollection struct {
	update func(ctx context.Context, userID uuid.UUID, updates []service.CollectionUpdate) (service.CollectionResult, error)
}

var _ service.CollectionService = (*stubCollection)(nil)

func (c *stubCollection) List(context.Context, uuid.UUID) ([]model.CollectionEntry, error) {
	return []model.CollectionEntry{}, nil
}

func (c *stubCollection) Update(ctx context.Context, userID uuid.UUID, updates []service.CollectionUpdate) (service.CollectionResult, error) {
	if c.update != nil {
		return c.update(ctx, userID, updates)
	}
	return service.CollectionResult{}, errs.ErrValidation
}

type stubDecks struct {
	list func(ctx context.Context, userID uuid.UUID) ([]model.Deck, error)
}

var _ service.DeckService = (*stubDecks)(nil)

func (d *stubDecks) List(ctx context.Context, userID uuid.UUID) ([]model.Deck, error) {
	if d.list != nil {
		return d.list(ctx, userID)
	}
	return []model.Deck{}, nil
}

func (d *stubDecks) Import(context.Context, uuid.UUID, string) (service.DeckResult, error) {
	return service.DeckResult{}, errs.ErrValidation
}

func (d *stubDecks) SetActive(context.Context, uuid.UUID, uuid.UUID, bool) (service.DeckResult, error) {
	return service.DeckResult{}, errs.ErrNotFound
}

func (d *stubDecks) Delete(context.Context, uuid.UUID, uuid.UUID) ([]model.ConflictRecord, error) {
	return nil, errs.ErrNotFound
}

type stubConflicts struct {
	resolve func(ctx context.Context, userID uuid.UUID, deckIDs []uuid.UUID) (model.Resolution, error)
}

var _ service.ConflictService = (*stubConflicts)(nil)

func (c *stubConflicts) Calculate(context.Context, uuid.UUID) ([]model.ConflictRecord, error) {
	return []model.ConflictRecord{}, nil
}

func (c *stubConflicts) Resolve(ctx context.Context, userID uuid.UUID, deckIDs []uuid.UUID) (model.Resolution, error) {
	if c.resolve != nil {
		return c.resolve(ctx, userID, deckIDs)
	}
	return model.Resolution{}, nil
}

type stubCatalog struct {
	packs []model.Pack
}

var _ repository.CatalogRepository = (*stubCatalog)(nil)

func (c *stubCatalog) ListPacks(context.Context) ([]model.Pack, error) { return c.packs, nil }
func (c *stubCatalog) GetPack(context.Context, string) (*model.Pack, error) {
	return nil, errs.ErrNotFound
}
func (c *stubCatalog) FindCardsByNames(context.Context, []string) ([]model.CardDefinition, error) {
	return nil, nil
}
func (c *stubCatalog) FindCardsByCodes(context.Context, []string) ([]model.CardDefinition, error) {
	return nil, nil
}
func (c *stubCatalog) UpsertPack(context.Context, *model.Pack) error        { return nil }
func (c *stubCatalog) UpsertCard(context.Context, *model.CardDefinition) error { return nil }
func (c *stubCatalog) CountPacks(context.Context) (int64, error)            { return 0, nil }
func (c *stubCatalog) CountCards(context.Context) (int64, error)            { return 0, nil }

type stubLimiter struct {
	allowOK    bool
	retryAfter time.Duration

	failureCalls int
}

var _ limiter.Limiter = (*stubLimiter)(nil)

func (l *stubLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	return l.allowOK, l.retryAfter, nil
}

func (l *stubLimiter) Success(context.Context, string, []byte) error { return nil }

func (l *stubLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return false, 0, nil
}

// testUserID is the account behind the "good-token" session cookie.
var testUserID = uuid.Must(uuid.FromString("7f9c24e5-2f0b-4a3e-9d16-6d3f0a2b4c8d"))

// newTestServer builds a Server over the given stubs, substituting inert
// defaults for nil fields. The returned auth stub accepts "good-token".
func newTestServer(opts Options) *Server {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Auth == nil {
		opts.Auth = &stubAuth{
			authenticate: func(_ context.Context, token string) (*model.Session, error) {
				if token == "good-token" {
					return &model.Session{ID: "sess-1", UserID: testUserID, ExpiresAt: time.Now().Add(time.Hour)}, nil
				}
				return nil, errs.ErrUnauthorized
			},
		}
	}
	if opts.Profile == nil {
		opts.Profile = &stubProfile{}
	}
	if opts.Collection == nil {
		opts.Collection = &stubCollection{}
	}
	if opts.Decks == nil {
		opts.Decks = &stubDecks{}
	}
	if opts.Conflicts == nil {
		opts.Conflicts = &stubConflicts{}
	}
	if opts.Catalog == nil {
		opts.Catalog = &stubCatalog{}
	}
	if opts.StrictLim == nil {
		opts.StrictLim = &stubLimiter{allowOK: true}
	}
	if opts.RelaxedLim == nil {
		opts.RelaxedLim = &stubLimiter{allowOK: true}
	}
	return NewServer(opts)
}
