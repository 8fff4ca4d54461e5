package service

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"marvelcdc/internal/errs"
	"marvelcdc/internal/limiter"
	"marvelcdc/internal/mailer"
	"marvelcdc/internal/marvelcdb"
	"marvelcdc/internal/model"
	"marvelcdc/internal/repository"
)

// In-memory fakes shared across the service tests. Error fields inject
// failures; call counters verify interaction.

type fakeUsers struct {
	byID map[uuid.UUID]*model.User

	createErr error
	getErr    error
	updateErr error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{byID: map[uuid.UUID]*model.User{}}
	for _, u := range users {
		cpy := *u
		f.byID[u.ID] = &cpy
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, have := range f.byID {
		if have.Username == u.Username || have.Email == u.Email {
			return errs.ErrAlreadyExists
		}
	}
	cpy := *u
	f.byID[u.ID] = &cpy
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) find(match func(*model.User) bool) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Username == username })
}
func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Email == email })
}
func (f *fakeUsers) GetByVerificationToken(_ context.Context, token string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return token != "" && u.EmailVerificationToken == token })
}
func (f *fakeUsers) GetByResetToken(_ context.Context, token string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return token != "" && u.PasswordResetToken == token })
}
func (f *fakeUsers) GetByPendingEmailToken(_ context.Context, token string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return token != "" && u.PendingEmailToken == token })
}

func (f *fakeUsers) MarkEmailVerified(_ context.Context, id uuid.UUID) error {
	u, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.EmailVerified = true
	u.EmailVerificationToken = ""
	u.EmailTokenExpiresAt = nil
	return nil
}

func (f *fakeUsers) SetVerificationToken(_ context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	u, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.EmailVerificationToken = token
	u.EmailTokenExpiresAt = &expiresAt
	return nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, u *model.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	have, ok := f.byID[u.ID]
	if !ok {
		return errs.ErrNotFound
	}
	for id, other := range f.byID {
		if id != u.ID && (other.Username == u.Username || other.Email == u.Email) {
			return errs.ErrAlreadyExists
		}
	}
	*have = *u
	return nil
}

func (f *fakeUsers) CommitPendingEmail(_ context.Context, id uuid.UUID) error {
	u, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.Email = u.PendingEmail
	u.PendingEmail = ""
	u.PendingEmailToken = ""
	u.PendingEmailTokenExpiresAt = nil
	return nil
}

func (f *fakeUsers) SetResetToken(_ context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	u, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.PasswordResetToken = token
	u.PasswordTokenExpiresAt = &expiresAt
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uuid.UUID, pwdHash, saltAuth []byte) error {
	u, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.PwdHash = append([]byte(nil), pwdHash...)
	u.SaltAuth = append([]byte(nil), saltAuth...)
	u.PasswordResetToken = ""
	u.PasswordTokenExpiresAt = nil
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeSessions struct {
	byID map[string]*model.Session

	createErr error
}

var _ repository.SessionRepository = (*fakeSessions)(nil)

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byID: map[string]*model.Session{}}
}

func (f *fakeSessions) Create(_ context.Context, s *model.Session) error {
	if f.createErr != nil {
		return f.createErr
	}
	c := *s
	f.byID[s.ID] = &c
	return nil
}

func (f *fakeSessions) Get(_ context.Context, id string) (*model.Session, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeSessions) DeleteAllForUser(_ context.Context, userID uuid.UUID) error {
	for id, s := range f.byID {
		if s.UserID == userID {
			delete(f.byID, id)
		}
	}
	return nil
}

func (f *fakeSessions) DeleteExpired(_ context.Context) (int64, error) {
	var n int64
	now := time.Now()
	for id, s := range f.byID {
		if s.Expired(now) {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeSessions) countForUser(userID uuid.UUID) int {
	n := 0
	for _, s := range f.byID {
		if s.UserID == userID {
			n++
		}
	}
	return n
}

type fakeCollection struct {
	byUser map[uuid.UUID]map[string]int
	names  map[string]string // pack code -> display name

	listErr   error
	upsertErr error
}

var _ repository.CollectionRepository = (*fakeCollection)(nil)

func newFakeCollection() *fakeCollection {
	return &fakeCollection{byUser: map[uuid.UUID]map[string]int{}, names: map[string]string{}}
}

func (f *fakeCollection) set(userID uuid.UUID, packCode string, qty int) {
	if f.byUser[userID] == nil {
		f.byUser[userID] = map[string]int{}
	}
	f.byUser[userID][packCode] = qty
}

func (f *fakeCollection) ListByUser(_ context.Context, userID uuid.UUID) ([]model.CollectionEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.CollectionEntry
	for code, qty := range f.byUser[userID] {
		out = append(out, model.CollectionEntry{
			UserID: userID, PackCode: code, PackName: f.names[code], Quantity: qty,
		})
	}
	return out, nil
}

func (f *fakeCollection) Upsert(_ context.Context, userID uuid.UUID, packCode string, quantity int) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.set(userID, packCode, quantity)
	return nil
}

func (f *fakeCollection) DeleteEntry(_ context.Context, userID uuid.UUID, packCode string) error {
	delete(f.byUser[userID], packCode)
	return nil
}

type fakeCatalog struct {
	packs map[string]model.Pack
	cards []model.CardDefinition
}

var _ repository.CatalogRepository = (*fakeCatalog)(nil)

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{packs: map[string]model.Pack{}}
}

func (f *fakeCatalog) addPack(code, name string) {
	f.packs[code] = model.Pack{Code: code, Name: name}
}

func (f *fakeCatalog) addCard(code, name, packCode string, copies int) {
	f.cards = append(f.cards, model.CardDefinition{
		Code: code, Name: name, PackCode: packCode, CopiesPerPack: copies,
	})
}

func (f *fakeCatalog) ListPacks(context.Context) ([]model.Pack, error) {
	var out []model.Pack
	for _, p := range f.packs {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeCatalog) GetPack(_ context.Context, code string) (*model.Pack, error) {
	p, ok := f.packs[code]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &p, nil
}

func (f *fakeCatalog) FindCardsByNames(_ context.Context, names []string) ([]model.CardDefinition, error) {
	want := map[string]bool{}
	for _, n := range names {
		want[n] = true
	}
	var out []model.CardDefinition
	for _, c := range f.cards {
		if want[c.Name] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCatalog) FindCardsByCodes(_ context.Context, codes []string) ([]model.CardDefinition, error) {
	want := map[string]bool{}
	for _, c := range codes {
		want[c] = true
	}
	var out []model.CardDefinition
	for _, c := range f.cards {
		if want[c.Code] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCatalog) UpsertPack(_ context.Context, p *model.Pack) error {
	f.packs[p.Code] = *p
	return nil
}

func (f *fakeCatalog) UpsertCard(_ context.Context, c *model.CardDefinition) error {
	for i := range f.cards {
		if f.cards[i].Code == c.Code {
			f.cards[i] = *c
			return nil
		}
	}
	f.cards = append(f.cards, *c)
	return nil
}

func (f *fakeCatalog) CountPacks(context.Context) (int64, error) { return int64(len(f.packs)), nil }
func (f *fakeCatalog) CountCards(context.Context) (int64, error) { return int64(len(f.cards)), nil }

type fakeDecks struct {
	decks []*model.Deck // insertion order preserved

	createErr    error
	setActiveErr error

	setActiveCalls int
}

var _ repository.DeckRepository = (*fakeDecks)(nil)

func newFakeDecks(decks ...*model.Deck) *fakeDecks {
	f := &fakeDecks{}
	for _, d := range decks {
		c := *d
		f.decks = append(f.decks, &c)
	}
	return f
}

func (f *fakeDecks) get(id uuid.UUID) *model.Deck {
	for _, d := range f.decks {
		if d.ID == id {
			return d
		}
	}
	return nil
}

func (f *fakeDecks) Create(_ context.Context, d *model.Deck) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, have := range f.decks {
		if have.UserID == d.UserID && have.MarvelCDBID == d.MarvelCDBID {
			return errs.ErrAlreadyExists
		}
	}
	c := *d
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	f.decks = append(f.decks, &c)
	return nil
}

func (f *fakeDecks) list(userID uuid.UUID, activeOnly bool) []model.Deck {
	var out []model.Deck
	for _, d := range f.decks {
		if d.UserID != userID {
			continue
		}
		if activeOnly && !d.IsActive {
			continue
		}
		out = append(out, *d)
	}
	return out
}

func (f *fakeDecks) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Deck, error) {
	return f.list(userID, false), nil
}

func (f *fakeDecks) ListActiveByUser(_ context.Context, userID uuid.UUID) ([]model.Deck, error) {
	return f.list(userID, true), nil
}

func (f *fakeDecks) GetByIDAndUser(_ context.Context, id, userID uuid.UUID) (*model.Deck, error) {
	d := f.get(id)
	if d == nil || d.UserID != userID {
		return nil, errs.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (f *fakeDecks) GetIDsByIDsAndUser(_ context.Context, ids []uuid.UUID, userID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, id := range ids {
		if d := f.get(id); d != nil && d.UserID == userID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeDecks) ExistsByRemoteID(_ context.Context, userID uuid.UUID, marvelcdbID int64) (bool, error) {
	for _, d := range f.decks {
		if d.UserID == userID && d.MarvelCDBID == marvelcdbID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDecks) SetActiveFlags(_ context.Context, ids []uuid.UUID, isActive bool) error {
	f.setActiveCalls++
	if f.setActiveErr != nil {
		return f.setActiveErr
	}
	for _, id := range ids {
		if d := f.get(id); d != nil {
			d.IsActive = isActive
		}
	}
	return nil
}

func (f *fakeDecks) Delete(_ context.Context, id uuid.UUID) error {
	for i, d := range f.decks {
		if d.ID == id {
			f.decks = append(f.decks[:i], f.decks[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successCalls int
	failureCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return nil
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

type fakeMailer struct {
	sent    []mailer.Email
	sendErr error
}

var _ mailer.Mailer = (*fakeMailer)(nil)

func (m *fakeMailer) Send(_ context.Context, e mailer.Email) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, e)
	return nil
}

type fakeFetcher struct {
	decklist *marvelcdb.Decklist
	err      error
}

var _ DecklistFetcher = (*fakeFetcher)(nil)

func (f *fakeFetcher) Decklist(context.Context, int64) (*marvelcdb.Decklist, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.decklist, nil
}
