// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Pack is a purchasable product bundling a fixed set of cards.
// Immutable reference data, synced from the MarvelCDB public API.
type Pack struct {
	Code     string
	Name     string
	Type     string // core, hero, campaign, scenario, other
	Released time.Time
	Position int
}

// CardDefinition is a specific printing of a card within one pack.
// The name is NOT unique: reprints of the same card appear in several
// packs, possibly with different per-pack copy counts.
type CardDefinition struct {
	Code          string
	Name          string
	PackCode      string
	CardType      string
	Faction       string
	Cost          *int
	Traits        string
	CopiesPerPack int // physical copies bundled in one purchased pack, >= 1
}

// CollectionEntry records how many copies of a pack a user owns.
// A quantity of 0 is equivalent to absence of the entry.
type CollectionEntry struct {
	UserID   uuid.UUID
	PackCode string
	PackName string // denormalized for display, loaded with the entry
	Quantity int
}

// Deck is an imported decklist owned by one user. Its requirement rows are
// fixed at import time and never re-synced from MarvelCDB.
type Deck struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	MarvelCDBID int64
	Name        string
	HeroCode    string
	HeroName    string
	DeckURL     string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Cards       []DeckCardRequirement
}

// DeckCardRequirement is one card-quantity requirement of a deck, with
// name/type/pack denormalized from the catalog at import time.
type DeckCardRequirement struct {
	ID       int64
	DeckID   uuid.UUID
	CardCode string
	CardName string
	Quantity int
	CardType string
	PackCode string
}

// PackDetail reports a single pack's non-zero contribution to owned supply
// of a card name.
type PackDetail struct {
	PackCode      string `json:"packCode"`
	PackName      string `json:"packName"`
	CardsFromPack int    `json:"cardsFromPack"`
	PacksOwned    int    `json:"packsOwned"`
	CardsPerPack  int    `json:"cardsPerPack"`
}

// PrintingRef identifies one printing of a card name.
type PrintingRef struct {
	PackCode string `json:"packCode"`
	CardCode string `json:"cardCode"`
}

// ConflictRecord is emitted for a card name whose aggregate demand across
// active decks exceeds the user's aggregate owned supply of that name.
type ConflictRecord struct {
	CardName         string        `json:"cardName"`
	CardCodes        []string      `json:"cardCodes"`
	TotalNeeded      int           `json:"totalNeeded"`
	TotalOwned       int           `json:"totalOwned"`
	ConflictQuantity int           `json:"conflictQuantity"`
	ConflictingDecks []string      `json:"conflictingDecks"`
	PackDetails      []PackDetail  `json:"packDetails"`
	AvailableInPacks []PrintingRef `json:"availableInPacks"`
}

// Resolution is the outcome of deactivating decks to resolve conflicts.
type Resolution struct {
	DeactivatedDecks   []uuid.UUID      `json:"deactivatedDecks"`
	RemainingConflicts []ConflictRecord `json:"remainingConflicts"`
}

// User represents an account. Passwords are stored as Argon2id hashes with
// a per-user salt; verification and reset tokens live directly on the row.
type User struct {
	ID       uuid.UUID
	Username string
	Email    string
	PwdHash  []byte
	SaltAuth []byte

	EmailVerified          bool
	EmailVerificationToken string
	EmailTokenExpiresAt    *time.Time

	PasswordResetToken     string
	PasswordTokenExpiresAt *time.Time

	PendingEmail               string
	PendingEmailToken          string
	PendingEmailTokenExpiresAt *time.Time

	FirstName        string
	LastName         string
	MarvelCDBProfile string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session is a server-side login session referenced by the sid claim of the
// session cookie JWT, so resets and account deletion can revoke it.
type Session struct {
	ID        string
	UserID    uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool { return s.ExpiresAt.Before(now) }
