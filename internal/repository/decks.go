package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"marvelcdc/internal/model"
)

// DeckRepository stores imported decks and their card requirements.
// Requirement rows are written once at import and only read afterwards.
type DeckRepository interface {
	// Create inserts a deck and its requirement rows in one transaction.
	Create(ctx context.Context, d *model.Deck) error
	// ListByUser returns the user's decks with requirement rows, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Deck, error)
	// ListActiveByUser returns the user's active decks with requirement rows.
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]model.Deck, error)
	// GetByIDAndUser loads one deck (with requirements) owned by the user.
	GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*model.Deck, error)
	// GetIDsByIDsAndUser returns the subset of ids that belong to the user.
	GetIDsByIDsAndUser(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) ([]uuid.UUID, error)
	// ExistsByRemoteID reports whether the user already imported this decklist.
	ExistsByRemoteID(ctx context.Context, userID uuid.UUID, marvelcdbID int64) (bool, error)
	// SetActiveFlags updates is_active on all given decks in a single batch.
	SetActiveFlags(ctx context.Context, ids []uuid.UUID, isActive bool) error
	// Delete removes a deck; requirement rows cascade in storage.
	Delete(ctx context.Context, id uuid.UUID) error
}
