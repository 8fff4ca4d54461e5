package repository

import (
	"context"

	"marvelcdc/internal/model"
)

// CatalogRepository is the read/write view of the card catalog: packs and
// card definitions synced from the MarvelCDB public API. Reads serve the
// conflict calculator and deck import; writes serve the cardsync command.
type CatalogRepository interface {
	// ListPacks returns all packs ordered by release date.
	ListPacks(ctx context.Context) ([]model.Pack, error)
	// GetPack loads a single pack by code.
	GetPack(ctx context.Context, code string) (*model.Pack, error)
	// FindCardsByNames returns every card definition whose name is in names,
	// across all packs.
	FindCardsByNames(ctx context.Context, names []string) ([]model.CardDefinition, error)
	// FindCardsByCodes returns card definitions for the given codes.
	FindCardsByCodes(ctx context.Context, codes []string) ([]model.CardDefinition, error)

	// UpsertPack inserts or updates a pack by code.
	UpsertPack(ctx context.Context, p *model.Pack) error
	// UpsertCard inserts or updates a card definition by code.
	UpsertCard(ctx context.Context, c *model.CardDefinition) error
	// CountPacks returns the number of packs in the catalog.
	CountPacks(ctx context.Context) (int64, error)
	// CountCards returns the number of card definitions in the catalog.
	CountCards(ctx context.Context) (int64, error)
}
