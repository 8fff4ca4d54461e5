// Package service contains application services: the conflict engine,
// collection and deck management, authentication, and profiles.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"marvelcdc/internal/errs"
	"marvelcdc/internal/model"
	"marvelcdc/internal/repository"
)

// ConflictService computes which card names are under-owned across a user's
// active decks, and resolves conflicts by deactivating decks.
type ConflictService interface {
	// Calculate returns the user's current conflict list. Read-only.
	Calculate(ctx context.Context, userID uuid.UUID) ([]model.ConflictRecord, error)
	// Resolve deactivates the given decks (all-or-nothing ownership check)
	// and returns the recomputed conflict list.
	Resolve(ctx context.Context, userID uuid.UUID, deckIDs []uuid.UUID) (model.Resolution, error)
}

type ConflictServiceImpl struct {
	users      repository.UserRepository
	collection repository.CollectionRepository
	decks      repository.DeckRepository
	catalog    repository.CatalogRepository
}

// NewConflictService constructs ConflictService over the three read models
// plus the user store for existence checks.
func NewConflictService(
	users repository.UserRepository,
	collection repository.CollectionRepository,
	decks repository.DeckRepository,
	catalog repository.CatalogRepository,
) *ConflictServiceImpl {
	return &ConflictServiceImpl{users: users, collection: collection, decks: decks, catalog: catalog}
}

// demand accumulates per-card-name requirements across active decks.
// deckNames and cardCodes keep first-seen order, deduplicated.
type demand struct {
	totalNeeded int
	deckNames   []string
	cardCodes   []string
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

// Calculate aggregates demand by card name across all active decks, resolves
// owned supply across every printing of each name, and reports names whose
// demand strictly exceeds supply. Supply of a name is the sum over its
// printings of packsOwned × copiesPerPack; a printing whose pack is unowned
// contributes zero. Output follows the first-seen order of card names.
func (s *ConflictServiceImpl) Calculate(ctx context.Context, userID uuid.UUID) ([]model.ConflictRecord, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID", errs.ErrValidation)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	entries, err := s.collection.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load collection: %w", err)
	}
	activeDecks, err := s.decks.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load active decks: %w", err)
	}

	// Demand, grouped by card name: a deck references one printing, but any
	// owned printing of the same name counts toward satisfying it.
	usage := make(map[string]*demand)
	var names []string
	for _, deck := range activeDecks {
		for _, req := range deck.Cards {
			d, ok := usage[req.CardName]
			if !ok {
				d = &demand{}
				usage[req.CardName] = d
				names = append(names, req.CardName)
			}
			d.totalNeeded += req.Quantity
			d.deckNames = appendUnique(d.deckNames, deck.Name)
			d.cardCodes = appendUnique(d.cardCodes, req.CardCode)
		}
	}
	if len(names) == 0 {
		return []model.ConflictRecord{}, nil
	}

	// Supply: every printing of each demanded name, across all packs, not
	// just the codes the decks referenced.
	defs, err := s.catalog.FindCardsByNames(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	printings := make(map[string][]model.CardDefinition, len(names))
	for _, def := range defs {
		printings[def.Name] = append(printings[def.Name], def)
	}
	owned := make(map[string]model.CollectionEntry, len(entries))
	for _, e := range entries {
		owned[e.PackCode] = e
	}

	conflicts := []model.ConflictRecord{}
	for _, name := range names {
		d := usage[name]

		totalOwned := 0
		var details []model.PackDetail
		var available []model.PrintingRef
		for _, def := range printings[name] {
			entry := owned[def.PackCode] // zero value when unowned
			fromPack := entry.Quantity * def.CopiesPerPack
			totalOwned += fromPack
			if fromPack > 0 {
				details = append(details, model.PackDetail{
					PackCode:      def.PackCode,
					PackName:      entry.PackName,
					CardsFromPack: fromPack,
					PacksOwned:    entry.Quantity,
					CardsPerPack:  def.CopiesPerPack,
				})
			}
			available = append(available, model.PrintingRef{PackCode: def.PackCode, CardCode: def.Code})
		}

		if d.totalNeeded > totalOwned {
			conflicts = append(conflicts, model.ConflictRecord{
				CardName:         name,
				CardCodes:        d.cardCodes,
				TotalNeeded:      d.totalNeeded,
				TotalOwned:       totalOwned,
				ConflictQuantity: d.totalNeeded - totalOwned,
				ConflictingDecks: d.deckNames,
				PackDetails:      details,
				AvailableInPacks: available,
			})
		}
	}
	return conflicts, nil
}

// Resolve validates that every requested deck belongs to the user, then
// deactivates all of them in one batch and recomputes conflicts. Either all
// requested decks are confirmed owned or none are touched.
func (s *ConflictServiceImpl) Resolve(ctx context.Context, userID uuid.UUID, deckIDs []uuid.UUID) (model.Resolution, error) {
	if userID == uuid.Nil {
		return model.Resolution{}, fmt.Errorf("%w: empty userID", errs.ErrValidation)
	}

	// Dedupe while keeping request order; duplicated ids are not an
	// ownership failure.
	seen := make(map[uuid.UUID]struct{}, len(deckIDs))
	ids := make([]uuid.UUID, 0, len(deckIDs))
	for _, id := range deckIDs {
		if id == uuid.Nil {
			return model.Resolution{}, fmt.Errorf("%w: empty deck id", errs.ErrValidation)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if len(ids) > 0 {
		ownedIDs, err := s.decks.GetIDsByIDsAndUser(ctx, ids, userID)
		if err != nil {
			return model.Resolution{}, fmt.Errorf("verify deck ownership: %w", err)
		}
		if len(ownedIDs) != len(ids) {
			return model.Resolution{}, fmt.Errorf("%w: some decks not found or do not belong to user", errs.ErrValidation)
		}
		if err := s.decks.SetActiveFlags(ctx, ids, false); err != nil {
			return model.Resolution{}, fmt.Errorf("deactivate decks: %w", err)
		}
	}

	remaining, err := s.Calculate(ctx, userID)
	if err != nil {
		return model.Resolution{}, err
	}
	return model.Resolution{DeactivatedDecks: ids, RemainingConflicts: remaining}, nil
}
