package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gofrs/uuid/v5"

	"marvelcdc/internal/errs"
	"marvelcdc/internal/marvelcdb"
	"marvelcdc/internal/model"
	"marvelcdc/internal/repository"
)

// DecklistFetcher fetches published decklists from MarvelCDB.
type DecklistFetcher interface {
	Decklist(ctx context.Context, id int64) (*marvelcdb.Decklist, error)
}

// DeckResult is a deck mutation outcome together with the conflicts
// recomputed after the change.
type DeckResult struct {
	Deck      model.Deck             `json:"deck"`
	Conflicts []model.ConflictRecord `json:"conflicts"`
}

// DeckService manages imported decks. Every mutation recomputes and
// returns the user's conflicts so clients never work with stale state.
type DeckService interface {
	// List returns all decks of the user, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]model.Deck, error)
	// Import fetches a MarvelCDB decklist by its share URL and stores it
	// as an active deck.
	Import(ctx context.Context, userID uuid.UUID, deckURL string) (DeckResult, error)
	// SetActive toggles whether the deck counts toward demand.
	SetActive(ctx context.Context, userID, deckID uuid.UUID, isActive bool) (DeckResult, error)
	// Delete removes the deck and returns the remaining conflicts.
	Delete(ctx context.Context, userID, deckID uuid.UUID) ([]model.ConflictRecord, error)
}

// DeckServiceImpl implements DeckService.
type DeckServiceImpl struct {
	decks     repository.DeckRepository
	catalog   repository.CatalogRepository
	fetcher   DecklistFetcher
	conflicts ConflictService
}

// NewDeckService constructs a deck service.
func NewDeckService(
	decks repository.DeckRepository,
	catalog repository.CatalogRepository,
	fetcher DecklistFetcher,
	conflicts ConflictService,
) *DeckServiceImpl {
	return &DeckServiceImpl{decks: decks, catalog: catalog, fetcher: fetcher, conflicts: conflicts}
}

func (s *DeckServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]model.Deck, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty user id", errs.ErrValidation)
	}
	return s.decks.ListByUser(ctx, userID)
}

func (s *DeckServiceImpl) Import(ctx context.Context, userID uuid.UUID, deckURL string) (DeckResult, error) {
	if userID == uuid.Nil {
		return DeckResult{}, fmt.Errorf("%w: empty user id", errs.ErrValidation)
	}
	remoteID, err := marvelcdb.ParseDecklistURL(deckURL)
	if err != nil {
		return DeckResult{}, err
	}

	exists, err := s.decks.ExistsByRemoteID(ctx, userID, remoteID)
	if err != nil {
		return DeckResult{}, err
	}
	if exists {
		return DeckResult{}, fmt.Errorf("%w: deck already imported", errs.ErrAlreadyExists)
	}

	list, err := s.fetcher.Decklist(ctx, remoteID)
	if err != nil {
		if errors.Is(err, marvelcdb.ErrPrivateDeck) {
			return DeckResult{}, fmt.Errorf("%w: decklist is private or does not exist", errs.ErrValidation)
		}
		return DeckResult{}, err
	}

	cards, err := s.requirementsFromSlots(ctx, list.Slots)
	if err != nil {
		return DeckResult{}, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return DeckResult{}, err
	}
	heroCode, heroName := list.Hero()
	deck := model.Deck{
		ID:          id,
		UserID:      userID,
		MarvelCDBID: remoteID,
		Name:        list.Name,
		HeroCode:    heroCode,
		HeroName:    heroName,
		DeckURL:     deckURL,
		IsActive:    true,
		Cards:       cards,
	}
	if err := s.decks.Create(ctx, &deck); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return DeckResult{}, fmt.Errorf("%w: deck already imported", errs.ErrAlreadyExists)
		}
		return DeckResult{}, err
	}

	stored, err := s.decks.GetByIDAndUser(ctx, deck.ID, userID)
	if err != nil {
		return DeckResult{}, err
	}
	conflicts, err := s.conflicts.Calculate(ctx, userID)
	if err != nil {
		return DeckResult{}, err
	}
	return DeckResult{Deck: *stored, Conflicts: conflicts}, nil
}

// requirementsFromSlots resolves decklist slots against the local catalog.
// Codes missing from the catalog are dropped; the sync job may simply not
// have seen their pack yet.
func (s *DeckServiceImpl) requirementsFromSlots(ctx context.Context, slots map[string]int) ([]model.DeckCardRequirement, error) {
	if len(slots) == 0 {
		return nil, fmt.Errorf("%w: decklist has no cards", errs.ErrValidation)
	}
	codes := make([]string, 0, len(slots))
	for code, qty := range slots {
		if qty > 0 {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	defs, err := s.catalog.FindCardsByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]model.CardDefinition, len(defs))
	for _, d := range defs {
		byCode[d.Code] = d
	}

	reqs := make([]model.DeckCardRequirement, 0, len(codes))
	for _, code := range codes {
		def, ok := byCode[code]
		if !ok {
			continue
		}
		reqs = append(reqs, model.DeckCardRequirement{
			CardCode: code,
			CardName: def.Name,
			Quantity: slots[code],
			CardType: def.CardType,
			PackCode: def.PackCode,
		})
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: none of the decklist cards are known, run a catalog sync first", errs.ErrValidation)
	}
	return reqs, nil
}

func (s *DeckServiceImpl) SetActive(ctx context.Context, userID, deckID uuid.UUID, isActive bool) (DeckResult, error) {
	if userID == uuid.Nil || deckID == uuid.Nil {
		return DeckResult{}, fmt.Errorf("%w: empty id", errs.ErrValidation)
	}
	deck, err := s.decks.GetByIDAndUser(ctx, deckID, userID)
	if err != nil {
		return DeckResult{}, err
	}
	if deck.IsActive != isActive {
		if err := s.decks.SetActiveFlags(ctx, []uuid.UUID{deckID}, isActive); err != nil {
			return DeckResult{}, err
		}
		deck.IsActive = isActive
	}
	conflicts, err := s.conflicts.Calculate(ctx, userID)
	if err != nil {
		return DeckResult{}, err
	}
	return DeckResult{Deck: *deck, Conflicts: conflicts}, nil
}

func (s *DeckServiceImpl) Delete(ctx context.Context, userID, deckID uuid.UUID) ([]model.ConflictRecord, error) {
	if userID == uuid.Nil || deckID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty id", errs.ErrValidation)
	}
	if _, err := s.decks.GetByIDAndUser(ctx, deckID, userID); err != nil {
		return nil, err
	}
	if err := s.decks.Delete(ctx, deckID); err != nil {
		return nil, err
	}
	return s.conflicts.Calculate(ctx, userID)
}
