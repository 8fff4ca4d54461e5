package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/gofrs/uuid/v5"

	"marvelcdc/internal/errs"
	"marvelcdc/internal/model"
)

// deckSeq gives each helper-built deck a distinct MarvelCDBID so fakeDecks'
// (user, marvelcdb_id) uniqueness check never collides; negative values stay
// clear of real remote IDs used by import tests.
var deckSeq atomic.Int64

func newDeck(userID uuid.UUID, name string, active bool, cards ...model.DeckCardRequirement) *model.Deck {
	return &model.Deck{
		ID:          uuid.Must(uuid.NewV4()),
		UserID:      userID,
		MarvelCDBID: -deckSeq.Add(1),
		Name:        name,
		IsActive:    active,
		Cards:       cards,
	}
}

// novaWorld builds a user owning 1 core set (1 Nova per pack) and 1
// expansion (2 Novas per pack), with two active decks wanting 2 Novas each.
// Demand 4 vs supply 3 leaves a conflict of 1.
func novaWorld(t *testing.T) (uuid.UUID, *fakeUsers, *fakeCollection, *fakeDecks, *fakeCatalog) {
	t.Helper()
	userID := uuid.Must(uuid.NewV4())
	users := newFakeUsers(&model.User{ID: userID, Username: "carol"})

	catalog := newFakeCatalog()
	catalog.addPack("core", "Core Set")
	catalog.addPack("exp1", "Expansion One")
	catalog.addCard("01001", "Nova", "core", 1)
	catalog.addCard("02001", "Nova", "exp1", 2)

	collection := newFakeCollection()
	collection.names["core"] = "Core Set"
	collection.names["exp1"] = "Expansion One"
	collection.set(userID, "core", 1)
	collection.set(userID, "exp1", 1)

	decks := newFakeDecks(
		newDeck(userID, "Deck One", true,
			model.DeckCardRequirement{CardCode: "01001", CardName: "Nova", Quantity: 2}),
		newDeck(userID, "Deck Two", true,
			model.DeckCardRequirement{CardCode: "02001", CardName: "Nova", Quantity: 2}),
	)
	return userID, users, collection, decks, catalog
}

func TestConflicts_Calculate_AggregatesByName(t *testing.T) {
	t.Parallel()
	userID, users, collection, decks, catalog := novaWorld(t)
	s := NewConflictService(users, collection, decks, catalog)

	got, err := s.Calculate(context.Background(), userID)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 conflict, got %d: %+v", len(got), got)
	}

	c := got[0]
	if c.CardName != "Nova" {
		t.Errorf("CardName = %q", c.CardName)
	}
	if c.TotalNeeded != 4 || c.TotalOwned != 3 || c.ConflictQuantity != 1 {
		t.Errorf("quantities = %d/%d/%d, want 4/3/1", c.TotalNeeded, c.TotalOwned, c.ConflictQuantity)
	}
	if len(c.ConflictingDecks) != 2 || c.ConflictingDecks[0] != "Deck One" || c.ConflictingDecks[1] != "Deck Two" {
		t.Errorf("ConflictingDecks = %v", c.ConflictingDecks)
	}
	if len(c.CardCodes) != 2 {
		t.Errorf("CardCodes = %v, want both referenced printings", c.CardCodes)
	}
	// Supply breakdown covers only owned packs; every printing is listed
	// as a purchase option.
	if len(c.PackDetails) != 2 {
		t.Fatalf("PackDetails = %+v", c.PackDetails)
	}
	for _, pd := range c.PackDetails {
		if pd.CardsFromPack != pd.PacksOwned*pd.CardsPerPack {
			t.Errorf("pack %s: %d != %d*%d", pd.PackCode, pd.CardsFromPack, pd.PacksOwned, pd.CardsPerPack)
		}
	}
	if len(c.AvailableInPacks) != 2 {
		t.Errorf("AvailableInPacks = %+v", c.AvailableInPacks)
	}
}

func TestConflicts_Calculate_StrictBoundary(t *testing.T) {
	t.Parallel()
	userID, users, collection, decks, catalog := novaWorld(t)
	// Bump supply to exactly match demand: 2 core + 1 exp1 = 4 owned.
	collection.set(userID, "core", 2)
	s := NewConflictService(users, collection, decks, catalog)

	got, err := s.Calculate(context.Background(), userID)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("needed == owned must not conflict, got %+v", got)
	}
	if got == nil {
		t.Fatalf("empty conflict list must be non-nil")
	}
}

func TestConflicts_Calculate_InactiveDecksIgnored(t *testing.T) {
	t.Parallel()
	userID, users, collection, decks, catalog := novaWorld(t)
	// Deactivate the second deck: demand drops to 2 vs supply 3.
	all, _ := decks.ListByUser(context.Background(), userID)
	_ = decks.SetActiveFlags(context.Background(), []uuid.UUID{all[1].ID}, false)

	s := NewConflictService(users, collection, decks, catalog)
	got, err := s.Calculate(context.Background(), userID)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("inactive deck still counted: %+v", got)
	}
}

func TestConflicts_Calculate_FirstSeenOrder(t *testing.T) {
	t.Parallel()
	userID := uuid.Must(uuid.NewV4())
	users := newFakeUsers(&model.User{ID: userID, Username: "carol"})
	catalog := newFakeCatalog()
	collection := newFakeCollection()

	// Nothing owned, two unknown-to-collection cards in deck order B, A.
	catalog.addPack("core", "Core Set")
	catalog.addCard("01002", "Beta", "core", 1)
	catalog.addCard("01003", "Alpha", "core", 1)
	decks := newFakeDecks(newDeck(userID, "Solo", true,
		model.DeckCardRequirement{CardCode: "01002", CardName: "Beta", Quantity: 1},
		model.DeckCardRequirement{CardCode: "01003", CardName: "Alpha", Quantity: 1},
	))

	s := NewConflictService(users, collection, decks, catalog)
	got, err := s.Calculate(context.Background(), userID)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(got) != 2 || got[0].CardName != "Beta" || got[1].CardName != "Alpha" {
		t.Fatalf("want first-seen order [Beta Alpha], got %+v", got)
	}
}

func TestConflicts_Calculate_UnknownCardName(t *testing.T) {
	t.Parallel()
	userID, users, collection, decks, catalog := novaWorld(t)
	// A deck row whose name no longer exists in the catalog.
	_ = decks.Create(context.Background(), newDeck(userID, "Deck Three", true,
		model.DeckCardRequirement{CardCode: "99999", CardName: "Ghost Card", Quantity: 1}))

	s := NewConflictService(users, collection, decks, catalog)
	got, err := s.Calculate(context.Background(), userID)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	var ghost *model.ConflictRecord
	for i := range got {
		if got[i].CardName == "Ghost Card" {
			ghost = &got[i]
		}
	}
	if ghost == nil {
		t.Fatalf("unknown name must conflict in full: %+v", got)
	}
	if ghost.TotalOwned != 0 || ghost.ConflictQuantity != 1 {
		t.Errorf("ghost quantities = %d owned / %d conflict, want 0/1", ghost.TotalOwned, ghost.ConflictQuantity)
	}
	if len(ghost.PackDetails) != 0 || len(ghost.AvailableInPacks) != 0 {
		t.Errorf("ghost must have no supply details: %+v", ghost)
	}
}

func TestConflicts_Calculate_Validation(t *testing.T) {
	t.Parallel()
	_, users, collection, decks, catalog := novaWorld(t)
	s := NewConflictService(users, collection, decks, catalog)

	if _, err := s.Calculate(context.Background(), uuid.Nil); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("nil user: want ErrValidation, got %v", err)
	}
	if _, err := s.Calculate(context.Background(), uuid.Must(uuid.NewV4())); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("missing user: want ErrNotFound, got %v", err)
	}
}

func TestConflicts_Calculate_NoActiveDecks(t *testing.T) {
	t.Parallel()
	userID := uuid.Must(uuid.NewV4())
	users := newFakeUsers(&model.User{ID: userID, Username: "dave"})
	s := NewConflictService(users, newFakeCollection(), newFakeDecks(), newFakeCatalog())

	got, err := s.Calculate(context.Background(), userID)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil list, got %#v", got)
	}
}

func TestConflicts_Resolve_DeactivatesAndRecomputes(t *testing.T) {
	t.Parallel()
	userID, users, collection, decks, catalog := novaWorld(t)
	s := NewConflictService(users, collection, decks, catalog)

	all, _ := decks.ListByUser(context.Background(), userID)
	res, err := s.Resolve(context.Background(), userID, []uuid.UUID{all[1].ID})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.DeactivatedDecks) != 1 || res.DeactivatedDecks[0] != all[1].ID {
		t.Errorf("DeactivatedDecks = %v", res.DeactivatedDecks)
	}
	if len(res.RemainingConflicts) != 0 {
		t.Errorf("conflict should be resolved, got %+v", res.RemainingConflicts)
	}
	if d, _ := decks.GetByIDAndUser(context.Background(), all[1].ID, userID); d.IsActive {
		t.Errorf("deck still active after resolve")
	}
}

func TestConflicts_Resolve_AllOrNothing(t *testing.T) {
	t.Parallel()
	userID, users, collection, decks, catalog := novaWorld(t)
	s := NewConflictService(users, collection, decks, catalog)

	all, _ := decks.ListByUser(context.Background(), userID)
	foreign := uuid.Must(uuid.NewV4())
	_, err := s.Resolve(context.Background(), userID, []uuid.UUID{all[0].ID, foreign})
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	if decks.setActiveCalls != 0 {
		t.Errorf("no deck may be deactivated when any id fails ownership")
	}
	if d, _ := decks.GetByIDAndUser(context.Background(), all[0].ID, userID); !d.IsActive {
		t.Errorf("owned deck was deactivated despite failed batch")
	}
}

func TestConflicts_Resolve_EmptyAndDuplicates(t *testing.T) {
	t.Parallel()
	userID, users, collection, decks, catalog := novaWorld(t)
	s := NewConflictService(users, collection, decks, catalog)

	// Empty id list: nothing deactivated, conflicts still recomputed.
	res, err := s.Resolve(context.Background(), userID, nil)
	if err != nil {
		t.Fatalf("Resolve empty: %v", err)
	}
	if len(res.DeactivatedDecks) != 0 || len(res.RemainingConflicts) != 1 {
		t.Fatalf("empty resolve: %+v", res)
	}
	if decks.setActiveCalls != 0 {
		t.Errorf("empty resolve must not touch decks")
	}

	// Duplicated ids collapse to one deactivation.
	all, _ := decks.ListByUser(context.Background(), userID)
	res, err = s.Resolve(context.Background(), userID, []uuid.UUID{all[0].ID, all[0].ID})
	if err != nil {
		t.Fatalf("Resolve duplicates: %v", err)
	}
	if len(res.DeactivatedDecks) != 1 {
		t.Errorf("DeactivatedDecks = %v, want deduplicated", res.DeactivatedDecks)
	}

	if _, err := s.Resolve(context.Background(), userID, []uuid.UUID{uuid.Nil}); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("nil deck id: want ErrValidation, got %v", err)
	}
}

func TestConflicts_Resolve_Idempotent(t *testing.T) {
	t.Parallel()
	userID, users, collection, decks, catalog := novaWorld(t)
	s := NewConflictService(users, collection, decks, catalog)

	all, _ := decks.ListByUser(context.Background(), userID)
	id := all[1].ID
	first, err := s.Resolve(context.Background(), userID, []uuid.UUID{id})
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	second, err := s.Resolve(context.Background(), userID, []uuid.UUID{id})
	if err != nil {
		t.Fatalf("second Resolve must succeed on already-inactive deck: %v", err)
	}
	if len(first.RemainingConflicts) != len(second.RemainingConflicts) {
		t.Errorf("resolve not idempotent: %+v vs %+v", first.RemainingConflicts, second.RemainingConflicts)
	}
}

func TestConflicts_Calculate_ReadOnlyAndRepeatable(t *testing.T) {
	t.Parallel()
	userID, users, collection, decks, catalog := novaWorld(t)
	s := NewConflictService(users, collection, decks, catalog)

	first, err := s.Calculate(context.Background(), userID)
	if err != nil {
		t.Fatalf("first Calculate: %v", err)
	}
	second, err := s.Calculate(context.Background(), userID)
	if err != nil {
		t.Fatalf("second Calculate: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("repeat Calculate changed result: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].CardName != second[i].CardName || first[i].ConflictQuantity != second[i].ConflictQuantity {
			t.Errorf("record %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
	if decks.setActiveCalls != 0 {
		t.Errorf("Calculate must not mutate deck state")
	}
}
