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

// defaultMaxPackQuantity caps how many copies of one pack a user may record.
const defaultMaxPackQuantity = 10

// CollectionUpdate is one pack-quantity change. Quantity 0 removes the entry.
type CollectionUpdate struct {
	PackCode string `json:"packCode"`
	Quantity int    `json:"quantity"`
}

// CollectionResult carries the updated collection together with a fresh
// conflict list, so callers never display stale conflicts after a mutation.
type CollectionResult struct {
	Collection []model.CollectionEntry
	Conflicts  []model.ConflictRecord
}

// CollectionService manages owned-pack quantities.
type CollectionService interface {
	// List returns the user's collection ordered by pack name.
	List(ctx context.Context, userID uuid.UUID) ([]model.CollectionEntry, error)
	// Update applies a batch of pack-quantity changes and returns the updated
	// collection with recomputed conflicts.
	Update(ctx context.Context, userID uuid.UUID, updates []CollectionUpdate) (CollectionResult, error)
}

type CollectionServiceImpl struct {
	collection repository.CollectionRepository
	catalog    repository.CatalogRepository
	conflicts  ConflictService
	maxQty     int
}

// NewCollectionService constructs CollectionService. maxQty <= 0 selects the
// default per-pack cap.
func NewCollectionService(
	collection repository.CollectionRepository,
	catalog repository.CatalogRepository,
	conflicts ConflictService,
	maxQty int,
) *CollectionServiceImpl {
	if maxQty <= 0 {
		maxQty = defaultMaxPackQuantity
	}
	return &CollectionServiceImpl{collection: collection, catalog: catalog, conflicts: conflicts, maxQty: maxQty}
}

// List returns the user's collection entries.
func (s *CollectionServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]model.CollectionEntry, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID", errs.ErrValidation)
	}
	return s.collection.ListByUser(ctx, userID)
}

// Update validates and applies each change, then returns the updated
// collection and a fresh conflict list.
func (s *CollectionServiceImpl) Update(ctx context.Context, userID uuid.UUID, updates []CollectionUpdate) (CollectionResult, error) {
	if userID == uuid.Nil {
		return CollectionResult{}, fmt.Errorf("%w: empty userID", errs.ErrValidation)
	}
	for _, up := range updates {
		if up.PackCode == "" {
			return CollectionResult{}, fmt.Errorf("%w: empty pack code", errs.ErrValidation)
		}
		if up.Quantity < 0 || up.Quantity > s.maxQty {
			return CollectionResult{}, fmt.Errorf("%w: quantity for %s out of range [0,%d]", errs.ErrValidation, up.PackCode, s.maxQty)
		}
	}

	for _, up := range updates {
		if _, err := s.catalog.GetPack(ctx, up.PackCode); err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return CollectionResult{}, fmt.Errorf("%w: unknown pack code: %s", errs.ErrValidation, up.PackCode)
			}
			return CollectionResult{}, fmt.Errorf("verify pack %s: %w", up.PackCode, err)
		}

		if up.Quantity == 0 {
			if err := s.collection.DeleteEntry(ctx, userID, up.PackCode); err != nil {
				return CollectionResult{}, fmt.Errorf("delete entry %s: %w", up.PackCode, err)
			}
			continue
		}
		if err := s.collection.Upsert(ctx, userID, up.PackCode, up.Quantity); err != nil {
			return CollectionResult{}, fmt.Errorf("upsert entry %s: %w", up.PackCode, err)
		}
	}

	entries, err := s.collection.ListByUser(ctx, userID)
	if err != nil {
		return CollectionResult{}, fmt.Errorf("reload collection: %w", err)
	}
	conflicts, err := s.conflicts.Calculate(ctx, userID)
	if err != nil {
		return CollectionResult{}, err
	}
	return CollectionResult{Collection: entries, Conflicts: conflicts}, nil
}
