package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"marvelcdc/internal/model"
)

// CollectionRepository stores owned-pack quantities per user.
type CollectionRepository interface {
	// ListByUser returns the user's entries with pack names, ordered by pack name.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.CollectionEntry, error)
	// Upsert creates or replaces the quantity for (user, pack).
	Upsert(ctx context.Context, userID uuid.UUID, packCode string, quantity int) error
	// DeleteEntry removes the entry for (user, pack); absence is not an error.
	DeleteEntry(ctx context.Context, userID uuid.UUID, packCode string) error
}
