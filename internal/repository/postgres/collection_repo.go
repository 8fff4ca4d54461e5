package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"marvelcdc/internal/model"
)

// CollectionRepo implements CollectionRepository using PostgreSQL.
type CollectionRepo struct{ db *DB }

// NewCollectionRepo constructs a collection repository.
func NewCollectionRepo(db *DB) *CollectionRepo { return &CollectionRepo{db: db} }

// ListByUser returns the user's collection entries joined with pack names,
// ordered by pack name.
func (r *CollectionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.CollectionEntry, error) {
	const q = `
SELECT c.user_id, c.pack_code, p.name, c.quantity
FROM collections c
JOIN packs p ON p.code = c.pack_code
WHERE c.user_id=$1
ORDER BY p.name ASC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CollectionEntry
	for rows.Next() {
		var e model.CollectionEntry
		if err := rows.Scan(&e.UserID, &e.PackCode, &e.PackName, &e.Quantity); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Upsert creates or replaces the quantity for (user, pack).
func (r *CollectionRepo) Upsert(ctx context.Context, userID uuid.UUID, packCode string, quantity int) error {
	const q = `
INSERT INTO collections (user_id, pack_code, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, pack_code) DO UPDATE SET quantity=EXCLUDED.quantity`
	_, err := r.db.Pool.Exec(ctx, q, userID, packCode, quantity)
	return err
}

// DeleteEntry removes the entry for (user, pack); absence is a no-op.
func (r *CollectionRepo) DeleteEntry(ctx context.Context, userID uuid.UUID, packCode string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM collections WHERE user_id=$1 AND pack_code=$2`, userID, packCode)
	return err
}
