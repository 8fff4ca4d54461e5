package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"marvelcdc/internal/errs"
	"marvelcdc/internal/model"
)

// DeckRepo implements DeckRepository using PostgreSQL.
type DeckRepo struct{ db *DB }

// NewDeckRepo constructs a deck repository.
func NewDeckRepo(db *DB) *DeckRepo { return &DeckRepo{db: db} }

const deckColumns = `id, user_id, marvelcdb_id, name, hero_code, hero_name, deck_url, is_active, created_at, updated_at`

// Create inserts a deck and its requirement rows in one transaction.
func (r *DeckRepo) Create(ctx context.Context, d *model.Deck) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const ins = `
INSERT INTO decks (id, user_id, marvelcdb_id, name, hero_code, hero_name, deck_url, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	if _, err = tx.Exec(ctx, ins,
		d.ID, d.UserID, d.MarvelCDBID, d.Name, d.HeroCode, d.HeroName, d.DeckURL, d.IsActive); err != nil {
		if isUniqueViolation(err) {
			err = errs.ErrAlreadyExists
		}
		return err
	}

	const insCard = `
INSERT INTO deck_cards (deck_id, card_code, card_name, quantity, card_type, pack_code)
VALUES ($1,$2,$3,$4,$5,$6)`
	for i := range d.Cards {
		c := &d.Cards[i]
		if _, err = tx.Exec(ctx, insCard, d.ID, c.CardCode, c.CardName, c.Quantity, c.CardType, c.PackCode); err != nil {
			return err
		}
	}
	return nil
}

// listByQuery loads decks matching the query, then fills requirement rows.
func (r *DeckRepo) listByQuery(ctx context.Context, q string, args ...any) ([]model.Deck, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decks []model.Deck
	for rows.Next() {
		var d model.Deck
		if err := rows.Scan(&d.ID, &d.UserID, &d.MarvelCDBID, &d.Name, &d.HeroCode, &d.HeroName,
			&d.DeckURL, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		decks = append(decks, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(decks) == 0 {
		return decks, nil
	}

	ids := make([]uuid.UUID, len(decks))
	byID := make(map[uuid.UUID]*model.Deck, len(decks))
	for i := range decks {
		ids[i] = decks[i].ID
		byID[decks[i].ID] = &decks[i]
	}

	const cq = `
SELECT id, deck_id, card_code, card_name, quantity, card_type, pack_code
FROM deck_cards WHERE deck_id = ANY($1) ORDER BY id`
	crows, err := r.db.Pool.Query(ctx, cq, ids)
	if err != nil {
		return nil, err
	}
	defer crows.Close()
	for crows.Next() {
		var c model.DeckCardRequirement
		if err := crows.Scan(&c.ID, &c.DeckID, &c.CardCode, &c.CardName, &c.Quantity, &c.CardType, &c.PackCode); err != nil {
			return nil, err
		}
		if d, ok := byID[c.DeckID]; ok {
			d.Cards = append(d.Cards, c)
		}
	}
	return decks, crows.Err()
}

// ListByUser returns the user's decks with requirement rows, newest first.
func (r *DeckRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Deck, error) {
	return r.listByQuery(ctx,
		`SELECT `+deckColumns+` FROM decks WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

// ListActiveByUser returns the user's active decks with requirement rows.
func (r *DeckRepo) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]model.Deck, error) {
	return r.listByQuery(ctx,
		`SELECT `+deckColumns+` FROM decks WHERE user_id=$1 AND is_active=true ORDER BY created_at DESC`, userID)
}

// GetByIDAndUser loads one deck (with requirements) owned by the user.
func (r *DeckRepo) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*model.Deck, error) {
	decks, err := r.listByQuery(ctx,
		`SELECT `+deckColumns+` FROM decks WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return nil, err
	}
	if len(decks) == 0 {
		return nil, errs.ErrNotFound
	}
	return &decks[0], nil
}

// GetIDsByIDsAndUser returns the subset of ids that belong to the user.
func (r *DeckRepo) GetIDsByIDsAndUser(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const q = `SELECT id FROM decks WHERE id = ANY($1) AND user_id=$2`
	rows, err := r.db.Pool.Query(ctx, q, ids, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ExistsByRemoteID reports whether the user already imported this decklist.
func (r *DeckRepo) ExistsByRemoteID(ctx context.Context, userID uuid.UUID, marvelcdbID int64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM decks WHERE user_id=$1 AND marvelcdb_id=$2)`
	var exists bool
	if err := r.db.Pool.QueryRow(ctx, q, userID, marvelcdbID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// SetActiveFlags updates is_active on all given decks in a single batch.
func (r *DeckRepo) SetActiveFlags(ctx context.Context, ids []uuid.UUID, isActive bool) error {
	if len(ids) == 0 {
		return nil
	}
	const q = `UPDATE decks SET is_active=$2, updated_at=now() WHERE id = ANY($1)`
	_, err := r.db.Pool.Exec(ctx, q, ids, isActive)
	return err
}

// Delete removes a deck; deck_cards cascade.
func (r *DeckRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM decks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
