package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"marvelcdc/internal/errs"
	"marvelcdc/internal/model"
)

// CatalogRepo implements CatalogRepository using PostgreSQL.
type CatalogRepo struct{ db *DB }

// NewCatalogRepo constructs a catalog repository.
func NewCatalogRepo(db *DB) *CatalogRepo { return &CatalogRepo{db: db} }

// ListPacks returns all packs ordered by release date.
func (r *CatalogRepo) ListPacks(ctx context.Context) ([]model.Pack, error) {
	const q = `SELECT code, name, type, released, position FROM packs ORDER BY released ASC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Pack
	for rows.Next() {
		var p model.Pack
		if err := rows.Scan(&p.Code, &p.Name, &p.Type, &p.Released, &p.Position); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPack selects a single pack by code.
func (r *CatalogRepo) GetPack(ctx context.Context, code string) (*model.Pack, error) {
	const q = `SELECT code, name, type, released, position FROM packs WHERE code=$1`
	var p model.Pack
	if err := r.db.Pool.QueryRow(ctx, q, code).Scan(&p.Code, &p.Name, &p.Type, &p.Released, &p.Position); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

const cardColumns = `code, name, pack_code, card_type, faction, cost, traits, copies_per_pack`

func scanCards(rows pgx.Rows) ([]model.CardDefinition, error) {
	defer rows.Close()
	var out []model.CardDefinition
	for rows.Next() {
		var c model.CardDefinition
		if err := rows.Scan(&c.Code, &c.Name, &c.PackCode, &c.CardType, &c.Faction, &c.Cost, &c.Traits, &c.CopiesPerPack); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FindCardsByNames returns every printing of the given card names across all packs.
func (r *CatalogRepo) FindCardsByNames(ctx context.Context, names []string) ([]model.CardDefinition, error) {
	if len(names) == 0 {
		return nil, nil
	}
	const q = `SELECT ` + cardColumns + ` FROM cards WHERE name = ANY($1) ORDER BY code`
	rows, err := r.db.Pool.Query(ctx, q, names)
	if err != nil {
		return nil, err
	}
	return scanCards(rows)
}

// FindCardsByCodes returns card definitions for the given codes.
func (r *CatalogRepo) FindCardsByCodes(ctx context.Context, codes []string) ([]model.CardDefinition, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	const q = `SELECT ` + cardColumns + ` FROM cards WHERE code = ANY($1) ORDER BY code`
	rows, err := r.db.Pool.Query(ctx, q, codes)
	if err != nil {
		return nil, err
	}
	return scanCards(rows)
}

// UpsertPack inserts or updates a pack by code.
func (r *CatalogRepo) UpsertPack(ctx context.Context, p *model.Pack) error {
	const q = `
INSERT INTO packs (code, name, type, released, position)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (code)
DO UPDATE SET name=EXCLUDED.name, type=EXCLUDED.type, released=EXCLUDED.released, position=EXCLUDED.position`
	_, err := r.db.Pool.Exec(ctx, q, p.Code, p.Name, p.Type, p.Released, p.Position)
	return err
}

// UpsertCard inserts or updates a card definition by code.
func (r *CatalogRepo) UpsertCard(ctx context.Context, c *model.CardDefinition) error {
	const q = `
INSERT INTO cards (code, name, pack_code, card_type, faction, cost, traits, copies_per_pack)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (code)
DO UPDATE SET name=EXCLUDED.name, pack_code=EXCLUDED.pack_code, card_type=EXCLUDED.card_type,
              faction=EXCLUDED.faction, cost=EXCLUDED.cost, traits=EXCLUDED.traits,
              copies_per_pack=EXCLUDED.copies_per_pack`
	_, err := r.db.Pool.Exec(ctx, q, c.Code, c.Name, c.PackCode, c.CardType, c.Faction, c.Cost, c.Traits, c.CopiesPerPack)
	return err
}

// CountPacks returns the number of packs in the catalog.
func (r *CatalogRepo) CountPacks(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM packs`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CountCards returns the number of card definitions in the catalog.
func (r *CatalogRepo) CountCards(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM cards`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
