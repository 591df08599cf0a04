package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avetra/sales-api/internal/domain/cart"
	"github.com/avetra/sales-api/internal/query"
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by the carts document
// table.
type CartRepository struct {
	col *Collection[cart.Cart]
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{
		col: NewCollection[cart.Cart](pool, CollectionConfig{
			Table: "carts",
			Fields: map[string]FieldKind{
				"userId": KindUUID,
				"date":   KindTimestamp,
			},
			Sortable:    cart.SortableField,
			DefaultSort: cart.DefaultSort,
		}),
	}
}

func (r *CartRepository) Create(ctx context.Context, c *cart.Cart) error {
	if err := r.col.Create(ctx, c.ID, c); err != nil {
		return errors.Wrapf(err, "creating cart %q", c.ID)
	}
	c.Version = 1
	return nil
}

// Upsert inserts or overwrites a cart. Used by the seed tool.
func (r *CartRepository) Upsert(ctx context.Context, c *cart.Cart) error {
	if err := r.col.Upsert(ctx, c.ID, c); err != nil {
		return errors.Wrapf(err, "upserting cart %q", c.ID)
	}
	return nil
}

func (r *CartRepository) GetByID(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	c, version, err := r.col.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errNoDocument) {
			return nil, cart.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting cart %q", id)
	}
	c.Version = version
	return c, nil
}

func (r *CartRepository) Replace(ctx context.Context, c *cart.Cart) error {
	version, err := r.col.Replace(ctx, c.ID, c.Version, c)
	if err != nil {
		switch {
		case errors.Is(err, errNoDocument):
			return cart.ErrNotFound
		case errors.Is(err, errConflict):
			return cart.ErrVersionConflict
		}
		return errors.Wrapf(err, "replacing cart %q", c.ID)
	}
	c.Version = version
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.col.Delete(ctx, id)
}

func (r *CartRepository) CountAll(ctx context.Context) (int64, error) {
	return r.col.CountAll(ctx)
}

func (r *CartRepository) CountFiltered(ctx context.Context, f query.Filter) (int64, error) {
	return r.col.Count(ctx, f)
}

func (r *CartRepository) GetPage(ctx context.Context, f query.Filter, req query.PageRequest) (query.PageResult[cart.Cart], error) {
	req = req.Normalize()
	items, total, err := r.col.GetPage(ctx, f, req)
	if err != nil {
		return query.PageResult[cart.Cart]{}, errors.Wrap(err, "getting carts page")
	}
	return query.NewPageResult(items, total, req.Page, req.Size), nil
}
