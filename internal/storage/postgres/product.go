package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avetra/sales-api/internal/domain/product"
	"github.com/avetra/sales-api/internal/query"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by the products
// document table.
type ProductRepository struct {
	col *Collection[product.Product]
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{
		col: NewCollection[product.Product](pool, CollectionConfig{
			Table: "products",
			Fields: map[string]FieldKind{
				"title":     KindText,
				"category":  KindText,
				"price":     KindNumeric,
				"status":    KindText,
				"stock":     KindNumeric,
				"createdAt": KindTimestamp,
			},
			Sortable:    product.SortableField,
			DefaultSort: product.DefaultSort,
		}),
	}
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	if err := r.col.Create(ctx, p.ID, p); err != nil {
		return errors.Wrapf(err, "creating product %q", p.ID)
	}
	p.Version = 1
	return nil
}

// Upsert inserts or overwrites a product. Used by the seed and catalog ingest
// tools; the API itself always goes through Create and Replace.
func (r *ProductRepository) Upsert(ctx context.Context, p *product.Product) error {
	if err := r.col.Upsert(ctx, p.ID, p); err != nil {
		return errors.Wrapf(err, "upserting product %q", p.ID)
	}
	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	p, version, err := r.col.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errNoDocument) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting product %q", id)
	}
	p.Version = version
	return p, nil
}

func (r *ProductRepository) Replace(ctx context.Context, p *product.Product) error {
	version, err := r.col.Replace(ctx, p.ID, p.Version, p)
	if err != nil {
		switch {
		case errors.Is(err, errNoDocument):
			return product.ErrNotFound
		case errors.Is(err, errConflict):
			return product.ErrVersionConflict
		}
		return errors.Wrapf(err, "replacing product %q", p.ID)
	}
	p.Version = version
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.col.Delete(ctx, id)
}

func (r *ProductRepository) CountAll(ctx context.Context) (int64, error) {
	return r.col.CountAll(ctx)
}

func (r *ProductRepository) CountFiltered(ctx context.Context, f query.Filter) (int64, error) {
	return r.col.Count(ctx, f)
}

func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	values, err := r.col.Distinct(ctx, "category")
	if err != nil {
		return nil, errors.Wrap(err, "listing product categories")
	}
	return values, nil
}

func (r *ProductRepository) GetPage(ctx context.Context, f query.Filter, req query.PageRequest) (query.PageResult[product.Product], error) {
	req = req.Normalize()
	items, total, err := r.col.GetPage(ctx, f, req)
	if err != nil {
		return query.PageResult[product.Product]{}, errors.Wrap(err, "getting products page")
	}
	return query.NewPageResult(items, total, req.Page, req.Size), nil
}
