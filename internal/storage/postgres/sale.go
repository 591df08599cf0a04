package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avetra/sales-api/internal/domain/sale"
	"github.com/avetra/sales-api/internal/query"
)

var _ sale.Repository = (*SaleRepository)(nil)

// SaleRepository implements sale.Repository backed by the sales document
// table.
type SaleRepository struct {
	col *Collection[sale.Sale]
}

// NewSaleRepository returns a SaleRepository that uses the given pool.
func NewSaleRepository(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{
		col: NewCollection[sale.Sale](pool, CollectionConfig{
			Table: "sales",
			Fields: map[string]FieldKind{
				"saleNumber":    KindText,
				"customerId":    KindUUID,
				"customerName":  KindText,
				"customerEmail": KindText,
				"branchId":      KindUUID,
				"branchName":    KindText,
				"saleDate":      KindTimestamp,
				"totalAmount":   KindNumeric,
				"cancelled":     KindBool,
				"createdAt":     KindTimestamp,
			},
			Sortable:    sale.SortableField,
			DefaultSort: sale.DefaultSort,
		}),
	}
}

// Create persists a new sale document.
func (r *SaleRepository) Create(ctx context.Context, s *sale.Sale) error {
	if err := r.col.Create(ctx, s.ID, s); err != nil {
		return errors.Wrapf(err, "creating sale %q", s.ID)
	}
	s.Version = 1
	return nil
}

// GetByID loads a sale aggregate, including its persisted version.
func (r *SaleRepository) GetByID(ctx context.Context, id uuid.UUID) (*sale.Sale, error) {
	s, version, err := r.col.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errNoDocument) {
			return nil, sale.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting sale %q", id)
	}
	s.Version = version
	return s, nil
}

// Replace overwrites the whole sale document, compare-and-swapping on the
// aggregate's version.
func (r *SaleRepository) Replace(ctx context.Context, s *sale.Sale) error {
	version, err := r.col.Replace(ctx, s.ID, s.Version, s)
	if err != nil {
		switch {
		case errors.Is(err, errNoDocument):
			return sale.ErrNotFound
		case errors.Is(err, errConflict):
			return sale.ErrVersionConflict
		}
		return errors.Wrapf(err, "replacing sale %q", s.ID)
	}
	s.Version = version
	return nil
}

// Delete removes a sale document, reporting whether it existed.
func (r *SaleRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.col.Delete(ctx, id)
}

// CountAll counts every sale.
func (r *SaleRepository) CountAll(ctx context.Context) (int64, error) {
	return r.col.CountAll(ctx)
}

// CountFiltered counts the sales matching the filter.
func (r *SaleRepository) CountFiltered(ctx context.Context, f query.Filter) (int64, error) {
	return r.col.Count(ctx, f)
}

// GetPage returns one page of sales plus the total count over the filtered
// set.
func (r *SaleRepository) GetPage(ctx context.Context, f query.Filter, req query.PageRequest) (query.PageResult[sale.Sale], error) {
	req = req.Normalize()
	items, total, err := r.col.GetPage(ctx, f, req)
	if err != nil {
		return query.PageResult[sale.Sale]{}, errors.Wrap(err, "getting sales page")
	}
	return query.NewPageResult(items, total, req.Page, req.Size), nil
}
