package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/avetra/sales-api/internal/query"
)

// EntryInput describes one product line of a cart being created or replaced.
type EntryInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateInput holds everything needed to open a cart. A zero Date defaults to
// now; duplicate product lines are merged.
type CreateInput struct {
	UserID   uuid.UUID
	Date     time.Time
	Products []EntryInput
}

// Service implements the basket use cases: each write is a synchronous
// load-mutate-replace unit of work against the repository.
type Service struct {
	carts Repository
}

// NewService creates a cart Service.
func NewService(carts Repository) *Service {
	return &Service{carts: carts}
}

// Create validates the input and persists a new cart.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Cart, error) {
	if in.UserID == uuid.Nil {
		return nil, &InvalidArgumentError{Reason: "user id is required"}
	}

	c := New(in.UserID, in.Date)
	for _, e := range in.Products {
		if err := c.AddProduct(e.ProductID, e.Quantity); err != nil {
			return nil, err
		}
	}
	if !in.Date.IsZero() {
		// AddProduct bumps Date; an explicitly requested date wins.
		c.Date = in.Date
	}

	if err := s.carts.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create cart")
	}
	return c, nil
}

// Get loads one cart by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Cart, error) {
	return s.carts.GetByID(ctx, id)
}

// List compiles the filter parameters and returns one page of carts.
func (s *Service) List(ctx context.Context, params FilterParams, req query.PageRequest) (query.PageResult[Cart], error) {
	return s.carts.GetPage(ctx, params.Filter(), req)
}

// Update replaces a cart's owner, date, and product lines wholesale. The new
// lines are validated before the stored cart is touched.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in CreateInput) (*Cart, error) {
	if in.UserID == uuid.Nil {
		return nil, &InvalidArgumentError{Reason: "user id is required"}
	}

	staged := New(in.UserID, in.Date)
	for _, e := range in.Products {
		if err := staged.AddProduct(e.ProductID, e.Quantity); err != nil {
			return nil, err
		}
	}
	if !in.Date.IsZero() {
		staged.Date = in.Date
	}

	c, err := s.carts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.UserID = staged.UserID
	c.Date = staged.Date
	c.Products = staged.Products

	if err := s.carts.Replace(ctx, c); err != nil {
		return nil, errors.Wrap(err, "replace cart")
	}
	return c, nil
}

// Delete removes a cart.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.carts.Delete(ctx, id)
	if err != nil {
		return errors.Wrap(err, "delete cart")
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}
