package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avetra/sales-api/internal/query"
)

// CreateInput holds everything needed to add a catalog entry. New entries
// always start active.
type CreateInput struct {
	Title       string
	Price       decimal.Decimal
	Description string
	Category    string
	Image       string
	Stock       int
}

// UpdateInput replaces the mutable fields of a product. An empty Status keeps
// the current one.
type UpdateInput struct {
	Title       string
	Price       decimal.Decimal
	Description string
	Category    string
	Image       string
	Status      string
	Stock       int
}

// Service implements the catalog use cases: each write is a synchronous
// load-mutate-replace unit of work against the repository.
type Service struct {
	products Repository
}

// NewService creates a product Service.
func NewService(products Repository) *Service {
	return &Service{products: products}
}

func validateEntry(title string, price decimal.Decimal, stock int) error {
	if title == "" {
		return &InvalidArgumentError{Reason: "title is required"}
	}
	if !price.IsPositive() {
		return &InvalidArgumentError{Reason: "price must be greater than zero"}
	}
	if stock < 0 {
		return &InvalidArgumentError{Reason: "stock cannot be negative"}
	}
	return nil
}

// Create validates the input and persists a new active product.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Product, error) {
	if err := validateEntry(in.Title, in.Price, in.Stock); err != nil {
		return nil, err
	}

	p := New(in.Title, in.Price, in.Description, in.Category, in.Image, in.Stock)
	if err := s.products.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	return p, nil
}

// Get loads one product by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.products.GetByID(ctx, id)
}

// List compiles the filter parameters and returns one page of the catalog.
func (s *Service) List(ctx context.Context, params FilterParams, req query.PageRequest) (query.PageResult[Product], error) {
	return s.products.GetPage(ctx, params.Filter(), req)
}

// Update replaces a product's mutable fields, keeping its identity, rating,
// and creation time. The input is validated before the entry is touched.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Product, error) {
	if err := validateEntry(in.Title, in.Price, in.Stock); err != nil {
		return nil, err
	}
	status := Status("")
	if in.Status != "" {
		parsed, ok := ParseStatus(in.Status)
		if !ok {
			return nil, &InvalidArgumentError{Reason: "unknown status " + in.Status}
		}
		status = parsed
	}

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Title = in.Title
	p.Price = in.Price
	p.Description = in.Description
	p.Category = in.Category
	p.Image = in.Image
	p.Stock = in.Stock
	if status != "" {
		p.Status = status
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.products.Replace(ctx, p); err != nil {
		return nil, errors.Wrap(err, "replace product")
	}
	return p, nil
}

// Delete removes a product from the catalog.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.products.Delete(ctx, id)
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// Categories returns the distinct category names across the catalog.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.products.Categories(ctx)
}

// ListByCategory returns one page of the products in a single category.
func (s *Service) ListByCategory(ctx context.Context, category string, req query.PageRequest) (query.PageResult[Product], error) {
	return s.products.GetPage(ctx, query.Filter{query.Eq("category", category)}, req)
}
