// Package product contains the catalog entity and its search filter.
package product

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avetra/sales-api/internal/query"
)

// ErrNotFound is returned when a product id resolves to nothing.
var ErrNotFound = errors.New("product not found")

// ErrVersionConflict is returned when a replace loses a race against a
// concurrent writer.
var ErrVersionConflict = errors.New("product was modified concurrently")

// InvalidArgumentError indicates malformed or out-of-range product input.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return e.Reason
}

// Status enumerates the catalog lifecycle states of a product.
type Status string

const (
	StatusActive       Status = "active"
	StatusInactive     Status = "inactive"
	StatusDiscontinued Status = "discontinued"
)

// ParseStatus parses a status name case-insensitively.
func ParseStatus(s string) (Status, bool) {
	switch {
	case strings.EqualFold(s, string(StatusActive)):
		return StatusActive, true
	case strings.EqualFold(s, string(StatusInactive)):
		return StatusInactive, true
	case strings.EqualFold(s, string(StatusDiscontinued)):
		return StatusDiscontinued, true
	default:
		return "", false
	}
}

// Rating aggregates customer ratings for a product.
type Rating struct {
	Rate  decimal.Decimal `json:"rate"`
	Count int             `json:"count"`
}

// Product is a catalog entry.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Rating      Rating          `json:"rating"`
	Status      Status          `json:"status"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`

	Version int64 `json:"-"`
}

// New creates an active product.
func New(title string, price decimal.Decimal, description, category, image string, stock int) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:          uuid.New(),
		Title:       title,
		Price:       price,
		Description: description,
		Category:    category,
		Image:       image,
		Status:      StatusActive,
		Stock:       stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AvailableForSale reports whether the product can be sold right now.
func (p *Product) AvailableForSale() bool {
	return p.Status == StatusActive && p.Stock > 0
}

// UpdateStock sets a new stock level.
func (p *Product) UpdateStock(stock int) error {
	if stock < 0 {
		return &InvalidArgumentError{Reason: "stock cannot be negative"}
	}
	p.Stock = stock
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Repository defines the persistence contract for products.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Replace(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	CountAll(ctx context.Context) (int64, error)
	CountFiltered(ctx context.Context, f query.Filter) (int64, error)
	GetPage(ctx context.Context, f query.Filter, req query.PageRequest) (query.PageResult[Product], error)
	Categories(ctx context.Context) ([]string, error)
}
