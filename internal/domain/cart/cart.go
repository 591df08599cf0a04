// Package cart contains the shopping basket entity and its search filter.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/avetra/sales-api/internal/query"
)

// ErrNotFound is returned when a cart id resolves to nothing.
var ErrNotFound = errors.New("cart not found")

// ErrVersionConflict is returned when a replace loses a race against a
// concurrent writer.
var ErrVersionConflict = errors.New("cart was modified concurrently")

// ErrInvalidQuantity is returned for non-positive product quantities.
var ErrInvalidQuantity = errors.New("quantity must be greater than zero")

// InvalidArgumentError indicates malformed or out-of-range cart input.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return e.Reason
}

// Entry is one product line in a cart.
type Entry struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// Cart is a user's open basket.
type Cart struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"userId"`
	Date     time.Time `json:"date"`
	Products []Entry   `json:"products"`

	Version int64 `json:"-"`
}

// New creates a cart for a user.
func New(userID uuid.UUID, date time.Time) *Cart {
	if date.IsZero() {
		date = time.Now().UTC()
	}
	return &Cart{ID: uuid.New(), UserID: userID, Date: date}
}

// AddProduct adds quantity of a product, merging with an existing entry.
func (c *Cart) AddProduct(productID uuid.UUID, quantity int) error {
	if productID == uuid.Nil {
		return &InvalidArgumentError{Reason: "product id is required"}
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	for i := range c.Products {
		if c.Products[i].ProductID == productID {
			c.Products[i].Quantity += quantity
			c.Date = time.Now().UTC()
			return nil
		}
	}

	c.Products = append(c.Products, Entry{ProductID: productID, Quantity: quantity})
	c.Date = time.Now().UTC()
	return nil
}

// RemoveProduct drops a product line; unknown ids are a no-op.
func (c *Cart) RemoveProduct(productID uuid.UUID) {
	for i := range c.Products {
		if c.Products[i].ProductID == productID {
			c.Products = append(c.Products[:i], c.Products[i+1:]...)
			c.Date = time.Now().UTC()
			return
		}
	}
}

// UpdateQuantity sets a product's quantity; zero or negative removes the line.
func (c *Cart) UpdateQuantity(productID uuid.UUID, quantity int) {
	if quantity <= 0 {
		c.RemoveProduct(productID)
		return
	}
	for i := range c.Products {
		if c.Products[i].ProductID == productID {
			c.Products[i].Quantity = quantity
			c.Date = time.Now().UTC()
			return
		}
	}
}

// TotalQuantity sums the quantities across all lines.
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, e := range c.Products {
		total += e.Quantity
	}
	return total
}

// Repository defines the persistence contract for carts.
type Repository interface {
	Create(ctx context.Context, c *Cart) error
	GetByID(ctx context.Context, id uuid.UUID) (*Cart, error)
	Replace(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	CountAll(ctx context.Context) (int64, error)
	CountFiltered(ctx context.Context, f query.Filter) (int64, error)
	GetPage(ctx context.Context, f query.Filter, req query.PageRequest) (query.PageResult[Cart], error)
}
