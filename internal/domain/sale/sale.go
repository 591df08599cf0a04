// Package sale contains the sale aggregate: a sale and its items form a single
// consistency boundary. Items are mutated only through the owning Sale, which
// recomputes the total after every change.
package sale

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avetra/sales-api/internal/query"
)

// MaxItemQuantity is the hard cap on identical products in a sale: a single
// item may not exceed it, and neither may the sum of active item quantities
// for one product.
const MaxItemQuantity = 20

// Discount tier boundaries. The tier is a pure function of an item's quantity.
var (
	tierTwentyPct = decimal.NewFromInt(20)
	tierTenPct    = decimal.NewFromInt(10)
	hundred       = decimal.NewFromInt(100)
)

// Sale is the aggregate root. TotalAmount is derived: the sum of TotalAmount
// over non-cancelled items, recomputed on every item mutation.
type Sale struct {
	ID            uuid.UUID       `json:"id"`
	SaleNumber    string          `json:"saleNumber"`
	SaleDate      time.Time       `json:"saleDate"`
	CustomerID    uuid.UUID       `json:"customerId"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	BranchID      uuid.UUID       `json:"branchId"`
	BranchName    string          `json:"branchName"`
	Items         []Item          `json:"items"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Cancelled     bool            `json:"cancelled"`
	CancelledAt   *time.Time      `json:"cancelledAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`

	// Version is maintained by the repository for optimistic concurrency.
	// It is not part of the document body.
	Version int64 `json:"-"`
}

// Item is a product entry within a sale. The discount fields and TotalAmount
// are derived from quantity and unit price; once an item is cancelled its
// amounts are frozen and excluded from the sale total.
type Item struct {
	ID                 uuid.UUID       `json:"id"`
	SaleID             uuid.UUID       `json:"saleId"`
	ProductID          uuid.UUID       `json:"productId"`
	ProductName        string          `json:"productName"`
	ProductDescription string          `json:"productDescription"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unitPrice"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	DiscountAmount     decimal.Decimal `json:"discountAmount"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	Cancelled          bool            `json:"cancelled"`
	CancelledAt        *time.Time      `json:"cancelledAt,omitempty"`
}

// New creates an open sale with no items.
func New(saleNumber string, saleDate time.Time, customerID uuid.UUID, customerName, customerEmail string, branchID uuid.UUID, branchName string) *Sale {
	now := time.Now().UTC()
	return &Sale{
		ID:            uuid.New(),
		SaleNumber:    saleNumber,
		SaleDate:      saleDate,
		CustomerID:    customerID,
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
		BranchID:      branchID,
		BranchName:    branchName,
		TotalAmount:   decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewItem creates a detached item. Amounts are computed when the item is
// attached via Sale.AddItem.
func NewItem(productID uuid.UUID, productName, productDescription string, quantity int, unitPrice decimal.Decimal) Item {
	return Item{
		ID:                 uuid.New(),
		ProductID:          productID,
		ProductName:        productName,
		ProductDescription: productDescription,
		Quantity:           quantity,
		UnitPrice:          unitPrice,
	}
}

// AddItem validates the item against the sale's state and the per-product
// quantity cap, applies the quantity discount tier, attaches the item, and
// recomputes the total. On any error the sale is left unmodified.
func (s *Sale) AddItem(item Item) error {
	if s.Cancelled {
		return &InvalidStateError{Reason: "cannot add items to a cancelled sale"}
	}
	if item.Quantity <= 0 {
		return &InvalidArgumentError{Reason: "quantity must be greater than zero"}
	}
	if !item.UnitPrice.IsPositive() {
		return &InvalidArgumentError{Reason: "unit price must be greater than zero"}
	}
	if item.Quantity > MaxItemQuantity {
		return &QuantityExceededError{ProductName: item.ProductName, Quantity: item.Quantity}
	}

	if total := s.activeQuantity(item.ProductID) + item.Quantity; total > MaxItemQuantity {
		return &QuantityExceededError{ProductName: item.ProductName, Quantity: total}
	}

	item.SaleID = s.ID
	item.applyQuantityDiscount()

	s.Items = append(s.Items, item)
	s.recomputeTotal()
	s.touch()
	return nil
}

// RemoveItem detaches the item with the given id and recomputes the total.
// Removing an unknown id is a no-op.
func (s *Sale) RemoveItem(itemID uuid.UUID) error {
	if s.Cancelled {
		return &InvalidStateError{Reason: "cannot remove items from a cancelled sale"}
	}

	for i := range s.Items {
		if s.Items[i].ID == itemID {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			s.recomputeTotal()
			s.touch()
			break
		}
	}
	return nil
}

// Cancel transitions the sale to its terminal state: every item is cancelled
// and the total degenerates to zero. Cancelling twice is an error; the cascade
// itself never trips an item's own terminal-state guard.
func (s *Sale) Cancel() error {
	if s.Cancelled {
		return &InvalidStateError{Reason: "sale is already cancelled"}
	}

	now := time.Now().UTC()
	s.Cancelled = true
	s.CancelledAt = &now

	for i := range s.Items {
		s.Items[i].cancelAt(now)
	}

	s.recomputeTotal()
	s.touch()
	return nil
}

// CancelItem cancels a single item and recomputes the total. It fails with
// NotFound for an unknown id and InvalidState when the item is already
// cancelled.
func (s *Sale) CancelItem(itemID uuid.UUID) (*Item, error) {
	item := s.findItem(itemID)
	if item == nil {
		return nil, ErrItemNotFound
	}
	if err := item.Cancel(); err != nil {
		return nil, err
	}
	s.recomputeTotal()
	s.touch()
	return item, nil
}

// UpdateItem changes an item's quantity and/or unit price as one mutation,
// re-deriving its discount tier and amounts, then recomputes the sale total.
// Nil fields are left untouched. Both values are staged on a copy and
// validated before either is applied, so a rejected pair leaves the sale
// unmodified.
func (s *Sale) UpdateItem(itemID uuid.UUID, quantity *int, unitPrice *decimal.Decimal) error {
	if s.Cancelled {
		return &InvalidStateError{Reason: "cannot update items of a cancelled sale"}
	}
	item := s.findItem(itemID)
	if item == nil {
		return ErrItemNotFound
	}

	staged := *item
	if quantity != nil {
		if err := staged.UpdateQuantity(*quantity); err != nil {
			return err
		}
	}
	if unitPrice != nil {
		if err := staged.UpdateUnitPrice(*unitPrice); err != nil {
			return err
		}
	}

	*item = staged
	s.recomputeTotal()
	s.touch()
	return nil
}

// UpdateItemQuantity changes an item's quantity, re-deriving its discount tier
// and amounts, then recomputes the sale total.
func (s *Sale) UpdateItemQuantity(itemID uuid.UUID, quantity int) error {
	return s.UpdateItem(itemID, &quantity, nil)
}

// UpdateItemUnitPrice changes an item's unit price, re-deriving its amounts,
// then recomputes the sale total.
func (s *Sale) UpdateItemUnitPrice(itemID uuid.UUID, unitPrice decimal.Decimal) error {
	return s.UpdateItem(itemID, nil, &unitPrice)
}

func (s *Sale) findItem(itemID uuid.UUID) *Item {
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			return &s.Items[i]
		}
	}
	return nil
}

// activeQuantity sums the quantities of non-cancelled items for one product.
// Cancelled items free their quantity: the cap applies to active items at a
// point in time, not over the sale's lifetime.
func (s *Sale) activeQuantity(productID uuid.UUID) int {
	total := 0
	for i := range s.Items {
		if s.Items[i].ProductID == productID && !s.Items[i].Cancelled {
			total += s.Items[i].Quantity
		}
	}
	return total
}

func (s *Sale) recomputeTotal() {
	total := decimal.Zero
	for i := range s.Items {
		if !s.Items[i].Cancelled {
			total = total.Add(s.Items[i].TotalAmount)
		}
	}
	s.TotalAmount = total
}

func (s *Sale) touch() {
	s.UpdatedAt = time.Now().UTC()
}

// Cancel marks the item cancelled, freezing its amounts. Cancelling twice is
// an error.
func (it *Item) Cancel() error {
	if it.Cancelled {
		return &InvalidStateError{Reason: "item is already cancelled"}
	}
	it.cancelAt(time.Now().UTC())
	return nil
}

// cancelAt is the guard-free form used by the sale-level cascade, where
// already-cancelled items must be skipped silently.
func (it *Item) cancelAt(now time.Time) {
	if it.Cancelled {
		return
	}
	it.Cancelled = true
	it.CancelledAt = &now
}

// UpdateQuantity validates and applies a new quantity, re-deriving the
// discount tier and amounts.
func (it *Item) UpdateQuantity(quantity int) error {
	if it.Cancelled {
		return &InvalidStateError{Reason: "cannot update a cancelled item"}
	}
	if quantity <= 0 {
		return &InvalidArgumentError{Reason: "quantity must be greater than zero"}
	}
	if quantity > MaxItemQuantity {
		return &InvalidArgumentError{Reason: "quantity exceeds the per-product limit"}
	}

	it.Quantity = quantity
	it.applyQuantityDiscount()
	return nil
}

// UpdateUnitPrice validates and applies a new unit price, re-deriving amounts.
func (it *Item) UpdateUnitPrice(unitPrice decimal.Decimal) error {
	if it.Cancelled {
		return &InvalidStateError{Reason: "cannot update a cancelled item"}
	}
	if !unitPrice.IsPositive() {
		return &InvalidArgumentError{Reason: "unit price must be greater than zero"}
	}

	it.UnitPrice = unitPrice
	it.calculateAmounts()
	return nil
}

// applyQuantityDiscount derives the discount tier from the quantity:
// up to 3 items none, 4-9 items 10%, 10-20 items 20%.
func (it *Item) applyQuantityDiscount() {
	switch {
	case it.Quantity >= 10:
		it.DiscountPercentage = tierTwentyPct
	case it.Quantity >= 4:
		it.DiscountPercentage = tierTenPct
	default:
		it.DiscountPercentage = decimal.Zero
	}
	it.calculateAmounts()
}

func (it *Item) calculateAmounts() {
	subtotal := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
	it.DiscountAmount = subtotal.Mul(it.DiscountPercentage).Div(hundred)
	it.TotalAmount = subtotal.Sub(it.DiscountAmount)
}

// Repository defines the persistence contract for sales. Replace is a
// whole-document overwrite guarded by the aggregate's Version.
type Repository interface {
	Create(ctx context.Context, s *Sale) error
	GetByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	Replace(ctx context.Context, s *Sale) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	CountAll(ctx context.Context) (int64, error)
	CountFiltered(ctx context.Context, f query.Filter) (int64, error)
	GetPage(ctx context.Context, f query.Filter, req query.PageRequest) (query.PageResult[Sale], error)
}
