package sale

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avetra/sales-api/internal/query"
)

// ItemInput describes one item of a sale being created or extended.
type ItemInput struct {
	ProductID          uuid.UUID
	ProductName        string
	ProductDescription string
	Quantity           int
	UnitPrice          decimal.Decimal
}

// CreateInput holds everything needed to create a sale.
type CreateInput struct {
	SaleNumber    string
	SaleDate      time.Time
	CustomerID    uuid.UUID
	CustomerName  string
	CustomerEmail string
	BranchID      uuid.UUID
	BranchName    string
	Items         []ItemInput
}

// Service implements the sale use cases: each operation is a synchronous
// load-mutate-replace unit of work followed by fire-and-forget event
// publication.
type Service struct {
	sales  Repository
	events Publisher
}

// NewService creates a sale Service.
func NewService(sales Repository, events Publisher) *Service {
	return &Service{sales: sales, events: events}
}

// Create validates the input, assembles the aggregate item by item, persists
// it, and publishes SaleCreated.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Sale, error) {
	if in.SaleNumber == "" {
		return nil, &InvalidArgumentError{Reason: "sale number is required"}
	}
	if in.CustomerID == uuid.Nil {
		return nil, &InvalidArgumentError{Reason: "customer id is required"}
	}
	if in.BranchID == uuid.Nil {
		return nil, &InvalidArgumentError{Reason: "branch id is required"}
	}

	saleDate := in.SaleDate
	if saleDate.IsZero() {
		saleDate = time.Now().UTC()
	}

	sl := New(in.SaleNumber, saleDate, in.CustomerID, in.CustomerName, in.CustomerEmail, in.BranchID, in.BranchName)
	for _, item := range in.Items {
		if item.ProductID == uuid.Nil {
			return nil, &InvalidArgumentError{Reason: "product id is required"}
		}
		if err := sl.AddItem(NewItem(item.ProductID, item.ProductName, item.ProductDescription, item.Quantity, item.UnitPrice)); err != nil {
			return nil, err
		}
	}

	if err := s.sales.Create(ctx, sl); err != nil {
		return nil, errors.Wrap(err, "create sale")
	}

	s.events.Publish(ctx, NewCreatedEvent(sl))
	return sl, nil
}

// Get loads one sale by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Sale, error) {
	return s.sales.GetByID(ctx, id)
}

// List compiles the filter parameters and returns one page of sales plus the
// total count over the filtered set.
func (s *Service) List(ctx context.Context, params FilterParams, req query.PageRequest) (query.PageResult[Sale], error) {
	return s.sales.GetPage(ctx, params.Filter(), req)
}

// AddItem attaches a new item to an existing sale and publishes SaleModified.
func (s *Service) AddItem(ctx context.Context, saleID uuid.UUID, in ItemInput) (*Sale, error) {
	sl, err := s.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}

	if in.ProductID == uuid.Nil {
		return nil, &InvalidArgumentError{Reason: "product id is required"}
	}
	if err := sl.AddItem(NewItem(in.ProductID, in.ProductName, in.ProductDescription, in.Quantity, in.UnitPrice)); err != nil {
		return nil, err
	}

	if err := s.sales.Replace(ctx, sl); err != nil {
		return nil, errors.Wrap(err, "replace sale")
	}

	s.events.Publish(ctx, NewModifiedEvent(sl, "item added"))
	return sl, nil
}

// RemoveItem detaches an item from a sale and publishes SaleModified.
func (s *Service) RemoveItem(ctx context.Context, saleID, itemID uuid.UUID) (*Sale, error) {
	sl, err := s.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}

	if err := sl.RemoveItem(itemID); err != nil {
		return nil, err
	}

	if err := s.sales.Replace(ctx, sl); err != nil {
		return nil, errors.Wrap(err, "replace sale")
	}

	s.events.Publish(ctx, NewModifiedEvent(sl, "item removed"))
	return sl, nil
}

// UpdateItem applies a quantity and/or unit price change to one item and
// publishes SaleModified. Nil fields are left untouched.
func (s *Service) UpdateItem(ctx context.Context, saleID, itemID uuid.UUID, quantity *int, unitPrice *decimal.Decimal) (*Sale, error) {
	sl, err := s.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}

	if err := sl.UpdateItem(itemID, quantity, unitPrice); err != nil {
		return nil, err
	}

	if err := s.sales.Replace(ctx, sl); err != nil {
		return nil, errors.Wrap(err, "replace sale")
	}

	s.events.Publish(ctx, NewModifiedEvent(sl, "item updated"))
	return sl, nil
}

// Cancel cancels a whole sale and publishes SaleCancelled with the reason.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*Sale, error) {
	sl, err := s.sales.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := sl.Cancel(); err != nil {
		return nil, err
	}

	if err := s.sales.Replace(ctx, sl); err != nil {
		return nil, errors.Wrap(err, "replace sale")
	}

	s.events.Publish(ctx, NewCancelledEvent(sl, reason))
	return sl, nil
}

// CancelItem cancels a single item and publishes ItemCancelled with the
// reason.
func (s *Service) CancelItem(ctx context.Context, saleID, itemID uuid.UUID, reason string) (*Sale, error) {
	sl, err := s.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}

	item, err := sl.CancelItem(itemID)
	if err != nil {
		return nil, err
	}

	if err := s.sales.Replace(ctx, sl); err != nil {
		return nil, errors.Wrap(err, "replace sale")
	}

	s.events.Publish(ctx, NewItemCancelledEvent(sl, item, reason))
	return sl, nil
}

// Delete removes a sale document entirely.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.sales.Delete(ctx, id)
	if err != nil {
		return errors.Wrap(err, "delete sale")
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}
