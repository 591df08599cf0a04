package sale

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSale() *Sale {
	return New(
		"SALE-001-A",
		time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		uuid.New(), "Ana Silva", "ana@example.com",
		uuid.New(), "Downtown",
	)
}

func newTestItem(productID uuid.UUID, quantity int, unitPrice string) Item {
	return NewItem(productID, "Widget", "A widget", quantity, decimal.RequireFromString(unitPrice))
}

func TestAddItem_DiscountTiers(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int
		unitPrice string
		wantPct   string
		wantTotal string
	}{
		{name: "one item no discount", quantity: 1, unitPrice: "100.00", wantPct: "0", wantTotal: "100.00"},
		{name: "three items no discount", quantity: 3, unitPrice: "100.00", wantPct: "0", wantTotal: "300.00"},
		{name: "four items ten percent", quantity: 4, unitPrice: "100.00", wantPct: "10", wantTotal: "360.00"},
		{name: "five items ten percent", quantity: 5, unitPrice: "100.00", wantPct: "10", wantTotal: "450.00"},
		{name: "nine items ten percent", quantity: 9, unitPrice: "100.00", wantPct: "10", wantTotal: "810.00"},
		{name: "ten items twenty percent", quantity: 10, unitPrice: "100.00", wantPct: "20", wantTotal: "800.00"},
		{name: "fifteen items twenty percent", quantity: 15, unitPrice: "50.00", wantPct: "20", wantTotal: "600.00"},
		{name: "twenty items twenty percent", quantity: 20, unitPrice: "100.00", wantPct: "20", wantTotal: "1600.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSale()
			require.NoError(t, s.AddItem(newTestItem(uuid.New(), tt.quantity, tt.unitPrice)))

			item := s.Items[0]
			assert.True(t, decimal.RequireFromString(tt.wantPct).Equal(item.DiscountPercentage),
				"pct: got %s", item.DiscountPercentage)
			assert.True(t, decimal.RequireFromString(tt.wantTotal).Equal(item.TotalAmount),
				"item total: got %s", item.TotalAmount)
			assert.True(t, decimal.RequireFromString(tt.wantTotal).Equal(s.TotalAmount),
				"sale total: got %s", s.TotalAmount)
		})
	}
}

func TestAddItem_QuantityAboveCapRejected(t *testing.T) {
	s := newTestSale()

	err := s.AddItem(newTestItem(uuid.New(), 21, "100.00"))

	var qe *QuantityExceededError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, 21, qe.Quantity)
	assert.Empty(t, s.Items)
	assert.True(t, s.TotalAmount.IsZero())
}

func TestAddItem_CombinedActiveQuantityCapped(t *testing.T) {
	s := newTestSale()
	productID := uuid.New()

	require.NoError(t, s.AddItem(newTestItem(productID, 15, "10.00")))

	err := s.AddItem(newTestItem(productID, 6, "10.00"))
	var qe *QuantityExceededError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, 21, qe.Quantity)

	// Up to the cap is fine.
	require.NoError(t, s.AddItem(newTestItem(productID, 5, "10.00")))
	assert.Len(t, s.Items, 2)
}

func TestAddItem_CancelledItemsFreeTheirQuantity(t *testing.T) {
	s := newTestSale()
	productID := uuid.New()

	require.NoError(t, s.AddItem(newTestItem(productID, 20, "10.00")))
	_, err := s.CancelItem(s.Items[0].ID)
	require.NoError(t, err)

	// The cap counts active items only, so the full quantity is available again.
	require.NoError(t, s.AddItem(newTestItem(productID, 20, "10.00")))
}

func TestAddItem_InvalidArguments(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int
		unitPrice string
	}{
		{name: "zero quantity", quantity: 0, unitPrice: "10.00"},
		{name: "negative quantity", quantity: -2, unitPrice: "10.00"},
		{name: "zero price", quantity: 1, unitPrice: "0"},
		{name: "negative price", quantity: 1, unitPrice: "-5.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSale()
			err := s.AddItem(newTestItem(uuid.New(), tt.quantity, tt.unitPrice))

			var ia *InvalidArgumentError
			require.ErrorAs(t, err, &ia)
			assert.Empty(t, s.Items)
		})
	}
}

func TestAddItem_OnCancelledSale(t *testing.T) {
	s := newTestSale()
	require.NoError(t, s.Cancel())

	err := s.AddItem(newTestItem(uuid.New(), 1, "10.00"))

	var is *InvalidStateError
	require.ErrorAs(t, err, &is)
}

func TestRemoveItem(t *testing.T) {
	s := newTestSale()
	require.NoError(t, s.AddItem(newTestItem(uuid.New(), 2, "30.00")))
	require.NoError(t, s.AddItem(newTestItem(uuid.New(), 1, "40.00")))

	require.NoError(t, s.RemoveItem(s.Items[0].ID))

	assert.Len(t, s.Items, 1)
	assert.True(t, decimal.RequireFromString("40.00").Equal(s.TotalAmount))
}

func TestRemoveItem_UnknownIDIsNoop(t *testing.T) {
	s := newTestSale()
	require.NoError(t, s.AddItem(newTestItem(uuid.New(), 2, "30.00")))

	require.NoError(t, s.RemoveItem(uuid.New()))

	assert.Len(t, s.Items, 1)
	assert.True(t, decimal.RequireFromString("60.00").Equal(s.TotalAmount))
}

func TestRemoveItem_OnCancelledSale(t *testing.T) {
	s := newTestSale()
	require.NoError(t, s.AddItem(newTestItem(uuid.New(), 2, "30.00")))
	require.NoError(t, s.Cancel())

	var is *InvalidStateError
	require.ErrorAs(t, s.RemoveItem(s.Items[0].ID), &is)
}

func TestCancel_CascadesToItems(t *testing.T) {
	s := newTestSale()
	require.NoError(t, s.AddItem(newTestItem(uuid.New(), 2, "30.00")))
	require.NoError(t, s.AddItem(newTestItem(uuid.New(), 5, "100.00")))

	require.NoError(t, s.Cancel())

	assert.True(t, s.Cancelled)
	require.NotNil(t, s.CancelledAt)
	for _, item := range s.Items {
		assert.True(t, item.Cancelled)
		assert.NotNil(t, item.CancelledAt)
	}
	assert.True(t, s.TotalAmount.IsZero())
}

func TestCancel_Twice(t *testing.T) {
	s := newTestSale()
	require.NoError(t, s.AddItem(newTestItem(uuid.New(), 2, "30.00")))
	require.NoError(t, s.Cancel())
	firstCancelledAt := *s.CancelledAt

	var is *InvalidStateError
	require.ErrorAs(t, s.Cancel(), &is)

	// First cancellation's effects are unchanged.
	assert.True(t, s.Cancelled)
	assert.Equal(t, firstCancelledAt, *s.CancelledAt)
}

func TestCancel_CascadeSkipsAlreadyCancelledItems(t *testing.T) {
	s := newTestSale()
	require.NoError(t, s.AddItem(newTestItem(uuid.New(), 2, "30.00")))
	require.NoError(t, s.AddItem(newTestItem(uuid.New(), 1, "40.00")))

	item, err := s.CancelItem(s.Items[0].ID)
	require.NoError(t, err)
	itemCancelledAt := *item.CancelledAt

	// Cancelling the sale must not trip the item's terminal-state guard.
	require.NoError(t, s.Cancel())
	assert.Equal(t, itemCancelledAt, *s.Items[0].CancelledAt)
}

func TestCancelItem(t *testing.T) {
	s := newTestSale()
	require.NoError(t, s.AddItem(newTestItem(uuid.New(), 2, "30.00")))
	require.NoError(t, s.AddItem(newTestItem(uuid.New(), 1, "40.00")))

	item, err := s.CancelItem(s.Items[0].ID)
	require.NoError(t, err)

	assert.True(t, item.Cancelled)
	// Amounts are frozen, but excluded from the sale total.
	assert.True(t, decimal.RequireFromString("60.00").Equal(item.TotalAmount))
	assert.True(t, decimal.RequireFromString("40.00").Equal(s.TotalAmount))
}

func TestCancelItem_Twice(t *testing.T) {
	s := newTestSale()
	require.NoError(t, s.AddItem(newTestItem(uuid.New(), 2, "30.00")))
	_, err := s.CancelItem(s.Items[0].ID)
	require.NoError(t, err)

	_, err = s.CancelItem(s.Items[0].ID)
	var is *InvalidStateError
	require.ErrorAs(t, err, &is)
}

func TestCancelItem_Unknown(t *testing.T) {
	s := newTestSale()
	_, err := s.CancelItem(uuid.New())
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestUpdateItemQuantity(t *testing.T) {
	s := newTestSale()
	require.NoError(t, s.AddItem(newTestItem(uuid.New(), 2, "100.00")))

	require.NoError(t, s.UpdateItemQuantity(s.Items[0].ID, 10))

	item := s.Items[0]
	assert.Equal(t, 10, item.Quantity)
	assert.True(t, decimal.RequireFromString("20").Equal(item.DiscountPercentage))
	assert.True(t, decimal.RequireFromString("800.00").Equal(s.TotalAmount))
}

func TestUpdateItemQuantity_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
	}{
		{name: "zero", quantity: 0},
		{name: "negative", quantity: -1},
		{name: "above cap", quantity: 21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSale()
			require.NoError(t, s.AddItem(newTestItem(uuid.New(), 2, "100.00")))

			err := s.UpdateItemQuantity(s.Items[0].ID, tt.quantity)

			var ia *InvalidArgumentError
			require.ErrorAs(t, err, &ia)
			assert.Equal(t, 2, s.Items[0].Quantity)
			assert.True(t, decimal.RequireFromString("200.00").Equal(s.TotalAmount))
		})
	}
}

func TestUpdateItemUnitPrice(t *testing.T) {
	s := newTestSale()
	require.NoError(t, s.AddItem(newTestItem(uuid.New(), 5, "100.00")))

	require.NoError(t, s.UpdateItemUnitPrice(s.Items[0].ID, decimal.RequireFromString("200.00")))

	// Tier stays at 10% for quantity 5; amounts re-derived.
	assert.True(t, decimal.RequireFromString("900.00").Equal(s.TotalAmount))
}

func TestUpdateItem_RejectedPairLeavesSaleUntouched(t *testing.T) {
	s := newTestSale()
	require.NoError(t, s.AddItem(newTestItem(uuid.New(), 2, "100.00")))
	itemID := s.Items[0].ID

	// A valid quantity paired with an invalid price must not apply either.
	qty := 10
	badPrice := decimal.RequireFromString("-1")
	err := s.UpdateItem(itemID, &qty, &badPrice)

	var ia *InvalidArgumentError
	require.ErrorAs(t, err, &ia)
	assert.Equal(t, 2, s.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("100.00").Equal(s.Items[0].UnitPrice))
	assert.True(t, decimal.RequireFromString("200.00").Equal(s.TotalAmount))
}

func TestUpdateItem_QuantityAndPriceTogether(t *testing.T) {
	s := newTestSale()
	require.NoError(t, s.AddItem(newTestItem(uuid.New(), 2, "100.00")))

	qty := 10
	price := decimal.RequireFromString("50.00")
	require.NoError(t, s.UpdateItem(s.Items[0].ID, &qty, &price))

	// 10 * 50 at the 20% tier.
	assert.True(t, decimal.RequireFromString("400.00").Equal(s.TotalAmount))
}

func TestUpdateItem_OnCancelledItem(t *testing.T) {
	s := newTestSale()
	require.NoError(t, s.AddItem(newTestItem(uuid.New(), 5, "100.00")))
	_, err := s.CancelItem(s.Items[0].ID)
	require.NoError(t, err)

	var is *InvalidStateError
	require.ErrorAs(t, s.UpdateItemQuantity(s.Items[0].ID, 3), &is)
	require.ErrorAs(t, s.UpdateItemUnitPrice(s.Items[0].ID, decimal.NewFromInt(10)), &is)
}

func TestTotal_ExcludesCancelledItems(t *testing.T) {
	s := newTestSale()
	require.NoError(t, s.AddItem(newTestItem(uuid.New(), 5, "100.00")))  // 450.00
	require.NoError(t, s.AddItem(newTestItem(uuid.New(), 15, "50.00"))) // 600.00

	assert.True(t, decimal.RequireFromString("1050.00").Equal(s.TotalAmount))

	_, err := s.CancelItem(s.Items[1].ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("450.00").Equal(s.TotalAmount))
}
