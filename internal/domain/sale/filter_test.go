package sale

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/avetra/sales-api/internal/query"
)

func TestFilterParams_Empty(t *testing.T) {
	assert.Empty(t, FilterParams{}.Filter())
}

func TestFilterParams_AllSupplied(t *testing.T) {
	customerID := uuid.New()
	minDate := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	maxDate := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	minTotal := decimal.NewFromInt(100)
	maxTotal := decimal.NewFromInt(1000)

	f := FilterParams{
		SaleNumber:     "*001*",
		CustomerID:     customerID,
		CustomerName:   "Ana*",
		CustomerEmail:  "*@example.com",
		BranchName:     "Downtown",
		MinSaleDate:    &minDate,
		MaxSaleDate:    &maxDate,
		MinTotalAmount: &minTotal,
		MaxTotalAmount: &maxTotal,
		Status:         "Cancelled",
	}.Filter()

	assert.Len(t, f, 10)
	assert.Equal(t, query.Criterion{Field: "saleNumber", Op: query.OpContains, Value: "001"}, f[0])
	assert.Equal(t, query.Criterion{Field: "customerId", Op: query.OpEquals, Value: customerID}, f[1])
	assert.Equal(t, query.Criterion{Field: "customerName", Op: query.OpPrefix, Value: "Ana"}, f[2])
	assert.Equal(t, query.Criterion{Field: "customerEmail", Op: query.OpSuffix, Value: "@example.com"}, f[3])
	assert.Equal(t, query.Criterion{Field: "cancelled", Op: query.OpEquals, Value: true}, f[9])
}

func TestFilterParams_UnknownStatusDropped(t *testing.T) {
	f := FilterParams{Status: "archived"}.Filter()
	assert.Empty(t, f)
}

func TestFilterParams_StatusCaseInsensitive(t *testing.T) {
	f := FilterParams{Status: "ACTIVE"}.Filter()
	assert.Equal(t, query.Filter{query.Eq("cancelled", false)}, f)
}

func TestSortableField(t *testing.T) {
	assert.True(t, SortableField("saleDate"))
	assert.True(t, SortableField("totalAmount"))
	assert.False(t, SortableField("customerEmail"))
	assert.False(t, SortableField("password"))
}
