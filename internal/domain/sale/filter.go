package sale

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avetra/sales-api/internal/query"
)

// FilterParams is the flat set of optional search criteria for sales. Absent
// (zero) parameters contribute no criterion. Callers are responsible for
// rejecting inverted ranges before compiling; the compiler does not
// re-validate them.
type FilterParams struct {
	SaleNumber     string
	CustomerID     uuid.UUID
	CustomerName   string
	CustomerEmail  string
	BranchID       uuid.UUID
	BranchName     string
	MinSaleDate    *time.Time
	MaxSaleDate    *time.Time
	MinTotalAmount *decimal.Decimal
	MaxTotalAmount *decimal.Decimal
	Status         string
}

// Filter compiles the supplied parameters into one compound predicate.
// Unknown status values are silently dropped rather than failing.
func (p FilterParams) Filter() query.Filter {
	var f query.Filter

	if p.SaleNumber != "" {
		f = f.And(query.Text("saleNumber", p.SaleNumber))
	}
	if p.CustomerID != uuid.Nil {
		f = f.And(query.Eq("customerId", p.CustomerID))
	}
	if p.CustomerName != "" {
		f = f.And(query.Text("customerName", p.CustomerName))
	}
	if p.CustomerEmail != "" {
		f = f.And(query.Text("customerEmail", p.CustomerEmail))
	}
	if p.BranchID != uuid.Nil {
		f = f.And(query.Eq("branchId", p.BranchID))
	}
	if p.BranchName != "" {
		f = f.And(query.Text("branchName", p.BranchName))
	}
	if p.MinSaleDate != nil {
		f = f.And(query.Min("saleDate", *p.MinSaleDate))
	}
	if p.MaxSaleDate != nil {
		f = f.And(query.Max("saleDate", *p.MaxSaleDate))
	}
	if p.MinTotalAmount != nil {
		f = f.And(query.Min("totalAmount", *p.MinTotalAmount))
	}
	if p.MaxTotalAmount != nil {
		f = f.And(query.Max("totalAmount", *p.MaxTotalAmount))
	}

	switch p.Status {
	case "":
	default:
		if cancelled, ok := parseStatus(p.Status); ok {
			f = f.And(query.Eq("cancelled", cancelled))
		}
	}

	return f
}

// parseStatus maps the status filter to the cancellation flag. Unrecognized
// names report ok=false and the filter is dropped.
func parseStatus(status string) (cancelled, ok bool) {
	switch {
	case strings.EqualFold(status, "active"):
		return false, true
	case strings.EqualFold(status, "cancelled"):
		return true, true
	default:
		return false, false
	}
}

// DefaultSort is the documented default ordering for sale pages: most recent
// sale first.
var DefaultSort = []query.Sort{{Field: "saleDate", Desc: true}}

var sortableFields = map[string]struct{}{
	"saleNumber":   {},
	"saleDate":     {},
	"customerName": {},
	"branchName":   {},
	"totalAmount":  {},
	"createdAt":    {},
}

// SortableField reports whether a sale page may be ordered by the field.
func SortableField(name string) bool {
	_, ok := sortableFields[name]
	return ok
}
