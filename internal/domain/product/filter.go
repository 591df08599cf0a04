package product

import (
	"github.com/shopspring/decimal"

	"github.com/avetra/sales-api/internal/query"
)

// FilterParams is the flat set of optional search criteria for products.
// Range inversion (min > max) is the caller's responsibility.
type FilterParams struct {
	Title    string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Status   string
	MinStock *int
	MaxStock *int
}

// Filter compiles the supplied parameters into one compound predicate.
// An unparseable status is silently dropped.
func (p FilterParams) Filter() query.Filter {
	var f query.Filter

	if p.Title != "" {
		f = f.And(query.Text("title", p.Title))
	}
	if p.Category != "" {
		f = f.And(query.Text("category", p.Category))
	}
	if p.MinPrice != nil {
		f = f.And(query.Min("price", *p.MinPrice))
	}
	if p.MaxPrice != nil {
		f = f.And(query.Max("price", *p.MaxPrice))
	}
	if p.Status != "" {
		if status, ok := ParseStatus(p.Status); ok {
			f = f.And(query.Eq("status", string(status)))
		}
	}
	if p.MinStock != nil {
		f = f.And(query.Min("stock", *p.MinStock))
	}
	if p.MaxStock != nil {
		f = f.And(query.Max("stock", *p.MaxStock))
	}

	return f
}

// DefaultSort is the documented default ordering for product pages: title
// ascending.
var DefaultSort = []query.Sort{{Field: "title"}}

var sortableFields = map[string]struct{}{
	"title":     {},
	"category":  {},
	"price":     {},
	"stock":     {},
	"createdAt": {},
}

// SortableField reports whether a product page may be ordered by the field.
func SortableField(name string) bool {
	_, ok := sortableFields[name]
	return ok
}
