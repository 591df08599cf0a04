package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/avetra/sales-api/internal/query"
)

// FilterParams is the flat set of optional search criteria for carts.
type FilterParams struct {
	UserID  uuid.UUID
	MinDate *time.Time
	MaxDate *time.Time
}

// Filter compiles the supplied parameters into one compound predicate.
func (p FilterParams) Filter() query.Filter {
	var f query.Filter

	if p.UserID != uuid.Nil {
		f = f.And(query.Eq("userId", p.UserID))
	}
	if p.MinDate != nil {
		f = f.And(query.Min("date", *p.MinDate))
	}
	if p.MaxDate != nil {
		f = f.And(query.Max("date", *p.MaxDate))
	}

	return f
}

// DefaultSort is the documented default ordering for cart pages: most recent
// first.
var DefaultSort = []query.Sort{{Field: "date", Desc: true}}

var sortableFields = map[string]struct{}{
	"date":   {},
	"userId": {},
}

// SortableField reports whether a cart page may be ordered by the field.
func SortableField(name string) bool {
	_, ok := sortableFields[name]
	return ok
}
