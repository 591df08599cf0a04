package user

import "github.com/avetra/sales-api/internal/query"

// FilterParams is the flat set of optional search criteria for users.
type FilterParams struct {
	Email     string
	Username  string
	Status    string
	Role      string
	FirstName string
	LastName  string
	City      string
}

// Filter compiles the supplied parameters into one compound predicate.
// Unparseable status or role names are silently dropped.
func (p FilterParams) Filter() query.Filter {
	var f query.Filter

	if p.Email != "" {
		f = f.And(query.Text("email", p.Email))
	}
	if p.Username != "" {
		f = f.And(query.Text("username", p.Username))
	}
	if p.Status != "" {
		if status, ok := ParseStatus(p.Status); ok {
			f = f.And(query.Eq("status", string(status)))
		}
	}
	if p.Role != "" {
		if role, ok := ParseRole(p.Role); ok {
			f = f.And(query.Eq("role", string(role)))
		}
	}
	if p.FirstName != "" {
		f = f.And(query.Text("name.firstName", p.FirstName))
	}
	if p.LastName != "" {
		f = f.And(query.Text("name.lastName", p.LastName))
	}
	if p.City != "" {
		f = f.And(query.Text("address.city", p.City))
	}

	return f
}

// DefaultSort is the documented default ordering for user pages: username
// ascending.
var DefaultSort = []query.Sort{{Field: "username"}}

var sortableFields = map[string]struct{}{
	"username":  {},
	"email":     {},
	"status":    {},
	"role":      {},
	"createdAt": {},
}

// SortableField reports whether a user page may be ordered by the field.
func SortableField(name string) bool {
	_, ok := sortableFields[name]
	return ok
}
