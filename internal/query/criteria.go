// Package query holds the data-first filtering and pagination model shared by
// every entity kind: a Filter is a list of tagged Criterion values combined by
// AND, which the storage layer translates into its native query language.
package query

import "strings"

// Op enumerates the comparison kinds a Criterion can express.
type Op uint8

const (
	// OpEquals matches the field exactly (case-insensitive for text).
	OpEquals Op = iota
	// OpContains matches text fields containing the operand.
	OpContains
	// OpPrefix matches text fields starting with the operand.
	OpPrefix
	// OpSuffix matches text fields ending with the operand.
	OpSuffix
	// OpGTE matches fields greater than or equal to the operand.
	OpGTE
	// OpLTE matches fields less than or equal to the operand.
	OpLTE
)

// Criterion is one optional search condition bound to a named field.
// It is a plain value: stateless, serializable, and entity-agnostic.
type Criterion struct {
	Field string
	Op    Op
	Value any
}

// Filter is an ordered list of criteria combined with logical AND.
// An empty Filter matches everything.
type Filter []Criterion

// And appends criteria to the filter and returns the extended filter.
func (f Filter) And(cs ...Criterion) Filter {
	return append(f, cs...)
}

// Eq builds an exact-match criterion.
func Eq(field string, value any) Criterion {
	return Criterion{Field: field, Op: OpEquals, Value: value}
}

// Min builds a lower-bound criterion (field >= value).
func Min(field string, value any) Criterion {
	return Criterion{Field: field, Op: OpGTE, Value: value}
}

// Max builds an upper-bound criterion (field <= value).
func Max(field string, value any) Criterion {
	return Criterion{Field: field, Op: OpLTE, Value: value}
}

// Text builds a string-match criterion applying the wildcard sentinel policy:
//
//	*term*  -> contains
//	*term   -> suffix
//	term*   -> prefix
//	term    -> contains (bare values behave like *term*)
//
// All text matching is case-insensitive. The sentinel characters are stripped
// from the operand; escaping the store's own pattern syntax is the storage
// layer's concern.
func Text(field, value string) Criterion {
	prefix := strings.HasPrefix(value, "*")
	suffix := strings.HasSuffix(value, "*") && len(value) > 1

	term := strings.Trim(value, "*")
	switch {
	case prefix && suffix:
		return Criterion{Field: field, Op: OpContains, Value: term}
	case prefix:
		return Criterion{Field: field, Op: OpSuffix, Value: term}
	case suffix:
		return Criterion{Field: field, Op: OpPrefix, Value: term}
	default:
		return Criterion{Field: field, Op: OpContains, Value: term}
	}
}
