package query

import "strings"

// Sort is one ordering key of an order-by expression.
type Sort struct {
	Field string
	Desc  bool
}

// ParseOrderBy parses a comma-separated list of "<field> [asc|desc]" tokens.
// Field names not accepted by allowed are dropped; if nothing survives, the
// fallback ordering is returned so callers never produce an unordered or
// invalid sort expression.
func ParseOrderBy(orderBy string, allowed func(field string) bool, fallback []Sort) []Sort {
	var sorts []Sort
	for _, token := range strings.Split(orderBy, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		parts := strings.Fields(token)
		field := parts[0]
		if !allowed(field) {
			continue
		}

		desc := len(parts) > 1 && strings.EqualFold(parts[1], "desc")
		sorts = append(sorts, Sort{Field: field, Desc: desc})
	}

	if len(sorts) == 0 {
		return fallback
	}
	return sorts
}
