package query

const (
	// DefaultPageSize is used when the caller does not specify a size.
	DefaultPageSize = 10
	// MaxPageSize caps the number of items a single page may return.
	MaxPageSize = 100
)

// PageRequest describes the paging and ordering portion of a query.
type PageRequest struct {
	Page    int
	Size    int
	OrderBy string
}

// Normalize clamps the request to valid bounds: page >= 1 and
// 1 <= size <= MaxPageSize. A zero size falls back to DefaultPageSize.
func (r PageRequest) Normalize() PageRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Size == 0 {
		r.Size = DefaultPageSize
	}
	if r.Size < 1 {
		r.Size = 1
	}
	if r.Size > MaxPageSize {
		r.Size = MaxPageSize
	}
	return r
}

// Offset returns the number of items to skip for the (normalized) request.
func (r PageRequest) Offset() int {
	return (r.Page - 1) * r.Size
}

// PageResult is one page of items plus the paging metadata derived from the
// total count of the filtered set.
type PageResult[T any] struct {
	Items       []T   `json:"data"`
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
	HasPrevious bool  `json:"hasPreviousPage"`
	HasNext     bool  `json:"hasNextPage"`
}

// NewPageResult derives the paging metadata for a result page. TotalPages is
// ceil(total/size), zero when the filtered set is empty; HasNext is false on
// and past the last page.
func NewPageResult[T any](items []T, total int64, page, size int) PageResult[T] {
	if items == nil {
		items = []T{}
	}
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if total < 0 {
		total = 0
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}

	return PageResult[T]{
		Items:       items,
		CurrentPage: page,
		PageSize:    size,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasPrevious: page > 1,
		HasNext:     page < totalPages,
	}
}
