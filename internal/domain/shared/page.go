package shared

// Page size bounds for list endpoints
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Filter is the paging and ordering part of a list query. OrderBy is a
// whitelist key owned by the repository, never a column expression.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// DefaultFilter starts on the first page, newest rows first
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: DefaultPageSize, OrderBy: "created_at", OrderDir: "desc"}
}

// Normalize clamps the page to at least 1 and the size to 1..MaxPageSize,
// substituting DefaultPageSize for an unset size
func (f *Filter) Normalize() {
	f.Page = max(f.Page, 1)
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	f.PageSize = min(f.PageSize, MaxPageSize)
}

func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Paginated is one page of T together with the size of the whole result
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated reports at least one page, so an empty result is page 1 of 1
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	pages := int64(1)
	if pageSize > 0 && total > 0 {
		pages = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return Paginated[T]{Items: items, Total: total, Page: page, PageSize: pageSize, TotalPages: int(pages)}
}
