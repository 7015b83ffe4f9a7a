package domain

// PaginationParams carries 1-based page selection for list operations.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Offset returns the zero-based offset for the current page.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}
