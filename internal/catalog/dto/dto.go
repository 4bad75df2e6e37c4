package dto

// SearchFilters is one page request against the catalog. There is no total
// count in the response; a page shorter than Limit is the last one.
type SearchFilters struct {
	Search string `json:"search"`
	Page   int    `json:"page"`  // 1-based
	Limit  int    `json:"limit"` // page size
}

func (f *SearchFilters) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}
