package ledger

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a normalised page request.
type Page struct {
	Page  int
	Limit int
}

// NewPage clamps page and limit to sane values.
func NewPage(page, limit int) Page {
	if page <= 0 {
		page = 1
	}
	switch {
	case limit > MaxPageSize:
		limit = MaxPageSize
	case limit <= 0:
		limit = DefaultPageSize
	}
	return Page{Page: page, Limit: limit}
}

// Offset is the number of rows to skip.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages returns ceil(total/limit), zero for an empty set.
func (p Page) TotalPages(total int64) int {
	if total <= 0 {
		return 0
	}
	l := int64(p.Limit)
	return int((total + l - 1) / l)
}
