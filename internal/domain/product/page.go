package product

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Page describes a bounded slice of a listing. Use Clamp before handing a
// client-supplied page to a repository.
type Page struct {
	Number int
	Size   int
}

// Clamp normalizes the page to safe bounds: number >= 1, 1 <= size <= 100,
// defaulting size to 10 when unset.
func (p Page) Clamp() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	return p
}

// Offset returns the number of records to skip for this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}
