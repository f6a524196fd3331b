package order

import "fmt"

// Sentinel errors for order validation and lookups.
var (
	ErrEmptyItems             = fmt.Errorf("items required")
	ErrMissingShippingAddress = fmt.Errorf("shipping address required")
	ErrNotFound               = fmt.Errorf("order not found")
)

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// InvalidProductIDError indicates a line item references a malformed
// product identifier.
type InvalidProductIDError struct {
	ProductID string
}

func (e *InvalidProductIDError) Error() string {
	return fmt.Sprintf("invalid product id %q", e.ProductID)
}

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InsufficientStockError indicates a line requested more units than the
// product currently has. The whole order is aborted; no stock is touched.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// InvalidTransitionError indicates a disallowed status change.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition %s -> %s", e.From, e.To)
}
