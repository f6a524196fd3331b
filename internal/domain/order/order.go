package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hallertau/storefront/internal/domain/product"
)

// DefaultPaymentMethod is applied when a request does not name one.
const DefaultPaymentMethod = "cash-on-delivery"

// Line is a single fulfilled position of an order. ProductName and UnitPrice
// are snapshots taken inside the fulfillment transaction; later catalog
// changes never affect a placed order.
type Line struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// Subtotal returns quantity times unit price.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order represents a placed customer order. TotalAmount is computed once at
// placement and frozen.
type Order struct {
	ID              string
	UserID          string
	Lines           []Line
	TotalAmount     decimal.Decimal
	Status          Status
	ShippingAddress string
	Phone           string
	Notes           string
	PaymentMethod   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Item is a requested (product, quantity) pair before fulfillment.
type Item struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Repository defines persistence operations for orders.
//
// CreatePending is the atomic heart of the engine: implementations must
// decrement stock for every item and insert the order as one unit, so that no
// reader ever observes a partial decrement. The stored order carries
// name/price snapshots taken from the product rows inside that same unit.
type Repository interface {
	CreatePending(ctx context.Context, o *Order, items []Item) (*Order, error)
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	List(ctx context.Context, page product.Page) ([]Order, int, error)
	// UpdateStatus transitions the order to the given status, enforcing the
	// state machine, and restocks every line when a PENDING or CONFIRMED
	// order is cancelled. Enforcement and restock happen atomically with the
	// status write.
	UpdateStatus(ctx context.Context, id string, to Status) (*Order, error)
}
