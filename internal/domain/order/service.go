package order

import (
	"context"
	"sort"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/hallertau/storefront/internal/domain/product"
)

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	UserID          string
	ShippingAddress string
	Phone           string
	Notes           string
	PaymentMethod   string
	Items           []Item
}

// Service encapsulates order placement and lifecycle business logic.
type Service struct {
	orders Repository
}

// NewService creates an order Service backed by the given repository.
func NewService(orders Repository) *Service {
	return &Service{orders: orders}
}

// PlaceOrder validates the request, merges duplicate product lines, and
// delegates the all-or-nothing stock reservation plus order insert to the
// repository. Either every item is reserved and the order exists, or nothing
// changed.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if req.ShippingAddress == "" {
		return nil, ErrMissingShippingAddress
	}

	items, err := mergeItems(req.Items)
	if err != nil {
		return nil, err
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}

	o := &Order{
		ID:              uuid.New().String(),
		UserID:          req.UserID,
		Status:          StatusPending,
		ShippingAddress: req.ShippingAddress,
		Phone:           req.Phone,
		Notes:           req.Notes,
		PaymentMethod:   paymentMethod,
	}

	placed, err := s.orders.CreatePending(ctx, o, items)
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return placed, nil
}

// mergeItems validates quantities and product id format, and merges duplicate
// product ids by summing their quantities. The result is sorted by product id
// so callers acquire per-product locks in a stable total order.
func mergeItems(items []Item) ([]Item, error) {
	quantities := make(map[string]int, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		if uuid.Validate(item.ProductID) != nil {
			return nil, &InvalidProductIDError{ProductID: item.ProductID}
		}
		quantities[item.ProductID] += item.Quantity
	}

	merged := make([]Item, 0, len(quantities))
	for id, qty := range quantities {
		merged = append(merged, Item{ProductID: id, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ProductID < merged[j].ProductID })
	return merged, nil
}

// GetOrder returns a single order by id.
func (s *Service) GetOrder(ctx context.Context, id string) (*Order, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	return s.orders.GetByID(ctx, id)
}

// ListOrdersByUser returns the given principal's orders, newest first.
func (s *Service) ListOrdersByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// ListOrders returns one page of all orders plus the total count.
func (s *Service) ListOrders(ctx context.Context, page product.Page) ([]Order, int, error) {
	return s.orders.List(ctx, page.Clamp())
}

// UpdateOrderStatus moves the order through its state machine. The repository
// enforces the transition atomically with the write and restocks cancelled
// reservations.
func (s *Service) UpdateOrderStatus(ctx context.Context, id string, to Status) (*Order, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	return s.orders.UpdateStatus(ctx, id, to)
}
