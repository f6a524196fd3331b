package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hallertau/storefront/internal/domain/product"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	lastOrder *Order
	lastItems []Item
	createErr error
}

func (m *mockOrderRepo) CreatePending(_ context.Context, o *Order, items []Item) (*Order, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.lastOrder = o
	m.lastItems = items
	return o, nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, _ string) (*Order, error) { return nil, ErrNotFound }

func (m *mockOrderRepo) ListByUser(_ context.Context, _ string) ([]Order, error) { return nil, nil }

func (m *mockOrderRepo) List(_ context.Context, _ product.Page) ([]Order, int, error) {
	return nil, 0, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, _ string, _ Status) (*Order, error) {
	return nil, ErrNotFound
}

// --- Helpers ---

var (
	widgetID = uuid.NewString()
	gadgetID = uuid.NewString()
)

func validRequest(items ...Item) PlaceOrderRequest {
	return PlaceOrderRequest{
		UserID:          "user-1",
		ShippingAddress: "1 Main St",
		Items:           items,
	}
}

// --- Tests ---

func TestPlaceOrder_EmptyItems(t *testing.T) {
	svc := NewService(&mockOrderRepo{})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{ShippingAddress: "1 Main St"})
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestPlaceOrder_MissingShippingAddress(t *testing.T) {
	svc := NewService(&mockOrderRepo{})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Items: []Item{{ProductID: widgetID, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrMissingShippingAddress)
}

func TestPlaceOrder_InvalidQuantity(t *testing.T) {
	svc := NewService(&mockOrderRepo{})

	_, err := svc.PlaceOrder(context.Background(), validRequest(Item{ProductID: widgetID, Quantity: 0}))

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, widgetID, iqErr.ProductID)
}

func TestPlaceOrder_InvalidProductID(t *testing.T) {
	svc := NewService(&mockOrderRepo{})

	_, err := svc.PlaceOrder(context.Background(), validRequest(Item{ProductID: "not-a-uuid", Quantity: 1}))

	var ipErr *InvalidProductIDError
	require.ErrorAs(t, err, &ipErr)
	assert.Equal(t, "not-a-uuid", ipErr.ProductID)
}

func TestPlaceOrder_MergesDuplicateProducts(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := NewService(repo)

	_, err := svc.PlaceOrder(context.Background(), validRequest(
		Item{ProductID: widgetID, Quantity: 2},
		Item{ProductID: gadgetID, Quantity: 1},
		Item{ProductID: widgetID, Quantity: 3},
	))
	require.NoError(t, err)

	require.Len(t, repo.lastItems, 2)
	byID := map[string]int{}
	for _, item := range repo.lastItems {
		byID[item.ProductID] = item.Quantity
	}
	assert.Equal(t, 5, byID[widgetID])
	assert.Equal(t, 1, byID[gadgetID])
}

func TestPlaceOrder_ItemsSortedByProductID(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := NewService(repo)

	_, err := svc.PlaceOrder(context.Background(), validRequest(
		Item{ProductID: gadgetID, Quantity: 1},
		Item{ProductID: widgetID, Quantity: 1},
	))
	require.NoError(t, err)

	require.Len(t, repo.lastItems, 2)
	assert.Less(t, repo.lastItems[0].ProductID, repo.lastItems[1].ProductID)
}

func TestPlaceOrder_Defaults(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := NewService(repo)

	o, err := svc.PlaceOrder(context.Background(), validRequest(Item{ProductID: widgetID, Quantity: 1}))
	require.NoError(t, err)

	assert.NoError(t, uuid.Validate(o.ID))
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, DefaultPaymentMethod, o.PaymentMethod)
	assert.Equal(t, "user-1", o.UserID)
}

func TestPlaceOrder_RepositoryErrorPropagates(t *testing.T) {
	insufficient := &InsufficientStockError{ProductID: widgetID, Requested: 2, Available: 1}
	svc := NewService(&mockOrderRepo{createErr: insufficient})

	_, err := svc.PlaceOrder(context.Background(), validRequest(Item{ProductID: widgetID, Quantity: 2}))

	var isErr *InsufficientStockError
	require.ErrorAs(t, err, &isErr)
	assert.Equal(t, widgetID, isErr.ProductID)
}

func TestPlaceOrder_StoreFailureWrapped(t *testing.T) {
	svc := NewService(&mockOrderRepo{createErr: errors.New("db write failed")})

	_, err := svc.PlaceOrder(context.Background(), validRequest(Item{ProductID: widgetID, Quantity: 1}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
}

func TestGetOrder_MalformedID(t *testing.T) {
	svc := NewService(&mockOrderRepo{})

	_, err := svc.GetOrder(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBuildLines_SnapshotsAndTotal(t *testing.T) {
	products := map[string]product.Product{
		widgetID: {ID: widgetID, Name: "Widget", Price: decimal.RequireFromString("10.00"), Stock: 5},
		gadgetID: {ID: gadgetID, Name: "Gadget", Price: decimal.RequireFromString("19.99"), Stock: 2},
	}
	items := []Item{
		{ProductID: widgetID, Quantity: 2},
		{ProductID: gadgetID, Quantity: 1},
	}

	lines, total, err := BuildLines(items, products)
	require.NoError(t, err)

	require.Len(t, lines, 2)
	assert.Equal(t, "Widget", lines[0].ProductName)
	assert.True(t, decimal.RequireFromString("10.00").Equal(lines[0].UnitPrice))
	assert.True(t, decimal.RequireFromString("39.99").Equal(total))
}

func TestBuildLines_InsufficientStockAborts(t *testing.T) {
	products := map[string]product.Product{
		widgetID: {ID: widgetID, Name: "Widget", Price: decimal.NewFromInt(10), Stock: 1},
	}

	_, _, err := BuildLines([]Item{{ProductID: widgetID, Quantity: 2}}, products)

	var isErr *InsufficientStockError
	require.ErrorAs(t, err, &isErr)
	assert.Equal(t, 2, isErr.Requested)
	assert.Equal(t, 1, isErr.Available)
}

func TestBuildLines_UnknownProductAborts(t *testing.T) {
	_, _, err := BuildLines([]Item{{ProductID: widgetID, Quantity: 1}}, nil)

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, widgetID, pnfErr.ProductID)
}
