package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hallertau/storefront/internal/domain/comment"
	"github.com/hallertau/storefront/internal/domain/coupon"
	"github.com/hallertau/storefront/internal/domain/order"
	"github.com/hallertau/storefront/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	products []product.Product
	byID     map[string]*product.Product
	listErr  error
}

func (m *mockProductRepo) List(_ context.Context, _ product.Page, _ string) ([]product.Product, int, error) {
	return m.products, len(m.products), m.listErr
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) Categories(_ context.Context) ([]string, error) {
	return []string{"test"}, nil
}

func (m *mockProductRepo) UpdateAggregates(_ context.Context, id string, _ decimal.Decimal, _ int, _ int64) error {
	if _, ok := m.byID[id]; !ok {
		return product.ErrNotFound
	}
	return nil
}

func (m *mockProductRepo) Create(_ context.Context, p *product.Product) error {
	m.byID[p.ID] = p
	return nil
}

type mockOrderRepo struct {
	products  map[string]product.Product
	byID      map[string]*order.Order
	createErr error
}

func (m *mockOrderRepo) CreatePending(_ context.Context, o *order.Order, items []order.Item) (*order.Order, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	lines, total, err := order.BuildLines(items, m.products)
	if err != nil {
		return nil, err
	}
	placed := *o
	placed.Lines = lines
	placed.TotalAmount = total
	m.byID[placed.ID] = &placed
	return &placed, nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID string) ([]order.Order, error) {
	var out []order.Order
	for _, o := range m.byID {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) List(_ context.Context, _ product.Page) ([]order.Order, int, error) {
	out := make([]order.Order, 0, len(m.byID))
	for _, o := range m.byID {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id string, to order.Status) (*order.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	if !o.Status.CanTransitionTo(to) {
		return nil, &order.InvalidTransitionError{From: o.Status, To: to}
	}
	o.Status = to
	return o, nil
}

type mockCommentRepo struct {
	byID map[string]*comment.Comment
}

func (m *mockCommentRepo) Create(_ context.Context, c *comment.Comment) error {
	m.byID[c.ID] = c
	return nil
}

func (m *mockCommentRepo) GetByID(_ context.Context, id string) (*comment.Comment, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, comment.ErrNotFound
	}
	return c, nil
}

func (m *mockCommentRepo) Update(_ context.Context, c *comment.Comment) error {
	m.byID[c.ID] = c
	return nil
}

func (m *mockCommentRepo) Delete(_ context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

func (m *mockCommentRepo) ListByProduct(_ context.Context, productID string) ([]comment.Comment, error) {
	var out []comment.Comment
	for _, c := range m.byID {
		if c.ProductID == productID {
			out = append(out, *c)
		}
	}
	return out, nil
}

type mockCouponRepo struct {
	byCode map[string]*coupon.Coupon
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	c, ok := m.byCode[strings.ToUpper(code)]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return c, nil
}

func (m *mockCouponRepo) RedeemByCode(_ context.Context, code string, now time.Time) (*coupon.Coupon, error) {
	c, ok := m.byCode[strings.ToUpper(code)]
	if !ok {
		return nil, coupon.ErrNotRedeemable
	}
	if !c.IsActive ||
		(c.ExpiresAt != nil && !c.ExpiresAt.After(now)) ||
		(c.MaxUsage > 0 && c.UsageCount >= c.MaxUsage) {
		return nil, coupon.ErrNotRedeemable
	}
	c.UsageCount++
	return c, nil
}

func (m *mockCouponRepo) Create(_ context.Context, c *coupon.Coupon) error {
	if _, ok := m.byCode[c.Code]; ok {
		return coupon.ErrCodeExists
	}
	m.byCode[c.Code] = c
	return nil
}

func (m *mockCouponRepo) List(_ context.Context) ([]coupon.Coupon, error) {
	out := make([]coupon.Coupon, 0, len(m.byCode))
	for _, c := range m.byCode {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockCouponRepo) Codes(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(m.byCode))
	for code := range m.byCode {
		out = append(out, code)
	}
	return out, nil
}

// --- Helpers ---

const (
	widgetID = "0b8e4c9e-9f6a-4f4e-9a1f-2c3d4e5f6a7b"
	userID   = "user-1"
)

type fixture struct {
	handler *Handler
	orders  *mockOrderRepo
	coupons *mockCouponRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	widget := product.Product{
		ID:       widgetID,
		Name:     "Widget",
		Category: "test",
		Price:    decimal.RequireFromString("10.00"),
		Stock:    5,
		IsActive: true,
	}

	products := &mockProductRepo{
		products: []product.Product{widget},
		byID:     map[string]*product.Product{widgetID: &widget},
	}
	orders := &mockOrderRepo{
		products: map[string]product.Product{widgetID: widget},
		byID:     map[string]*order.Order{},
	}
	coupons := &mockCouponRepo{
		byCode: map[string]*coupon.Coupon{
			"SAVE10": {
				ID:                 "c1",
				Code:               "SAVE10",
				DiscountPercentage: decimal.NewFromInt(10),
				IsActive:           true,
			},
		},
	}

	couponSvc, err := coupon.NewService(context.Background(), coupons)
	require.NoError(t, err)

	h := NewHandler(
		products,
		order.NewService(orders),
		comment.NewService(&mockCommentRepo{byID: map[string]*comment.Comment{}}, products),
		couponSvc,
	)
	return &fixture{handler: h, orders: orders, coupons: coupons}
}

func (f *fixture) do(method, target, body, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestListProducts_Envelope(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/products?page=1&size=10", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, `"products":[`)
	assert.Contains(t, body, `"total":1`)
	assert.Contains(t, body, `"price":10`)
}

func TestGetProduct_NotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/products/missing", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "product not found")
}

func TestPlaceOrder(t *testing.T) {
	validBody := `{"items":[{"productId":"` + widgetID + `","quantity":2}],"shippingAddress":"1 Main St"}`

	t.Run("requires principal", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/orders", validBody, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/orders", "{not json", userID)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty items returns 400", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/orders", `{"items":[],"shippingAddress":"1 Main St"}`, userID)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "items required")
	})

	t.Run("insufficient stock returns 422", func(t *testing.T) {
		f := newFixture(t)
		body := `{"items":[{"productId":"` + widgetID + `","quantity":99}],"shippingAddress":"1 Main St"}`
		rec := f.do(http.MethodPost, "/api/orders", body, userID)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "insufficient stock")
	})

	t.Run("valid order returns 201 with snapshot", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/orders", validBody, userID)
		require.Equal(t, http.StatusCreated, rec.Code)

		body := rec.Body.String()
		assert.Contains(t, body, `"status":"PENDING"`)
		assert.Contains(t, body, `"totalAmount":20`)
		assert.Contains(t, body, `"productName":"Widget"`)
		assert.Contains(t, body, `"paymentMethod":"cash-on-delivery"`)
	})
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/orders",
		`{"items":[{"productId":"`+widgetID+`","quantity":1}],"shippingAddress":"1 Main St"}`, userID)
	require.Equal(t, http.StatusCreated, rec.Code)

	var placedID string
	for id := range f.orders.byID {
		placedID = id
	}

	t.Run("unknown status returns 400", func(t *testing.T) {
		rec := f.do(http.MethodPatch, "/api/orders/"+placedID+"/status", `{"status":"LOST"}`, userID)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid transition returns 422", func(t *testing.T) {
		rec := f.do(http.MethodPatch, "/api/orders/"+placedID+"/status", `{"status":"DELIVERED"}`, userID)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid order status transition")
	})

	t.Run("allowed transition returns updated order", func(t *testing.T) {
		rec := f.do(http.MethodPatch, "/api/orders/"+placedID+"/status", `{"status":"CONFIRMED"}`, userID)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"CONFIRMED"`)
	})
}

func TestCreateComment_RequiresPrincipal(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/api/comments",
		`{"productId":"`+widgetID+`","content":"great","rating":5}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestComment_OwnershipForbidden(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/comments",
		`{"productId":"`+widgetID+`","content":"great","rating":5}`, userID)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Extract the id crudely from the response body.
	body := rec.Body.String()
	start := strings.Index(body, `"id":"`) + len(`"id":"`)
	commentID := body[start : start+36]

	rec = f.do(http.MethodDelete, "/api/comments/"+commentID, "", "someone-else")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodDelete, "/api/comments/"+commentID, "", userID)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestValidateCoupon(t *testing.T) {
	f := newFixture(t)

	t.Run("missing code returns 400", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/coupons/validate", "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("known code is valid", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/coupons/validate?code=save10", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"valid":true`)
	})

	t.Run("unknown code reports reason", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/coupons/validate?code=NOPE", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"valid":false`)
		assert.Contains(t, rec.Body.String(), string(coupon.ReasonNotFound))
	})
}

func TestRedeemCoupon(t *testing.T) {
	f := newFixture(t)

	t.Run("success increments usage", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/coupons/redeem", `{"code":"SAVE10"}`, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"usageCount":1`)
	})

	t.Run("exhausted coupon returns 422", func(t *testing.T) {
		f.coupons.byCode["SAVE10"].MaxUsage = 1
		rec := f.do(http.MethodPost, "/api/coupons/redeem", `{"code":"SAVE10"}`, "")
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), string(coupon.ReasonUsageLimit))
	})
}

func TestPlaceOrder_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.orders.createErr = errors.New("db write failed")

	rec := f.do(http.MethodPost, "/api/orders",
		`{"items":[{"productId":"`+widgetID+`","quantity":1}],"shippingAddress":"1 Main St"}`, userID)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}
