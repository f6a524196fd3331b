// Package handler exposes the domain services as a JSON-over-HTTP API.
//
// The surface is deliberately thin: decode, delegate, encode. The principal
// is taken from the X-User-ID header placed there by the upstream identity
// gateway and treated as an opaque string.
package handler

import (
	"net/http"

	"github.com/hallertau/storefront/internal/domain/comment"
	"github.com/hallertau/storefront/internal/domain/coupon"
	"github.com/hallertau/storefront/internal/domain/order"
	"github.com/hallertau/storefront/internal/domain/product"
)

// Handler delegates HTTP requests to the injected domain services.
type Handler struct {
	products product.Repository
	orders   *order.Service
	comments *comment.Service
	coupons  *coupon.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products product.Repository,
	orders *order.Service,
	comments *comment.Service,
	coupons *coupon.Service,
) *Handler {
	return &Handler{
		products: products,
		orders:   orders,
		comments: comments,
		coupons:  coupons,
	}
}

// Routes returns a mux with every API route registered.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/categories", h.ListCategories)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("GET /api/products/{id}/comments", h.ListProductComments)

	mux.HandleFunc("POST /api/comments", h.CreateComment)
	mux.HandleFunc("PATCH /api/comments/{id}", h.UpdateComment)
	mux.HandleFunc("DELETE /api/comments/{id}", h.DeleteComment)

	mux.HandleFunc("POST /api/orders", h.PlaceOrder)
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("GET /api/orders/my", h.ListMyOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.GetOrder)
	mux.HandleFunc("PATCH /api/orders/{id}/status", h.UpdateOrderStatus)

	mux.HandleFunc("GET /api/coupons", h.ListCoupons)
	mux.HandleFunc("POST /api/coupons", h.CreateCoupon)
	mux.HandleFunc("GET /api/coupons/validate", h.ValidateCoupon)
	mux.HandleFunc("POST /api/coupons/redeem", h.RedeemCoupon)

	return mux
}

// principal returns the authenticated user id, or "" when the request
// carries none.
func principal(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}
