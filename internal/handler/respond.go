package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/hallertau/storefront/internal/domain/comment"
	"github.com/hallertau/storefront/internal/domain/coupon"
	"github.com/hallertau/storefront/internal/domain/order"
	"github.com/hallertau/storefront/internal/domain/product"
)

// writeJSON encodes a response body with jx and writes it with the given
// status code.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the standard error envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

// respondError maps a domain error onto an HTTP status. Unrecognized errors
// are logged and reported as 500 without leaking internals.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	if status, ok := errorStatus(err); ok {
		writeError(w, status, err.Error())
		return
	}

	zctx.From(r.Context()).Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// errorStatus classifies the domain error taxonomy:
// malformed input is 400, missing resources 404, ownership violations 403,
// and business-rule rejections 422.
func errorStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrMissingShippingAddress),
		errors.Is(err, comment.ErrInvalidRating),
		errors.Is(err, comment.ErrEmptyContent),
		errors.Is(err, coupon.ErrEmptyCode),
		errors.Is(err, coupon.ErrInvalidPercentage),
		errors.Is(err, coupon.ErrInvalidMaxUsage):
		return http.StatusBadRequest, true

	case errors.Is(err, comment.ErrForbidden):
		return http.StatusForbidden, true

	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, comment.ErrNotFound),
		errors.Is(err, coupon.ErrNotFound):
		return http.StatusNotFound, true

	case errors.Is(err, coupon.ErrCodeExists):
		return http.StatusUnprocessableEntity, true
	}

	var (
		invalidQuantity   *order.InvalidQuantityError
		invalidProductID  *order.InvalidProductIDError
		productNotFound   *order.ProductNotFoundError
		insufficientStock *order.InsufficientStockError
		invalidTransition *order.InvalidTransitionError
		invalidCoupon     *coupon.InvalidCouponError
	)
	switch {
	case errors.As(err, &invalidQuantity), errors.As(err, &invalidProductID):
		return http.StatusBadRequest, true
	case errors.As(err, &productNotFound),
		errors.As(err, &insufficientStock),
		errors.As(err, &invalidTransition),
		errors.As(err, &invalidCoupon):
		return http.StatusUnprocessableEntity, true
	}
	return 0, false
}
