package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/hallertau/storefront/internal/domain/coupon"
)

// ValidateCoupon checks a code without consuming a use.
func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "code query parameter required")
		return
	}

	v, err := h.coupons.Validate(r.Context(), code)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("valid", func(e *jx.Encoder) { e.Bool(v.Valid) })
			if !v.Valid {
				e.Field("reason", func(e *jx.Encoder) { e.Str(string(v.Reason)) })
			}
			if v.Coupon != nil {
				e.Field("coupon", func(e *jx.Encoder) { encodeCoupon(e, *v.Coupon) })
			}
		})
	})
}

type redeemCouponRequest struct {
	Code string `json:"code"`
}

// RedeemCoupon consumes one use of the coupon.
func (h *Handler) RedeemCoupon(w http.ResponseWriter, r *http.Request) {
	var req redeemCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code required")
		return
	}

	c, err := h.coupons.Redeem(r.Context(), req.Code)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCoupon(e, *c)
	})
}

type createCouponRequest struct {
	Code               string  `json:"code"`
	DiscountPercentage string  `json:"discountPercentage"`
	IsActive           bool    `json:"isActive"`
	ExpiresAt          *string `json:"expiresAt"`
	MaxUsage           int     `json:"maxUsage"`
}

// CreateCoupon stores a new discount code.
func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req createCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	percentage, err := decimal.NewFromString(req.DiscountPercentage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid discount percentage")
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != nil {
		t, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid expiresAt, want RFC 3339")
			return
		}
		expiresAt = &t
	}

	created, err := h.coupons.Create(r.Context(), coupon.CreateCouponRequest{
		Code:               req.Code,
		DiscountPercentage: percentage,
		IsActive:           req.IsActive,
		ExpiresAt:          expiresAt,
		MaxUsage:           req.MaxUsage,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeCoupon(e, *created)
	})
}

// ListCoupons returns every coupon.
func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, c := range coupons {
				encodeCoupon(e, c)
			}
		})
	})
}
