package handler

import (
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/hallertau/storefront/internal/domain/comment"
	"github.com/hallertau/storefront/internal/domain/coupon"
	"github.com/hallertau/storefront/internal/domain/order"
	"github.com/hallertau/storefront/internal/domain/product"
)

// Response encoders, hand-written in the jx style. Decimals are emitted as
// JSON numbers with their stored scale; timestamps as RFC 3339.

func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("brand", func(e *jx.Encoder) { e.Str(p.Brand) })
		e.Field("price", func(e *jx.Encoder) { encodeDecimal(e, p.Price) })
		e.Field("stock", func(e *jx.Encoder) { e.Int(p.Stock) })
		e.Field("rating", func(e *jx.Encoder) { encodeDecimal(e, p.Rating) })
		e.Field("reviewCount", func(e *jx.Encoder) { e.Int(p.ReviewCount) })
		e.Field("createdAt", func(e *jx.Encoder) { encodeTime(e, p.CreatedAt) })
	})
}

func encodeOrder(e *jx.Encoder, o order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("userId", func(e *jx.Encoder) { e.Str(o.UserID) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, line := range o.Lines {
					encodeLine(e, line)
				}
			})
		})
		e.Field("totalAmount", func(e *jx.Encoder) { encodeDecimal(e, o.TotalAmount) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("shippingAddress", func(e *jx.Encoder) { e.Str(o.ShippingAddress) })
		e.Field("phone", func(e *jx.Encoder) { e.Str(o.Phone) })
		e.Field("notes", func(e *jx.Encoder) { e.Str(o.Notes) })
		e.Field("paymentMethod", func(e *jx.Encoder) { e.Str(o.PaymentMethod) })
		e.Field("createdAt", func(e *jx.Encoder) { encodeTime(e, o.CreatedAt) })
		e.Field("updatedAt", func(e *jx.Encoder) { encodeTime(e, o.UpdatedAt) })
	})
}

func encodeLine(e *jx.Encoder, l order.Line) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("productId", func(e *jx.Encoder) { e.Str(l.ProductID) })
		e.Field("productName", func(e *jx.Encoder) { e.Str(l.ProductName) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
		e.Field("unitPrice", func(e *jx.Encoder) { encodeDecimal(e, l.UnitPrice) })
		e.Field("subtotal", func(e *jx.Encoder) { encodeDecimal(e, l.Subtotal()) })
	})
}

func encodeComment(e *jx.Encoder, c comment.Comment) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(c.ID) })
		e.Field("userId", func(e *jx.Encoder) { e.Str(c.UserID) })
		e.Field("productId", func(e *jx.Encoder) { e.Str(c.ProductID) })
		e.Field("content", func(e *jx.Encoder) { e.Str(c.Content) })
		e.Field("rating", func(e *jx.Encoder) { e.Int(c.Rating) })
		e.Field("createdAt", func(e *jx.Encoder) { encodeTime(e, c.CreatedAt) })
		e.Field("updatedAt", func(e *jx.Encoder) { encodeTime(e, c.UpdatedAt) })
	})
}

func encodeCoupon(e *jx.Encoder, c coupon.Coupon) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(c.ID) })
		e.Field("code", func(e *jx.Encoder) { e.Str(c.Code) })
		e.Field("discountPercentage", func(e *jx.Encoder) { encodeDecimal(e, c.DiscountPercentage) })
		e.Field("isActive", func(e *jx.Encoder) { e.Bool(c.IsActive) })
		e.Field("expiresAt", func(e *jx.Encoder) {
			if c.ExpiresAt == nil {
				e.Null()
				return
			}
			encodeTime(e, *c.ExpiresAt)
		})
		e.Field("usageCount", func(e *jx.Encoder) { e.Int(c.UsageCount) })
		e.Field("maxUsage", func(e *jx.Encoder) { e.Int(c.MaxUsage) })
	})
}

// encodePage writes the shared list envelope: items under the given field
// name plus pagination metadata.
func encodePage(e *jx.Encoder, field string, total, page, size int, items func(e *jx.Encoder)) {
	e.Obj(func(e *jx.Encoder) {
		e.Field(field, func(e *jx.Encoder) { e.Arr(items) })
		e.Field("total", func(e *jx.Encoder) { e.Int(total) })
		e.Field("page", func(e *jx.Encoder) { e.Int(page) })
		e.Field("size", func(e *jx.Encoder) { e.Int(size) })
	})
}
