package coupon

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Reason classifies why a coupon cannot be applied.
type Reason string

const (
	ReasonNotFound   Reason = "coupon not found"
	ReasonInactive   Reason = "coupon is not active"
	ReasonExpired    Reason = "coupon has expired"
	ReasonUsageLimit Reason = "coupon usage limit reached"
)

var (
	// ErrNotFound is returned when no coupon exists for a code.
	ErrNotFound = errors.New("coupon not found")
	// ErrNotRedeemable is returned by Repository.RedeemByCode when the
	// conditional increment matched no row: the redemption predicate no
	// longer held at commit time. The service classifies the reason.
	ErrNotRedeemable = errors.New("coupon not redeemable")
	// ErrCodeExists is returned when creating a coupon with a taken code.
	ErrCodeExists = errors.New("coupon code already exists")
	// ErrInvalidPercentage is returned when the discount is outside [0,100].
	ErrInvalidPercentage = errors.New("discount percentage must be between 0 and 100")
	// ErrEmptyCode is returned when creating a coupon without a code.
	ErrEmptyCode = errors.New("coupon code required")
	// ErrInvalidMaxUsage is returned when the usage cap is negative.
	ErrInvalidMaxUsage = errors.New("max usage must not be negative")
)

// InvalidCouponError is the business-rule rejection for validation and
// redemption. It carries the first failing reason and guarantees that no
// usage count was mutated.
type InvalidCouponError struct {
	Reason Reason
}

func (e *InvalidCouponError) Error() string {
	return fmt.Sprintf("invalid coupon: %s", e.Reason)
}

// Coupon is a discount code with an activity flag, optional expiry, and an
// optional usage cap. UsageCount never exceeds MaxUsage (when MaxUsage > 0),
// even under concurrent redemption.
type Coupon struct {
	ID                 string
	Code               string
	DiscountPercentage decimal.Decimal
	IsActive           bool
	ExpiresAt          *time.Time
	UsageCount         int
	// MaxUsage caps redemptions; zero means unlimited.
	MaxUsage  int
	CreatedAt time.Time
}

// Validation is the result of a read-only coupon check.
type Validation struct {
	Valid  bool
	Reason Reason
	Coupon *Coupon
}

// Repository provides lookup and atomic mutation of coupons.
type Repository interface {
	// FindByCode looks up a coupon by its case-normalized code.
	// Returns ErrNotFound when no such coupon exists.
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	// RedeemByCode increments the usage count by one only while the coupon is
	// still active, unexpired at now, and under its usage limit, as a single
	// conditional update rather than a read followed by a write. Returns the
	// post-increment coupon, or ErrNotRedeemable when the predicate failed.
	RedeemByCode(ctx context.Context, code string, now time.Time) (*Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	List(ctx context.Context) ([]Coupon, error)
	// Codes returns every stored coupon code, for filter warm-up.
	Codes(ctx context.Context) ([]string, error)
}
