package coupon

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// bloomFPR is the false-positive rate of the code prefilter. A false positive
// only costs one store lookup; a miss is authoritative.
const bloomFPR = 0.001

// minBloomCapacity keeps the filter usable for small catalogs that grow.
const minBloomCapacity = 4096

// CreateCouponRequest holds the input for creating a coupon.
type CreateCouponRequest struct {
	Code               string
	DiscountPercentage decimal.Decimal
	IsActive           bool
	ExpiresAt          *time.Time
	MaxUsage           int
}

// Service is the coupon redemption controller. It answers read-only
// validation queries and performs atomic redemption, fronted by a bloom
// filter of known codes so that definitely-unknown codes never hit the store.
type Service struct {
	repo Repository
	now  func() time.Time

	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewService creates a Service and warms the code prefilter from the store.
func NewService(ctx context.Context, repo Repository) (*Service, error) {
	codes, err := repo.Codes(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load coupon codes")
	}

	capacity := uint(len(codes) * 2)
	if capacity < minBloomCapacity {
		capacity = minBloomCapacity
	}
	filter := bloom.NewWithEstimates(capacity, bloomFPR)
	for _, code := range codes {
		filter.AddString(normalizeCode(code))
	}

	return &Service{
		repo:   repo,
		now:    time.Now,
		filter: filter,
	}, nil
}

// normalizeCode upper-cases and trims a client-supplied code. Codes are
// stored upper-case and compared case-insensitively.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks a code without side effects, reporting the first failing
// rule in order: existence, activity, expiry, usage headroom.
func (s *Service) Validate(ctx context.Context, code string) (*Validation, error) {
	code = normalizeCode(code)

	if !s.mightExist(code) {
		return &Validation{Valid: false, Reason: ReasonNotFound}, nil
	}

	c, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &Validation{Valid: false, Reason: ReasonNotFound}, nil
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	if reason, ok := s.failingReason(c); !ok {
		return &Validation{Valid: false, Reason: reason, Coupon: c}, nil
	}
	return &Validation{Valid: true, Coupon: c}, nil
}

// failingReason applies the validation rules to an existing coupon and
// returns the first failing reason, or ok=true when the coupon is usable.
func (s *Service) failingReason(c *Coupon) (Reason, bool) {
	if !c.IsActive {
		return ReasonInactive, false
	}
	if c.ExpiresAt != nil && s.now().After(*c.ExpiresAt) {
		return ReasonExpired, false
	}
	if c.MaxUsage > 0 && c.UsageCount >= c.MaxUsage {
		return ReasonUsageLimit, false
	}
	return "", true
}

// Redeem consumes one use of the coupon. The validate-and-increment is a
// single conditional update in the store, so two racing redemptions of the
// last remaining use yield exactly one success. On failure the coupon is
// re-read purely to classify the reason.
func (s *Service) Redeem(ctx context.Context, code string) (*Coupon, error) {
	code = normalizeCode(code)

	if !s.mightExist(code) {
		return nil, &InvalidCouponError{Reason: ReasonNotFound}
	}

	c, err := s.repo.RedeemByCode(ctx, code, s.now())
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotRedeemable) {
		return nil, errors.Wrap(err, "redeem coupon")
	}

	return nil, &InvalidCouponError{Reason: s.declineReason(ctx, code)}
}

// declineReason classifies a failed redemption after the fact. When the
// coupon looks valid on re-read, the predicate must have failed against a
// concurrent redemption that has since been compensated for; the usage limit
// is the only condition that can flicker that way.
func (s *Service) declineReason(ctx context.Context, code string) Reason {
	c, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return ReasonNotFound
	}
	if reason, ok := s.failingReason(c); !ok {
		return reason
	}
	return ReasonUsageLimit
}

// Create stores a new coupon with a normalized code and registers it in the
// prefilter.
func (s *Service) Create(ctx context.Context, req CreateCouponRequest) (*Coupon, error) {
	code := normalizeCode(req.Code)
	if code == "" {
		return nil, ErrEmptyCode
	}
	if req.DiscountPercentage.IsNegative() || req.DiscountPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return nil, ErrInvalidPercentage
	}
	if req.MaxUsage < 0 {
		return nil, ErrInvalidMaxUsage
	}

	c := &Coupon{
		ID:                 uuid.New().String(),
		Code:               code,
		DiscountPercentage: req.DiscountPercentage,
		IsActive:           req.IsActive,
		ExpiresAt:          req.ExpiresAt,
		MaxUsage:           req.MaxUsage,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create coupon")
	}

	s.mu.Lock()
	s.filter.AddString(code)
	s.mu.Unlock()

	return c, nil
}

// List returns all coupons.
func (s *Service) List(ctx context.Context) ([]Coupon, error) {
	return s.repo.List(ctx)
}

func (s *Service) mightExist(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter.TestString(code)
}
