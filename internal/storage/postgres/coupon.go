package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hallertau/storefront/internal/domain/coupon"
)

const (
	couponColumns = `id, code, discount_percentage, is_active, expires_at,
		usage_count, max_usage, created_at`

	getCouponByCodeSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE code = UPPER($1)`

	// The whole redemption predicate lives in one UPDATE, so validate and
	// increment commit atomically: a row that no longer satisfies the
	// predicate simply does not match, and the usage cap can never be
	// exceeded no matter how many redemptions race.
	redeemCouponSQL = `UPDATE coupons
		SET usage_count = usage_count + 1
		WHERE code = UPPER($1)
		  AND is_active
		  AND (expires_at IS NULL OR expires_at > $2)
		  AND (max_usage = 0 OR usage_count < max_usage)
		RETURNING ` + couponColumns

	createCouponSQL = `INSERT INTO coupons
		(id, code, discount_percentage, is_active, expires_at, max_usage)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`

	listCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC`

	couponCodesSQL = `SELECT code FROM coupons`
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaches.
const uniqueViolation = "23505"

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its code, case-insensitively.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// RedeemByCode performs the conditional increment. No matching row means the
// redemption predicate failed at commit time.
func (r *CouponRepository) RedeemByCode(ctx context.Context, code string, now time.Time) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, redeemCouponSQL, code, now)
	if err != nil {
		return nil, fmt.Errorf("redeeming coupon %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotRedeemable
		}
		return nil, fmt.Errorf("redeeming coupon %q: %w", code, err)
	}
	return &c, nil
}

// Create inserts a new coupon.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	err := r.pool.QueryRow(ctx, createCouponSQL,
		c.ID, c.Code, c.DiscountPercentage, c.IsActive, c.ExpiresAt, c.MaxUsage,
	).Scan(&c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return coupon.ErrCodeExists
		}
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// List returns all coupons, newest first.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// Codes returns every stored coupon code.
func (r *CouponRepository) Codes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, couponCodesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupon codes: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var c coupon.Coupon
	err := row.Scan(
		&c.ID, &c.Code, &c.DiscountPercentage, &c.IsActive, &c.ExpiresAt,
		&c.UsageCount, &c.MaxUsage, &c.CreatedAt,
	)
	return c, err
}
