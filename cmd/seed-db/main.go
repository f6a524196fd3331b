// Command seed-db loads catalog products and coupons from JSON files into the
// database. Files ending in .gz are decompressed on the fly. The two files
// are loaded concurrently.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/hallertau/storefront/internal/domain/coupon"
	"github.com/hallertau/storefront/internal/domain/product"
	"github.com/hallertau/storefront/internal/storage/postgres"
)

type productJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

type couponJSON struct {
	Code               string          `json:"code"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	IsActive           bool            `json:"isActive"`
	ExpiresAt          *time.Time      `json:"expiresAt"`
	MaxUsage           int             `json:"maxUsage"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		couponsFile  string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file (optionally .gz)")
	flag.StringVar(&couponsFile, "coupons-file", "", "path to coupons JSON file (optionally .gz)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, couponsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, couponsFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return seedProducts(gctx, postgres.NewProductRepository(pool), productsFile)
	})
	if couponsFile != "" {
		g.Go(func() error {
			return seedCoupons(gctx, postgres.NewCouponRepository(pool), couponsFile)
		})
	}
	return g.Wait()
}

// readSeedFile reads a JSON seed file, transparently decompressing .gz input.
func readSeedFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open seed file")
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip reader")
		}
		defer zr.Close()
		r = zr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read seed file")
	}
	return data, nil
}

func seedProducts(ctx context.Context, repo *postgres.ProductRepository, path string) error {
	slog.Info("reading products file", slog.String("path", path))

	data, err := readSeedFile(path)
	if err != nil {
		return err
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("inserting products", slog.Int("count", len(products)))

	for _, in := range products {
		id := in.ID
		if id == "" {
			id = uuid.New().String()
		}
		p := &product.Product{
			ID:          id,
			Name:        in.Name,
			Description: in.Description,
			Category:    in.Category,
			Brand:       in.Brand,
			Price:       in.Price,
			Stock:       in.Stock,
			IsActive:    true,
		}
		if err := repo.Create(ctx, p); err != nil {
			return errors.Wrapf(err, "insert product %s", id)
		}

		slog.Info("inserted product", slog.String("id", id), slog.String("name", in.Name))
	}

	return nil
}

func seedCoupons(ctx context.Context, repo *postgres.CouponRepository, path string) error {
	slog.Info("reading coupons file", slog.String("path", path))

	data, err := readSeedFile(path)
	if err != nil {
		return err
	}

	var coupons []couponJSON
	if err := json.Unmarshal(data, &coupons); err != nil {
		return errors.Wrap(err, "parse coupons JSON")
	}

	slog.Info("inserting coupons", slog.Int("count", len(coupons)))

	for _, in := range coupons {
		c := &coupon.Coupon{
			ID:                 uuid.New().String(),
			Code:               strings.ToUpper(strings.TrimSpace(in.Code)),
			DiscountPercentage: in.DiscountPercentage,
			IsActive:           in.IsActive,
			ExpiresAt:          in.ExpiresAt,
			MaxUsage:           in.MaxUsage,
		}
		if err := repo.Create(ctx, c); err != nil {
			if errors.Is(err, coupon.ErrCodeExists) {
				slog.Info("coupon already exists, skipping", slog.String("code", c.Code))
				continue
			}
			return errors.Wrapf(err, "insert coupon %s", c.Code)
		}

		slog.Info("inserted coupon", slog.String("code", c.Code))
	}

	return nil
}
