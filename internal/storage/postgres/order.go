package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/hallertau/storefront/internal/domain/order"
	"github.com/hallertau/storefront/internal/domain/product"
)

const (
	orderColumns = `id, user_id, lines, total_amount, status, shipping_address,
		phone, notes, payment_method, created_at, updated_at`

	// Locks the product rows the order touches. The ORDER BY gives every
	// fulfillment transaction the same acquisition order over product ids, so
	// two orders with overlapping carts cannot deadlock.
	lockProductsSQL = `SELECT id, name, price, stock FROM products
		WHERE id = ANY($1) AND is_active ORDER BY id FOR UPDATE`

	decrementStockSQL = `UPDATE products SET stock = stock - $2, updated_at = now() WHERE id = $1`

	restockSQL = `UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`

	insertOrderSQL = `INSERT INTO orders
		(id, user_id, lines, total_amount, status, shipping_address, phone, notes, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	getOrderForUpdateSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	listOrdersByUserSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	countOrdersSQL = `SELECT count(*) FROM orders`

	updateOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1
		RETURNING updated_at`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreatePending reserves stock for every item and inserts the order in one
// transaction. Product rows are locked in ascending id order, stock is
// re-validated under lock, and the name/price snapshots are taken from the
// locked rows, so the decrement and the order insert commit as a unit or not
// at all.
func (r *OrderRepository) CreatePending(ctx context.Context, o *order.Order, items []order.Item) (*order.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin fulfillment: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	rows, err := tx.Query(ctx, lockProductsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("locking products: %w", err)
	}
	locked, err := pgx.CollectRows(rows, scanLockedProduct)
	if err != nil {
		return nil, fmt.Errorf("locking products: %w", err)
	}

	byID := make(map[string]product.Product, len(locked))
	for _, p := range locked {
		byID[p.ID] = p
	}

	lines, total, err := order.BuildLines(items, byID)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if _, err := tx.Exec(ctx, decrementStockSQL, item.ProductID, item.Quantity); err != nil {
			return nil, fmt.Errorf("decrementing stock for product %q: %w", item.ProductID, err)
		}
	}

	linesJSON, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("marshaling order lines: %w", err)
	}

	placed := *o
	placed.Lines = lines
	placed.TotalAmount = total

	err = tx.QueryRow(ctx, insertOrderSQL,
		placed.ID, placed.UserID, linesJSON, placed.TotalAmount, placed.Status,
		placed.ShippingAddress, placed.Phone, placed.Notes, placed.PaymentMethod,
	).Scan(&placed.CreatedAt, &placed.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting order %q: %w", placed.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing order %q: %w", placed.ID, err)
	}
	return &placed, nil
}

func scanLockedProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock)
	return p, err
}

// GetByID returns a single order.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// ListByUser returns all orders of one principal, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// List returns one page of all orders plus the total count. The page and
// count queries run concurrently.
func (r *OrderRepository) List(ctx context.Context, page product.Page) ([]order.Order, int, error) {
	var (
		orders []order.Order
		total  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := r.pool.Query(gctx, listOrdersSQL, page.Size, page.Offset())
		if err != nil {
			return fmt.Errorf("listing orders: %w", err)
		}
		orders, err = pgx.CollectRows(rows, scanOrder)
		return err
	})
	g.Go(func() error {
		if err := r.pool.QueryRow(gctx, countOrdersSQL).Scan(&total); err != nil {
			return fmt.Errorf("counting orders: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus transitions the order inside one transaction: the order row is
// locked, the state machine is enforced against the status read under lock,
// and a cancellation of an unshipped order re-increments the stock of every
// line before the new status commits.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, to order.Status) (*order.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin status update: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	rows, err := tx.Query(ctx, getOrderForUpdateSQL, id)
	if err != nil {
		return nil, fmt.Errorf("locking order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("locking order %q: %w", id, err)
	}

	if !o.Status.CanTransitionTo(to) {
		return nil, &order.InvalidTransitionError{From: o.Status, To: to}
	}

	if o.Status.RestocksOnTransition(to) {
		for _, line := range o.Lines {
			if _, err := tx.Exec(ctx, restockSQL, line.ProductID, line.Quantity); err != nil {
				return nil, fmt.Errorf("restocking product %q: %w", line.ProductID, err)
			}
		}
	}

	if err := tx.QueryRow(ctx, updateOrderStatusSQL, id, to).Scan(&o.UpdatedAt); err != nil {
		return nil, fmt.Errorf("updating status of order %q: %w", id, err)
	}
	o.Status = to

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing status of order %q: %w", id, err)
	}
	return &o, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		linesJSON []byte
		status    string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &linesJSON, &o.TotalAmount, &status, &o.ShippingAddress,
		&o.Phone, &o.Notes, &o.PaymentMethod, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}
	o.Status = order.Status(status)
	if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
		return o, fmt.Errorf("unmarshaling lines of order %q: %w", o.ID, err)
	}
	return o, nil
}
