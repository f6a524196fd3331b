package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hallertau/storefront/internal/domain/comment"
)

const (
	commentColumns = `id, user_id, product_id, content, rating, created_at, updated_at`

	createCommentSQL = `INSERT INTO comments (id, user_id, product_id, content, rating)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at, updated_at`

	getCommentByIDSQL = `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	updateCommentSQL = `UPDATE comments SET content = $2, rating = $3, updated_at = now()
		WHERE id = $1`

	deleteCommentSQL = `DELETE FROM comments WHERE id = $1`

	listCommentsByProductSQL = `SELECT ` + commentColumns + ` FROM comments
		WHERE product_id = $1 ORDER BY created_at DESC`
)

var _ comment.Repository = (*CommentRepository)(nil)

// CommentRepository implements comment.Repository backed by PostgreSQL.
type CommentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository returns a CommentRepository that uses the given pool.
func NewCommentRepository(pool *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{pool: pool}
}

// Create persists a new comment.
func (r *CommentRepository) Create(ctx context.Context, c *comment.Comment) error {
	err := r.pool.QueryRow(ctx, createCommentSQL,
		c.ID, c.UserID, c.ProductID, c.Content, c.Rating,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating comment %q: %w", c.ID, err)
	}
	return nil
}

// GetByID returns a single comment.
func (r *CommentRepository) GetByID(ctx context.Context, id string) (*comment.Comment, error) {
	rows, err := r.pool.Query(ctx, getCommentByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting comment %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanComment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, comment.ErrNotFound
		}
		return nil, fmt.Errorf("getting comment %q: %w", id, err)
	}
	return &c, nil
}

// Update rewrites a comment's content and rating.
func (r *CommentRepository) Update(ctx context.Context, c *comment.Comment) error {
	tag, err := r.pool.Exec(ctx, updateCommentSQL, c.ID, c.Content, c.Rating)
	if err != nil {
		return fmt.Errorf("updating comment %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return comment.ErrNotFound
	}
	return nil
}

// Delete removes a comment.
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCommentSQL, id)
	if err != nil {
		return fmt.Errorf("deleting comment %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return comment.ErrNotFound
	}
	return nil
}

// ListByProduct returns all comments for a product, newest first.
func (r *CommentRepository) ListByProduct(ctx context.Context, productID string) ([]comment.Comment, error) {
	rows, err := r.pool.Query(ctx, listCommentsByProductSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("listing comments for product %q: %w", productID, err)
	}
	return pgx.CollectRows(rows, scanComment)
}

func scanComment(row pgx.CollectableRow) (comment.Comment, error) {
	var c comment.Comment
	err := row.Scan(&c.ID, &c.UserID, &c.ProductID, &c.Content, &c.Rating, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
