package comment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Rating bounds for a single review.
const (
	MinRating = 1
	MaxRating = 5
)

// Sentinel errors for comment validation and access control.
var (
	ErrNotFound      = errors.New("comment not found")
	ErrForbidden     = errors.New("comment does not belong to the requesting user")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrEmptyContent  = errors.New("content required")
)

// Comment is a product review written by a single user. Only its author may
// update or delete it. Every mutation triggers recomputation of the owning
// product's aggregate rating.
type Comment struct {
	ID        string
	UserID    string
	ProductID string
	Content   string
	Rating    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository defines persistence operations for comments.
type Repository interface {
	Create(ctx context.Context, c *Comment) error
	GetByID(ctx context.Context, id string) (*Comment, error)
	Update(ctx context.Context, c *Comment) error
	Delete(ctx context.Context, id string) error
	// ListByProduct returns all comments for a product, newest first.
	ListByProduct(ctx context.Context, productID string) ([]Comment, error)
}
