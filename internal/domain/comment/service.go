package comment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/hallertau/storefront/internal/domain/product"
)

const (
	// maxRecomputeAttempts bounds the conditional-write retry loop of the
	// rating aggregator before the conflict is surfaced to the caller.
	maxRecomputeAttempts = 5
	recomputeBackoff     = 10 * time.Millisecond
)

// CreateCommentRequest holds the input for creating a review.
type CreateCommentRequest struct {
	ProductID string
	Content   string
	Rating    int
}

// UpdateCommentRequest holds a partial update. Nil fields are left unchanged.
type UpdateCommentRequest struct {
	Content *string
	Rating  *int
}

// Service encapsulates review mutations and the rating aggregator.
type Service struct {
	comments Repository
	products product.Repository

	sleep func(time.Duration) // swapped out in tests
}

// NewService creates a comment Service with the required repositories.
func NewService(comments Repository, products product.Repository) *Service {
	return &Service{
		comments: comments,
		products: products,
		sleep:    time.Sleep,
	}
}

// CreateComment validates the review, persists it, and recomputes the owning
// product's aggregate rating before returning.
func (s *Service) CreateComment(ctx context.Context, userID string, req CreateCommentRequest) (*Comment, error) {
	if uuid.Validate(req.ProductID) != nil {
		return nil, product.ErrNotFound
	}
	if req.Rating < MinRating || req.Rating > MaxRating {
		return nil, ErrInvalidRating
	}
	if req.Content == "" {
		return nil, ErrEmptyContent
	}

	if _, err := s.products.GetByID(ctx, req.ProductID); err != nil {
		return nil, err
	}

	c := &Comment{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: req.ProductID,
		Content:   req.Content,
		Rating:    req.Rating,
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create comment")
	}

	if err := s.Recompute(ctx, req.ProductID); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateComment applies a partial update to the caller's own comment and
// recomputes the product aggregate.
func (s *Service) UpdateComment(ctx context.Context, userID, id string, req UpdateCommentRequest) (*Comment, error) {
	c, err := s.ownedComment(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Rating != nil {
		if *req.Rating < MinRating || *req.Rating > MaxRating {
			return nil, ErrInvalidRating
		}
		c.Rating = *req.Rating
	}
	if req.Content != nil {
		if *req.Content == "" {
			return nil, ErrEmptyContent
		}
		c.Content = *req.Content
	}

	if err := s.comments.Update(ctx, c); err != nil {
		return nil, errors.Wrap(err, "update comment")
	}

	if err := s.Recompute(ctx, c.ProductID); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteComment removes the caller's own comment and recomputes the product
// aggregate.
func (s *Service) DeleteComment(ctx context.Context, userID, id string) error {
	c, err := s.ownedComment(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.comments.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete comment")
	}

	return s.Recompute(ctx, c.ProductID)
}

// ListByProduct returns all reviews for a product, newest first.
func (s *Service) ListByProduct(ctx context.Context, productID string) ([]Comment, error) {
	if uuid.Validate(productID) != nil {
		return nil, product.ErrNotFound
	}
	return s.comments.ListByProduct(ctx, productID)
}

func (s *Service) ownedComment(ctx context.Context, userID, id string) (*Comment, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	c, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, ErrForbidden
	}
	return c, nil
}

// Recompute rebuilds the product's aggregate rating from its full comment
// set. The write is conditional on the product version observed during the
// read, so concurrent recomputes for the same product cannot overwrite a
// newer aggregate with an older one; a conflict triggers a re-read and retry.
func (s *Service) Recompute(ctx context.Context, productID string) error {
	for attempt := 1; ; attempt++ {
		p, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return errors.Wrap(err, "read product for recompute")
		}

		comments, err := s.comments.ListByProduct(ctx, productID)
		if err != nil {
			return errors.Wrap(err, "list comments for recompute")
		}

		rating, count := Aggregate(comments)

		err = s.products.UpdateAggregates(ctx, productID, rating, count, p.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, product.ErrVersionConflict) {
			return errors.Wrap(err, "write product aggregate")
		}
		if attempt >= maxRecomputeAttempts {
			return errors.Wrapf(err, "recompute rating for product %s: retries exhausted", productID)
		}
		s.sleep(recomputeBackoff * time.Duration(attempt))
	}
}
