package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"handcrafted-haven/internal/cache"
	"handcrafted-haven/internal/domain"
	"handcrafted-haven/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateReviewInput carries the caller-supplied fields of a new review
type CreateReviewInput struct {
	ProductID uuid.UUID
	Rating    int
	Title     string
	Comment   string
}

// ReviewService defines the interface for product review business logic
type ReviewService interface {
	List(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error)
	Create(ctx context.Context, identity domain.Identity, input CreateReviewInput) (*domain.Review, error)
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	cache      cache.ReviewCache
	logger     *zap.Logger
}

// NewReviewService creates a new instance of ReviewService
func NewReviewService(reviewRepo repository.ReviewRepository, reviewCache cache.ReviewCache, logger *zap.Logger) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		cache:      reviewCache,
		logger:     logger,
	}
}

// List returns the reviews of a product newest first. An unknown product has
// no reviews.
func (s *reviewService) List(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("%w: product id is required", ErrInvalidArgument)
	}

	// The generation is read before the store so a review committed in
	// between makes the fill below stale instead of cached.
	reviews, generation, hit, cacheErr := s.cache.Get(ctx, productID)
	if cacheErr != nil {
		s.logger.Warn("Review cache read failed", zap.Error(cacheErr), zap.String("product_id", productID.String()))
	}
	if hit {
		return reviews, nil
	}

	reviews, err := s.reviewRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	if cacheErr == nil {
		if err := s.cache.Set(ctx, productID, generation, reviews); err != nil {
			s.logger.Warn("Review cache write failed", zap.Error(err), zap.String("product_id", productID.String()))
		}
	}

	return reviews, nil
}

// Create stores the caller's review and refreshes the product rating
func (s *reviewService) Create(ctx context.Context, identity domain.Identity, input CreateReviewInput) (*domain.Review, error) {
	if !identity.Authenticated() {
		return nil, ErrUnauthenticated
	}

	title := strings.TrimSpace(input.Title)
	comment := strings.TrimSpace(input.Comment)

	switch {
	case input.ProductID == uuid.Nil:
		return nil, fmt.Errorf("%w: product id is required", ErrInvalidArgument)
	case title == "" || comment == "":
		return nil, fmt.Errorf("%w: title and comment are required", ErrInvalidArgument)
	case !domain.ValidRating(input.Rating):
		return nil, fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidArgument, domain.MinRating, domain.MaxRating)
	}

	review := &domain.Review{
		ID:        uuid.New(),
		ProductID: input.ProductID,
		UserID:    identity.UserID,
		Rating:    input.Rating,
		Title:     title,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}

	summary, err := s.reviewRepo.Create(ctx, review)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReviewAlreadyExists):
			return nil, ErrDuplicateReview
		case errors.Is(err, repository.ErrProductNotFound):
			return nil, err
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	if err := s.cache.Invalidate(ctx, review.ProductID); err != nil {
		s.logger.Warn("Review cache invalidation failed", zap.Error(err), zap.String("product_id", review.ProductID.String()))
	}

	s.logger.Info("Review created",
		zap.String("product_id", review.ProductID.String()),
		zap.Float64("rating", summary.Rating),
		zap.Int("review_count", summary.ReviewCount),
	)

	return review, nil
}
