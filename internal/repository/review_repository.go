package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"handcrafted-haven/internal/database"
	"handcrafted-haven/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrReviewAlreadyExists = errors.New("user has already reviewed this product")
)

// ReviewRepository defines the interface for review data access
type ReviewRepository interface {
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error)
	// Create inserts the review and rewrites the product's rating and review
	// count in one transaction. Reviews of the same product are serialized on
	// the product row lock.
	Create(ctx context.Context, review *domain.Review) (domain.RatingSummary, error)
}

type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new instance of ReviewRepository
func NewReviewRepository(db *sql.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// ListByProduct returns reviews of a product newest first with author names
func (r *reviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT rv.id, rv.product_id, rv.user_id, u.name, u.username, rv.rating, rv.title, rv.comment, rv.created_at
		FROM reviews rv
		JOIN users u ON u.id = rv.user_id
		WHERE rv.product_id = $1
		ORDER BY rv.created_at DESC, rv.id`, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*domain.Review{}
	for rows.Next() {
		review := &domain.Review{}
		err := rows.Scan(
			&review.ID,
			&review.ProductID,
			&review.UserID,
			&review.AuthorName,
			&review.AuthorUsername,
			&review.Rating,
			&review.Title,
			&review.Comment,
			&review.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}

func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) (domain.RatingSummary, error) {
	var summary domain.RatingSummary

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var locked uuid.UUID
		err := tx.QueryRowContext(ctx, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, review.ProductID).Scan(&locked)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to lock product: %w", err)
		}

		var exists bool
		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM reviews WHERE product_id = $1 AND user_id = $2)`,
			review.ProductID, review.UserID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check existing review: %w", err)
		}
		if exists {
			return ErrReviewAlreadyExists
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO reviews (id, product_id, user_id, rating, title, comment, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			review.ID, review.ProductID, review.UserID, review.Rating, review.Title, review.Comment, review.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err, "uq_reviews_product_user") {
				return ErrReviewAlreadyExists
			}
			return fmt.Errorf("failed to insert review: %w", err)
		}

		var count, sum int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*), COALESCE(SUM(rating), 0) FROM reviews WHERE product_id = $1`,
			review.ProductID,
		).Scan(&count, &sum)
		if err != nil {
			return fmt.Errorf("failed to aggregate ratings: %w", err)
		}

		summary = domain.NewRatingSummary(sum, count)

		_, err = tx.ExecContext(ctx,
			`UPDATE products SET rating = $2, review_count = $3 WHERE id = $1`,
			review.ProductID, summary.Rating, summary.ReviewCount,
		)
		if err != nil {
			return fmt.Errorf("failed to update product rating: %w", err)
		}

		err = tx.QueryRowContext(ctx, `SELECT name, username FROM users WHERE id = $1`, review.UserID).
			Scan(&review.AuthorName, &review.AuthorUsername)
		if err != nil {
			return fmt.Errorf("failed to load review author: %w", err)
		}

		return nil
	})

	return summary, err
}
