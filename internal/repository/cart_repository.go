package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"handcrafted-haven/internal/database"
	"handcrafted-haven/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	// ErrCartVersionConflict means another writer saved the cart since it was read
	ErrCartVersionConflict = errors.New("cart was modified concurrently")
)

// CartRepository persists carts as a header row plus ordered item rows.
// Items only hold product references; product data is joined on read.
type CartRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	// Save replaces the cart items if the stored version still matches
	// cart.Version, then advances cart.Version.
	Save(ctx context.Context, cart *domain.Cart) error
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	cart := &domain.Cart{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, version, created_at, updated_at
		FROM carts
		WHERE user_id = $1`, userID,
	).Scan(&cart.ID, &cart.UserID, &cart.Version, &cart.CreatedAt, &cart.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}

	items, err := r.listItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items

	return cart, nil
}

// GetOrCreate returns the user's cart, creating an empty one first if needed.
// Concurrent first calls converge on the same row through the unique user_id.
func (r *cartRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	cart, err := r.FindByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ErrCartNotFound) {
		return nil, err
	}

	fresh := domain.NewCart(userID, time.Now().UTC())
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO carts (id, user_id, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO NOTHING`,
		fresh.ID, fresh.UserID, fresh.Version, fresh.CreatedAt, fresh.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	return r.FindByUserID(ctx, userID)
}

func (r *cartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	now := time.Now().UTC()

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE carts
			SET version = version + 1, updated_at = $3
			WHERE id = $1 AND version = $2`,
			cart.ID, cart.Version, now,
		)
		if err != nil {
			return fmt.Errorf("failed to update cart: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n == 0 {
			return ErrCartVersionConflict
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
			return fmt.Errorf("failed to clear cart items: %w", err)
		}

		for i, item := range cart.Items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO cart_items (cart_id, product_id, position, quantity, unit_price, added_at)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				cart.ID, item.ProductID, i, item.Quantity, item.UnitPrice, item.AddedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert cart item: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	cart.Version++
	cart.UpdatedAt = now
	return nil
}

func (r *cartRepository) listItems(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, quantity, unit_price, added_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY position`, cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.UnitPrice, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}
