package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"handcrafted-haven/internal/config"
	"handcrafted-haven/internal/domain"
	"handcrafted-haven/internal/repository"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	defaultRetryBaseDelay = 10 * time.Millisecond
	maxRetryDelay         = 250 * time.Millisecond
)

// CartService defines the shopping cart operations of an authenticated user
type CartService interface {
	GetCart(ctx context.Context, identity domain.Identity) (*domain.CartView, error)
	AddItem(ctx context.Context, identity domain.Identity, productID uuid.UUID, quantity int) (cart *domain.CartView, merged bool, err error)
	SetQuantity(ctx context.Context, identity domain.Identity, productID uuid.UUID, quantity int) (*domain.CartView, error)
	RemoveItem(ctx context.Context, identity domain.Identity, productID uuid.UUID) (*domain.CartView, error)
	Clear(ctx context.Context, identity domain.Identity) (*domain.CartView, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	cfg         config.CartConfig
	logger      *zap.Logger
}

// NewCartService creates a new instance of CartService
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	cfg config.CartConfig,
	logger *zap.Logger,
) CartService {
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = defaultRetryBaseDelay
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		cfg:         cfg,
		logger:      logger,
	}
}

// GetCart returns the caller's cart, creating an empty one on first access
func (s *cartService) GetCart(ctx context.Context, identity domain.Identity) (*domain.CartView, error) {
	if !identity.Authenticated() {
		return nil, ErrUnauthenticated
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return s.expand(ctx, cart)
}

// AddItem adds quantity units of a product, merging into an existing line
func (s *cartService) AddItem(ctx context.Context, identity domain.Identity, productID uuid.UUID, quantity int) (*domain.CartView, bool, error) {
	if !identity.Authenticated() {
		return nil, false, ErrUnauthenticated
	}
	if productID == uuid.Nil {
		return nil, false, fmt.Errorf("%w: product id is required", ErrInvalidArgument)
	}
	if quantity < 1 {
		return nil, false, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidArgument)
	}

	var merged bool
	cart, err := s.mutate(ctx, identity.UserID, true, func(cart *domain.Cart) (bool, error) {
		product, err := s.productRepo.FindByID(ctx, productID)
		if err != nil {
			return false, err
		}

		wanted := quantity
		if s.cfg.StrictStock {
			wanted += cart.Quantity(productID)
		}
		if !product.Available(wanted) {
			return false, ErrOutOfStock
		}

		merged, err = cart.AddItem(productID, quantity, product.Price, time.Now().UTC())
		if err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, false, err
	}

	view, err := s.expand(ctx, cart)
	return view, merged, err
}

// SetQuantity replaces the quantity of a line; zero removes it
func (s *cartService) SetQuantity(ctx context.Context, identity domain.Identity, productID uuid.UUID, quantity int) (*domain.CartView, error) {
	if !identity.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if productID == uuid.Nil {
		return nil, fmt.Errorf("%w: product id is required", ErrInvalidArgument)
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", ErrInvalidArgument)
	}

	cart, err := s.mutate(ctx, identity.UserID, false, func(cart *domain.Cart) (bool, error) {
		if cart.Quantity(productID) == quantity {
			return false, nil
		}
		if err := cart.SetQuantity(productID, quantity); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return s.expand(ctx, cart)
}

// RemoveItem drops a line; removing an absent line leaves the cart unchanged
func (s *cartService) RemoveItem(ctx context.Context, identity domain.Identity, productID uuid.UUID) (*domain.CartView, error) {
	if !identity.Authenticated() {
		return nil, ErrUnauthenticated
	}

	cart, err := s.mutate(ctx, identity.UserID, false, func(cart *domain.Cart) (bool, error) {
		return cart.RemoveItem(productID), nil
	})
	if err != nil {
		return nil, err
	}

	return s.expand(ctx, cart)
}

// Clear empties the caller's cart
func (s *cartService) Clear(ctx context.Context, identity domain.Identity) (*domain.CartView, error) {
	if !identity.Authenticated() {
		return nil, ErrUnauthenticated
	}

	cart, err := s.mutate(ctx, identity.UserID, false, func(cart *domain.Cart) (bool, error) {
		return cart.Clear(), nil
	})
	if err != nil {
		return nil, err
	}

	return s.expand(ctx, cart)
}

// mutate runs load, apply and save as one unit and repeats it with backoff
// when another writer saved the cart in between.
func (s *cartService) mutate(ctx context.Context, userID uuid.UUID, create bool, apply func(*domain.Cart) (bool, error)) (*domain.Cart, error) {
	backoff := retry.NewExponential(s.cfg.RetryBaseDelay)
	backoff = retry.WithJitterPercent(20, backoff)
	backoff = retry.WithCappedDuration(maxRetryDelay, backoff)
	backoff = retry.WithMaxRetries(uint64(s.cfg.MaxRetries), backoff)

	var result *domain.Cart
	attempt := 0

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		cart, err := s.load(ctx, userID, create)
		if err != nil {
			return err
		}

		changed, err := apply(cart)
		if err != nil {
			return err
		}

		if changed {
			if err := s.cartRepo.Save(ctx, cart); err != nil {
				if errors.Is(err, repository.ErrCartVersionConflict) {
					s.logger.Debug("Cart version conflict, retrying",
						zap.String("user_id", userID.String()),
						zap.Int("attempt", attempt),
					)
					return retry.RetryableError(err)
				}
				return fmt.Errorf("failed to save cart: %w", err)
			}
		}

		result = cart
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrCartVersionConflict) {
			s.logger.Warn("Cart update gave up after repeated conflicts",
				zap.String("user_id", userID.String()),
				zap.Int("attempts", attempt),
			)
			return nil, fmt.Errorf("%w: %w", ErrCartBusy, err)
		}
		return nil, err
	}

	return result, nil
}

func (s *cartService) load(ctx context.Context, userID uuid.UUID, create bool) (*domain.Cart, error) {
	if create {
		cart, err := s.cartRepo.GetOrCreate(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get cart: %w", err)
		}
		return cart, nil
	}

	cart, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}
	return cart, nil
}

func (s *cartService) expand(ctx context.Context, cart *domain.Cart) (*domain.CartView, error) {
	products, err := s.productRepo.FindByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}
	return cart.Expand(products), nil
}
