package service

import (
	"context"
	"sync"
	"time"

	"handcrafted-haven/internal/domain"
	"handcrafted-haven/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mock repositories for testing
type mockUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	for _, existing := range m.users {
		if existing.Username == user.Username {
			return repository.ErrUsernameAlreadyTaken
		}
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{
		tokens: make(map[string]*domain.RefreshToken),
	}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) DeleteExpired(ctx context.Context, userID uuid.UUID, now time.Time) error {
	for key, token := range m.tokens {
		if token.UserID == userID && (token.Revoked || now.After(token.ExpiresAt)) {
			delete(m.tokens, key)
		}
	}
	return nil
}

type mockProductRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products: make(map[uuid.UUID]*domain.Product),
	}
}

// add registers an in-stock product with the given price and stock
func (m *mockProductRepository) add(price string, stock int) *domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()

	product := &domain.Product{
		ID:            uuid.New(),
		Title:         "Hand-thrown mug",
		ImageURL:      "mug.jpg",
		Price:         decimal.RequireFromString(price),
		Category:      domain.CategoryHome,
		InStock:       stock > 0,
		StockQuantity: stock,
		Tags:          []string{},
	}
	m.products[product.ID] = product
	return product
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := *product
	return &copied, nil
}

func (m *mockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := make(map[uuid.UUID]*domain.Product, len(ids))
	for _, id := range ids {
		if product, ok := m.products[id]; ok {
			copied := *product
			found[id] = &copied
		}
	}
	return found, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	products := []*domain.Product{}
	for _, product := range m.products {
		if filter.Category != "" && product.Category != filter.Category {
			continue
		}
		products = append(products, product)
	}
	return products, nil
}

// cloneCart copies a cart so callers never share item slices with the store
func cloneCart(cart *domain.Cart) *domain.Cart {
	clone := *cart
	clone.Items = make([]domain.CartItem, len(cart.Items))
	copy(clone.Items, cart.Items)
	return &clone
}

func summarizeRatings(ratings []int) domain.RatingSummary {
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return domain.NewRatingSummary(sum, len(ratings))
}

// mockCartRepository keeps carts in memory with the same version check as
// the Postgres implementation
type mockCartRepository struct {
	mu        sync.Mutex
	carts     map[uuid.UUID]*domain.Cart
	saves     int
	conflicts int // number of upcoming saves forced to conflict
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{
		carts: make(map[uuid.UUID]*domain.Cart),
	}
}

func (m *mockCartRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cart, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return cloneCart(cart), nil
}

func (m *mockCartRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cart, ok := m.carts[userID]
	if !ok {
		cart = domain.NewCart(userID, time.Now().UTC())
		m.carts[userID] = cart
	}
	return cloneCart(cart), nil
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conflicts > 0 {
		m.conflicts--
		return repository.ErrCartVersionConflict
	}

	stored, ok := m.carts[cart.UserID]
	if !ok || stored.Version != cart.Version {
		return repository.ErrCartVersionConflict
	}

	cart.Version++
	cart.UpdatedAt = time.Now().UTC()
	m.carts[cart.UserID] = cloneCart(cart)
	m.saves++
	return nil
}

type mockReviewRepository struct {
	mu       sync.Mutex
	products *mockProductRepository
	reviews  []*domain.Review
}

func newMockReviewRepository(products *mockProductRepository) *mockReviewRepository {
	return &mockReviewRepository{products: products}
}

func (m *mockReviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reviews := []*domain.Review{}
	for i := len(m.reviews) - 1; i >= 0; i-- {
		if m.reviews[i].ProductID == productID {
			reviews = append(reviews, m.reviews[i])
		}
	}
	return reviews, nil
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) (domain.RatingSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.products.mu.Lock()
	defer m.products.mu.Unlock()

	product, ok := m.products.products[review.ProductID]
	if !ok {
		return domain.RatingSummary{}, repository.ErrProductNotFound
	}

	var ratings []int
	for _, existing := range m.reviews {
		if existing.ProductID != review.ProductID {
			continue
		}
		if existing.UserID == review.UserID {
			return domain.RatingSummary{}, repository.ErrReviewAlreadyExists
		}
		ratings = append(ratings, existing.Rating)
	}

	m.reviews = append(m.reviews, review)
	summary := summarizeRatings(append(ratings, review.Rating))
	product.Rating = summary.Rating
	product.ReviewCount = summary.ReviewCount
	return summary, nil
}

type mockReviewCache struct {
	mu          sync.Mutex
	entries     map[uuid.UUID][]*domain.Review
	generations map[uuid.UUID]int64
	hits        int
	invalidated int
}

func newMockReviewCache() *mockReviewCache {
	return &mockReviewCache{
		entries:     make(map[uuid.UUID][]*domain.Review),
		generations: make(map[uuid.UUID]int64),
	}
}

func (m *mockReviewCache) Get(ctx context.Context, productID uuid.UUID) ([]*domain.Review, int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reviews, ok := m.entries[productID]
	if ok {
		m.hits++
	}
	return reviews, m.generations[productID], ok, nil
}

func (m *mockReviewCache) Set(ctx context.Context, productID uuid.UUID, generation int64, reviews []*domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generations[productID] == generation {
		m.entries[productID] = reviews
	}
	return nil
}

func (m *mockReviewCache) Invalidate(ctx context.Context, productID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, productID)
	m.generations[productID]++
	m.invalidated++
	return nil
}
