package transport

import (
	"context"
	"net/http"
	"testing"
	"time"

	"handcrafted-haven/internal/domain"
	"handcrafted-haven/internal/middleware"
	"handcrafted-haven/internal/repository"
	"handcrafted-haven/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

type routeRegistrar interface {
	RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler)
}

func newTestRouter(handlers ...routeRegistrar) chi.Router {
	r := chi.NewRouter()
	auth := middleware.AuthMiddleware(testSecret, zap.NewNop())
	for _, h := range handlers {
		h.RegisterRoutes(r, auth)
	}
	return r
}

// bearerFor signs an access token for identity the way the user service does
func bearerFor(t *testing.T, identity domain.Identity) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": identity.UserID.String(),
		"role":    identity.Role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return "Bearer " + token
}

// Mock repositories for the user flow
type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
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
	return nil
}

// stubCartService records the identity it was called with and returns canned results
type stubCartService struct {
	seen     domain.Identity
	cart     *domain.CartView
	merged   bool
	err      error
	quantity int
}

func (s *stubCartService) GetCart(ctx context.Context, identity domain.Identity) (*domain.CartView, error) {
	s.seen = identity
	return s.cart, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, identity domain.Identity, productID uuid.UUID, quantity int) (*domain.CartView, bool, error) {
	s.seen = identity
	s.quantity = quantity
	return s.cart, s.merged, s.err
}

func (s *stubCartService) SetQuantity(ctx context.Context, identity domain.Identity, productID uuid.UUID, quantity int) (*domain.CartView, error) {
	s.seen = identity
	s.quantity = quantity
	return s.cart, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, identity domain.Identity, productID uuid.UUID) (*domain.CartView, error) {
	s.seen = identity
	return s.cart, s.err
}

func (s *stubCartService) Clear(ctx context.Context, identity domain.Identity) (*domain.CartView, error) {
	s.seen = identity
	return s.cart, s.err
}

type stubReviewService struct {
	reviews []*domain.Review
	input   service.CreateReviewInput
	err     error
}

func (s *stubReviewService) List(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	return s.reviews, s.err
}

func (s *stubReviewService) Create(ctx context.Context, identity domain.Identity, input service.CreateReviewInput) (*domain.Review, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Review{
		ID:        uuid.New(),
		ProductID: input.ProductID,
		UserID:    identity.UserID,
		Rating:    input.Rating,
		Title:     input.Title,
		Comment:   input.Comment,
		CreatedAt: time.Now().UTC(),
	}, nil
}

type stubProductService struct {
	filter  domain.ProductFilter
	input   service.CreateProductInput
	product *domain.Product
	err     error
}

func (s *stubProductService) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	s.filter = filter
	if s.err != nil {
		return nil, s.err
	}
	return []*domain.Product{}, nil
}

func (s *stubProductService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.product, s.err
}

func (s *stubProductService) Create(ctx context.Context, identity domain.Identity, input service.CreateProductInput) (*domain.Product, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Product{ID: uuid.New(), Title: input.Title, Price: input.Price, Category: input.Category, SellerID: identity.UserID}, nil
}
