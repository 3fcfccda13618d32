package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"handcrafted-haven/internal/cache"
	"handcrafted-haven/internal/domain"
	"handcrafted-haven/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newTestReviewService() (ReviewService, *mockProductRepository, *mockReviewCache) {
	products := newMockProductRepository()
	reviewCache := newMockReviewCache()
	return NewReviewService(newMockReviewRepository(products), reviewCache, zap.NewNop()), products, reviewCache
}

func reviewInput(productID uuid.UUID, rating int) CreateReviewInput {
	return CreateReviewInput{
		ProductID: productID,
		Rating:    rating,
		Title:     "Beautiful work",
		Comment:   "Arrived quickly and well packed",
	}
}

func TestReviewService_RatingWalkthrough(t *testing.T) {
	service, products, _ := newTestReviewService()
	ctx := context.Background()
	product := products.add("40.00", 3)

	if _, err := service.Create(ctx, shopper(), reviewInput(product.ID, 5)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p := products.products[product.ID]; p.Rating != 5.0 || p.ReviewCount != 1 {
		t.Errorf("expected 5.0/1, got %.1f/%d", p.Rating, p.ReviewCount)
	}

	if _, err := service.Create(ctx, shopper(), reviewInput(product.ID, 2)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p := products.products[product.ID]; p.Rating != 3.5 || p.ReviewCount != 2 {
		t.Errorf("expected 3.5/2, got %.1f/%d", p.Rating, p.ReviewCount)
	}
}

func TestReviewService_CreateErrors(t *testing.T) {
	service, products, _ := newTestReviewService()
	ctx := context.Background()
	product := products.add("40.00", 3)
	author := shopper()

	if _, err := service.Create(ctx, author, reviewInput(product.ID, 4)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	blankTitle := reviewInput(product.ID, 4)
	blankTitle.Title = "   "

	tests := []struct {
		name     string
		identity domain.Identity
		input    CreateReviewInput
		want     error
	}{
		{"anonymous", domain.Identity{}, reviewInput(product.ID, 4), ErrUnauthenticated},
		{"rating too low", shopper(), reviewInput(product.ID, 0), ErrInvalidArgument},
		{"rating too high", shopper(), reviewInput(product.ID, 6), ErrInvalidArgument},
		{"blank title", shopper(), blankTitle, ErrInvalidArgument},
		{"missing product id", shopper(), reviewInput(uuid.Nil, 4), ErrInvalidArgument},
		{"unknown product", shopper(), reviewInput(uuid.New(), 4), repository.ErrProductNotFound},
		{"second review", author, reviewInput(product.ID, 1), ErrDuplicateReview},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.Create(ctx, tt.identity, tt.input); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if p := products.products[product.ID]; p.ReviewCount != 1 || p.Rating != 4.0 {
		t.Errorf("expected rejected reviews to leave 4.0/1, got %.1f/%d", p.Rating, p.ReviewCount)
	}
}

func TestReviewService_ListUsesCache(t *testing.T) {
	service, products, reviewCache := newTestReviewService()
	ctx := context.Background()
	product := products.add("40.00", 3)

	if _, err := service.List(ctx, uuid.Nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for missing product id, got %v", err)
	}

	reviews, err := service.List(ctx, product.ID)
	if err != nil || reviews == nil || len(reviews) != 0 {
		t.Fatalf("expected empty non-nil list, got %v err=%v", reviews, err)
	}

	service.List(ctx, product.ID)
	if reviewCache.hits != 1 {
		t.Errorf("expected second list to hit the cache, got %d hits", reviewCache.hits)
	}

	first, _ := service.Create(ctx, shopper(), reviewInput(product.ID, 3))
	second, _ := service.Create(ctx, shopper(), reviewInput(product.ID, 4))
	if reviewCache.invalidated != 2 {
		t.Errorf("expected cache invalidated per review, got %d", reviewCache.invalidated)
	}

	reviews, err = service.List(ctx, product.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(reviews) != 2 || reviews[0].ID != second.ID || reviews[1].ID != first.ID {
		t.Errorf("expected both reviews newest first, got %d", len(reviews))
	}
}

// pausingReviewRepository holds the first listing after it has read the
// store, until released
type pausingReviewRepository struct {
	*mockReviewRepository
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (p *pausingReviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	reviews, err := p.mockReviewRepository.ListByProduct(ctx, productID)
	p.once.Do(func() {
		close(p.read)
		<-p.release
	})
	return reviews, err
}

func TestReviewService_ListRacingCreateDoesNotCacheStaleList(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	products := newMockProductRepository()
	product := products.add("40.00", 3)
	repo := &pausingReviewRepository{
		mockReviewRepository: newMockReviewRepository(products),
		read:                 make(chan struct{}),
		release:              make(chan struct{}),
	}
	service := NewReviewService(repo, cache.NewRedisReviewCache(client, 5*time.Minute), zap.NewNop())
	ctx := context.Background()

	listed := make(chan error, 1)
	go func() {
		_, err := service.List(ctx, product.ID)
		listed <- err
	}()

	<-repo.read
	if _, err := service.Create(ctx, shopper(), reviewInput(product.ID, 4)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	close(repo.release)
	if err := <-listed; err != nil {
		t.Fatalf("List failed: %v", err)
	}

	reviews, err := service.List(ctx, product.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if count := products.products[product.ID].ReviewCount; len(reviews) != count {
		t.Errorf("expected %d reviews after the racing create, got %d", count, len(reviews))
	}
}

// Property: after N reviews by distinct users the product holds the rounded mean
func TestProperty_RatingReflectsAllReviews(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("rating == round(mean, 1) and reviewCount == N", prop.ForAll(
		func(ratings []int) bool {
			service, products, _ := newTestReviewService()
			product := products.add("25.00", 1)

			g, ctx := errgroup.WithContext(context.Background())
			for _, rating := range ratings {
				rating := rating
				g.Go(func() error {
					_, err := service.Create(ctx, shopper(), reviewInput(product.ID, rating))
					return err
				})
			}
			if err := g.Wait(); err != nil {
				t.Logf("FAIL: concurrent create: %v", err)
				return false
			}

			want := summarizeRatings(ratings)
			got := products.products[product.ID]
			return got.Rating == want.Rating && got.ReviewCount == len(ratings)
		},
		gen.SliceOfN(20, gen.IntRange(domain.MinRating, domain.MaxRating)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
