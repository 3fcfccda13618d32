package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"handcrafted-haven/internal/domain"
	"handcrafted-haven/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductInput carries the fields of a new listing
type CreateProductInput struct {
	Title         string
	Description   string
	Price         decimal.Decimal
	Category      domain.Category
	ImageURL      string
	StockQuantity *int // nil lists domain.DefaultStockQuantity units
	Tags          []string
}

// ProductService defines the catalogue operations
type ProductService interface {
	List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Create(ctx context.Context, identity domain.Identity, input CreateProductInput) (*domain.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

// List returns products matching filter, newest first. The category "all"
// matches every category.
func (s *productService) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	if filter.Category == "all" {
		filter.Category = ""
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, filter.Category)
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.SellerUsername = strings.TrimSpace(filter.SellerUsername)

	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// Create lists a new product owned by the calling seller
func (s *productService) Create(ctx context.Context, identity domain.Identity, input CreateProductInput) (*domain.Product, error) {
	if !identity.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if !identity.HasRole(domain.RoleSeller, domain.RoleAdmin) {
		return nil, ErrForbidden
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	imageURL := strings.TrimSpace(input.ImageURL)
	stock := domain.DefaultStockQuantity
	if input.StockQuantity != nil {
		stock = *input.StockQuantity
	}

	switch {
	case title == "":
		return nil, fmt.Errorf("%w: title is required", ErrInvalidArgument)
	case description == "":
		return nil, fmt.Errorf("%w: description is required", ErrInvalidArgument)
	case imageURL == "":
		return nil, fmt.Errorf("%w: image is required", ErrInvalidArgument)
	case !input.Price.IsPositive():
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidArgument)
	case !input.Category.Valid():
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, input.Category)
	case stock < 0:
		return nil, fmt.Errorf("%w: stock quantity cannot be negative", ErrInvalidArgument)
	}

	tags := make([]string, 0, len(input.Tags))
	for _, tag := range input.Tags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			tags = append(tags, tag)
		}
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:            uuid.New(),
		Title:         title,
		Description:   description,
		Price:         input.Price.Round(2),
		Category:      input.Category,
		ImageURL:      imageURL,
		SellerID:      identity.UserID,
		InStock:       stock > 0,
		StockQuantity: stock,
		Tags:          tags,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return s.Get(ctx, product.ID)
}
