package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"handcrafted-haven/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `
	p.id, p.title, p.description, p.price, p.category, p.image_url, p.seller_id,
	u.name, u.username, p.rating, p.review_count, p.in_stock, p.stock_quantity,
	to_json(p.tags), p.created_at, p.updated_at`

const productFrom = `
	FROM products p
	JOIN users u ON u.id = p.seller_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var tags []byte

	err := row.Scan(
		&product.ID,
		&product.Title,
		&product.Description,
		&product.Price,
		&product.Category,
		&product.ImageURL,
		&product.SellerID,
		&product.SellerName,
		&product.SellerUsername,
		&product.Rating,
		&product.ReviewCount,
		&product.InStock,
		&product.StockQuantity,
		&tags,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(tags, &product.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode product tags: %w", err)
	}
	if product.Tags == nil {
		product.Tags = []string{}
	}

	return product, nil
}

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, title, description, price, category, image_url, seller_id,
		                      rating, review_count, in_stock, stock_quantity, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	tags := product.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Title,
		product.Description,
		product.Price,
		string(product.Category),
		product.ImageURL,
		product.SellerID,
		product.Rating,
		product.ReviewCount,
		product.InStock,
		product.StockQuantity,
		tags,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// FindByID retrieves a product with its seller display fields
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + productFrom + ` WHERE p.id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// FindByIDs retrieves the products with the given ids keyed by id. Missing ids
// are simply absent from the result.
func (r *productRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	products := make(map[uuid.UUID]*domain.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := `SELECT ` + productColumns + productFrom +
		` WHERE p.id IN (` + strings.Join(placeholders, ", ") + `)`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find products by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products[product.ID] = product
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// List retrieves products matching the filter, newest first. Search matches
// title, description and tags case-insensitively.
func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	var conditions []string
	var args []any

	if filter.Category != "" {
		args = append(args, string(filter.Category))
		conditions = append(conditions, fmt.Sprintf("p.category = $%d", len(args)))
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(p.title ILIKE $%[1]d OR p.description ILIKE $%[1]d OR EXISTS (SELECT 1 FROM unnest(p.tags) AS tag WHERE tag ILIKE $%[1]d))", n))
	}

	if filter.SellerUsername != "" {
		args = append(args, filter.SellerUsername)
		conditions = append(conditions, fmt.Sprintf("u.username = $%d", len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := `SELECT ` + productColumns + productFrom + whereClause + ` ORDER BY p.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}
