package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category is one of the fixed marketplace categories
type Category string

const (
	CategoryArt         Category = "art"
	CategoryTextiles    Category = "textiles"
	CategoryJewelry     Category = "jewelry"
	CategoryHome        Category = "home"
	CategoryAccessories Category = "accessories"
)

// Categories returns every valid category in display order
func Categories() []Category {
	return []Category{CategoryArt, CategoryTextiles, CategoryJewelry, CategoryHome, CategoryAccessories}
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// DefaultStockQuantity is the stock of a listing created without one
const DefaultStockQuantity = 1

// Product represents a handcrafted item listed by a seller
type Product struct {
	ID             uuid.UUID       `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	Category       Category        `json:"category"`
	ImageURL       string          `json:"image"`
	SellerID       uuid.UUID       `json:"sellerId"`
	SellerName     string          `json:"sellerName,omitempty"`
	SellerUsername string          `json:"sellerUsername,omitempty"`
	Rating         float64         `json:"rating"`
	ReviewCount    int             `json:"reviewCount"`
	InStock        bool            `json:"inStock"`
	StockQuantity  int             `json:"stockQuantity"`
	Tags           []string        `json:"tags"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Available reports whether quantity units can be put in a cart
func (p *Product) Available(quantity int) bool {
	return p.InStock && p.StockQuantity >= quantity
}

// ProductFilter narrows a product listing. Zero values mean no filtering.
type ProductFilter struct {
	Category       Category
	Search         string
	SellerUsername string
}
