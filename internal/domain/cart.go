package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound    = errors.New("item not found in cart")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// CartItem is one product line of a cart. UnitPrice is fixed when the
// product is first added and never follows later price changes.
type CartItem struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
	AddedAt   time.Time
}

// LineTotal returns quantity times unit price
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the per-user shopping cart aggregate.
// Version is bumped on every successful save and guards concurrent writers.
type Cart struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Items     []CartItem
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCart returns an empty cart owned by userID
func NewCart(userID uuid.UUID, now time.Time) *Cart {
	return &Cart{
		ID:        uuid.New(),
		UserID:    userID,
		Items:     []CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Quantity returns the quantity held for productID, 0 when absent
func (c *Cart) Quantity(productID uuid.UUID) int {
	if i := c.indexOf(productID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

// AddItem merges quantity into the line for productID, appending a new line
// priced at unitPrice when there is none. It reports whether an existing line
// was merged.
func (c *Cart) AddItem(productID uuid.UUID, quantity int, unitPrice decimal.Decimal, now time.Time) (bool, error) {
	if quantity < 1 {
		return false, ErrInvalidQuantity
	}

	if i := c.indexOf(productID); i >= 0 {
		c.Items[i].Quantity += quantity
		return true, nil
	}

	c.Items = append(c.Items, CartItem{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		AddedAt:   now,
	})
	return false, nil
}

// SetQuantity sets the quantity of an existing line; zero removes it
func (c *Cart) SetQuantity(productID uuid.UUID, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}

	if quantity == 0 {
		c.RemoveItem(productID)
		return nil
	}

	i := c.indexOf(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	c.Items[i].Quantity = quantity
	return nil
}

// RemoveItem drops the line for productID and reports whether one existed
func (c *Cart) RemoveItem(productID uuid.UUID) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// Clear empties the cart and reports whether anything was removed
func (c *Cart) Clear() bool {
	if len(c.Items) == 0 {
		return false
	}
	c.Items = []CartItem{}
	return true
}

// Total is the sum of all line totals
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// ItemCount is the number of units across all lines
func (c *Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// ProductIDs lists the referenced products in line order
func (c *Cart) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// ProductSummary holds the product display fields shown next to a cart line
type ProductSummary struct {
	Title         string          `json:"title"`
	Image         string          `json:"image"`
	Price         decimal.Decimal `json:"price"`
	InStock       bool            `json:"inStock"`
	StockQuantity int             `json:"stockQuantity"`
}

// CartItemView is a cart line joined with its product
type CartItemView struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	AddedAt   time.Time       `json:"addedAt"`
	Product   *ProductSummary `json:"product"`
}

// CartView is the expanded, serializable form of a cart
type CartView struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"userId"`
	Items     []CartItemView  `json:"items"`
	ItemCount int             `json:"itemCount"`
	Total     decimal.Decimal `json:"total"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Expand joins the cart lines with the given products. Lines whose product no
// longer exists keep a nil Product.
func (c *Cart) Expand(products map[uuid.UUID]*Product) *CartView {
	view := &CartView{
		ID:        c.ID,
		UserID:    c.UserID,
		Items:     make([]CartItemView, 0, len(c.Items)),
		ItemCount: c.ItemCount(),
		Total:     c.Total(),
		UpdatedAt: c.UpdatedAt,
	}

	for _, item := range c.Items {
		line := CartItemView{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal(),
			AddedAt:   item.AddedAt,
		}
		if p, ok := products[item.ProductID]; ok {
			line.Product = &ProductSummary{
				Title:         p.Title,
				Image:         p.ImageURL,
				Price:         p.Price,
				InStock:       p.InStock,
				StockQuantity: p.StockQuantity,
			}
		}
		view.Items = append(view.Items, line)
	}

	return view
}
