package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func TestCart_AddSetRemoveWalkthrough(t *testing.T) {
	now := time.Now()
	cart := NewCart(uuid.New(), now)
	productID := uuid.New()
	price := decimal.RequireFromString("10.00")

	merged, err := cart.AddItem(productID, 2, price, now)
	if err != nil || merged {
		t.Fatalf("expected new line, got merged=%v err=%v", merged, err)
	}
	if !cart.Total().Equal(decimal.RequireFromString("20.00")) {
		t.Errorf("expected total 20.00, got %s", cart.Total())
	}

	if err := cart.SetQuantity(productID, 3); err != nil {
		t.Fatalf("SetQuantity failed: %v", err)
	}
	if !cart.Total().Equal(decimal.RequireFromString("30.00")) {
		t.Errorf("expected total 30.00, got %s", cart.Total())
	}

	if err := cart.SetQuantity(productID, 0); err != nil {
		t.Fatalf("SetQuantity(0) failed: %v", err)
	}
	if len(cart.Items) != 0 || !cart.Total().IsZero() {
		t.Errorf("expected empty cart, got %d items totalling %s", len(cart.Items), cart.Total())
	}
}

func TestCart_RejectsInvalidQuantities(t *testing.T) {
	cart := NewCart(uuid.New(), time.Now())
	productID := uuid.New()

	if _, err := cart.AddItem(productID, 0, decimal.NewFromInt(1), time.Now()); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity for 0, got %v", err)
	}
	if err := cart.SetQuantity(productID, -1); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity for -1, got %v", err)
	}
	if err := cart.SetQuantity(productID, 2); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestCart_UnitPriceIsFixedAtFirstAdd(t *testing.T) {
	now := time.Now()
	cart := NewCart(uuid.New(), now)
	productID := uuid.New()

	cart.AddItem(productID, 1, decimal.RequireFromString("8.00"), now)
	merged, _ := cart.AddItem(productID, 1, decimal.RequireFromString("9.50"), now)

	if !merged {
		t.Fatal("expected second add to merge")
	}
	if len(cart.Items) != 1 || !cart.Items[0].UnitPrice.Equal(decimal.RequireFromString("8.00")) {
		t.Errorf("expected unit price to stay 8.00, got %+v", cart.Items)
	}
}

func TestCart_ExpandKeepsLinesWithoutProducts(t *testing.T) {
	now := time.Now()
	cart := NewCart(uuid.New(), now)
	known, gone := uuid.New(), uuid.New()
	cart.AddItem(known, 2, decimal.RequireFromString("4.25"), now)
	cart.AddItem(gone, 1, decimal.RequireFromString("1.00"), now)

	view := cart.Expand(map[uuid.UUID]*Product{
		known: {ID: known, Title: "Candle", ImageURL: "candle.jpg", Price: decimal.RequireFromString("5.00"), InStock: true, StockQuantity: 7},
	})

	if len(view.Items) != 2 || view.ItemCount != 3 {
		t.Fatalf("expected 2 lines and 3 units, got %d/%d", len(view.Items), view.ItemCount)
	}
	if view.Items[0].Product == nil || view.Items[0].Product.Title != "Candle" {
		t.Errorf("expected first line joined with its product")
	}
	if view.Items[1].Product != nil {
		t.Errorf("expected missing product to stay nil")
	}
	if !view.Items[0].LineTotal.Equal(decimal.RequireFromString("8.50")) || !view.Total.Equal(decimal.RequireFromString("9.50")) {
		t.Errorf("unexpected totals: line %s total %s", view.Items[0].LineTotal, view.Total)
	}
}

// Property: repeated adds of the same product merge into one line
func TestProperty_AddMergesQuantities(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("adding q1 then q2 yields a single line of q1+q2", prop.ForAll(
		func(q1, q2 int) bool {
			now := time.Now()
			cart := NewCart(uuid.New(), now)
			productID := uuid.New()

			if _, err := cart.AddItem(productID, q1, decimal.NewFromInt(3), now); err != nil {
				return false
			}
			merged, err := cart.AddItem(productID, q2, decimal.NewFromInt(3), now)
			if err != nil || !merged {
				return false
			}

			return len(cart.Items) == 1 && cart.Quantity(productID) == q1+q2
		},
		gen.IntRange(1, 1000),
		gen.IntRange(1, 1000),
	))

	properties.TestingRun(t)
}

// Property: the cart total is the sum of quantity times unit price
func TestProperty_TotalIsSumOfLines(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("total equals sum of line totals", prop.ForAll(
		func(quantities []int, cents []int64) bool {
			now := time.Now()
			cart := NewCart(uuid.New(), now)
			n := min(len(quantities), len(cents))

			expected := decimal.Zero
			for i := 0; i < n; i++ {
				price := decimal.New(cents[i], -2)
				cart.AddItem(uuid.New(), quantities[i], price, now)
				expected = expected.Add(price.Mul(decimal.NewFromInt(int64(quantities[i]))))
			}

			return cart.Total().Equal(expected) && len(cart.Items) == n
		},
		gen.SliceOf(gen.IntRange(1, 50)),
		gen.SliceOf(gen.Int64Range(1, 100000)),
	))

	properties.TestingRun(t)
}

// Property: removing a product twice leaves the cart as after one removal
func TestProperty_RemoveIsIdempotent(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("second removal reports false and changes nothing", prop.ForAll(
		func(lines int) bool {
			now := time.Now()
			cart := NewCart(uuid.New(), now)
			target := uuid.New()
			cart.AddItem(target, 1, decimal.NewFromInt(2), now)
			for i := 0; i < lines; i++ {
				cart.AddItem(uuid.New(), 1, decimal.NewFromInt(2), now)
			}

			if !cart.RemoveItem(target) {
				return false
			}
			lines, total := len(cart.Items), cart.Total()
			if cart.RemoveItem(target) {
				return false
			}

			return len(cart.Items) == lines && cart.Total().Equal(total)
		},
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}

func TestCart_ClearReportsRemovalOnce(t *testing.T) {
	now := time.Now()
	cart := NewCart(uuid.New(), now)
	cart.AddItem(uuid.New(), 1, decimal.NewFromInt(5), now)

	if !cart.Clear() || cart.Clear() {
		t.Errorf("expected Clear to report removal once")
	}
}
