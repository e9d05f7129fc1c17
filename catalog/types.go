package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CommissionRate is the marketplace's share of every sale.
const CommissionRate = 0.10

// Price is an amount in naira. It decodes from a JSON number or from a
// formatted string such as "450,000".
type Price float64

// UnmarshalJSON implements json.Unmarshaler.
func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*p = 0
		return nil
	}
	if b[0] != '"' {
		var f float64
		if err := json.Unmarshal(b, &f); err != nil {
			return fmt.Errorf("catalog: decode price: %w", err)
		}
		*p = Price(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("catalog: decode price: %w", err)
	}
	v, err := ParsePrice(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParsePrice reads a price typed by a user, ignoring everything but digits
// and the decimal point. An empty result is zero.
func ParsePrice(s string) (Price, error) {
	clean := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
	if clean == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("catalog: parse price %q: %w", s, err)
	}
	return Price(f), nil
}

// String formats the price with thousands separators, e.g. "₦450,000".
func (p Price) String() string {
	whole := int64(p)
	frac := int64((float64(p)-float64(whole))*100 + 0.5)
	if frac == 100 {
		whole++
		frac = 0
	}

	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	b.WriteString("₦")
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac > 0 {
		fmt.Fprintf(&b, ".%02d", frac)
	}
	return b.String()
}

// SellerEarnings is what a seller receives for a sale at price.
func SellerEarnings(price Price) Price {
	return Price(float64(price) * (1 - CommissionRate))
}

// Product is a row of the products table.
type Product struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Price       Price      `json:"price"`
	Image       string     `json:"image,omitempty"`
	Location    string     `json:"location,omitempty"`
	Category    string     `json:"category,omitempty"`
	IsPremium   bool       `json:"is_premium"`
	Description string     `json:"description,omitempty"`
	Rating      float64    `json:"rating"`
	SellerID    string     `json:"seller_id,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// NewProduct is a listing submitted by a seller.
type NewProduct struct {
	Title       string
	Price       Price
	Category    string
	Description string
	Location    string
	Image       string
	IsPremium   bool
}

// Category is a row of the categories table.
type Category struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	IconName  string     `json:"icon_name,omitempty"`
	Color     string     `json:"color,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// WishlistItem is a row of the wishlist table.
type WishlistItem struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID string `json:"product_id,omitempty"`
	Title     string `json:"title"`
	Price     Price  `json:"price,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
}

// Order is a row of the orders table.
type Order struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	TotalAmount Price       `json:"total_amount"`
	Status      string      `json:"status"`
	Items       []OrderItem `json:"items,omitempty"`
}

// Summary lists the item titles, or "Items" when there are none.
func (o Order) Summary() string {
	if len(o.Items) == 0 {
		return "Items"
	}
	titles := make([]string, len(o.Items))
	for i, it := range o.Items {
		titles[i] = it.Title
	}
	return strings.Join(titles, ", ")
}

// Filter selects products for display.
type Filter struct {
	// Category is a category id, "premium" for premium listings, or empty
	// or "all" for everything.
	Category string

	// Search matches titles case-insensitively.
	Search string
}

// Apply returns the products matching f, preserving order.
func (f Filter) Apply(products []Product) []Product {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Product, 0, len(products))
	for _, p := range products {
		switch f.Category {
		case "", "all":
		case PremiumCategory.ID:
			if !p.IsPremium {
				continue
			}
		default:
			if p.Category != f.Category {
				continue
			}
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Title), search) {
			continue
		}
		out = append(out, p)
	}
	return out
}
