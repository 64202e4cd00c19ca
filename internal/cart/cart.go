// Package cart holds the shopping cart state container and its Redis-backed
// persistence.
package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a cart line. Name, Price and Image are catalog snapshots refreshed
// on every add.
type Item struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
}

// Cart is an explicit, caller-owned cart. The zero value is an empty cart.
type Cart struct {
	Items []Item `json:"items"`
}

// AddItem increments the quantity of an existing line by one, or appends
// item with quantity one. An existing line takes the snapshot carried by
// item. Stock is not checked here.
func (c *Cart) AddItem(item Item) {
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			item.Quantity = c.Items[i].Quantity + 1
			c.Items[i] = item
			return
		}
	}
	item.Quantity = 1
	c.Items = append(c.Items, item)
}

// UpdateQuantity sets the quantity of a line; zero or less removes it.
func (c *Cart) UpdateQuantity(productID uuid.UUID, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return
		}
	}
}

// RemoveItem drops the line for productID if present.
func (c *Cart) RemoveItem(productID uuid.UUID) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	c.Items = kept
}

// Quantity returns the quantity held for productID, zero when absent.
func (c *Cart) Quantity(productID uuid.UUID) int {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

// Contains reports whether productID has a line.
func (c *Cart) Contains(productID uuid.UUID) bool {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// TotalItems is the sum of quantities.
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// TotalPrice is the sum of price x quantity.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = nil
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
