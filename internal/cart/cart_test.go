package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func item(price string) Item {
	return Item{ProductID: uuid.New(), Name: "ring", Price: decimal.RequireFromString(price), Quantity: 7}
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	var c Cart
	ring := item("100")

	c.AddItem(ring)
	if len(c.Items) != 1 || c.Items[0].Quantity != 1 {
		t.Fatalf("first add should append with quantity 1, got %+v", c.Items)
	}
	ring.Price = decimal.RequireFromString("120")
	c.AddItem(ring)
	if len(c.Items) != 1 || c.Items[0].Quantity != 2 {
		t.Fatalf("second add should increment, got %+v", c.Items)
	}
	if !c.Items[0].Price.Equal(decimal.RequireFromString("120")) {
		t.Fatalf("second add should refresh the price, got %s", c.Items[0].Price)
	}
	if c.Quantity(ring.ProductID) != 2 || c.Quantity(uuid.New()) != 0 {
		t.Fatalf("unexpected quantities %+v", c.Items)
	}
	c.AddItem(item("50"))
	if len(c.Items) != 2 {
		t.Fatalf("different product should append, got %d lines", len(c.Items))
	}
}

func TestUpdateQuantityAndRemove(t *testing.T) {
	var c Cart
	a, b := item("10"), item("20")
	c.AddItem(a)
	c.AddItem(b)

	c.UpdateQuantity(a.ProductID, 4)
	if c.Items[0].Quantity != 4 {
		t.Fatalf("quantity not updated: %+v", c.Items[0])
	}
	c.UpdateQuantity(uuid.New(), 3)
	if c.TotalItems() != 5 {
		t.Fatalf("unknown product must not change cart, total %d", c.TotalItems())
	}

	c.UpdateQuantity(a.ProductID, 0)
	if c.Contains(a.ProductID) || len(c.Items) != 1 {
		t.Fatalf("zero quantity should remove line, got %+v", c.Items)
	}
	c.UpdateQuantity(b.ProductID, -2)
	if !c.IsEmpty() {
		t.Fatalf("negative quantity should remove line, got %+v", c.Items)
	}
}

func TestTotals(t *testing.T) {
	var c Cart
	a, b := item("19.99"), item("5.01")
	c.AddItem(a)
	c.AddItem(b)
	c.UpdateQuantity(a.ProductID, 3)

	if c.TotalItems() != 4 {
		t.Fatalf("expected 4 items, got %d", c.TotalItems())
	}
	if want := decimal.RequireFromString("64.98"); !c.TotalPrice().Equal(want) {
		t.Fatalf("expected %s, got %s", want, c.TotalPrice())
	}

	c.RemoveItem(b.ProductID)
	c.Clear()
	if !c.IsEmpty() || c.TotalItems() != 0 || !c.TotalPrice().IsZero() {
		t.Fatalf("clear should empty the cart")
	}
}
