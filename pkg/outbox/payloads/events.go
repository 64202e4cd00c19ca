package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine is one purchased product inside an order event.
type OrderLine struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderCreatedEvent is emitted when the order writer commits an order.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID       `json:"orderId"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	Total         decimal.Decimal `json:"total"`
	Items         []OrderLine     `json:"items"`
}

// OrderStatusChangedEvent is emitted for every admin status transition.
type OrderStatusChangedEvent struct {
	OrderID   uuid.UUID `json:"orderId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Restocked bool      `json:"restocked"`
}

// StockDepletedEvent is emitted when a checkout takes a product to zero.
type StockDepletedEvent struct {
	ProductID uuid.UUID `json:"productId"`
	OrderID   uuid.UUID `json:"orderId"`
}
