package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sugicreations/sugi-backend/pkg/db/models"
	"github.com/sugicreations/sugi-backend/pkg/enums"
	"github.com/sugicreations/sugi-backend/pkg/outbox"
	"github.com/sugicreations/sugi-backend/pkg/pagination"
)

// LineInput is one requested product. Price, when set, is the unit price the
// buyer saw and must still match the catalog.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
	Price     *decimal.Decimal
}

// PlaceOrderInput is the checkout request handed to the order writer.
type PlaceOrderInput struct {
	CustomerName  string
	CustomerEmail string
	Items         []LineInput
	Actor         *outbox.ActorRef
}

// ListInput filters the admin order listing.
type ListInput struct {
	Status     *enums.OrderStatus
	Pagination pagination.Params
}

// UpdateStatusInput moves an order through its lifecycle.
type UpdateStatusInput struct {
	OrderID uuid.UUID
	Status  enums.OrderStatus
	Actor   *outbox.ActorRef
}

// OrderDTO is the order payload returned to clients.
type OrderDTO struct {
	ID            uuid.UUID         `json:"id"`
	CustomerName  string            `json:"customerName"`
	CustomerEmail string            `json:"customerEmail"`
	Status        enums.OrderStatus `json:"status"`
	Total         decimal.Decimal   `json:"total"`
	Items         []OrderItemDTO    `json:"items"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// OrderItemDTO is a purchased line with its price snapshot.
type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	Image       string          `json:"image,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// NewOrderDTO maps an order row and its preloaded items.
func NewOrderDTO(o *models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		dto := OrderItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			LineTotal: item.LineTotal(),
		}
		if item.Product != nil {
			dto.ProductName = item.Product.Name
			if len(item.Product.Images) > 0 {
				dto.Image = item.Product.Images[0]
			}
		}
		items = append(items, dto)
	}
	return OrderDTO{
		ID:            o.ID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Status:        o.Status,
		Total:         o.Total,
		Items:         items,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// NewOrderDTOs maps a slice of order rows.
func NewOrderDTOs(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewOrderDTO(&rows[i]))
	}
	return out
}
