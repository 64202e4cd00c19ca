package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sugicreations/sugi-backend/pkg/db/models"
	"github.com/sugicreations/sugi-backend/pkg/enums"
)

// ProductDTO is the catalog payload returned to clients.
type ProductDTO struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       decimal.Decimal   `json:"price"`
	Stock       int               `json:"stock"`
	Status      enums.StockStatus `json:"status"`
	Images      []string          `json:"images"`
	CategoryID  uuid.UUID         `json:"categoryId"`
	Category    *TermRef          `json:"category,omitempty"`
	MaterialID  *uuid.UUID        `json:"materialId"`
	Material    *TermRef          `json:"material"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// TermRef is the embedded category or material of a product.
type TermRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// NewProductDTO maps a product row, with optionally preloaded relations.
func NewProductDTO(p *models.Product) ProductDTO {
	images := []string(p.Images)
	if images == nil {
		images = []string{}
	}
	dto := ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Status:      enums.StockStatusFor(p.Stock),
		Images:      images,
		CategoryID:  p.CategoryID,
		MaterialID:  p.MaterialID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Category != nil {
		dto.Category = &TermRef{ID: p.Category.ID, Name: p.Category.Name}
	}
	if p.Material != nil {
		dto.Material = &TermRef{ID: p.Material.ID, Name: p.Material.Name}
	}
	return dto
}

// NewProductDTOs maps a slice of product rows.
func NewProductDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewProductDTO(&rows[i]))
	}
	return out
}
