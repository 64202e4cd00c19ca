package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sugicreations/sugi-backend/pkg/enums"
)

// Product is a catalog listing. Status is derived from Stock on every write.
type Product struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Name        string            `gorm:"column:name;not null"`
	Description string            `gorm:"column:description;not null"`
	Price       decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null"`
	Stock       int               `gorm:"column:stock;not null"`
	Status      enums.StockStatus `gorm:"column:status;not null"`
	Images      pq.StringArray    `gorm:"column:images;type:text[];not null"`
	CategoryID  uuid.UUID         `gorm:"column:category_id;type:uuid;not null"`
	Category    *Category         `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
	MaterialID  *uuid.UUID        `gorm:"column:material_id;type:uuid"`
	Material    *Material         `gorm:"foreignKey:MaterialID;constraint:OnDelete:RESTRICT"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	p.Status = enums.StockStatusFor(p.Stock)
	if p.Images == nil {
		p.Images = pq.StringArray{}
	}
	return nil
}
