package taxonomy

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Term is a category or material row.
type Term struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (t *Term) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TermSummary is a list row with the number of products using the term.
type TermSummary struct {
	ID           uuid.UUID `gorm:"column:id" json:"id"`
	Name         string    `gorm:"column:name" json:"name"`
	ProductCount int64     `gorm:"column:product_count" json:"productCount"`
}
