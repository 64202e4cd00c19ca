package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sugicreations/sugi-backend/pkg/enums"
)

// Member is a storefront account; admins manage the catalog.
type Member struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name         string           `gorm:"column:name;not null"`
	Email        string           `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string           `gorm:"column:password_hash;not null"`
	Role         enums.MemberRole `gorm:"column:role;not null"`
	LastLoginAt  *time.Time       `gorm:"column:last_login_at"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *Member) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
