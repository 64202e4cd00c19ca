package members

import (
	"time"

	"github.com/google/uuid"

	"github.com/sugicreations/sugi-backend/pkg/db/models"
	"github.com/sugicreations/sugi-backend/pkg/enums"
)

// MemberDTO is the public view of a member; the password hash never leaves
// the package.
type MemberDTO struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	Role        enums.MemberRole `json:"role"`
	LastLoginAt *time.Time       `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

func NewMemberDTO(m *models.Member) MemberDTO {
	return MemberDTO{
		ID:          m.ID,
		Name:        m.Name,
		Email:       m.Email,
		Role:        m.Role,
		LastLoginAt: m.LastLoginAt,
		CreatedAt:   m.CreatedAt,
	}
}

// CreateInput registers a member with a plaintext password that is hashed
// before storage.
type CreateInput struct {
	Name     string
	Email    string
	Password string
	Role     enums.MemberRole
}
