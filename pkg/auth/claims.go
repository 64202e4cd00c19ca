package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sugicreations/sugi-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	MemberID uuid.UUID
	Email    string
	Role     enums.MemberRole
	// JTI doubles as the session id in Redis; generated when empty.
	JTI string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	MemberID uuid.UUID        `json:"member_id"`
	Email    string           `json:"email,omitempty"`
	Role     enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the token carries the admin role.
func (c *AccessTokenClaims) IsAdmin() bool {
	return c != nil && c.Role == enums.MemberRoleAdmin
}
