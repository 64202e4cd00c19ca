package enums

import (
	"fmt"
	"strings"
)

// MemberRole is the role claim carried by a member session.
type MemberRole string

const (
	MemberRoleUser  MemberRole = "USER"
	MemberRoleAdmin MemberRole = "ADMIN"
)

var validMemberRoles = []MemberRole{
	MemberRoleUser,
	MemberRoleAdmin,
}

// String implements fmt.Stringer.
func (m MemberRole) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MemberRole.
func (m MemberRole) IsValid() bool {
	for _, candidate := range validMemberRoles {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMemberRole converts raw input into a MemberRole, ignoring case.
func ParseMemberRole(value string) (MemberRole, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validMemberRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member role %q", value)
}
