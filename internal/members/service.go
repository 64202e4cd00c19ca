// Package members manages storefront and admin accounts.
package members

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/sugicreations/sugi-backend/pkg/config"
	"github.com/sugicreations/sugi-backend/pkg/db"
	"github.com/sugicreations/sugi-backend/pkg/db/models"
	"github.com/sugicreations/sugi-backend/pkg/enums"
	pkgerrors "github.com/sugicreations/sugi-backend/pkg/errors"
	"github.com/sugicreations/sugi-backend/pkg/security"
)

const minPasswordLength = 8

var validate = validator.New()

type Service interface {
	Create(ctx context.Context, input CreateInput) (*MemberDTO, error)
	List(ctx context.Context, role *enums.MemberRole) ([]MemberDTO, error)
	GetByEmail(ctx context.Context, email string) (*MemberDTO, error)
	SetRole(ctx context.Context, email string, role enums.MemberRole) (*MemberDTO, error)
	Delete(ctx context.Context, email string) error
	// CheckPassword reports whether password matches the stored hash.
	CheckPassword(ctx context.Context, email, password string) (bool, error)
}

type service struct {
	repo     *Repository
	password config.PasswordConfig
}

func NewService(repo *Repository, password config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("member repository required")
	}
	return &service{repo: repo, password: password}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*MemberDTO, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" {
		return nil, fieldError("name", "name is required")
	}
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, fieldError("email", "a valid email is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, fieldError("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	role := input.Role
	if role == "" {
		role = enums.MemberRoleUser
	}
	if !role.IsValid() {
		return nil, fieldError("role", "unknown role")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	member := &models.Member{Name: name, Email: email, PasswordHash: hash, Role: role}
	if err := s.repo.Create(ctx, member); err != nil {
		if db.IsUniqueViolation(err, "ux_members_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered").
				WithDetails(map[string]string{"email": email})
		}
		return nil, pkgerrors.Storage(err, "create member")
	}
	dto := NewMemberDTO(member)
	return &dto, nil
}

func (s *service) List(ctx context.Context, role *enums.MemberRole) ([]MemberDTO, error) {
	rows, err := s.repo.List(ctx, role)
	if err != nil {
		return nil, pkgerrors.Storage(err, "list members")
	}
	out := make([]MemberDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewMemberDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) GetByEmail(ctx context.Context, email string) (*MemberDTO, error) {
	member, err := s.find(ctx, email)
	if err != nil {
		return nil, err
	}
	dto := NewMemberDTO(member)
	return &dto, nil
}

func (s *service) SetRole(ctx context.Context, email string, role enums.MemberRole) (*MemberDTO, error) {
	if !role.IsValid() {
		return nil, fieldError("role", "unknown role")
	}
	member, err := s.find(ctx, email)
	if err != nil {
		return nil, err
	}
	if member.Role != role {
		if err := s.repo.UpdateRole(ctx, member.ID, role); err != nil {
			return nil, pkgerrors.Storage(err, "update member role")
		}
		member.Role = role
	}
	dto := NewMemberDTO(member)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, email string) error {
	member, err := s.find(ctx, email)
	if err != nil {
		return err
	}
	if _, err := s.repo.Delete(ctx, member.ID); err != nil {
		return pkgerrors.Storage(err, "delete member")
	}
	return nil
}

func (s *service) CheckPassword(ctx context.Context, email, password string) (bool, error) {
	member, err := s.find(ctx, email)
	if err != nil {
		return false, err
	}
	ok, err := security.VerifyPassword(password, member.PasswordHash)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	return ok, nil
}

func (s *service) find(ctx context.Context, email string) (*models.Member, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fieldError("email", "email is required")
	}
	member, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Storage(err, "find member")
	}
	return member, nil
}

func fieldError(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).
		WithDetails(map[string]string{field: message})
}
