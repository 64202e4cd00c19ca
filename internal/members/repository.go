package members

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sugicreations/sugi-backend/pkg/db/models"
	"github.com/sugicreations/sugi-backend/pkg/enums"
)

// Repository exposes member persistence operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// FindByEmail matches case-insensitively.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).Where("lower(email) = lower(?)", email).Take(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// List returns members ordered by email, optionally limited to one role.
func (r *Repository) List(ctx context.Context, role *enums.MemberRole) ([]models.Member, error) {
	query := r.db.WithContext(ctx).Order("email ASC")
	if role != nil {
		query = query.Where("role = ?", *role)
	}
	var members []models.Member
	if err := query.Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.update(ctx, id, "password_hash", hash)
}

func (r *Repository) UpdateRole(ctx context.Context, id uuid.UUID, role enums.MemberRole) error {
	return r.update(ctx, id, "role", role)
}

// Delete removes the member and reports whether a row existed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Member{})
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) update(ctx context.Context, id uuid.UUID, column string, value any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ?", id).
		Updates(map[string]any{column: value, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
