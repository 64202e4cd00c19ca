package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads and writes one classification table.
type Repository struct {
	db   *gorm.DB
	kind Kind
}

func NewRepository(db *gorm.DB, kind Kind) *Repository {
	return &Repository{db: db, kind: kind}
}

func (r *Repository) table(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table(r.kind.Table)
}

// ListWithCounts returns every term ordered by name with its product count.
func (r *Repository) ListWithCounts(ctx context.Context) ([]TermSummary, error) {
	var rows []TermSummary
	query := fmt.Sprintf(`
SELECT t.id, t.name, COUNT(p.id) AS product_count
FROM %s t
LEFT JOIN products p ON p.%s = t.id
GROUP BY t.id, t.name
ORDER BY t.name ASC`, r.kind.Table, r.kind.ProductColumn)
	err := r.db.WithContext(ctx).Raw(query).Scan(&rows).Error
	return rows, err
}

// FindByID returns gorm.ErrRecordNotFound when the term does not exist.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*Term, error) {
	var term Term
	if err := r.table(ctx).Where("id = ?", id).Take(&term).Error; err != nil {
		return nil, err
	}
	return &term, nil
}

// FindByName matches case-insensitively.
func (r *Repository) FindByName(ctx context.Context, name string) (*Term, error) {
	var term Term
	err := r.table(ctx).Where("LOWER(name) = ?", strings.ToLower(name)).Take(&term).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &term, nil
}

func (r *Repository) Create(ctx context.Context, term *Term) error {
	return r.table(ctx).Create(term).Error
}

// Rename returns the number of rows changed.
func (r *Repository) Rename(ctx context.Context, id uuid.UUID, name string) (int64, error) {
	res := r.table(ctx).Where("id = ?", id).Updates(map[string]any{
		"name":       name,
		"updated_at": time.Now().UTC(),
	})
	return res.RowsAffected, res.Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.table(ctx).Where("id = ?", id).Delete(&Term{})
	return res.RowsAffected, res.Error
}

// CountProducts counts products referencing the term.
func (r *Repository) CountProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("products").
		Where(r.kind.ProductColumn+" = ?", id).
		Count(&count).Error
	return count, err
}
