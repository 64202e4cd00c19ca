package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sugicreations/sugi-backend/pkg/db/models"
	"github.com/sugicreations/sugi-backend/pkg/enums"
	"github.com/sugicreations/sugi-backend/pkg/pagination"
)

// ListFilters narrows a catalog listing.
type ListFilters struct {
	Query      string
	Stock      enums.StockFilter
	CategoryID *uuid.UUID
	MaterialID *uuid.UUID
}

// Repository wraps product persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product with its category and material.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Material").
		Where("products.id = ?", id).
		Take(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns up to limit rows newest-first, starting after cursor.
func (r *Repository) List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Preload("Category").
		Preload("Material")
	query = applyFilters(query, filters)
	query = pagination.After(query, "products", cursor)

	var rows []models.Product
	err := query.
		Order("products.created_at DESC").
		Order("products.id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func applyFilters(query *gorm.DB, filters ListFilters) *gorm.DB {
	if q := strings.TrimSpace(filters.Query); q != "" {
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		query = query.Where(
			`(LOWER(products.name) LIKE ? ESCAPE '\' OR LOWER(products.description) LIKE ? ESCAPE '\')`,
			pattern, pattern,
		)
	}
	switch filters.Stock {
	case enums.StockFilterIn:
		query = query.Where("products.stock >= ?", enums.LowStockThreshold)
	case enums.StockFilterLow:
		query = query.Where("products.stock > 0 AND products.stock < ?", enums.LowStockThreshold)
	case enums.StockFilterOut:
		query = query.Where("products.stock = 0")
	}
	if filters.CategoryID != nil {
		query = query.Where("products.category_id = ?", *filters.CategoryID)
	}
	if filters.MaterialID != nil {
		query = query.Where("products.material_id = ?", *filters.MaterialID)
	}
	return query
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}

// Create inserts the product without touching associations.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error
}

// Update writes only the given columns and returns rows affected.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, columns map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(columns)
	return res.RowsAffected, res.Error
}

// Delete removes the product and returns rows affected.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	return res.RowsAffected, res.Error
}

// CountOrderItems counts order lines that reference the product.
func (r *Repository) CountOrderItems(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("product_id = ?", id).
		Count(&count).Error
	return count, err
}
