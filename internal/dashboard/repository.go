package dashboard

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sugicreations/sugi-backend/pkg/db/models"
	"github.com/sugicreations/sugi-backend/pkg/enums"
)

// Repository runs the aggregate queries behind the admin dashboard.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DeliveredSales sums the totals of delivered orders.
func (r *Repository) DeliveredSales(ctx context.Context) (decimal.Decimal, error) {
	var row struct {
		Total decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("SUM(total) AS total").
		Where("status = ?", enums.OrderStatusDelivered).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !row.Total.Valid {
		return decimal.Zero, nil
	}
	return row.Total.Decimal, nil
}

func (r *Repository) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&n).Error
	return n, err
}

func (r *Repository) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error
	return n, err
}

// CountLowStock counts products with stock above zero and under the low
// stock threshold.
func (r *Repository) CountLowStock(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("stock > 0 AND stock < ?", enums.LowStockThreshold).
		Count(&n).Error
	return n, err
}
