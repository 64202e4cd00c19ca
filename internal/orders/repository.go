package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sugicreations/sugi-backend/pkg/db/models"
	"github.com/sugicreations/sugi-backend/pkg/enums"
	"github.com/sugicreations/sugi-backend/pkg/pagination"
)

// stockStatusExpr derives the status column from the post-update stock. SET
// expressions see the pre-update row, so the delta is applied inline.
var stockStatusExpr = fmt.Sprintf(
	"CASE WHEN stock + ? <= 0 THEN '%s' WHEN stock + ? < %d THEN '%s' ELSE '%s' END",
	enums.StockStatusOutOfStock, enums.LowStockThreshold, enums.StockStatusLowStock, enums.StockStatusInStock,
)

// Repository persists orders and adjusts product stock.
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

// AdjustStock adds delta to a product's stock and re-derives its status. A
// negative delta only applies when enough stock remains, so stock never goes
// below zero; zero rows affected means the product is missing or short.
func (r *Repository) AdjustStock(ctx context.Context, productID uuid.UUID, delta int) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID)
	if delta < 0 {
		query = query.Where("stock >= ?", -delta)
	}
	res := query.Updates(map[string]any{
		"stock":  gorm.Expr("stock + ?", delta),
		"status": gorm.Expr(stockStatusExpr, delta, delta),
	})
	return res.RowsAffected, res.Error
}

// FindProduct loads the bare product row.
func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateOrder inserts the order header and its items.
func (r *Repository) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) == 0 {
		return nil
	}
	return tx.Omit(clause.Associations).Create(&items).Error
}

// FindOrder loads an order without items.
func (r *Repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindDetail loads an order with its items and their products.
func (r *Repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := preloadItems(r.db.WithContext(ctx)).
		Where("orders.id = ?", id).
		Take(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindItems returns the order's lines.
func (r *Repository) FindItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("product_id ASC").
		Find(&items).Error
	return items, err
}

// List returns orders newest-first with items.
func (r *Repository) List(ctx context.Context, status *enums.OrderStatus, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	query := preloadItems(r.db.WithContext(ctx).Model(&models.Order{}))
	if status != nil {
		query = query.Where("orders.status = ?", *status)
	}
	query = pagination.After(query, "orders", cursor)

	var rows []models.Order
	err := query.
		Order("orders.created_at DESC").
		Order("orders.id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// CompareAndSetStatus moves the order from one status to another only if it
// still holds from. It returns rows affected.
func (r *Repository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

func preloadItems(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.created_at ASC").Order("order_items.id ASC")
		}).
		Preload("Items.Product")
}
