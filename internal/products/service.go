package products

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sugicreations/sugi-backend/pkg/db"
	"github.com/sugicreations/sugi-backend/pkg/db/models"
	"github.com/sugicreations/sugi-backend/pkg/enums"
	pkgerrors "github.com/sugicreations/sugi-backend/pkg/errors"
	"github.com/sugicreations/sugi-backend/pkg/logger"
	"github.com/sugicreations/sugi-backend/pkg/pagination"
	"github.com/sugicreations/sugi-backend/pkg/types"
)

const searchLimit = 50

// Service exposes catalog reads and admin product management.
type Service interface {
	List(ctx context.Context, input ListInput) (*types.Page[ProductDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Search(ctx context.Context, query string) ([]ProductDTO, error)
	Create(ctx context.Context, input CreateInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ListInput captures catalog filters and cursor pagination.
type ListInput struct {
	Filters    ListFilters
	Pagination pagination.Params
}

// CreateInput holds the validated payload to create a product.
type CreateInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Images      []string
	CategoryID  uuid.UUID
	MaterialID  *uuid.UUID
}

// UpdateInput holds optional product mutations. ClearMaterial detaches the
// material when MaterialID is nil.
type UpdateInput struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	Stock         *int
	Images        *[]string
	CategoryID    *uuid.UUID
	MaterialID    *uuid.UUID
	ClearMaterial bool
}

// termChecker reports whether a category or material exists.
type termChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// CacheInvalidator drops derived views (dashboard counters) after writes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type service struct {
	repo       *Repository
	categories termChecker
	materials  termChecker
	cache      CacheInvalidator
	logg       *logger.Logger
}

// NewService constructs the product service. cache may be nil.
func NewService(repo *Repository, categories, materials termChecker, cache CacheInvalidator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category checker required")
	}
	if materials == nil {
		return nil, fmt.Errorf("material checker required")
	}
	return &service{
		repo:       repo,
		categories: categories,
		materials:  materials,
		cache:      cache,
		logg:       logg,
	}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*types.Page[ProductDTO], error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if _, err := enums.ParseStockFilter(string(input.Filters.Stock)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stock filter")
	}

	rows, err := s.repo.List(ctx, input.Filters, cursor, pagination.LimitWithBuffer(input.Pagination.Limit))
	if err != nil {
		return nil, pkgerrors.Storage(err, "list products")
	}
	rows, next := pagination.Trim(rows, input.Pagination.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return &types.Page[ProductDTO]{Items: NewProductDTOs(rows), NextCursor: next}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Storage(err, "load product")
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

// Search is the storefront search: only products that are fully in stock.
func (s *service) Search(ctx context.Context, query string) ([]ProductDTO, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []ProductDTO{}, nil
	}
	rows, err := s.repo.List(ctx, ListFilters{Query: query, Stock: enums.StockFilterIn}, nil, searchLimit)
	if err != nil {
		return nil, pkgerrors.Storage(err, "search products")
	}
	return NewProductDTOs(rows), nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*ProductDTO, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}
	if input.MaterialID != nil {
		if err := s.ensureMaterial(ctx, *input.MaterialID); err != nil {
			return nil, err
		}
	}

	product := &models.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price.Round(2),
		Stock:       input.Stock,
		Images:      pq.StringArray(input.Images),
		CategoryID:  input.CategoryID,
		MaterialID:  input.MaterialID,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, fieldError("categoryId", "category or material no longer exists")
		}
		return nil, pkgerrors.Storage(err, "create product")
	}
	s.invalidate(ctx)
	return s.Get(ctx, product.ID)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*ProductDTO, error) {
	columns := map[string]any{}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fieldError("name", "name is required")
		}
		columns["name"] = name
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, fieldError("description", "description is required")
		}
		columns["description"] = description
	}
	if input.Price != nil {
		if !input.Price.IsPositive() {
			return nil, fieldError("price", "price must be greater than zero")
		}
		columns["price"] = input.Price.Round(2)
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, fieldError("stock", "stock cannot be negative")
		}
		columns["stock"] = *input.Stock
		columns["status"] = enums.StockStatusFor(*input.Stock)
	}
	if input.Images != nil {
		if err := validateImages(*input.Images); err != nil {
			return nil, err
		}
		columns["images"] = pq.StringArray(*input.Images)
	}
	if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
		columns["category_id"] = *input.CategoryID
	}
	switch {
	case input.MaterialID != nil:
		if err := s.ensureMaterial(ctx, *input.MaterialID); err != nil {
			return nil, err
		}
		columns["material_id"] = *input.MaterialID
	case input.ClearMaterial:
		columns["material_id"] = nil
	}

	if len(columns) == 0 {
		return s.Get(ctx, id)
	}

	affected, err := s.repo.Update(ctx, id, columns)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, fieldError("categoryId", "category or material no longer exists")
		}
		return nil, pkgerrors.Storage(err, "update product")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// Delete refuses to remove products that appear in order history.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	count, err := s.repo.CountOrderItems(ctx, id)
	if err != nil {
		return pkgerrors.Storage(err, "count order items")
	}
	if count > 0 {
		return inOrders(id, count)
	}

	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return inOrders(id, count)
		}
		return pkgerrors.Storage(err, "delete product")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	s.invalidate(ctx)
	return nil
}

func (s *service) ensureCategory(ctx context.Context, id uuid.UUID) error {
	ok, err := s.categories.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fieldError("categoryId", "category does not exist")
	}
	return nil
}

func (s *service) ensureMaterial(ctx context.Context, id uuid.UUID) error {
	ok, err := s.materials.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fieldError("materialId", "material does not exist")
	}
	return nil
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "catalog cache invalidation failed")
	}
}

func validateCreate(input CreateInput) error {
	if input.Name == "" {
		return fieldError("name", "name is required")
	}
	if input.Description == "" {
		return fieldError("description", "description is required")
	}
	if !input.Price.IsPositive() {
		return fieldError("price", "price must be greater than zero")
	}
	if input.Stock < 0 {
		return fieldError("stock", "stock cannot be negative")
	}
	if input.CategoryID == uuid.Nil {
		return fieldError("categoryId", "categoryId is required")
	}
	return validateImages(input.Images)
}

func validateImages(images []string) error {
	if len(images) == 0 {
		return fieldError("images", "at least one image is required")
	}
	for _, raw := range images {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fieldError("images", fmt.Sprintf("invalid image url %q", raw))
		}
	}
	return nil
}

func fieldError(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]string{field: message})
}

func inOrders(id uuid.UUID, count int64) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "product appears in existing orders").
		WithDetails(map[string]any{"product_id": id, "order_item_count": count})
}
