package orders

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sugicreations/sugi-backend/pkg/db/models"
	"github.com/sugicreations/sugi-backend/pkg/enums"
	pkgerrors "github.com/sugicreations/sugi-backend/pkg/errors"
	"github.com/sugicreations/sugi-backend/pkg/logger"
	"github.com/sugicreations/sugi-backend/pkg/metrics"
	"github.com/sugicreations/sugi-backend/pkg/outbox"
	"github.com/sugicreations/sugi-backend/pkg/outbox/payloads"
	"github.com/sugicreations/sugi-backend/pkg/pagination"
	"github.com/sugicreations/sugi-backend/pkg/types"
)

const (
	maxLines       = 50
	maxQuantity    = 99
	maxNameLength  = 120
	maxEmailLength = 254
)

var validate = validator.New()

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CacheInvalidator drops cached admin views after order writes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service is the order writer plus the admin order operations.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderDTO, error)
	List(ctx context.Context, input ListInput) (*types.Page[OrderDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error)
}

// ServiceParams wires the order service. Cache, Metrics and Logger are optional.
type ServiceParams struct {
	Repo    *Repository
	Tx      txRunner
	Outbox  outbox.Emitter
	Cache   CacheInvalidator
	Metrics *metrics.OrderMetrics
	Logger  *logger.Logger
}

type service struct {
	repo    *Repository
	tx      txRunner
	outbox  outbox.Emitter
	cache   CacheInvalidator
	metrics *metrics.OrderMetrics
	logg    *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		outbox:  params.Outbox,
		cache:   params.Cache,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// PlaceOrder atomically decrements stock, snapshots prices and records the
// order. Either every line commits or nothing does.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderDTO, error) {
	started := time.Now()

	lines, err := normalizeOrderInput(&input)
	if err != nil {
		s.metrics.IncFailure(string(pkgerrors.CodeValidation))
		return nil, err
	}

	var order models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		items := make([]models.OrderItem, 0, len(lines))
		total := decimal.Zero
		var depleted []uuid.UUID

		for _, line := range lines {
			affected, err := repo.AdjustStock(ctx, line.ProductID, -line.Quantity)
			if err != nil {
				return pkgerrors.Storage(err, "decrement stock")
			}
			product, err := repo.FindProduct(ctx, line.ProductID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
					WithDetails(map[string]any{"product_id": line.ProductID})
			}
			if err != nil {
				return pkgerrors.Storage(err, "load product")
			}
			if affected == 0 {
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("only %d of %s left in stock", product.Stock, product.Name)).
					WithDetails(map[string]any{
						"product_id": product.ID,
						"requested":  line.Quantity,
						"available":  product.Stock,
					})
			}
			if line.Price != nil && !line.Price.Equal(product.Price) {
				return pkgerrors.New(pkgerrors.CodeConflict, "price changed").
					WithDetails(map[string]any{
						"product_id": product.ID,
						"expected":   line.Price.String(),
						"current":    product.Price.String(),
					})
			}
			if product.Stock == 0 {
				depleted = append(depleted, product.ID)
			}

			item := models.OrderItem{
				ProductID: product.ID,
				Quantity:  line.Quantity,
				Price:     product.Price,
			}
			total = total.Add(item.LineTotal())
			items = append(items, item)
		}

		order = models.Order{
			CustomerName:  input.CustomerName,
			CustomerEmail: input.CustomerEmail,
			Status:        enums.OrderStatusProcessing,
			Total:         total,
		}
		if err := repo.CreateOrder(ctx, &order, items); err != nil {
			return pkgerrors.Storage(err, "insert order")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         input.Actor,
			Data:          orderCreatedPayload(order, items),
		}); err != nil {
			return pkgerrors.Storage(err, "emit order_created")
		}
		for _, productID := range depleted {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventStockDepleted,
				AggregateType: enums.AggregateProduct,
				AggregateID:   productID,
				Data:          payloads.StockDepletedEvent{ProductID: productID, OrderID: order.ID},
			}); err != nil {
				return pkgerrors.Storage(err, "emit stock_depleted")
			}
		}
		return nil
	})
	if err != nil {
		err = pkgerrors.Storage(err, "place order")
		s.metrics.IncFailure(string(pkgerrors.As(err).Code()))
		if s.logg != nil && pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
			s.logg.Error(ctx, "order placement failed", err)
		}
		return nil, err
	}

	s.metrics.ObservePlaced(order.Total, time.Since(started))
	s.invalidate(ctx)
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(s.logg.WithField(logCtx, "total", order.Total.String()), "order placed")
	}
	return s.Get(ctx, order.ID)
}

func (s *service) List(ctx context.Context, input ListInput) (*types.Page[OrderDTO], error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, input.Status, cursor, pagination.LimitWithBuffer(input.Pagination.Limit))
	if err != nil {
		return nil, pkgerrors.Storage(err, "list orders")
	}
	rows, next := pagination.Trim(rows, input.Pagination.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &types.Page[OrderDTO]{Items: NewOrderDTOs(rows), NextCursor: next}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindDetail(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Storage(err, "load order")
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

// UpdateStatus applies a lifecycle transition. Setting the current status is
// a no-op; cancelling returns every item to stock in the same transaction.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]string{"status": string(input.Status)})
	}

	changed := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, input.OrderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if err != nil {
			return pkgerrors.Storage(err, "load order")
		}

		from := order.Status
		if from == input.Status {
			return nil
		}
		if !from.CanTransitionTo(input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", from, input.Status)).
				WithDetails(map[string]any{"from": from, "to": input.Status})
		}

		affected, err := repo.CompareAndSetStatus(ctx, order.ID, from, input.Status)
		if err != nil {
			return pkgerrors.Storage(err, "update order status")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}

		restocked := false
		if input.Status == enums.OrderStatusCancelled {
			items, err := repo.FindItems(ctx, order.ID)
			if err != nil {
				return pkgerrors.Storage(err, "load order items")
			}
			for _, item := range items {
				if _, err := repo.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
					return pkgerrors.Storage(err, "restock product")
				}
			}
			restocked = len(items) > 0
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         input.Actor,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:   order.ID,
				From:      string(from),
				To:        string(input.Status),
				Restocked: restocked,
			},
		}); err != nil {
			return pkgerrors.Storage(err, "emit order_status_changed")
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Storage(err, "update order status")
	}

	if changed {
		s.metrics.IncStatusChange(string(input.Status))
		s.invalidate(ctx)
		if s.logg != nil {
			logCtx := s.logg.WithOrderID(ctx, input.OrderID.String())
			s.logg.Info(s.logg.WithField(logCtx, "status", input.Status), "order status updated")
		}
	}
	return s.Get(ctx, input.OrderID)
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "order cache invalidation failed")
	}
}

// normalizeOrderInput validates the request and merges repeated products into
// one line, sorted by product id so concurrent orders lock rows in one order.
func normalizeOrderInput(input *PlaceOrderInput) ([]LineInput, error) {
	input.CustomerName = strings.TrimSpace(input.CustomerName)
	input.CustomerEmail = strings.ToLower(strings.TrimSpace(input.CustomerEmail))

	if input.CustomerName == "" || len([]rune(input.CustomerName)) > maxNameLength {
		return nil, fieldError("customerName", "customer name is required")
	}
	if len(input.CustomerEmail) > maxEmailLength || validate.Var(input.CustomerEmail, "required,email") != nil {
		return nil, fieldError("customerEmail", "a valid email is required")
	}
	if len(input.Items) == 0 {
		return nil, fieldError("items", "order must contain at least one item")
	}

	merged := make(map[uuid.UUID]*LineInput, len(input.Items))
	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, fieldError(fmt.Sprintf("items[%d].productId", i), "productId is required")
		}
		if item.Quantity < 1 || item.Quantity > maxQuantity {
			return nil, fieldError(fmt.Sprintf("items[%d].quantity", i), fmt.Sprintf("quantity must be between 1 and %d", maxQuantity))
		}
		if existing, ok := merged[item.ProductID]; ok {
			existing.Quantity += item.Quantity
			if existing.Quantity > maxQuantity {
				return nil, fieldError(fmt.Sprintf("items[%d].quantity", i), fmt.Sprintf("total quantity of a product cannot exceed %d", maxQuantity))
			}
			if existing.Price == nil {
				existing.Price = item.Price
			}
			continue
		}
		line := item
		merged[item.ProductID] = &line
	}
	if len(merged) > maxLines {
		return nil, fieldError("items", fmt.Sprintf("order cannot contain more than %d products", maxLines))
	}

	lines := make([]LineInput, 0, len(merged))
	for _, line := range merged {
		lines = append(lines, *line)
	}
	sort.Slice(lines, func(i, j int) bool {
		return bytes.Compare(lines[i].ProductID[:], lines[j].ProductID[:]) < 0
	})
	return lines, nil
}

func orderCreatedPayload(order models.Order, items []models.OrderItem) payloads.OrderCreatedEvent {
	lines := make([]payloads.OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, payloads.OrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return payloads.OrderCreatedEvent{
		OrderID:       order.ID,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Total:         order.Total,
		Items:         lines,
	}
}

func fieldError(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]string{field: message})
}
