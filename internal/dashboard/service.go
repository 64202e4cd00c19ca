// Package dashboard serves the admin overview numbers and keeps them in a
// short-lived Redis cache that order and product writes invalidate.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sugicreations/sugi-backend/internal/orders"
	pkgerrors "github.com/sugicreations/sugi-backend/pkg/errors"
	"github.com/sugicreations/sugi-backend/pkg/logger"
	"github.com/sugicreations/sugi-backend/pkg/pagination"
	"github.com/sugicreations/sugi-backend/pkg/types"
)

const (
	RecentOrdersLimit = 5
	defaultCacheTTL   = 5 * time.Minute
)

// Cache is the JSON cache surface; *redis.Client satisfies it.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

type orderLister interface {
	List(ctx context.Context, input orders.ListInput) (*types.Page[orders.OrderDTO], error)
}

// Stats is the dashboard summary.
type Stats struct {
	TotalSales       decimal.Decimal `json:"totalSales"`
	TotalOrders      int64           `json:"totalOrders"`
	TotalProducts    int64           `json:"totalProducts"`
	LowStockProducts int64           `json:"lowStockProducts"`
}

type Service interface {
	Stats(ctx context.Context) (*Stats, error)
	RecentOrders(ctx context.Context) ([]orders.OrderDTO, error)
	Invalidate(ctx context.Context) error
}

type service struct {
	repo   *Repository
	orders orderLister
	cache  Cache
	ttl    time.Duration
	logg   *logger.Logger
}

// NewService builds the dashboard service. A nil cache disables caching.
func NewService(repo *Repository, orders orderLister, cache Cache, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dashboard repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order lister required")
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &service{repo: repo, orders: orders, cache: cache, ttl: ttl, logg: logg}, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if s.cached(ctx, s.statsKey(), &stats) {
		return &stats, nil
	}

	var err error
	if stats.TotalSales, err = s.repo.DeliveredSales(ctx); err != nil {
		return nil, pkgerrors.Storage(err, "sum delivered sales")
	}
	if stats.TotalOrders, err = s.repo.CountOrders(ctx); err != nil {
		return nil, pkgerrors.Storage(err, "count orders")
	}
	if stats.TotalProducts, err = s.repo.CountProducts(ctx); err != nil {
		return nil, pkgerrors.Storage(err, "count products")
	}
	if stats.LowStockProducts, err = s.repo.CountLowStock(ctx); err != nil {
		return nil, pkgerrors.Storage(err, "count low stock products")
	}

	s.store(ctx, s.statsKey(), stats)
	return &stats, nil
}

func (s *service) RecentOrders(ctx context.Context) ([]orders.OrderDTO, error) {
	var recent []orders.OrderDTO
	if s.cached(ctx, s.recentKey(), &recent) {
		return recent, nil
	}

	page, err := s.orders.List(ctx, orders.ListInput{
		Pagination: pagination.Params{Limit: RecentOrdersLimit},
	})
	if err != nil {
		return nil, err
	}
	recent = page.Items
	if recent == nil {
		recent = []orders.OrderDTO{}
	}

	s.store(ctx, s.recentKey(), recent)
	return recent, nil
}

// Invalidate drops every cached dashboard view.
func (s *service) Invalidate(ctx context.Context) error {
	return NewCacheInvalidator(s.cache).Invalidate(ctx)
}

// CacheInvalidator drops the cached dashboard views without needing the
// rest of the service. Order and product writes hold one.
type CacheInvalidator struct {
	cache Cache
}

func NewCacheInvalidator(cache Cache) *CacheInvalidator {
	return &CacheInvalidator{cache: cache}
}

func (c *CacheInvalidator) Invalidate(ctx context.Context) error {
	if c == nil || c.cache == nil {
		return nil
	}
	return c.cache.Del(ctx, statsKey(c.cache), recentKey(c.cache))
}

func (s *service) cached(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.GetJSON(ctx, key, dest)
	if err != nil {
		s.warn(ctx, "dashboard cache read failed", err)
		return false
	}
	return found
}

func (s *service) store(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, s.ttl); err != nil {
		s.warn(ctx, "dashboard cache write failed", err)
	}
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}

func (s *service) statsKey() string  { return statsKey(s.cache) }
func (s *service) recentKey() string { return recentKey(s.cache) }

func statsKey(cache Cache) string {
	return cache.CacheKey("dashboard", "stats")
}

func recentKey(cache Cache) string {
	return cache.CacheKey("dashboard", "recent-orders")
}
