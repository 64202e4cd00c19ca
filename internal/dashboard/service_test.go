package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sugicreations/sugi-backend/internal/orders"
	"github.com/sugicreations/sugi-backend/pkg/db"
	"github.com/sugicreations/sugi-backend/pkg/db/dbtest"
	"github.com/sugicreations/sugi-backend/pkg/db/models"
	"github.com/sugicreations/sugi-backend/pkg/enums"
	"github.com/sugicreations/sugi-backend/pkg/types"
)

type mapCache struct {
	data    map[string][]byte
	readErr error
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	if c.readErr != nil {
		return false, c.readErr
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *mapCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *mapCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.data, key)
	}
	return nil
}

func (c *mapCache) CacheKey(parts ...string) string {
	return "cache:" + strings.Join(parts, ":")
}

type stubLister struct {
	calls int
	input orders.ListInput
	items []orders.OrderDTO
}

func (s *stubLister) List(_ context.Context, input orders.ListInput) (*types.Page[orders.OrderDTO], error) {
	s.calls++
	s.input = input
	return &types.Page[orders.OrderDTO]{Items: s.items}, nil
}

func seed(t *testing.T, client *db.Client) {
	t.Helper()
	gdb := client.DB()

	category := models.Category{Name: "Rings"}
	require.NoError(t, gdb.Create(&category).Error)
	for _, stock := range []int{0, 3, 9, 10, 25} {
		p := models.Product{
			Name:       "ring",
			Price:      decimal.NewFromInt(50),
			Stock:      stock,
			CategoryID: category.ID,
		}
		require.NoError(t, gdb.Create(&p).Error)
	}

	for _, o := range []struct {
		status enums.OrderStatus
		total  string
	}{
		{enums.OrderStatusDelivered, "200"},
		{enums.OrderStatusDelivered, "150.50"},
		{enums.OrderStatusShipped, "999"},
		{enums.OrderStatusCancelled, "75"},
	} {
		order := models.Order{
			CustomerName:  "Mika",
			CustomerEmail: "mika@example.com",
			Status:        o.status,
			Total:         decimal.RequireFromString(o.total),
		}
		require.NoError(t, gdb.Create(&order).Error)
	}
}

func TestStatsAggregates(t *testing.T) {
	client := dbtest.Open(t)
	seed(t, client)

	svc, err := NewService(NewRepository(client.DB()), &stubLister{}, nil, 0, nil)
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString("350.50").Equal(stats.TotalSales), "sales %s", stats.TotalSales)
	require.EqualValues(t, 4, stats.TotalOrders)
	require.EqualValues(t, 5, stats.TotalProducts)
	require.EqualValues(t, 2, stats.LowStockProducts)
}

func TestStatsEmptyStore(t *testing.T) {
	client := dbtest.Open(t)

	svc, err := NewService(NewRepository(client.DB()), &stubLister{}, nil, 0, nil)
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.True(t, stats.TotalSales.IsZero())
	require.Zero(t, stats.TotalOrders)
}

func TestStatsServedFromCacheUntilInvalidated(t *testing.T) {
	client := dbtest.Open(t)
	seed(t, client)
	cache := newMapCache()

	svc, err := NewService(NewRepository(client.DB()), &stubLister{}, cache, time.Minute, nil)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Contains(t, cache.data, "cache:dashboard:stats")

	extra := models.Order{CustomerName: "Rei", CustomerEmail: "rei@example.com", Status: enums.OrderStatusProcessing, Total: decimal.NewFromInt(10)}
	require.NoError(t, client.DB().Create(&extra).Error)

	cached, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, first.TotalOrders, cached.TotalOrders)

	require.NoError(t, svc.Invalidate(ctx))
	fresh, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, first.TotalOrders+1, fresh.TotalOrders)
}

func TestCacheReadFailureFallsBackToDatabase(t *testing.T) {
	client := dbtest.Open(t)
	seed(t, client)
	cache := newMapCache()
	cache.readErr = errors.New("redis down")

	svc, err := NewService(NewRepository(client.DB()), &stubLister{}, cache, time.Minute, nil)
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 4, stats.TotalOrders)
}

func TestRecentOrdersUsesLimitAndCache(t *testing.T) {
	client := dbtest.Open(t)
	cache := newMapCache()
	lister := &stubLister{items: []orders.OrderDTO{{ID: uuid.New(), Status: enums.OrderStatusProcessing, Total: decimal.NewFromInt(5)}}}

	svc, err := NewService(NewRepository(client.DB()), lister, cache, time.Minute, nil)
	require.NoError(t, err)
	ctx := context.Background()

	recent, err := svc.RecentOrders(ctx)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, RecentOrdersLimit, lister.input.Pagination.Limit)
	require.Nil(t, lister.input.Status)

	recent, err = svc.RecentOrders(ctx)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, 1, lister.calls)
	require.Equal(t, lister.items[0].ID, recent[0].ID)
}

func TestRecentOrdersEmpty(t *testing.T) {
	client := dbtest.Open(t)

	svc, err := NewService(NewRepository(client.DB()), &stubLister{}, nil, 0, nil)
	require.NoError(t, err)

	recent, err := svc.RecentOrders(context.Background())
	require.NoError(t, err)
	require.NotNil(t, recent)
	require.Empty(t, recent)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, &stubLister{}, nil, 0, nil)
	require.Error(t, err)
	_, err = NewService(NewRepository(nil), nil, nil, 0, nil)
	require.Error(t, err)
}

func TestCacheInvalidatorDropsViews(t *testing.T) {
	cache := newMapCache()
	cache.data["cache:dashboard:stats"] = []byte(`{}`)
	cache.data["cache:dashboard:recent-orders"] = []byte(`[]`)
	cache.data["cache:other"] = []byte(`1`)

	require.NoError(t, NewCacheInvalidator(cache).Invalidate(context.Background()))
	require.NotContains(t, cache.data, "cache:dashboard:stats")
	require.NotContains(t, cache.data, "cache:dashboard:recent-orders")
	require.Contains(t, cache.data, "cache:other")

	require.NoError(t, NewCacheInvalidator(nil).Invalidate(context.Background()))
}
