package cart

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sugicreations/sugi-backend/internal/orders"
	"github.com/sugicreations/sugi-backend/internal/products"
	pkgerrors "github.com/sugicreations/sugi-backend/pkg/errors"
)

type memoryStore struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	failSet bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memoryStore) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	if m.failSet {
		return errors.New("redis down")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	m.ttls[key] = ttl
	return nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryStore) CartKey(token string) string { return "cart:" + token }

type stubProducts struct {
	items map[uuid.UUID]products.ProductDTO
	calls int
}

func (s *stubProducts) Get(_ context.Context, id uuid.UUID) (*products.ProductDTO, error) {
	s.calls++
	p, ok := s.items[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &p, nil
}

type stubPlacer struct {
	input orders.PlaceOrderInput
	err   error
}

func (s *stubPlacer) PlaceOrder(_ context.Context, input orders.PlaceOrderInput) (*orders.OrderDTO, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &orders.OrderDTO{ID: uuid.New(), CustomerEmail: input.CustomerEmail}, nil
}

type fixture struct {
	svc     Service
	store   *memoryStore
	catalog *stubProducts
	placer  *stubPlacer
	ring    uuid.UUID
	chain   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ring, chain := uuid.New(), uuid.New()
	catalog := &stubProducts{items: map[uuid.UUID]products.ProductDTO{
		ring:  {ID: ring, Name: "Gold Ring", Price: decimal.RequireFromString("120.00"), Images: []string{"https://img/ring-1.jpg", "https://img/ring-2.jpg"}},
		chain: {ID: chain, Name: "Silver Chain", Price: decimal.RequireFromString("45.50"), Images: []string{}},
	}}
	store := newMemoryStore()
	placer := &stubPlacer{}
	svc, err := NewService(store, catalog, placer, time.Hour)
	require.NoError(t, err)
	return &fixture{svc: svc, store: store, catalog: catalog, placer: placer, ring: ring, chain: chain}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, &stubProducts{}, &stubPlacer{}, 0)
	require.Error(t, err)
	_, err = NewService(newMemoryStore(), nil, &stubPlacer{}, 0)
	require.Error(t, err)
	_, err = NewService(newMemoryStore(), &stubProducts{}, nil, 0)
	require.Error(t, err)
}

func TestGetWithoutTokenIsEmpty(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.Get(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, view.Token)
	assert.Empty(t, view.Items)
	assert.NotNil(t, view.Items)
	assert.True(t, view.TotalPrice.IsZero())

	view, err = f.svc.Get(context.Background(), "not-a-token")
	require.NoError(t, err)
	assert.Empty(t, view.Token)
}

func TestAddItemMintsTokenAndSnapshotsProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.svc.AddItem(ctx, "", f.ring)
	require.NoError(t, err)
	require.NotEmpty(t, view.Token)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Gold Ring", view.Items[0].Name)
	assert.Equal(t, "https://img/ring-1.jpg", view.Items[0].Image)
	assert.Equal(t, 1, view.Items[0].Quantity)
	assert.Equal(t, time.Hour, f.store.ttls[f.store.CartKey(view.Token)])

	view, err = f.svc.AddItem(ctx, view.Token, f.ring)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.Equal(t, 2, f.catalog.calls, "every add reads the catalog")

	view, err = f.svc.AddItem(ctx, view.Token, f.chain)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.Equal(t, f.chain, view.Items[1].ProductID)
	assert.Empty(t, view.Items[1].Image)
	assert.Equal(t, 3, view.TotalItems)
	assert.True(t, decimal.RequireFromString("285.50").Equal(view.TotalPrice))

	reloaded, err := f.svc.Get(ctx, view.Token)
	require.NoError(t, err)
	assert.Equal(t, view.Items, reloaded.Items)
}

func TestAddItemRefreshesSnapshotOfExistingLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.svc.AddItem(ctx, "", f.ring)
	require.NoError(t, err)

	ring := f.catalog.items[f.ring]
	ring.Name = "Gold Ring II"
	ring.Price = decimal.RequireFromString("150.00")
	ring.Images = []string{"https://img/ring-new.jpg"}
	f.catalog.items[f.ring] = ring

	view, err = f.svc.AddItem(ctx, view.Token, f.ring)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.Equal(t, "Gold Ring II", view.Items[0].Name)
	assert.Equal(t, "https://img/ring-new.jpg", view.Items[0].Image)
	assert.True(t, decimal.RequireFromString("150").Equal(view.Items[0].Price))
	assert.True(t, decimal.RequireFromString("300").Equal(view.TotalPrice))
}

func TestAddItemStopsAtMaxQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.svc.AddItem(ctx, "", f.ring)
	require.NoError(t, err)
	token := view.Token
	_, err = f.svc.UpdateQuantity(ctx, token, f.ring, maxQuantity)
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, token, f.ring)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	view, err = f.svc.Get(ctx, token)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, maxQuantity, view.Items[0].Quantity)
}

func TestAddItemUnknownProduct(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AddItem(context.Background(), "", uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestAddItemRequiresProductID(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AddItem(context.Background(), "", uuid.Nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.svc.AddItem(ctx, "", f.ring)
	require.NoError(t, err)
	token := view.Token

	view, err = f.svc.UpdateQuantity(ctx, token, f.ring, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, view.TotalItems)

	_, err = f.svc.UpdateQuantity(ctx, token, f.chain, 2)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	_, err = f.svc.UpdateQuantity(ctx, token, f.ring, maxQuantity+1)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	view, err = f.svc.UpdateQuantity(ctx, token, f.ring, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	_, stored := f.store.data[f.store.CartKey(token)]
	assert.False(t, stored, "empty carts are not kept")
}

func TestRemoveItemAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.svc.AddItem(ctx, "", f.ring)
	require.NoError(t, err)
	token := view.Token
	_, err = f.svc.AddItem(ctx, token, f.chain)
	require.NoError(t, err)

	view, err = f.svc.RemoveItem(ctx, token, f.ring)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, f.chain, view.Items[0].ProductID)

	require.NoError(t, f.svc.Clear(ctx, token))
	view, err = f.svc.Get(ctx, token)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	require.NoError(t, f.svc.Clear(ctx, ""))
}

func TestCheckoutPassesSnapshotsAndClearsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.svc.AddItem(ctx, "", f.ring)
	require.NoError(t, err)
	token := view.Token
	_, err = f.svc.UpdateQuantity(ctx, token, f.ring, 2)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, token, f.chain)
	require.NoError(t, err)

	order, err := f.svc.Checkout(ctx, token, CheckoutInput{CustomerName: "Aiko", CustomerEmail: "aiko@example.com"})
	require.NoError(t, err)
	require.NotNil(t, order)

	require.Len(t, f.placer.input.Items, 2)
	first := f.placer.input.Items[0]
	assert.Equal(t, f.ring, first.ProductID)
	assert.Equal(t, 2, first.Quantity)
	require.NotNil(t, first.Price)
	assert.True(t, decimal.RequireFromString("120").Equal(*first.Price))
	assert.Equal(t, "Aiko", f.placer.input.CustomerName)

	view, err = f.svc.Get(ctx, token)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.placer.err = pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock")

	view, err := f.svc.AddItem(ctx, "", f.ring)
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, view.Token, CheckoutInput{CustomerName: "Aiko", CustomerEmail: "aiko@example.com"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, pkgerrors.As(err).Code())

	view, err = f.svc.Get(ctx, view.Token)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
}

func TestCheckoutPriceConflictRepricesCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.svc.AddItem(ctx, "", f.ring)
	require.NoError(t, err)
	token := view.Token

	ring := f.catalog.items[f.ring]
	ring.Price = decimal.RequireFromString("135.00")
	f.catalog.items[f.ring] = ring
	f.placer.err = pkgerrors.New(pkgerrors.CodeConflict, "price changed")

	_, err = f.svc.Checkout(ctx, token, CheckoutInput{CustomerName: "Aiko", CustomerEmail: "aiko@example.com"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	view, err = f.svc.Get(ctx, token)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 1, view.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("135").Equal(view.Items[0].Price))

	f.placer.err = nil
	_, err = f.svc.Checkout(ctx, token, CheckoutInput{CustomerName: "Aiko", CustomerEmail: "aiko@example.com"})
	require.NoError(t, err)
	require.NotNil(t, f.placer.input.Items[0].Price)
	assert.True(t, decimal.RequireFromString("135").Equal(*f.placer.input.Items[0].Price))
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Checkout(context.Background(), uuid.NewString(), CheckoutInput{CustomerName: "Aiko", CustomerEmail: "aiko@example.com"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = f.svc.Checkout(context.Background(), "", CheckoutInput{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestStoreFailureSurfacesAsDependencyError(t *testing.T) {
	f := newFixture(t)
	f.store.failSet = true

	_, err := f.svc.AddItem(context.Background(), "", f.ring)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
}
