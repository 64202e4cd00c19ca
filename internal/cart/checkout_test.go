package cart

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sugicreations/sugi-backend/internal/orders"
	"github.com/sugicreations/sugi-backend/internal/products"
	"github.com/sugicreations/sugi-backend/internal/taxonomy"
	"github.com/sugicreations/sugi-backend/pkg/db/dbtest"
	pkgerrors "github.com/sugicreations/sugi-backend/pkg/errors"
	"github.com/sugicreations/sugi-backend/pkg/outbox"
)

type storefront struct {
	cart     Service
	products products.Service
	product  *products.ProductDTO
}

func newStorefront(t *testing.T) *storefront {
	t.Helper()
	client := dbtest.Open(t)
	ctx := context.Background()

	categories, err := taxonomy.NewService(taxonomy.NewRepository(client.DB(), taxonomy.Categories))
	require.NoError(t, err)
	materials, err := taxonomy.NewService(taxonomy.NewRepository(client.DB(), taxonomy.Materials))
	require.NoError(t, err)
	category, err := categories.Create(ctx, "Rings")
	require.NoError(t, err)

	catalog, err := products.NewService(products.NewRepository(client.DB()), categories, materials, nil, nil)
	require.NoError(t, err)
	product, err := catalog.Create(ctx, products.CreateInput{
		Name:        "Signet Ring",
		Description: "Engraved signet",
		Price:       decimal.NewFromInt(100),
		Stock:       10,
		Images:      []string{"https://img.example.com/signet.jpg"},
		CategoryID:  category.ID,
	})
	require.NoError(t, err)

	placer, err := orders.NewService(orders.ServiceParams{
		Repo:   orders.NewRepository(client.DB()),
		Tx:     client,
		Outbox: outbox.NewService(outbox.NewRepository(client.DB()), nil),
	})
	require.NoError(t, err)

	svc, err := NewService(newMemoryStore(), catalog, placer, time.Hour)
	require.NoError(t, err)
	return &storefront{cart: svc, products: catalog, product: product}
}

func (s *storefront) setPrice(t *testing.T, price int64) {
	t.Helper()
	next := decimal.NewFromInt(price)
	_, err := s.products.Update(context.Background(), s.product.ID, products.UpdateInput{Price: &next})
	require.NoError(t, err)
}

var buyer = CheckoutInput{CustomerName: "Aiko", CustomerEmail: "aiko@example.com"}

func TestCheckoutAfterPriceChangeRecovers(t *testing.T) {
	s := newStorefront(t)
	ctx := context.Background()

	view, err := s.cart.AddItem(ctx, "", s.product.ID)
	require.NoError(t, err)
	token := view.Token
	s.setPrice(t, 120)

	_, err = s.cart.Checkout(ctx, token, buyer)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	view, err = s.cart.Get(ctx, token)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.True(t, view.Items[0].Price.Equal(decimal.NewFromInt(120)), "cart price %s", view.Items[0].Price)

	order, err := s.cart.Checkout(ctx, token, buyer)
	require.NoError(t, err)
	require.True(t, order.Total.Equal(decimal.NewFromInt(120)), "total %s", order.Total)

	view, err = s.cart.Get(ctx, token)
	require.NoError(t, err)
	require.Empty(t, view.Items)
}

func TestReAddAfterPriceChangeChecksOut(t *testing.T) {
	s := newStorefront(t)
	ctx := context.Background()

	view, err := s.cart.AddItem(ctx, "", s.product.ID)
	require.NoError(t, err)
	s.setPrice(t, 120)

	view, err = s.cart.AddItem(ctx, view.Token, s.product.ID)
	require.NoError(t, err)
	require.Equal(t, 2, view.Items[0].Quantity)
	require.True(t, view.TotalPrice.Equal(decimal.NewFromInt(240)), "cart total %s", view.TotalPrice)

	order, err := s.cart.Checkout(ctx, view.Token, buyer)
	require.NoError(t, err)
	require.True(t, order.Total.Equal(decimal.NewFromInt(240)), "total %s", order.Total)
}
