package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sugicreations/sugi-backend/internal/orders"
	"github.com/sugicreations/sugi-backend/internal/products"
	pkgerrors "github.com/sugicreations/sugi-backend/pkg/errors"
	"github.com/sugicreations/sugi-backend/pkg/outbox"
)

const (
	defaultTTL  = 30 * 24 * time.Hour
	maxQuantity = 99
)

// Store is the JSON key/value surface the cart persists through.
type Store interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(token string) string
}

type productReader interface {
	Get(ctx context.Context, id uuid.UUID) (*products.ProductDTO, error)
}

type orderPlacer interface {
	PlaceOrder(ctx context.Context, input orders.PlaceOrderInput) (*orders.OrderDTO, error)
}

// View is the cart payload returned to clients.
type View struct {
	Token      string          `json:"token"`
	Items      []Item          `json:"items"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// CheckoutInput carries the buyer details collected at checkout.
type CheckoutInput struct {
	CustomerName  string
	CustomerEmail string
	Actor         *outbox.ActorRef
}

// Service persists carts by opaque token and turns them into orders.
type Service interface {
	Get(ctx context.Context, token string) (*View, error)
	AddItem(ctx context.Context, token string, productID uuid.UUID) (*View, error)
	UpdateQuantity(ctx context.Context, token string, productID uuid.UUID, quantity int) (*View, error)
	RemoveItem(ctx context.Context, token string, productID uuid.UUID) (*View, error)
	Clear(ctx context.Context, token string) error
	Checkout(ctx context.Context, token string, input CheckoutInput) (*orders.OrderDTO, error)
}

type service struct {
	store    Store
	products productReader
	orders   orderPlacer
	ttl      time.Duration
}

func NewService(store Store, products productReader, orders orderPlacer, ttl time.Duration) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order placer required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &service{store: store, products: products, orders: orders, ttl: ttl}, nil
}

// Get returns the cart for token. Unknown or empty tokens yield an empty cart
// without a token; one is minted on the first write.
func (s *service) Get(ctx context.Context, token string) (*View, error) {
	token = normalizeToken(token)
	if token == "" {
		return newView("", &Cart{}), nil
	}
	c, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	return newView(token, c), nil
}

func (s *service) AddItem(ctx context.Context, token string, productID uuid.UUID) (*View, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "productId is required").
			WithDetails(map[string]string{"productId": "required"})
	}
	token = normalizeToken(token)
	if token == "" {
		token = uuid.NewString()
	}

	c, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	if c.Quantity(productID) >= maxQuantity {
		return nil, quantityError()
	}
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	c.AddItem(snapshot(product))
	return s.save(ctx, token, c)
}

func (s *service) UpdateQuantity(ctx context.Context, token string, productID uuid.UUID, quantity int) (*View, error) {
	if quantity > maxQuantity {
		return nil, quantityError()
	}
	token, c, err := s.existing(ctx, token)
	if err != nil {
		return nil, err
	}
	if !c.Contains(productID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	c.UpdateQuantity(productID, quantity)
	return s.save(ctx, token, c)
}

func (s *service) RemoveItem(ctx context.Context, token string, productID uuid.UUID) (*View, error) {
	token, c, err := s.existing(ctx, token)
	if err != nil {
		return nil, err
	}
	c.RemoveItem(productID)
	return s.save(ctx, token, c)
}

func (s *service) Clear(ctx context.Context, token string) error {
	token = normalizeToken(token)
	if token == "" {
		return nil
	}
	if err := s.store.Del(ctx, s.store.CartKey(token)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// Checkout places an order for the cart contents and clears the cart only
// once the order has committed. A failed checkout leaves the cart intact.
func (s *service) Checkout(ctx context.Context, token string, input CheckoutInput) (*orders.OrderDTO, error) {
	token, c, err := s.existing(ctx, token)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	lines := make([]orders.LineInput, 0, len(c.Items))
	for _, item := range c.Items {
		price := item.Price
		lines = append(lines, orders.LineInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     &price,
		})
	}

	order, err := s.orders.PlaceOrder(ctx, orders.PlaceOrderInput{
		CustomerName:  input.CustomerName,
		CustomerEmail: input.CustomerEmail,
		Items:         lines,
		Actor:         input.Actor,
	})
	if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		// Catalog prices moved; refresh the cart so the next attempt carries
		// current prices and the client sees them on reload.
		s.reprice(ctx, token, c)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	// The order is committed; a stale cart is harmless and expires on its own.
	_ = s.Clear(ctx, token)
	return order, nil
}

// reprice refreshes every line's snapshot from the catalog. Lines whose
// product is gone are left for checkout to report.
func (s *service) reprice(ctx context.Context, token string, c *Cart) {
	for i := range c.Items {
		product, err := s.products.Get(ctx, c.Items[i].ProductID)
		if err != nil {
			continue
		}
		fresh := snapshot(product)
		fresh.Quantity = c.Items[i].Quantity
		c.Items[i] = fresh
	}
	_, _ = s.save(ctx, token, c)
}

func snapshot(product *products.ProductDTO) Item {
	item := Item{ProductID: product.ID, Name: product.Name, Price: product.Price}
	if len(product.Images) > 0 {
		item.Image = product.Images[0]
	}
	return item
}

func quantityError() error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity cannot exceed %d", maxQuantity)).
		WithDetails(map[string]string{"quantity": "max"})
}

func (s *service) existing(ctx context.Context, token string) (string, *Cart, error) {
	token = normalizeToken(token)
	if token == "" {
		return "", nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	c, err := s.load(ctx, token)
	if err != nil {
		return "", nil, err
	}
	return token, c, nil
}

func (s *service) load(ctx context.Context, token string) (*Cart, error) {
	var c Cart
	if _, err := s.store.GetJSON(ctx, s.store.CartKey(token), &c); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return &c, nil
}

func (s *service) save(ctx context.Context, token string, c *Cart) (*View, error) {
	if c.IsEmpty() {
		if err := s.store.Del(ctx, s.store.CartKey(token)); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return newView(token, c), nil
	}
	if err := s.store.SetJSON(ctx, s.store.CartKey(token), c, s.ttl); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return newView(token, c), nil
}

func newView(token string, c *Cart) *View {
	items := c.Items
	if items == nil {
		items = []Item{}
	}
	return &View{
		Token:      token,
		Items:      items,
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice(),
	}
}

// normalizeToken accepts only well-formed tokens so arbitrary header values
// never reach the key space.
func normalizeToken(token string) string {
	id, err := uuid.Parse(strings.TrimSpace(token))
	if err != nil {
		return ""
	}
	return id.String()
}
