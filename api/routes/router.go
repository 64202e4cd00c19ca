package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sugicreations/sugi-backend/api/controllers"
	"github.com/sugicreations/sugi-backend/api/middleware"
	"github.com/sugicreations/sugi-backend/internal/auth"
	"github.com/sugicreations/sugi-backend/internal/cart"
	"github.com/sugicreations/sugi-backend/internal/dashboard"
	"github.com/sugicreations/sugi-backend/internal/media"
	"github.com/sugicreations/sugi-backend/internal/orders"
	"github.com/sugicreations/sugi-backend/internal/products"
	"github.com/sugicreations/sugi-backend/internal/taxonomy"
	"github.com/sugicreations/sugi-backend/pkg/auth/session"
	"github.com/sugicreations/sugi-backend/pkg/config"
	"github.com/sugicreations/sugi-backend/pkg/enums"
	"github.com/sugicreations/sugi-backend/pkg/logger"
	pkgredis "github.com/sugicreations/sugi-backend/pkg/redis"
)

// Params carries everything the HTTP surface is wired to.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	Gatherer prometheus.Gatherer

	// Readiness maps dependency names to their health probes.
	Readiness   map[string]controllers.Pinger
	Sessions    session.Checker
	RateLimiter middleware.RateLimiterStore
	Idempotency pkgredis.IdempotencyStore

	Products   products.Service
	Categories taxonomy.Service
	Materials  taxonomy.Service
	Orders     orders.Service
	Cart       cart.Service
	Auth       auth.Service
	Dashboard  dashboard.Service
	Media      media.Service
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health/live", controllers.HealthLive(cfg))
		r.Get("/health/ready", controllers.HealthReady(cfg, logg, p.Readiness))
		if p.Gatherer != nil {
			r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
		}

		r.Route("/v1", func(r chi.Router) {
			idempotent := middleware.Idempotency(p.Idempotency, logg)

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ListProducts(p.Products, logg))
				r.Get("/search", controllers.SearchProducts(p.Products, logg))
				r.Get("/{id}", controllers.GetProduct(p.Products, logg))
			})
			termRoutes(r, "/categories", p.Categories, logg)
			termRoutes(r, "/materials", p.Materials, logg)

			r.With(idempotent).Post("/orders", controllers.PlaceOrder(p.Orders, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(p.Cart, logg))
				r.Delete("/", controllers.ClearCart(p.Cart, logg))
				r.Post("/items", controllers.AddCartItem(p.Cart, logg))
				r.Patch("/items/{productId}", controllers.UpdateCartItem(p.Cart, logg))
				r.Delete("/items/{productId}", controllers.RemoveCartItem(p.Cart, logg))
				r.With(idempotent).Post("/checkout", controllers.CheckoutCart(p.Cart, logg))
			})

			r.Route("/auth", func(r chi.Router) {
				loginPolicy := middleware.LoginRateLimitPolicy(cfg.AuthRateLimit)
				r.With(middleware.AuthRateLimit(loginPolicy, p.RateLimiter, logg)).
					Post("/login", controllers.AuthLogin(p.Auth, logg))
				r.Post("/refresh", controllers.AuthRefresh(p.Auth, logg))
				r.With(middleware.Auth(cfg.JWT, p.Sessions, logg)).
					Post("/logout", controllers.AuthLogout(p.Auth, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
				r.Use(middleware.RequireRole(enums.MemberRoleAdmin, logg))
				r.Use(idempotent)

				r.Post("/products", controllers.AdminCreateProduct(p.Products, logg))
				r.Patch("/products/{id}", controllers.AdminUpdateProduct(p.Products, logg))
				r.Delete("/products/{id}", controllers.AdminDeleteProduct(p.Products, logg))

				adminTermRoutes(r, "/categories", p.Categories, logg)
				adminTermRoutes(r, "/materials", p.Materials, logg)

				r.Get("/orders", controllers.AdminListOrders(p.Orders, logg))
				r.Get("/orders/{id}", controllers.AdminGetOrder(p.Orders, logg))
				r.Patch("/orders/{id}/status", controllers.AdminUpdateOrderStatus(p.Orders, logg))

				r.Get("/dashboard/stats", controllers.AdminDashboardStats(p.Dashboard, logg))
				r.Get("/dashboard/recent-orders", controllers.AdminRecentOrders(p.Dashboard, logg))

				r.Post("/uploads", controllers.AdminUploadImages(p.Media, cfg.Media, logg))
			})
		})
	})

	return r
}

func termRoutes(r chi.Router, prefix string, svc taxonomy.Service, logg *logger.Logger) {
	r.Get(prefix, controllers.ListTerms(svc, logg))
	r.Get(prefix+"/{id}", controllers.GetTerm(svc, logg))
}

func adminTermRoutes(r chi.Router, prefix string, svc taxonomy.Service, logg *logger.Logger) {
	r.Post(prefix, controllers.AdminCreateTerm(svc, logg))
	r.Patch(prefix+"/{id}", controllers.AdminRenameTerm(svc, logg))
	r.Delete(prefix+"/{id}", controllers.AdminDeleteTerm(svc, logg))
}
