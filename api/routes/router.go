package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/storefront-backend/api/controllers/orders"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	products "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/settlement"
	"github.com/angelmondragon/storefront-backend/internal/transactions"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Dependencies is everything the HTTP surface needs. Nil services make their
// handlers answer 500 instead of panicking.
type Dependencies struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	RateLimiter middleware.WindowLimiter
	Idempotency pkgredis.IdempotencyStore
	Gatherer    prometheus.Gatherer

	Auth         auth.Service
	Users        users.Service
	Products     products.Service
	Cart         cart.Service
	Settlement   settlement.Service
	Transactions transactions.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	secureCookie := cfg.App.IsProd()
	cookie := controllers.CookieOptions{Secure: secureCookie, TTL: cfg.JWT.SessionTTL}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}, logg))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.AccessGate(middleware.DefaultGatePolicy(), deps.Auth, secureCookie, logg))

		r.Route("/api", func(r chi.Router) {
			r.Route("/auth", func(r chi.Router) {
				r.With(middleware.AuthRateLimit(middleware.RegisterRateLimitPolicy(cfg.AuthRateLimit), deps.RateLimiter, logg)).
					Post("/register", controllers.AuthRegister(deps.Auth, logg))
				r.With(middleware.AuthRateLimit(middleware.LoginRateLimitPolicy(cfg.AuthRateLimit), deps.RateLimiter, logg)).
					Post("/login", controllers.AuthLogin(deps.Auth, cookie, logg))
				r.Post("/logout", controllers.AuthLogout(cookie))
				r.Get("/check", controllers.AuthCheck(deps.Auth, cookie, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductsList(deps.Products, logg))
				r.Get("/related", controllers.ProductsRelated(deps.Products, logg))
				r.Get("/{id}", controllers.ProductDetail(deps.Products, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireIdentity(logg))

				r.Route("/cart", func(r chi.Router) {
					r.Get("/", cartcontrollers.CartFetch(deps.Cart, logg))
					r.Get("/count", cartcontrollers.CartCount(deps.Cart, logg))
					r.Post("/", cartcontrollers.CartSetItem(deps.Cart, logg))
					r.Delete("/", cartcontrollers.CartRemoveItem(deps.Cart, logg))
				})

				r.With(middleware.Idempotency(deps.Idempotency, cfg.Idempotency.TTL, logg)).
					Post("/orders", ordercontrollers.Settle(deps.Settlement, logg))
				r.Get("/transactions", ordercontrollers.History(deps.Transactions, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(logg))

				r.Route("/products", func(r chi.Router) {
					r.Get("/", controllers.AdminProductsList(deps.Products, logg))
					r.Post("/", controllers.AdminProductCreate(deps.Products, logg))
					r.Get("/low-stock", controllers.AdminProductsLowStock(deps.Products, logg))
					r.Get("/{id}", controllers.AdminProductGet(deps.Products, logg))
					r.Put("/{id}", controllers.AdminProductUpdate(deps.Products, logg))
					r.Delete("/{id}", controllers.AdminProductDelete(deps.Products, logg))
				})
				r.Route("/users", func(r chi.Router) {
					r.Get("/", controllers.AdminUsersList(deps.Users, logg))
					r.Delete("/{id}", controllers.AdminUserDelete(deps.Users, logg))
				})
			})

			r.NotFound(controllers.APINotFound(logg))
		})

		r.NotFound(frontendHandler(cfg.App.FrontendURL, logg).ServeHTTP)
	})

	return r
}
