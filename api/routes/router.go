package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/gamestore-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/gamestore-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/gamestore-backend/api/controllers/orders"
	webhookcontrollers "github.com/angelmondragon/gamestore-backend/api/controllers/webhooks"
	"github.com/angelmondragon/gamestore-backend/api/middleware"
	"github.com/angelmondragon/gamestore-backend/internal/auth"
	"github.com/angelmondragon/gamestore-backend/internal/cart"
	"github.com/angelmondragon/gamestore-backend/internal/catalog"
	checkoutsvc "github.com/angelmondragon/gamestore-backend/internal/checkout"
	"github.com/angelmondragon/gamestore-backend/internal/orders"
	"github.com/angelmondragon/gamestore-backend/pkg/auth/session"
	"github.com/angelmondragon/gamestore-backend/pkg/config"
	"github.com/angelmondragon/gamestore-backend/pkg/enums"
	"github.com/angelmondragon/gamestore-backend/pkg/logger"
)

type webhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type signingSecretProvider interface {
	SigningSecret() string
}

// Dependencies carries everything the router mounts. Stripe fields may be
// nil when payments are not configured; their routes are then not mounted.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	DBPinger    controllers.Pinger
	RedisPinger controllers.Pinger
	RateLimits  middleware.RateLimiter
	Idempotency middleware.ResponseCache
	Sessions    session.AccessSessionChecker
	Metrics     http.Handler

	Auth     auth.Service
	Catalog  catalog.Service
	Cart     cart.Service
	Checkout checkoutsvc.Service
	Orders   orders.Service

	CheckoutSessions checkoutsvc.SessionService
	StripeSigner     signingSecretProvider
	StripeWebhook    webhookcontrollers.StripeWebhookService
	WebhookGuard     webhookGuard
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisPinger))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	if deps.StripeWebhook != nil && deps.StripeSigner != nil && deps.WebhookGuard != nil {
		r.Route("/api/v1/webhooks", func(r chi.Router) {
			r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.StripeWebhook, deps.StripeSigner, deps.WebhookGuard, logg))
		})
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.RateLimits, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, deps.RateLimits, logg),
			middleware.Idempotency(deps.Idempotency, logg),
		).Post("/register", controllers.AuthRegister(deps.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
	})

	r.Get("/api/v1/games", controllers.GamesList(deps.Catalog, logg))
	r.Get("/api/v1/games/facets", controllers.GameFacets(deps.Catalog, logg))
	r.Get("/api/v1/games/{gameId}", controllers.GameDetail(deps.Catalog, logg))

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		if !cfg.App.IsProd() {
			r.Post("/register", controllers.AdminAuthRegister(deps.Auth, cfg, logg))
		}
		r.With(middleware.AuthRateLimit(loginPolicy, deps.RateLimits, logg)).Post("/login", controllers.AdminAuthLogin(deps.Auth, logg))
	})

	// Inline groups wrap each endpoint after routing, so Idempotency sees
	// the full route pattern.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Get("/api/v1/cart", cartcontrollers.CartFetch(deps.Cart, logg))
		r.Delete("/api/v1/cart", cartcontrollers.CartClear(deps.Cart, logg))
		r.Post("/api/v1/cart/items", cartcontrollers.CartAddItem(deps.Cart, logg))
		r.Put("/api/v1/cart/items/{gameId}", cartcontrollers.CartSetQuantity(deps.Cart, logg))
		r.Delete("/api/v1/cart/items/{gameId}", cartcontrollers.CartRemoveItem(deps.Cart, logg))

		r.Post("/api/v1/checkout", controllers.Checkout(deps.Checkout, logg))
		if deps.CheckoutSessions != nil {
			r.Post("/api/v1/checkout/session", controllers.CheckoutSession(deps.CheckoutSessions, logg))
		}

		r.Get("/api/v1/orders", ordercontrollers.List(deps.Orders, logg))
		r.Get("/api/v1/orders/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Post("/api/admin/v1/games", controllers.AdminCreateGame(deps.Catalog, logg))
		r.Post("/api/admin/v1/games/seed", controllers.AdminSeedGames(deps.Catalog, logg))
		r.Put("/api/admin/v1/games/{gameId}", controllers.AdminUpdateGame(deps.Catalog, logg))
		r.Delete("/api/admin/v1/games/{gameId}", controllers.AdminDeleteGame(deps.Catalog, logg))

		r.Get("/api/admin/v1/orders", ordercontrollers.AdminList(deps.Orders, logg))
		r.Patch("/api/admin/v1/orders/{orderId}/status", ordercontrollers.AdminUpdateStatus(deps.Orders, logg))
	})

	return r
}
