package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/gamestore-backend/api"
	"github.com/angelmondragon/gamestore-backend/api/routes"
	"github.com/angelmondragon/gamestore-backend/internal/auth"
	"github.com/angelmondragon/gamestore-backend/internal/cart"
	"github.com/angelmondragon/gamestore-backend/internal/catalog"
	"github.com/angelmondragon/gamestore-backend/internal/checkout"
	"github.com/angelmondragon/gamestore-backend/internal/orders"
	"github.com/angelmondragon/gamestore-backend/internal/users"
	stripewebhook "github.com/angelmondragon/gamestore-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/gamestore-backend/pkg/auth/session"
	"github.com/angelmondragon/gamestore-backend/pkg/config"
	"github.com/angelmondragon/gamestore-backend/pkg/db"
	"github.com/angelmondragon/gamestore-backend/pkg/logger"
	"github.com/angelmondragon/gamestore-backend/pkg/metrics"
	"github.com/angelmondragon/gamestore-backend/pkg/migrate"
	"github.com/angelmondragon/gamestore-backend/pkg/outbox"
	"github.com/angelmondragon/gamestore-backend/pkg/redis"
	pkgstripe "github.com/angelmondragon/gamestore-backend/pkg/stripe"
)

const serviceName = "api"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.New(logger.Options{ServiceName: serviceName}).Error(ctx, "api exited", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer closeLogged(ctx, logg, "database", dbClient)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer closeLogged(ctx, logg, "redis", redisClient)

	deps, err := buildDependencies(ctx, cfg, logg, dbClient, redisClient)
	if err != nil {
		return err
	}

	server := api.NewServer(cfg, routes.NewRouter(deps))
	ctx = logg.WithField(ctx, "addr", server.Addr)
	logg.Info(ctx, "api server starting")
	if err := api.Serve(ctx, server, logg); err != nil {
		return err
	}
	logg.Info(ctx, "api server stopped")
	return nil
}

func buildDependencies(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (routes.Dependencies, error) {
	sessions, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("session manager: %w", err)
	}
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("auth service: %w", err)
	}

	gamesRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalog.ServiceParams{Repo: gamesRepo, DB: dbClient, Logger: logg})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("catalog service: %w", err)
	}
	cartRepo := cart.NewRepository(dbClient.DB())
	cartService, err := cart.NewService(cartRepo, gamesRepo, logg)
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("cart service: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	emitter := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	ordersRepo := orders.NewRepository(dbClient.DB())
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		DB:         dbClient,
		Repo:       checkout.NewRepository(dbClient.DB()),
		CartRepo:   cartRepo,
		OrdersRepo: ordersRepo,
		Outbox:     emitter,
		Metrics:    metrics.NewCheckoutMetrics(registry),
		Logger:     logg,
	})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("checkout service: %w", err)
	}
	ordersService, err := orders.NewService(ordersRepo, dbClient, emitter, logg)
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("orders service: %w", err)
	}

	deps := routes.Dependencies{
		Config:      cfg,
		Logger:      logg,
		DBPinger:    dbClient,
		RedisPinger: redisClient,
		RateLimits:  redisClient,
		Idempotency: redisClient,
		Sessions:    sessions,
		Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Auth:        authService,
		Catalog:     catalogService,
		Cart:        cartService,
		Checkout:    checkoutService,
		Orders:      ordersService,
	}
	if !cfg.Stripe.Enabled() {
		logg.Warn(ctx, "stripe disabled; hosted checkout and webhook routes are not mounted")
		return deps, nil
	}
	return withStripe(ctx, deps, cfg, logg, checkoutService, redisClient)
}

func withStripe(ctx context.Context, deps routes.Dependencies, cfg *config.Config, logg *logger.Logger, checkoutService checkout.Service, redisClient *redis.Client) (routes.Dependencies, error) {
	client, err := pkgstripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		return deps, fmt.Errorf("stripe client: %w", err)
	}
	sessions, err := checkout.NewSessionService(checkoutService, pkgstripe.NewCheckoutSessionClient(client), cfg.Stripe, logg)
	if err != nil {
		return deps, fmt.Errorf("checkout sessions: %w", err)
	}
	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{Checkout: checkoutService, Logger: logg})
	if err != nil {
		return deps, fmt.Errorf("stripe webhook service: %w", err)
	}
	guard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL, "stripe-webhook")
	if err != nil {
		return deps, fmt.Errorf("webhook guard: %w", err)
	}
	deps.CheckoutSessions = sessions
	deps.StripeSigner = client
	deps.StripeWebhook = webhookService
	deps.WebhookGuard = guard
	return deps, nil
}

func closeLogged(ctx context.Context, logg *logger.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		logg.Error(logg.WithField(ctx, "resource", name), "close failed", err)
	}
}
