package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/georgemunganga/schoolpack-backend/internal/config"
	"github.com/georgemunganga/schoolpack-backend/internal/database"
	"github.com/georgemunganga/schoolpack-backend/internal/middleware"
	"github.com/georgemunganga/schoolpack-backend/internal/modules/auth"
	"github.com/georgemunganga/schoolpack-backend/internal/modules/cart"
	"github.com/georgemunganga/schoolpack-backend/internal/modules/catalog"
	"github.com/georgemunganga/schoolpack-backend/internal/modules/checkout"
	"github.com/georgemunganga/schoolpack-backend/internal/modules/order"
	"github.com/georgemunganga/schoolpack-backend/internal/modules/payment"
	"github.com/georgemunganga/schoolpack-backend/internal/modules/realtime"
	"github.com/georgemunganga/schoolpack-backend/internal/modules/user"
	"github.com/georgemunganga/schoolpack-backend/internal/server"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const (
	cartIdleTTL       = 24 * time.Hour
	cartSweepInterval = 15 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the storefront API server",
	Long: `Start the storefront API server which provides:
- catalog and session cart endpoints
- Stripe checkout, webhooks and order confirmation
- the order admin surface and realtime order feed`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	db, err := database.NewConnection(ctx, &cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	log.Println("[serve] database connected")

	// ── Realtime ────────────────────────────────────────────
	hub := realtime.NewHub()
	go hub.Run()
	defer hub.Stop()

	var publisher realtime.Publisher = hub
	var snapshots payment.SnapshotStore = payment.NewMemorySnapshotStore()
	if cfg.Redis.URL != "" {
		rdb, err := connectRedis(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer rdb.Close()

		relay := realtime.NewRedisRelay(rdb, hub)
		go relay.Run(ctx)
		publisher = relay
		snapshots = payment.NewRedisSnapshotStore(rdb)
		log.Println("[serve] redis connected; snapshots and order events are shared")
	} else {
		log.Println("[serve] no redis configured; snapshots and order events stay in-process")
	}

	// ── Identity ────────────────────────────────────────────
	userRepo := user.NewPostgresRepository(db.DB)
	authStore := user.AuthStore{Repo: userRepo}
	authService := auth.NewService(authStore, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	userService := user.NewService(userRepo, authService)

	// ── Catalog & Cart ──────────────────────────────────────
	catalogService := catalog.NewService(catalog.NewPostgresRepository(db.DB))

	carts := cart.NewStore(cartIdleTTL)
	go carts.Run(ctx, cartSweepInterval)
	cartService := cart.NewService(carts, catalogService)

	// ── Checkout & Payment ──────────────────────────────────
	gateway := payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.Currency)
	checkoutService := checkout.NewService(cartService, gateway, snapshots, checkout.Options{
		BaseURL:       cfg.Checkout.BaseURL,
		Currency:      cfg.Stripe.Currency,
		MetadataLimit: cfg.Checkout.MetadataLimit,
	})
	limiter := middleware.NewRateLimiter(cfg.Checkout.RatePerMinute)

	// ── Orders ──────────────────────────────────────────────
	orderRepo := order.NewPostgresRepository(db.DB)
	materializer := order.NewMaterializer(gateway, snapshots, orderRepo, authStore, publisher)
	orderService := order.NewService(orderRepo, materializer, authService, publisher)

	if cfg.Stripe.WebhookSecret == "" {
		log.Println("[serve] stripe.webhook_secret is empty; webhooks will be rejected")
	}

	srv := server.NewServer(db, cfg.Server.AllowedOrigins,
		auth.NewHandler(authService),
		user.NewHandler(userService, authService),
		catalog.NewHandler(catalogService),
		cart.NewHandler(cartService, authService),
		checkout.NewHandler(checkoutService, authService, limiter.Limit),
		payment.NewHandler(materializer, cfg.Stripe.WebhookSecret),
		realtime.NewHandler(hub, authService, cfg.Server.AllowedOrigins),
		order.NewHandler(orderService, authService),
	)
	return srv.Start(ctx, cfg.Server.Addr)
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis.url: %w", err)
	}
	rdb := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}
