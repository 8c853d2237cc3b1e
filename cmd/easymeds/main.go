package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/easymeds/platform/internal/auth"
	"github.com/easymeds/platform/internal/cart"
	cartcache "github.com/easymeds/platform/internal/cart/cache"
	cartrepo "github.com/easymeds/platform/internal/cart/repository"
	"github.com/easymeds/platform/internal/catalog"
	"github.com/easymeds/platform/internal/config"
	"github.com/easymeds/platform/internal/events"
	h "github.com/easymeds/platform/internal/http"
	"github.com/easymeds/platform/internal/order"
	"github.com/easymeds/platform/internal/order/ledger"
	orderpg "github.com/easymeds/platform/internal/order/postgres"
	"github.com/easymeds/platform/internal/payment"
)

// ordersAnchor keys the in-memory ledger so wiring re-runs reuse the same
// instance instead of resetting it to seed data.
const ordersAnchor = "easymeds.orders"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Catalog
	catalogRepo, err := catalog.NewSQLiteRepository(cfg.CatalogDBPath)
	if err != nil {
		logger.Fatal("failed to open catalog database", zap.Error(err))
	}
	defer catalogRepo.Close()
	if err := catalogRepo.RunMigrations(cfg.CatalogMigrationsDir); err != nil {
		logger.Fatal("failed to run catalog migrations", zap.Error(err))
	}

	// Cart durability
	var cartRepository cartrepo.CartRepository
	if cfg.MongoURI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, connErr := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		cancel()
		if connErr != nil {
			logger.Fatal("failed to connect to mongo", zap.Error(connErr))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}()

		mongoRepo := cartrepo.NewMongoRepository(client.Database("easymeds"))
		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		if idxErr := mongoRepo.CreateIndexes(ctx); idxErr != nil {
			logger.Warn("failed to create cart indexes", zap.Error(idxErr))
		}
		cancel()
		cartRepository = mongoRepo
	} else {
		logger.Info("no MONGO_URI set, cart snapshots held in memory only")
		cartRepository = cartrepo.NewMemoryRepository()
	}

	// Cart cache
	var cartCache cartcache.CartCache = cartcache.NopCache{}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		cartCache = cartcache.NewRedisCache(redisClient)
	}

	cartService := cart.NewService(cartRepository, cartCache, logger)

	// Orders backend
	var orderRepository order.Repository
	if cfg.PostgresHost != "" {
		cred := &orderpg.Credentials{
			Host:              cfg.PostgresHost,
			Port:              cfg.PostgresPort,
			User:              cfg.PostgresUser,
			Password:          cfg.PostgresPassword,
			DBName:            cfg.PostgresDB,
			MigrationsDirPath: cfg.OrderMigrationsDir,
		}
		pgRepo, pgErr := orderpg.NewRepository(cred)
		if pgErr != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(pgErr))
		}
		defer pgRepo.Close()
		if migErr := pgRepo.RunMigrations(cred); migErr != nil {
			logger.Fatal("failed to run order migrations", zap.Error(migErr))
		}
		orderRepository = pgRepo
	} else {
		logger.Info("no POSTGRES_HOST set, using the anchored in-memory order ledger")
		orderRepository = ledger.Attach(ordersAnchor)
	}

	// Events
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.KafkaBrokers != "" {
		kp := events.NewKafkaPublisher(strings.Split(cfg.KafkaBrokers, ",")...)
		defer kp.Close()
		publisher = kp
	}

	orderService := order.NewService(orderRepository, publisher, logger)

	gateway := payment.NewBreakerGateway(&payment.SimulatedProcessor{}, logger)

	tokens := auth.NewTokenManager(cfg.AdminJWTSecret, cfg.AdminTokenTTL)

	router := h.NewRouter(h.RouterConfig{
		Carts:          h.NewCartHandler(cartService, catalogRepo, cfg.RequestTimeout),
		Checkout:       h.NewCheckoutHandler(cartService, orderService, gateway, logger, cfg.DeliveryFee, cfg.RequestTimeout),
		Orders:         h.NewOrderHandler(orderService, cfg.RequestTimeout),
		Catalog:        h.NewCatalogHandler(catalogRepo, cfg.RequestTimeout),
		Tokens:         tokens,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "easymeds-api"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("easymeds api starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
