package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/bcrypt"

	"github.com/fjod/go_cart/shop-service/internal/auth"
	c "github.com/fjod/go_cart/shop-service/internal/cache"
	"github.com/fjod/go_cart/shop-service/internal/config"
	"github.com/fjod/go_cart/shop-service/internal/events"
	h "github.com/fjod/go_cart/shop-service/internal/http"
	"github.com/fjod/go_cart/shop-service/internal/repository"
	s "github.com/fjod/go_cart/shop-service/internal/service"
	st "github.com/fjod/go_cart/shop-service/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx := context.Background()

	// Set up MongoDB connection
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	if err := repository.CreateIndexes(ctx, mongoDB); err != nil {
		logger.Fatal("Failed to create indexes", zap.Error(err))
	}
	logger.Info("Connected to MongoDB", zap.String("database", cfg.MongoDBName))

	carts := repository.NewCartRepository(mongoDB)
	orders := repository.NewOrderRepository(mongoDB)
	products := repository.NewProductRepository(mongoDB)
	users := repository.NewUserRepository(mongoDB)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("Redis connection failed", zap.Error(err))
	}
	logger.Info("Redis ping succeeded", zap.String("addr", cfg.RedisAddr))

	var gcsClient *storage.Client
	if cfg.GCSBucket != "" {
		gcsClient, err = storage.NewClient(ctx)
		if err != nil {
			logger.Fatal("Failed to create storage client", zap.Error(err))
		}
		defer gcsClient.Close()
	} else {
		logger.Warn("GCS_BUCKET is not set, image uploads will fail")
	}
	uploader := st.NewBreakerUploader(st.NewGCSUploader(gcsClient, cfg.GCSBucket, cfg.GCSPrefix), logger)

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Info("Publishing order events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	cache := c.NewRedisCache(redisClient, cfg.CartCacheTTL)

	cartService := s.NewCartService(carts, products, users, cache, logger.Named("cart"))
	orderService := s.NewOrderService(orders, carts, users, publisher, logger.Named("order"))
	productService := s.NewProductService(products, uploader, logger.Named("product"))
	userService := s.NewUserService(users, auth.NewBcryptHasher(bcrypt.DefaultCost), tokens, uploader, logger.Named("user"))

	router := h.NewRouter(h.RouterConfig{
		Users:          h.NewUserHandler(userService, cfg.RequestTimeout, cfg.MaxUploadSize, logger),
		Products:       h.NewProductHandler(productService, cfg.RequestTimeout, cfg.MaxUploadSize, logger),
		Carts:          h.NewCartHandler(cartService, cfg.RequestTimeout, logger),
		Orders:         h.NewOrdersHandler(orderService, cfg.RequestTimeout, logger),
		Tokens:         tokens,
		Logger:         logger,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Shop service starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if err := mongoDB.Client().Disconnect(shutdownCtx); err != nil {
		logger.Error("mongo disconnect error", zap.Error(err))
	}

	logger.Info("server exited")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
