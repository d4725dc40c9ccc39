package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/pedalcraft/commerce-backend/configs"
	"github.com/pedalcraft/commerce-backend/internal/application/services"
	"github.com/pedalcraft/commerce-backend/internal/core/ports"
	"github.com/pedalcraft/commerce-backend/internal/infrastructure/db"
	"github.com/pedalcraft/commerce-backend/internal/infrastructure/email"
	"github.com/pedalcraft/commerce-backend/internal/infrastructure/health"
	"github.com/pedalcraft/commerce-backend/internal/infrastructure/httpserver"
	"github.com/pedalcraft/commerce-backend/internal/infrastructure/redis"
	"github.com/pedalcraft/commerce-backend/internal/infrastructure/repositories"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Starting commerce backend...")

	// Initialize database (apply pool settings from config)
	database, err := db.NewDatabaseWithConfig(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	logger.Info("Connected to database successfully")

	// Initialize Redis client
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	logger.Info("Connected to Redis successfully")

	// Run migrations
	if err := database.Migrate("./migrations"); err != nil {
		logger.Warn("Failed to run migrations:", err)
	}

	// Redis-backed storage: hash-field store for carts, byte cache for catalog reads
	keyedStore := redis.NewKeyedStore(redisClient, cfg.Cart.KeyPrefix)
	redisCache := redis.NewRedisCache(redisClient, cfg.Cache.KeyPrefix)

	// Database repositories
	baseProductRepo := repositories.NewProductRepository(database, logger)
	baseCategoryRepo := repositories.NewCategoryRepository(database, logger)
	orderRepo := repositories.NewOrderRepository(database, logger)
	shippingRepo := repositories.NewShippingRepository(database)
	userRepo := repositories.NewUserRepository(database, logger)

	// Decorate catalog reads with the read-through cache
	productRepo := repositories.NewCachingProductRepository(baseProductRepo, redisCache, cfg.Cache.DetailTTL, cfg.Cache.ListTTL, logger)
	categoryRepo := repositories.NewCachingCategoryRepository(baseCategoryRepo, redisCache, cfg.Cache.DetailTTL, cfg.Cache.ListTTL, logger)

	emailConfig := &email.EmailConfig{
		SendGridAPIKey: cfg.Email.SendGridAPIKey,
		FromEmail:      cfg.Email.FromEmail,
		FromName:       cfg.Email.FromName,
		CompanyName:    cfg.Email.CompanyName,
	}
	emailService, err := email.NewEmailService(emailConfig, logger)
	if err != nil {
		logger.Fatal("Failed to initialize email service:", err)
	}

	// Wire all services with their repository dependencies
	cartService := services.NewCartService(keyedStore, productRepo, cfg.Cart.TTL, logger)
	catalogService := services.NewCatalogService(productRepo, categoryRepo, logger)
	shippingService := services.NewShippingService(shippingRepo)
	orderService := services.NewOrderService(orderRepo, cartService, shippingService, userRepo, emailService, logger)
	userService := services.NewUserService(userRepo, logger)

	hcSlice := []ports.HealthChecker{health.NewDBHealthChecker(database), health.NewRedisHealthChecker(redisClient)}

	// Create server configuration
	serverConfig := &httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		TLSCertFile:  cfg.Server.TLSCertFile,
		TLSKeyFile:   cfg.Server.TLSKeyFile,
	}

	deps := httpserver.ServerDeps{
		CartService:    cartService,
		CatalogService: catalogService,
		OrderService:   orderService,
		UserService:    userService,
		HealthCheckers: hcSlice,
	}

	server := httpserver.NewServer(serverConfig, cfg.JWT.Secret, logger, deps)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
