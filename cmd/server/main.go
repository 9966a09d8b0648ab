package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/storefront/pkg/auth"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/notify"
	"github.com/example/storefront/pkg/orders"
	"github.com/example/storefront/pkg/repository"
	"github.com/example/storefront/pkg/store"
	"github.com/example/storefront/server"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	// Load config
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting storefront service",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port))

	// Connect to MySQL
	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to MySQL", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	}

	// Auto migrate
	err = db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.CartEntry{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		logger.Fatal("Failed to migrate", zap.Error(err))
	}

	ctx := context.Background()

	// Redis
	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	if err := redisRepo.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
	}

	// MongoDB (order audit trail)
	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	// Firebase token verification
	verifier, err := auth.NewFirebaseVerifier(ctx, &cfg.Firebase)
	if err != nil {
		logger.Fatal("Failed to create token verifier", zap.Error(err))
	}

	// Notification transport; the service runs without it, confirmations
	// just dead-letter immediately.
	var transport notify.Transport
	amqpTransport, err := notify.NewAMQPTransport(cfg.RabbitMQ.URL(), cfg.RabbitMQ.Queue)
	if err != nil {
		logger.Warn("RabbitMQ connection failed, confirmations will dead-letter", zap.Error(err))
		transport = unavailableTransport{}
	} else {
		transport = amqpTransport
	}

	dispatcher := notify.NewDispatcher(transport, logger)
	dispatcher.Start()

	// Stores and engine
	users := store.NewUsers(db)
	catalog := store.NewCatalog(db)
	cart := store.NewCart(db)
	orderStore := store.NewOrders(db)

	engine := orders.NewEngine(orderStore, redisRepo, dispatcher, mongoRepo, cart, logger)

	accounts := auth.NewService(users, redisRepo, logger)
	authmw := auth.NewMiddleware(verifier, users, redisRepo, logger, cfg.Server.Production)

	srv := server.New(cfg, logger, server.Deps{
		Accounts: accounts,
		AuthMW:   authmw,
		Orders:   engine,
		Carts:    cart,
		Products: catalog,
	})
	srv.SetupRoutes()

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErr <- err
		}
	}()

	logger.Info("Storefront service started")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Fatal("Server error", zap.Error(err))
	}

	dispatcher.Close()
	if amqpTransport != nil {
		amqpTransport.Close()
	}
	redisRepo.Close()

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mongoRepo.Close(closeCtx); err != nil {
		logger.Error("Failed to close MongoDB connection", zap.Error(err))
	}

	logger.Info("Service stopped")
}

// unavailableTransport stands in when RabbitMQ is unreachable at startup.
type unavailableTransport struct{}

func (unavailableTransport) Send(ctx context.Context, body []byte) error {
	return fmt.Errorf("notification transport unavailable")
}
