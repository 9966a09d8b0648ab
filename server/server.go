package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/example/storefront/pkg/auth"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// OrdersEngine is the order transaction engine surface the handlers use.
type OrdersEngine interface {
	Create(ctx context.Context, user *models.User, shipping models.ShippingDetails, paymentMethod string, items []models.OrderItem, total float64, idemKey string) (string, error)
	UpdateItem(ctx context.Context, orderID string, requester *models.User, productID string, quantity int) error
	DeleteItem(ctx context.Context, orderID string, requester *models.User, productID string) error
	Cancel(ctx context.Context, orderID string, requester *models.User) error
	OrderAgain(ctx context.Context, orderID string, requester *models.User) error
	ListForUser(ctx context.Context, user *models.User) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	SetStatus(ctx context.Context, orderID, status string, actor *models.User) error
	Events(ctx context.Context, orderID string, limit int64) ([]*repository.OrderEvent, error)
}

type CartStore interface {
	AddOrUpdate(ctx context.Context, userID, productID string, quantity int) error
	Remove(ctx context.Context, userID, productID string) error
	UpdateQuantity(ctx context.Context, userID, productID string, quantity int) error
	List(ctx context.Context, userID string) ([]models.CartLine, error)
}

type ProductStore interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}

// Deps bundles everything the HTTP layer is wired with.
type Deps struct {
	Accounts *auth.Service
	AuthMW   *auth.Middleware
	Orders   OrdersEngine
	Carts    CartStore
	Products ProductStore
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	router   *gin.Engine
	accounts *auth.Service
	authmw   *auth.Middleware
	orders   OrdersEngine
	carts    CartStore
	products ProductStore
}

func New(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	return &Server{
		config:   cfg,
		logger:   logger,
		router:   router,
		accounts: deps.Accounts,
		authmw:   deps.AuthMW,
		orders:   deps.Orders,
		carts:    deps.Carts,
		products: deps.Products,
	}
}

func (s *Server) SetupRoutes() {
	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api")
	{
		authed := s.authmw.RequireAuth()
		admin := s.authmw.RequireAdmin()

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authed, s.register)
			authGroup.POST("/login", authed, s.login)
			authGroup.POST("/logout", s.logout)
			authGroup.GET("/me", authed, s.me)
			authGroup.PUT("/accountupdate", authed, s.updateAccount)
			authGroup.DELETE("/account", authed, s.deleteAccount)
		}

		cart := api.Group("/cart", authed)
		{
			cart.GET("", s.getCart)
			cart.POST("/add", s.addToCart)
			cart.PUT("/update", s.updateCartQuantity)
			cart.DELETE("/:product_id", s.removeFromCart)
		}

		orders := api.Group("/orders")
		{
			orders.POST("/add", authed, s.createOrder)
			orders.GET("", authed, s.listOrders)
			orders.PUT("/:orderId/update-item", authed, s.updateOrderItem)
			orders.DELETE("/:orderId/delete-item/:productId", authed, s.deleteOrderItem)
			orders.PUT("/:orderId/cancel", authed, s.cancelOrder)
			orders.PUT("/:orderId/orderAgain", authed, s.orderAgain)
			orders.GET("/fetchAllOrders", admin, s.listAllOrders)
			orders.PUT("/updateStatus/:orderId", admin, s.updateOrderStatus)
			orders.GET("/:orderId/events", admin, s.listOrderEvents)
		}

		products := api.Group("/products")
		{
			products.GET("", s.listProducts)
			products.GET("/:id", s.getProduct)
			products.POST("", admin, s.createProduct)
			products.PUT("/:id", admin, s.updateProduct)
			products.DELETE("/:id", admin, s.deleteProduct)
		}
	}

	// Swagger
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.Info("Server starting", zap.String("address", addr))
	return s.router.Run(addr)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
