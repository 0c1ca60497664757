package main

import (
	"fmt"
	"time"

	"procurement-service/internal/handler"
	"procurement-service/internal/middleware"
	"procurement-service/pkg/config"
	"procurement-service/pkg/database"
	"procurement-service/pkg/jwtutil"
	"procurement-service/pkg/logger"
	"procurement-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting procurement planning service...", zap.String("environment", cfg.Server.Env))

	// Initialize JWT utilities
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utilities initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Initialize database and run migrations
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed",
		zap.String("db_host", cfg.Database.Host),
		zap.String("db_name", cfg.Database.Name))

	// Wire the planning engine onto the database
	handler.Init(database.GetDB(), cfg, log)
	log.Info("Planning engine initialized",
		zap.Float64("min_on_time_rate", cfg.Planning.MinOnTimeRate),
		zap.Float64("min_quality_score", cfg.Planning.MinQualityScore),
		zap.Float64("balanced_alpha", cfg.Planning.BalancedAlpha))

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)

	// Request logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Process request
			err := next(c)

			// Calculate duration
			duration := time.Since(start).Seconds()
			status := c.Response().Status

			// Log request details
			log := logger.FromContext(c)
			log.Info("HTTP Request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Float64("duration_s", duration),
				zap.String("ip", c.RealIP()),
			)

			prometheus.HttpRequestsTotal.WithLabelValues(
				c.Request().Method,
				c.Request().URL.Path,
				fmt.Sprintf("%d", status),
			).Inc()

			prometheus.HttpRequestDuration.WithLabelValues(
				c.Request().Method,
				c.Request().URL.Path,
				fmt.Sprintf("%d", status),
			).Observe(duration)

			return err
		}
	})

	// Routes
	// Public routes that don't require authentication
	e.GET("/", handler.Hello)
	e.GET("/health", handler.Hello)

	// Prometheus metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API routes that require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Supplier directory
	suppliers := api.Group("/suppliers")
	suppliers.POST("", handler.CreateSupplier)
	suppliers.GET("", handler.ListSuppliers)
	suppliers.GET("/:id", handler.GetSupplier)
	suppliers.PUT("/:id", handler.UpdateSupplier)
	suppliers.PUT("/:id/capabilities", handler.SaveCapability)
	suppliers.PUT("/:id/metrics", handler.SaveMetrics)
	suppliers.GET("/:id/purchase-orders", handler.ListSupplierPurchaseOrders)

	// Customer orders and distribution planning
	orders := api.Group("/orders")
	orders.POST("", handler.CreateOrder)
	orders.GET("", handler.ListOrders)
	orders.GET("/:id", handler.GetOrder)
	orders.POST("/:id/status", handler.AdvanceOrderStatus)
	orders.POST("/:id/cancel", handler.CancelOrder)
	orders.GET("/:id/history", handler.OrderHistory)
	orders.POST("/:id/distribution/suggest", handler.SuggestDistribution)
	orders.POST("/:id/distribution/validate", handler.ValidateDistribution)
	orders.POST("/:id/distribution/commit", handler.CommitDistribution)
	orders.POST("/:id/distribution/replan", handler.ReplanDistribution)

	// Purchase orders
	pos := api.Group("/purchase-orders")
	pos.GET("", handler.ListPurchaseOrders)
	pos.GET("/:id", handler.GetPurchaseOrder)
	pos.POST("/:id/send", handler.SendPurchaseOrder)
	pos.POST("/:id/confirm", handler.ConfirmPurchaseOrder)
	pos.POST("/:id/reject", handler.RejectPurchaseOrder)
	pos.POST("/:id/status", handler.AdvancePurchaseOrderStatus)
	pos.POST("/:id/cancel", handler.CancelPurchaseOrder)
	pos.GET("/:id/history", handler.PurchaseOrderHistory)

	// Capacity utilization report
	api.GET("/capacity", handler.CapacityReport)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
