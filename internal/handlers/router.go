package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	Auth      *AuthHandler
	Dashboard *DashboardHandler
	Logger    *slog.Logger
	// UploadDir is served under UploadPrefix.
	UploadDir    string
	UploadPrefix string
	// MaxMultipartMemory bounds the in-memory part of multipart parsing.
	MaxMultipartMemory int64
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), RequestLogger(cfg.Logger), gin.Recovery())
	if cfg.MaxMultipartMemory > 0 {
		r.MaxMultipartMemory = cfg.MaxMultipartMemory
	}

	if cfg.UploadDir != "" {
		r.Static(cfg.UploadPrefix, cfg.UploadDir)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", cfg.Auth.Register)
	authGroup.POST("/login", cfg.Auth.Login)

	api.GET("/users", cfg.Auth.ListUsers)
	api.GET("/users/:id", cfg.Auth.GetUser)

	d := cfg.Dashboard
	orders := api.Group("/orders")
	orders.GET("/board", d.Board)
	orders.GET("/moves", d.Moves)
	orders.POST("", d.CreateOrder)
	orders.POST("/move", d.MoveOrder)
	orders.GET("/:id", d.GetOrder)
	orders.POST("/:id/advance", d.AdvanceOrder)

	products := api.Group("/products")
	products.GET("", d.ListProducts)
	products.POST("", d.CreateProduct)
	products.GET("/:id", d.GetProduct)
	products.PUT("/:id", d.UpdateProduct)
	products.DELETE("/:id", d.DeleteProduct)
	products.PUT("/:id/delivery", d.AssignDelivery)
	products.DELETE("/:id/delivery", d.UnassignDelivery)

	deliveryGroup := api.Group("/delivery")
	deliveryGroup.GET("/services", d.Services)
	deliveryGroup.GET("/stats", d.DeliveryStats)

	api.GET("/analytics/overview", d.Overview)

	return r
}
