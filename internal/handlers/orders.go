package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/safar/delivery-admin/internal/analytics"
	"github.com/safar/delivery-admin/internal/board"
	"github.com/safar/delivery-admin/internal/catalog"
	"github.com/safar/delivery-admin/internal/dashboard"
	"github.com/safar/delivery-admin/internal/delivery"
	"github.com/safar/delivery-admin/internal/models"
)

const defaultMovesLimit = 50

// Dashboard is the intent surface of dashboard.Dispatcher.
type Dashboard interface {
	Board(ctx context.Context) ([]board.Column, error)
	Order(ctx context.Context, orderID string) (models.Order, error)
	MoveOrder(ctx context.Context, m dashboard.MoveOrder) ([]board.Column, error)
	AdvanceOrder(ctx context.Context, orderID string) (dashboard.AdvanceResult, error)
	AddOrder(ctx context.Context, o models.Order) (models.Order, error)
	SubmitProduct(ctx context.Context, cand catalog.Candidate, images []string) (models.Product, error)
	UpdateProduct(ctx context.Context, productID string, cand catalog.Candidate, images []string) (models.Product, error)
	RemoveProduct(ctx context.Context, productID string) error
	Product(ctx context.Context, productID string) (models.Product, error)
	Products(ctx context.Context, q dashboard.ListProducts) (catalog.OffsetPage, error)
	AssignDelivery(ctx context.Context, a dashboard.AssignDelivery) (models.Product, error)
	UnassignDelivery(ctx context.Context, productID string) (models.Product, error)
	Services(ctx context.Context) ([]models.DeliveryService, error)
	DeliveryStats(ctx context.Context) (delivery.Stats, error)
	Overview(ctx context.Context) (analytics.Overview, error)
}

// MoveLog reads back recent board moves.
type MoveLog interface {
	Recent(ctx context.Context, n int) ([]board.Event, error)
}

type DashboardHandler struct {
	dash   Dashboard
	moves  MoveLog
	logger *slog.Logger
}

func NewDashboardHandler(dash Dashboard, moves MoveLog, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{dash: dash, moves: moves, logger: logger}
}

func (h *DashboardHandler) Board(c *gin.Context) {
	cols, err := h.dash.Board(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to load orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": cols})
}

func (h *DashboardHandler) GetOrder(c *gin.Context) {
	o, err := h.dash.Order(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to load order")
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *DashboardHandler) CreateOrder(c *gin.Context) {
	var o models.Order
	if err := c.ShouldBindJSON(&o); err != nil {
		badRequest(c, "Invalid request format")
		return
	}

	created, err := h.dash.AddOrder(c.Request.Context(), o)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create order")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *DashboardHandler) MoveOrder(c *gin.Context) {
	var req struct {
		OrderID string             `json:"orderId" binding:"required"`
		From    models.OrderStatus `json:"from" binding:"required"`
		To      models.OrderStatus `json:"to" binding:"required"`
		Index   int                `json:"index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "orderId, from and to are required")
		return
	}

	cols, err := h.dash.MoveOrder(c.Request.Context(), dashboard.MoveOrder{
		OrderID: req.OrderID,
		From:    req.From,
		To:      req.To,
		Index:   req.Index,
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to move order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": cols})
}

func (h *DashboardHandler) AdvanceOrder(c *gin.Context) {
	res, err := h.dash.AdvanceOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to advance order")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *DashboardHandler) Moves(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultMovesLimit)))
	if err != nil || limit < 1 {
		limit = defaultMovesLimit
	}

	events, err := h.moves.Recent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load move history")
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *DashboardHandler) Overview(c *gin.Context) {
	ov, err := h.dash.Overview(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to compute analytics")
		return
	}
	c.JSON(http.StatusOK, ov)
}
