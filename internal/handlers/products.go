package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/safar/delivery-admin/internal/apperr"
	"github.com/safar/delivery-admin/internal/catalog"
	"github.com/safar/delivery-admin/internal/dashboard"
	"github.com/safar/delivery-admin/internal/delivery"
	"github.com/safar/delivery-admin/internal/models"
	"github.com/shopspring/decimal"
)

// looseString accepts a JSON string or number, so "12.5" and 12.5 both bind.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	*s = looseString(b)
	return nil
}

type productRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Price       looseString        `json:"price"`
	Category    string             `json:"category"`
	IsAvailable *bool              `json:"isAvailable"`
	StockStatus models.StockStatus `json:"stockStatus"`
	Images      []string           `json:"images"`
}

func (r productRequest) candidate() catalog.Candidate {
	return catalog.Candidate{
		Name:        r.Name,
		Description: r.Description,
		Price:       string(r.Price),
		Category:    r.Category,
		IsAvailable: r.IsAvailable,
		StockStatus: r.StockStatus,
	}
}

func (h *DashboardHandler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))

	result, err := h.dash.Products(c.Request.Context(), dashboard.ListProducts{
		Status:   models.StockStatus(c.Query("status")),
		Search:   c.Query("q"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to list products")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *DashboardHandler) GetProduct(c *gin.Context) {
	p, err := h.dash.Product(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to load product")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *DashboardHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}

	p, err := h.dash.SubmitProduct(c.Request.Context(), req.candidate(), req.Images)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create product")
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *DashboardHandler) UpdateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}

	p, err := h.dash.UpdateProduct(c.Request.Context(), c.Param("id"), req.candidate(), req.Images)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update product")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *DashboardHandler) DeleteProduct(c *gin.Context) {
	if err := h.dash.RemoveProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "Failed to delete product")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DashboardHandler) AssignDelivery(c *gin.Context) {
	var req struct {
		ServiceID     string       `json:"serviceId" binding:"required"`
		Price         *looseString `json:"price"`
		EstimatedTime string       `json:"estimatedTime"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "serviceId is required")
		return
	}

	var override delivery.Override
	override.EstimatedTime = req.EstimatedTime
	if req.Price != nil && *req.Price != "" {
		price, err := decimal.NewFromString(string(*req.Price))
		if err != nil {
			respondError(c, h.logger, apperr.Validation("Price must be a valid number",
				map[string]string{"price": "must be a valid number"}), "Failed to assign delivery")
			return
		}
		override.Price = &price
	}

	p, err := h.dash.AssignDelivery(c.Request.Context(), dashboard.AssignDelivery{
		ProductID: c.Param("id"),
		ServiceID: req.ServiceID,
		Override:  override,
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to assign delivery")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *DashboardHandler) UnassignDelivery(c *gin.Context) {
	p, err := h.dash.UnassignDelivery(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to remove delivery")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *DashboardHandler) Services(c *gin.Context) {
	services, err := h.dash.Services(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to list delivery services")
		return
	}
	c.JSON(http.StatusOK, services)
}

func (h *DashboardHandler) DeliveryStats(c *gin.Context) {
	stats, err := h.dash.DeliveryStats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to compute delivery stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
