package handlers

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/safar/delivery-admin/internal/apperr"
	"github.com/safar/delivery-admin/internal/auth"
	"github.com/safar/delivery-admin/internal/models"
)

type AuthService interface {
	Register(ctx context.Context, c auth.RegisterCandidate, image *multipart.FileHeader) (int64, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

type AuthHandler struct {
	svc    AuthService
	logger *slog.Logger
}

func NewAuthHandler(svc AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var cand auth.RegisterCandidate
	if err := c.ShouldBind(&cand); err != nil {
		badRequest(c, "Invalid request format")
		return
	}

	image, err := c.FormFile("profileImage")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		badRequest(c, "Invalid profile image upload")
		return
	}

	id, err := h.svc.Register(c.Request.Context(), cand, image)
	if err != nil {
		respondError(c, h.logger, err, "Server error during registration")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"userId":  id,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}

	user, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err, "Server error during login")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
	})
}

func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Server error")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *AuthHandler) GetUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, h.logger, apperr.NotFound("User not found"), "Server error")
		return
	}

	user, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "Server error")
		return
	}
	c.JSON(http.StatusOK, user)
}
