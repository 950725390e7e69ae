package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safar/delivery-admin/internal/apperr"
)

// respondError writes err as {"message", "errors"?}. Infrastructure failures
// are logged and replaced by fallback.
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind == apperr.KindInfrastructure {
		logger.ErrorContext(c.Request.Context(), fallback,
			"request_id", c.GetString("request_id"),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"message": fallback})
		return
	}

	body := gin.H{"message": appErr.Message}
	if len(appErr.Fields) > 0 {
		body["errors"] = appErr.Fields
	}
	c.JSON(appErr.Kind.HTTPStatus(), body)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": message})
}
