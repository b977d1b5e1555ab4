package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"venuematch/internal/model"
	"venuematch/internal/service"
)

// writeError maps service errors onto HTTP status codes
func writeError(c *gin.Context, action string, err error) {
	var validation *service.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + validation.Error(), "field": validation.Field})
	case errors.Is(err, service.ErrCatalogUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": action + " failed: catalog unavailable, try again", "retryable": true})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": action + " failed: " + err.Error()})
	}
}
