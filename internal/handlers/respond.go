package handlers

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/uniride-app/uniride-backend/internal/apperrors"
)

// respondData wraps a successful payload in the response envelope.
func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// respondMessage is respondData for endpoints that only confirm an action.
func respondMessage(c *gin.Context, status int, message string) {
	respondData(c, status, gin.H{"message": message})
}

// respondError maps a domain error to its HTTP status and the error
// envelope. Errors outside the taxonomy are logged and reported as 500
// without leaking internals.
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		log.Printf("Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(500, gin.H{"success": false, "error": gin.H{
			"kind":    "internal_error",
			"message": "Something went wrong",
		}})
		return
	}

	payload := gin.H{"kind": appErr.Kind, "message": appErr.Message}
	if appErr.Field != "" {
		payload["field"] = appErr.Field
	}
	c.JSON(apperrors.StatusCode(err), gin.H{"success": false, "error": payload})
}

// respondBindingError reports a request binding failure as a validation error.
func respondBindingError(c *gin.Context, err error) {
	respondError(c, apperrors.Validation("", err.Error()))
}
