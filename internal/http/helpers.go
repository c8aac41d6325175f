// README: HTTP helpers: sentinel error to status code mapping.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"aidlink/internal/modules/assignment"
	"aidlink/internal/modules/provider"
	"aidlink/internal/modules/ticket"
)

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ticket.ErrNotFound),
		errors.Is(err, provider.ErrNotFound),
		errors.Is(err, assignment.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, assignment.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ticket.ErrBadRequest),
		errors.Is(err, provider.ErrBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ticket.ErrInvalidState),
		errors.Is(err, assignment.ErrInvalidState),
		errors.Is(err, ticket.ErrConflict),
		errors.Is(err, assignment.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
