package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-insure/internal/dialogue"
)

// POST /chat
// Body: {"phone_number": "...", "query": "...", "form": {...}}
func ChatHandler(turns TurnHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var msg dialogue.Message
		if err := c.ShouldBindJSON(&msg); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request body"}})
			return
		}
		reply, err := turns.HandleTurn(c.Request.Context(), msg)
		if errors.Is(err, dialogue.ErrMissingIdentifier) {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "phone_number is required"}})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to process message"}})
			return
		}
		c.JSON(http.StatusOK, reply)
	}
}
