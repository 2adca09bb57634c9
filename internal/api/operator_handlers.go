package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"go-insure/internal/session"
)

// GET /operator/leads?limit=N
func ListLeadsHandler(sessions SessionReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "limit must be a positive integer"}})
				return
			}
			limit = n
		}
		leads, err := sessions.ListLeads(c.Request.Context(), limit)
		if err != nil {
			log.Printf("[Operator] list leads failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to list leads"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"leads": leads})
	}
}

// GET /operator/sessions/:phone
func GetSessionHandler(sessions SessionReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := sessions.Find(c.Request.Context(), c.Param("phone"))
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Session not found"}})
			return
		}
		if err != nil {
			log.Printf("[Operator] load session failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to load session"}})
			return
		}
		c.JSON(http.StatusOK, sess)
	}
}
