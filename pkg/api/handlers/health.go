package handlers

import (
	"context"
	"net/http"
	"time"

	"contact-scrape-go/pkg/scraper"

	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether the scraping backend is reachable.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// HealthCheck reports the API's own health and, when a checker is given,
// the backend's.
func HealthCheck(checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := checker.CheckHealth(ctx); err != nil {
			c.JSON(http.StatusOK, gin.H{"status": "degraded", "backend": scraper.UserMessage(err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": "ok"})
	}
}
