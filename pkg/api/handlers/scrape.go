package handlers

import (
	"context"
	"net/http"

	"contact-scrape-go/pkg/orchestrator"
	"contact-scrape-go/pkg/registry"

	"github.com/gin-gonic/gin"
)

// StartScrape runs a scrape pass over the ids in the body, or over the
// current selection when the body names none. The selection is cleared
// once it has been handed to the pass.
func StartScrape(o *orchestrator.Orchestrator, sel *registry.Selection) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			IDs []int64 `json:"ids"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		ids := req.IDs
		fromSelection := len(ids) == 0
		if fromSelection {
			ids = sel.IDs()
		}

		// In-flight work survives a dropped connection; abort is explicit.
		report, err := o.StartScrape(context.WithoutCancel(c.Request.Context()), ids)
		if err != nil {
			writeError(c, err)
			return
		}
		if fromSelection {
			sel.ClearAll()
		}

		status := http.StatusOK
		if report.Suspended() {
			status = http.StatusAccepted
		}
		c.JSON(status, newBatchResponse(report))
	}
}

// ListTasks lists in-flight backend calls
func ListTasks(o *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tasks": o.Tasks().InFlight()})
	}
}

// AbortTasks cancels every in-flight backend call
func AbortTasks(o *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"aborted": o.AbortAll()})
	}
}
