package handlers

import (
	"net/http"

	"contact-scrape-go/pkg/models"
	"contact-scrape-go/pkg/orchestrator"
	"contact-scrape-go/pkg/registry"

	"github.com/gin-gonic/gin"
)

// GetSelection returns the selected contact ids
func GetSelection(sel *registry.Selection) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ids": sel.IDs()})
	}
}

// UpdateSelection selects, deselects or toggles contact ids. Ids that are
// not in a selectable state are reported as rejected.
func UpdateSelection(sel *registry.Selection) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			IDs    []int64 `json:"ids" binding:"required"`
			Action string  `json:"action"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rejected := make([]int64, 0)
		for _, id := range req.IDs {
			switch req.Action {
			case "", "select":
				if !sel.Select(id) {
					rejected = append(rejected, id)
				}
			case "deselect":
				sel.Deselect(id)
			case "toggle":
				sel.Toggle(id)
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": "action must be select, deselect or toggle"})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"ids": sel.IDs(), "rejected": rejected})
	}
}

// SelectAll selects every selectable contact matching the status filter
// and search term, across all pages.
func SelectAll(o *orchestrator.Orchestrator, sel *registry.Selection) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Status string `json:"status"`
			Search string `json:"q"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		q := registry.Query{Search: req.Search, PageSize: o.Registry().Len() + 1}
		if req.Status != "" && req.Status != "all" {
			q.Status = models.ClassifyStatus(req.Status)
		}
		page := o.Registry().View(q)
		ids := make([]int64, 0, len(page.Contacts))
		for _, contact := range page.Contacts {
			ids = append(ids, contact.ID)
		}

		added := sel.SelectAll(ids)
		c.JSON(http.StatusOK, gin.H{"added": added, "ids": sel.IDs()})
	}
}

// ClearSelection empties the selection
func ClearSelection(sel *registry.Selection) gin.HandlerFunc {
	return func(c *gin.Context) {
		sel.ClearAll()
		c.Status(http.StatusNoContent)
	}
}
