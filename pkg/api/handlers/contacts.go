package handlers

import (
	"context"
	"net/http"
	"strconv"

	"contact-scrape-go/pkg/models"
	"contact-scrape-go/pkg/orchestrator"
	"contact-scrape-go/pkg/registry"
	"contact-scrape-go/pkg/scraper"

	"github.com/gin-gonic/gin"
)

// ListContacts returns a filtered, searched, paginated page of the registry
func ListContacts(o *orchestrator.Orchestrator, sel *registry.Selection) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := registry.Query{Search: c.Query("q")}
		if status := c.Query("status"); status != "" && status != "all" {
			q.Status = models.ClassifyStatus(status)
		}
		q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
		q.PageSize, _ = strconv.Atoi(c.Query("pageSize"))

		page := o.Registry().View(q)
		selected := make([]int64, 0)
		for _, contact := range page.Contacts {
			if sel.Contains(contact.ID) {
				selected = append(selected, contact.ID)
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"page":           page,
			"selectedOnPage": selected,
			"selectedTotal":  sel.Len(),
		})
	}
}

// GetContact returns one contact with its reconciliation state
func GetContact(o *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := contactID(c)
		if !ok {
			return
		}
		entry, found := o.Registry().Entry(id)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "contact not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"contact":     entry.Contact,
			"provisional": entry.Provisional,
			"updatedAt":   entry.UpdatedAt,
		})
	}
}

// RefreshContacts reloads the registry, optionally switching upload/status
func RefreshContacts(o *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			UploadID *int64 `json:"uploadId"`
			Status   string `json:"status"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		ctx := context.WithoutCancel(c.Request.Context())
		var err error
		if req.UploadID != nil || req.Status != "" {
			q := o.Registry().Query()
			if req.UploadID != nil {
				q.UploadID = *req.UploadID
			}
			if req.Status != "" {
				q.Status = models.ClassifyStatus(req.Status)
			}
			err = o.ChangeFilter(ctx, q)
		} else {
			err = o.Refresh(ctx)
		}
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": scraper.UserMessage(err)})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"count":       o.Registry().Len(),
			"refreshedAt": o.Registry().RefreshedAt(),
		})
	}
}

// RetryContact resets a failed contact and refreshes the registry
func RetryContact(o *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := contactID(c)
		if !ok {
			return
		}

		report, err := o.Retry(context.WithoutCancel(c.Request.Context()), id)
		if report == nil {
			writeError(c, err)
			return
		}

		resp := gin.H{"report": report}
		if report.RefreshErr != nil {
			resp["refreshError"] = report.RefreshErr.Error()
		}
		if err != nil {
			resp["error"] = scraper.UserMessage(err)
			c.JSON(http.StatusBadGateway, resp)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// AbortContact cancels in-flight backend calls for one contact
func AbortContact(o *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := contactID(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"aborted": o.Abort(id)})
	}
}
