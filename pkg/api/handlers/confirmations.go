package handlers

import (
	"context"
	"net/http"

	"contact-scrape-go/pkg/orchestrator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func confirmationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid confirmation ID"})
		return uuid.Nil, false
	}
	return id, true
}

// confirmationView adds the display fields a dialog needs.
type confirmationView struct {
	orchestrator.ConfirmationRequest
	Links   map[int64]string `json:"links"`
	Domains map[int64]string `json:"domains"`
}

func newConfirmationView(req orchestrator.ConfirmationRequest) confirmationView {
	v := confirmationView{
		ConfirmationRequest: req,
		Links:               make(map[int64]string, len(req.Candidates)),
		Domains:             make(map[int64]string, len(req.Candidates)),
	}
	for _, cand := range req.Candidates {
		v.Links[cand.ContactID] = cand.VisitURL()
		v.Domains[cand.ContactID] = cand.Domain()
	}
	return v
}

// ConfirmationHead returns the one confirmation the UI should show
func ConfirmationHead(o *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		head, ok := o.Queue().Head()
		if !ok {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"request": newConfirmationView(head),
			"pending": o.Queue().Len(),
		})
	}
}

// ResolveSingle applies a confirm, skip or remove decision to a single
// confirmation
func ResolveSingle(o *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := confirmationID(c)
		if !ok {
			return
		}
		var req struct {
			Decision string `json:"decision" binding:"required"`
			URL      string `json:"url"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		decision, err := orchestrator.ParseDecision(req.Decision, req.URL)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		report, err := o.ResolveSingle(context.WithoutCancel(c.Request.Context()), id, decision)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, newBatchResponse(report))
	}
}

// ResolveBatch submits a batch confirmation. confirmed maps contact id to
// URL (empty keeps the discovered one); removed lists dropped contacts.
func ResolveBatch(o *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := confirmationID(c)
		if !ok {
			return
		}
		var req struct {
			Confirmed map[int64]string `json:"confirmed"`
			Removed   []int64          `json:"removed"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		pending, found := o.Queue().Get(id)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "confirmation request not found"})
			return
		}
		session := orchestrator.NewBatchSession(pending)
		for contactID, url := range req.Confirmed {
			if err := session.ConfirmURL(contactID, url); err != nil {
				writeError(c, err)
				return
			}
		}
		for _, contactID := range req.Removed {
			if err := session.Remove(contactID); err != nil {
				writeError(c, err)
				return
			}
		}

		report, err := o.ResolveBatch(context.WithoutCancel(c.Request.Context()), id, session)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, newBatchResponse(report))
	}
}

// DismissConfirmation closes a confirmation without a decision. In-flight
// work is not cancelled.
func DismissConfirmation(o *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := confirmationID(c)
		if !ok {
			return
		}
		if err := o.Dismiss(id); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
