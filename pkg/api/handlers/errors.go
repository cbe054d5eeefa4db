package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"contact-scrape-go/pkg/models"
	"contact-scrape-go/pkg/orchestrator"
	"contact-scrape-go/pkg/scraper"

	"github.com/gin-gonic/gin"
)

// writeError maps orchestration errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var scraperErr *scraper.ScraperError
	switch {
	case errors.Is(err, orchestrator.ErrContactNotFound),
		errors.Is(err, orchestrator.ErrConfirmationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, orchestrator.ErrNotRetryable),
		errors.Is(err, orchestrator.ErrNotScrapeable),
		errors.Is(err, orchestrator.ErrWrongConfirmationKind):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, orchestrator.ErrNothingConfirmed),
		errors.Is(err, orchestrator.ErrEmptySelection),
		errors.Is(err, orchestrator.ErrUnknownCandidate),
		errors.Is(err, orchestrator.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &scraperErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": scraperErr.UserMessage(),
			"type":  scraperErr.Type,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func contactID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contact ID"})
		return 0, false
	}
	return id, true
}

// batchResponse is a BatchReport plus its summary and refresh error text.
type batchResponse struct {
	*orchestrator.BatchReport
	Summary      models.ScrapeSummary `json:"summary"`
	Suspended    bool                 `json:"suspended"`
	RefreshError string               `json:"refreshError,omitempty"`
}

func newBatchResponse(r *orchestrator.BatchReport) batchResponse {
	resp := batchResponse{
		BatchReport: r,
		Summary:     r.Summary(),
		Suspended:   r.Suspended(),
	}
	if r.RefreshErr != nil {
		resp.RefreshError = r.RefreshErr.Error()
	}
	return resp
}
