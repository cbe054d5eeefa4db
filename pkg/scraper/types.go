package scraper

import (
	"encoding/json"

	"contact-scrape-go/pkg/models"
)

// envelope is the common response wrapper of the scraping backend.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    *T     `json:"data,omitempty"`
}

func (e envelope[T]) failureMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Error != "" {
		return e.Error
	}
	return "request was not successful"
}

// DiscoverData is the payload of POST discover/{contactId}.
type DiscoverData struct {
	BusinessName      string `json:"businessName,omitempty"`
	DiscoveredWebsite string `json:"discoveredWebsite"`
	Confidence        string `json:"confidence"`
	SearchQuery       string `json:"searchQuery,omitempty"`
}

// BatchDiscoveryEntry is one element of POST discoverBatch/{uploadId}.
type BatchDiscoveryEntry struct {
	ContactID         int64  `json:"contactId"`
	BusinessName      string `json:"businessName,omitempty"`
	Success           bool   `json:"success"`
	DiscoveredWebsite string `json:"discoveredWebsite,omitempty"`
	Confidence        string `json:"confidence,omitempty"`
	SearchQuery       string `json:"searchQuery,omitempty"`
	Message           string `json:"message,omitempty"`
}

// DiscoverBatchData is the payload of POST discoverBatch/{uploadId}.
type DiscoverBatchData struct {
	Results []BatchDiscoveryEntry `json:"results"`
}

// ScrapeRequest is the optional body of POST scrape/{contactId}.
type ScrapeRequest struct {
	URLOverride string `json:"urlOverride,omitempty"`
}

// ScrapeData is the payload of POST scrape/{contactId}.
type ScrapeData struct {
	ContactID int64           `json:"contactId"`
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// ScrapeBatchRequest is the body of POST scrapeBatch.
type ScrapeBatchRequest struct {
	UploadID     int64            `json:"uploadId"`
	Limit        int              `json:"limit"`
	URLOverrides map[int64]string `json:"urlOverrides,omitempty"`
}

// ScrapeBatchEntry is one per-contact result of POST scrapeBatch.
type ScrapeBatchEntry struct {
	ContactID   int64           `json:"contactId"`
	Success     bool            `json:"success"`
	ScrapedData json.RawMessage `json:"scrapedData,omitempty"`
	Message     string          `json:"message,omitempty"`
}

// ScrapeBatchData is the payload of POST scrapeBatch.
type ScrapeBatchData struct {
	Summary models.ScrapeSummary `json:"summary"`
	Results []ScrapeBatchEntry   `json:"results"`
}

// ResetData is the payload of POST resetContact/{contactId}.
type ResetData struct {
	Status string `json:"status"`
}

// ContactsData is the payload of GET contacts.
type ContactsData struct {
	Contacts []models.Contact `json:"contacts"`
}

func (e BatchDiscoveryEntry) toModel() models.DiscoveryResult {
	r := models.DiscoveryResult{
		ContactID:         e.ContactID,
		BusinessName:      e.BusinessName,
		Success:           e.Success,
		DiscoveredWebsite: e.DiscoveredWebsite,
		SearchQuery:       e.SearchQuery,
		Message:           e.Message,
	}
	if e.Success {
		r.Confidence = models.ParseConfidence(e.Confidence)
	}
	return r
}

func (e ScrapeBatchEntry) toModel() models.ScrapeOutcome {
	return models.ScrapeOutcome{
		ContactID: e.ContactID,
		Success:   e.Success,
		Message:   e.Message,
		Data:      e.ScrapedData,
	}
}
