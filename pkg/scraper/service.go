package scraper

//go:generate mockgen -destination=mock_scraper/mock_service.go -package=mock_scraper contact-scrape-go/pkg/scraper Service

import (
	"context"

	"contact-scrape-go/pkg/models"
)

// Service is the discovery/scrape/reset contract the orchestrator depends
// on. Every failure is returned as a *ScraperError.
type Service interface {
	DiscoverOne(ctx context.Context, contactID int64) (models.DiscoveryResult, error)
	DiscoverBatch(ctx context.Context, uploadID int64, limit int) (models.BatchDiscoveryResult, error)
	ScrapeOne(ctx context.Context, contactID int64, urlOverride string) (models.ScrapeOutcome, error)
	ScrapeBatch(ctx context.Context, uploadID int64, limit int, overrides map[int64]string) (models.ScrapeBatchOutcome, error)
	ResetContact(ctx context.Context, contactID int64) (models.ScrapeStatus, error)
}
