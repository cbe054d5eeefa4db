package cli

import (
	"context"
	"fmt"

	"contact-scrape-go/pkg/cli/format"
	"contact-scrape-go/pkg/models"
	"contact-scrape-go/pkg/registry"
)

// ListOptions narrows the contacts listing.
type ListOptions struct {
	Status   string
	Search   string
	Page     int
	PageSize int
}

// ListContacts prints one page of the registry as a table
func (a *App) ListContacts(ctx context.Context, opts ListOptions) error {
	orch, err := a.getOrchestrator(ctx)
	if err != nil {
		return err
	}

	var status models.ScrapeStatus
	if opts.Status != "" {
		status = models.ClassifyStatus(opts.Status)
		if status == models.StatusUnknown {
			return fmt.Errorf("unknown status filter: %s", opts.Status)
		}
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = a.cfg.Scrape.PageSize
	}

	page := orch.Registry().View(registry.Query{
		Status:   status,
		Search:   opts.Search,
		Page:     opts.Page,
		PageSize: pageSize,
	})
	fmt.Fprint(a.out, format.ContactTable(page))
	return nil
}
