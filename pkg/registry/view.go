package registry

import "contact-scrape-go/pkg/models"

const DefaultPageSize = 25

// Query selects a page of the registry for display. A zero Status matches
// every status.
type Query struct {
	Status   models.ScrapeStatus
	Search   string
	Page     int
	PageSize int
}

// Page is one page of a filtered registry view.
type Page struct {
	Contacts   []models.Contact            `json:"contacts"`
	Total      int                         `json:"total"`
	Page       int                         `json:"page"`
	PageSize   int                         `json:"pageSize"`
	TotalPages int                         `json:"totalPages"`
	Counts     map[models.ScrapeStatus]int `json:"counts"`
}

// View filters by status and search term, then paginates. Page numbers are
// 1-based and clamped to the available range. Counts covers the whole
// registry regardless of filter.
func (r *Registry) View(q Query) Page {
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}

	all := r.Contacts()
	counts := make(map[models.ScrapeStatus]int, len(models.AllStatuses))
	matched := make([]models.Contact, 0, len(all))
	for _, c := range all {
		counts[c.Status]++
		if q.Status != "" && c.Status != q.Status {
			continue
		}
		if !c.Matches(q.Search) {
			continue
		}
		matched = append(matched, c)
	}

	totalPages := (len(matched) + q.PageSize - 1) / q.PageSize
	if totalPages == 0 {
		totalPages = 1
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * q.PageSize
	end := start + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	return Page{
		Contacts:   matched[start:end],
		Total:      len(matched),
		Page:       page,
		PageSize:   q.PageSize,
		TotalPages: totalPages,
		Counts:     counts,
	}
}
