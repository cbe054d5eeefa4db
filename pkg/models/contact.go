package models

import "strings"

// ScrapeMethod tags how the backend would obtain a contact's target URL.
type ScrapeMethod string

const (
	ScrapeMethodNone           ScrapeMethod = ""
	ScrapeMethodDirectURL      ScrapeMethod = "direct_url"
	ScrapeMethodEmailDomain    ScrapeMethod = "email_domain"
	ScrapeMethodBusinessSearch ScrapeMethod = "business_search"
)

// Contact is a unit of scrape work as held by the client registry.
type Contact struct {
	ID           int64        `json:"id"`
	UploadID     int64        `json:"uploadId"`
	BusinessName string       `json:"businessName,omitempty"`
	Website      string       `json:"website,omitempty"`
	Email        string       `json:"email,omitempty"`
	State        string       `json:"state,omitempty"`
	ZipCode      string       `json:"zipCode,omitempty"`
	Status       ScrapeStatus `json:"status"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
	ScrapeMethod ScrapeMethod `json:"scrapeMethod,omitempty"`
}

// ContactQuery narrows what a registry source returns.
type ContactQuery struct {
	UploadID int64
	Status   ScrapeStatus
}

// NeedsDiscovery reports whether the contact's website has to be discovered
// and confirmed before scraping. A contact with a website never does.
func NeedsDiscovery(c Contact) bool {
	if strings.TrimSpace(c.Website) != "" {
		return false
	}
	return strings.TrimSpace(c.BusinessName) != "" || c.ScrapeMethod == ScrapeMethodBusinessSearch
}

// NeedsDiscovery is a convenience wrapper around the package function.
func (c Contact) NeedsDiscovery() bool {
	return NeedsDiscovery(c)
}

// DisplayName returns the best identifying label for the contact.
func (c Contact) DisplayName() string {
	switch {
	case strings.TrimSpace(c.BusinessName) != "":
		return c.BusinessName
	case strings.TrimSpace(c.Website) != "":
		return c.Website
	case strings.TrimSpace(c.Email) != "":
		return c.Email
	default:
		return "(unnamed contact)"
	}
}

// Matches reports whether the case-insensitive term occurs in any of the
// identifying fields. An empty term matches everything.
func (c Contact) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range []string{c.BusinessName, c.Website, c.Email, c.State, c.ZipCode} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
