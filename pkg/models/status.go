package models

import (
	"fmt"
	"strings"
)

// ScrapeStatus is the canonical scrape state of a contact.
type ScrapeStatus string

const (
	StatusReadyToScrape ScrapeStatus = "ready_to_scrape"
	StatusScraping      ScrapeStatus = "scraping"
	StatusScraped       ScrapeStatus = "scraped"
	StatusScrapeFailed  ScrapeStatus = "scrape_failed"
	StatusUnknown       ScrapeStatus = "unknown"
)

// AllStatuses lists the canonical states in display order.
var AllStatuses = []ScrapeStatus{
	StatusReadyToScrape,
	StatusScraping,
	StatusScraped,
	StatusScrapeFailed,
	StatusUnknown,
}

// statusSynonyms is keyed by normalizeStatusKey output. Every backend
// spelling we accept must be listed here and nowhere else.
var statusSynonyms = map[string]ScrapeStatus{
	"readytoscrape": StatusReadyToScrape,
	"ready":         StatusReadyToScrape,
	"scraping":      StatusScraping,
	"scraped":       StatusScraped,
	"scrapefailed":  StatusScrapeFailed,
	"failed":        StatusScrapeFailed,
}

// ClassifyStatus maps an arbitrary status string onto the canonical set.
// Matching ignores case, hyphens, spaces and underscores. Anything it does
// not recognise, including the empty string, is StatusUnknown.
func ClassifyStatus(raw string) ScrapeStatus {
	if status, ok := statusSynonyms[normalizeStatusKey(raw)]; ok {
		return status
	}
	return StatusUnknown
}

func normalizeStatusKey(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch r {
		case '-', '_', ' ', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// UnmarshalText classifies the incoming value so decoded contacts always
// carry a canonical status.
func (s *ScrapeStatus) UnmarshalText(text []byte) error {
	*s = ClassifyStatus(string(text))
	return nil
}

// Valid reports whether s is one of the canonical states.
func (s ScrapeStatus) Valid() bool {
	switch s {
	case StatusReadyToScrape, StatusScraping, StatusScraped, StatusScrapeFailed, StatusUnknown:
		return true
	}
	return false
}

// Selectable reports whether a contact in this state may join a selection.
func (s ScrapeStatus) Selectable() bool {
	return s == StatusReadyToScrape || s == StatusScrapeFailed
}

// Resettable reports whether an explicit reset may move the contact back
// to ready_to_scrape.
func (s ScrapeStatus) Resettable() bool {
	return s == StatusScrapeFailed || s == StatusScraped
}

// IsTerminal reports whether s is an end state of a scrape attempt.
func (s ScrapeStatus) IsTerminal() bool {
	return s == StatusScraped || s == StatusScrapeFailed
}

// Label returns the human-readable badge text.
func (s ScrapeStatus) Label() string {
	switch s {
	case StatusReadyToScrape:
		return "Ready"
	case StatusScraping:
		return "Scraping"
	case StatusScraped:
		return "Scraped"
	case StatusScrapeFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// StatusEvent drives a transition of the scrape state machine.
type StatusEvent string

const (
	EventScrapeAttempt   StatusEvent = "scrape_attempt"
	EventScrapeSucceeded StatusEvent = "scrape_succeeded"
	EventScrapeFailed    StatusEvent = "scrape_failed"
	EventReset           StatusEvent = "reset"
)

// NextStatus returns the state reached from current by event, or an error
// when the machine does not allow that move.
//
//	ready_to_scrape -> scraping           (scrape_attempt)
//	scrape_failed   -> scraping           (scrape_attempt, explicit re-selection)
//	scraping        -> scraped            (scrape_succeeded)
//	scraping        -> scrape_failed      (scrape_failed)
//	scrape_failed   -> ready_to_scrape    (reset)
//	scraped         -> ready_to_scrape    (reset)
func NextStatus(current ScrapeStatus, event StatusEvent) (ScrapeStatus, error) {
	switch event {
	case EventScrapeAttempt:
		if current.Selectable() {
			return StatusScraping, nil
		}
	case EventScrapeSucceeded:
		if current == StatusScraping {
			return StatusScraped, nil
		}
	case EventScrapeFailed:
		if current == StatusScraping {
			return StatusScrapeFailed, nil
		}
	case EventReset:
		if current.Resettable() {
			return StatusReadyToScrape, nil
		}
	default:
		return current, fmt.Errorf("unsupported status event: %q", event)
	}
	return current, fmt.Errorf("cannot apply %s from status=%s", event, current)
}
