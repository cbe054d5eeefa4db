package models

import (
	"encoding/json"
	"strings"
)

// Confidence grades a discovered website.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence normalises a backend confidence value. Unrecognised
// values are graded low.
func ParseConfidence(raw string) Confidence {
	switch c := Confidence(strings.ToLower(strings.TrimSpace(raw))); c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return c
	default:
		return ConfidenceLow
	}
}

// DiscoveryResult is the outcome of discovering one contact's website.
type DiscoveryResult struct {
	ContactID         int64      `json:"contactId"`
	BusinessName      string     `json:"businessName,omitempty"`
	Success           bool       `json:"success"`
	DiscoveredWebsite string     `json:"discoveredWebsite,omitempty"`
	Confidence        Confidence `json:"confidence,omitempty"`
	SearchQuery       string     `json:"searchQuery,omitempty"`
	Message           string     `json:"message,omitempty"`
}

// Usable reports whether the result carries a candidate worth confirming.
func (r DiscoveryResult) Usable() bool {
	return r.Success && strings.TrimSpace(r.DiscoveredWebsite) != ""
}

// BatchDiscoveryResult holds the per-contact results for one upload cohort,
// in backend order.
type BatchDiscoveryResult struct {
	UploadID int64             `json:"uploadId"`
	Results  []DiscoveryResult `json:"results"`
}

// Filter keeps the usable results whose contact is in ids, preserving
// order and dropping duplicates. It also returns the ids of ids that no
// usable result covers.
func (b BatchDiscoveryResult) Filter(ids []int64) (usable []DiscoveryResult, uncovered []int64) {
	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	seen := make(map[int64]bool, len(ids))
	for _, r := range b.Results {
		if !wanted[r.ContactID] || seen[r.ContactID] || !r.Usable() {
			continue
		}
		seen[r.ContactID] = true
		usable = append(usable, r)
	}
	for _, id := range ids {
		if !seen[id] {
			uncovered = append(uncovered, id)
		}
	}
	return usable, uncovered
}

// ScrapeOutcome is the result of scraping a single contact.
type ScrapeOutcome struct {
	ContactID int64           `json:"contactId"`
	Success   bool            `json:"success"`
	Message   string          `json:"message,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ScrapeSummary aggregates a set of outcomes.
type ScrapeSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Summarize counts successes and failures in outcomes.
func Summarize(outcomes []ScrapeOutcome) ScrapeSummary {
	s := ScrapeSummary{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

// ScrapeBatchOutcome is the result of one batch scrape call.
type ScrapeBatchOutcome struct {
	Summary ScrapeSummary   `json:"summary"`
	Results []ScrapeOutcome `json:"results"`
}
