package scrapebrowser

import (
	"context"

	"contact-scrape-go/pkg/orchestrator"
)

// ScrapeState holds all state related to in-flight operations
type ScrapeState struct {
	Running    int // scrape runs, resolutions and retries not yet returned
	LastReport *orchestrator.BatchReport
	Error      error
	Notice     string
	Ctx        context.Context
}

// Begin marks one more operation as in flight.
func (s *ScrapeState) Begin(notice string) {
	s.Running++
	s.Error = nil
	s.Notice = notice
}

// End marks an operation as returned and records its error, if any.
func (s *ScrapeState) End(err error) {
	if s.Running > 0 {
		s.Running--
	}
	s.Error = err
}

// Busy reports whether anything is still running.
func (s *ScrapeState) Busy() bool {
	return s.Running > 0
}
