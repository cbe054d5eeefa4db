package scrapebrowser

import (
	"contact-scrape-go/pkg/orchestrator"

	"github.com/google/uuid"
)

// ContactsLoadedMsg is emitted when the registry has been refreshed
type ContactsLoadedMsg struct {
	Err error
}

// ScrapeDoneMsg is emitted when a scrape run returns. Pending confirmations
// are left on the orchestrator's queue.
type ScrapeDoneMsg struct {
	Report *orchestrator.BatchReport
	Err    error
}

// ResolveDoneMsg is emitted when a confirmation has been resolved
type ResolveDoneMsg struct {
	RequestID uuid.UUID
	Report    *orchestrator.BatchReport
	Err       error
}

// RetryDoneMsg is emitted when a reset and refresh complete
type RetryDoneMsg struct {
	Report *orchestrator.ResetReport
	Err    error
}

// TickMsg is emitted periodically while work is in flight
type TickMsg struct{}
