package orchestrator

import (
	"context"
	"fmt"

	"contact-scrape-go/pkg/models"
)

// ResetReport is the result of a retry.
type ResetReport struct {
	ContactID  int64               `json:"contactId"`
	Status     models.ScrapeStatus `json:"status"`
	Reset      bool                `json:"reset"`
	Refreshed  bool                `json:"refreshed"`
	RefreshErr error               `json:"-"`
}

// Retry resets a failed (or scraped) contact so it can be scraped again.
// On success the server-reported status is applied provisionally, and after
// the settle delay the registry is refreshed. A reset failure is returned
// as the error, but the refresh is still attempted. Cancelling ctx during
// the settle delay cuts the wait short; the refresh then runs detached from
// ctx so the contact does not stay provisional.
func (o *Orchestrator) Retry(ctx context.Context, contactID int64) (*ResetReport, error) {
	c, ok := o.reg.Get(contactID)
	if !ok {
		return nil, fmt.Errorf("%w: id=%d", ErrContactNotFound, contactID)
	}
	if !c.Status.Resettable() {
		return nil, fmt.Errorf("contact %d is %s: %w", contactID, c.Status, ErrNotRetryable)
	}

	report := &ResetReport{ContactID: contactID, Status: c.Status}
	logger := o.logger.With("contact_id", contactID)

	taskCtx, done := o.tasks.Start(ctx, "reset", contactID)
	status, resetErr := o.svc.ResetContact(taskCtx, contactID)
	done()

	if resetErr == nil {
		if status == models.StatusUnknown {
			status = models.StatusReadyToScrape
		}
		updated, err := o.reg.SetStatus(contactID, status)
		if err != nil {
			logger.Warn("contact vanished during reset", "error", err)
		} else {
			o.statusUpdated(updated)
		}
		report.Status = status
		report.Reset = true
		logger.Info("contact reset", "status", status)

		if err := o.sleep(ctx, o.opts.SettleDelay); err != nil {
			// Cancelled while settling: still replace the provisional
			// status with whatever the source has now.
			logger.Info("settle wait cancelled, refreshing now", "error", err)
			ctx = context.WithoutCancel(ctx)
		}
	} else {
		logger.Error("reset failed", "error", resetErr)
	}

	report.Refreshed = true
	report.RefreshErr = o.Refresh(ctx)
	if c, ok := o.reg.Get(contactID); ok && report.RefreshErr == nil {
		report.Status = c.Status
	}

	if resetErr != nil {
		return report, fmt.Errorf("reset contact %d: %w", contactID, resetErr)
	}
	return report, nil
}
