package orchestrator

import (
	"context"
	"fmt"

	"contact-scrape-go/pkg/models"
	"contact-scrape-go/pkg/scraper"

	"github.com/google/uuid"
)

// PipelineResult is what the single-item pipeline produced for one
// contact: a scrape outcome, a pending confirmation, or nothing when the
// call was aborted or the contact was no longer scrapeable.
type PipelineResult struct {
	ContactID int64                 `json:"contactId"`
	Outcome   *models.ScrapeOutcome `json:"outcome,omitempty"`
	Pending   uuid.UUID             `json:"pending,omitempty"`
	FailOpen  bool                  `json:"failOpen,omitempty"`
	Aborted   bool                  `json:"aborted,omitempty"`
	Ignored   bool                  `json:"ignored,omitempty"`
}

// Suspended reports whether the pipeline is waiting on a confirmation.
func (r PipelineResult) Suspended() bool {
	return r.Pending != uuid.Nil
}

// RunSingle runs the single-item pipeline for one contact and refreshes
// the registry if a scrape was issued.
func (o *Orchestrator) RunSingle(ctx context.Context, contactID int64) (*BatchReport, error) {
	c, ok := o.reg.Get(contactID)
	if !ok {
		return nil, fmt.Errorf("%w: id=%d", ErrContactNotFound, contactID)
	}
	if !c.Status.Selectable() {
		return nil, fmt.Errorf("contact %d is %s: %w", contactID, c.Status, ErrNotScrapeable)
	}

	report := &BatchReport{RunID: uuid.New()}
	report.addPipeline(o.runPipeline(ctx, report.RunID, c))
	if len(report.Outcomes) > 0 {
		o.refreshInto(ctx, report)
	}
	o.afterScrape(report)
	return report, nil
}

// runPipeline scrapes directly when the contact has a website. Otherwise it
// discovers one and suspends into a single confirmation; failed discovery
// falls open to a scrape without a URL.
func (o *Orchestrator) runPipeline(ctx context.Context, runID uuid.UUID, c models.Contact) PipelineResult {
	res := PipelineResult{ContactID: c.ID}

	if !c.NeedsDiscovery() {
		out, issued := o.scrape(ctx, c.ID, "")
		if !issued {
			res.Ignored = true
			return res
		}
		res.Outcome = &out
		return res
	}

	taskCtx, done := o.tasks.Start(ctx, "discover", c.ID)
	found, err := o.svc.DiscoverOne(taskCtx, c.ID)
	aborted := taskCtx.Err() != nil
	done()

	if aborted {
		o.logger.Info("discovery aborted", "contact_id", c.ID)
		res.Aborted = true
		return res
	}

	if err != nil || !found.Usable() {
		reason := found.Message
		if err != nil {
			reason = scraper.UserMessage(err)
		}
		o.logger.Info("discovery failed, scraping without a discovered URL",
			"contact_id", c.ID,
			"reason", reason)
		out, issued := o.scrape(ctx, c.ID, "")
		if !issued {
			res.Ignored = true
			return res
		}
		res.Outcome = &out
		res.FailOpen = true
		return res
	}

	found.ContactID = c.ID
	req := o.queue.Push(ConfirmationRequest{
		Kind:       KindSingle,
		RunID:      runID,
		UploadID:   c.UploadID,
		Candidates: []Candidate{newCandidate(found, c)},
	})
	o.logger.Info("awaiting website confirmation",
		"contact_id", c.ID,
		"request_id", req.ID,
		"website", found.DiscoveredWebsite,
		"confidence", found.Confidence)
	res.Pending = req.ID
	return res
}

// scrape performs one scrape attempt, moving the contact through
// scraping to scraped or scrape_failed. Adapter errors become failed
// outcomes. It reports false, without calling the backend, when the
// contact is no longer in a scrapeable state.
func (o *Orchestrator) scrape(ctx context.Context, contactID int64, urlOverride string) (models.ScrapeOutcome, bool) {
	c, err := o.reg.Apply(contactID, models.EventScrapeAttempt, "")
	if err != nil {
		o.logger.Warn("contact cannot be scraped", "contact_id", contactID, "error", err)
		return models.ScrapeOutcome{}, false
	}
	o.statusUpdated(c)

	taskCtx, done := o.tasks.Start(ctx, "scrape", contactID)
	out, err := o.svc.ScrapeOne(taskCtx, contactID, urlOverride)
	done()

	if err != nil {
		o.logger.Warn("scrape failed", "contact_id", contactID, "error", err)
		out = models.ScrapeOutcome{Message: scraper.UserMessage(err)}
	}
	out.ContactID = contactID
	o.applyOutcome(out)
	return out, true
}

func (o *Orchestrator) applyOutcome(out models.ScrapeOutcome) {
	event := models.EventScrapeSucceeded
	if !out.Success {
		event = models.EventScrapeFailed
	}
	c, err := o.reg.Apply(out.ContactID, event, out.Message)
	if err != nil {
		o.logger.Warn("could not record scrape outcome", "contact_id", out.ContactID, "error", err)
		return
	}
	o.statusUpdated(c)
}
