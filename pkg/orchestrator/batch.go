package orchestrator

import (
	"context"

	"contact-scrape-go/pkg/models"
	"contact-scrape-go/pkg/scraper"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// StartScrape runs one scrape pass over the selected contact ids.
//
// Contacts with a website are scraped concurrently. Contacts that need
// discovery go through batch discovery when they share an upload, and
// otherwise through the single-item pipeline one at a time until one of
// them suspends. The registry is refreshed once every issued scrape has
// settled.
func (o *Orchestrator) StartScrape(ctx context.Context, ids []int64) (*BatchReport, error) {
	if len(ids) == 0 {
		return nil, ErrEmptySelection
	}

	report := &BatchReport{RunID: uuid.New()}
	var direct, discovery []models.Contact
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		c, ok := o.reg.Get(id)
		if !ok || !c.Status.Selectable() || o.queue.HasContact(id) {
			report.Ignored = append(report.Ignored, id)
			continue
		}
		if c.NeedsDiscovery() {
			discovery = append(discovery, c)
		} else {
			direct = append(direct, c)
		}
	}

	logger := o.logger.With("run_id", report.RunID)
	logger.Info("scrape pass started",
		"direct", len(direct),
		"discovery", len(discovery),
		"ignored", len(report.Ignored))

	results := make([]models.ScrapeOutcome, len(direct))
	issued := make([]bool, len(direct))
	settled := make(chan struct{})
	go func() {
		defer close(settled)
		var g errgroup.Group
		g.SetLimit(o.opts.Concurrency)
		for i, c := range direct {
			g.Go(func() error {
				results[i], issued[i] = o.scrape(ctx, c.ID, "")
				return nil
			})
		}
		_ = g.Wait()
	}()

	o.discover(ctx, report, discovery)

	<-settled
	outcomes := make([]models.ScrapeOutcome, 0, len(direct))
	for i, c := range direct {
		if !issued[i] {
			report.Ignored = append(report.Ignored, c.ID)
			continue
		}
		outcomes = append(outcomes, results[i])
	}
	report.Outcomes = append(outcomes, report.Outcomes...)

	if len(report.Outcomes) > 0 {
		o.refreshInto(ctx, report)
	}

	summary := report.Summary()
	logger.Info("scrape pass finished",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"pending", len(report.Pending),
		"deferred", len(report.Deferred),
		"uncovered", len(report.Uncovered),
		"refreshed", report.Refreshed)

	o.afterScrape(report)
	return report, nil
}

func (o *Orchestrator) discover(ctx context.Context, report *BatchReport, candidates []models.Contact) {
	switch {
	case len(candidates) == 0:
		return
	case len(candidates) == 1:
		report.addPipeline(o.runPipeline(ctx, report.RunID, candidates[0]))
		return
	}

	if uploadID, ok := sharedUpload(candidates); ok && o.discoverBatch(ctx, report, uploadID, candidates) {
		return
	}
	o.discoverSequential(ctx, report, candidates)
}

// discoverBatch asks for the whole cohort in one call and enqueues a batch
// confirmation for the usable results. It reports false when the caller
// should fall back to per-contact discovery.
func (o *Orchestrator) discoverBatch(ctx context.Context, report *BatchReport, uploadID int64, candidates []models.Contact) bool {
	ids := make([]int64, len(candidates))
	byID := make(map[int64]models.Contact, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
		byID[c.ID] = c
	}

	limit := max(2*len(candidates), len(candidates)+o.opts.BatchLimitSlack)
	taskCtx, done := o.tasks.Start(ctx, "discover_batch", ids...)
	result, err := o.svc.DiscoverBatch(taskCtx, uploadID, limit)
	aborted := taskCtx.Err() != nil
	done()

	if aborted {
		o.logger.Info("batch discovery aborted", "upload_id", uploadID)
		report.Aborted = append(report.Aborted, ids...)
		return true
	}
	if err != nil {
		o.logger.Warn("batch discovery failed, falling back to single discovery",
			"upload_id", uploadID,
			"error", scraper.UserMessage(err))
		return false
	}

	usable, uncovered := result.Filter(ids)
	if len(usable) == 0 {
		o.logger.Info("batch discovery found nothing usable, falling back to single discovery",
			"upload_id", uploadID)
		return false
	}

	found := make([]Candidate, 0, len(usable))
	for _, r := range usable {
		found = append(found, newCandidate(r, byID[r.ContactID]))
	}
	req := o.queue.Push(ConfirmationRequest{
		Kind:       KindBatch,
		RunID:      report.RunID,
		UploadID:   uploadID,
		Candidates: found,
	})
	report.Pending = append(report.Pending, req.ID)
	report.Uncovered = append(report.Uncovered, uncovered...)
	o.logger.Info("awaiting batch website confirmation",
		"request_id", req.ID,
		"candidates", len(found),
		"uncovered", len(uncovered))
	return true
}

// discoverSequential stops at the first suspension so only one dialog is
// queued per pass; the rest are deferred to a later pass.
func (o *Orchestrator) discoverSequential(ctx context.Context, report *BatchReport, candidates []models.Contact) {
	for i, c := range candidates {
		res := o.runPipeline(ctx, report.RunID, c)
		report.addPipeline(res)
		if res.Suspended() {
			for _, rest := range candidates[i+1:] {
				report.Deferred = append(report.Deferred, rest.ID)
			}
			return
		}
	}
}

func sharedUpload(contacts []models.Contact) (int64, bool) {
	uploadID := contacts[0].UploadID
	for _, c := range contacts[1:] {
		if c.UploadID != uploadID {
			return 0, false
		}
	}
	return uploadID, true
}
