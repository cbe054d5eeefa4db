package orchestrator

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"contact-scrape-go/pkg/models"
	"contact-scrape-go/pkg/scraper"
	"contact-scrape-go/pkg/utils"

	"github.com/google/uuid"
)

// DecisionKind is the operator's verdict on one candidate.
type DecisionKind string

const (
	DecisionSkipped   DecisionKind = "skipped"
	DecisionConfirmed DecisionKind = "confirmed"
	DecisionRemoved   DecisionKind = "removed"
)

// Decision is a verdict plus, when confirmed, the URL to scrape.
type Decision struct {
	Kind DecisionKind `json:"kind"`
	URL  string       `json:"url,omitempty"`
}

func Confirmed(url string) Decision { return Decision{Kind: DecisionConfirmed, URL: url} }
func Skipped() Decision             { return Decision{Kind: DecisionSkipped} }
func Removed() Decision             { return Decision{Kind: DecisionRemoved} }

// ParseDecision maps a decision name to a Decision.
func ParseDecision(kind, url string) (Decision, error) {
	switch DecisionKind(strings.ToLower(strings.TrimSpace(kind))) {
	case DecisionConfirmed, "confirm":
		if strings.TrimSpace(url) == "" {
			return Confirmed(""), nil
		}
		v, err := validateOverride(url)
		if err != nil {
			return Decision{}, err
		}
		return Confirmed(v), nil
	case DecisionSkipped, "skip", "cancel", "cancelled":
		return Skipped(), nil
	case DecisionRemoved, "remove":
		return Removed(), nil
	default:
		return Decision{}, fmt.Errorf("unknown decision %q", kind)
	}
}

func validateOverride(raw string) (string, error) {
	v, err := utils.ValidateURL(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return v, nil
}

// ResolveSingle consumes a single confirmation. A confirmed decision
// scrapes with the URL (the discovered one when the decision carries
// none); skipped and removed issue no call.
func (o *Orchestrator) ResolveSingle(ctx context.Context, requestID uuid.UUID, d Decision) (*BatchReport, error) {
	req, ok := o.queue.Get(requestID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConfirmationNotFound, requestID)
	}
	if req.Kind != KindSingle {
		return nil, fmt.Errorf("%w: request %s is %s", ErrWrongConfirmationKind, requestID, req.Kind)
	}
	if _, ok := o.queue.Remove(requestID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrConfirmationNotFound, requestID)
	}

	cand := req.Candidates[0]
	report := &BatchReport{RunID: req.RunID}
	logger := o.logger.With("run_id", req.RunID, "request_id", requestID, "contact_id", cand.ContactID)

	switch d.Kind {
	case DecisionConfirmed:
		url := strings.TrimSpace(d.URL)
		if url == "" {
			url = cand.DiscoveredWebsite
		}
		logger.Info("website confirmed", "url", url)
		out, issued := o.scrape(ctx, cand.ContactID, url)
		if !issued {
			report.Ignored = append(report.Ignored, cand.ContactID)
			break
		}
		report.Outcomes = append(report.Outcomes, out)
		o.refreshInto(ctx, report)
	case DecisionRemoved:
		logger.Info("candidate removed")
		report.Removed = append(report.Removed, cand.ContactID)
	default:
		logger.Info("candidate skipped")
		report.Skipped = append(report.Skipped, cand.ContactID)
	}

	o.afterScrape(report)
	return report, nil
}

// Dismiss closes a confirmation without deciding. It does not cancel any
// in-flight work; use Abort for that.
func (o *Orchestrator) Dismiss(requestID uuid.UUID) error {
	req, ok := o.queue.Remove(requestID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrConfirmationNotFound, requestID)
	}
	o.logger.Info("confirmation dismissed", "request_id", requestID, "contacts", req.ContactIDs())
	return nil
}

// BatchSession is the decision state of a batch confirmation dialog. It is
// not safe for concurrent use; it belongs to one dialog.
type BatchSession struct {
	request   ConfirmationRequest
	decisions map[int64]Decision
	cursor    int
}

// NewBatchSession starts a session over req with every candidate skipped.
func NewBatchSession(req ConfirmationRequest) *BatchSession {
	return &BatchSession{
		request:   req,
		decisions: make(map[int64]Decision, len(req.Candidates)),
	}
}

// Request returns the confirmation request the session decides.
func (s *BatchSession) Request() ConfirmationRequest { return s.request }

// Visible returns the candidates that have not been removed, in order.
func (s *BatchSession) Visible() []Candidate {
	out := make([]Candidate, 0, len(s.request.Candidates))
	for _, c := range s.request.Candidates {
		if s.decisions[c.ContactID].Kind != DecisionRemoved {
			out = append(out, c)
		}
	}
	return out
}

// Empty reports whether every candidate has been removed.
func (s *BatchSession) Empty() bool {
	return len(s.Visible()) == 0
}

// Current returns the candidate under the cursor.
func (s *BatchSession) Current() (Candidate, bool) {
	visible := s.Visible()
	if len(visible) == 0 {
		return Candidate{}, false
	}
	s.clamp(len(visible))
	return visible[s.cursor], true
}

// Position returns the 1-based cursor position and the visible count.
func (s *BatchSession) Position() (int, int) {
	n := len(s.Visible())
	if n == 0 {
		return 0, 0
	}
	s.clamp(n)
	return s.cursor + 1, n
}

// Next moves the cursor forward and reports whether it moved.
func (s *BatchSession) Next() bool {
	n := len(s.Visible())
	if s.cursor+1 >= n {
		return false
	}
	s.cursor++
	return true
}

// Prev moves the cursor back and reports whether it moved.
func (s *BatchSession) Prev() bool {
	if s.cursor == 0 {
		return false
	}
	s.cursor--
	return true
}

func (s *BatchSession) clamp(n int) {
	if s.cursor >= n {
		s.cursor = n - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

// Confirm marks contactID confirmed with its discovered URL.
func (s *BatchSession) Confirm(contactID int64) error {
	c, ok := s.request.Candidate(contactID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownCandidate, contactID)
	}
	s.decisions[contactID] = Confirmed(c.DiscoveredWebsite)
	return nil
}

// ConfirmURL marks contactID confirmed with an operator-supplied URL.
func (s *BatchSession) ConfirmURL(contactID int64, url string) error {
	if _, ok := s.request.Candidate(contactID); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownCandidate, contactID)
	}
	if strings.TrimSpace(url) == "" {
		return s.Confirm(contactID)
	}
	v, err := validateOverride(url)
	if err != nil {
		return err
	}
	s.decisions[contactID] = Confirmed(v)
	return nil
}

// Remove drops contactID from the session. Removed candidates are never
// scraped by this submission.
func (s *BatchSession) Remove(contactID int64) error {
	if _, ok := s.request.Candidate(contactID); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownCandidate, contactID)
	}
	s.decisions[contactID] = Removed()
	s.clamp(len(s.Visible()))
	return nil
}

// Unmark returns contactID to the default skipped state.
func (s *BatchSession) Unmark(contactID int64) error {
	if _, ok := s.request.Candidate(contactID); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownCandidate, contactID)
	}
	delete(s.decisions, contactID)
	return nil
}

// ToggleCurrent flips the candidate under the cursor between confirmed and
// skipped.
func (s *BatchSession) ToggleCurrent() {
	c, ok := s.Current()
	if !ok {
		return
	}
	if s.Decision(c.ContactID).Kind == DecisionConfirmed {
		_ = s.Unmark(c.ContactID)
		return
	}
	_ = s.Confirm(c.ContactID)
}

// RemoveCurrent removes the candidate under the cursor.
func (s *BatchSession) RemoveCurrent() {
	if c, ok := s.Current(); ok {
		_ = s.Remove(c.ContactID)
	}
}

// Decision returns the verdict for contactID.
func (s *BatchSession) Decision(contactID int64) Decision {
	if d, ok := s.decisions[contactID]; ok {
		return d
	}
	return Skipped()
}

// Decisions returns the verdict for every candidate.
func (s *BatchSession) Decisions() map[int64]Decision {
	out := make(map[int64]Decision, len(s.request.Candidates))
	for _, c := range s.request.Candidates {
		out[c.ContactID] = s.Decision(c.ContactID)
	}
	return out
}

// Overrides builds the contact id to URL map from the confirmed
// candidates only.
func (s *BatchSession) Overrides() map[int64]string {
	out := make(map[int64]string)
	for id, d := range s.decisions {
		if d.Kind == DecisionConfirmed {
			out[id] = d.URL
		}
	}
	return out
}

// ConfirmedCount returns how many candidates are confirmed.
func (s *BatchSession) ConfirmedCount() int {
	return len(s.Overrides())
}

// CanSubmit reports whether there is anything to scrape.
func (s *BatchSession) CanSubmit() bool {
	return s.ConfirmedCount() > 0
}

// CanExit is always true: a session whose candidates were all removed must
// still be closable.
func (s *BatchSession) CanExit() bool {
	return true
}

// ResolveBatch submits a batch session: one ScrapeBatch call with the
// confirmed overrides, then a registry refresh. The request stays queued
// when nothing is confirmed.
func (o *Orchestrator) ResolveBatch(ctx context.Context, requestID uuid.UUID, session *BatchSession) (*BatchReport, error) {
	req, ok := o.queue.Get(requestID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConfirmationNotFound, requestID)
	}
	if req.Kind != KindBatch {
		return nil, fmt.Errorf("%w: request %s is %s", ErrWrongConfirmationKind, requestID, req.Kind)
	}
	if session == nil || session.Request().ID != requestID {
		return nil, fmt.Errorf("%w: session does not belong to request %s", ErrConfirmationNotFound, requestID)
	}
	if !session.CanSubmit() {
		return nil, ErrNothingConfirmed
	}
	if _, ok := o.queue.Remove(requestID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrConfirmationNotFound, requestID)
	}

	report := &BatchReport{RunID: req.RunID}
	logger := o.logger.With("run_id", req.RunID, "request_id", requestID)

	overrides := session.Overrides()
	for _, c := range req.Candidates {
		switch session.Decision(c.ContactID).Kind {
		case DecisionRemoved:
			report.Removed = append(report.Removed, c.ContactID)
		case DecisionSkipped:
			report.Skipped = append(report.Skipped, c.ContactID)
		}
	}

	ids := slices.Sorted(maps.Keys(overrides))
	for _, id := range ids {
		c, err := o.reg.Apply(id, models.EventScrapeAttempt, "")
		if err != nil {
			logger.Warn("confirmed contact cannot be scraped", "contact_id", id, "error", err)
			delete(overrides, id)
			report.Ignored = append(report.Ignored, id)
			continue
		}
		o.statusUpdated(c)
	}
	ids = slices.Sorted(maps.Keys(overrides))

	if len(ids) > 0 {
		logger.Info("submitting batch scrape", "upload_id", req.UploadID, "contacts", len(ids))
		report.Outcomes = o.scrapeBatch(ctx, req.UploadID, ids, overrides)
		o.refreshInto(ctx, report)
	}

	o.afterScrape(report)
	return report, nil
}

func (o *Orchestrator) scrapeBatch(ctx context.Context, uploadID int64, ids []int64, overrides map[int64]string) []models.ScrapeOutcome {
	taskCtx, done := o.tasks.Start(ctx, "scrape_batch", ids...)
	result, err := o.svc.ScrapeBatch(taskCtx, uploadID, len(ids), overrides)
	done()

	byID := make(map[int64]models.ScrapeOutcome, len(result.Results))
	if err != nil {
		o.logger.Warn("batch scrape failed", "upload_id", uploadID, "error", err)
		for _, id := range ids {
			byID[id] = models.ScrapeOutcome{ContactID: id, Message: scraper.UserMessage(err)}
		}
	} else {
		for _, out := range result.Results {
			if _, wanted := overrides[out.ContactID]; wanted {
				byID[out.ContactID] = out
			}
		}
	}

	outcomes := make([]models.ScrapeOutcome, 0, len(ids))
	for _, id := range ids {
		out, ok := byID[id]
		if !ok {
			// Left provisional; the refresh settles it.
			o.logger.Warn("batch scrape returned no result for contact", "contact_id", id)
			continue
		}
		o.applyOutcome(out)
		outcomes = append(outcomes, out)
	}
	return outcomes
}
