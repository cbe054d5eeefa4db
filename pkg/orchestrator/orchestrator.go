// Package orchestrator drives contact scrapes: the per-contact pipeline,
// batch fan-out, the discovery confirmation protocol and retry/reset.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"contact-scrape-go/pkg/models"
	"contact-scrape-go/pkg/registry"
	"contact-scrape-go/pkg/scraper"

	"github.com/google/uuid"
)

const (
	DefaultConcurrency     = 5
	DefaultSettleDelay     = 500 * time.Millisecond
	DefaultBatchLimitSlack = 10
)

var (
	ErrContactNotFound       = registry.ErrContactNotFound
	ErrNotRetryable          = errors.New("contact is not in a retryable state")
	ErrNotScrapeable         = errors.New("contact is not in a scrapeable state")
	ErrEmptySelection        = errors.New("no contacts selected")
	ErrConfirmationNotFound  = errors.New("confirmation request not found")
	ErrWrongConfirmationKind = errors.New("wrong confirmation kind")
	ErrNothingConfirmed      = errors.New("no candidates confirmed")
	ErrUnknownCandidate      = errors.New("contact is not a candidate of this request")
	ErrInvalidURL            = errors.New("invalid website override")
)

// Hooks let the host react to orchestration events. They may be called
// from several goroutines at once.
type Hooks struct {
	OnAfterScrape         func(*BatchReport)
	OnFilterChange        func(models.ContactQuery)
	OnContactStatusUpdate func(models.Contact)
}

// Options configures an Orchestrator. Zero values take the defaults above;
// a negative SettleDelay disables the wait after a reset.
type Options struct {
	Concurrency     int
	SettleDelay     time.Duration
	BatchLimitSlack int
	Logger          *slog.Logger
	Hooks           Hooks
}

// Orchestrator owns the confirmation queue and the task tracker and is the
// only writer of scrape status into the registry.
type Orchestrator struct {
	svc    scraper.Service
	reg    *registry.Registry
	queue  *ConfirmationQueue
	tasks  *TaskTracker
	opts   Options
	logger *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an orchestrator over svc and reg.
func New(svc scraper.Service, reg *registry.Registry, opts Options) *Orchestrator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	switch {
	case opts.SettleDelay == 0:
		opts.SettleDelay = DefaultSettleDelay
	case opts.SettleDelay < 0:
		opts.SettleDelay = 0
	}
	if opts.BatchLimitSlack <= 0 {
		opts.BatchLimitSlack = DefaultBatchLimitSlack
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		svc:    svc,
		reg:    reg,
		queue:  NewConfirmationQueue(),
		tasks:  NewTaskTracker(),
		opts:   opts,
		logger: logger,
		sleep:  sleepContext,
	}
}

// Registry returns the registry the orchestrator writes to.
func (o *Orchestrator) Registry() *registry.Registry { return o.reg }

// Queue returns the pending confirmation requests.
func (o *Orchestrator) Queue() *ConfirmationQueue { return o.queue }

// Tasks returns the in-flight task tracker.
func (o *Orchestrator) Tasks() *TaskTracker { return o.tasks }

// Abort cancels in-flight adapter calls for contactID. Pending
// confirmations are left alone.
func (o *Orchestrator) Abort(contactID int64) int {
	n := o.tasks.Abort(contactID)
	o.logger.Info("aborted in-flight tasks", "contact_id", contactID, "tasks", n)
	return n
}

// AbortAll cancels every in-flight adapter call.
func (o *Orchestrator) AbortAll() int {
	n := o.tasks.AbortAll()
	o.logger.Info("aborted all in-flight tasks", "tasks", n)
	return n
}

// ChangeFilter narrows the registry source and reloads it.
func (o *Orchestrator) ChangeFilter(ctx context.Context, q models.ContactQuery) error {
	o.reg.SetQuery(q)
	if o.opts.Hooks.OnFilterChange != nil {
		o.opts.Hooks.OnFilterChange(q)
	}
	return o.Refresh(ctx)
}

// Refresh reloads the registry from its source and logs any provisional
// statuses the server overrode.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	overrides, err := o.reg.Refresh(ctx)
	if err != nil {
		o.logger.Warn("registry refresh failed", "error", err)
		return err
	}
	for _, ov := range overrides {
		o.logger.Debug("server status replaced provisional status",
			"contact_id", ov.ContactID,
			"local", ov.Local,
			"server", ov.Server)
	}
	return nil
}

func (o *Orchestrator) refreshInto(ctx context.Context, report *BatchReport) {
	report.Refreshed = true
	report.RefreshErr = o.Refresh(ctx)
}

func (o *Orchestrator) afterScrape(report *BatchReport) {
	if o.opts.Hooks.OnAfterScrape != nil {
		o.opts.Hooks.OnAfterScrape(report)
	}
}

func (o *Orchestrator) statusUpdated(c models.Contact) {
	if o.opts.Hooks.OnContactStatusUpdate != nil {
		o.opts.Hooks.OnContactStatusUpdate(c)
	}
}

// BatchReport summarizes one scrape pass or one confirmation resolution.
type BatchReport struct {
	RunID      uuid.UUID              `json:"runId"`
	Outcomes   []models.ScrapeOutcome `json:"outcomes"`
	Pending    []uuid.UUID            `json:"pending,omitempty"`
	Deferred   []int64                `json:"deferred,omitempty"`
	Uncovered  []int64                `json:"uncovered,omitempty"`
	FailOpen   []int64                `json:"failOpen,omitempty"`
	Skipped    []int64                `json:"skipped,omitempty"`
	Removed    []int64                `json:"removed,omitempty"`
	Ignored    []int64                `json:"ignored,omitempty"`
	Aborted    []int64                `json:"aborted,omitempty"`
	Refreshed  bool                   `json:"refreshed"`
	RefreshErr error                  `json:"-"`
}

// Summary counts the scrape outcomes of the pass.
func (r *BatchReport) Summary() models.ScrapeSummary {
	return models.Summarize(r.Outcomes)
}

// Suspended reports whether part of the pass waits on a confirmation.
func (r *BatchReport) Suspended() bool {
	return len(r.Pending) > 0
}

func (r *BatchReport) addPipeline(res PipelineResult) {
	switch {
	case res.Outcome != nil:
		r.Outcomes = append(r.Outcomes, *res.Outcome)
	case res.Suspended():
		r.Pending = append(r.Pending, res.Pending)
	case res.Aborted:
		r.Aborted = append(r.Aborted, res.ContactID)
	case res.Ignored:
		r.Ignored = append(r.Ignored, res.ContactID)
	}
	if res.FailOpen {
		r.FailOpen = append(r.FailOpen, res.ContactID)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
