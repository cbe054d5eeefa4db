package orchestrator

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"contact-scrape-go/pkg/models"
	"contact-scrape-go/pkg/registry"
	"contact-scrape-go/pkg/scraper"
	"contact-scrape-go/pkg/scraper/mock_scraper"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"
)

type fakeSource struct {
	mu       sync.Mutex
	contacts []models.Contact
	err      error
	calls    atomic.Int32
	onList   func()
}

func (f *fakeSource) ListContacts(ctx context.Context, q models.ContactQuery) ([]models.Contact, error) {
	f.calls.Add(1)
	if f.onList != nil {
		f.onList()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.contacts), f.err
}

func (f *fakeSource) set(contacts []models.Contact) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts = contacts
}

type statusRecorder struct {
	mu      sync.Mutex
	updates []models.Contact
}

func (r *statusRecorder) record(c models.Contact) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, c)
}

func (r *statusRecorder) last(id int64) (models.Contact, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.updates) - 1; i >= 0; i-- {
		if r.updates[i].ID == id {
			return r.updates[i], true
		}
	}
	return models.Contact{}, false
}

func newTestOrchestrator(t *testing.T, contacts []models.Contact) (*Orchestrator, *mock_scraper.MockService, *fakeSource, *statusRecorder) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mock_scraper.NewMockService(ctrl)
	src := &fakeSource{contacts: slices.Clone(contacts)}
	reg := registry.New(src)
	reg.Replace(contacts)

	rec := &statusRecorder{}
	o := New(svc, reg, Options{
		Concurrency: 5,
		Hooks:       Hooks{OnContactStatusUpdate: rec.record},
	})
	o.sleep = func(context.Context, time.Duration) error { return nil }
	return o, svc, src, rec
}

func withWebsite(id int64) models.Contact {
	return models.Contact{ID: id, UploadID: 5, Website: "site.test", Status: models.StatusReadyToScrape}
}

func needingDiscovery(id int64, name string) models.Contact {
	return models.Contact{ID: id, UploadID: 5, BusinessName: name, Status: models.StatusReadyToScrape}
}

func scraped(c models.Contact) models.Contact {
	c.Status = models.StatusScraped
	return c
}

func TestStartScrapeDirectBatch(t *testing.T) {
	contacts := []models.Contact{withWebsite(1), withWebsite(2), withWebsite(3)}
	o, svc, src, _ := newTestOrchestrator(t, contacts)

	var arrived sync.WaitGroup
	arrived.Add(3)
	allIn := make(chan struct{})
	go func() {
		arrived.Wait()
		close(allIn)
	}()

	var settled atomic.Int32
	svc.EXPECT().ScrapeOne(gomock.Any(), gomock.Any(), "").Times(3).
		DoAndReturn(func(ctx context.Context, id int64, _ string) (models.ScrapeOutcome, error) {
			arrived.Done()
			select {
			case <-allIn:
			case <-time.After(2 * time.Second):
				t.Errorf("scrape of %d did not run concurrently with the others", id)
			}
			settled.Add(1)
			return models.ScrapeOutcome{ContactID: id, Success: true}, nil
		})

	src.set([]models.Contact{scraped(contacts[0]), scraped(contacts[1]), scraped(contacts[2])})
	src.onList = func() {
		if got := settled.Load(); got != 3 {
			t.Errorf("refresh ran after %d of 3 scrapes settled", got)
		}
	}

	report, err := o.StartScrape(context.Background(), []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("StartScrape() error = %v", err)
	}
	if s := report.Summary(); s.Succeeded != 3 || s.Failed != 0 {
		t.Fatalf("summary = %+v", s)
	}
	if !report.Refreshed || report.RefreshErr != nil {
		t.Fatalf("refreshed = %v, err = %v", report.Refreshed, report.RefreshErr)
	}
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("refresh calls = %d, want 1", got)
	}
	for _, id := range []int64{1, 2, 3} {
		e, _ := o.Registry().Entry(id)
		if e.Contact.Status != models.StatusScraped || e.Provisional {
			t.Fatalf("contact %d = %+v", id, e)
		}
	}
}

func TestStartScrapeIsolatesFailures(t *testing.T) {
	contacts := []models.Contact{withWebsite(1), withWebsite(2), withWebsite(3)}
	o, svc, src, rec := newTestOrchestrator(t, contacts)
	src.err = errors.New("backend down")

	svc.EXPECT().ScrapeOne(gomock.Any(), gomock.Any(), "").Times(3).
		DoAndReturn(func(ctx context.Context, id int64, _ string) (models.ScrapeOutcome, error) {
			if id == 2 {
				return models.ScrapeOutcome{}, &scraper.ScraperError{Type: scraper.ErrorTypeNetwork, Message: "connection reset"}
			}
			return models.ScrapeOutcome{ContactID: id, Success: true}, nil
		})

	report, err := o.StartScrape(context.Background(), []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("StartScrape() error = %v", err)
	}
	if s := report.Summary(); s.Succeeded != 2 || s.Failed != 1 {
		t.Fatalf("summary = %+v", s)
	}
	if report.RefreshErr == nil {
		t.Fatalf("refresh error should be reported")
	}

	for _, id := range []int64{1, 3} {
		if c, _ := o.Registry().Get(id); c.Status != models.StatusScraped {
			t.Fatalf("contact %d status = %s", id, c.Status)
		}
	}
	failed, _ := o.Registry().Get(2)
	if failed.Status != models.StatusScrapeFailed || failed.ErrorMessage == "" {
		t.Fatalf("contact 2 = %+v", failed)
	}
	if c, ok := rec.last(2); !ok || c.Status != models.StatusScrapeFailed {
		t.Fatalf("status hook for contact 2 = %+v", c)
	}
}

func TestStartScrapeIgnoresUnselectable(t *testing.T) {
	contacts := []models.Contact{scraped(withWebsite(1)), {ID: 2, Website: "x.test", Status: models.StatusScraping}}
	o, _, src, _ := newTestOrchestrator(t, contacts)

	report, err := o.StartScrape(context.Background(), []int64{1, 2, 42})
	if err != nil {
		t.Fatalf("StartScrape() error = %v", err)
	}
	if !slices.Equal(report.Ignored, []int64{1, 2, 42}) {
		t.Fatalf("ignored = %v", report.Ignored)
	}
	if report.Refreshed || src.calls.Load() != 0 {
		t.Fatalf("refresh should not run when nothing was scraped")
	}

	if _, err := o.StartScrape(context.Background(), nil); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("StartScrape(nil) error = %v", err)
	}
}

func TestDiscoveryFailsOpen(t *testing.T) {
	tests := []struct {
		name   string
		result models.DiscoveryResult
		err    error
	}{
		{name: "adapter error", err: &scraper.ScraperError{Type: scraper.ErrorTypeTimeout, Message: "Request timed out"}},
		{name: "remote failure", err: &scraper.ScraperError{Type: scraper.ErrorTypeRemote, Message: "no results"}},
		{name: "unsuccessful result", result: models.DiscoveryResult{ContactID: 1, Success: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, svc, _, _ := newTestOrchestrator(t, []models.Contact{needingDiscovery(1, "Acme")})
			svc.EXPECT().DiscoverOne(gomock.Any(), int64(1)).Return(tt.result, tt.err)
			svc.EXPECT().ScrapeOne(gomock.Any(), int64(1), "").Return(models.ScrapeOutcome{ContactID: 1, Success: true}, nil)

			report, err := o.StartScrape(context.Background(), []int64{1})
			if err != nil {
				t.Fatalf("StartScrape() error = %v", err)
			}
			if !slices.Equal(report.FailOpen, []int64{1}) || len(report.Outcomes) != 1 {
				t.Fatalf("report = %+v", report)
			}
			if o.Queue().Len() != 0 {
				t.Fatalf("no confirmation should be queued")
			}
		})
	}
}

func TestSingleDiscoveryConfirm(t *testing.T) {
	contact := needingDiscovery(1, "Acme")
	o, svc, src, _ := newTestOrchestrator(t, []models.Contact{contact})

	svc.EXPECT().DiscoverOne(gomock.Any(), int64(1)).Return(models.DiscoveryResult{
		ContactID:         1,
		Success:           true,
		DiscoveredWebsite: "https://acme.test",
		Confidence:        models.ConfidenceHigh,
	}, nil)

	report, err := o.StartScrape(context.Background(), []int64{1})
	if err != nil {
		t.Fatalf("StartScrape() error = %v", err)
	}
	if !report.Suspended() || len(report.Outcomes) != 0 || report.Refreshed {
		t.Fatalf("report = %+v", report)
	}

	head, ok := o.Queue().Head()
	if !ok || head.ID != report.Pending[0] || head.Kind != KindSingle {
		t.Fatalf("head = %+v", head)
	}
	cand := head.Candidates[0]
	if cand.DiscoveredWebsite != "https://acme.test" || cand.Confidence != models.ConfidenceHigh || cand.BusinessName != "Acme" {
		t.Fatalf("candidate = %+v", cand)
	}
	if c, _ := o.Registry().Get(1); c.Status != models.StatusReadyToScrape {
		t.Fatalf("status changed before confirmation: %s", c.Status)
	}

	// A second pass must not queue a second dialog for the same contact.
	again, err := o.StartScrape(context.Background(), []int64{1})
	if err != nil {
		t.Fatalf("StartScrape() error = %v", err)
	}
	if !slices.Equal(again.Ignored, []int64{1}) || o.Queue().Len() != 1 {
		t.Fatalf("second pass = %+v, queue = %d", again, o.Queue().Len())
	}

	svc.EXPECT().ScrapeOne(gomock.Any(), int64(1), "https://acme.test").
		Return(models.ScrapeOutcome{ContactID: 1, Success: true}, nil).Times(1)
	src.set([]models.Contact{scraped(contact)})

	resolved, err := o.ResolveSingle(context.Background(), head.ID, Confirmed(""))
	if err != nil {
		t.Fatalf("ResolveSingle() error = %v", err)
	}
	if len(resolved.Outcomes) != 1 || !resolved.Refreshed || resolved.RunID != report.RunID {
		t.Fatalf("resolved = %+v", resolved)
	}
	if o.Queue().Len() != 0 {
		t.Fatalf("queue not drained")
	}
	if _, err := o.ResolveSingle(context.Background(), head.ID, Confirmed("")); !errors.Is(err, ErrConfirmationNotFound) {
		t.Fatalf("second ResolveSingle() error = %v", err)
	}
}

func TestSingleDiscoverySkipAndRemove(t *testing.T) {
	for _, d := range []Decision{Skipped(), Removed()} {
		t.Run(string(d.Kind), func(t *testing.T) {
			o, svc, src, _ := newTestOrchestrator(t, []models.Contact{needingDiscovery(1, "Acme")})
			svc.EXPECT().DiscoverOne(gomock.Any(), int64(1)).Return(models.DiscoveryResult{
				ContactID: 1, Success: true, DiscoveredWebsite: "acme.test", Confidence: models.ConfidenceLow,
			}, nil)

			report, err := o.StartScrape(context.Background(), []int64{1})
			if err != nil {
				t.Fatalf("StartScrape() error = %v", err)
			}
			resolved, err := o.ResolveSingle(context.Background(), report.Pending[0], d)
			if err != nil {
				t.Fatalf("ResolveSingle() error = %v", err)
			}
			if len(resolved.Outcomes) != 0 || resolved.Refreshed || src.calls.Load() != 0 {
				t.Fatalf("resolved = %+v", resolved)
			}
			if d.Kind == DecisionRemoved && !slices.Equal(resolved.Removed, []int64{1}) {
				t.Fatalf("removed = %v", resolved.Removed)
			}
			if d.Kind == DecisionSkipped && !slices.Equal(resolved.Skipped, []int64{1}) {
				t.Fatalf("skipped = %v", resolved.Skipped)
			}
		})
	}
}

func TestBatchDiscoveryFallback(t *testing.T) {
	contacts := []models.Contact{needingDiscovery(1, "Acme"), needingDiscovery(2, "Beta")}
	o, svc, _, _ := newTestOrchestrator(t, contacts)

	svc.EXPECT().DiscoverBatch(gomock.Any(), int64(5), 12).
		Return(models.BatchDiscoveryResult{}, &scraper.ScraperError{Type: scraper.ErrorTypeServiceUnavailable})
	svc.EXPECT().DiscoverOne(gomock.Any(), int64(1)).Return(models.DiscoveryResult{
		ContactID: 1, Success: true, DiscoveredWebsite: "acme.test", Confidence: models.ConfidenceMedium,
	}, nil)

	report, err := o.StartScrape(context.Background(), []int64{1, 2})
	if err != nil {
		t.Fatalf("StartScrape() error = %v", err)
	}
	if len(report.Pending) != 1 || !slices.Equal(report.Deferred, []int64{2}) {
		t.Fatalf("report = %+v", report)
	}
	if o.Queue().Len() != 1 {
		t.Fatalf("queue len = %d, want exactly one dialog", o.Queue().Len())
	}

	if _, err := o.ResolveSingle(context.Background(), report.Pending[0], Skipped()); err != nil {
		t.Fatalf("ResolveSingle() error = %v", err)
	}

	svc.EXPECT().DiscoverOne(gomock.Any(), int64(2)).Return(models.DiscoveryResult{
		ContactID: 2, Success: true, DiscoveredWebsite: "beta.test", Confidence: models.ConfidenceLow,
	}, nil)
	next, err := o.StartScrape(context.Background(), report.Deferred)
	if err != nil {
		t.Fatalf("StartScrape() error = %v", err)
	}
	if len(next.Pending) != 1 || o.Queue().Len() != 1 {
		t.Fatalf("next = %+v", next)
	}
}

func TestBatchDiscoveryEmptyFallsBack(t *testing.T) {
	contacts := []models.Contact{needingDiscovery(1, "Acme"), needingDiscovery(2, "Beta")}
	o, svc, _, _ := newTestOrchestrator(t, contacts)

	svc.EXPECT().DiscoverBatch(gomock.Any(), int64(5), 12).Return(models.BatchDiscoveryResult{
		Results: []models.DiscoveryResult{{ContactID: 1, Success: false}, {ContactID: 77, Success: true, DiscoveredWebsite: "x.test"}},
	}, nil)
	svc.EXPECT().DiscoverOne(gomock.Any(), int64(1)).Return(models.DiscoveryResult{ContactID: 1}, nil)
	svc.EXPECT().ScrapeOne(gomock.Any(), int64(1), "").Return(models.ScrapeOutcome{ContactID: 1, Success: true}, nil)
	svc.EXPECT().DiscoverOne(gomock.Any(), int64(2)).Return(models.DiscoveryResult{ContactID: 2}, nil)
	svc.EXPECT().ScrapeOne(gomock.Any(), int64(2), "").Return(models.ScrapeOutcome{ContactID: 2, Success: false, Message: "no site"}, nil)

	report, err := o.StartScrape(context.Background(), []int64{1, 2})
	if err != nil {
		t.Fatalf("StartScrape() error = %v", err)
	}
	if len(report.Outcomes) != 2 || !slices.Equal(report.FailOpen, []int64{1, 2}) || !report.Refreshed {
		t.Fatalf("report = %+v", report)
	}
}

func TestBatchConfirmation(t *testing.T) {
	contacts := []models.Contact{
		needingDiscovery(1, "Acme"),
		needingDiscovery(2, "Beta"),
		needingDiscovery(3, "Gamma"),
		needingDiscovery(4, "Delta"),
		withWebsite(5),
	}
	o, svc, src, _ := newTestOrchestrator(t, contacts)

	svc.EXPECT().ScrapeOne(gomock.Any(), int64(5), "").Return(models.ScrapeOutcome{ContactID: 5, Success: true}, nil)
	svc.EXPECT().DiscoverBatch(gomock.Any(), int64(5), 14).Return(models.BatchDiscoveryResult{
		Results: []models.DiscoveryResult{
			{ContactID: 1, Success: true, DiscoveredWebsite: "acme.test", Confidence: models.ConfidenceHigh},
			{ContactID: 9, Success: true, DiscoveredWebsite: "other.test"},
			{ContactID: 2, Success: true, DiscoveredWebsite: "beta.test", Confidence: models.ConfidenceMedium},
			{ContactID: 3, Success: true, DiscoveredWebsite: "gamma.test", Confidence: models.ConfidenceLow},
		},
	}, nil)

	report, err := o.StartScrape(context.Background(), []int64{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("StartScrape() error = %v", err)
	}
	if len(report.Pending) != 1 || !slices.Equal(report.Uncovered, []int64{4}) {
		t.Fatalf("report = %+v", report)
	}
	if len(report.Outcomes) != 1 || !report.Refreshed {
		t.Fatalf("direct scrape should settle and refresh: %+v", report)
	}
	if c, _ := o.Registry().Get(4); c.Status != models.StatusReadyToScrape {
		t.Fatalf("uncovered contact status = %s", c.Status)
	}

	head, _ := o.Queue().Head()
	if head.Kind != KindBatch || !slices.Equal(head.ContactIDs(), []int64{1, 2, 3}) {
		t.Fatalf("head = %+v", head)
	}

	session := NewBatchSession(head)
	if session.CanSubmit() {
		t.Fatalf("CanSubmit() with nothing confirmed")
	}
	if _, err := o.ResolveBatch(context.Background(), head.ID, session); !errors.Is(err, ErrNothingConfirmed) {
		t.Fatalf("ResolveBatch() error = %v", err)
	}
	if o.Queue().Len() != 1 {
		t.Fatalf("request dropped on empty submit")
	}

	if err := session.Confirm(1); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if err := session.ConfirmURL(2, "ftp://beta.example"); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("ConfirmURL(ftp) error = %v", err)
	}
	if err := session.ConfirmURL(2, "https://beta.example"); err != nil {
		t.Fatalf("ConfirmURL() error = %v", err)
	}
	if err := session.Confirm(3); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if err := session.Remove(3); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := session.Confirm(4); !errors.Is(err, ErrUnknownCandidate) {
		t.Fatalf("Confirm(4) error = %v", err)
	}

	want := map[int64]string{1: "acme.test", 2: "https://beta.example"}
	svc.EXPECT().ScrapeBatch(gomock.Any(), int64(5), 2, want).Return(models.ScrapeBatchOutcome{
		Results: []models.ScrapeOutcome{
			{ContactID: 1, Success: true},
			{ContactID: 2, Success: false, Message: "blocked"},
		},
	}, nil)
	src.set([]models.Contact{scraped(contacts[0]), contacts[1], contacts[2], contacts[3], scraped(contacts[4])})

	resolved, err := o.ResolveBatch(context.Background(), head.ID, session)
	if err != nil {
		t.Fatalf("ResolveBatch() error = %v", err)
	}
	if !slices.Equal(resolved.Removed, []int64{3}) || len(resolved.Skipped) != 0 {
		t.Fatalf("resolved = %+v", resolved)
	}
	if s := resolved.Summary(); s.Succeeded != 1 || s.Failed != 1 {
		t.Fatalf("summary = %+v", s)
	}
	if !resolved.Refreshed || o.Queue().Len() != 0 {
		t.Fatalf("resolved = %+v, queue = %d", resolved, o.Queue().Len())
	}
}

func TestBatchSessionRemovalOnlyCanExit(t *testing.T) {
	req := ConfirmationRequest{ID: uuid.New(), Kind: KindBatch, Candidates: []Candidate{
		{ContactID: 1, DiscoveredWebsite: "a.test"},
		{ContactID: 2, DiscoveredWebsite: "b.test"},
	}}
	s := NewBatchSession(req)

	if pos, total := s.Position(); pos != 1 || total != 2 {
		t.Fatalf("Position() = %d/%d", pos, total)
	}
	if !s.Next() || s.Next() {
		t.Fatalf("Next() should move once")
	}
	s.RemoveCurrent()
	if c, _ := s.Current(); c.ContactID != 1 {
		t.Fatalf("cursor did not clamp after removal: %+v", c)
	}
	s.RemoveCurrent()

	if !s.Empty() || s.CanSubmit() || !s.CanExit() {
		t.Fatalf("empty=%v canSubmit=%v canExit=%v", s.Empty(), s.CanSubmit(), s.CanExit())
	}
	if _, ok := s.Current(); ok {
		t.Fatalf("Current() on empty session")
	}
	if len(s.Overrides()) != 0 {
		t.Fatalf("Overrides() = %v", s.Overrides())
	}

	if err := s.Unmark(2); err != nil {
		t.Fatalf("Unmark() error = %v", err)
	}
	s.ToggleCurrent()
	if d := s.Decision(2); d.Kind != DecisionConfirmed || d.URL != "b.test" {
		t.Fatalf("Decision(2) = %+v", d)
	}
	s.ToggleCurrent()
	if s.Decision(2).Kind != DecisionSkipped {
		t.Fatalf("ToggleCurrent() did not unmark")
	}
}

func TestResolveWrongKind(t *testing.T) {
	o, _, _, _ := newTestOrchestrator(t, nil)
	single := o.Queue().Push(ConfirmationRequest{Kind: KindSingle, Candidates: []Candidate{{ContactID: 1}}})
	batch := o.Queue().Push(ConfirmationRequest{Kind: KindBatch, Candidates: []Candidate{{ContactID: 2}}})

	if _, err := o.ResolveBatch(context.Background(), single.ID, NewBatchSession(single)); !errors.Is(err, ErrWrongConfirmationKind) {
		t.Fatalf("ResolveBatch(single) error = %v", err)
	}
	if _, err := o.ResolveSingle(context.Background(), batch.ID, Skipped()); !errors.Is(err, ErrWrongConfirmationKind) {
		t.Fatalf("ResolveSingle(batch) error = %v", err)
	}
	if err := o.Dismiss(batch.ID); err != nil {
		t.Fatalf("Dismiss() error = %v", err)
	}
	if head, _ := o.Queue().Head(); head.ID != single.ID {
		t.Fatalf("head = %s", head.ID)
	}
}

func TestRetryResetsFailedContact(t *testing.T) {
	failed := models.Contact{ID: 1, Website: "a.test", Status: models.StatusScrapeFailed, ErrorMessage: "timeout"}
	o, svc, src, rec := newTestOrchestrator(t, []models.Contact{failed})

	var slept time.Duration
	o.opts.SettleDelay = 750 * time.Millisecond
	o.sleep = func(ctx context.Context, d time.Duration) error {
		slept = d
		if c, _ := o.Registry().Get(1); c.Status != models.StatusReadyToScrape {
			t.Errorf("status before refresh = %s, want ready_to_scrape", c.Status)
		}
		return nil
	}

	svc.EXPECT().ResetContact(gomock.Any(), int64(1)).Return(models.StatusReadyToScrape, nil)
	ready := failed
	ready.Status = models.StatusReadyToScrape
	ready.ErrorMessage = ""
	src.set([]models.Contact{ready})

	report, err := o.Retry(context.Background(), 1)
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if !report.Reset || !report.Refreshed || report.Status != models.StatusReadyToScrape {
		t.Fatalf("report = %+v", report)
	}
	if slept != 750*time.Millisecond {
		t.Fatalf("settle delay = %v", slept)
	}
	if c, ok := rec.last(1); !ok || c.Status != models.StatusReadyToScrape || c.ErrorMessage != "" {
		t.Fatalf("status hook = %+v", c)
	}
	e, _ := o.Registry().Entry(1)
	if e.Provisional || e.Contact.Status != models.StatusReadyToScrape {
		t.Fatalf("entry = %+v", e)
	}
}

func TestRetryServerWins(t *testing.T) {
	failed := models.Contact{ID: 1, Website: "a.test", Status: models.StatusScrapeFailed, ErrorMessage: "timeout"}
	o, svc, _, _ := newTestOrchestrator(t, []models.Contact{failed})

	svc.EXPECT().ResetContact(gomock.Any(), int64(1)).Return(models.StatusUnknown, nil)

	report, err := o.Retry(context.Background(), 1)
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	// The source still reports the contact as failed.
	if report.Status != models.StatusScrapeFailed {
		t.Fatalf("status = %s, want server value", report.Status)
	}
}

func TestRetryFailureStillRefreshes(t *testing.T) {
	failed := models.Contact{ID: 1, Website: "a.test", Status: models.StatusScrapeFailed, ErrorMessage: "timeout"}
	o, svc, src, _ := newTestOrchestrator(t, []models.Contact{failed})

	o.sleep = func(context.Context, time.Duration) error {
		t.Errorf("settle delay should be skipped when the reset fails")
		return nil
	}
	svc.EXPECT().ResetContact(gomock.Any(), int64(1)).
		Return(models.StatusUnknown, &scraper.ScraperError{Type: scraper.ErrorTypeRemote, Message: "contact locked"})

	report, err := o.Retry(context.Background(), 1)
	var scraperErr *scraper.ScraperError
	if !errors.As(err, &scraperErr) || scraperErr.UserMessage() != "contact locked" {
		t.Fatalf("Retry() error = %v", err)
	}
	if report == nil || report.Reset || !report.Refreshed || src.calls.Load() != 1 {
		t.Fatalf("report = %+v, refreshes = %d", report, src.calls.Load())
	}
	if c, _ := o.Registry().Get(1); c.Status != models.StatusScrapeFailed {
		t.Fatalf("status = %s", c.Status)
	}
}

func TestRetryRejectsReadyContact(t *testing.T) {
	o, _, _, _ := newTestOrchestrator(t, []models.Contact{withWebsite(1)})
	if _, err := o.Retry(context.Background(), 1); !errors.Is(err, ErrNotRetryable) {
		t.Fatalf("Retry() error = %v", err)
	}
	if _, err := o.Retry(context.Background(), 2); !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("Retry(unknown) error = %v", err)
	}
}

func TestAbortIsSeparateFromDismiss(t *testing.T) {
	o, svc, _, _ := newTestOrchestrator(t, []models.Contact{needingDiscovery(1, "Acme")})

	started := make(chan struct{})
	svc.EXPECT().DiscoverOne(gomock.Any(), int64(1)).
		DoAndReturn(func(ctx context.Context, id int64) (models.DiscoveryResult, error) {
			close(started)
			<-ctx.Done()
			return models.DiscoveryResult{}, &scraper.ScraperError{Type: scraper.ErrorTypeCancelled, Cause: ctx.Err()}
		})

	type result struct {
		report *BatchReport
		err    error
	}
	done := make(chan result, 1)
	go func() {
		report, err := o.StartScrape(context.Background(), []int64{1})
		done <- result{report, err}
	}()

	<-started
	if err := o.Dismiss(uuid.New()); !errors.Is(err, ErrConfirmationNotFound) {
		t.Fatalf("Dismiss() error = %v", err)
	}
	if o.Tasks().Len() != 1 {
		t.Fatalf("dismiss touched in-flight tasks")
	}
	if n := o.Abort(1); n != 1 {
		t.Fatalf("Abort() = %d, want 1", n)
	}

	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("StartScrape() error = %v", res.err)
		}
		if !slices.Equal(res.report.Aborted, []int64{1}) || len(res.report.Outcomes) != 0 {
			t.Fatalf("report = %+v", res.report)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("StartScrape did not return after Abort")
	}
	if o.Tasks().Len() != 0 {
		t.Fatalf("tasks left = %d", o.Tasks().Len())
	}
}

func TestCandidateDomain(t *testing.T) {
	cases := map[string]string{
		"https://www.shop.acme.co.uk/about": "acme.co.uk",
		"acme.test":                         "acme.test",
		"http://Blog.Example.com":           "example.com",
	}
	for in, want := range cases {
		c := Candidate{DiscoveredWebsite: in}
		if got := c.Domain(); got != want {
			t.Errorf("Domain(%q) = %q, want %q", in, got, want)
		}
	}
	if got := (Candidate{DiscoveredWebsite: "acme.test"}).VisitURL(); got != "https://acme.test" {
		t.Fatalf("VisitURL() = %q", got)
	}
}

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision("Confirm", "acme.test")
	if err != nil || d != Confirmed("acme.test") {
		t.Fatalf("ParseDecision(confirm) = %+v, %v", d, err)
	}
	if d, _ := ParseDecision("cancel", ""); d.Kind != DecisionSkipped {
		t.Fatalf("cancel = %+v", d)
	}
	if _, err := ParseDecision("maybe", ""); err == nil {
		t.Fatalf("ParseDecision(maybe) expected error")
	}
	if _, err := ParseDecision("confirmed", "not a url"); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("ParseDecision(bad url) error = %v", err)
	}
}

func TestResolveSingleIgnoresContactNoLongerScrapeable(t *testing.T) {
	contact := needingDiscovery(1, "Acme")
	o, svc, src, _ := newTestOrchestrator(t, []models.Contact{contact})

	svc.EXPECT().DiscoverOne(gomock.Any(), int64(1)).Return(models.DiscoveryResult{
		ContactID: 1, Success: true, DiscoveredWebsite: "acme.test", Confidence: models.ConfidenceHigh,
	}, nil)
	report, err := o.StartScrape(context.Background(), []int64{1})
	if err != nil || len(report.Pending) != 1 {
		t.Fatalf("StartScrape() = %+v, %v", report, err)
	}

	// Another client scraped it while the dialog was open.
	o.Registry().Replace([]models.Contact{scraped(contact)})
	calls := src.calls.Load()

	resolved, err := o.ResolveSingle(context.Background(), report.Pending[0], Confirmed(""))
	if err != nil {
		t.Fatalf("ResolveSingle() error = %v", err)
	}
	if !slices.Equal(resolved.Ignored, []int64{1}) || len(resolved.Outcomes) != 0 {
		t.Fatalf("resolved = %+v", resolved)
	}
	if s := resolved.Summary(); s.Total != 0 || s.Failed != 0 {
		t.Fatalf("summary = %+v", s)
	}
	if resolved.Refreshed || src.calls.Load() != calls {
		t.Fatalf("refreshed without a scrape: %+v", resolved)
	}
	if c, _ := o.Registry().Get(1); c.Status != models.StatusScraped {
		t.Fatalf("status = %s", c.Status)
	}
	if o.Queue().Len() != 0 {
		t.Fatalf("queue not drained")
	}
}

// startBatchConfirmation queues a batch confirmation for contacts 1-4 of
// upload 5 and returns a session with 1 and 2 confirmed, 3 removed and 4
// left skipped.
func startBatchConfirmation(t *testing.T) (*Orchestrator, *mock_scraper.MockService, *fakeSource, []models.Contact, *BatchSession) {
	t.Helper()
	contacts := []models.Contact{
		needingDiscovery(1, "Acme"),
		needingDiscovery(2, "Beta"),
		needingDiscovery(3, "Gamma"),
		needingDiscovery(4, "Delta"),
	}
	o, svc, src, _ := newTestOrchestrator(t, contacts)

	svc.EXPECT().DiscoverBatch(gomock.Any(), int64(5), gomock.Any()).Return(models.BatchDiscoveryResult{
		Results: []models.DiscoveryResult{
			{ContactID: 1, Success: true, DiscoveredWebsite: "acme.test"},
			{ContactID: 2, Success: true, DiscoveredWebsite: "beta.test"},
			{ContactID: 3, Success: true, DiscoveredWebsite: "gamma.test"},
			{ContactID: 4, Success: true, DiscoveredWebsite: "delta.test"},
		},
	}, nil)
	report, err := o.StartScrape(context.Background(), []int64{1, 2, 3, 4})
	if err != nil || len(report.Pending) != 1 {
		t.Fatalf("StartScrape() = %+v, %v", report, err)
	}

	head, _ := o.Queue().Head()
	session := NewBatchSession(head)
	for _, id := range []int64{1, 2} {
		if err := session.Confirm(id); err != nil {
			t.Fatalf("Confirm(%d) error = %v", id, err)
		}
	}
	if err := session.Remove(3); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	return o, svc, src, contacts, session
}

func TestBatchScrapeMissingResultStaysProvisional(t *testing.T) {
	o, svc, src, contacts, session := startBatchConfirmation(t)

	svc.EXPECT().ScrapeBatch(gomock.Any(), int64(5), 2, map[int64]string{1: "acme.test", 2: "beta.test"}).
		Return(models.ScrapeBatchOutcome{Results: []models.ScrapeOutcome{{ContactID: 1, Success: true}}}, nil)

	var beforeRefresh registry.Entry
	src.onList = func() { beforeRefresh, _ = o.Registry().Entry(2) }
	src.set([]models.Contact{scraped(contacts[0]), scraped(contacts[1]), contacts[2], contacts[3]})

	resolved, err := o.ResolveBatch(context.Background(), session.Request().ID, session)
	if err != nil {
		t.Fatalf("ResolveBatch() error = %v", err)
	}
	if len(resolved.Outcomes) != 1 || resolved.Outcomes[0].ContactID != 1 || !resolved.Refreshed {
		t.Fatalf("resolved = %+v", resolved)
	}
	if !beforeRefresh.Provisional || beforeRefresh.Contact.Status != models.StatusScraping {
		t.Fatalf("entry before refresh = %+v, want provisional scraping", beforeRefresh)
	}
	e, _ := o.Registry().Entry(2)
	if e.Provisional || e.Contact.Status != models.StatusScraped {
		t.Fatalf("entry after refresh = %+v, want server value", e)
	}
}

func TestBatchScrapeErrorFailsConfirmedContacts(t *testing.T) {
	o, svc, src, _, session := startBatchConfirmation(t)

	svc.EXPECT().ScrapeBatch(gomock.Any(), int64(5), 2, gomock.Any()).
		Return(models.ScrapeBatchOutcome{}, &scraper.ScraperError{Type: scraper.ErrorTypeServiceUnavailable})
	// Keep the local snapshot so the recorded failures stay visible.
	src.mu.Lock()
	src.err = errors.New("backend down")
	src.mu.Unlock()

	resolved, err := o.ResolveBatch(context.Background(), session.Request().ID, session)
	if err != nil {
		t.Fatalf("ResolveBatch() error = %v", err)
	}
	if s := resolved.Summary(); s.Total != 2 || s.Failed != 2 {
		t.Fatalf("summary = %+v", s)
	}
	if resolved.RefreshErr == nil {
		t.Fatalf("refresh error not reported")
	}
	for _, id := range []int64{1, 2} {
		c, _ := o.Registry().Get(id)
		if c.Status != models.StatusScrapeFailed || c.ErrorMessage == "" {
			t.Errorf("contact %d = %s %q, want scrape_failed with a message", id, c.Status, c.ErrorMessage)
		}
	}
	for _, id := range []int64{3, 4} {
		e, _ := o.Registry().Entry(id)
		if e.Provisional || e.Contact.Status != models.StatusReadyToScrape {
			t.Errorf("contact %d = %+v, want untouched", id, e)
		}
	}
	if !slices.Equal(resolved.Removed, []int64{3}) || !slices.Equal(resolved.Skipped, []int64{4}) {
		t.Fatalf("resolved = %+v", resolved)
	}
}

func TestNewSettleDelay(t *testing.T) {
	reg := registry.New(&fakeSource{})
	tests := []struct {
		in, want time.Duration
	}{
		{in: 0, want: DefaultSettleDelay},
		{in: -1, want: 0},
		{in: 2 * time.Second, want: 2 * time.Second},
	}
	for _, tt := range tests {
		o := New(nil, reg, Options{SettleDelay: tt.in})
		if o.opts.SettleDelay != tt.want {
			t.Errorf("New(SettleDelay=%v) = %v, want %v", tt.in, o.opts.SettleDelay, tt.want)
		}
	}
}

func TestRetryRefreshesWhenSettleCancelled(t *testing.T) {
	failed := models.Contact{ID: 1, Website: "a.test", Status: models.StatusScrapeFailed, ErrorMessage: "timeout"}
	o, svc, src, _ := newTestOrchestrator(t, []models.Contact{failed})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	svc.EXPECT().ResetContact(gomock.Any(), int64(1)).Return(models.StatusReadyToScrape, nil)
	ready := failed
	ready.Status = models.StatusReadyToScrape
	src.set([]models.Contact{ready})

	report, err := o.Retry(ctx, 1)
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if !report.Refreshed || report.RefreshErr != nil || src.calls.Load() != 1 {
		t.Fatalf("report = %+v, refreshes = %d", report, src.calls.Load())
	}
	e, _ := o.Registry().Entry(1)
	if e.Provisional || e.Contact.Status != models.StatusReadyToScrape {
		t.Fatalf("entry = %+v", e)
	}
}
