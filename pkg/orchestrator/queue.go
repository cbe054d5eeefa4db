package orchestrator

import (
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"contact-scrape-go/pkg/models"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
)

// ConfirmationKind distinguishes the two confirmation dialogs.
type ConfirmationKind string

const (
	KindSingle ConfirmationKind = "single"
	KindBatch  ConfirmationKind = "batch"
)

// Candidate is one discovered website awaiting an operator decision.
type Candidate struct {
	ContactID         int64             `json:"contactId"`
	BusinessName      string            `json:"businessName"`
	DiscoveredWebsite string            `json:"discoveredWebsite"`
	Confidence        models.Confidence `json:"confidence"`
	SearchQuery       string            `json:"searchQuery,omitempty"`
}

func newCandidate(r models.DiscoveryResult, c models.Contact) Candidate {
	name := r.BusinessName
	if name == "" {
		name = c.DisplayName()
	}
	return Candidate{
		ContactID:         r.ContactID,
		BusinessName:      name,
		DiscoveredWebsite: strings.TrimSpace(r.DiscoveredWebsite),
		Confidence:        r.Confidence,
		SearchQuery:       r.SearchQuery,
	}
}

// VisitURL returns an absolute URL the operator can open to inspect the
// candidate. Visiting changes no state.
func (c Candidate) VisitURL() string {
	u := strings.TrimSpace(c.DiscoveredWebsite)
	if u == "" {
		return ""
	}
	if !strings.Contains(u, "://") {
		u = "https://" + u
	}
	return u
}

// Domain returns the registrable domain of the candidate for display.
func (c Candidate) Domain() string {
	parsed, err := url.Parse(c.VisitURL())
	if err != nil || parsed.Hostname() == "" {
		return c.DiscoveredWebsite
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	if domain, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return domain
	}
	return host
}

// ConfirmationRequest is a suspended pipeline waiting for a human.
type ConfirmationRequest struct {
	ID         uuid.UUID        `json:"id"`
	Kind       ConfirmationKind `json:"kind"`
	RunID      uuid.UUID        `json:"runId"`
	UploadID   int64            `json:"uploadId"`
	Candidates []Candidate      `json:"candidates"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// ContactIDs returns the contacts the request covers.
func (r ConfirmationRequest) ContactIDs() []int64 {
	ids := make([]int64, 0, len(r.Candidates))
	for _, c := range r.Candidates {
		ids = append(ids, c.ContactID)
	}
	return ids
}

// Candidate returns the candidate for contactID.
func (r ConfirmationRequest) Candidate(contactID int64) (Candidate, bool) {
	for _, c := range r.Candidates {
		if c.ContactID == contactID {
			return c, true
		}
	}
	return Candidate{}, false
}

// ConfirmationQueue is the FIFO of pending confirmation requests. UIs
// render only the head, so at most one dialog is ever shown.
type ConfirmationQueue struct {
	mu    sync.Mutex
	items []ConfirmationRequest
}

// NewConfirmationQueue creates an empty queue.
func NewConfirmationQueue() *ConfirmationQueue {
	return &ConfirmationQueue{}
}

// Push appends req, assigning an id and timestamp when missing.
func (q *ConfirmationQueue) Push(req ConfirmationRequest) ConfirmationRequest {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, req)
	return req
}

// Head returns the request the UI should show.
func (q *ConfirmationQueue) Head() (ConfirmationRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return ConfirmationRequest{}, false
	}
	return q.items[0], true
}

// Get returns the request with id.
func (q *ConfirmationQueue) Get(id uuid.UUID) (ConfirmationRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := q.index(id)
	if i < 0 {
		return ConfirmationRequest{}, false
	}
	return q.items[i], true
}

// Remove takes the request with id out of the queue.
func (q *ConfirmationQueue) Remove(id uuid.UUID) (ConfirmationRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := q.index(id)
	if i < 0 {
		return ConfirmationRequest{}, false
	}
	req := q.items[i]
	q.items = slices.Delete(q.items, i, i+1)
	return req, true
}

// HasContact reports whether any pending request covers contactID.
func (q *ConfirmationQueue) HasContact(contactID int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, req := range q.items {
		if _, ok := req.Candidate(contactID); ok {
			return true
		}
	}
	return false
}

// Pending returns a snapshot of the queue, head first.
func (q *ConfirmationQueue) Pending() []ConfirmationRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.items)
}

// Len returns the number of pending requests.
func (q *ConfirmationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *ConfirmationQueue) index(id uuid.UUID) int {
	return slices.IndexFunc(q.items, func(r ConfirmationRequest) bool { return r.ID == id })
}
