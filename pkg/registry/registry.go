// Package registry holds the client-side view of contacts and their scrape
// status. Local updates are provisional until an authoritative refresh
// replaces them; on disagreement the server value wins.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"contact-scrape-go/pkg/models"

	"golang.org/x/sync/singleflight"
)

var (
	ErrContactNotFound = errors.New("contact not found")
	ErrNoSource        = errors.New("registry has no contact source")
)

// Source supplies the authoritative contact list.
type Source interface {
	ListContacts(ctx context.Context, q models.ContactQuery) ([]models.Contact, error)
}

// Entry is a registry record plus its reconciliation state.
type Entry struct {
	Contact     models.Contact
	Provisional bool
	UpdatedAt   time.Time
}

// Override records a provisional status that a refresh replaced.
type Override struct {
	ContactID int64
	Local     models.ScrapeStatus
	Server    models.ScrapeStatus
}

// Registry is safe for concurrent use. Records are only ever replaced
// whole, never mutated in place.
type Registry struct {
	mu          sync.RWMutex
	source      Source
	query       models.ContactQuery
	order       []int64
	entries     map[int64]Entry
	refreshedAt time.Time

	refreshes singleflight.Group
	now       func() time.Time
}

// New creates an empty registry backed by source. source may be nil for a
// registry that is only ever filled through Replace.
func New(source Source) *Registry {
	return &Registry{
		source:  source,
		entries: make(map[int64]Entry),
		now:     time.Now,
	}
}

// SetQuery changes what the next Refresh fetches.
func (r *Registry) SetQuery(q models.ContactQuery) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.query = q
}

// Query returns the current source query.
func (r *Registry) Query() models.ContactQuery {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.query
}

// Refresh reloads the registry from its source. Concurrent calls share a
// single fetch.
func (r *Registry) Refresh(ctx context.Context) ([]Override, error) {
	if r.source == nil {
		return nil, ErrNoSource
	}
	v, err, _ := r.refreshes.Do("refresh", func() (any, error) {
		contacts, err := r.source.ListContacts(ctx, r.Query())
		if err != nil {
			return nil, fmt.Errorf("failed to list contacts: %w", err)
		}
		return r.Replace(contacts), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Override), nil
}

// Replace installs an authoritative snapshot. Every record in the snapshot
// is non-provisional afterwards. It returns the provisional statuses the
// snapshot disagreed with.
func (r *Registry) Replace(contacts []models.Contact) []Override {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var overrides []Override
	order := make([]int64, 0, len(contacts))
	entries := make(map[int64]Entry, len(contacts))
	for _, c := range contacts {
		if _, dup := entries[c.ID]; dup {
			continue
		}
		c.Status = models.ClassifyStatus(string(c.Status))
		if c.Status != models.StatusScrapeFailed {
			c.ErrorMessage = ""
		}
		if prev, ok := r.entries[c.ID]; ok && prev.Provisional && prev.Contact.Status != c.Status {
			overrides = append(overrides, Override{
				ContactID: c.ID,
				Local:     prev.Contact.Status,
				Server:    c.Status,
			})
		}
		order = append(order, c.ID)
		entries[c.ID] = Entry{Contact: c, UpdatedAt: now}
	}
	r.order = order
	r.entries = entries
	r.refreshedAt = now
	return overrides
}

// RefreshedAt returns when the last authoritative snapshot was installed.
func (r *Registry) RefreshedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.refreshedAt
}

// Get returns the contact with id.
func (r *Registry) Get(id int64) (models.Contact, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e.Contact, ok
}

// Entry returns the record with id including its provisional flag.
func (r *Registry) Entry(id int64) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// Contacts returns a copy of all contacts in snapshot order.
func (r *Registry) Contacts() []models.Contact {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Contact, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].Contact)
	}
	return out
}

// Len returns the number of contacts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Apply moves a contact through the scrape state machine and marks the
// record provisional. message becomes the error message on
// EventScrapeFailed and is cleared otherwise.
func (r *Registry) Apply(id int64, event models.StatusEvent, message string) (models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return models.Contact{}, fmt.Errorf("%w: id=%d", ErrContactNotFound, id)
	}
	next, err := models.NextStatus(e.Contact.Status, event)
	if err != nil {
		return e.Contact, fmt.Errorf("contact %d: %w", id, err)
	}

	c := e.Contact
	c.Status = next
	c.ErrorMessage = ""
	if next == models.StatusScrapeFailed {
		c.ErrorMessage = message
	}
	r.entries[id] = Entry{Contact: c, Provisional: true, UpdatedAt: r.now()}
	return c, nil
}

// SetStatus provisionally sets a contact's status without consulting the
// state machine. Used for server-reported statuses such as the result of a
// reset.
func (r *Registry) SetStatus(id int64, status models.ScrapeStatus) (models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return models.Contact{}, fmt.Errorf("%w: id=%d", ErrContactNotFound, id)
	}
	c := e.Contact
	c.Status = models.ClassifyStatus(string(status))
	if c.Status != models.StatusScrapeFailed {
		c.ErrorMessage = ""
	}
	r.entries[id] = Entry{Contact: c, Provisional: true, UpdatedAt: r.now()}
	return c, nil
}
