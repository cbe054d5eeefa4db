package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"contact-scrape-go/pkg/cli/tui/scrapebrowser"
	"contact-scrape-go/pkg/logger"
	"contact-scrape-go/pkg/models"
	"contact-scrape-go/pkg/orchestrator"
	"contact-scrape-go/pkg/registry"
	"contact-scrape-go/pkg/utils"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// browserFilters are the status tabs, in display order. The empty status
// shows every contact.
var browserFilters = []models.ScrapeStatus{
	"",
	models.StatusReadyToScrape,
	models.StatusScraping,
	models.StatusScraped,
	models.StatusScrapeFailed,
}

// browserModel lists the registry with filter tabs, search and pagination,
// keeps the operator's selection, and opens confirmation dialogs whenever
// the orchestrator's queue has a head.
type browserModel struct {
	orch      *orchestrator.Orchestrator
	selection *registry.Selection

	filter   int
	search   textinput.Model
	urlInput textinput.Model
	page     int
	pageSize int
	cursor   int
	view     registry.Page

	mode       int
	editReturn int
	request    *orchestrator.ConfirmationRequest
	session    *orchestrator.BatchSession
	resolving  map[uuid.UUID]bool

	state   scrapebrowser.ScrapeState
	ticking bool
	ready   bool
	width   int
}

// NewScrapeBrowser creates the interactive contact browser.
func NewScrapeBrowser(
	ctx context.Context,
	orch *orchestrator.Orchestrator,
	selection *registry.Selection,
	pageSize int,
) tea.Model {
	m := newBrowserModel(ctx, orch, selection, pageSize)
	return NewViewportWrapper(m, ViewportConfig{
		Title:       "Contact Scraping",
		ShowHeader:  true,
		ShowFooter:  true,
		UseViewport: true,
		EnableHelp:  true,
		HelpContent: m.helpContent,
		OnQuit: func() {
			if n := orch.AbortAll(); n > 0 {
				logger.L().Info("aborted in-flight tasks on quit", "tasks", n)
			}
		},
		MinWidth:  60,
		MinHeight: 10,
	})
}

func newBrowserModel(
	ctx context.Context,
	orch *orchestrator.Orchestrator,
	selection *registry.Selection,
	pageSize int,
) *browserModel {
	if pageSize <= 0 {
		pageSize = registry.DefaultPageSize
	}

	search := textinput.New()
	search.Placeholder = "name, website, email, state or zip"
	search.CharLimit = 64
	search.Width = 40

	urlInput := textinput.New()
	urlInput.Placeholder = "https://example.com"
	urlInput.CharLimit = 2048
	urlInput.Width = 60

	m := &browserModel{
		orch:      orch,
		selection: selection,
		search:    search,
		urlInput:  urlInput,
		page:      1,
		pageSize:  pageSize,
		mode:      scrapebrowser.ModeList,
		resolving: make(map[uuid.UUID]bool),
	}
	m.state.Ctx = ctx
	return m
}

func (m *browserModel) Init() tea.Cmd {
	if m.orch.Registry().RefreshedAt().IsZero() {
		return m.reload()
	}
	m.ready = true
	m.sync()
	m.openConfirmation()
	return nil
}

// CapturesKeys implements keyCapturer: dialogs and text inputs own q and Esc.
func (m *browserModel) CapturesKeys() bool {
	return m.mode != scrapebrowser.ModeList
}

// Editing implements textEditor.
func (m *browserModel) Editing() bool {
	return m.mode == scrapebrowser.ModeSearch || m.mode == scrapebrowser.ModeEditURL
}

func (m *browserModel) helpContent() string {
	switch m.mode {
	case scrapebrowser.ModeSingleConfirm:
		return SingleConfirmHelpContent() + "\n" + CommonHelpContent()
	case scrapebrowser.ModeBatchConfirm:
		return BatchConfirmHelpContent() + "\n" + CommonHelpContent()
	default:
		return BrowserHelpContent()
	}
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if m.width == 0 {
			m.width = scrapebrowser.DefaultWidth
		}
		return m, nil

	case scrapebrowser.ContactsLoadedMsg:
		m.ready = true
		m.state.End(msg.Err)
		if msg.Err == nil {
			m.state.Notice = fmt.Sprintf("Loaded %d contact(s).", m.orch.Registry().Len())
		}
		m.sync()
		m.openConfirmation()
		return m, nil

	case scrapebrowser.ScrapeDoneMsg:
		m.finishRun(msg.Report, msg.Err)
		return m, nil

	case scrapebrowser.ResolveDoneMsg:
		delete(m.resolving, msg.RequestID)
		m.finishRun(msg.Report, msg.Err)
		return m, nil

	case scrapebrowser.RetryDoneMsg:
		m.state.End(msg.Err)
		if msg.Report != nil {
			m.state.Notice = fmt.Sprintf("Contact #%d is now %s.", msg.Report.ContactID, msg.Report.Status.Label())
			if msg.Err == nil {
				m.state.Notice = renderSuccess(m.state.Notice)
			}
			if msg.Report.RefreshErr != nil && msg.Err == nil {
				m.state.Error = msg.Report.RefreshErr
			}
		}
		m.sync()
		return m, nil

	case scrapebrowser.TickMsg:
		m.sync()
		m.openConfirmation()
		if m.state.Busy() || m.orch.Tasks().Len() > 0 {
			return m, m.tick()
		}
		m.ticking = false
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case scrapebrowser.ModeSearch:
			return m.handleSearchKeys(msg)
		case scrapebrowser.ModeSingleConfirm:
			return m.handleSingleKeys(msg)
		case scrapebrowser.ModeBatchConfirm:
			return m.handleBatchKeys(msg)
		case scrapebrowser.ModeEditURL:
			return m.handleEditKeys(msg)
		default:
			return m.handleListKeys(msg)
		}
	}

	return m, nil
}

func (m *browserModel) finishRun(report *orchestrator.BatchReport, err error) {
	m.state.End(userFacingError(err))
	if report != nil {
		m.state.LastReport = report
		m.state.Notice = renderReport(report)
		switch {
		case report.Summary().Failed > 0 || len(report.Uncovered) > 0:
			m.state.Notice = renderWarning(m.state.Notice)
		case report.Summary().Succeeded > 0:
			m.state.Notice = renderSuccess(m.state.Notice)
		}
		if report.RefreshErr != nil && err == nil {
			m.state.Error = fmt.Errorf("refresh failed: %w", userFacingError(report.RefreshErr))
		}
	}
	m.sync()
	m.openConfirmation()
}

// sync re-reads the current page from the registry.
func (m *browserModel) sync() {
	m.view = m.orch.Registry().View(registry.Query{
		Status:   browserFilters[m.filter],
		Search:   m.search.Value(),
		Page:     m.page,
		PageSize: m.pageSize,
	})
	m.page = m.view.Page
	if m.cursor >= len(m.view.Contacts) {
		m.cursor = len(m.view.Contacts) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// openConfirmation shows the queue head when no dialog is open.
func (m *browserModel) openConfirmation() {
	if m.mode != scrapebrowser.ModeList {
		return
	}
	head, ok := m.orch.Queue().Head()
	if !ok || m.resolving[head.ID] {
		return
	}
	m.request = &head
	switch head.Kind {
	case orchestrator.KindBatch:
		m.session = orchestrator.NewBatchSession(head)
		m.mode = scrapebrowser.ModeBatchConfirm
	default:
		m.session = nil
		m.mode = scrapebrowser.ModeSingleConfirm
	}
}

func (m *browserModel) closeConfirmation() {
	m.request = nil
	m.session = nil
	m.mode = scrapebrowser.ModeList
}

func (m *browserModel) current() (models.Contact, bool) {
	if m.cursor < 0 || m.cursor >= len(m.view.Contacts) {
		return models.Contact{}, false
	}
	return m.view.Contacts[m.cursor], true
}

func (m *browserModel) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if cursor, handled := handleListNavigation(key, m.cursor, len(m.view.Contacts)); handled {
		m.cursor = cursor
		return m, nil
	}

	switch key {
	case "left", "h":
		if m.page > 1 {
			m.page--
			m.cursor = 0
			m.sync()
		}
	case "right", "l":
		if m.page < m.view.TotalPages {
			m.page++
			m.cursor = 0
			m.sync()
		}
	case "tab":
		m.setFilter((m.filter + 1) % len(browserFilters))
	case "shift+tab":
		m.setFilter((m.filter + len(browserFilters) - 1) % len(browserFilters))
	case "/":
		m.mode = scrapebrowser.ModeSearch
		return m, m.search.Focus()
	case " ":
		c, ok := m.current()
		if !ok {
			return m, nil
		}
		if !m.selection.Toggle(c.ID) && !c.Status.Selectable() {
			m.state.Notice = fmt.Sprintf("Contact #%d is %s and cannot be selected.", c.ID, c.Status.Label())
		}
	case "a":
		n := m.selection.SelectAll(m.matchingIDs())
		m.state.Notice = fmt.Sprintf("Selected %d more contact(s).", n)
	case "c":
		m.selection.ClearAll()
		m.state.Notice = "Selection cleared."
	case "s":
		ids := m.selection.IDs()
		if len(ids) == 0 {
			m.state.Notice = "Select contacts with Space first."
			return m, nil
		}
		m.selection.ClearAll()
		m.state.Begin(fmt.Sprintf("Scraping %d contact(s)...", len(ids)))
		return m, tea.Batch(m.startScrape(ids), m.ensureTick())
	case "r":
		c, ok := m.current()
		if !ok {
			return m, nil
		}
		if !c.Status.Resettable() {
			m.state.Notice = fmt.Sprintf("Contact #%d is %s; only scraped or failed contacts can be retried.", c.ID, c.Status.Label())
			return m, nil
		}
		m.state.Begin(fmt.Sprintf("Resetting contact #%d...", c.ID))
		return m, tea.Batch(m.retry(c.ID), m.ensureTick())
	case "o":
		if c, ok := m.current(); ok {
			if strings.TrimSpace(c.Website) == "" {
				m.state.Notice = fmt.Sprintf("Contact #%d has no website yet.", c.ID)
			} else {
				m.state.Notice = orchestrator.Candidate{DiscoveredWebsite: c.Website}.VisitURL()
			}
		}
	case "x":
		if c, ok := m.current(); ok {
			n := m.orch.Abort(c.ID)
			m.state.Notice = fmt.Sprintf("Aborted %d task(s) for contact #%d.", n, c.ID)
		}
	case "X":
		n := m.orch.AbortAll()
		m.state.Notice = fmt.Sprintf("Aborted %d task(s).", n)
	case "R":
		return m, m.reload()
	}
	return m, nil
}

func (m *browserModel) setFilter(i int) {
	m.filter = i
	m.page = 1
	m.cursor = 0
	m.sync()
}

// matchingIDs returns every contact id matching the filter and search,
// across all pages.
func (m *browserModel) matchingIDs() []int64 {
	all := m.orch.Registry().View(registry.Query{
		Status:   browserFilters[m.filter],
		Search:   m.search.Value(),
		Page:     1,
		PageSize: max(m.view.Total, 1),
	})
	ids := make([]int64, 0, len(all.Contacts))
	for _, c := range all.Contacts {
		ids = append(ids, c.ID)
	}
	return ids
}

func (m *browserModel) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.search.Blur()
		m.mode = scrapebrowser.ModeList
		return m, nil
	case "esc":
		m.search.SetValue("")
		m.search.Blur()
		m.mode = scrapebrowser.ModeList
		m.page = 1
		m.sync()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.page = 1
	m.cursor = 0
	m.sync()
	return m, cmd
}

func (m *browserModel) handleSingleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.request == nil || len(m.request.Candidates) == 0 {
		m.closeConfirmation()
		return m, nil
	}
	switch msg.String() {
	case "enter", "y":
		return m, m.resolveSingle(orchestrator.Confirmed(""))
	case "e":
		m.editReturn = scrapebrowser.ModeSingleConfirm
		m.urlInput.SetValue(m.request.Candidates[0].DiscoveredWebsite)
		m.mode = scrapebrowser.ModeEditURL
		return m, m.urlInput.Focus()
	case "n":
		return m, m.resolveSingle(orchestrator.Skipped())
	case "d":
		return m, m.resolveSingle(orchestrator.Removed())
	case "esc":
		m.dismiss()
	}
	return m, nil
}

func (m *browserModel) handleBatchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.session == nil {
		m.closeConfirmation()
		return m, nil
	}
	switch msg.String() {
	case "left", "h", "up", "k":
		m.session.Prev()
	case "right", "l", "down", "j":
		m.session.Next()
	case "enter", " ":
		m.session.ToggleCurrent()
	case "e":
		if c, ok := m.session.Current(); ok {
			url := c.DiscoveredWebsite
			if d := m.session.Decision(c.ContactID); d.Kind == orchestrator.DecisionConfirmed {
				url = d.URL
			}
			m.editReturn = scrapebrowser.ModeBatchConfirm
			m.urlInput.SetValue(url)
			m.mode = scrapebrowser.ModeEditURL
			return m, m.urlInput.Focus()
		}
	case "u":
		if c, ok := m.session.Current(); ok {
			_ = m.session.Unmark(c.ContactID)
		}
	case "d":
		m.session.RemoveCurrent()
	case "S":
		if !m.session.CanSubmit() {
			m.state.Notice = "Confirm at least one website before submitting."
			return m, nil
		}
		return m, m.resolveBatch()
	case "esc":
		m.dismiss()
	}
	return m, nil
}

func (m *browserModel) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		url, err := utils.ValidateURL(m.urlInput.Value())
		if err != nil {
			m.state.Notice = renderError(err.Error())
			return m, nil
		}
		m.urlInput.Blur()
		if m.editReturn == scrapebrowser.ModeSingleConfirm {
			m.mode = scrapebrowser.ModeSingleConfirm
			return m, m.resolveSingle(orchestrator.Confirmed(url))
		}
		m.mode = scrapebrowser.ModeBatchConfirm
		if c, ok := m.session.Current(); ok {
			if err := m.session.ConfirmURL(c.ContactID, url); err != nil {
				m.state.Notice = renderError(err.Error())
			}
		}
		return m, nil
	case "esc":
		m.urlInput.Blur()
		m.mode = m.editReturn
		return m, nil
	}
	var cmd tea.Cmd
	m.urlInput, cmd = m.urlInput.Update(msg)
	return m, cmd
}

func (m *browserModel) dismiss() {
	if m.request != nil {
		if err := m.orch.Dismiss(m.request.ID); err != nil {
			m.state.Error = err
		} else {
			m.state.Notice = "Confirmation dismissed; nothing was scraped."
		}
	}
	m.closeConfirmation()
	m.openConfirmation()
}

func (m *browserModel) resolveSingle(d orchestrator.Decision) tea.Cmd {
	req := *m.request
	m.resolving[req.ID] = true
	m.closeConfirmation()
	m.state.Begin(fmt.Sprintf("Resolving %s...", req.Candidates[0].BusinessName))
	ctx := m.state.Ctx
	return tea.Batch(func() tea.Msg {
		report, err := m.orch.ResolveSingle(ctx, req.ID, d)
		return scrapebrowser.ResolveDoneMsg{RequestID: req.ID, Report: report, Err: err}
	}, m.ensureTick())
}

func (m *browserModel) resolveBatch() tea.Cmd {
	req := *m.request
	session := m.session
	m.resolving[req.ID] = true
	m.closeConfirmation()
	m.state.Begin(fmt.Sprintf("Scraping %d confirmed website(s)...", session.ConfirmedCount()))
	ctx := m.state.Ctx
	return tea.Batch(func() tea.Msg {
		report, err := m.orch.ResolveBatch(ctx, req.ID, session)
		return scrapebrowser.ResolveDoneMsg{RequestID: req.ID, Report: report, Err: err}
	}, m.ensureTick())
}

func (m *browserModel) startScrape(ids []int64) tea.Cmd {
	ctx := m.state.Ctx
	return func() tea.Msg {
		report, err := m.orch.StartScrape(ctx, ids)
		return scrapebrowser.ScrapeDoneMsg{Report: report, Err: err}
	}
}

func (m *browserModel) retry(id int64) tea.Cmd {
	ctx := m.state.Ctx
	return func() tea.Msg {
		report, err := m.orch.Retry(ctx, id)
		return scrapebrowser.RetryDoneMsg{Report: report, Err: userFacingError(err)}
	}
}

func (m *browserModel) reload() tea.Cmd {
	m.state.Begin("Loading contacts...")
	ctx := m.state.Ctx
	return func() tea.Msg {
		return scrapebrowser.ContactsLoadedMsg{Err: userFacingError(m.orch.Refresh(ctx))}
	}
}

// ensureTick starts the re-render loop unless one is already running.
func (m *browserModel) ensureTick() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return m.tick()
}

func (m *browserModel) tick() tea.Cmd {
	return tea.Tick(scrapebrowser.TickInterval*time.Millisecond, func(time.Time) tea.Msg {
		return scrapebrowser.TickMsg{}
	})
}

func (m *browserModel) View() string {
	if !m.ready {
		return renderLoadingState("Loading contacts...")
	}

	switch m.mode {
	case scrapebrowser.ModeSingleConfirm:
		return m.renderSingleConfirm()
	case scrapebrowser.ModeBatchConfirm:
		return m.renderBatchConfirm()
	case scrapebrowser.ModeEditURL:
		return m.renderEditURL()
	default:
		return m.renderList()
	}
}

// getMaxWidth returns the maximum width for rendering, using DefaultWidth as fallback
func (m *browserModel) getMaxWidth() int {
	if m.width > 0 {
		return m.width
	}
	return scrapebrowser.DefaultWidth
}
