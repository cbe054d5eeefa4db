package tui

import (
	"fmt"
	"strings"

	"contact-scrape-go/pkg/cli/tui/scrapebrowser"
	"contact-scrape-go/pkg/orchestrator"
)

func (m *browserModel) renderTabs() string {
	tabs := make([]string, 0, len(browserFilters))
	for i, status := range browserFilters {
		label := "All"
		count := 0
		if status == "" {
			for _, n := range m.view.Counts {
				count += n
			}
		} else {
			label = status.Label()
			count = m.view.Counts[status]
		}
		text := fmt.Sprintf("%s %d", label, count)
		if i == m.filter {
			tabs = append(tabs, activeTabStyle.Render(text))
		} else {
			tabs = append(tabs, tabStyle.Render(text))
		}
	}
	return strings.Join(tabs, " ")
}

func (m *browserModel) renderList() string {
	maxWidth := m.getMaxWidth()

	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	if m.mode == scrapebrowser.ModeSearch || m.search.Value() != "" {
		b.WriteString(fieldLabelStyle.Render("Search:"))
		b.WriteString(" " + m.search.View() + "\n")
	}
	b.WriteString(renderDivider(maxWidth))
	b.WriteString("\n")

	if len(m.view.Contacts) == 0 {
		b.WriteString(renderEmptyState("No contacts match."))
	}
	for i, c := range m.view.Contacts {
		b.WriteString(renderContactRow(c, i == m.cursor, m.selection.Contains(c.ID), maxWidth))
	}

	b.WriteString(renderDivider(maxWidth))
	b.WriteString("\n")
	status := fmt.Sprintf("Page %d/%d • %d contact(s) • %d selected",
		m.view.Page, m.view.TotalPages, m.view.Total, m.selection.Len())
	if n := m.orch.Tasks().Len(); n > 0 {
		status += fmt.Sprintf(" • %d task(s) in flight", n)
	}
	if n := m.orch.Queue().Len(); n > 0 {
		status += fmt.Sprintf(" • %d confirmation(s) waiting", n)
	}
	b.WriteString(mutedStyle.Render(status) + "\n")

	b.WriteString(m.renderNotice())
	b.WriteString(helpStyle.Render("(Space select • a all • s scrape • r retry • / search • Tab filter • ? help)") + "\n")
	return b.String()
}

func (m *browserModel) renderNotice() string {
	var b strings.Builder
	if m.state.Busy() {
		b.WriteString(infoStyle.Render("⏳ "+m.state.Notice) + "\n")
	} else if m.state.Notice != "" {
		b.WriteString(m.state.Notice + "\n")
	}
	if m.state.Error != nil {
		b.WriteString(renderError(m.state.Error.Error()) + "\n")
	}
	return b.String()
}

func (m *browserModel) renderSingleConfirm() string {
	if m.request == nil || len(m.request.Candidates) == 0 {
		return ""
	}
	maxWidth := m.getMaxWidth()
	c := m.request.Candidates[0]

	var b strings.Builder
	b.WriteString(renderTitle("Confirm Website"))
	b.WriteString(renderDivider(maxWidth))
	b.WriteString("\n\n")
	b.WriteString(boldStyle.Render("A website was discovered for this contact:") + "\n\n")
	b.WriteString(renderCandidate(c))
	b.WriteString("\n")
	if n := m.orch.Queue().Len(); n > 1 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d more confirmation(s) waiting", n-1)) + "\n")
	}
	b.WriteString(m.renderNotice())
	b.WriteString(helpStyle.Render("(Enter/y confirm • e edit URL • n skip • d remove • Esc dismiss)") + "\n")
	return b.String()
}

func (m *browserModel) renderBatchConfirm() string {
	if m.session == nil {
		return ""
	}
	maxWidth := m.getMaxWidth()

	var b strings.Builder
	b.WriteString(renderTitle("Confirm Websites"))
	b.WriteString(renderDivider(maxWidth))
	b.WriteString("\n\n")

	visible := m.session.Visible()
	pos, total := m.session.Position()
	if total == 0 {
		b.WriteString(renderEmptyState("All candidates were removed. Press Esc to close."))
		return b.String()
	}

	b.WriteString(boldStyle.Render(fmt.Sprintf("Candidate %d of %d", pos, total)) + "\n\n")
	for i, c := range visible {
		marker := " "
		if i == pos-1 {
			marker = selectedMarkerStyle.Render("→")
		}
		box := "[ ]"
		d := m.session.Decision(c.ContactID)
		url := c.Domain()
		if d.Kind == orchestrator.DecisionConfirmed {
			box = successStyle.Render("[✓]")
			if d.URL != c.DiscoveredWebsite {
				url = d.URL + " " + mutedStyle.Render("(edited)")
			}
		}
		b.WriteString(fmt.Sprintf("%s %s %s  %s  %s\n",
			marker,
			box,
			contactNameStyle.Render(padRight(truncate(c.BusinessName, 28), 28)),
			websiteStyle.Render(url),
			renderConfidence(c.Confidence),
		))
	}

	if cur, ok := m.session.Current(); ok {
		b.WriteString("\n")
		b.WriteString(renderCandidate(cur))
	}
	b.WriteString("\n")

	submit := fmt.Sprintf("S submit %d", m.session.ConfirmedCount())
	if m.session.CanSubmit() {
		submit = boldStyle.Render(submit)
	} else {
		submit = mutedStyle.Render(submit + " (confirm at least one)")
	}
	b.WriteString(submit + "\n")
	b.WriteString(m.renderNotice())
	b.WriteString(helpStyle.Render("(←/→ move • Enter toggle • e edit URL • u unmark • d remove • Esc dismiss)") + "\n")
	return b.String()
}

func (m *browserModel) renderEditURL() string {
	var b strings.Builder
	b.WriteString(renderTitle("Edit Website URL"))
	b.WriteString(fieldLabelStyle.Render("URL:"))
	b.WriteString(" " + m.urlInput.View() + "\n\n")
	b.WriteString(m.renderNotice())
	b.WriteString(helpStyle.Render("(Enter confirm with this URL • Esc cancel)") + "\n")
	return b.String()
}
