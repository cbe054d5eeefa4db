package tui

import (
	"errors"
	"fmt"
	"strings"

	"contact-scrape-go/pkg/models"
	"contact-scrape-go/pkg/orchestrator"
	"contact-scrape-go/pkg/scraper"
)

// renderEmptyState renders a muted message used in place of an empty list
func renderEmptyState(message string) string {
	return "\n" + mutedStyle.Render(message) + "\n"
}

// renderLoadingState renders a standard loading message
func renderLoadingState(message string) string {
	return "\n" + infoStyle.Render(message) + "\n"
}

// renderContactRow renders one line of the contact list
func renderContactRow(c models.Contact, cursor, checked bool, width int) string {
	marker := " "
	if cursor {
		marker = selectedMarkerStyle.Render("→")
	}

	box := "[ ]"
	switch {
	case checked:
		box = selectedStyle.Render("[x]")
	case !c.Status.Selectable():
		box = mutedStyle.Render(" - ")
	}

	nameStyle := contactNameStyle
	if cursor {
		nameStyle = selectedStyle
	}

	nameWidth := width / 3
	if nameWidth < 16 {
		nameWidth = 16
	}
	website := c.Website
	if strings.TrimSpace(website) == "" {
		website = "(no website)"
	}

	line := fmt.Sprintf("%s %s %s %s %s %s",
		marker,
		box,
		contactIDStyle.Render(fmt.Sprintf("#%-5d", c.ID)),
		nameStyle.Render(padRight(truncate(c.DisplayName(), nameWidth), nameWidth)),
		websiteStyle.Render(padRight(truncate(website, 28), 28)),
		renderStatus(c.Status),
	)
	if c.Status == models.StatusScrapeFailed && c.ErrorMessage != "" {
		line += "  " + mutedStyle.Render(truncate(c.ErrorMessage, 40))
	}
	return line + "\n"
}

// renderCandidate renders the details of a discovered website
func renderCandidate(c orchestrator.Candidate) string {
	var b strings.Builder
	b.WriteString(fieldLabelStyle.Render("Business:"))
	b.WriteString(fmt.Sprintf(" %s\n", contactNameStyle.Render(c.BusinessName)))
	b.WriteString(fieldLabelStyle.Render("Website:"))
	b.WriteString(fmt.Sprintf(" %s\n", c.DiscoveredWebsite))
	b.WriteString(fieldLabelStyle.Render("Domain:"))
	b.WriteString(fmt.Sprintf(" %s\n", c.Domain()))
	b.WriteString(fieldLabelStyle.Render("Visit:"))
	b.WriteString(fmt.Sprintf(" %s\n", websiteStyle.Render(c.VisitURL())))
	b.WriteString(fieldLabelStyle.Render("Confidence:"))
	b.WriteString(fmt.Sprintf(" %s\n", renderConfidence(c.Confidence)))
	if c.SearchQuery != "" {
		b.WriteString(fieldLabelStyle.Render("Search:"))
		b.WriteString(fmt.Sprintf(" %s\n", mutedStyle.Render(c.SearchQuery)))
	}
	return b.String()
}

// renderReport summarizes a batch report in a single line
func renderReport(r *orchestrator.BatchReport) string {
	if r == nil {
		return ""
	}
	var parts []string
	if s := r.Summary(); s.Total > 0 {
		parts = append(parts, fmt.Sprintf("%d scraped, %d failed", s.Succeeded, s.Failed))
	}
	if n := len(r.Pending); n > 0 {
		parts = append(parts, fmt.Sprintf("%d awaiting confirmation", n))
	}
	if n := len(r.Deferred); n > 0 {
		parts = append(parts, fmt.Sprintf("%d deferred", n))
	}
	if n := len(r.Uncovered); n > 0 {
		parts = append(parts, fmt.Sprintf("%d without a discovered website", n))
	}
	if n := len(r.Aborted); n > 0 {
		parts = append(parts, fmt.Sprintf("%d aborted", n))
	}
	if n := len(r.Ignored); n > 0 {
		parts = append(parts, fmt.Sprintf("%d ignored", n))
	}
	if len(parts) == 0 {
		return "Nothing to do."
	}
	return strings.Join(parts, " • ")
}

// truncate shortens s to at most maxLen runes
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

func padRight(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// handleListNavigation handles common navigation keys for list views (up/down/j/k)
// Returns the new selected index and whether navigation occurred
func handleListNavigation(key string, selected int, total int) (newSelected int, handled bool) {
	switch key {
	case "up", "k":
		if selected > 0 {
			return selected - 1, true
		}
		return selected, true
	case "down", "j":
		if selected < total-1 {
			return selected + 1, true
		}
		return selected, true
	}
	return selected, false
}

// userFacingError converts structured scraper errors into friendly messages,
// while leaving other error types unchanged.
func userFacingError(err error) error {
	if err == nil {
		return nil
	}

	var scraperErr *scraper.ScraperError
	if errors.As(err, &scraperErr) {
		return errors.New(scraperErr.UserMessage())
	}

	return err
}
