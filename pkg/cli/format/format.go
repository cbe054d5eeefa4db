// Package format renders contacts and scrape results as plain text for the
// non-interactive CLI commands.
package format

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"contact-scrape-go/pkg/models"
	"contact-scrape-go/pkg/orchestrator"
	"contact-scrape-go/pkg/registry"
)

// ContactTable formats one registry page as a table for CLI output
func ContactTable(page registry.Page) string {
	if len(page.Contacts) == 0 {
		return EmptyState("No contacts found.")
	}

	var b strings.Builder
	b.WriteString("\n")

	w := tabwriter.NewWriter(&b, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tBusiness\tWebsite\tStatus\tError")
	fmt.Fprintln(w, strings.Repeat("─", 6)+"\t"+strings.Repeat("─", 30)+"\t"+strings.Repeat("─", 36)+"\t"+strings.Repeat("─", 8)+"\t"+strings.Repeat("─", 20))

	for _, c := range page.Contacts {
		website := c.Website
		if strings.TrimSpace(website) == "" {
			website = "(none)"
		}
		errMsg := ""
		if c.Status == models.StatusScrapeFailed {
			errMsg = Truncate(c.ErrorMessage, 40)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			c.ID,
			Truncate(c.DisplayName(), 30),
			Truncate(website, 36),
			c.Status.Label(),
			errMsg,
		)
	}

	w.Flush()
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Total: %d contact(s) • page %d of %d\n", page.Total, page.Page, page.TotalPages))
	b.WriteString(Counts(page.Counts))

	return b.String()
}

// Counts formats per-status totals on one line
func Counts(counts map[models.ScrapeStatus]int) string {
	parts := make([]string, 0, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		if n := counts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", s.Label(), n))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " • ") + "\n"
}

// Report formats everything a scrape run or confirmation produced
func Report(r *orchestrator.BatchReport) string {
	if r == nil {
		return ""
	}
	var b strings.Builder

	outcomes := slices.Clone(r.Outcomes)
	slices.SortFunc(outcomes, func(x, y models.ScrapeOutcome) int {
		return cmp.Compare(x.ContactID, y.ContactID)
	})
	for _, o := range outcomes {
		if o.Success {
			b.WriteString(fmt.Sprintf("  ✓ #%d scraped\n", o.ContactID))
			continue
		}
		msg := o.Message
		if msg == "" {
			msg = "scrape failed"
		}
		b.WriteString(fmt.Sprintf("  ✗ #%d %s\n", o.ContactID, msg))
	}

	writeIDs(&b, "Website discovery found nothing for", r.Uncovered)
	writeIDs(&b, "Discovery failed; scraped without a URL:", r.FailOpen)
	writeIDs(&b, "Skipped", r.Skipped)
	writeIDs(&b, "Removed", r.Removed)
	writeIDs(&b, "Ignored (not scrapeable or already pending)", r.Ignored)
	writeIDs(&b, "Aborted", r.Aborted)
	writeIDs(&b, "Deferred until the pending confirmation is resolved:", r.Deferred)

	if s := r.Summary(); s.Total > 0 {
		b.WriteString(fmt.Sprintf("\nScraped %d of %d (%d failed)\n", s.Succeeded, s.Total, s.Failed))
	}
	if r.RefreshErr != nil {
		b.WriteString(fmt.Sprintf("⚠️  Contacts could not be reloaded: %v\n", r.RefreshErr))
	}
	return b.String()
}

func writeIDs(b *strings.Builder, label string, ids []int64) {
	if len(ids) == 0 {
		return
	}
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = fmt.Sprintf("#%d", id)
	}
	b.WriteString(fmt.Sprintf("  %s %s\n", label, strings.Join(s, ", ")))
}

// Candidate formats a discovered website for a confirmation prompt
func Candidate(c orchestrator.Candidate) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  Business:   %s\n", c.BusinessName))
	b.WriteString(fmt.Sprintf("  Website:    %s (%s)\n", c.DiscoveredWebsite, c.Domain()))
	b.WriteString(fmt.Sprintf("  Visit:      %s\n", c.VisitURL()))
	b.WriteString(fmt.Sprintf("  Confidence: %s\n", c.Confidence))
	if c.SearchQuery != "" {
		b.WriteString(fmt.Sprintf("  Search:     %s\n", c.SearchQuery))
	}
	return b.String()
}

// ErrorMessage formats an error message consistently
func ErrorMessage(err error) string {
	return fmt.Sprintf("❌ Error: %v\n", err)
}

// EmptyState formats an empty state message
func EmptyState(message string) string {
	return fmt.Sprintf("\n%s\n", message)
}

// Truncate shortens s to maxLen runes, adding an ellipsis
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
