package tui

import (
	"fmt"
	"strings"
)

// HelpItem represents a single keyboard shortcut and its description
type HelpItem struct {
	Key         string
	Description string
}

// CommonHelpContent returns help for common commands
func CommonHelpContent() string {
	items := []HelpItem{
		{"?", "Toggle help"},
		{"q / Esc", "Quit application"},
		{"Ctrl+C", "Force quit"},
	}
	return renderHelpItems(items)
}

// BrowserHelpContent returns help for the contact list
func BrowserHelpContent() string {
	items := []HelpItem{
		{"↑ / ↓ / j / k", "Move cursor"},
		{"← / → / h / l", "Previous / next page"},
		{"Tab / Shift+Tab", "Cycle status filter"},
		{"/", "Search"},
		{"Space", "Select / deselect contact"},
		{"a", "Select all matching contacts"},
		{"c", "Clear selection"},
		{"s", "Scrape selected contacts"},
		{"r", "Retry (reset) contact under cursor"},
		{"o", "Show the contact's website"},
		{"x", "Abort work for contact under cursor"},
		{"X", "Abort all in-flight work"},
		{"R", "Reload contacts"},
		{"q", "Quit"},
		{"?", "Show this help"},
	}
	return renderHelpItems(items)
}

// SingleConfirmHelpContent returns help for the single website confirmation
func SingleConfirmHelpContent() string {
	items := []HelpItem{
		{"Enter / y", "Confirm and scrape"},
		{"e", "Edit URL, then confirm"},
		{"n", "Skip this contact"},
		{"d", "Remove from this run"},
		{"Esc", "Dismiss (no scrape)"},
	}
	return renderHelpItems(items)
}

// BatchConfirmHelpContent returns help for the batch website confirmation
func BatchConfirmHelpContent() string {
	items := []HelpItem{
		{"← / → / j / k", "Previous / next candidate"},
		{"Enter / Space", "Toggle confirm"},
		{"e", "Edit URL, then confirm"},
		{"u", "Unmark candidate"},
		{"d", "Remove candidate"},
		{"S", "Submit confirmed candidates"},
		{"Esc", "Dismiss (no scrape)"},
	}
	return renderHelpItems(items)
}

// renderHelpItems formats help items into a readable string
func renderHelpItems(items []HelpItem) string {
	var b strings.Builder
	for _, item := range items {
		keyStyle := boldStyle.Foreground(colorPrimary)
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			keyStyle.Render(item.Key),
			item.Description))
	}
	return b.String()
}
