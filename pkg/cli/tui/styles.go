package tui

import (
	"strings"

	"contact-scrape-go/pkg/models"

	"github.com/charmbracelet/lipgloss"
)

// Define a consistent color palette
var (
	// Colors
	colorPrimary   = lipgloss.Color("62")  // Purple/blue
	colorSecondary = lipgloss.Color("244") // Gray
	colorSuccess   = lipgloss.Color("42")  // Green
	colorError     = lipgloss.Color("196") // Red
	colorWarning   = lipgloss.Color("214") // Orange/Yellow
	colorInfo      = lipgloss.Color("39")  // Cyan
	colorMuted     = lipgloss.Color("240") // Dark gray
	colorBorder    = lipgloss.Color("238") // Border gray
)

// Reusable style definitions
var (
	// Title/Header styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			MarginBottom(1)

	// Text styles
	boldStyle = lipgloss.NewStyle().Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	// Status styles
	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorInfo)

	// Contact row styles
	contactIDStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	contactNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Bold(true)

	websiteStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	// Field label styles
	fieldLabelStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true).
			MarginRight(2)

	// List/item styles
	selectedStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	selectedMarkerStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	// Filter tabs
	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(colorPrimary).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Padding(0, 1)

	// Divider
	dividerStyle = lipgloss.NewStyle().
			Foreground(colorBorder)

	// Help text
	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)
)

// statusStyles colors each scrape status badge.
var statusStyles = map[models.ScrapeStatus]lipgloss.Style{
	models.StatusReadyToScrape: infoStyle,
	models.StatusScraping:      warningStyle,
	models.StatusScraped:       successStyle,
	models.StatusScrapeFailed:  errorStyle,
	models.StatusUnknown:       mutedStyle,
}

// confidenceStyles colors discovery confidence badges.
var confidenceStyles = map[models.Confidence]lipgloss.Style{
	models.ConfidenceHigh:   successStyle,
	models.ConfidenceMedium: warningStyle,
	models.ConfidenceLow:    errorStyle,
}

// Helper functions for common formatting patterns
func renderTitle(title string) string {
	return "\n" + titleStyle.Render(title) + "\n"
}

func renderSuccess(msg string) string {
	return successStyle.Render("✓ " + msg)
}

func renderError(msg string) string {
	return errorStyle.Render("❌ " + msg)
}

func renderWarning(msg string) string {
	return warningStyle.Render("⚠️  " + msg)
}

func renderDivider(length int) string {
	return dividerStyle.Render(strings.Repeat("─", length))
}

func renderStatus(s models.ScrapeStatus) string {
	style, ok := statusStyles[s]
	if !ok {
		style = mutedStyle
	}
	return style.Render("● " + s.Label())
}

func renderConfidence(c models.Confidence) string {
	style, ok := confidenceStyles[c]
	if !ok {
		style = mutedStyle
	}
	return style.Render(string(c))
}
