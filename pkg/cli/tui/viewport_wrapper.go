package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"contact-scrape-go/pkg/logger"
)

// keyCapturer is implemented by models that handle q and Esc themselves,
// for example while a confirmation dialog is open.
type keyCapturer interface {
	CapturesKeys() bool
}

// textEditor is implemented by models that own every printable key while a
// text input has focus.
type textEditor interface {
	Editing() bool
}

// ViewportWrapper wraps a model with viewport and common command support
type ViewportWrapper struct {
	model    tea.Model
	viewport viewport.Model
	width    int
	height   int
	config   ViewportConfig

	// Common commands
	showHelp    bool
	helpContent string
}

// ViewportConfig configures the wrapper behavior
type ViewportConfig struct {
	Title        string
	ShowHeader   bool
	ShowFooter   bool
	HeaderHeight int           // Fixed header height (0 = auto)
	FooterHeight int           // Fixed footer height (0 = auto)
	UseViewport  bool          // Enable scrolling (false = simple responsive)
	MinWidth     int           // Minimum terminal width
	MinHeight    int           // Minimum terminal height
	EnableHelp   bool          // Enable '?' for help
	HelpContent  func() string // Function to generate help text
	OnQuit       func()        // Called once before the program quits
}

// NewViewportWrapper creates a new wrapper around a model
func NewViewportWrapper(model tea.Model, config ViewportConfig) *ViewportWrapper {
	vp := viewport.New(0, 0)

	return &ViewportWrapper{
		model:    model,
		viewport: vp,
		config:   config,
		width:    80, // Default
		height:   24, // Default
	}
}

func (w *ViewportWrapper) Init() tea.Cmd {
	if w.model != nil {
		return w.model.Init()
	}
	return nil
}

func (w *ViewportWrapper) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		logger.L().Debug("viewport resize", "width", msg.Width, "height", msg.Height)
		w.width = msg.Width
		w.height = msg.Height

		// Validate minimum size
		if w.config.MinWidth > 0 && w.width < w.config.MinWidth {
			w.width = w.config.MinWidth
		}
		if w.config.MinHeight > 0 && w.height < w.config.MinHeight {
			w.height = w.config.MinHeight
		}

		w.calculateLayout()

		var vpCmd, cmd tea.Cmd
		if w.config.UseViewport {
			w.viewport, vpCmd = w.viewport.Update(msg)
		}
		if w.model != nil {
			w.model, cmd = w.model.Update(msg)
		}
		return w, tea.Batch(vpCmd, cmd)

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return w, w.quit()
		}
		if w.showHelp {
			switch key {
			case "?", "esc", "q":
				w.showHelp = false
			}
			return w, nil
		}
		if key == "?" && w.config.EnableHelp && !w.editing() {
			w.showHelp = true
			if w.config.HelpContent != nil {
				w.helpContent = w.config.HelpContent()
			}
			return w, nil
		}
		if (key == "q" || key == "esc") && !w.capturing() {
			return w, w.quit()
		}
	}

	// Forward all other messages to wrapped model
	var cmd tea.Cmd
	if w.model != nil {
		w.model, cmd = w.model.Update(msg)
	}

	// Only page keys scroll; arrows belong to the wrapped model.
	if w.config.UseViewport {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "pgup", "pgdown", "ctrl+u", "ctrl+d":
				var vpCmd tea.Cmd
				w.viewport, vpCmd = w.viewport.Update(msg)
				cmd = tea.Batch(cmd, vpCmd)
			}
		}
	}

	return w, cmd
}

func (w *ViewportWrapper) quit() tea.Cmd {
	if w.config.OnQuit != nil {
		w.config.OnQuit()
	}
	return tea.Quit
}

func (w *ViewportWrapper) capturing() bool {
	c, ok := w.model.(keyCapturer)
	return ok && c.CapturesKeys()
}

func (w *ViewportWrapper) editing() bool {
	e, ok := w.model.(textEditor)
	return ok && e.Editing()
}

func (w *ViewportWrapper) View() string {
	if w.showHelp {
		return w.renderHelpOverlay()
	}

	content := ""
	if w.model != nil {
		content = w.model.View()
	}

	if w.config.UseViewport {
		w.calculateLayout()
		w.viewport.SetContent(content)
		content = w.viewport.View()
	}

	var parts []string
	if w.config.ShowHeader {
		parts = append(parts, w.renderHeader())
	}
	parts = append(parts, content)
	if w.config.ShowFooter {
		parts = append(parts, w.renderFooter())
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (w *ViewportWrapper) calculateLayout() {
	headerH := w.config.HeaderHeight
	if headerH == 0 && w.config.ShowHeader {
		headerH = 2 // Default header height
	}

	footerH := w.config.FooterHeight
	if footerH == 0 && w.config.ShowFooter {
		footerH = 1 // Default footer height
	}

	if w.width <= 0 {
		w.width = 80
	}
	if w.height <= 0 {
		w.height = 24
	}

	contentH := w.height - headerH - footerH
	if contentH < 1 {
		contentH = 1
	}

	if w.config.UseViewport {
		w.viewport.Width = w.width
		w.viewport.Height = contentH
	}
}

func (w *ViewportWrapper) renderHeader() string {
	var b strings.Builder
	if w.config.Title != "" {
		b.WriteString(renderTitle(w.config.Title))
	}
	if w.config.EnableHelp {
		b.WriteString(helpStyle.Render("Press '?' for help") + "\n")
	}
	return b.String()
}

func (w *ViewportWrapper) renderFooter() string {
	shortcuts := []string{}
	if w.config.EnableHelp {
		shortcuts = append(shortcuts, "? help")
	}
	shortcuts = append(shortcuts, "q quit")
	return helpStyle.Render(strings.Join(shortcuts, " • "))
}

func (w *ViewportWrapper) renderHelpOverlay() string {
	helpText := w.helpContent
	if helpText == "" {
		helpText = "No help available"
	}

	overlayStyle := lipgloss.NewStyle().
		Width(w.width).
		Height(w.height).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(1, 2).
		Background(lipgloss.Color("236")). // Dark background
		Foreground(lipgloss.Color("252"))

	title := titleStyle.Render("Keyboard Shortcuts")
	closeHint := helpStyle.Render("Press '?' or Esc to close")

	return overlayStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left, title, "", helpText, "", closeHint),
	)
}
