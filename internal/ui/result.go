package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// resultKind indicates success or failure
type resultKind int

const (
	resultSuccess resultKind = iota
	resultFailure
	resultWarning
)

// result represents a result box (success, failure, or warning)
type result struct {
	kind            resultKind // Success, failure, or warning
	title           string     // e.g., "Toolchain ready"
	body            string     // Preformatted text shown under the title
	err             error      // Error (for failure results)
	troubleshooting []string   // Troubleshooting tips (for failure results)
	width           int        // Terminal width
}

// newSuccessResult creates a success result box
func newSuccessResult(title, body string) *result {
	return &result{
		kind:  resultSuccess,
		title: title,
		body:  body,
		width: terminalWidth(),
	}
}

// newFailureResult creates a failure result box
func newFailureResult(title string, err error, troubleshooting []string) *result {
	return &result{
		kind:            resultFailure,
		title:           title,
		err:             err,
		troubleshooting: troubleshooting,
		width:           terminalWidth(),
	}
}

// newWarningResult creates a warning result box
func newWarningResult(title, body string) *result {
	return &result{
		kind:  resultWarning,
		title: title,
		body:  body,
		width: terminalWidth(),
	}
}

// withWidth sets the terminal width for responsive rendering
func (r *result) withWidth(width int) *result {
	r.width = width
	return r
}

// Render returns the styled result box as a string
func (r *result) Render() string {
	width := r.width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	var (
		title  string
		border lipgloss.Color
	)
	switch r.kind {
	case resultFailure:
		title = ErrorTitleStyle.Render(fmt.Sprintf("%s  FAILED  ─  %s", FailureMarker, r.title))
		border = ErrorColor
	case resultWarning:
		title = WarningStyle.Render(fmt.Sprintf("%s  WARNING  ─  %s", WarningMarker, r.title))
		border = WarningColor
	default:
		title = SuccessTitleStyle.Render(fmt.Sprintf("%s  SUCCESS  ─  %s", SuccessMarker, r.title))
		border = SuccessColor
	}

	lines := []string{"", title, ""}

	if r.body != "" {
		lines = append(lines, ResultBodyStyle.Render(strings.TrimRight(r.body, "\n")), "")
	}

	if r.err != nil {
		lines = append(lines, ErrorMessageStyle.Render("Error: "+r.err.Error()), "")
	}

	if len(r.troubleshooting) > 0 {
		lines = append(lines, r.renderTroubleshootingBox(width), "")
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(border).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}

// renderTroubleshootingBox renders the inner troubleshooting box
func (r *result) renderTroubleshootingBox(width int) string {
	var lines []string

	// Title
	lines = append(lines, TroubleshootingTitleStyle.Render("Troubleshooting:"))
	lines = append(lines, "")

	// Bullet points
	for _, tip := range r.troubleshooting {
		lines = append(lines, TroubleshootingItemStyle.Render("  • "+tip))
	}

	content := strings.Join(lines, "\n")

	// Inner box with muted border
	innerWidth := width - 12 // Indent within outer box
	if innerWidth < 40 {
		innerWidth = 40
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(innerWidth).
		Padding(0, 1).
		Render(content)
}

// String implements fmt.Stringer
func (r *result) String() string {
	return r.Render()
}

// --- Convenience functions for quick rendering ---

// RenderSuccess renders a success box with the given title and body
func RenderSuccess(title, body string) string {
	return newSuccessResult(title, body).Render()
}

// RenderFailure renders a failure box with the given title, error, and troubleshooting tips
func RenderFailure(title string, err error, troubleshooting []string) string {
	return newFailureResult(title, err, troubleshooting).Render()
}

// RenderWarning renders a warning box with the given title and body
func RenderWarning(title, body string) string {
	return newWarningResult(title, body).Render()
}
