// Package cli renders ledgers and command outcomes for the terminal using lipgloss.
package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	flagRed   = lipgloss.Color("#FF6B6B")
	clearTeal = lipgloss.Color("#4ECDC4")
	noteTeal  = lipgloss.Color("#95E1D3")
	cautionYe = lipgloss.Color("#FFE66D")
	dimGray   = lipgloss.Color("#666666")

	// TitleStyle is used for screening headings.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(flagRed).MarginBottom(1)

	// SubtleStyle renders placeholders such as the empty reason of a clean row.
	SubtleStyle = lipgloss.NewStyle().Foreground(dimGray)

	// TableHeaderStyle is used for ledger table headers.
	TableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

	// FlaggedStyle highlights the reasons on suspicious rows.
	FlaggedStyle = lipgloss.NewStyle().Bold(true).Foreground(flagRed)

	summaryBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)
)

// outcome pairs a message color with the marker printed before it.
type outcome struct {
	style  lipgloss.Style
	marker string
}

func (o outcome) render(message string) string {
	return o.style.Render(o.marker + " " + message)
}

var (
	succeeded = outcome{lipgloss.NewStyle().Foreground(clearTeal), "✓"}
	failed    = outcome{lipgloss.NewStyle().Foreground(flagRed), "✗"}
	degraded  = outcome{lipgloss.NewStyle().Foreground(cautionYe), "⚠️"}
	noted     = outcome{lipgloss.NewStyle().Foreground(noteTeal), "ℹ️"}
)

const (
	screeningIcon = "🚨"
	summaryIcon   = "📊"
)

// FormatSuccess formats a completed command outcome.
func FormatSuccess(message string) string { return succeeded.render(message) }

// FormatError formats a fatal command error.
func FormatError(message string) string { return failed.render(message) }

// FormatWarning formats an outcome that completed only in part.
func FormatWarning(message string) string { return degraded.render(message) }

// FormatInfo formats a neutral note.
func FormatInfo(message string) string { return noted.render(message) }

// FormatTitle formats a screening heading.
func FormatTitle(title string) string {
	return TitleStyle.Render(screeningIcon + " " + title)
}

// FormatPartialPersist warns that only committed of total generated transactions
// reached storage before persistence stopped.
func FormatPartialPersist(committed, total int) string {
	return FormatWarning(fmt.Sprintf("Persisted %d of %d generated transactions; the rest were not stored",
		committed, total))
}

// RenderBox renders content under a bold title inside a rounded border.
func RenderBox(title, content string) string {
	heading := TitleStyle.UnsetMargins().Render(title)
	return summaryBox.Render(lipgloss.JoinVertical(lipgloss.Left, heading, content))
}
