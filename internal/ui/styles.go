package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/goobits/docs-engine-sub003/internal/validation"
)

// Color palette.
var (
	PrimaryColor   = lipgloss.Color("205") // Pink
	SecondaryColor = lipgloss.Color("241") // Gray
	SuccessColor   = lipgloss.Color("82")  // Green
	ErrorColor     = lipgloss.Color("196") // Red
	WarningColor   = lipgloss.Color("214") // Orange
	MutedColor     = lipgloss.Color("245") // Dimmed text
)

// Text styles.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	StatusStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			MarginTop(1)

	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	DetailLabelStyle = lipgloss.NewStyle().
				Foreground(SecondaryColor).
				Bold(true)
)

// SpinnerStyle returns the style for the spinner.
func SpinnerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(PrimaryColor)
}

// Badge styles.
var (
	badgeBase = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	BadgeOK      = badgeBase.Background(lipgloss.Color("28"))
	BadgeMissing = badgeBase.Background(ErrorColor)
	BadgeHTTP    = badgeBase.Background(lipgloss.Color("161")) // Darker red
	BadgeTimeout = badgeBase.Foreground(lipgloss.Color("0")).Background(WarningColor)
	BadgeSkipped = badgeBase.Background(SecondaryColor)
)

// OutcomeBadge returns a short styled label for a validation outcome.
func OutcomeBadge(o validation.Outcome) string {
	switch o {
	case validation.InternalResolved, validation.ExternalValid:
		return BadgeOK.Render("OK")
	case validation.ExternalSkipped:
		return BadgeSkipped.Render("SKIP")
	case validation.FileNotFound:
		return BadgeMissing.Render("FILE")
	case validation.AnchorNotFound:
		return BadgeMissing.Render("ANCHOR")
	case validation.ExternalHTTPError:
		return BadgeHTTP.Render("HTTP")
	case validation.ExternalTimeout:
		return BadgeTimeout.Render("TIMEOUT")
	case validation.ExternalNetworkError:
		return BadgeTimeout.Render("NET")
	default:
		return BadgeMissing.Render("ERR")
	}
}
