// Package styles defines the visual styling for the application.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/omni-quota/internal/display"
)

// Color definitions for the omni-quota theme.
var (
	// Primary colors
	Primary   = lipgloss.Color("205") // Pink
	Secondary = lipgloss.Color("63")  // Purple
	Subtle    = lipgloss.Color("240") // Gray

	// Brand colors
	Claude = lipgloss.Color("208") // Orange
	Gemini = lipgloss.Color("39")  // Blue

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow
	Info    = lipgloss.Color("39")  // Blue

	// Background colors
	BgLight = lipgloss.Color("237")

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary)

// DocStyle provides consistent document margins.
var DocStyle = lipgloss.NewStyle().
	Margin(1, 2).
	Padding(0, 1)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(0, 1).
	MarginBottom(1)

// CardTitleStyle styles the heading inside a card.
var CardTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(TextPrimary)

// FocusedCardStyle marks the card that owns keyboard focus.
var FocusedCardStyle = CardStyle.
	BorderForeground(Primary)

// StatusBarStyle styles the one-line status summary.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(TextPrimary).
	Background(BgLight).
	Padding(0, 1)

// OfflineStyle styles the status bar while disconnected.
var OfflineStyle = StatusBarStyle.
	Foreground(TextMuted)

// NotificationBaseStyle is the base for all notification types.
var NotificationBaseStyle = lipgloss.NewStyle().
	Padding(0, 2).
	Border(lipgloss.RoundedBorder())

// NotificationSuccessStyle for success notifications.
var NotificationSuccessStyle = NotificationBaseStyle.
	BorderForeground(Success).
	Foreground(Success)

// NotificationErrorStyle for error notifications.
var NotificationErrorStyle = NotificationBaseStyle.
	BorderForeground(Error).
	Foreground(Error)

// NotificationWarningStyle for warning notifications.
var NotificationWarningStyle = NotificationBaseStyle.
	BorderForeground(Warning).
	Foreground(Warning)

// NotificationInfoStyle for info notifications.
var NotificationInfoStyle = NotificationBaseStyle.
	BorderForeground(Info).
	Foreground(Info)

// ProgressLabelStyle styles progress bar labels.
var ProgressLabelStyle = lipgloss.NewStyle().
	Foreground(TextSecondary)

// HelpStyle is the base style for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// HelpPanelStyle creates the help overlay panel.
var HelpPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Primary).
	Padding(1, 3)

// SelectedListItemStyle styles selected list items.
var SelectedListItemStyle = lipgloss.NewStyle().
	Foreground(Primary).
	Bold(true)

// CurrentMarkerStyle styles the marker of the account the server reports.
var CurrentMarkerStyle = lipgloss.NewStyle().
	Foreground(Success).
	Bold(true)

// TierPaidStyle styles paid tier indicators.
var TierPaidStyle = lipgloss.NewStyle().
	Foreground(Success).
	Bold(true)

// TierFreeStyle styles FREE tier indicators.
var TierFreeStyle = lipgloss.NewStyle().
	Foreground(Warning)

// TierUnknownStyle styles UNKNOWN tier indicators.
var TierUnknownStyle = lipgloss.NewStyle().
	Foreground(Subtle)

// QuotaHighStyle for percentages at or above the warning threshold.
var QuotaHighStyle = lipgloss.NewStyle().
	Foreground(Success)

// QuotaMediumStyle for percentages between the thresholds.
var QuotaMediumStyle = lipgloss.NewStyle().
	Foreground(Warning)

// QuotaLowStyle for percentages below the critical threshold.
var QuotaLowStyle = lipgloss.NewStyle().
	Foreground(Error)

// QuotaEmptyStyle for exhausted models.
var QuotaEmptyStyle = lipgloss.NewStyle().
	Foreground(Error).
	Bold(true).
	Italic(true)

// ErrorTextStyle for error messages.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(Error)

// InfoTextStyle for highlighted values.
var InfoTextStyle = lipgloss.NewStyle().
	Foreground(Info)

// GetLevelStyle returns the style of a threshold band.
func GetLevelStyle(level display.Level) lipgloss.Style {
	switch level {
	case display.LevelGood:
		return QuotaHighStyle
	case display.LevelWarn:
		return QuotaMediumStyle
	case display.LevelCritical:
		return QuotaLowStyle
	default:
		return QuotaEmptyStyle
	}
}

// GetTierStyle returns the appropriate style for an account tier. Plan
// names reported by the server count as paid unless they say otherwise.
func GetTierStyle(tier string) lipgloss.Style {
	switch t := strings.ToUpper(strings.TrimSpace(tier)); {
	case t == "" || t == "UNKNOWN":
		return TierUnknownStyle
	case strings.Contains(t, "FREE"):
		return TierFreeStyle
	default:
		return TierPaidStyle
	}
}

// ModelColor returns the brand color for a model label.
func ModelColor(name string) lipgloss.Color {
	if strings.Contains(strings.ToLower(name), "claude") {
		return Claude
	}
	if strings.Contains(strings.ToLower(name), "gemini") {
		return Gemini
	}
	return Secondary
}

// CenterBoth centers content both horizontally and vertically.
func CenterBoth(content string, width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center).
		AlignVertical(lipgloss.Center).
		Render(content)
}
