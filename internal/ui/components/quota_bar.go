// Package components provides reusable UI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/omni-quota/internal/display"
	"github.com/j-veylop/omni-quota/internal/models"
	"github.com/j-veylop/omni-quota/internal/ui/styles"
)

const (
	labelWidth   = 28
	percentWidth = 6
	resetWidth   = 12
	minBarWidth  = 10
)

// ModelBar renders one model's remaining quota: label, gradient bar,
// threshold-colored percentage and reset label.
func ModelBar(m models.ModelQuota, prefs display.Prefs, width int) string {
	barWidth := width - labelWidth - percentWidth - resetWidth - 3
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}

	p := progress.New(
		progress.WithScaledGradient("#ff6b6b", "#51cf66"),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar := p.ViewAs(float64(clampPercent(m.Percentage)) / 100)

	label := styles.ProgressLabelStyle.
		Width(labelWidth).
		Render(ansi.Truncate(m.Name, labelWidth-1, "…"))

	level := display.StatusColor(m.Percentage, prefs.WarningThreshold, prefs.CriticalThreshold)
	percent := styles.GetLevelStyle(level).
		Width(percentWidth).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%d%%", m.Percentage))

	reset := styles.HelpStyle.
		Width(resetWidth).
		Align(lipgloss.Right).
		Render(m.ResetLabel)

	return lipgloss.JoinHorizontal(lipgloss.Center, label, bar, " ", percent, " ", reset)
}

// DotsBar renders a model as a marker, short name and dots, matching the
// status line format.
func DotsBar(m models.ModelQuota, prefs display.Prefs, n int) string {
	level := display.StatusColor(m.Percentage, prefs.WarningThreshold, prefs.CriticalThreshold)
	dots := styles.GetLevelStyle(level).Render(display.Dots(m.Percentage, n))
	return fmt.Sprintf("%s %s", display.ShortName(m.Name), dots)
}

func clampPercent(p int) int {
	return max(0, min(100, p))
}

// LoadingBar renders a shimmering placeholder bar while the first cycle runs.
func LoadingBar(width, frame int) string {
	barWidth := width - 4
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}

	const cycle = 120
	t := float64(frame%cycle) / float64(cycle)
	var p float64
	if t < 0.5 {
		p = t * 2
	} else {
		p = (1 - t) * 2
	}
	eased := p * p * (3 - 2*p)
	shimmerPos := int(eased * float64(barWidth))

	var barChars []string
	for i := 0; i < barWidth; i++ {
		dist := shimmerPos - i
		if dist < 0 {
			dist = -dist
		}

		var char string
		var style lipgloss.Style
		switch {
		case dist < 3:
			char = "▓"
			style = lipgloss.NewStyle().Foreground(styles.Primary)
		case dist < 5:
			char = "▒"
			style = lipgloss.NewStyle().Foreground(styles.TextSecondary)
		default:
			char = "░"
			style = lipgloss.NewStyle().Foreground(styles.BgLight)
		}
		barChars = append(barChars, style.Render(char))
	}

	return "    " + strings.Join(barChars, "")
}
