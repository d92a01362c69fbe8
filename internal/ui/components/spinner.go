package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/omni-quota/internal/ui/styles"
)

// slowScanAfter is how long the first cycle may run before a hint is shown.
const slowScanAfter = 5 * time.Second

// ScanSpinner animates the first discovery cycle and reports how far it got.
type ScanSpinner struct {
	startedAt time.Time
	spinner   spinner.Model
	label     lipgloss.Style
	hint      lipgloss.Style
}

// NewScanSpinner creates a spinner for a cycle that started at startedAt.
func NewScanSpinner(startedAt time.Time) ScanSpinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return ScanSpinner{
		startedAt: startedAt,
		spinner:   s,
		label:     lipgloss.NewStyle().Foreground(styles.TextSecondary),
		hint:      lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true),
	}
}

// Init starts the spinner animation.
func (s ScanSpinner) Init() tea.Cmd {
	return s.spinner.Tick
}

// Update advances the animation on tick messages.
func (s ScanSpinner) Update(msg tea.Msg) (ScanSpinner, tea.Cmd) {
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return s, cmd
}

// ScanLabel describes a cycle that has adopted endpoints so far and has
// been running for elapsed.
func ScanLabel(endpoints int, elapsed time.Duration) string {
	label := "Looking for language servers..."
	switch {
	case endpoints == 1:
		label = "Reading quota from 1 language server..."
	case endpoints > 1:
		label = fmt.Sprintf("Reading quota from %d language servers...", endpoints)
	}
	if elapsed >= time.Second {
		label += " " + elapsed.Truncate(time.Second).String()
	}
	return label
}

// View renders the spinner with its progress label at now.
func (s ScanSpinner) View(endpoints int, now time.Time) string {
	elapsed := now.Sub(s.startedAt)
	line := s.spinner.View() + " " + s.label.Render(ScanLabel(endpoints, elapsed))
	if endpoints == 0 && elapsed >= slowScanAfter {
		return lipgloss.JoinVertical(lipgloss.Center, line, "",
			s.hint.Render("Open an Antigravity window to start its language server."))
	}
	return line
}

// RenderScanCentered renders the spinner centered in width x height.
func RenderScanCentered(s ScanSpinner, endpoints int, now time.Time, width, height int) string {
	return styles.CenterBoth(s.View(endpoints, now), width, height)
}
