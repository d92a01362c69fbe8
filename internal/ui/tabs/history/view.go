package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/omni-quota/internal/display"
	"github.com/j-veylop/omni-quota/internal/models"
	"github.com/j-veylop/omni-quota/internal/ui/components"
	"github.com/j-veylop/omni-quota/internal/ui/styles"
)

const (
	chartHeight    = 10
	sparkNameWidth = 18
	minChartWidth  = 30
)

// View renders the history tab.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return m.renderMessage("Loading history data...")
	}

	acc, ok := m.state.SelectedAccount()
	if !ok {
		return m.renderEmpty("No account selected.", "Pick an account on the dashboard to see its history.")
	}

	model := m.state.GetFocusedModel()
	if model == "" {
		return m.renderEmpty("No model focused.", "Move the model cursor on the dashboard to choose one.")
	}

	sections := []string{
		m.renderHeader(acc, model),
		m.renderChart(acc.ID, model),
	}
	if m.showOverview {
		sections = append(sections, m.renderOverview(acc))
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) cardWidth() int {
	return max(m.width-6, minChartWidth+10)
}

func (m *Model) renderMessage(text string) string {
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(styles.HelpStyle.Render(text))
}

func (m *Model) renderEmpty(headline, hint string) string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("History"),
		"",
		styles.HelpStyle.Render(headline),
		styles.HelpStyle.Render(hint),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader(acc models.AccountRecord, model string) string {
	title := styles.TitleStyle.Render("History: " + acc.DisplayName)
	subtitle := styles.HelpStyle.Render("Remaining quota per refresh cycle for " + display.ShortName(model))
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderChart(id models.Identity, model string) string {
	cardWidth := m.cardWidth()
	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("📈")
	rows := []string{fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render(model)), ""}

	data := m.seriesFor(id, model)
	if len(data) == 0 {
		rows = append(rows,
			styles.HelpStyle.Render("  No samples recorded yet"),
			styles.HelpStyle.Render("  Samples appear after each successful refresh cycle."),
		)
	} else {
		chartWidth := max(cardWidth-20, minChartWidth)
		chart := components.RenderHistoryChart(data, chartWidth, chartHeight,
			components.RenderHistoryCaption(display.ShortName(model), len(data)))
		for line := range strings.SplitSeq(chart, "\n") {
			rows = append(rows, "  "+line)
		}
		rows = append(rows, "", fmt.Sprintf("  Latest: %s",
			lipgloss.NewStyle().Bold(true).Foreground(styles.Primary).Render(fmt.Sprintf("%.0f%%", data[len(data)-1]))))
	}

	rows = append(rows, "")
	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderOverview lists a sparkline for every model of the account.
func (m *Model) renderOverview(acc models.AccountRecord) string {
	cardWidth := m.cardWidth()
	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("▤")
	rows := []string{fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("All models")), ""}

	sparkWidth := max(cardWidth-sparkNameWidth-14, 10)
	nameStyle := lipgloss.NewStyle().Width(sparkNameWidth)

	for _, mq := range acc.Models {
		data := m.seriesFor(acc.ID, mq.Name)
		spark := components.RenderSparkline(data, sparkWidth)
		if spark == "" {
			spark = styles.HelpStyle.Render("no samples")
		}
		rows = append(rows, fmt.Sprintf("  %s %s %s",
			nameStyle.Foreground(styles.ModelColor(mq.Name)).Render(display.ShortName(mq.Name)),
			spark,
			styles.HelpStyle.Render(fmt.Sprintf("%3d%%", mq.Percentage)),
		))
	}

	rows = append(rows, "")
	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
