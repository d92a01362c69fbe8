package info

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/omni-quota/internal/ui/styles"
	"github.com/j-veylop/omni-quota/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderStatsCard(),
		m.renderAboutCard(),
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration and application information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 90)
}

func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration"), ""}

	if c := m.config; c != nil {
		metrics := c.MetricsAddr
		if metrics == "" {
			metrics = "disabled"
		}
		rows = append(rows,
			renderRow("Store", c.StorePath),
			renderRow("Log File", c.LogPath),
			renderRow("Log Level", c.LogLevel),
			renderRow("Gemini Dir", c.GeminiDir),
			renderRow("Process Match", c.ProcessPattern),
			renderRow("Poll Interval", m.interval.String()),
			renderRow("Max Accounts", strconv.Itoa(c.MaxAccounts)),
			renderRow("Thresholds", fmt.Sprintf("warn %d%% · critical %d%%", c.WarningThreshold, c.CriticalThreshold)),
			renderRow("Status Style", c.StatusBarStyle),
			renderRow("Metrics", metrics),
			"",
			styles.HelpStyle.Render("Press 'c' to copy the store path, 'L' for the log path"),
			styles.HelpStyle.Render("Press '-' or '+' to change the poll interval"),
		)
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderStatsCard() string {
	rows := []string{styles.CardTitleStyle.Render("Monitor"), ""}

	stats := m.state.GetStats()
	if stats == nil {
		rows = append(rows, renderRow("Accounts", strconv.Itoa(m.state.GetAccountCount())))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	connected := styles.ErrorTextStyle.Render("offline")
	if stats.Connected {
		connected = styles.InfoTextStyle.Render("connected")
	}
	rows = append(rows,
		renderRow("Accounts", fmt.Sprintf("%d / %d", stats.AccountCount, stats.MaxAccounts)),
		renderRow("Endpoints", strconv.Itoa(stats.Endpoints)),
		renderRow("History", fmt.Sprintf("%d samples", stats.HistorySize)),
		renderRow("Language Server", connected),
	)
	if since := m.state.TimeSinceUpdate(); since > 0 {
		rows = append(rows, renderRow("Last Update", since.Round(time.Second).String()+" ago"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderAboutCard() string {
	info := version.Get()
	rows := []string{
		styles.CardTitleStyle.Render("About " + info.Product),
		"",
		renderRow("Version", info.Version),
		renderRow("Git Commit", info.Commit),
		renderRow("Build Date", info.Date),
		renderRow("Platform", fmt.Sprintf("%s/%s", info.OS, info.Arch)),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderRow renders a key-value row.
func renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}
