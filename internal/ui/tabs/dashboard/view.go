package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/omni-quota/internal/display"
	"github.com/j-veylop/omni-quota/internal/models"
	"github.com/j-veylop/omni-quota/internal/ui/components"
	"github.com/j-veylop/omni-quota/internal/ui/styles"
)

const (
	maxNameWidth  = 32
	loadingRows   = 3
	minCardWidth  = 40
	selectedGlyph = "★"
)

// View renders the dashboard component.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		endpoints := 0
		if stats := m.state.GetStats(); stats != nil {
			endpoints = stats.Endpoints
		}
		return components.RenderScanCentered(m.spinner, endpoints, time.Now(), m.width, m.height)
	}

	sections := []string{
		m.renderTitle(),
		m.renderAccountList(),
		m.renderModelCard(),
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) cardWidth() int {
	return max(m.width-6, minCardWidth)
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Omni-Quota")
	subtitle := styles.HelpStyle.Render("Quota monitor for local language servers")
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderAccountList() string {
	accounts := m.state.GetAccounts()
	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	rows := []string{fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Accounts"))}

	if stats := m.state.GetStats(); stats != nil {
		rows[0] += styles.HelpStyle.Render(fmt.Sprintf("  %d/%d", stats.AccountCount, stats.MaxAccounts))
	}

	if len(accounts) == 0 {
		emptyIcon := lipgloss.NewStyle().Foreground(styles.Subtle).Render("○")
		rows = append(rows,
			"",
			fmt.Sprintf("  %s %s", emptyIcon, styles.HelpStyle.Render("No accounts discovered yet")),
			"",
			styles.InfoTextStyle.Render("  ╰─▶ Open an editor with the language server running, then press r"),
		)
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	rows = append(rows, "")
	selected := m.state.GetSelectedAccountIndex()
	now := time.Now()
	for i, acc := range accounts {
		rows = append(rows, m.renderAccountRow(acc, i == selected, now))
	}

	return styles.FocusedCardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderAccountRow(acc models.AccountRecord, selected bool, now time.Time) string {
	prefix := "  "
	if selected {
		prefix = styles.SelectedListItemStyle.Render("▸ ")
	}

	marker := lipgloss.NewStyle().Foreground(styles.Subtle).Render("○ ")
	if m.state.IsPrimary(acc.ID) {
		marker = styles.CurrentMarkerStyle.Render("● ")
	}

	nameStyle := lipgloss.NewStyle().Bold(true)
	if selected {
		nameStyle = styles.SelectedListItemStyle
	}
	name := nameStyle.Render(ansi.Truncate(acc.DisplayName, maxNameWidth, "…"))

	tier := acc.Tier
	if tier == "" {
		tier = "UNKNOWN"
	}

	parts := []string{prefix + marker + name, styles.GetTierStyle(acc.Tier).Render("◆ " + tier)}
	if acc.Email != "" && acc.Email != acc.DisplayName {
		parts = append(parts, styles.HelpStyle.Render(acc.Email))
	}
	if !acc.LastActiveAt.IsZero() {
		parts = append(parts, styles.HelpStyle.Render(formatAgo(now.Sub(acc.LastActiveAt))))
	}
	return strings.Join(parts, " ")
}

func (m *Model) renderModelCard() string {
	acc, ok := m.state.SelectedAccount()
	if !ok {
		if m.state.AnyLoading() {
			return m.renderLoadingCard()
		}
		return ""
	}

	rows := []string{styles.CardTitleStyle.Render("Models · " + acc.DisplayName), ""}

	visible := display.FilterModels(acc.Models, m.prefs)
	if len(visible) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No models match the current filters"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	focused := m.focusedModel()
	selectedModel := m.state.GetSelectedModel()
	barWidth := m.cardWidth() - 8

	for _, mq := range visible {
		cursor := "  "
		if mq.Name == focused {
			cursor = styles.SelectedListItemStyle.Render("▸ ")
		}
		star := " "
		if mq.Name == selectedModel {
			star = styles.InfoTextStyle.Render(selectedGlyph)
		}

		shown := mq
		shown.Percentage = m.displayPercent(acc.ID, mq)
		rows = append(rows, cursor+star+" "+components.ModelBar(shown, m.prefs, barWidth))
	}

	rows = append(rows, "", styles.HelpStyle.Render(fmt.Sprintf("  %s marks the status line model", selectedGlyph)))
	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderLoadingCard() string {
	rows := []string{styles.CardTitleStyle.Render("Models"), ""}
	for range loadingRows {
		rows = append(rows, components.LoadingBar(m.cardWidth()-8, m.animationFrame))
	}
	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// formatAgo renders a coarse relative age.
func formatAgo(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
