package dashboard

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sipsmart/sipstream/internal/models"
	"github.com/sipsmart/sipstream/internal/ui/components"
	"github.com/sipsmart/sipstream/internal/ui/styles"
)

// staleAfter marks the last-update clock once no sample has arrived
// for this long while connected.
const staleAfter = 3 * time.Second

// View renders the dashboard component.
func (m *Model) View() string {
	snap := m.state.GetSnapshot()

	var sections []string

	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderConnCard(snap))
	sections = append(sections, m.renderMetricCards(snap))
	sections = append(sections, m.renderGoalCard(snap))
	sections = append(sections, m.renderChartCard(snap))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderTitle renders the dashboard title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("SipStream")
	subtitle := styles.HelpStyle.Render("BLE liquid-flow sensor monitor")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

// renderConnCard renders the connection chip, status line, and clock.
func (m *Model) renderConnCard(snap models.Snapshot) string {
	cardWidth := max(m.width-6, 40)

	connected := snap.ConnState == models.ConnConnected

	chip := styles.GetConnStyle(connected).Render("● " + snap.ConnState.String())
	if !connected && m.state.IsStreaming() {
		chip = lipgloss.JoinHorizontal(lipgloss.Center, chip, "  ", m.spinner.View())
	}

	status := styles.StatusLineStyle.Render(snap.Status)

	clock := m.renderClock(snap)

	row := lipgloss.JoinHorizontal(lipgloss.Center, chip, "   ", clock)

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, row, status),
	)
}

func (m *Model) renderClock(snap models.Snapshot) string {
	if snap.LastUpdate.IsZero() {
		return styles.HelpStyle.Render("no samples yet")
	}

	text := "Last sample " + snap.LastUpdate.Format("15:04:05")
	if snap.ConnState == models.ConnConnected && time.Since(snap.LastUpdate) > staleAfter {
		return styles.StaleStyle.Render(text + " (stale)")
	}
	return styles.HelpStyle.Render(text)
}

// renderMetricCards renders the three volume metric cards side by side.
func (m *Model) renderMetricCards(snap models.Snapshot) string {
	cardWidth := max((m.width-12)/3, 18)

	last := m.renderMetricCard("Last Sip", snap.Metrics.LastSipML, "mL", cardWidth)
	today := m.renderMetricCard("Today", snap.Metrics.TodayML, "mL", cardWidth)
	allTime := m.renderMetricCard("All Time", snap.Metrics.AllTimeML, "mL", cardWidth)

	return lipgloss.JoinHorizontal(lipgloss.Top, last, today, allTime)
}

func (m *Model) renderMetricCard(title string, value float64, unit string, width int) string {
	header := styles.CardTitleStyle.Render(title)
	number := styles.MetricValueStyle.Render(fmt.Sprintf("%.1f", value))
	suffix := styles.MetricUnitStyle.Render(" " + unit)

	body := lipgloss.JoinHorizontal(lipgloss.Bottom, number, suffix)

	return styles.CardStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, body),
	)
}

// renderGoalCard renders the daily hydration goal progress.
func (m *Model) renderGoalCard(snap models.Snapshot) string {
	if m.goalML <= 0 {
		return ""
	}

	cardWidth := max(m.width-6, 40)

	header := styles.CardTitleStyle.Render("Daily Goal")
	bar := m.goalBar.View(snap.Metrics.TodayML, m.goalML, cardWidth-6)

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, bar),
	)
}

// renderChartCard renders the rolling flow-rate chart.
func (m *Model) renderChartCard(snap models.Snapshot) string {
	cardWidth := max(m.width-6, 40)

	header := styles.CardTitleStyle.Render("Flow Rate (L/min)")

	chartHeight := max(m.height-22, 6)
	caption := fmt.Sprintf("last %ds", int(m.chartWindow.Seconds()))
	chart := components.RenderFlowChart(snap.ChartPoints, cardWidth-10, chartHeight, caption)

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, chart),
	)
}
