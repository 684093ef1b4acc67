package history

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sipsmart/sipstream/internal/models"
	"github.com/sipsmart/sipstream/internal/ui/components"
	"github.com/sipsmart/sipstream/internal/ui/styles"
)

// View renders the history tab.
func (m *Model) View() string {
	sips := m.state.GetSips()

	if len(sips) == 0 {
		return m.renderEmpty()
	}

	var sections []string

	sections = append(sections,
		m.renderHeader(),
		m.renderStatsCard(),
		m.renderSparklineCard(sips),
		m.renderSipTable(sips),
	)

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderEmpty() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("Sip History"),
		"",
		styles.HelpStyle.Render("No sips recorded yet."),
		styles.HelpStyle.Render("Sips will appear here as the sensor detects drinking."),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("Sip History")
	subtitle := styles.HelpStyle.Render("Recorded drinking events, newest first")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderStatsCard() string {
	stats := m.state.GetStats()
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Session Totals"), "")
	rows = append(rows, fmt.Sprintf("  Sips     %s", styles.MetricValueStyle.Render(fmt.Sprintf("%d", stats.SipCount))))
	rows = append(rows, fmt.Sprintf("  Total    %s", styles.MetricValueStyle.Render(fmt.Sprintf("%.1f mL", stats.TotalML))))
	rows = append(rows, fmt.Sprintf("  Largest  %s", styles.MetricValueStyle.Render(fmt.Sprintf("%.1f mL", stats.LargestML))))
	rows = append(rows, fmt.Sprintf("  Average  %s", styles.MetricValueStyle.Render(fmt.Sprintf("%.1f mL", stats.AverageML))))

	if !stats.FirstSipAt.IsZero() {
		span := fmt.Sprintf("  %s → %s",
			stats.FirstSipAt.Format("15:04:05"),
			stats.LastSipAt.Format("15:04:05"))
		rows = append(rows, "", styles.HelpStyle.Render(span))
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderSparklineCard(sips []models.SipEvent) string {
	cardWidth := max(m.width-6, 40)

	// Oldest first so the sparkline reads left to right
	volumes := make([]float64, len(sips))
	for i, sip := range sips {
		volumes[len(sips)-1-i] = sip.VolumeML
	}

	spark := components.RenderSparkline(volumes, min(len(volumes), cardWidth-8))

	legend := components.RenderLegend([]components.LegendItem{
		{Label: "volume per sip, oldest → newest", Color: styles.Primary},
	})

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			styles.CardTitleStyle.Render("Sip Volumes"),
			"  "+spark,
			"",
			"  "+legend,
		),
	)
}

func (m *Model) renderSipTable(sips []models.SipEvent) string {
	cardWidth := max(m.width-6, 40)

	header := styles.TableHeaderStyle.Render(
		fmt.Sprintf("  %-10s %-10s %-10s %10s", "Start", "End", "Duration", "Volume"),
	)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Sips"), "", header)

	for _, sip := range sips {
		row := fmt.Sprintf("  %-10s %-10s %-10s %10s",
			sip.StartedAt.Format("15:04:05"),
			sip.EndedAt.Format("15:04:05"),
			sip.Duration().Round(100*time.Millisecond).String(),
			fmt.Sprintf("%.1f mL", sip.VolumeML),
		)
		rows = append(rows, styles.TableCellStyle.Render(row))
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
