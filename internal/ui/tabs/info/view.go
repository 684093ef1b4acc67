package info

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/sipsmart/sipstream/internal/ui/styles"
	"github.com/sipsmart/sipstream/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderConfigCard())
	sections = append(sections, m.renderKeysCard())
	sections = append(sections, m.renderAboutCard())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderTitle renders the info tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration and application information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	cardWidth := m.width - 6
	if cardWidth < 50 {
		cardWidth = 50
	}
	if cardWidth > 80 {
		cardWidth = 80
	}
	return cardWidth
}

// renderConfigCard renders the effective configuration card.
func (m *Model) renderConfigCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"))
	rows = append(rows, "")

	if m.config != nil {
		rows = append(rows, m.renderConfigRow("Device Name", m.config.DeviceName))
		rows = append(rows, m.renderConfigRow("Characteristic", m.config.Characteristic))
		rows = append(rows, m.renderConfigRow("Sip Threshold", fmt.Sprintf("%.1f mL", m.config.SipThresholdML)))
		rows = append(rows, m.renderConfigRow("Sip Gap", m.config.SipGap.String()))
		rows = append(rows, m.renderConfigRow("Chart Window", m.config.ChartWindow.String()))
		rows = append(rows, m.renderConfigRow("Refresh", m.config.RefreshInterval.String()))
		rows = append(rows, m.renderConfigRow("Scan Timeout", m.config.ScanTimeout.String()))
		rows = append(rows, m.renderConfigRow("Database", m.config.DatabasePath))
		rows = append(rows, m.renderConfigRow("Daily Goal", fmt.Sprintf("%.0f mL", m.config.DailyGoalML)))

		if path := m.config.EnvPath(); path != "" {
			rows = append(rows, "")
			rows = append(rows, m.renderConfigRow("Env File", path))
			rows = append(rows, styles.HelpStyle.Render("Tuning reloads automatically on save"))
		}
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderConfigRow renders a configuration key-value row.
func (m *Model) renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// renderKeysCard renders the stream control key reference.
func (m *Model) renderKeysCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Stream Controls"))
	rows = append(rows, "")
	rows = append(rows, m.renderConfigRow("s", "start stream"))
	rows = append(rows, m.renderConfigRow("d", "disconnect / stop"))
	rows = append(rows, m.renderConfigRow("x", "reset session"))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderAboutCard renders the about/version information card.
func (m *Model) renderAboutCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About SipStream"))
	rows = append(rows, "")

	rows = append(rows, m.renderConfigRow("Version", version.Short()))
	rows = append(rows, m.renderConfigRow("Build Date", version.BuildDate()))
	rows = append(rows, m.renderConfigRow("Git Commit", version.CommitHash()))
	rows = append(rows, m.renderConfigRow("Go Version", runtime.Version()))
	rows = append(rows, m.renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)))
	rows = append(rows, "")

	stats := m.state.GetStats()
	rows = append(rows, fmt.Sprintf("Recorded sips: %s", styles.InfoTextStyle.Render(fmt.Sprintf("%d", stats.SipCount))))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
