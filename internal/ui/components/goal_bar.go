package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/sipsmart/sipstream/internal/ui/styles"
)

// GoalBar renders daily hydration progress as a gradient bar.
type GoalBar struct {
	progress progress.Model
}

// NewGoalBar creates a goal bar with water-themed gradient colors.
func NewGoalBar() GoalBar {
	p := progress.New(
		progress.WithScaledGradient("#4dabf7", "#51cf66"),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)

	return GoalBar{progress: p}
}

// SetWidth sets the progress bar width.
func (g *GoalBar) SetWidth(width int) {
	g.progress.Width = width
}

// View renders the goal bar with consumed and target volumes.
func (g GoalBar) View(consumedML, goalML float64, width int) string {
	percent := 0.0
	if goalML > 0 {
		percent = (consumedML / goalML) * 100
	}
	if percent > 100 {
		percent = 100
	}

	label := fmt.Sprintf("%.0f / %.0f mL", consumedML, goalML)
	labelWidth := len(label) + 1
	percentWidth := 6
	barWidth := width - labelWidth - percentWidth - 2
	if barWidth < 10 {
		barWidth = 10
	}
	g.progress.Width = barWidth

	bar := g.progress.ViewAs(percent / 100)

	labelStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(label)

	percentStr := styles.GetGoalStyle(percent).
		Width(percentWidth).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", percent))

	return lipgloss.JoinHorizontal(
		lipgloss.Center,
		labelStr,
		" ",
		bar,
		" ",
		percentStr,
	)
}
