package components

import (
	"strings"

	"testing"

	"github.com/sipsmart/sipstream/internal/models"
	"github.com/sipsmart/sipstream/internal/ui/styles"
)

func TestRenderFlowChart(t *testing.T) {
	t.Run("empty series", func(t *testing.T) {
		got := RenderFlowChart(nil, 40, 8, "last 120s")
		if !strings.Contains(got, "No flow data yet") {
			t.Errorf("expected empty-series placeholder, got %q", got)
		}
	})

	t.Run("plots with caption", func(t *testing.T) {
		points := []models.ChartPoint{
			{RelSeconds: 0, FlowRateLPM: 0},
			{RelSeconds: 1, FlowRateLPM: 2.4},
			{RelSeconds: 2, FlowRateLPM: 1.1},
		}
		got := RenderFlowChart(points, 40, 8, "last 120s")
		if !strings.Contains(got, "last 120s") {
			t.Errorf("expected caption in chart output, got %q", got)
		}
		if strings.Contains(got, "No flow data") {
			t.Error("expected a plotted chart, got the placeholder")
		}
	})
}

func TestRenderLineChart_Empty(t *testing.T) {
	got := RenderLineChart(nil, 40, 8, "")
	if !strings.Contains(got, "No data available") {
		t.Errorf("expected placeholder for empty data, got %q", got)
	}
}

func TestRenderSparkline(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if got := RenderSparkline(nil, 20); got != "" {
			t.Errorf("expected empty output, got %q", got)
		}
	})

	t.Run("scales to max", func(t *testing.T) {
		got := RenderSparkline([]float64{0, 8}, 2)
		runes := []rune(got)
		if len(runes) != 2 {
			t.Fatalf("expected 2 spark characters, got %d in %q", len(runes), got)
		}
		if runes[0] != '▁' {
			t.Errorf("expected minimum spark character first, got %q", runes[0])
		}
		if runes[1] != '█' {
			t.Errorf("expected maximum spark character last, got %q", runes[1])
		}
	})

	t.Run("all zero values", func(t *testing.T) {
		got := RenderSparkline([]float64{0, 0, 0}, 3)
		for _, r := range got {
			if r != '▁' {
				t.Errorf("expected flat sparkline, got %q", got)
			}
		}
	})
}

func TestRenderLegend(t *testing.T) {
	got := RenderLegend([]LegendItem{
		{Label: "flow", Color: styles.Primary},
		{Label: "volume", Color: styles.Secondary},
	})
	if !strings.Contains(got, "flow") || !strings.Contains(got, "volume") {
		t.Errorf("expected both labels in legend, got %q", got)
	}
	if strings.Count(got, "■") != 2 {
		t.Errorf("expected one color box per entry, got %q", got)
	}
}

func TestGoalBar_View(t *testing.T) {
	bar := NewGoalBar()

	t.Run("normal progress", func(t *testing.T) {
		got := bar.View(500, 2000, 60)
		if !strings.Contains(got, "500 / 2000 mL") {
			t.Errorf("expected volume label, got %q", got)
		}
		if !strings.Contains(got, "25%") {
			t.Errorf("expected 25%% progress, got %q", got)
		}
		if strings.Count(got, "█") == 0 {
			t.Errorf("expected filled bar cells at 25%%, got %q", got)
		}
	})

	t.Run("empty bar at zero", func(t *testing.T) {
		got := bar.View(0, 2000, 60)
		if strings.Count(got, "█") != 0 {
			t.Errorf("expected no filled cells at 0%%, got %q", got)
		}
	})

	t.Run("overshoot clamps to 100", func(t *testing.T) {
		got := bar.View(3000, 2000, 60)
		if !strings.Contains(got, "100%") {
			t.Errorf("expected clamped 100%%, got %q", got)
		}
		if strings.Count(got, "░") != 0 {
			t.Errorf("expected no empty cells at 100%%, got %q", got)
		}
	})

	t.Run("zero goal", func(t *testing.T) {
		got := bar.View(500, 0, 60)
		if !strings.Contains(got, "0%") {
			t.Errorf("expected 0%% with no goal, got %q", got)
		}
	})
}
