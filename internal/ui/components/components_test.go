package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

func TestScanLabel(t *testing.T) {
	tests := []struct {
		want      string
		endpoints int
		elapsed   time.Duration
	}{
		{"Looking for language servers...", 0, 200 * time.Millisecond},
		{"Looking for language servers... 3s", 0, 3500 * time.Millisecond},
		{"Reading quota from 1 language server...", 1, 0},
		{"Reading quota from 2 language servers... 1s", 2, time.Second},
	}
	for _, tt := range tests {
		if got := ScanLabel(tt.endpoints, tt.elapsed); got != tt.want {
			t.Errorf("ScanLabel(%d, %v) = %q, want %q", tt.endpoints, tt.elapsed, got, tt.want)
		}
	}
}

func TestScanSpinner_View(t *testing.T) {
	start := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	s := NewScanSpinner(start)

	if s.Init() == nil {
		t.Error("Init should return command")
	}
	if _, cmd := s.Update(spinner.TickMsg{}); cmd == nil {
		t.Error("Update should return command for tick")
	}

	view := s.View(0, start.Add(time.Second))
	if !strings.Contains(view, "Looking for language servers... 1s") {
		t.Errorf("View = %q", view)
	}
	if strings.Contains(view, "Antigravity window") {
		t.Error("hint should wait for a slow scan")
	}
	if view := s.View(0, start.Add(6*time.Second)); !strings.Contains(view, "Antigravity window") {
		t.Errorf("slow scan should show the hint, got %q", view)
	}
	if view := s.View(1, start.Add(6*time.Second)); strings.Contains(view, "Antigravity window") {
		t.Error("hint should not show once a server answered")
	}

	centered := RenderScanCentered(s, 0, start, 60, 10)
	if !strings.Contains(centered, "Looking for language servers") {
		t.Errorf("RenderScanCentered = %q", centered)
	}
}

func TestRenderHistoryChart(t *testing.T) {
	if out := RenderHistoryChart(nil, 40, 5, "x"); !strings.Contains(out, "No history yet") {
		t.Errorf("empty chart = %q", out)
	}

	out := RenderHistoryChart([]float64{90, 70, 40}, 40, 5, "Claude")
	if !strings.Contains(out, "Claude") {
		t.Errorf("chart missing caption: %q", out)
	}
	if !strings.Contains(out, "100") {
		t.Errorf("chart should be scaled to 100: %q", out)
	}

	if RenderHistoryChart([]float64{50}, 40, 5, "one") == "" {
		t.Error("single point chart returned empty")
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline([]float64{0, 50, 100}, 10); got != "▁▄█" {
		t.Errorf("RenderSparkline() = %q", got)
	}
	if got := RenderSparkline([]float64{0, 0, 100, 100}, 2); got != "██" {
		t.Errorf("RenderSparkline() keeps latest values, got %q", got)
	}
	if RenderSparkline(nil, 10) != "" {
		t.Error("empty sparkline should render nothing")
	}
}

func TestRenderHistoryCaption(t *testing.T) {
	if got := RenderHistoryCaption("Claude", 1); got != "Claude (1 sample)" {
		t.Errorf("caption = %q", got)
	}
	if got := RenderHistoryCaption("Claude", 3); got != "Claude (3 samples)" {
		t.Errorf("caption = %q", got)
	}
}
