package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/omni-quota/internal/display"
	"github.com/j-veylop/omni-quota/internal/models"
)

func TestModelBar(t *testing.T) {
	m := models.ModelQuota{Name: "Claude Opus 4.5 (Thinking)", Percentage: 42, ResetLabel: "in 2h 5m"}
	out := ansi.Strip(ModelBar(m, display.DefaultPrefs(), 80))

	for _, want := range []string{"Claude Opus 4.5", "42%", "in 2h 5m"} {
		if !strings.Contains(out, want) {
			t.Errorf("ModelBar() = %q, missing %q", out, want)
		}
	}
}

func TestModelBar_NarrowWidth(t *testing.T) {
	m := models.ModelQuota{Name: "A very long model name that will not fit in the label", Percentage: 100}
	out := ansi.Strip(ModelBar(m, display.DefaultPrefs(), 10))
	if !strings.Contains(out, "…") {
		t.Errorf("long labels should be truncated, got %q", out)
	}
	if !strings.Contains(out, "100%") {
		t.Errorf("ModelBar() = %q, missing percentage", out)
	}
}

func TestDotsBar(t *testing.T) {
	m := models.ModelQuota{Name: "Gemini 3 Pro (High)", Percentage: 60}
	out := ansi.Strip(DotsBar(m, display.DefaultPrefs(), 5))
	if out != "G3-Pro ●●●○○" {
		t.Errorf("DotsBar() = %q", out)
	}
}

func TestLoadingBar(t *testing.T) {
	for _, frame := range []int{0, 30, 60, 119} {
		if out := LoadingBar(40, frame); ansi.StringWidth(out) != 40 {
			t.Errorf("frame %d width = %d, want 40", frame, ansi.StringWidth(out))
		}
	}
}
