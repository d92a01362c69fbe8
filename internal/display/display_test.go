package display

import (
	"testing"

	"github.com/j-veylop/omni-quota/internal/models"
)

func sampleModels() []models.ModelQuota {
	return []models.ModelQuota{
		{Name: "Gemini 3 Pro (High)", Percentage: 80},
		{Name: "Gemini 3 Flash", Percentage: 40},
		{Name: "Claude Sonnet 4.5 (Thinking)", Percentage: 20},
		{Name: "Claude Opus 4.5", Percentage: 0},
	}
}

func TestFilterModels(t *testing.T) {
	tests := []struct {
		name  string
		prefs Prefs
		want  []string
	}{
		{"AllVisible", DefaultPrefs(), []string{"Gemini 3 Pro (High)", "Gemini 3 Flash", "Claude Sonnet 4.5 (Thinking)", "Claude Opus 4.5"}},
		{"HidePro", Prefs{ShowGeminiFlash: true}, []string{"Gemini 3 Flash", "Claude Sonnet 4.5 (Thinking)", "Claude Opus 4.5"}},
		{"HideFlash", Prefs{ShowGeminiPro: true}, []string{"Gemini 3 Pro (High)", "Claude Sonnet 4.5 (Thinking)", "Claude Opus 4.5"}},
		{"OnlyLow", Prefs{ShowGeminiPro: true, ShowGeminiFlash: true, ShowOnlyLowQuota: true, WarningThreshold: 50}, []string{"Gemini 3 Flash", "Claude Sonnet 4.5 (Thinking)", "Claude Opus 4.5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterModels(sampleModels(), tt.prefs)
			if len(got) != len(tt.want) {
				t.Fatalf("FilterModels() returned %d models, want %d", len(got), len(tt.want))
			}
			for i, m := range got {
				if m.Name != tt.want[i] {
					t.Errorf("model[%d] = %q, want %q", i, m.Name, tt.want[i])
				}
			}
		})
	}
}

func TestStatusColor(t *testing.T) {
	tests := []struct {
		pct  int
		want Level
	}{
		{100, LevelGood},
		{50, LevelGood},
		{49, LevelWarn},
		{30, LevelWarn},
		{29, LevelCritical},
		{1, LevelCritical},
		{0, LevelEmpty},
	}
	for _, tt := range tests {
		if got := StatusColor(tt.pct, 50, 30); got != tt.want {
			t.Errorf("StatusColor(%d) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestDots(t *testing.T) {
	tests := []struct {
		pct, n int
		want   string
	}{
		{100, 5, "●●●●●"},
		{0, 5, "○○○○○"},
		{50, 5, "●●●○○"},
		{42, 5, "●●○○○"},
		{42, 10, "●●●●○○○○○○"},
		{150, 5, "●●●●●"},
		{-3, 5, "○○○○○"},
		{50, 0, ""},
	}
	for _, tt := range tests {
		if got := Dots(tt.pct, tt.n); got != tt.want {
			t.Errorf("Dots(%d, %d) = %q, want %q", tt.pct, tt.n, got, tt.want)
		}
	}
}

func TestShortName(t *testing.T) {
	tests := map[string]string{
		"Gemini 3 Pro (High)":          "G3-Pro",
		"Gemini 3 Flash":               "G3-Flash",
		"Claude Sonnet 4.5 (Thinking)": "Sonnet 4.5",
		"Claude Opus 4.5":              "Opus 4.5",
		"GPT-OSS 120B (Low)":           "GPT-OSS 120B",
		"Model":                        "Model",
	}
	for in, want := range tests {
		if got := ShortName(in); got != want {
			t.Errorf("ShortName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStatusLine(t *testing.T) {
	online := models.DisplaySnapshot{Connected: true, AccountID: "a", Models: sampleModels()}

	tests := []struct {
		name     string
		snap     models.DisplaySnapshot
		prefs    Prefs
		selected string
		want     string
	}{
		{"Offline", models.DisplaySnapshot{}, DefaultPrefs(), "", OfflineText},
		{"OnlineNoModels", models.DisplaySnapshot{Connected: true}, DefaultPrefs(), "", OnlineNoModelsText},
		{"FirstModelDots", online, DefaultPrefs(), "", "🟢 G3-Pro ●●●●○"},
		{"SelectedModel", online, DefaultPrefs(), "Claude Sonnet 4.5 (Thinking)", "🔴 Sonnet 4.5 ●○○○○"},
		{"UnknownSelectionFallsBack", online, DefaultPrefs(), "Nope", "🟢 G3-Pro ●●●●○"},
		{"PercentageStyle", online, Prefs{Style: StylePercentage, WarningThreshold: 50, CriticalThreshold: 30, ShowGeminiPro: true, ShowGeminiFlash: true}, "Gemini 3 Flash", "🟡 G3-Flash: 40%"},
		{"HiddenSelection", online, Prefs{Style: StyleDots, WarningThreshold: 50, CriticalThreshold: 30, ShowGeminiFlash: true}, "Gemini 3 Pro (High)", "🟡 G3-Flash ●●○○○"},
		{"Empty", models.DisplaySnapshot{Connected: true, Models: []models.ModelQuota{{Name: "Claude Opus 4.5"}}}, DefaultPrefs(), "", "⚫ Opus 4.5 ○○○○○"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusLine(tt.snap, tt.prefs, tt.selected); got != tt.want {
				t.Errorf("StatusLine() = %q, want %q", got, tt.want)
			}
		})
	}
}
