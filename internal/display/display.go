// Package display turns account snapshots into compact status text.
package display

import (
	"fmt"
	"math"
	"strings"

	"github.com/j-veylop/omni-quota/internal/models"
)

// Status bar styles.
const (
	StyleDots       = "dots"
	StylePercentage = "percentage"
)

// Texts shown when there is no model to render.
const (
	OfflineText        = "⊘ Omni-Quota"
	OnlineNoModelsText = "Online, no models"
)

// Level is the threshold band of a percentage.
type Level string

// Threshold bands, from most to least remaining.
const (
	LevelGood     Level = "good"
	LevelWarn     Level = "warn"
	LevelCritical Level = "critical"
	LevelEmpty    Level = "empty"
)

// Prefs are the user's display preferences.
type Prefs struct {
	Style             string
	WarningThreshold  int
	CriticalThreshold int
	ShowGeminiPro     bool
	ShowGeminiFlash   bool
	ShowOnlyLowQuota  bool
}

// DefaultPrefs returns the out-of-the-box preferences.
func DefaultPrefs() Prefs {
	return Prefs{
		Style:             StyleDots,
		WarningThreshold:  50,
		CriticalThreshold: 30,
		ShowGeminiPro:     true,
		ShowGeminiFlash:   true,
	}
}

// FilterModels drops hidden Gemini variants and, when ShowOnlyLowQuota is set,
// every model at or above the warning threshold. Order is preserved.
func FilterModels(ms []models.ModelQuota, prefs Prefs) []models.ModelQuota {
	out := make([]models.ModelQuota, 0, len(ms))
	for _, m := range ms {
		gemini := strings.Contains(m.Name, "Gemini")
		if !prefs.ShowGeminiPro && gemini && strings.Contains(m.Name, "Pro") {
			continue
		}
		if !prefs.ShowGeminiFlash && gemini && strings.Contains(m.Name, "Flash") {
			continue
		}
		if prefs.ShowOnlyLowQuota && m.Percentage >= prefs.WarningThreshold {
			continue
		}
		out = append(out, m)
	}
	return out
}

// StatusColor maps pct onto a threshold band.
func StatusColor(pct, warn, crit int) Level {
	switch {
	case pct >= warn:
		return LevelGood
	case pct >= crit:
		return LevelWarn
	case pct > 0:
		return LevelCritical
	default:
		return LevelEmpty
	}
}

// Marker returns the status glyph of a band.
func (l Level) Marker() string {
	switch l {
	case LevelGood:
		return "🟢"
	case LevelWarn:
		return "🟡"
	case LevelCritical:
		return "🔴"
	default:
		return "⚫"
	}
}

// Dots renders pct as n filled or empty circles.
func Dots(pct, n int) string {
	if n <= 0 {
		return ""
	}
	pct = max(0, min(100, pct))
	filled := int(math.Round(float64(pct) / 100 * float64(n)))
	return strings.Repeat("●", filled) + strings.Repeat("○", n-filled)
}

var shortNameReplacements = []struct{ old, new string }{
	{"Gemini 3 ", "G3-"},
	{"Claude Sonnet", "Sonnet"},
	{"Claude Opus", "Opus"},
	{" (Thinking)", ""},
	{" (High)", ""},
	{" (Low)", ""},
}

// ShortName abbreviates a model label for the status line.
func ShortName(name string) string {
	for _, r := range shortNameReplacements {
		name = strings.Replace(name, r.old, r.new, 1)
	}
	return name
}

// StatusLine renders the one-line status for snap. The selected model is
// shown when it survives filtering, otherwise the first filtered model.
func StatusLine(snap models.DisplaySnapshot, prefs Prefs, selected string) string {
	if !snap.Connected {
		return OfflineText
	}

	visible := FilterModels(snap.Models, Prefs{
		ShowGeminiPro:   prefs.ShowGeminiPro,
		ShowGeminiFlash: prefs.ShowGeminiFlash,
	})
	if len(visible) == 0 {
		return OnlineNoModelsText
	}

	show := visible[0]
	if selected != "" {
		for _, m := range visible {
			if m.Name == selected {
				show = m
				break
			}
		}
	}

	marker := StatusColor(show.Percentage, prefs.WarningThreshold, prefs.CriticalThreshold).Marker()
	name := ShortName(show.Name)
	if prefs.Style == StylePercentage {
		return fmt.Sprintf("%s %s: %d%%", marker, name, show.Percentage)
	}
	return fmt.Sprintf("%s %s %s", marker, name, Dots(show.Percentage, 5))
}
