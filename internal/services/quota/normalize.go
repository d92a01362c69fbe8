package quota

import (
	"math"
	"strings"
	"time"

	"github.com/j-veylop/omni-quota/internal/models"
)

// DefaultModelName is used when a config carries neither label nor model alias.
const DefaultModelName = "Model"

// NormalizeModels converts raw model configs into sorted ModelQuota values.
func NormalizeModels(configs []ClientModelConfig, now time.Time) []models.ModelQuota {
	out := make([]models.ModelQuota, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, normalizeModel(cfg, now))
	}
	models.SortModels(out)
	return out
}

func normalizeModel(cfg ClientModelConfig, now time.Time) models.ModelQuota {
	m := models.ModelQuota{Name: modelName(cfg), ResetLabel: models.ResetLabelUnknown}

	if cfg.QuotaInfo == nil {
		return m
	}
	if cfg.QuotaInfo.RemainingFraction != nil {
		m.Percentage = PercentFromFraction(*cfg.QuotaInfo.RemainingFraction)
	}

	raw := strings.TrimSpace(cfg.QuotaInfo.ResetTime)
	if raw == "" {
		return m
	}
	resetAt, ok := ParseResetTime(raw)
	if !ok {
		m.ResetLabel = raw
		return m
	}
	m.SetResetTime(resetAt)
	m.Refresh(now)
	return m
}

// zonedResetLayouts are tried in order. Fractional seconds are accepted by
// every layout.
var zonedResetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02",
}

// ParseResetTime parses an ISO-8601 reset timestamp. Date-times without a
// zone are read in local time, date-only values in UTC.
func ParseResetTime(raw string) (time.Time, bool) {
	for _, layout := range zonedResetLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", raw, time.Local); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func modelName(cfg ClientModelConfig) string {
	if name := strings.TrimSpace(cfg.Label); name != "" {
		return name
	}
	if cfg.ModelOrAlias != nil {
		if name := strings.TrimSpace(cfg.ModelOrAlias.Model); name != "" {
			return name
		}
	}
	return DefaultModelName
}

// PercentFromFraction rounds fraction*100 half away from zero and clamps to 0..100.
func PercentFromFraction(fraction float64) int {
	if math.IsNaN(fraction) {
		return 0
	}
	pct := math.Round(fraction * 100)
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return int(pct)
}
