// Package models defines data structures and domain types.
package models

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// Reset labels rendered when no countdown applies.
const (
	ResetLabelReady   = "Ready"
	ResetLabelUnknown = "Unknown"
)

// ModelQuota represents the remaining quota for a single model.
// ResetAt is the only durable reset value; ResetLabel and ResetMinutes are
// derived from it by Refresh.
type ModelQuota struct {
	ResetAt      *int64 `json:"resetAt,omitempty"`
	Name         string `json:"name"`
	ResetLabel   string `json:"resetLabel,omitempty"`
	Percentage   int    `json:"percentage"`
	ResetMinutes int    `json:"resetMinutes"`
}

// ResetTime returns ResetAt as a time.Time, or the zero time when unknown.
func (m *ModelQuota) ResetTime() time.Time {
	if m.ResetAt == nil {
		return time.Time{}
	}
	return time.UnixMilli(*m.ResetAt)
}

// SetResetTime stores t as the durable reset timestamp.
func (m *ModelQuota) SetResetTime(t time.Time) {
	ms := t.UnixMilli()
	m.ResetAt = &ms
}

// Refresh recomputes ResetLabel and ResetMinutes from ResetAt.
// Without ResetAt the label is left as-is (a verbatim server string) and
// ResetMinutes is zero.
func (m *ModelQuota) Refresh(now time.Time) {
	if m.ResetAt == nil {
		m.ResetMinutes = 0
		if m.ResetLabel == "" {
			m.ResetLabel = ResetLabelUnknown
		}
		return
	}
	m.ResetLabel, m.ResetMinutes = FormatReset(m.ResetTime(), now)
}

// FormatReset renders the countdown to resetAt as "in {d}d {h}h {m}m",
// omitting the day component when zero, or ResetLabelReady once due.
func FormatReset(resetAt, now time.Time) (label string, minutes int) {
	minutes = int(math.Floor(float64(resetAt.Sub(now).Milliseconds()) / 60000))
	if minutes <= 0 {
		return ResetLabelReady, 0
	}

	days := minutes / (24 * 60)
	hours := (minutes % (24 * 60)) / 60
	mins := minutes % 60
	if days > 0 {
		return fmt.Sprintf("in %dd %dh %dm", days, hours, mins), minutes
	}
	return fmt.Sprintf("in %dh %dm", hours, mins), minutes
}

var legacyLabelRe = regexp.MustCompile(`^(?:in|en)\s+(?:(\d+)d\s*)?(\d+)h\s*(\d+)m$`)

// MigrateLabel converts a legacy rendered countdown ("in 2h 5m") into ResetAt,
// measured from observedAt. It only applies to records persisted before
// ResetAt existed and reports whether a migration happened.
func (m *ModelQuota) MigrateLabel(observedAt time.Time) bool {
	if m.ResetAt != nil || observedAt.IsZero() {
		return false
	}
	match := legacyLabelRe.FindStringSubmatch(m.ResetLabel)
	if match == nil {
		return false
	}
	days, _ := strconv.Atoi(match[1])
	hours, _ := strconv.Atoi(match[2])
	mins, _ := strconv.Atoi(match[3])
	total := time.Duration(days*24*60+hours*60+mins) * time.Minute
	m.SetResetTime(observedAt.Add(total))
	return true
}

// SortModels orders models by descending percentage, breaking ties by the
// soonest reset.
func SortModels(models []ModelQuota) {
	sort.SliceStable(models, func(i, j int) bool {
		if models[i].Percentage != models[j].Percentage {
			return models[i].Percentage > models[j].Percentage
		}
		return models[i].ResetMinutes < models[j].ResetMinutes
	})
}

// CloneModels returns a deep copy of models.
func CloneModels(models []ModelQuota) []ModelQuota {
	if models == nil {
		return nil
	}
	out := make([]ModelQuota, len(models))
	for i, m := range models {
		out[i] = m
		if m.ResetAt != nil {
			v := *m.ResetAt
			out[i].ResetAt = &v
		}
	}
	return out
}
