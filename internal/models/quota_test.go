package models

import (
	"testing"
	"time"
)

func TestFormatReset(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		resetAt     time.Time
		wantLabel   string
		wantMinutes int
	}{
		{"hours and minutes", now.Add(125 * time.Minute), "in 2h 5m", 125},
		{"days", now.Add(26*time.Hour + 3*time.Minute), "in 1d 2h 3m", 26*60 + 3},
		{"sub minute rounds down", now.Add(90 * time.Second), "in 0h 1m", 1},
		{"under a minute is ready", now.Add(30 * time.Second), ResetLabelReady, 0},
		{"exactly now", now, ResetLabelReady, 0},
		{"just past", now.Add(-time.Millisecond), ResetLabelReady, 0},
		{"long past", now.Add(-48 * time.Hour), ResetLabelReady, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, minutes := FormatReset(tt.resetAt, now)
			if label != tt.wantLabel {
				t.Errorf("label = %q, want %q", label, tt.wantLabel)
			}
			if minutes != tt.wantMinutes {
				t.Errorf("minutes = %d, want %d", minutes, tt.wantMinutes)
			}
		})
	}
}

func TestModelQuota_Refresh(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	m := ModelQuota{Name: "Pro", Percentage: 40}
	m.SetResetTime(now.Add(61 * time.Minute))
	m.Refresh(now)
	if m.ResetLabel != "in 1h 1m" || m.ResetMinutes != 61 {
		t.Errorf("Refresh() = %q/%d, want in 1h 1m/61", m.ResetLabel, m.ResetMinutes)
	}

	m.Refresh(now.Add(2 * time.Hour))
	if m.ResetLabel != ResetLabelReady || m.ResetMinutes != 0 {
		t.Errorf("Refresh() after reset = %q/%d, want Ready/0", m.ResetLabel, m.ResetMinutes)
	}

	verbatim := ModelQuota{Name: "Flash", ResetLabel: "tomorrow", ResetMinutes: 5}
	verbatim.Refresh(now)
	if verbatim.ResetLabel != "tomorrow" || verbatim.ResetMinutes != 0 {
		t.Errorf("verbatim label changed: %q/%d", verbatim.ResetLabel, verbatim.ResetMinutes)
	}

	missing := ModelQuota{Name: "Flash"}
	missing.Refresh(now)
	if missing.ResetLabel != ResetLabelUnknown {
		t.Errorf("missing label = %q, want %q", missing.ResetLabel, ResetLabelUnknown)
	}
}

func TestModelQuota_ResetTime(t *testing.T) {
	var m ModelQuota
	if !m.ResetTime().IsZero() {
		t.Error("ResetTime() should be zero without ResetAt")
	}

	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	m.SetResetTime(ts)
	if !m.ResetTime().Equal(ts) {
		t.Errorf("ResetTime() = %v, want %v", m.ResetTime(), ts)
	}
}

func TestModelQuota_MigrateLabel(t *testing.T) {
	observed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		label   string
		want    bool
		wantAdd time.Duration
	}{
		{"english", "in 2h 5m", true, 125 * time.Minute},
		{"spanish", "en 2h 5m", true, 125 * time.Minute},
		{"with days", "in 1d 0h 30m", true, 24*time.Hour + 30*time.Minute},
		{"ready", ResetLabelReady, false, 0},
		{"free text", "next week", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ModelQuota{Name: "Pro", ResetLabel: tt.label}
			if got := m.MigrateLabel(observed); got != tt.want {
				t.Fatalf("MigrateLabel() = %v, want %v", got, tt.want)
			}
			if !tt.want {
				if m.ResetAt != nil {
					t.Error("ResetAt set on failed migration")
				}
				return
			}
			if want := observed.Add(tt.wantAdd); !m.ResetTime().Equal(want) {
				t.Errorf("ResetTime() = %v, want %v", m.ResetTime(), want)
			}
		})
	}
}

func TestModelQuota_MigrateLabelOnlyOnce(t *testing.T) {
	observed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := ModelQuota{Name: "Pro", ResetLabel: "in 1h 0m"}
	m.SetResetTime(observed)

	if m.MigrateLabel(observed.Add(time.Hour)) {
		t.Error("MigrateLabel() must not override an existing ResetAt")
	}
	if !m.ResetTime().Equal(observed) {
		t.Errorf("ResetAt changed to %v", m.ResetTime())
	}
}

func TestSortModels(t *testing.T) {
	models := []ModelQuota{
		{Name: "a", Percentage: 10, ResetMinutes: 5},
		{Name: "b", Percentage: 80, ResetMinutes: 90},
		{Name: "c", Percentage: 80, ResetMinutes: 30},
		{Name: "d", Percentage: 100, ResetMinutes: 0},
	}
	SortModels(models)

	want := []string{"d", "c", "b", "a"}
	for i, name := range want {
		if models[i].Name != name {
			t.Errorf("models[%d] = %q, want %q", i, models[i].Name, name)
		}
	}
}

func TestCloneModels(t *testing.T) {
	if CloneModels(nil) != nil {
		t.Error("CloneModels(nil) should be nil")
	}

	original := []ModelQuota{{Name: "Pro", Percentage: 50}}
	original[0].SetResetTime(time.UnixMilli(1000))

	clone := CloneModels(original)
	*clone[0].ResetAt = 2000
	clone[0].Percentage = 1

	if *original[0].ResetAt != 1000 {
		t.Error("clone shares ResetAt with original")
	}
	if original[0].Percentage != 50 {
		t.Error("clone shares backing array with original")
	}
}
