package quota

import (
	"testing"
	"time"

	"github.com/j-veylop/omni-quota/internal/models"
)

func TestDetectSubscriptionTier(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name      string
		resetTime time.Time
		want      SubscriptionTier
	}{
		{"ZeroTime", time.Time{}, TierUnknown},
		{"PastWithinHour", now.Add(-30 * time.Minute), TierPro},
		{"PastLongAgo", now.Add(-2 * time.Hour), TierUnknown},
		{"FutureHourly", now.Add(1 * time.Hour), TierPro},
		{"FutureDaily", now.Add(7 * time.Hour), TierFree},
		{"FutureThreshold", now.Add(6 * time.Hour), TierPro},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectSubscriptionTier(tt.resetTime, now); got != tt.want {
				t.Errorf("detectSubscriptionTier() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTierFromModels(t *testing.T) {
	now := time.Now()
	at := func(d time.Duration) models.ModelQuota {
		var m models.ModelQuota
		m.SetResetTime(now.Add(d))
		return m
	}

	tests := []struct {
		name   string
		quotas []models.ModelQuota
		want   SubscriptionTier
	}{
		{"Empty", nil, TierUnknown},
		{"SinglePro", []models.ModelQuota{at(time.Hour)}, TierPro},
		{"SingleFree", []models.ModelQuota{at(20 * time.Hour)}, TierFree},
		{"MixedProFree", []models.ModelQuota{at(20 * time.Hour), at(time.Hour)}, TierPro},
		{"NoResetTimes", []models.ModelQuota{{Name: "x"}}, TierUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TierFromModels(tt.quotas, now); got != tt.want {
				t.Errorf("TierFromModels() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectTier_PlanNameWins(t *testing.T) {
	now := time.Now()
	var m models.ModelQuota
	m.SetResetTime(now.Add(time.Hour))

	if got := DetectTier("Google AI Pro", []models.ModelQuota{m}, now); got != "Google AI Pro" {
		t.Errorf("DetectTier() = %q, want plan name", got)
	}
	if got := DetectTier("  ", []models.ModelQuota{m}, now); got != string(TierPro) {
		t.Errorf("DetectTier() = %q, want PRO", got)
	}
}
