package quota

import (
	"strings"
	"time"

	"github.com/j-veylop/omni-quota/internal/models"
)

// SubscriptionTier represents the user's subscription level.
type SubscriptionTier string

const (
	// TierFree represents the free subscription tier.
	TierFree SubscriptionTier = "FREE"
	// TierPro represents the paid pro subscription tier.
	TierPro SubscriptionTier = "PRO"
	// TierUnknown represents an unknown subscription tier.
	TierUnknown SubscriptionTier = "UNKNOWN"
)

// TierThreshold is the reset time threshold for tier detection.
// PRO tier resets hourly (<=6 hours), FREE tier resets daily (>6 hours).
const TierThreshold = 6 * time.Hour

// detectSubscriptionTier determines the subscription tier based on reset time.
func detectSubscriptionTier(resetTime, now time.Time) SubscriptionTier {
	if resetTime.IsZero() {
		return TierUnknown
	}

	duration := resetTime.Sub(now)

	// If reset time is in the past, we can't determine tier
	if duration < 0 {
		// Check if it was within the last hour (PRO likely)
		if duration > -1*time.Hour {
			return TierPro
		}
		return TierUnknown
	}

	if duration <= TierThreshold {
		return TierPro
	}
	return TierFree
}

// TierFromModels determines the overall tier from the models' reset times.
// If any model shows PRO tier, the account is PRO.
func TierFromModels(quotas []models.ModelQuota, now time.Time) SubscriptionTier {
	hasFree := false
	for i := range quotas {
		switch detectSubscriptionTier(quotas[i].ResetTime(), now) {
		case TierPro:
			return TierPro
		case TierFree:
			hasFree = true
		}
	}
	if hasFree {
		return TierFree
	}
	return TierUnknown
}

// DetectTier prefers the reported plan name over the reset-time heuristic.
func DetectTier(planName string, quotas []models.ModelQuota, now time.Time) string {
	if plan := strings.TrimSpace(planName); plan != "" {
		return plan
	}
	return string(TierFromModels(quotas, now))
}
