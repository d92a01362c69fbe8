package quota

// UserStatusResponse is the GetUserStatus reply.
type UserStatusResponse struct {
	UserStatus *UserStatus `json:"userStatus,omitempty"`
}

// UserStatus describes the signed-in user and their model quotas.
type UserStatus struct {
	CascadeModelConfigData *ModelConfigData `json:"cascadeModelConfigData,omitempty"`
	PlanStatus             *PlanStatus      `json:"planStatus,omitempty"`
	Name                   string           `json:"name,omitempty"`
	Email                  string           `json:"email,omitempty"`
}

// PlanStatus carries plan details and, on some server versions, the model configs.
type PlanStatus struct {
	CascadeModelConfigData *ModelConfigData `json:"cascadeModelConfigData,omitempty"`
	PlanInfo               *PlanInfo        `json:"planInfo,omitempty"`
}

// PlanInfo names the subscription plan.
type PlanInfo struct {
	TeamsTier string `json:"teamsTier,omitempty"`
	PlanName  string `json:"planName,omitempty"`
}

// ModelConfigData lists per-model client configuration.
type ModelConfigData struct {
	ClientModelConfigs []ClientModelConfig `json:"clientModelConfigs,omitempty"`
}

// ClientModelConfig is one model entry.
type ClientModelConfig struct {
	ModelOrAlias *ModelOrAlias `json:"modelOrAlias,omitempty"`
	QuotaInfo    *QuotaInfo    `json:"quotaInfo,omitempty"`
	Label        string        `json:"label,omitempty"`
}

// ModelOrAlias identifies the underlying model.
type ModelOrAlias struct {
	Model string `json:"model,omitempty"`
}

// QuotaInfo holds the remaining fraction (0..1) and the reset timestamp.
type QuotaInfo struct {
	RemainingFraction *float64 `json:"remainingFraction,omitempty"`
	ResetTime         string   `json:"resetTime,omitempty"`
}

// ModelConfigs returns the model list from the primary location, falling
// back to the plan status copy.
func (u *UserStatus) ModelConfigs() []ClientModelConfig {
	if u == nil {
		return nil
	}
	if u.CascadeModelConfigData != nil && len(u.CascadeModelConfigData.ClientModelConfigs) > 0 {
		return u.CascadeModelConfigData.ClientModelConfigs
	}
	if u.PlanStatus != nil && u.PlanStatus.CascadeModelConfigData != nil {
		return u.PlanStatus.CascadeModelConfigData.ClientModelConfigs
	}
	return nil
}

// PlanName returns the plan name, if reported.
func (u *UserStatus) PlanName() string {
	if u == nil || u.PlanStatus == nil || u.PlanStatus.PlanInfo == nil {
		return ""
	}
	if u.PlanStatus.PlanInfo.PlanName != "" {
		return u.PlanStatus.PlanInfo.PlanName
	}
	return u.PlanStatus.PlanInfo.TeamsTier
}
