// Package models defines data structures and domain types.
package models

import (
	"strings"
	"time"
)

// Identity is the logical account key: installation id + "_" + (email or name).
// It correlates repeated discoveries of one account across restarts and port changes.
type Identity string

// UnknownInstallation is used when no installation id can be resolved.
const UnknownInstallation = "unknown"

// NewIdentity derives the account key. Email is preferred over the display name.
func NewIdentity(installationID, email, displayName string) Identity {
	installationID = strings.TrimSpace(installationID)
	if installationID == "" {
		installationID = UnknownInstallation
	}
	who := strings.TrimSpace(email)
	if who == "" {
		who = strings.TrimSpace(displayName)
	}
	return Identity(installationID + "_" + who)
}

// AccountRecord is one registered account with its last known model quotas.
type AccountRecord struct {
	LastActiveAt time.Time    `json:"lastActiveAt"`
	ID           Identity     `json:"id"`
	DisplayName  string       `json:"displayName"`
	BaseName     string       `json:"baseName,omitempty"`
	Email        string       `json:"email,omitempty"`
	Tier         string       `json:"tier"`
	Models       []ModelQuota `json:"models"`
}

// Clone returns a deep copy of the record.
func (a *AccountRecord) Clone() AccountRecord {
	clone := *a
	clone.Models = CloneModels(a.Models)
	return clone
}

// Name returns the undecorated display name, before any duplicate suffix.
func (a *AccountRecord) Name() string {
	if a.BaseName != "" {
		return a.BaseName
	}
	return a.DisplayName
}

// Model returns the model with the given name, if present.
func (a *AccountRecord) Model(name string) (ModelQuota, bool) {
	for _, m := range a.Models {
		if m.Name == name {
			return m, true
		}
	}
	return ModelQuota{}, false
}

// RefreshLabels recomputes every model's derived reset fields and restores
// the model ordering.
func (a *AccountRecord) RefreshLabels(now time.Time) {
	for i := range a.Models {
		a.Models[i].Refresh(now)
	}
	SortModels(a.Models)
}

// Secret is a per-identity, per-purpose value kept outside the account blob.
type Secret struct {
	ID      Identity
	Purpose string
	Value   string
}

// Secret purposes.
const (
	SecretCSRFToken = "csrf_token"
	SecretAuthToken = "auth_token"
)

// DisplaySnapshot is the last computed primary display value for consumers.
type DisplaySnapshot struct {
	UpdatedAt time.Time    `json:"updatedAt"`
	AccountID Identity     `json:"accountId,omitempty"`
	Name      string       `json:"name,omitempty"`
	Models    []ModelQuota `json:"models,omitempty"`
	Connected bool         `json:"connected"`
}

// HasData returns true if the snapshot carries account data.
func (d *DisplaySnapshot) HasData() bool {
	return d.AccountID != ""
}
