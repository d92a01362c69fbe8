package models

// Process is a running language server with its embedded token and the TCP
// ports it listens on, in discovery order.
type Process struct {
	Name        string
	CommandLine string
	CSRFToken   string
	Ports       []int
	PID         int
}

// Endpoint is the adopted service port of one process for one discovery cycle.
// It is never persisted.
type Endpoint struct {
	Initial   *UnleashResponse
	CSRFToken string
	// AuthToken is the bearer token the endpoint was adopted with, if any.
	AuthToken string
	PID       int
	Port      int
}

// UnleashResponse is the subset of the GetUnleashData reply the engine uses.
type UnleashResponse struct {
	Context *UnleashContext `json:"context,omitempty"`
}

// UnleashContext carries the feature-flag context of the language server.
type UnleashContext struct {
	Properties *UnleashProperties `json:"properties,omitempty"`
	UserID     string             `json:"userId,omitempty"`
}

// UnleashProperties holds the context properties.
type UnleashProperties struct {
	InstallationID string `json:"installationId,omitempty"`
}

// InstallationID returns the installation id reported by the server, if any.
func (u *UnleashResponse) InstallationID() string {
	if u == nil || u.Context == nil || u.Context.Properties == nil {
		return ""
	}
	return u.Context.Properties.InstallationID
}
