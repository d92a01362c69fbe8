package probe

import (
	"context"
	"errors"
	"fmt"

	"github.com/j-veylop/omni-quota/internal/discovery"
	"github.com/j-veylop/omni-quota/internal/logger"
	"github.com/j-veylop/omni-quota/internal/models"
)

// TokenSource supplies the optional external credential.
type TokenSource interface {
	AuthToken() (string, bool)
}

type unleashMetadata struct {
	APIKey           string `json:"api_key"`
	ExtensionName    string `json:"extension_name"`
	ExtensionVersion string `json:"extension_version"`
	IDEName          string `json:"ide_name"`
	IDEVersion       string `json:"ide_version"`
	SessionID        string `json:"session_id"`
}

type unleashRequest struct {
	Metadata unleashMetadata `json:"metadata"`
}

// UnleashPayload builds the GetUnleashData request body.
func (c *Client) UnleashPayload(authToken string) any {
	apiKey := authToken
	if apiKey == "" {
		apiKey = ZeroAPIKey
	}
	return unleashRequest{Metadata: unleashMetadata{
		APIKey:           apiKey,
		ExtensionName:    "vscode",
		ExtensionVersion: "1.2.3",
		IDEName:          "visual_studio_code",
		IDEVersion:       "1.75.0",
		SessionID:        c.sessionID,
	}}
}

// Probe checks whether port serves the RPC surface. Success requires a 200
// response with a JSON body.
func (c *Client) Probe(ctx context.Context, port int, creds Credentials) (*models.UnleashResponse, error) {
	var resp models.UnleashResponse
	if err := c.Post(ctx, port, MethodUnleash, creds, c.UnleashPayload(creds.AuthToken), &resp, c.probeTimeout); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Adopt probes proc's ports in discovery order and returns the first that
// responds. Later ports are not contacted once one succeeds.
func (c *Client) Adopt(ctx context.Context, proc models.Process, authToken string) (*models.Endpoint, error) {
	creds := Credentials{CSRFToken: proc.CSRFToken, AuthToken: authToken}

	var errs []error
	for _, port := range proc.Ports {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		initial, err := c.Probe(ctx, port, creds)
		if err != nil {
			logger.Debug("Probe failed", "pid", proc.PID, "port", port, "error", err)
			errs = append(errs, err)
			continue
		}
		logger.Debug("Adopted endpoint", "pid", proc.PID, "port", port)
		return &models.Endpoint{
			PID:       proc.PID,
			Port:      port,
			CSRFToken: proc.CSRFToken,
			Initial:   initial,
		}, nil
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("process %d has no listening ports", proc.PID)
	}
	return nil, fmt.Errorf("no responsive port for process %d: %w", proc.PID, errors.Join(errs...))
}

// Discoverer combines process location with port adoption.
type Discoverer struct {
	locator discovery.Locator
	client  *Client
	tokens  TokenSource
}

// NewDiscoverer creates a Discoverer. tokens may be nil.
func NewDiscoverer(locator discovery.Locator, client *Client, tokens TokenSource) *Discoverer {
	return &Discoverer{locator: locator, client: client, tokens: tokens}
}

// Client returns the underlying RPC client.
func (d *Discoverer) Client() *Client {
	return d.client
}

// Discover returns the adopted endpoint of every responsive process, in
// discovery order. Processes with no responsive port are omitted. Only a
// locator capability failure is returned as an error.
func (d *Discoverer) Discover(ctx context.Context) ([]models.Endpoint, error) {
	procs, err := d.locator.Discover(ctx)
	if err != nil {
		return nil, err
	}

	var authToken string
	if d.tokens != nil {
		authToken, _ = d.tokens.AuthToken()
	}

	endpoints := make([]models.Endpoint, 0, len(procs))
	for _, proc := range procs {
		ep, err := d.client.Adopt(ctx, proc, authToken)
		if err != nil {
			if ctx.Err() != nil {
				return endpoints, nil
			}
			logger.Debug("Process not adopted", "pid", proc.PID, "error", err)
			continue
		}
		ep.AuthToken = authToken
		endpoints = append(endpoints, *ep)
	}
	return endpoints, nil
}
