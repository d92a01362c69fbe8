// Package quota fetches user status from an adopted language server endpoint
// and normalizes it into account records.
package quota

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/j-veylop/omni-quota/internal/logger"
	"github.com/j-veylop/omni-quota/internal/models"
	"github.com/j-veylop/omni-quota/internal/probe"
)

// CredentialSource supplies the optional external token and the on-disk
// installation id.
type CredentialSource interface {
	AuthToken() (string, bool)
	InstallationID() string
}

type userStatusMetadata struct {
	IDEName       string `json:"ideName"`
	ExtensionName string `json:"extensionName"`
	IDEVersion    string `json:"ideVersion"`
	Locale        string `json:"locale"`
}

type userStatusRequest struct {
	Metadata userStatusMetadata `json:"metadata"`
}

// Fetcher retrieves and normalizes quota data.
type Fetcher struct {
	client *probe.Client
	creds  CredentialSource
	now    func() time.Time
	locale string
}

// NewFetcher creates a Fetcher. creds may be nil.
func NewFetcher(client *probe.Client, creds CredentialSource) *Fetcher {
	return &Fetcher{
		client: client,
		creds:  creds,
		now:    time.Now,
		locale: "en",
	}
}

// SetLocale overrides the locale sent in request metadata.
func (f *Fetcher) SetLocale(locale string) {
	if locale = strings.TrimSpace(locale); locale != "" && locale != "auto" {
		f.locale = locale
	}
}

// Status performs the warm-up call followed by GetUserStatus.
func (f *Fetcher) Status(ctx context.Context, ep models.Endpoint) (*UserStatusResponse, error) {
	creds := probe.Credentials{CSRFToken: ep.CSRFToken, AuthToken: ep.AuthToken}
	if creds.AuthToken == "" && f.creds != nil {
		creds.AuthToken, _ = f.creds.AuthToken()
	}

	// The server initializes its client state on GetUnleashData.
	if err := f.client.Post(ctx, ep.Port, probe.MethodUnleash, creds,
		f.client.UnleashPayload(""), nil, probe.FetchTimeout); err != nil {
		logger.Debug("Warm-up request failed", "pid", ep.PID, "port", ep.Port, "error", err)
	}

	payload := userStatusRequest{Metadata: userStatusMetadata{
		IDEName:       "vscode",
		ExtensionName: "vscode",
		IDEVersion:    "1.75.0",
		Locale:        f.locale,
	}}

	var resp UserStatusResponse
	if err := f.client.Post(ctx, ep.Port, probe.MethodUserStatus, creds, payload, &resp, probe.FetchTimeout); err != nil {
		return nil, fmt.Errorf("failed to fetch user status: %w", err)
	}
	return &resp, nil
}

// FetchStatus returns the account record served by ep. Placeholder or
// incomplete data is refused with a *errors.ValidationError.
func (f *Fetcher) FetchStatus(ctx context.Context, ep models.Endpoint) (*models.AccountRecord, error) {
	resp, err := f.Status(ctx, ep)
	if err != nil {
		return nil, err
	}
	rec := f.BuildRecord(ep, resp)
	if err := models.Validate(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// BuildRecord maps a status response onto an account record.
func (f *Fetcher) BuildRecord(ep models.Endpoint, resp *UserStatusResponse) *models.AccountRecord {
	now := f.now()
	us := resp.UserStatus

	rec := &models.AccountRecord{LastActiveAt: now}
	if us != nil {
		rec.DisplayName = strings.TrimSpace(us.Name)
		rec.Email = strings.TrimSpace(us.Email)
		rec.Models = NormalizeModels(us.ModelConfigs(), now)
	}
	rec.BaseName = rec.DisplayName
	rec.Tier = DetectTier(us.PlanName(), rec.Models, now)
	rec.ID = models.NewIdentity(f.installationID(ep), rec.Email, rec.DisplayName)
	return rec
}

func (f *Fetcher) installationID(ep models.Endpoint) string {
	if id := ep.Initial.InstallationID(); id != "" {
		return id
	}
	if f.creds != nil {
		if id := f.creds.InstallationID(); id != "" {
			return id
		}
	}
	return models.UnknownInstallation
}
