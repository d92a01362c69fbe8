// Package probe talks to the language server's local RPC surface. Every
// request tries TLS first and falls back once to plain HTTP when the port
// does not speak TLS or rejects the secure attempt.
package probe

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/j-veylop/omni-quota/internal/errors"
	"github.com/j-veylop/omni-quota/internal/logger"
	"github.com/j-veylop/omni-quota/internal/metrics"
)

const (
	// ServicePath prefixes every RPC method.
	ServicePath = "/exa.language_server_pb.LanguageServerService/"

	// MethodUnleash is the cheap feature-flag call used for probing.
	MethodUnleash = "GetUnleashData"
	// MethodUserStatus returns the signed-in user and model quotas.
	MethodUserStatus = "GetUserStatus"

	// DefaultHost is the loopback address the language server binds.
	DefaultHost = "127.0.0.1"

	// ProbeTimeout bounds a single probe request.
	ProbeTimeout = 1500 * time.Millisecond
	// FetchTimeout bounds a single status request.
	FetchTimeout = 3 * time.Second

	// ZeroAPIKey is sent when no external credential is available.
	ZeroAPIKey = "00000000-0000-0000-0000-000000000000"

	maxResponseBytes = 4 << 20
	maxErrorBody     = 256
)

// Credentials authenticate a request to one language server.
// AuthToken is optional.
type Credentials struct {
	CSRFToken string
	AuthToken string
}

// Client posts JSON RPCs to local language server ports.
type Client struct {
	secure       *http.Client
	plain        *http.Client
	metrics      *metrics.Metrics
	host         string
	sessionID    string
	probeTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHost overrides the target host.
func WithHost(host string) Option {
	return func(c *Client) {
		c.host = host
	}
}

// WithProbeTimeout overrides ProbeTimeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.probeTimeout = d
		}
	}
}

// WithMetrics records every attempt in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithSessionID fixes the session id sent in request metadata.
func WithSessionID(id string) Option {
	return func(c *Client) {
		c.sessionID = id
	}
}

// New creates a Client. The language server presents a self-signed
// certificate, so verification is disabled for the loopback TLS attempt.
func New(opts ...Option) *Client {
	c := &Client{
		secure: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig:   &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // loopback self-signed
				DisableKeepAlives: true,
				Proxy:             nil,
			},
		},
		plain: &http.Client{
			Transport: &http.Transport{
				DisableKeepAlives: true,
				Proxy:             nil,
			},
		},
		host:         DefaultHost,
		sessionID:    uuid.NewString(),
		probeTimeout: ProbeTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SessionID returns the per-run session id.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Post sends payload to method on port and decodes a 200 response into out.
// out may be nil. The TLS attempt is retried once over plain HTTP on a
// protocol mismatch or a 401/403, never on a timeout.
func (c *Client) Post(ctx context.Context, port int, method string, creds Credentials, payload, out any, timeout time.Duration) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	tlsErr := c.do(ctx, c.secure, "https", port, method, creds, body, out, timeout)
	if tlsErr == nil {
		return nil
	}
	if !shouldFallback(tlsErr) {
		return tlsErr
	}

	httpErr := c.do(ctx, c.plain, "http", port, method, creds, body, out, timeout)
	if httpErr == nil {
		return nil
	}
	return &apperrors.ProtocolFallbackError{Port: port, TLSErr: tlsErr, HTTPErr: httpErr}
}

func (c *Client) do(ctx context.Context, client *http.Client, scheme string, port int, method string,
	creds Credentials, body []byte, out any, timeout time.Duration,
) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := scheme + "://" + net.JoinHostPort(c.host, strconv.Itoa(port)) + ServicePath + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &apperrors.ProbeError{Port: port, Scheme: scheme, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	setHeaders(req, creds)

	resp, err := client.Do(req)
	if err != nil {
		c.metrics.RecordProbe(scheme, "error")
		return &apperrors.ProbeError{Port: port, Scheme: scheme, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Debug("failed to close response body", "error", err)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.metrics.RecordProbe(scheme, "error")
		return &apperrors.ProbeError{Port: port, Scheme: scheme, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		c.metrics.RecordProbe(scheme, "status")
		return &apperrors.ProbeError{Port: port, Scheme: scheme, Err: &apperrors.StatusError{
			Status: resp.StatusCode,
			Body:   truncate(strings.TrimSpace(string(data)), maxErrorBody),
		}}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			c.metrics.RecordProbe(scheme, "decode")
			return &apperrors.ProbeError{Port: port, Scheme: scheme, Err: fmt.Errorf("failed to parse response: %w", err)}
		}
	}

	c.metrics.RecordProbe(scheme, "ok")
	return nil
}

// setHeaders applies the wire contract. Authorization carries the external
// credential as a Bearer token when present, else the raw CSRF token as Basic.
func setHeaders(req *http.Request, creds Credentials) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Codeium-Csrf-Token", creds.CSRFToken)
	if creds.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+creds.AuthToken)
	} else {
		req.Header.Set("Authorization", "Basic "+creds.CSRFToken)
	}
	req.Close = true
}

// shouldFallback reports whether a failed TLS attempt warrants one plain retry.
func shouldFallback(err error) bool {
	if apperrors.IsStatus(err, http.StatusUnauthorized, http.StatusForbidden) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return false
	}

	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	if errors.Is(err, syscall.EPROTO) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "server gave HTTP response to HTTPS client") ||
		strings.Contains(msg, "first record does not look like a TLS handshake")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
