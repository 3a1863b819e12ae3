package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/faturabot/faturabot/common/retry"
)

// errAuthTransport marks transport-level failures of the auth call so the
// retry policy can tell them apart from definitive rejections (4xx/5xx).
var errAuthTransport = errors.New("gateway: auth transport failure")

// AuthConfig configures the Authenticator.
type AuthConfig struct {
	// URL is the full token-minting endpoint, e.g.
	// https://localhost:5001/api/v1/Auth/login.
	URL string
	// Username and Password are the fixed service identity. Not end-user
	// credentials; the assistant authenticates itself to the gateway.
	Username string
	Password string
	// InsecureTLS skips certificate verification (self-signed deployment).
	InsecureTLS bool
	// Timeout bounds one auth HTTP call. Defaults to 15 s.
	Timeout time.Duration
}

// Authenticator mints bearer tokens from the auth service and installs them
// into a shared TokenCell.
type Authenticator struct {
	cfg    AuthConfig
	cell   *TokenCell
	client *http.Client
}

// NewAuthenticator returns an Authenticator writing into cell.
func NewAuthenticator(cfg AuthConfig, cell *TokenCell) *Authenticator {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Authenticator{
		cfg:    cfg,
		cell:   cell,
		client: newHTTPClient(cfg.InsecureTLS, cfg.Timeout),
	}
}

// Current returns the token currently in the cell.
func (a *Authenticator) Current() string {
	return a.cell.Current()
}

// Refresh mints a fresh token and atomically installs it in the cell.
//
// On failure the previous token (if any) is left untouched and the error is
// returned; callers treat that as non-fatal and proceed with the stale or
// empty token, letting the gateway reject it. Transport-level failures are
// retried with backoff; a definitive rejection from the auth service is not.
func (a *Authenticator) Refresh(ctx context.Context) (string, error) {
	var token string
	policy := retry.Policy{
		Attempts:  2,
		Delay:     200 * time.Millisecond,
		Retryable: func(err error) bool { return errors.Is(err, errAuthTransport) },
	}

	err := retry.Do(ctx, policy, func() error {
		t, err := a.mint(ctx)
		if err != nil {
			return err
		}
		token = t
		return nil
	})
	if err != nil {
		slog.Warn("auth: token refresh failed", "err", err)
		return "", err
	}

	a.cell.Set(token)
	slog.Info("auth: token refreshed")
	return token, nil
}

// mint performs one login call.
func (a *Authenticator) mint(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{
		"username": a.cfg.Username,
		"password": a.cfg.Password,
	})
	if err != nil {
		return "", fmt.Errorf("gateway: marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gateway: create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errAuthTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", errAuthTransport, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway: auth rejected (%d): %.200s", resp.StatusCode, data)
	}

	var parsed struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("gateway: decode auth response: %w", err)
	}
	if parsed.Token == "" {
		return "", errors.New("gateway: token not found in auth response")
	}
	return parsed.Token, nil
}

// newHTTPClient builds the HTTP client shared by gateway and auth calls.
// Certificate verification is disabled when insecure is set: the deployment
// fronts both services with a self-signed certificate.
func newHTTPClient(insecure bool, timeout time.Duration) *http.Client {
	client := &http.Client{Timeout: timeout}
	if insecure {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return client
}
