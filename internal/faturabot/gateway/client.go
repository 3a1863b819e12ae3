package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/faturabot/faturabot/internal/faturabot/billing"
)

// route is the fixed (method, path) pair for one intent.
type route struct {
	method string
	path   string
}

// routes maps each dispatchable intent to its gateway operation. Query
// intents send parameters in the query string; PayBill posts a JSON body.
var routes = map[billing.Intent]route{
	billing.IntentQueryBill:         {http.MethodGet, "/QueryBill/query"},
	billing.IntentQueryBillDetailed: {http.MethodGet, "/QueryBillDetailed/query-detailed"},
	billing.IntentPayBill:           {http.MethodPost, "/Bill/pay"},
}

// tokenSource is the minimal interface the Client needs from the
// Authenticator: read the shared token, refresh it on a 401.
type tokenSource interface {
	Current() string
	Refresh(ctx context.Context) (string, error)
}

// Result is the ephemeral outcome of one dispatch, consumed by the
// formatter in the same turn. StatusCode 0 means the gateway was never
// reached (unknown intent or transport failure) and Body is already
// human-readable.
type Result struct {
	StatusCode int
	Body       string
}

// Text renders the result for the formatter: a 200 yields the raw body,
// anything else a failure string carrying the status code.
func (r Result) Text() string {
	switch r.StatusCode {
	case 0, http.StatusOK:
		return r.Body
	default:
		return fmt.Sprintf("Failed (%d): %s", r.StatusCode, r.Body)
	}
}

// Client dispatches validated billing actions to the gateway.
type Client struct {
	baseURL string
	tokens  tokenSource
	http    *http.Client
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL is the gateway base URL without a trailing slash.
	BaseURL string
	// InsecureTLS skips certificate verification (self-signed deployment).
	InsecureTLS bool
	// Timeout bounds one gateway HTTP call. Defaults to 15 s.
	Timeout time.Duration
}

// NewClient returns a Client using tokens for bearer auth.
func NewClient(cfg ClientConfig, tokens tokenSource) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		tokens:  tokens,
		http:    newHTTPClient(cfg.InsecureTLS, cfg.Timeout),
	}
}

// Execute dispatches one action and returns its Result.
//
// Protocol: attach the bearer token when one is present and issue the
// request. On a 401 the shared token is refreshed once and the identical
// request re-issued once; whatever status the retry produces is final.
// The retry happens even when the refresh itself failed (the stale or empty
// token is knowingly reused); that case is logged distinctly so operators
// can tell an expired token from a broken auth service.
//
// Transport failures and unknown intents never reach the gateway's error
// path; they come back as a local textual Result.
func (c *Client) Execute(ctx context.Context, intent billing.Intent, params map[string]any) Result {
	rt, ok := routes[intent]
	if !ok {
		return Result{Body: fmt.Sprintf("Unknown intent: %s", intent)}
	}

	resp, body, err := c.issue(ctx, rt, params, c.tokens.Current())
	if err != nil {
		return Result{Body: "API call failed: " + err.Error()}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		slog.Info("gateway: unauthorized, refreshing token and retrying", "intent", intent)
		if _, rerr := c.tokens.Refresh(ctx); rerr != nil {
			// Retry-once still happens with the old token; the gateway
			// gets the final say on whether it is usable.
			slog.Warn("gateway: refresh failed, retrying with previous token", "err", rerr)
		}
		resp, body, err = c.issue(ctx, rt, params, c.tokens.Current())
		if err != nil {
			return Result{Body: "API call failed: " + err.Error()}
		}
	}

	return Result{StatusCode: resp.StatusCode, Body: string(body)}
}

// issue builds and performs one HTTP request for the route. A fresh request
// is built per call so the retry after a token refresh reuses nothing.
func (c *Client) issue(ctx context.Context, rt route, params map[string]any, token string) (*http.Response, []byte, error) {
	req, err := c.buildRequest(ctx, rt, params)
	if err != nil {
		return nil, nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, body, nil
}

func (c *Client) buildRequest(ctx context.Context, rt route, params map[string]any) (*http.Request, error) {
	target := c.baseURL + rt.path

	if rt.method == http.MethodGet {
		query := url.Values{}
		for k, v := range params {
			query.Set(k, paramString(v))
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target+"?"+query.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		return req, nil
	}

	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, rt.method, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// paramString renders a parameter value for the query string. JSON numbers
// that are whole print without a fractional part (5, not 5.000000).
func paramString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
