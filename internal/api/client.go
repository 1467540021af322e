// Package api implements the authenticated request pipeline against the
// Kickstart platform: connectivity gating, bearer injection, uniform error
// normalization, and 401 refresh-and-replay with at most one retry per
// logical call.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kickstart/client/internal/connectivity"
	"github.com/kickstart/client/internal/logging"
)

// maxBodyBytes caps how much of a response body is buffered for decoding
// and diagnostics.
const maxBodyBytes = 4 << 20

// CredentialProvider supplies the current bearer credential and accepts
// updates from the refresh flow. Implementations must be safe for
// concurrent use; the auth store is the canonical implementation.
type CredentialProvider interface {
	Token() string
	UpdateToken(token string)
	Clear()
}

// Options configures a Client.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	Credentials CredentialProvider
	Checker     connectivity.Checker

	// Outbound throttle. Zero values disable the limiter.
	RequestsPerSecond float64
	Burst             int

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client issues HTTP calls with consistent base configuration and a uniform
// error shape.
type Client struct {
	baseURL string
	http    *http.Client
	creds   CredentialProvider
	checker connectivity.Checker
	limiter *rate.Limiter
	logger  *slog.Logger

	// refreshMu serializes refresh attempts so concurrent 401s collapse
	// into a single refresh call. lostStale remembers the credential whose
	// refresh already failed, so waiters queued behind that failure fail
	// fast instead of re-issuing the refresh.
	refreshMu   sync.Mutex
	refreshLost bool
	lostStale   string
}

// New constructs a Client. Credentials must not be nil.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("api: base URL must be provided")
	}
	if opts.Credentials == nil {
		return nil, fmt.Errorf("api: credential provider must be provided")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	checker := opts.Checker
	if checker == nil {
		checker = connectivity.Static(true)
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: opts.BaseURL,
		http:    httpClient,
		creds:   opts.Credentials,
		checker: checker,
		limiter: limiter,
		logger:  logger,
	}, nil
}

// get issues a GET and decodes the envelope's data field into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// post issues a POST with a JSON body and decodes the envelope's data field
// into out. Both body and out may be nil.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, span := logging.StartCall(ctx, method, path)

	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			span.End(0, err)
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = encoded
	}

	builder := func() (*http.Request, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	}

	status, err := c.dispatch(ctx, builder, out, 0)
	span.End(status, err)
	return err
}

// dispatch runs one attempt of the request pipeline. attempt carries the
// per-call retry state: a 401 triggers refresh-and-replay only when
// attempt is zero, so a single logical call is retried at most once.
func (c *Client) dispatch(ctx context.Context, builder func() (*http.Request, error), out any, attempt int) (int, error) {
	if !c.checker.Online(ctx) {
		return 0, networkUnavailable()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, &Error{Message: msgGeneric}
		}
	}

	req, err := builder()
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	token := c.creds.Token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		// No response received: re-check connectivity before falling back
		// to the generic error.
		if !c.checker.Online(ctx) {
			return 0, networkUnavailable()
		}
		return 0, &Error{Message: msgGeneric}
	}

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	_ = resp.Body.Close()
	if readErr != nil {
		return resp.StatusCode, &Error{Message: msgGeneric, Status: resp.StatusCode}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.StatusCode, decodeData(raw, out)
	}

	if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
		if err := c.refreshCredential(ctx, token); err != nil {
			return resp.StatusCode, err
		}
		return c.dispatch(ctx, builder, out, attempt+1)
	}

	return resp.StatusCode, fromResponse(resp.StatusCode, raw)
}

// refreshCredential exchanges the stale bearer token for a fresh one.
// Attempts are serialized; a caller that lost the race to a concurrent
// refresh observes the outcome of the refresh that beat it (the swapped
// credential or the recorded failure) and returns immediately without
// issuing its own call. On failure the credential is cleared and the
// caller must re-authenticate.
func (c *Client) refreshCredential(ctx context.Context, stale string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if current := c.creds.Token(); current != "" && current != stale {
		return nil
	}
	if c.refreshLost && c.lostStale == stale {
		return sessionExpired()
	}
	// Nothing to exchange: a refresh without the stale bearer is doomed,
	// so don't bother the server.
	if stale == "" {
		return sessionExpired()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathRefreshToken, nil)
	if err != nil {
		return fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if stale != "" {
		req.Header.Set("Authorization", "Bearer "+stale)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("token refresh failed", "error", err)
		return c.refreshFailedLocked(stale)
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	_ = resp.Body.Close()

	if readErr != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("token refresh rejected", "status", resp.StatusCode)
		return c.refreshFailedLocked(stale)
	}

	var refreshed struct {
		Token string `json:"token"`
	}
	if err := decodeData(raw, &refreshed); err != nil || refreshed.Token == "" {
		c.logger.Warn("token refresh returned no credential")
		return c.refreshFailedLocked(stale)
	}

	c.refreshLost = false
	c.creds.UpdateToken(refreshed.Token)
	c.logger.Info("credential refreshed")
	return nil
}

// refreshFailedLocked records a lost refresh and tears down the
// credential. Callers hold refreshMu.
func (c *Client) refreshFailedLocked(stale string) error {
	c.refreshLost = true
	c.lostStale = stale
	c.creds.Clear()
	return sessionExpired()
}

// decodeData unpacks the uniform { status, message, data } envelope and
// unmarshals its data field into out.
func decodeData(raw []byte, out any) error {
	if out == nil {
		return nil
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &Error{Message: msgGeneric, Body: raw}
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return &Error{Message: msgGeneric, Body: raw}
	}
	return nil
}
