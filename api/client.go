// Package api implements the authenticated HTTP client for the storefront
// backend. It attaches the bearer access token to outbound requests and
// transparently recovers from token expiry: a 401 on a non-auth endpoint
// triggers a single shared refresh call, after which the failing request is
// retried exactly once. Refresh exhaustion clears the persisted credential and
// signals the caller to re-authenticate.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	clienterrors "github.com/shdpixel/storefront-client/internal/errors"
	"github.com/shdpixel/storefront-client/store"
	"github.com/shdpixel/storefront-client/token"
)

const refreshPath = "/auth/refresh"

// authBoundaryPaths are endpoints where a 401 is an expected, meaningful answer
// (bad credentials, expired refresh cookie). Attempting a refresh for these
// would loop or mask the real failure.
var authBoundaryPaths = []string{
	"/auth/login",
	"/auth/register",
	"/auth/logout",
	"/auth/admin/login",
	refreshPath,
}

// Client performs authenticated requests against the storefront API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      store.Store
	tokenKey   string
	canRefresh bool
	log        zerolog.Logger

	refreshGroup singleflight.Group

	onSessionExpired func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying transport. The refresh endpoint relies on
// a cookie credential, so callers that log in and refresh through the same
// Client should supply an http.Client with a cookie jar.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTokenKey changes the store key the bearer token is persisted under.
func WithTokenKey(key string) Option {
	return func(c *Client) {
		c.tokenKey = key
	}
}

// WithoutRefresh disables the refresh-and-retry behavior. Used by the admin
// client, whose session has no refresh credential: any non-login 401 simply
// ends the session.
func WithoutRefresh() Option {
	return func(c *Client) {
		c.canRefresh = false
	}
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a Client for the given base URL, persisting its credential in s.
func New(baseURL string, s store.Store, options ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[api.New] baseURL is required")
	}
	if s == nil {
		return nil, errors.New("[api.New] store is required")
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		store:      s,
		tokenKey:   store.AccessTokenKey,
		canRefresh: true,
		log:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// OnSessionExpired registers the redirect-to-login signal. It fires whenever
// the client concludes the session is unrecoverable (no token held, refresh
// failed, or refresh exhausted). Must be set before the client is used.
func (c *Client) OnSessionExpired(fn func()) {
	c.onSessionExpired = fn
}

// Token returns the persisted credential, if any.
func (c *Client) Token() (*oauth2.Token, bool) {
	var tok oauth2.Token
	ok, err := store.GetJSON(c.store, c.tokenKey, &tok)
	if err != nil || !ok || tok.AccessToken == "" {
		return nil, false
	}
	return &tok, true
}

// SetAccessToken persists a newly issued access token. Expiry is read from the
// token's own claims when it is a parsable JWT.
func (c *Client) SetAccessToken(raw string) error {
	tok := &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
	if claims, err := token.ParseClaims(raw); err == nil && claims.ExpiresAt != nil {
		tok.Expiry = *claims.ExpiresAt
	}
	if err := store.SetJSON(c.store, c.tokenKey, tok); err != nil {
		return errors.Wrap(err, "[Client.SetAccessToken] persist")
	}
	return nil
}

// ClearToken removes the persisted credential.
func (c *Client) ClearToken() error {
	return c.store.Delete(c.tokenKey)
}

// Do issues an authenticated request. body (if non-nil) is sent as JSON; a
// 2xx response body is decoded into out (if non-nil).
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "[Client.Do] marshal %s %s body", method, path)
		}
		payload = raw
	}
	return c.do(ctx, method, path, payload, out, false)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any, retried bool) error {
	resp, respBody, err := c.send(ctx, method, path, payload, true)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return c.finish(resp, respBody, out)
	}

	// 401 on an auth boundary endpoint is a real answer, not an expired token.
	if isAuthBoundary(path) {
		return decodeStatusError(resp.StatusCode, respBody)
	}

	if _, ok := c.Token(); !ok || !c.canRefresh {
		c.endSession()
		return errors.Wrapf(clienterrors.ErrUnauthenticated, "[Client.do] %s %s", method, path)
	}

	if retried {
		// The retried request came back 401 again. Refresh is exhausted.
		c.log.Warn().Str("path", path).Msg("request unauthorized after refresh, ending session")
		c.endSession()
		return errors.Wrapf(clienterrors.ErrUnauthenticated, "[Client.do] %s %s after refresh", method, path)
	}

	if _, err := c.refresh(ctx); err != nil {
		return err
	}
	return c.do(ctx, method, path, payload, out, true)
}

// send builds and executes a single HTTP request. withAuth controls whether the
// bearer token is attached.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, withAuth bool) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "[Client.send] build %s %s", method, path)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if withAuth {
		if tok, ok := c.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, errors.Wrapf(clienterrors.ErrNetwork, "[Client.send] %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errors.Wrapf(clienterrors.ErrNetwork, "[Client.send] read %s %s: %v", method, path, err)
	}
	return resp, respBody, nil
}

func (c *Client) finish(resp *http.Response, respBody []byte, out any) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(respBody) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return errors.Wrapf(err, "[Client.finish] decode %s response", resp.Request.URL.Path)
		}
		return nil
	}
	return decodeStatusError(resp.StatusCode, respBody)
}

// refresh obtains a new access token, de-duplicating concurrent callers into a
// single in-flight call whose result everyone shares.
func (c *Client) refresh(ctx context.Context) (string, error) {
	// The shared call must not die with the first caller's context.
	refreshCtx := context.WithoutCancel(ctx)
	v, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		return c.doRefresh(refreshCtx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) doRefresh(ctx context.Context) (string, error) {
	resp, respBody, err := c.send(ctx, http.MethodPost, refreshPath, nil, false)
	if err != nil {
		c.log.Warn().Err(err).Msg("token refresh failed")
		c.endSession()
		return "", errors.Wrap(clienterrors.ErrUnauthenticated, "[Client.doRefresh] refresh request failed")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn().Int("status", resp.StatusCode).Msg("token refresh rejected")
		c.endSession()
		return "", errors.Wrapf(clienterrors.ErrUnauthenticated, "[Client.doRefresh] status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil || payload.AccessToken == "" {
		c.endSession()
		return "", errors.Wrap(clienterrors.ErrUnauthenticated, "[Client.doRefresh] malformed refresh response")
	}

	// A logout may have raced the refresh. If the session was already cleared,
	// discard the new token instead of resurrecting the session.
	if _, ok := c.Token(); !ok {
		c.log.Debug().Msg("session cleared during refresh, discarding token")
		return "", errors.Wrap(clienterrors.ErrUnauthenticated, "[Client.doRefresh] session cleared during refresh")
	}
	if err := c.SetAccessToken(payload.AccessToken); err != nil {
		return "", err
	}
	return payload.AccessToken, nil
}

// endSession removes the credential and fires the redirect-to-login signal.
func (c *Client) endSession() {
	if err := c.ClearToken(); err != nil {
		c.log.Error().Err(err).Msg("failed to clear token")
	}
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

func isAuthBoundary(path string) bool {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	for _, p := range authBoundaryPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
