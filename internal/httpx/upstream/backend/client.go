package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"
)

const (
	defaultBaseURL = "http://localhost:3000/api"
	defaultTimeout = 30 * time.Second

	refreshPath = "/auth/refresh"
	loginPath   = "/auth/login"
	logoutPath  = "/auth/logout"
)

// Metrics receives client observations
type Metrics interface {
	RecordUpstreamRequest(ctx context.Context, method string, status int)
	RecordSessionRefresh(ctx context.Context, ok bool)
}

type noopMetrics struct{}

func (noopMetrics) RecordUpstreamRequest(context.Context, string, int) {}
func (noopMetrics) RecordSessionRefresh(context.Context, bool)         {}

// Client is the REST client shared by every feature talking to the backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	logger     *slog.Logger
	metrics    Metrics
	jar        *sessionJar
	timeout    time.Duration
	refreshes  singleflight.Group
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithBaseURL sets the backend base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client. The client is copied; a cookie
// jar is added to the copy when it has none.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the HTTP client timeout, whatever the order of the options
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithSession sets the session used for bearer auth and refresh
func WithSession(s *Session) ClientOption {
	return func(c *Client) {
		c.session = s
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a new backend client
func New(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		session: NewSession("", ""),
		logger:  slog.Default(),
		metrics: noopMetrics{},
	}

	for _, opt := range opts {
		opt(c)
	}

	hc := *c.httpClient
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	if hc.Jar == nil {
		c.jar = newSessionJar()
		hc.Jar = c.jar
	}
	c.httpClient = &hc

	return c
}

// Session returns the session used by the client
func (c *Client) Session() *Session {
	return c.session
}

// Get is a shorthand for Do with GET
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post is a shorthand for Do with POST
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put is a shorthand for Do with PUT
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete is a shorthand for Do with DELETE
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do sends a request and decodes the JSON response into out.
// A 401 triggers exactly one session refresh; when it succeeds the request
// is retried once and that result is returned. When the backend rejects the
// refresh the session is cleared and ErrSessionExpired returned.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, method, path, payload)
	if err != nil {
		return err
	}

	if resp.status == http.StatusUnauthorized {
		if err := c.refresh(ctx); err != nil {
			return err
		}
		resp, err = c.send(ctx, method, path, payload)
		if err != nil {
			return err
		}
	}

	return resp.decode(out)
}

// Login authenticates with email and password and stores the tokens
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	payload, err := encodeBody(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, http.MethodPost, loginPath, payload)
	if err != nil {
		return nil, err
	}

	var tokens Tokens
	if err := resp.decode(&tokens); err != nil {
		return nil, err
	}
	c.session.Apply(tokens)

	return c.session.User(), nil
}

// Logout ends the session on the backend and clears local state. Local
// state is cleared even when the backend call fails.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.send(ctx, http.MethodPost, logoutPath, nil)
	c.clearSession()
	if err != nil {
		return err
	}
	return resp.decode(nil)
}

// refresh renews the session once for every caller hit by a 401 at the same
// time. The shared request outlives the caller that started it; each caller
// stops waiting when its own ctx ends.
func (c *Client) refresh(ctx context.Context) error {
	ch := c.refreshes.DoChan("refresh", func() (any, error) {
		timeout := c.httpClient.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return nil, c.doRefresh(refreshCtx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) doRefresh(ctx context.Context) error {
	var payload []byte
	if rt := c.session.RefreshToken(); rt != "" {
		payload, _ = json.Marshal(map[string]string{"refresh_token": rt})
	}

	resp, err := c.send(ctx, http.MethodPost, refreshPath, payload)
	if err != nil {
		c.metrics.RecordSessionRefresh(ctx, false)
		c.logger.Warn("session refresh failed", "error", err)
		return fmt.Errorf("refreshing session: %w", err)
	}

	if resp.status >= 400 {
		err := resp.decode(nil)
		c.metrics.RecordSessionRefresh(ctx, false)
		c.logger.Warn("session refresh rejected", "status", resp.status, "error", err)
		if resp.status >= 500 {
			return fmt.Errorf("refreshing session: %w", err)
		}
		c.clearSession()
		return ErrSessionExpired
	}

	var tokens Tokens
	if err := resp.decode(&tokens); err != nil {
		c.logger.Warn("decoding refresh response", "error", err)
	}
	c.session.Apply(tokens)
	c.metrics.RecordSessionRefresh(ctx, true)
	c.logger.Debug("session refreshed")

	return nil
}

func (c *Client) clearSession() {
	c.session.Clear()
	if c.jar != nil {
		c.jar.reset()
	}
}

// response is a fully read HTTP response, so a request can be replayed
type response struct {
	status int
	body   []byte
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	c.metrics.RecordUpstreamRequest(ctx, method, resp.StatusCode)

	return &response{status: resp.StatusCode, body: body}, nil
}

func (r *response) decode(out any) error {
	if r.status >= 400 {
		var eb errorBody
		_ = json.Unmarshal(r.body, &eb)
		return &APIError{Status: r.status, Message: eb.text()}
	}

	if out == nil || r.status == http.StatusNoContent || len(bytes.TrimSpace(r.body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(r.body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

func (c *Client) endpoint(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	return payload, nil
}

// sessionJar is a cookie jar that can be emptied on logout while requests
// are in flight.
type sessionJar struct {
	mu  sync.Mutex
	jar http.CookieJar
}

func newSessionJar() *sessionJar {
	return &sessionJar{jar: newJar()}
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.current().SetCookies(u, cookies)
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	return j.current().Cookies(u)
}

func (j *sessionJar) current() http.CookieJar {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar
}

func (j *sessionJar) reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jar = newJar()
}

func newJar() http.CookieJar {
	// cookiejar.New only fails on invalid options
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return jar
}
