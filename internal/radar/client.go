// Package radar provides the client for the Market Radar upstream API.
// The upstream is a black box: this client only speaks its JSON endpoints
// and never interprets authorization beyond the status codes it returns.
package radar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmbarbosa/market-radar/internal/models"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

var (
	// ErrUnauthenticated is returned when the upstream rejects the
	// session credential (or none was supplied).
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidCredentials is returned by Login on bad email/password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Session is the opaque upstream session credential, carried verbatim as a
// Cookie header value on authenticated calls.
type Session string

// Client talks to the Market Radar API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter

	// now is swapped in tests to pin the cache-buster parameter.
	now func() time.Time
}

// Option configures the client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRateLimit sets the request rate limit.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), int(requestsPerSecond)+1)
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do executes one JSON request. A non-nil out is decoded from the response
// body on 2xx. 401/403 map to ErrUnauthenticated; other non-2xx statuses
// surface the upstream error message when one is present.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, session Session, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != "" {
		req.Header.Set("Cookie", string(session))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthenticated
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if msg := upstreamError(resp.Body); msg != "" {
			return fmt.Errorf("upstream status %d: %s", resp.StatusCode, msg)
		}
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func upstreamError(body io.Reader) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 4096)).Decode(&payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

// Me verifies the session and returns the current identity.
func (c *Client) Me(ctx context.Context, session Session) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, session, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates against the upstream and returns the identity plus
// the upstream session credential captured from Set-Cookie.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, Session, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, "", ErrInvalidCredentials
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if msg := upstreamError(resp.Body); msg != "" {
			return nil, "", fmt.Errorf("upstream status %d: %s", resp.StatusCode, msg)
		}
		return nil, "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var loginResp struct {
		User models.User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return nil, "", fmt.Errorf("failed to decode response: %w", err)
	}

	var pairs []string
	for _, ck := range resp.Cookies() {
		pairs = append(pairs, ck.Name+"="+ck.Value)
	}
	if len(pairs) == 0 {
		return nil, "", errors.New("upstream login returned no session cookie")
	}

	return &loginResp.User, Session(strings.Join(pairs, "; ")), nil
}

// Logout ends the upstream session. Best-effort: callers always clear the
// local session regardless of the outcome.
func (c *Client) Logout(ctx context.Context, session Session) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, session, nil, nil)
}

// Ranking fetches the ranked opportunity list. A cache-busting t parameter
// is appended on every call since the upstream mutates frequently.
func (c *Client) Ranking(ctx context.Context, limit int) ([]models.Opportunity, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	query.Set("t", strconv.FormatInt(c.now().UnixMilli(), 10))

	var resp models.RankingResponse
	if err := c.do(ctx, http.MethodGet, "/ranking", query, "", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Opportunities == nil {
		resp.Opportunities = []models.Opportunity{}
	}
	return resp.Opportunities, nil
}

// Stats fetches the aggregate counters. Best-effort for callers: a failure
// here must never block the main list.
func (c *Client) Stats(ctx context.Context) (*models.StatsSummary, error) {
	var stats models.StatsSummary
	if err := c.do(ctx, http.MethodGet, "/stats", nil, "", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Products fetches the raw product listing for the secondary view.
func (c *Client) Products(ctx context.Context) ([]models.Product, error) {
	var resp models.ProductsResponse
	if err := c.do(ctx, http.MethodGet, "/products", nil, "", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Products == nil {
		resp.Products = []models.Product{}
	}
	return resp.Products, nil
}

// Save persists an opportunity to the user's favorites upstream.
func (c *Client) Save(ctx context.Context, session Session, opportunityID, notes string) error {
	body := map[string]string{"notes": notes}
	return c.do(ctx, http.MethodPost, "/auth/save/"+url.PathEscape(opportunityID), nil, session, body, nil)
}

// Saved fetches the user's saved opportunities.
func (c *Client) Saved(ctx context.Context, session Session) ([]models.Opportunity, error) {
	var resp struct {
		Saved []models.Opportunity `json:"saved"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/saved", nil, session, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Saved == nil {
		resp.Saved = []models.Opportunity{}
	}
	return resp.Saved, nil
}
