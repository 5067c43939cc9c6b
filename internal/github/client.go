// Package github is a small read-only client for the GitHub REST API
// covering search, repository metadata and file contents.
package github

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/ziadkadry99/repolens/internal/cache"
	"github.com/ziadkadry99/repolens/internal/metrics"
)

const (
	DefaultBaseURL   = "https://api.github.com"
	DefaultUserAgent = "repolens"
	apiVersion       = "2022-11-28"

	mediaJSON      = "application/vnd.github+json"
	mediaTextMatch = "application/vnd.github.text-match+json"
)

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 16 << 20

// Cache stores raw response bodies between calls.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, body []byte) error
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	Token     string
	UserAgent string
	// RequestsPerSecond throttles outbound calls. Zero disables throttling.
	RequestsPerSecond float64
	Cache             Cache
	HTTPClient        *http.Client
	Logger            *slog.Logger
}

// Client talks to the GitHub REST API.
type Client struct {
	baseURL       *url.URL
	http          *http.Client
	userAgent     string
	cache         Cache
	authenticated bool
	// credential scopes cache entries to the token without storing it.
	credential    string
	logger        *slog.Logger
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing github base url: %w", err)
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	transport := hc.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	transport = newLimitedTransport(transport, opts.RequestsPerSecond)
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
			Base:   transport,
		}
	}
	client := *hc
	client.Transport = transport

	credential := "anon"
	if opts.Token != "" {
		credential = cache.Key("token", opts.Token)
	}

	return &Client{
		baseURL:       base,
		http:          &client,
		userAgent:     opts.UserAgent,
		cache:         opts.Cache,
		authenticated: opts.Token != "",
		credential:    credential,
		logger:        opts.Logger,
	}, nil
}

// Authenticated reports whether requests carry a token.
func (c *Client) Authenticated() bool { return c.authenticated }

// ResolveToken returns the token from envName, falling back to GITHUB_TOKEN
// and GH_TOKEN.
func ResolveToken(envName string) string {
	for _, name := range []string{envName, "GITHUB_TOKEN", "GH_TOKEN"} {
		if name == "" {
			continue
		}
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// get fetches path relative to the base URL and decodes the JSON body into
// out. endpoint labels the call in errors and metrics.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, accept string, out any) error {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	target := u.String()

	key := cache.Key(http.MethodGet, target, accept, c.credential)
	if c.cache != nil {
		if body, ok := c.cache.Get(ctx, key); ok {
			if err := json.Unmarshal(body, out); err == nil {
				return nil
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordGitHubRequest(endpoint, 0)
		return fmt.Errorf("github %s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()
	metrics.RecordGitHubRequest(endpoint, resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("reading github %s response: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(endpoint, resp, body)
		c.logger.Debug("github request failed", "endpoint", endpoint, "status", resp.StatusCode, "message", apiErr.Message)
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding github %s response: %w", endpoint, err)
	}
	if c.cache != nil {
		if err := c.cache.Put(ctx, key, body); err != nil {
			c.logger.Warn("caching github response", "endpoint", endpoint, "error", err)
		}
	}
	return nil
}
