// Package pkgsearch looks up packages in the npm and PyPI registries.
package pkgsearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/ziadkadry99/repolens/internal/cache"
	"github.com/ziadkadry99/repolens/internal/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Ecosystem names a package registry.
type Ecosystem string

const (
	NPM    Ecosystem = "npm"
	Python Ecosystem = "python"
)

const (
	DefaultNPMURL  = "https://registry.npmjs.org"
	DefaultPyPIURL = "https://pypi.org"

	// DefaultLimit and MaxLimit bound the number of npm search results per
	// query.
	DefaultLimit = 5
	MaxLimit     = 20
)

// ErrNotFound is returned when the registry knows no such package.
var ErrNotFound = errors.New("package not found")

// ParseEcosystem accepts the ecosystem names and their common aliases.
func ParseEcosystem(s string) (Ecosystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "npm", "node", "javascript", "js":
		return NPM, nil
	case "python", "pypi", "pip", "py":
		return Python, nil
	}
	return "", fmt.Errorf("unsupported ecosystem %q (expected npm or python)", s)
}

// Package is the registry-neutral description of one package.
type Package struct {
	Name        string   `json:"name"`
	Version     string   `json:"version,omitempty"`
	Description string   `json:"description,omitempty"`
	Repository  string   `json:"repository,omitempty"`
	Homepage    string   `json:"homepage,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	License     string   `json:"license,omitempty"`
}

// Cache stores raw registry responses between calls.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, body []byte) error
}

// Options configures a Client.
type Options struct {
	NPMURL     string
	PyPIURL    string
	UserAgent  string
	Cache      Cache
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client queries package registries.
type Client struct {
	npmURL    string
	pypiURL   string
	userAgent string
	http      *http.Client
	cache     Cache
	logger    *slog.Logger
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.NPMURL == "" {
		opts.NPMURL = DefaultNPMURL
	}
	if opts.PyPIURL == "" {
		opts.PyPIURL = DefaultPyPIURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "repolens"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		npmURL:    strings.TrimRight(opts.NPMURL, "/"),
		pypiURL:   strings.TrimRight(opts.PyPIURL, "/"),
		userAgent: opts.UserAgent,
		http:      opts.HTTPClient,
		cache:     opts.Cache,
		logger:    opts.Logger,
	}
}

// Search finds packages by name. npm runs a text search returning up to limit
// packages; PyPI has no search API, so python resolves the exact project.
func (c *Client) Search(ctx context.Context, eco Ecosystem, name string, limit int) ([]Package, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("package name is required")
	}
	switch eco {
	case NPM:
		return c.searchNPM(ctx, name, limit)
	case Python:
		pkg, err := c.lookupPyPI(ctx, name)
		if err != nil {
			return nil, err
		}
		return []Package{*pkg}, nil
	}
	return nil, fmt.Errorf("unsupported ecosystem %q", eco)
}

type npmSearchResponse struct {
	Objects []struct {
		Package struct {
			Name        string   `json:"name"`
			Version     string   `json:"version"`
			Description string   `json:"description"`
			Keywords    []string `json:"keywords"`
			License     string   `json:"license"`
			Links       struct {
				Homepage   string `json:"homepage"`
				Repository string `json:"repository"`
			} `json:"links"`
		} `json:"package"`
	} `json:"objects"`
}

func (c *Client) searchNPM(ctx context.Context, name string, limit int) ([]Package, error) {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	q := url.Values{"text": {name}, "size": {strconv.Itoa(limit)}}
	var resp npmSearchResponse
	if err := c.get(ctx, NPM, c.npmURL+"/-/v1/search?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	out := make([]Package, 0, len(resp.Objects))
	for _, o := range resp.Objects {
		p := o.Package
		out = append(out, Package{
			Name:        p.Name,
			Version:     p.Version,
			Description: p.Description,
			Repository:  cleanRepoURL(p.Links.Repository),
			Homepage:    p.Links.Homepage,
			Keywords:    p.Keywords,
			License:     p.License,
		})
	}
	return out, nil
}

type pypiResponse struct {
	Info struct {
		Name        string            `json:"name"`
		Version     string            `json:"version"`
		Summary     string            `json:"summary"`
		HomePage    string            `json:"home_page"`
		License     string            `json:"license"`
		Keywords    string            `json:"keywords"`
		ProjectURLs map[string]string `json:"project_urls"`
	} `json:"info"`
}

func (c *Client) lookupPyPI(ctx context.Context, name string) (*Package, error) {
	var resp pypiResponse
	if err := c.get(ctx, Python, c.pypiURL+"/pypi/"+url.PathEscape(name)+"/json", &resp); err != nil {
		return nil, err
	}
	info := resp.Info
	pkg := &Package{
		Name:        info.Name,
		Version:     info.Version,
		Description: info.Summary,
		Homepage:    info.HomePage,
		Repository:  pypiRepository(info.ProjectURLs, info.HomePage),
		License:     info.License,
	}
	pkg.Keywords = strings.FieldsFunc(info.Keywords, func(r rune) bool { return r == ',' || r == ' ' })
	if pkg.Homepage == "" {
		pkg.Homepage = info.ProjectURLs["Homepage"]
	}
	return pkg, nil
}

// pypiRepository infers the source repository from project_urls, preferring
// explicitly labelled entries over any URL that points at a code host.
func pypiRepository(urls map[string]string, homepage string) string {
	for _, label := range []string{"Source", "Source Code", "Repository", "Code", "GitHub", "Homepage"} {
		for k, v := range urls {
			if strings.EqualFold(k, label) && isCodeHost(v) {
				return cleanRepoURL(v)
			}
		}
	}
	for _, k := range slices.Sorted(maps.Keys(urls)) {
		if isCodeHost(urls[k]) {
			return cleanRepoURL(urls[k])
		}
	}
	if isCodeHost(homepage) {
		return cleanRepoURL(homepage)
	}
	return ""
}

func isCodeHost(u string) bool {
	return strings.Contains(u, "github.com/") || strings.Contains(u, "gitlab.com/") || strings.Contains(u, "bitbucket.org/")
}

// cleanRepoURL normalizes git+https and .git suffixed repository URLs.
func cleanRepoURL(u string) string {
	u = strings.TrimPrefix(u, "git+")
	u = strings.TrimSuffix(u, ".git")
	return strings.TrimRight(u, "/")
}

func (c *Client) get(ctx context.Context, eco Ecosystem, target string, out any) error {
	key := cache.Key("GET", target)
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
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordRegistryRequest(string(eco), 0)
		return fmt.Errorf("%s registry request failed: %w", eco, err)
	}
	defer resp.Body.Close()
	metrics.RecordRegistryRequest(string(eco), resp.StatusCode)

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("reading %s registry response: %w", eco, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s registry returned %d", eco, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s registry response: %w", eco, err)
	}
	if c.cache != nil {
		if err := c.cache.Put(ctx, key, body); err != nil {
			c.logger.Warn("caching registry response", "ecosystem", eco, "error", err)
		}
	}
	return nil
}
