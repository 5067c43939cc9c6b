package github

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// MaxPerPage is the largest page size the search API accepts.
const MaxPerPage = 100

// RepoRef is the repository summary embedded in search results.
type RepoRef struct {
	FullName      string `json:"full_name"`
	Name          string `json:"name"`
	Private       bool   `json:"private"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
}

// TextMatch is one highlighted fragment from a text-match search response.
type TextMatch struct {
	ObjectType string `json:"object_type"`
	Property   string `json:"property"`
	Fragment   string `json:"fragment"`
	Matches    []struct {
		Text    string `json:"text"`
		Indices []int  `json:"indices"`
	} `json:"matches"`
}

// CodeItem is a file returned by code search.
type CodeItem struct {
	Name        string      `json:"name"`
	Path        string      `json:"path"`
	SHA         string      `json:"sha"`
	HTMLURL     string      `json:"html_url"`
	Repository  RepoRef     `json:"repository"`
	TextMatches []TextMatch `json:"text_matches"`
}

// CodeSearchResult is the response of /search/code.
type CodeSearchResult struct {
	TotalCount        int        `json:"total_count"`
	IncompleteResults bool       `json:"incomplete_results"`
	Items             []CodeItem `json:"items"`
}

// Owner is a user or organization login.
type Owner struct {
	Login string `json:"login"`
	Type  string `json:"type"`
}

// Repository is the full repository representation.
type Repository struct {
	FullName        string    `json:"full_name"`
	Name            string    `json:"name"`
	Owner           Owner     `json:"owner"`
	Description     string    `json:"description"`
	HTMLURL         string    `json:"html_url"`
	Language        string    `json:"language"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	OpenIssuesCount int       `json:"open_issues_count"`
	Topics          []string  `json:"topics"`
	DefaultBranch   string    `json:"default_branch"`
	Archived        bool      `json:"archived"`
	Fork            bool      `json:"fork"`
	Private         bool      `json:"private"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	PushedAt        time.Time `json:"pushed_at"`
	License         *struct {
		SPDXID string `json:"spdx_id"`
	} `json:"license"`
}

// RepoSearchResult is the response of /search/repositories.
type RepoSearchResult struct {
	TotalCount        int          `json:"total_count"`
	IncompleteResults bool         `json:"incomplete_results"`
	Items             []Repository `json:"items"`
}

// Label is an issue label.
type Label struct {
	Name string `json:"name"`
}

// Issue is an issue or pull request returned by /search/issues.
type Issue struct {
	Number        int        `json:"number"`
	Title         string     `json:"title"`
	State         string     `json:"state"`
	User          Owner      `json:"user"`
	HTMLURL       string     `json:"html_url"`
	RepositoryURL string     `json:"repository_url"`
	Body          string     `json:"body"`
	Labels        []Label    `json:"labels"`
	Comments      int        `json:"comments"`
	Draft         bool       `json:"draft"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ClosedAt      *time.Time `json:"closed_at"`
	PullRequest   *struct {
		HTMLURL  string     `json:"html_url"`
		MergedAt *time.Time `json:"merged_at"`
	} `json:"pull_request"`
}

// IssueSearchResult is the response of /search/issues.
type IssueSearchResult struct {
	TotalCount        int     `json:"total_count"`
	IncompleteResults bool    `json:"incomplete_results"`
	Items             []Issue `json:"items"`
}

// SearchOptions are the paging and ordering parameters shared by every
// search endpoint.
type SearchOptions struct {
	Sort    string
	Order   string
	PerPage int
	Page    int
}

func (o SearchOptions) values(q string) url.Values {
	v := url.Values{"q": {q}}
	if o.Sort != "" {
		v.Set("sort", o.Sort)
	}
	if o.Order != "" {
		v.Set("order", o.Order)
	}
	if o.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(min(o.PerPage, MaxPerPage)))
	}
	if o.Page > 1 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	return v
}

// SearchCode runs a code search with text-match fragments.
func (c *Client) SearchCode(ctx context.Context, q string, opts SearchOptions) (*CodeSearchResult, error) {
	var out CodeSearchResult
	if err := c.get(ctx, "search_code", "search/code", opts.values(q), mediaTextMatch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchRepositories runs a repository search.
func (c *Client) SearchRepositories(ctx context.Context, q string, opts SearchOptions) (*RepoSearchResult, error) {
	var out RepoSearchResult
	if err := c.get(ctx, "search_repositories", "search/repositories", opts.values(q), mediaJSON, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchIssues runs an issue and pull request search.
func (c *Client) SearchIssues(ctx context.Context, q string, opts SearchOptions) (*IssueSearchResult, error) {
	var out IssueSearchResult
	if err := c.get(ctx, "search_issues", "search/issues", opts.values(q), mediaJSON, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
