package tools

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/ziadkadry99/repolens/internal/bulk"
	"github.com/ziadkadry99/repolens/internal/github"
)

// PullRequestQuery searches pull requests.
type PullRequestQuery struct {
	bulk.Research
	Owner    string   `json:"owner,omitempty"`
	Repo     string   `json:"repo,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	State    string   `json:"state,omitempty"`
	Author   string   `json:"author,omitempty"`
	Labels   []string `json:"label,omitempty"`
	Merged   *bool    `json:"merged,omitempty"`
	Draft    *bool    `json:"draft,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}

// PullRequest is one pull request in a search result.
type PullRequest struct {
	Number    int      `json:"number"`
	Title     string   `json:"title"`
	State     string   `json:"state"`
	Author    string   `json:"author,omitempty"`
	URL       string   `json:"url"`
	Labels    []string `json:"labels,omitempty"`
	Draft     bool     `json:"draft,omitempty"`
	Merged    bool     `json:"merged,omitempty"`
	Comments  int      `json:"comments,omitempty"`
	CreatedAt string   `json:"createdAt,omitempty"`
	UpdatedAt string   `json:"updatedAt,omitempty"`
	ClosedAt  string   `json:"closedAt,omitempty"`
	Body      string   `json:"body,omitempty"`
}

// PullRequestData is the payload of a pull request search.
type PullRequestData struct {
	PullRequests []PullRequest `json:"pullRequests"`
	TotalCount   int           `json:"totalCount"`
}

const (
	prDefaultLimit = 5
	prMaxLimit     = 30
	maxBodyLen     = 600
)

var prHints = bulk.HintTable{
	bulk.StatusHasResults: {
		"Open a pull request URL or search code touched by it to understand the change.",
	},
	bulk.StatusEmpty: {
		"Drop the state, label or author filter, or search keywords in closed pull requests too.",
	},
	bulk.StatusError: {
		"Pull request search needs an owner, repo, author or keywords.",
	},
}

func decodePullRequestQuery(m map[string]any) (PullRequestQuery, error) {
	a := args{m: m}
	q := PullRequestQuery{
		Research: a.research(),
		Owner:    a.str("owner"),
		Repo:     a.str("repo"),
		Keywords: a.strings("keywords"),
		State:    a.str("state"),
		Author:   a.str("author"),
		Labels:   a.strings("label"),
		Merged:   a.optBool("merged"),
		Draft:    a.optBool("draft"),
		Limit:    a.integer("limit", 0),
	}
	return q, a.err
}

func searchPullRequestsTool(gh GitHub) Tool {
	def := queriesTool(SearchPullRequests,
		"Search GitHub pull requests by repository, keywords, state, author, labels, merge and draft status.",
		map[string]any{
			"owner":    stringProp("Repository owner"),
			"repo":     stringProp("Repository name, requires owner"),
			"keywords": stringsProp("Terms matched against title and body"),
			"state":    stringProp("Pull request state", "open", "closed"),
			"author":   stringProp("Login of the pull request author"),
			"label":    stringsProp("Labels that must all be present"),
			"merged":   boolProp("Only merged (true) or unmerged (false) pull requests"),
			"draft":    boolProp("Only draft (true) or ready (false) pull requests"),
			"limit":    numberProp("Maximum pull requests to return (default 5, max 30)"),
		},
	)
	spec := bulk.Tool{ID: SearchPullRequests, ExtraFields: []string{"pullRequests", "number", "title", "state", "author", "url", "totalCount"}}

	worker := func(ctx context.Context, q PullRequestQuery, _ int) (bulk.Result[PullRequestData], error) {
		if q.Owner == "" && q.Author == "" && len(q.Keywords) == 0 {
			return invalid[PullRequestData]("provide owner, author or keywords")
		}
		if q.Repo != "" && q.Owner == "" {
			return invalid[PullRequestData]("repo requires owner")
		}
		if err := oneOf(q.State, "open", "closed"); err != nil {
			return invalid[PullRequestData]("state: " + err.Error())
		}

		query := github.PullRequestSearchQuery{
			Keywords: q.Keywords,
			Owner:    q.Owner,
			Repo:     q.Repo,
			State:    q.State,
			Author:   q.Author,
			Labels:   q.Labels,
			Merged:   q.Merged,
			Draft:    q.Draft,
		}
		res, err := gh.SearchIssues(ctx, query.String(), github.SearchOptions{
			Sort:    "updated",
			PerPage: clamp(q.Limit, prDefaultLimit, prMaxLimit),
		})
		if err != nil {
			return failure[PullRequestData](ctx, err)
		}

		data := PullRequestData{TotalCount: res.TotalCount}
		for _, it := range res.Items {
			pr := PullRequest{
				Number:    it.Number,
				Title:     it.Title,
				State:     it.State,
				Author:    it.User.Login,
				URL:       it.HTMLURL,
				Draft:     it.Draft,
				Comments:  it.Comments,
				CreatedAt: date(it.CreatedAt),
				UpdatedAt: date(it.UpdatedAt),
				Body:      truncate(it.Body, maxBodyLen),
			}
			if it.ClosedAt != nil {
				pr.ClosedAt = date(*it.ClosedAt)
			}
			if it.PullRequest != nil && it.PullRequest.MergedAt != nil {
				pr.Merged = true
			}
			for _, l := range it.Labels {
				pr.Labels = append(pr.Labels, l.Name)
			}
			data.PullRequests = append(data.PullRequests, pr)
		}
		if len(data.PullRequests) == 0 {
			return bulk.Empty(data), nil
		}
		return bulk.HasResults(data), nil
	}

	return newTool(def, spec, prHints, decodePullRequestQuery, worker)
}

// truncate cuts s to at most n runes, marking the cut.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
