package tools

import (
	"context"
	"time"

	"github.com/ziadkadry99/repolens/internal/bulk"
	"github.com/ziadkadry99/repolens/internal/github"
)

// RepoQuery searches repositories.
type RepoQuery struct {
	bulk.Research
	Keywords []string `json:"keywords,omitempty"`
	Topics   []string `json:"topics,omitempty"`
	Owner    string   `json:"owner,omitempty"`
	Language string   `json:"language,omitempty"`
	Stars    string   `json:"stars,omitempty"`
	Sort     string   `json:"sort,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}

// RepoSummary is one repository in a search result.
type RepoSummary struct {
	Repo          string   `json:"repo"`
	Description   string   `json:"description,omitempty"`
	Language      string   `json:"language,omitempty"`
	Stars         int      `json:"stars"`
	Forks         int      `json:"forks,omitempty"`
	Topics        []string `json:"topics,omitempty"`
	DefaultBranch string   `json:"defaultBranch,omitempty"`
	UpdatedAt     string   `json:"updatedAt,omitempty"`
	Archived      bool     `json:"archived,omitempty"`
	URL           string   `json:"url,omitempty"`
}

// RepoSearchData is the payload of a repository search.
type RepoSearchData struct {
	Repositories []RepoSummary `json:"repositories"`
	TotalCount   int           `json:"totalCount"`
}

const (
	repoDefaultLimit = 10
	repoMaxLimit     = 30
)

var repoHints = bulk.HintTable{
	bulk.StatusHasResults: {
		"Explore a repository with githubViewRepoStructure starting at its default branch.",
		"Archived repositories are read only; prefer active ones with recent updates.",
	},
	bulk.StatusEmpty: {
		"Search topics instead of keywords, or lower the stars threshold.",
	},
	bulk.StatusError: {
		"Repository search needs keywords, topics or an owner.",
	},
}

func decodeRepoQuery(m map[string]any) (RepoQuery, error) {
	a := args{m: m}
	q := RepoQuery{
		Research: a.research(),
		Keywords: a.strings("keywords"),
		Topics:   a.strings("topics"),
		Owner:    a.str("owner"),
		Language: a.str("language"),
		Stars:    a.str("stars"),
		Sort:     a.str("sort"),
		Limit:    a.integer("limit", 0),
	}
	return q, a.err
}

func searchRepositoriesTool(gh GitHub) Tool {
	def := queriesTool(SearchRepositories,
		"Search GitHub repositories by keywords, topics, owner, language and popularity.",
		map[string]any{
			"keywords": stringsProp("Terms matched against name, description and readme"),
			"topics":   stringsProp("Repository topics that must all be present"),
			"owner":    stringProp("Restrict to one user or organization"),
			"language": stringProp("Primary language filter"),
			"stars":    stringProp("Star count filter such as >100 or 10..500"),
			"sort":     stringProp("Sort order, best match when omitted", "stars", "forks", "updated"),
			"limit":    numberProp("Maximum repositories to return (default 10, max 30)"),
		},
	)
	spec := bulk.Tool{ID: SearchRepositories, ExtraFields: []string{"repositories", "repo", "description", "stars", "totalCount"}}

	worker := func(ctx context.Context, q RepoQuery, _ int) (bulk.Result[RepoSearchData], error) {
		if len(q.Keywords) == 0 && len(q.Topics) == 0 && q.Owner == "" {
			return invalid[RepoSearchData]("provide keywords, topics or owner")
		}
		if err := oneOf(q.Sort, "stars", "forks", "updated"); err != nil {
			return invalid[RepoSearchData]("sort: " + err.Error())
		}

		query := github.RepoSearchQuery{
			Keywords: q.Keywords,
			Topics:   q.Topics,
			Owner:    q.Owner,
			Language: q.Language,
			Stars:    q.Stars,
		}
		res, err := gh.SearchRepositories(ctx, query.String(), github.SearchOptions{
			Sort:    q.Sort,
			PerPage: clamp(q.Limit, repoDefaultLimit, repoMaxLimit),
		})
		if err != nil {
			return failure[RepoSearchData](ctx, err)
		}

		data := RepoSearchData{TotalCount: res.TotalCount}
		for _, r := range res.Items {
			data.Repositories = append(data.Repositories, RepoSummary{
				Repo:          r.FullName,
				Description:   r.Description,
				Language:      r.Language,
				Stars:         r.StargazersCount,
				Forks:         r.ForksCount,
				Topics:        r.Topics,
				DefaultBranch: r.DefaultBranch,
				UpdatedAt:     date(r.PushedAt),
				Archived:      r.Archived,
				URL:           r.HTMLURL,
			})
		}
		if len(data.Repositories) == 0 {
			return bulk.Empty(data), nil
		}
		return bulk.HasResults(data), nil
	}

	return newTool(def, spec, repoHints, decodeRepoQuery, worker)
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}
