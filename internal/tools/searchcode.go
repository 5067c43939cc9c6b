package tools

import (
	"context"
	"strings"

	"github.com/ziadkadry99/repolens/internal/bulk"
	"github.com/ziadkadry99/repolens/internal/github"
)

// CodeQuery searches file contents or paths.
type CodeQuery struct {
	bulk.Research
	Keywords  []string `json:"keywords,omitempty"`
	Owner     string   `json:"owner,omitempty"`
	Repo      string   `json:"repo,omitempty"`
	Language  string   `json:"language,omitempty"`
	Extension string   `json:"extension,omitempty"`
	Filename  string   `json:"filename,omitempty"`
	Path      string   `json:"path,omitempty"`
	Match     string   `json:"match,omitempty"`
	Limit     int      `json:"limit,omitempty"`
}

// CodeMatch is one matching fragment.
type CodeMatch struct {
	Context string `json:"context"`
}

// CodeFile is one file that matched. Matches is empty for path matches.
type CodeFile struct {
	Repo    string      `json:"repo"`
	Path    string      `json:"path"`
	Matches []CodeMatch `json:"matches"`
}

// CodeSearchData is the payload of a code search.
type CodeSearchData struct {
	Files      []CodeFile `json:"files"`
	TotalCount int        `json:"totalCount"`
	Incomplete bool       `json:"incompleteResults,omitempty"`
}

const (
	codeDefaultLimit = 10
	codeMaxLimit     = 50
	maxFragmentLen   = 400
)

var codeHints = bulk.HintTable{
	bulk.StatusHasResults: {
		"Fetch promising files with githubGetFileContent using matchString to read around the match.",
		"Use githubViewRepoStructure to see where matching files sit in their repository.",
	},
	bulk.StatusEmpty: {
		"Code search matches whole tokens; try a shorter keyword or a different spelling.",
		"Remove the extension or path filter, or use match=path to search file names.",
	},
	bulk.StatusError: {
		"Code search needs at least one keyword, filename, path or extension.",
	},
}

func decodeCodeQuery(m map[string]any) (CodeQuery, error) {
	a := args{m: m}
	q := CodeQuery{
		Research:  a.research(),
		Keywords:  a.strings("keywords"),
		Owner:     a.str("owner"),
		Repo:      a.str("repo"),
		Language:  a.str("language"),
		Extension: a.str("extension"),
		Filename:  a.str("filename"),
		Path:      a.str("path"),
		Match:     a.str("match"),
		Limit:     a.integer("limit", 0),
	}
	return q, a.err
}

func searchCodeTool(gh GitHub) Tool {
	def := queriesTool(SearchCode,
		"Search code across GitHub. Each query combines keywords with optional scope and file filters. Results list matching files with text fragments around each match.",
		map[string]any{
			"keywords":  stringsProp("Terms that must appear in the file"),
			"owner":     stringProp("Repository owner or organization"),
			"repo":      stringProp("Repository name, requires owner"),
			"language":  stringProp("Programming language filter"),
			"extension": stringProp("File extension filter without the dot"),
			"filename":  stringProp("File name filter"),
			"path":      stringProp("Directory path filter"),
			"match":     stringProp("Match keywords in file contents or in the path", "file", "path"),
			"limit":     numberProp("Maximum files to return (default 10, max 50)"),
		},
	)
	spec := bulk.Tool{ID: SearchCode, ExtraFields: []string{"files", "repo", "path", "matches", "context", "totalCount"}}

	worker := func(ctx context.Context, q CodeQuery, _ int) (bulk.Result[CodeSearchData], error) {
		if len(q.Keywords) == 0 && q.Filename == "" && q.Path == "" && q.Extension == "" {
			return invalid[CodeSearchData]("provide keywords, filename, path or extension")
		}
		if err := oneOf(q.Match, "file", "path"); err != nil {
			return invalid[CodeSearchData]("match: " + err.Error())
		}
		if q.Repo != "" && q.Owner == "" {
			return invalid[CodeSearchData]("repo requires owner")
		}

		query := github.CodeSearchQuery{
			Keywords:  q.Keywords,
			Owner:     q.Owner,
			Repo:      q.Repo,
			Language:  q.Language,
			Extension: q.Extension,
			Filename:  q.Filename,
			Path:      q.Path,
			Match:     q.Match,
		}
		res, err := gh.SearchCode(ctx, query.String(), github.SearchOptions{
			PerPage: clamp(q.Limit, codeDefaultLimit, codeMaxLimit),
		})
		if err != nil {
			return failure[CodeSearchData](ctx, err)
		}

		data := CodeSearchData{TotalCount: res.TotalCount, Incomplete: res.IncompleteResults}
		for _, item := range res.Items {
			file := CodeFile{Repo: item.Repository.FullName, Path: item.Path, Matches: []CodeMatch{}}
			if q.Match != "path" {
				for _, tm := range item.TextMatches {
					if tm.Property != "" && tm.Property != "content" {
						continue
					}
					file.Matches = append(file.Matches, CodeMatch{Context: fragment(tm.Fragment)})
				}
			}
			data.Files = append(data.Files, file)
		}
		if len(data.Files) == 0 {
			return bulk.Empty(data), nil
		}
		if res.IncompleteResults {
			return bulk.HasResults(data, "GitHub returned incomplete results; narrow the query to make them complete."), nil
		}
		return bulk.HasResults(data), nil
	}

	return newTool(def, spec, codeHints, decodeCodeQuery, worker)
}

// fragment trims a text-match fragment to a bounded single block.
func fragment(s string) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > maxFragmentLen {
		return string(r[:maxFragmentLen]) + "..."
	}
	return s
}
