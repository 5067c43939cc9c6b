package tools

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ziadkadry99/repolens/internal/bulk"
	"github.com/ziadkadry99/repolens/internal/minify"
	"github.com/ziadkadry99/repolens/internal/pathfilter"
)

// FileQuery fetches a file or a slice of it.
type FileQuery struct {
	bulk.Research
	Owner        string `json:"owner"`
	Repo         string `json:"repo"`
	Path         string `json:"path"`
	Branch       string `json:"branch,omitempty"`
	StartLine    int    `json:"startLine,omitempty"`
	EndLine      int    `json:"endLine,omitempty"`
	MatchString  string `json:"matchString,omitempty"`
	ContextLines int    `json:"matchStringContextLines,omitempty"`
	Minified     bool   `json:"minified"`
}

// FileData is the fetched content. Line numbers refer to the original file;
// a minified whole-file read may have fewer lines than EndLine-StartLine+1.
type FileData struct {
	Path       string `json:"path"`
	Language   string `json:"language,omitempty"`
	Content    string `json:"content"`
	StartLine  int    `json:"startLine"`
	EndLine    int    `json:"endLine"`
	TotalLines int    `json:"totalLines"`
	IsPartial  bool   `json:"isPartial,omitempty"`
	Minified   bool   `json:"minified,omitempty"`
}

const (
	defaultContextLines = 5
	maxContextLines     = 50
	maxFileLines        = 2000
)

var fileHints = bulk.HintTable{
	bulk.StatusHasResults: {
		"Use matchString or startLine/endLine to fetch only the part of a large file you need.",
	},
	bulk.StatusEmpty: {
		"The file is empty or matchString was not found; check spelling and case.",
	},
	bulk.StatusError: {
		"Confirm the path with githubViewRepoStructure before fetching it.",
	},
}

func decodeFileQuery(m map[string]any) (FileQuery, error) {
	a := args{m: m}
	q := FileQuery{
		Research:     a.research(),
		Owner:        a.str("owner"),
		Repo:         a.str("repo"),
		Path:         strings.Trim(a.str("path"), "/"),
		Branch:       a.str("branch"),
		StartLine:    a.integer("startLine", 0),
		EndLine:      a.integer("endLine", 0),
		MatchString:  a.str("matchString"),
		ContextLines: a.integer("matchStringContextLines", defaultContextLines),
		Minified:     a.boolean("minified", true),
	}
	return q, a.err
}

func getFileContentTool(gh GitHub) Tool {
	def := queriesTool(GetFileContent,
		"Fetch the content of a file from a GitHub repository, whole or as a line range or the lines around a matching string.",
		map[string]any{
			"owner":                   stringProp("Repository owner"),
			"repo":                    stringProp("Repository name"),
			"path":                    stringProp("File path from the repository root"),
			"branch":                  stringProp("Branch, tag or commit; the default branch when omitted"),
			"startLine":               numberProp("First line to return, 1-based"),
			"endLine":                 numberProp("Last line to return, inclusive"),
			"matchString":             stringProp("Return only the lines around the first occurrence of this text"),
			"matchStringContextLines": numberProp("Lines of context around matchString (default 5, max 50)"),
			"minified":                boolProp("Trim whitespace and, for whole-file reads, collapse blank lines and compact markdown so lines may not match line numbers (default true)"),
		},
		"owner", "repo", "path",
	)
	spec := bulk.Tool{ID: GetFileContent, ExtraFields: []string{"path", "language", "startLine", "endLine", "totalLines", "isPartial", "content"}}

	worker := func(ctx context.Context, q FileQuery, _ int) (bulk.Result[FileData], error) {
		if q.Owner == "" || q.Repo == "" || q.Path == "" {
			return invalid[FileData]("owner, repo and path are required")
		}
		if q.StartLine < 0 || q.EndLine < 0 || (q.EndLine > 0 && q.StartLine > q.EndLine) {
			return invalid[FileData]("startLine and endLine must form a valid 1-based range")
		}
		if q.MatchString != "" && (q.StartLine > 0 || q.EndLine > 0) {
			return invalid[FileData]("use either matchString or startLine/endLine, not both")
		}

		contents, err := gh.GetContents(ctx, q.Owner, q.Repo, q.Path, q.Branch)
		if err != nil {
			return failure[FileData](ctx, err)
		}
		if contents.File == nil {
			return invalid[FileData](q.Path + " is a directory; list it with githubViewRepoStructure")
		}
		text, err := contents.File.Decoded()
		if err != nil {
			return invalid[FileData](err.Error())
		}
		var hints []string
		if strings.IndexByte(text, 0) >= 0 {
			return bulk.Failed[FileData](q.Path+" is a binary file", "Only text files can be fetched; search for the source that produces it."), nil
		}
		if !utf8.ValidString(text) {
			text = strings.ToValidUTF8(text, "\uFFFD")
			hints = append(hints, q.Path+" is not valid UTF-8; undecodable bytes were replaced.")
		}

		lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
		if text == "" {
			lines = nil
		}
		total := len(lines)
		data := FileData{Path: q.Path, Language: languageOf(q.Path), TotalLines: total}
		if total == 0 {
			return bulk.Empty(data), nil
		}

		start, end := 1, total
		switch {
		case q.MatchString != "":
			first, count := findLine(lines, q.MatchString)
			if first == 0 {
				return bulk.Empty(data, fmt.Sprintf("%q does not occur in %s.", q.MatchString, q.Path)), nil
			}
			ctxLines := min(max(q.ContextLines, 0), maxContextLines)
			start, end = max(1, first-ctxLines), min(total, first+ctxLines)
			if count > 1 {
				hints = append(hints, "matchString occurs more than once; only the first occurrence is shown. Use startLine/endLine for the others.")
			}
		case q.StartLine > 0 || q.EndLine > 0:
			if q.StartLine > total {
				return invalid[FileData](fmt.Sprintf("startLine %d is past the end of the file (%d lines)", q.StartLine, total))
			}
			start = max(q.StartLine, 1)
			if q.EndLine > 0 {
				end = min(q.EndLine, total)
			}
		}
		if end-start+1 > maxFileLines {
			end = start + maxFileLines - 1
			hints = append(hints, fmt.Sprintf("Content was cut at %d lines; request the rest with startLine.", maxFileLines))
		}

		content := strings.Join(lines[start-1:end], "\n")
		switch {
		case !q.Minified:
		case q.MatchString != "" || q.StartLine > 0 || q.EndLine > 0:
			content = minify.Lines(content)
			data.Minified = true
		default:
			content = minify.Content(q.Path, content)
			data.Minified = true
		}
		data.Content = content
		data.StartLine = start
		data.EndLine = end
		data.IsPartial = start > 1 || end < total
		return bulk.HasResults(data, hints...), nil
	}

	return newTool(def, spec, fileHints, decodeFileQuery, worker)
}

// findLine returns the 1-based line of the first occurrence of s and how many
// lines contain it.
func findLine(lines []string, s string) (first, count int) {
	for i, l := range lines {
		if strings.Contains(l, s) {
			if first == 0 {
				first = i + 1
			}
			count++
		}
	}
	return first, count
}

func languageOf(path string) string {
	if lang := pathfilter.Language(path); lang != pathfilter.Unknown {
		return lang
	}
	return ""
}
