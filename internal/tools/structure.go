package tools

import (
	"context"
	"slices"
	"strings"

	"github.com/ziadkadry99/repolens/internal/bulk"
	"github.com/ziadkadry99/repolens/internal/pathfilter"
)

// StructureQuery lists a directory of a repository.
type StructureQuery struct {
	bulk.Research
	Owner           string   `json:"owner"`
	Repo            string   `json:"repo"`
	Branch          string   `json:"branch,omitempty"`
	Path            string   `json:"path,omitempty"`
	Depth           int      `json:"depth,omitempty"`
	ExcludePatterns []string `json:"excludePatterns,omitempty"`
}

// StructureData is the listing of one directory. Paths are relative to Path.
// Folders end with a slash.
type StructureData struct {
	Repository string   `json:"repository"`
	Branch     string   `json:"branch"`
	Path       string   `json:"path"`
	Files      []string `json:"files"`
	Folders    []string `json:"folders"`
	Hidden     int      `json:"hidden,omitempty"`
	Truncated  bool     `json:"truncated,omitempty"`
}

const maxStructureDepth = 2

var structureHints = bulk.HintTable{
	bulk.StatusHasResults: {
		"Browse deeper by querying a folder path, or read files with githubGetFileContent.",
		"Dependency and build folders are hidden; query them by path to list them.",
	},
	bulk.StatusEmpty: {
		"The directory exists but has nothing to show; check the branch or remove excludePatterns.",
	},
	bulk.StatusError: {
		"Use githubSearchRepositories to confirm the exact owner and repo names.",
	},
}

func decodeStructureQuery(m map[string]any) (StructureQuery, error) {
	a := args{m: m}
	q := StructureQuery{
		Research:        a.research(),
		Owner:           a.str("owner"),
		Repo:            a.str("repo"),
		Branch:          a.str("branch"),
		Path:            strings.Trim(a.str("path"), "/"),
		Depth:           a.integer("depth", 1),
		ExcludePatterns: a.strings("excludePatterns"),
	}
	return q, a.err
}

func viewRepoStructureTool(gh GitHub) Tool {
	def := queriesTool(ViewRepoStructure,
		"List the files and folders of a GitHub repository directory, one or two levels deep. Noise such as node_modules and build output is hidden.",
		map[string]any{
			"owner":           stringProp("Repository owner"),
			"repo":            stringProp("Repository name"),
			"branch":          stringProp("Branch, tag or commit; the default branch when omitted"),
			"path":            stringProp("Directory to list; the repository root when omitted"),
			"depth":           numberProp("Levels to list, 1 or 2 (default 1)"),
			"excludePatterns": stringsProp("Glob patterns of paths to hide, e.g. **/*.test.ts"),
		},
		"owner", "repo",
	)
	spec := bulk.Tool{ID: ViewRepoStructure, ExtraFields: []string{"repository", "branch", "path", "folders", "files", "hidden", "truncated"}}

	worker := func(ctx context.Context, q StructureQuery, _ int) (bulk.Result[StructureData], error) {
		if q.Owner == "" || q.Repo == "" {
			return invalid[StructureData]("owner and repo are required")
		}
		if q.Depth < 1 || q.Depth > maxStructureDepth {
			return invalid[StructureData]("depth must be 1 or 2")
		}
		filter, err := pathfilter.New(nil, q.ExcludePatterns)
		if err != nil {
			return invalid[StructureData](err.Error())
		}

		branch := q.Branch
		if branch == "" {
			repo, err := gh.GetRepository(ctx, q.Owner, q.Repo)
			if err != nil {
				return failure[StructureData](ctx, err)
			}
			branch = repo.DefaultBranch
		}

		data := StructureData{
			Repository: q.Owner + "/" + q.Repo,
			Branch:     branch,
			Path:       q.Path,
			Files:      []string{},
			Folders:    []string{},
		}
		add := func(rel string, isDir bool) {
			if !filter.Keep(rel, isDir) {
				data.Hidden++
				return
			}
			if isDir {
				data.Folders = append(data.Folders, rel+"/")
			} else {
				data.Files = append(data.Files, rel)
			}
		}

		if q.Depth == 1 {
			contents, err := gh.GetContents(ctx, q.Owner, q.Repo, q.Path, branch)
			if err != nil {
				return failure[StructureData](ctx, err)
			}
			if contents.File != nil {
				return invalid[StructureData](q.Path + " is a file; read it with githubGetFileContent")
			}
			for _, e := range contents.Dir {
				add(e.Name, e.Type == "dir")
			}
		} else {
			tree, err := gh.GetTree(ctx, q.Owner, q.Repo, branch, true)
			if err != nil {
				return failure[StructureData](ctx, err)
			}
			data.Truncated = tree.Truncated
			prefix := ""
			if q.Path != "" {
				prefix = q.Path + "/"
			}
			for _, e := range tree.Entries {
				rel, ok := strings.CutPrefix(e.Path, prefix)
				if !ok || rel == "" || strings.Count(rel, "/") >= q.Depth {
					continue
				}
				add(rel, e.Type == "tree")
			}
		}

		slices.Sort(data.Files)
		slices.Sort(data.Folders)

		var hints []string
		if data.Truncated {
			hints = append(hints, "The repository tree is too large to list completely; browse a narrower path.")
		}
		if len(data.Files) == 0 && len(data.Folders) == 0 {
			return bulk.Empty(data, hints...), nil
		}
		if len(data.Folders) > 0 && q.Depth == 1 {
			hints = append(hints, "Set depth to 2 to list folder contents in the same call.")
		}
		return bulk.HasResults(data, hints...), nil
	}

	return newTool(def, spec, structureHints, decodeStructureQuery, worker)
}
