// Package tools defines the bulk query tools: their MCP definitions, query
// decoding, workers and hint tables.
package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/repolens/internal/bulk"
	"github.com/ziadkadry99/repolens/internal/github"
	"github.com/ziadkadry99/repolens/internal/pkgsearch"
)

// Tool identifiers.
const (
	SearchCode         bulk.ToolID = "githubSearchCode"
	SearchRepositories bulk.ToolID = "githubSearchRepositories"
	ViewRepoStructure  bulk.ToolID = "githubViewRepoStructure"
	SearchPullRequests bulk.ToolID = "githubSearchPullRequests"
	GetFileContent     bulk.ToolID = "githubGetFileContent"
	PackageSearch      bulk.ToolID = "packageSearch"
)

// GitHub is the subset of the GitHub client used by the tools.
type GitHub interface {
	SearchCode(ctx context.Context, q string, opts github.SearchOptions) (*github.CodeSearchResult, error)
	SearchRepositories(ctx context.Context, q string, opts github.SearchOptions) (*github.RepoSearchResult, error)
	SearchIssues(ctx context.Context, q string, opts github.SearchOptions) (*github.IssueSearchResult, error)
	GetRepository(ctx context.Context, owner, repo string) (*github.Repository, error)
	GetContents(ctx context.Context, owner, repo, path, ref string) (*github.Contents, error)
	GetTree(ctx context.Context, owner, repo, ref string, recursive bool) (*github.Tree, error)
}

// Packages looks up packages in a registry.
type Packages interface {
	Search(ctx context.Context, eco pkgsearch.Ecosystem, name string, limit int) ([]pkgsearch.Package, error)
}

// Deps are the remote clients the tools call.
type Deps struct {
	GitHub   GitHub
	Packages Packages
}

// Runner decodes raw queries and executes them through the engine.
type Runner func(ctx context.Context, e *bulk.Engine, raw []any, opts ...bulk.ExecOption) bulk.Response

// Tool is one bulk tool ready to be registered.
type Tool struct {
	Definition mcp.Tool
	Spec       bulk.Tool
	Hints      bulk.HintTable
	Run        Runner
}

// ID returns the tool identifier.
func (t Tool) ID() bulk.ToolID { return t.Spec.ID }

// newTool binds a typed decoder and worker into a Tool.
func newTool[Q bulk.Query, T any](def mcp.Tool, spec bulk.Tool, hints bulk.HintTable, decode func(map[string]any) (Q, error), worker bulk.Worker[Q, T]) Tool {
	run := func(ctx context.Context, e *bulk.Engine, raw []any, opts ...bulk.ExecOption) bulk.Response {
		queries := make([]Q, len(raw))
		for i, r := range raw {
			m, ok := r.(map[string]any)
			if !ok {
				return e.Reject(spec.ID, fmt.Sprintf("queries[%d] must be an object", i))
			}
			q, err := decode(m)
			if err != nil {
				return e.Reject(spec.ID, fmt.Sprintf("queries[%d]: %v", i, err))
			}
			queries[i] = q
		}
		return bulk.Execute(ctx, e, spec, queries, worker, opts...)
	}
	return Tool{Definition: def, Spec: spec, Hints: hints, Run: run}
}

// All returns every tool backed by deps.
func All(deps Deps) []Tool {
	return []Tool{
		searchCodeTool(deps.GitHub),
		searchRepositoriesTool(deps.GitHub),
		viewRepoStructureTool(deps.GitHub),
		searchPullRequestsTool(deps.GitHub),
		getFileContentTool(deps.GitHub),
		packageSearchTool(deps.Packages),
	}
}

// Lookup finds a tool by identifier.
func Lookup(tools []Tool, id string) (Tool, bool) {
	for _, t := range tools {
		if string(t.Spec.ID) == id {
			return t, true
		}
	}
	return Tool{}, false
}

// NewRegistry builds the hint registry for tools.
func NewRegistry(tools []Tool) *bulk.Registry {
	tables := make(map[bulk.ToolID]bulk.HintTable, len(tools))
	for _, t := range tools {
		tables[t.Spec.ID] = t.Hints
	}
	return bulk.NewRegistry(BaseHints, tables)
}

// QueriesFromArgs extracts the queries array from tool arguments.
func QueriesFromArgs(args map[string]any) ([]any, error) {
	raw, ok := args["queries"]
	if !ok || raw == nil {
		return nil, fmt.Errorf("missing required parameter: queries")
	}
	switch v := raw.(type) {
	case []any:
		return v, nil
	case []map[string]any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, nil
	case map[string]any:
		return []any{v}, nil
	}
	return nil, fmt.Errorf("queries must be an array of objects")
}
