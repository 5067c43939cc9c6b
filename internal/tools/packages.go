package tools

import (
	"context"
	"errors"

	"github.com/ziadkadry99/repolens/internal/bulk"
	"github.com/ziadkadry99/repolens/internal/pkgsearch"
)

// PackageQuery looks up a package in a registry.
type PackageQuery struct {
	bulk.Research
	Ecosystem string `json:"ecosystem"`
	Name      string `json:"name"`
	Limit     int    `json:"limit,omitempty"`
}

// PackageData is the payload of a package search.
type PackageData struct {
	Ecosystem string              `json:"ecosystem"`
	Packages  []pkgsearch.Package `json:"packages"`
}

var packageHints = bulk.HintTable{
	bulk.StatusHasResults: {
		"Explore a package's source with githubViewRepoStructure using its repository URL.",
	},
	bulk.StatusEmpty: {
		"Try the package's common name or a shorter search term.",
	},
	bulk.StatusError: {
		"Supported ecosystems are npm and python.",
	},
}

func decodePackageQuery(m map[string]any) (PackageQuery, error) {
	a := args{m: m}
	q := PackageQuery{
		Research:  a.research(),
		Ecosystem: a.str("ecosystem"),
		Name:      a.str("name"),
		Limit:     a.integer("limit", 0),
	}
	return q, a.err
}

func packageSearchTool(pkgs Packages) Tool {
	def := queriesTool(PackageSearch,
		"Look up packages in the npm or PyPI registry and find their source repositories.",
		map[string]any{
			"ecosystem": stringProp("Package registry", "npm", "python"),
			"name":      stringProp("Package name or npm search text"),
			"limit":     numberProp("Maximum npm packages to return (default 5, max 20)"),
		},
		"ecosystem", "name",
	)
	spec := bulk.Tool{ID: PackageSearch, ExtraFields: []string{"ecosystem", "packages", "name", "version", "description", "repository"}}

	worker := func(ctx context.Context, q PackageQuery, _ int) (bulk.Result[PackageData], error) {
		eco, err := pkgsearch.ParseEcosystem(q.Ecosystem)
		if err != nil {
			return invalid[PackageData](err.Error())
		}
		if q.Name == "" {
			return invalid[PackageData]("name is required")
		}

		found, err := pkgs.Search(ctx, eco, q.Name, q.Limit)
		data := PackageData{Ecosystem: string(eco), Packages: found}
		if errors.Is(err, pkgsearch.ErrNotFound) {
			return bulk.Empty(data, "PyPI lookups need the exact project name."), nil
		}
		if err != nil {
			return failure[PackageData](ctx, err)
		}
		if len(found) == 0 {
			return bulk.Empty(data), nil
		}
		return bulk.HasResults(data), nil
	}

	return newTool(def, spec, packageHints, decodePackageQuery, worker)
}
