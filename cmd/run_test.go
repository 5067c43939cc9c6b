package cmd

import (
	"strings"
	"testing"

	"github.com/ziadkadry99/repolens/internal/tools"
)

func TestParseQueries(t *testing.T) {
	tests := []struct {
		name  string
		input string
		count int
	}{
		{"list", "- keywords: [retry]\n- keywords: [backoff]\n", 2},
		{"object with queries", `{"queries": [{"owner": "golang", "repo": "go"}]}`, 1},
		{"single query", "owner: golang\nrepo: go\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := parseQueries([]byte(tt.input))
			if err != nil {
				t.Fatalf("parseQueries: %v", err)
			}
			raw, err := tools.QueriesFromArgs(params)
			if err != nil {
				t.Fatalf("QueriesFromArgs: %v", err)
			}
			if len(raw) != tt.count {
				t.Errorf("got %d queries, want %d", len(raw), tt.count)
			}
		})
	}
}

func TestParseQueriesErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "empty"},
		{"scalar", "42", "must hold a list or an object"},
		{"malformed", "queries: [", "parsing queries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseQueries([]byte(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestToolNamesSorted(t *testing.T) {
	names := toolNames(tools.All(tools.Deps{}))
	if len(names) != 6 {
		t.Fatalf("got %d tools, want 6", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("names not sorted: %v", names)
		}
	}
}
