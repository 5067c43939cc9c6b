package tools

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"github.com/ziadkadry99/repolens/internal/bulk"
)

// args wraps one decoded query object. Decoding errors are collected so a
// decoder can read every field and report the first problem.
type args struct {
	m   map[string]any
	err error
}

func (a *args) fail(key string, err error) {
	if a.err == nil {
		a.err = fmt.Errorf("%s: %w", key, err)
	}
}

func (a *args) str(key string) string {
	v, ok := a.m[key]
	if !ok || v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		a.fail(key, err)
		return ""
	}
	return strings.TrimSpace(s)
}

func (a *args) integer(key string, def int) int {
	v, ok := a.m[key]
	if !ok || v == nil || v == "" {
		return def
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		a.fail(key, err)
		return def
	}
	return n
}

func (a *args) optBool(key string) *bool {
	v, ok := a.m[key]
	if !ok || v == nil || v == "" {
		return nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		a.fail(key, err)
		return nil
	}
	return &b
}

func (a *args) boolean(key string, def bool) bool {
	if b := a.optBool(key); b != nil {
		return *b
	}
	return def
}

// strings accepts a list or a single string. A single string is kept whole
// rather than split on whitespace.
func (a *args) strings(key string) []string {
	v, ok := a.m[key]
	if !ok || v == nil {
		return nil
	}
	if s, isString := v.(string); isString {
		if s = strings.TrimSpace(s); s != "" {
			return []string{s}
		}
		return nil
	}
	list, err := cast.ToStringSliceE(v)
	if err != nil {
		a.fail(key, err)
		return nil
	}
	var out []string
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (a *args) research() bulk.Research {
	return bulk.Research{
		ResearchGoal:        a.str(bulk.FieldResearchGoal),
		Reasoning:           a.str(bulk.FieldReasoning),
		ResearchSuggestions: a.strings(bulk.FieldResearchSuggestions),
	}
}

func oneOf(v string, allowed ...string) error {
	if v == "" {
		return nil
	}
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("%q is not one of %s", v, strings.Join(allowed, ", "))
}

// researchProperties are accepted by every query.
var researchProperties = map[string]any{
	bulk.FieldResearchGoal: map[string]any{
		"type":        "string",
		"description": "What this query is trying to find out",
	},
	bulk.FieldReasoning: map[string]any{
		"type":        "string",
		"description": "Why this query helps reach the goal",
	},
	bulk.FieldResearchSuggestions: map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": "Follow-up ideas to carry along with the result",
	},
}

// queriesTool builds an MCP tool whose only parameter is a queries array of
// objects with the given properties.
func queriesTool(id bulk.ToolID, description string, properties map[string]any, required ...string) mcp.Tool {
	props := make(map[string]any, len(properties)+len(researchProperties))
	for k, v := range researchProperties {
		props[k] = v
	}
	for k, v := range properties {
		props[k] = v
	}
	item := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		item["required"] = required
	}
	return mcp.NewTool(string(id),
		mcp.WithDescription(description),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
		mcp.WithArray("queries",
			mcp.Required(),
			mcp.Description("Independent queries to run in one call. Each query gets its own result with a status."),
			mcp.MinItems(1),
			mcp.Items(item),
		),
	)
}

func stringProp(description string, enum ...string) map[string]any {
	p := map[string]any{"type": "string", "description": description}
	if len(enum) > 0 {
		p["enum"] = enum
	}
	return p
}

func numberProp(description string) map[string]any {
	return map[string]any{"type": "number", "description": description}
}

func boolProp(description string) map[string]any {
	return map[string]any{"type": "boolean", "description": description}
}

func stringsProp(description string) map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": description}
}

// clamp bounds n to [1, hi], using def when n is not positive.
func clamp(n, def, hi int) int {
	if n <= 0 {
		return def
	}
	return min(n, hi)
}
