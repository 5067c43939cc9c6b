package bulk

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/ziadkadry99/repolens/internal/sanitize"
)

// FileMatchesField is the field holding per-file match listings. Inside its
// subtree, arrays at depth 2 or deeper survive compaction even when empty: an
// empty match list means the file matched by path only.
const FileMatchesField = "files"

// fileMatchesKeepDepth is the depth, counted in container hops from the
// FileMatchesField value, from which empty arrays are preserved.
const fileMatchesKeepDepth = 2

// Sanitizer redacts secret-looking content from serialized output.
type Sanitizer interface {
	Sanitize(text string) sanitize.Result
}

// Compactor turns a response value into the compact textual envelope
// returned to callers.
type Compactor struct {
	schema    Schema
	sanitizer Sanitizer
	logger    *slog.Logger
}

// NewCompactor creates a Compactor ordering fields by schema. A nil
// sanitizer disables the final redaction pass.
func NewCompactor(schema Schema, sanitizer Sanitizer, logger *slog.Logger) *Compactor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compactor{schema: schema, sanitizer: sanitizer, logger: logger}
}

// WithSchema returns a copy of c ordering fields by schema.
func (c *Compactor) WithSchema(schema Schema) *Compactor {
	cp := *c
	cp.schema = schema
	return &cp
}

// serializeFailure replaces an envelope that could not be rendered.
const serializeFailure = FieldError + ": failed to serialize response\n"

// Compact prunes, orders and serializes raw, then runs the result through
// the sanitizer. Output is byte-for-byte stable for equal input. A value
// that cannot be rendered yields a bare error document.
func (c *Compactor) Compact(raw any) string {
	text, err := c.Render(raw)
	if err != nil {
		c.logger.Error("serializing response", "error", err)
		return serializeFailure
	}
	return text
}

// Render is Compact reporting serialization failures to the caller.
//
// String leaves are made valid UTF-8 and redacted before the YAML tree is
// built, so a redaction marker is always quoted by the encoder. The
// sanitizer then runs once more over the whole text; if that pass changes
// anything, the result must still parse.
func (c *Compactor) Render(raw any) (string, error) {
	tree := Prune(ToTree(raw))
	if tree == nil {
		tree = map[string]any{}
	}

	var redacted []string
	tree = c.clean(tree, &redacted)

	text, err := c.Serialize(tree)
	if err != nil {
		return "", err
	}

	if c.sanitizer != nil {
		res := c.sanitizer.Sanitize(text)
		if res.Content != text {
			if err := yaml.Unmarshal([]byte(res.Content), new(yaml.Node)); err != nil {
				return "", fmt.Errorf("redacted response is not valid yaml: %w", err)
			}
			text = res.Content
			redacted = mergeNames(redacted, res.Warnings)
		}
	}
	if len(redacted) > 0 {
		c.logger.Warn("redacted sensitive content from response", "patterns", strings.Join(redacted, ","))
	}
	return text, nil
}

// clean returns tree with every string, map keys included, converted to
// valid UTF-8 and passed through the sanitizer. Matched pattern names are
// added to redacted.
func (c *Compactor) clean(v any, redacted *[]string) any {
	switch t := v.(type) {
	case string:
		return c.cleanString(t, redacted)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[c.cleanString(k, redacted)] = c.clean(val, redacted)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = c.clean(val, redacted)
		}
		return out
	}
	return v
}

func (c *Compactor) cleanString(s string, redacted *[]string) string {
	s = validUTF8(s)
	if c.sanitizer == nil || s == "" {
		return s
	}
	res := c.sanitizer.Sanitize(s)
	*redacted = mergeNames(*redacted, res.Warnings)
	return res.Content
}

// validUTF8 replaces invalid byte sequences with U+FFFD. The YAML encoder
// refuses to emit invalid UTF-8.
func validUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "\uFFFD")
}

func mergeNames(dst, names []string) []string {
	for _, n := range names {
		if !slices.Contains(dst, n) {
			dst = append(dst, n)
		}
	}
	return dst
}

// Prune removes nil values, NaN floats, empty objects and empty arrays from
// tree, except for empty arrays nested under FileMatchesField. It returns nil
// when nothing is left.
func Prune(tree any) any {
	v, _ := prune(tree, -1)
	return v
}

// prune returns the compacted value and whether it should be kept. depth is
// the distance from the nearest FileMatchesField value, or -1 outside one.
func prune(v any, depth int) (any, bool) {
	child := func(key string) int {
		if depth >= 0 {
			return depth + 1
		}
		if key == FileMatchesField {
			return 0
		}
		return -1
	}

	switch t := v.(type) {
	case nil:
		return nil, false
	case float64:
		if math.IsNaN(t) {
			return nil, false
		}
		return t, true
	case float32:
		if math.IsNaN(float64(t)) {
			return nil, false
		}
		return float64(t), true
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if pv, keep := prune(val, child(k)); keep {
				out[k] = pv
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	case []any:
		out := make([]any, 0, len(t))
		next := -1
		if depth >= 0 {
			next = depth + 1
		}
		for _, val := range t {
			if pv, keep := prune(val, next); keep {
				out = append(out, pv)
			}
		}
		if len(out) == 0 && depth < fileMatchesKeepDepth {
			return nil, false
		}
		return out, true
	}
	return v, true
}

// Serialize renders a pruned tree as YAML with keys ordered by the schema.
func (c *Compactor) Serialize(tree any) (string, error) {
	node := c.node(tree)
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return "", fmt.Errorf("encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("closing yaml encoder: %w", err)
	}
	return buf.String(), nil
}

func (c *Compactor) node(v any) *yaml.Node {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, c.schema.compare)
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range keys {
			n.Content = append(n.Content, scalar("!!str", validUTF8(k)), c.node(t[k]))
		}
		return n
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range t {
			n.Content = append(n.Content, c.node(item))
		}
		return n
	case string:
		t = validUTF8(t)
		n := scalar("!!str", t)
		if strings.Contains(t, "\n") {
			n.Style = yaml.LiteralStyle
		}
		return n
	case bool:
		return scalar("!!bool", strconv.FormatBool(t))
	case int64:
		return scalar("!!int", strconv.FormatInt(t, 10))
	case int:
		return scalar("!!int", strconv.Itoa(t))
	case float64:
		switch {
		case math.IsInf(t, 1):
			return scalar("!!float", ".inf")
		case math.IsInf(t, -1):
			return scalar("!!float", "-.inf")
		}
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return scalar("!!int", strconv.FormatInt(int64(t), 10))
		}
		return scalar("!!float", strconv.FormatFloat(t, 'g', -1, 64))
	case nil:
		return scalar("!!null", "null")
	}
	return scalar("!!str", fmt.Sprint(v))
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}
