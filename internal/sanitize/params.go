package sanitize

import (
	"fmt"
	"slices"
	"unicode/utf8"
)

// Limits applied by ValidateInputParameters.
const (
	MaxStringLength = 10000
	MaxArrayLength  = 100
	MaxDepth        = 10
)

// dangerousKeys never survive validation.
var dangerousKeys = []string{"__proto__", "constructor", "prototype"}

// Validation is the outcome of ValidateInputParameters.
type Validation struct {
	IsValid         bool
	SanitizedParams map[string]any
	Warnings        []string
}

// ValidateInputParameters cleans tool arguments before they are parsed into
// queries. params must be a JSON object; anything else is rejected.
func ValidateInputParameters(params any) Validation {
	obj, ok := params.(map[string]any)
	if !ok {
		return Validation{Warnings: []string{"parameters must be an object"}}
	}
	v := &validator{}
	out, _ := v.object(obj, "", 0)
	return Validation{IsValid: true, SanitizedParams: out, Warnings: v.warnings}
}

type validator struct {
	warnings []string
}

func (v *validator) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if !slices.Contains(v.warnings, msg) {
		v.warnings = append(v.warnings, msg)
	}
}

func (v *validator) object(m map[string]any, path string, depth int) (map[string]any, bool) {
	out := make(map[string]any, len(m))
	for k, val := range m {
		p := join(path, k)
		if slices.Contains(dangerousKeys, k) {
			v.warn("removed dangerous key %q", p)
			continue
		}
		if cleaned, keep := v.value(val, p, depth+1); keep {
			out[k] = cleaned
		}
	}
	return out, true
}

func (v *validator) value(val any, path string, depth int) (any, bool) {
	if depth > MaxDepth {
		v.warn("dropped %q: nesting deeper than %d levels", path, MaxDepth)
		return nil, false
	}
	switch t := val.(type) {
	case string:
		if len(t) > MaxStringLength {
			v.warn("truncated %q to %d bytes", path, MaxStringLength)
			t = truncate(t, MaxStringLength)
		}
		res := Sanitize(t)
		for _, w := range res.Warnings {
			v.warn("redacted %s in %q", w, path)
		}
		return res.Content, true
	case []any:
		if len(t) > MaxArrayLength {
			v.warn("truncated %q to %d items", path, MaxArrayLength)
			t = t[:MaxArrayLength]
		}
		out := make([]any, 0, len(t))
		for i, item := range t {
			if cleaned, keep := v.value(item, fmt.Sprintf("%s[%d]", path, i), depth+1); keep {
				out = append(out, cleaned)
			}
		}
		return out, true
	case map[string]any:
		return v.object(t, path, depth)
	}
	return val, true
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
