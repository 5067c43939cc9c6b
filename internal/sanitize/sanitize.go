// Package sanitize redacts secret-looking content from text leaving the
// server and cleans tool arguments before they reach any worker.
package sanitize

import (
	"regexp"
	"slices"
)

// Result is the outcome of a redaction pass.
type Result struct {
	Content string
	// Warnings names each pattern that matched at least once, in catalogue
	// order.
	Warnings []string
}

// pattern pairs a compiled regex with the name used in its replacement.
type pattern struct {
	Name    string
	Pattern *regexp.Regexp
	// Keep and Tail are replacement templates for the non-secret parts of a
	// match surrounding the redaction marker.
	Keep string
	Tail string
}

// patterns is ordered most specific first: "sk-ant-" keys must be consumed
// before the generic "sk-" rule sees them.
var patterns = []pattern{
	{Name: "PRIVATE-KEY", Pattern: regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]*?-----END [A-Z ]*PRIVATE KEY-----`)},
	{Name: "GITHUB-PAT", Pattern: regexp.MustCompile(`github_pat_[A-Za-z0-9_]{22,}`)},
	{Name: "GITHUB-TOKEN", Pattern: regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{36,}`)},
	{Name: "ANTHROPIC-KEY", Pattern: regexp.MustCompile(`\bsk-ant-[A-Za-z0-9]+-[A-Za-z0-9_-]{20,}`)},
	{Name: "OPENAI-KEY", Pattern: regexp.MustCompile(`\bsk-(?:proj-)?[A-Za-z0-9_-]{20,}`)},
	{Name: "GOOGLE-API-KEY", Pattern: regexp.MustCompile(`AIza[A-Za-z0-9_-]{35}`)},
	{Name: "AWS-ACCESS-KEY", Pattern: regexp.MustCompile(`\b(?:AKIA|ASIA)[A-Z0-9]{16}\b`)},
	{Name: "SLACK-TOKEN", Pattern: regexp.MustCompile(`xox[abposr]-[A-Za-z0-9-]{10,}`)},
	{Name: "JWT", Pattern: regexp.MustCompile(`eyJ[A-Za-z0-9_-]{8,}\.eyJ[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}`)},
	{Name: "BEARER-TOKEN", Pattern: regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._~+/-]{16,}=*`), Keep: "${1}"},
	{Name: "PASSWORD", Pattern: regexp.MustCompile(`(?i)(password\s*[=:]\s*)[^\s&"'\[]{3,}`), Keep: "${1}"},
	{Name: "CONNECTION-STRING", Pattern: regexp.MustCompile(`\b((?:postgres(?:ql)?|mysql|mongodb(?:\+srv)?|redis|amqp)://)[^\s:@/]+:[^\s@/]+@`), Keep: "${1}", Tail: "@"},
}

// Patterns returns the catalogue's pattern names in matching order.
func Patterns() []string {
	names := make([]string, len(patterns))
	for i, p := range patterns {
		names[i] = p.Name
	}
	return names
}

// Sanitizer applies the redaction catalogue. The zero value is ready to use.
type Sanitizer struct{}

// New returns a Sanitizer.
func New() *Sanitizer { return &Sanitizer{} }

// Sanitize implements the redaction pass on s.
func (*Sanitizer) Sanitize(s string) Result { return Sanitize(s) }

// Sanitize replaces every match of the catalogue in text with a
// [REDACTED-<NAME>] marker. Text without matches is returned unchanged.
func Sanitize(text string) Result {
	res := Result{Content: text}
	if text == "" {
		return res
	}
	for _, p := range patterns {
		if !p.Pattern.MatchString(res.Content) {
			continue
		}
		res.Content = p.Pattern.ReplaceAllString(res.Content, p.Keep+"[REDACTED-"+p.Name+"]"+p.Tail)
		if !slices.Contains(res.Warnings, p.Name) {
			res.Warnings = append(res.Warnings, p.Name)
		}
	}
	return res
}
