package github

import (
	"strings"
)

// qualifiers accumulates search terms and qualifiers in insertion order.
type qualifiers []string

func (q *qualifiers) term(v string) {
	if v = strings.TrimSpace(v); v != "" {
		*q = append(*q, quote(v))
	}
}

func (q *qualifiers) add(name, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*q = append(*q, name+":"+quote(v))
	}
}

func (q *qualifiers) raw(v string) {
	*q = append(*q, v)
}

func (q qualifiers) String() string { return strings.Join(q, " ") }

// quote wraps values containing whitespace in double quotes.
func quote(v string) string {
	if strings.ContainsAny(v, " \t") && !strings.HasPrefix(v, `"`) {
		return `"` + strings.ReplaceAll(v, `"`, "") + `"`
	}
	return v
}

// scope adds a repo: qualifier when both owner and repo are known and a
// user: qualifier when only the owner is.
func (q *qualifiers) scope(owner, repo string) {
	owner, repo = strings.TrimSpace(owner), strings.TrimSpace(repo)
	switch {
	case owner != "" && repo != "":
		q.raw("repo:" + owner + "/" + repo)
	case owner != "":
		q.raw("user:" + owner)
	}
}

// CodeSearchQuery builds a /search/code query string.
type CodeSearchQuery struct {
	Keywords  []string
	Owner     string
	Repo      string
	Language  string
	Extension string
	Filename  string
	Path      string
	// Match restricts matching to "file" contents or the "path".
	Match string
}

func (c CodeSearchQuery) String() string {
	var q qualifiers
	for _, k := range c.Keywords {
		q.term(k)
	}
	q.scope(c.Owner, c.Repo)
	q.add("language", c.Language)
	q.add("extension", strings.TrimPrefix(c.Extension, "."))
	q.add("filename", c.Filename)
	q.add("path", c.Path)
	q.add("in", c.Match)
	return q.String()
}

// RepoSearchQuery builds a /search/repositories query string.
type RepoSearchQuery struct {
	Keywords []string
	Topics   []string
	Owner    string
	Language string
	// Stars is a GitHub range expression such as ">100" or "10..50".
	Stars string
}

func (r RepoSearchQuery) String() string {
	var q qualifiers
	for _, k := range r.Keywords {
		q.term(k)
	}
	for _, t := range r.Topics {
		q.add("topic", t)
	}
	q.add("user", r.Owner)
	q.add("language", r.Language)
	q.add("stars", r.Stars)
	return q.String()
}

// PullRequestSearchQuery builds a /search/issues query restricted to pull
// requests.
type PullRequestSearchQuery struct {
	Keywords []string
	Owner    string
	Repo     string
	State    string
	Author   string
	Labels   []string
	Merged   *bool
	Draft    *bool
}

func (p PullRequestSearchQuery) String() string {
	var q qualifiers
	for _, k := range p.Keywords {
		q.term(k)
	}
	q.raw("is:pr")
	q.scope(p.Owner, p.Repo)
	q.add("state", p.State)
	q.add("author", p.Author)
	for _, l := range p.Labels {
		if l = strings.TrimSpace(l); l != "" {
			q.raw(`label:"` + strings.ReplaceAll(l, `"`, "") + `"`)
		}
	}
	if p.Merged != nil {
		if *p.Merged {
			q.raw("is:merged")
		} else {
			q.raw("is:unmerged")
		}
	}
	if p.Draft != nil {
		if *p.Draft {
			q.raw("draft:true")
		} else {
			q.raw("draft:false")
		}
	}
	return q.String()
}
