package bulk

import "slices"

// ToolID identifies a tool in the hint registry and in the envelope.
type ToolID string

// HintTable maps a status to its guidance strings.
type HintTable map[Status][]string

// Registry is an immutable table of guidance strings keyed by tool and
// status. It is built once at startup and shared by every tool call.
type Registry struct {
	base  HintTable
	tools map[ToolID]HintTable
}

// NewRegistry builds a Registry from universal base hints and per-tool hints.
// The inputs are copied, so later changes to them do not affect the registry.
func NewRegistry(base HintTable, tools map[ToolID]HintTable) *Registry {
	r := &Registry{
		base:  copyTable(base),
		tools: make(map[ToolID]HintTable, len(tools)),
	}
	for id, table := range tools {
		r.tools[id] = copyTable(table)
	}
	return r
}

func copyTable(t HintTable) HintTable {
	out := make(HintTable, len(t))
	for status, hints := range t {
		out[status] = slices.Clone(hints)
	}
	return out
}

// Known reports whether tool has its own hint table.
func (r *Registry) Known(tool ToolID) bool {
	_, ok := r.tools[tool]
	return ok
}

// BucketHints is the guidance produced for one result.
type BucketHints struct {
	Bucket Status
	Values []string
}

// Hints returns the base guidance for status, followed by the tool specific
// guidance and the worker supplied hints, with duplicates removed. An unknown
// tool yields only the base guidance.
func (r *Registry) Hints(tool ToolID, status Status, workerHints []string) BucketHints {
	var values []string
	seen := make(map[string]struct{})
	add := func(hints []string) {
		for _, h := range hints {
			if h == "" {
				continue
			}
			if _, dup := seen[h]; dup {
				continue
			}
			seen[h] = struct{}{}
			values = append(values, h)
		}
	}
	if r != nil {
		add(r.base[status])
		add(r.tools[tool][status])
	}
	add(workerHints)
	return BucketHints{Bucket: status, Values: values}
}

// HintBuckets accumulates hints for a whole batch. Each distinct string
// appears once per bucket, in first-seen order.
type HintBuckets struct {
	values map[Status][]string
	seen   map[Status]map[string]struct{}
}

// NewHintBuckets returns an empty accumulator.
func NewHintBuckets() *HintBuckets {
	b := &HintBuckets{
		values: make(map[Status][]string, len(Statuses)),
		seen:   make(map[Status]map[string]struct{}, len(Statuses)),
	}
	for _, s := range Statuses {
		b.values[s] = []string{}
		b.seen[s] = make(map[string]struct{})
	}
	return b
}

// Add merges h into its bucket.
func (b *HintBuckets) Add(h BucketHints) {
	seen, ok := b.seen[h.Bucket]
	if !ok {
		return
	}
	for _, v := range h.Values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		b.values[h.Bucket] = append(b.values[h.Bucket], v)
	}
}

// Get returns the hints collected for status. The slice is never nil.
func (b *HintBuckets) Get(status Status) []string {
	if v, ok := b.values[status]; ok {
		return v
	}
	return []string{}
}
