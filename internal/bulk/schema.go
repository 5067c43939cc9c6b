package bulk

import (
	"fmt"
	"slices"
)

// Schema is a versioned, ordered list of response fields. Serialization
// emits declared fields first, in declaration order, and any other field
// afterwards in lexicographic order.
type Schema struct {
	version int
	fields  []string
	rank    map[string]int
}

// NewSchema declares a schema. Field names must be unique and non-empty.
func NewSchema(version int, fields ...string) (Schema, error) {
	s := Schema{
		version: version,
		fields:  slices.Clone(fields),
		rank:    make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f == "" {
			return Schema{}, fmt.Errorf("schema v%d: empty field name at position %d", version, i)
		}
		if _, dup := s.rank[f]; dup {
			return Schema{}, fmt.Errorf("schema v%d: duplicate field %q", version, f)
		}
		s.rank[f] = i
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on an invalid declaration. It is
// meant for package level schema variables.
func MustSchema(version int, fields ...string) Schema {
	s, err := NewSchema(version, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Extend returns a schema with the tool declared extra fields appended.
func (s Schema) Extend(extra ...string) (Schema, error) {
	return NewSchema(s.version, append(slices.Clone(s.fields), extra...)...)
}

// Version returns the schema version.
func (s Schema) Version() int { return s.version }

// Fields returns the declared field order.
func (s Schema) Fields() []string { return slices.Clone(s.fields) }

// compare orders two keys of the same object.
func (s Schema) compare(a, b string) int {
	ra, aok := s.rank[a]
	rb, bok := s.rank[b]
	switch {
	case aok && bok:
		return ra - rb
	case aok:
		return -1
	case bok:
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Envelope and per-result field names.
const (
	FieldInstructions        = "instructions"
	FieldResults             = "results"
	FieldHasResultsHints     = "hasResultsStatusHints"
	FieldEmptyHints          = "emptyStatusHints"
	FieldErrorHints          = "errorStatusHints"
	FieldQuery               = "query"
	FieldStatus              = "status"
	FieldData                = "data"
	FieldError               = "error"
	FieldResearchGoal        = "researchGoal"
	FieldReasoning           = "reasoning"
	FieldResearchSuggestions = "researchSuggestions"
)

// ResponseSchemaV1 is the field order of every envelope: universal fields,
// then per-result fields. Tools append their own fields with Extend.
var ResponseSchemaV1 = MustSchema(1,
	FieldInstructions,
	FieldResults,
	FieldHasResultsHints,
	FieldEmptyHints,
	FieldErrorHints,
	FieldQuery,
	FieldStatus,
	FieldData,
	FieldError,
	FieldResearchGoal,
	FieldReasoning,
	FieldResearchSuggestions,
)
