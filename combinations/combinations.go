// Package combinations expands keyed candidate values into the cartesian
// product of test combinations, with optional filtering and derived unique
// identifiers.
package combinations

import (
	"fmt"
	"sort"
)

// Combination is one assignment of a value to every key of the input set.
type Combination map[string]any

// Get returns the value assigned to key, nil when the key is absent.
func (c Combination) Get(key string) any {
	return c[key]
}

// Set is an insertion-ordered mapping of keys to candidate value slices.
// Scalar values wrap into one-element slices.
type Set struct {
	keys   []string
	values map[string][]any
}

// NewSet returns an empty candidate set.
func NewSet() *Set {
	return &Set{values: make(map[string][]any)}
}

// FromMap builds a set from a plain map. Keys are sorted so the resulting
// expansion order is deterministic.
func FromMap(m map[string]any) *Set {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	s := NewSet()
	for _, key := range keys {
		s.Add(key, m[key])
	}
	return s
}

// Add appends candidates for a key. A slice value contributes its elements;
// anything else is a single candidate. Re-adding a key extends its
// candidates without changing its position.
func (s *Set) Add(key string, value any) *Set {
	candidates, ok := value.([]any)
	if !ok {
		candidates = []any{value}
	}
	if _, seen := s.values[key]; !seen {
		s.keys = append(s.keys, key)
	}
	s.values[key] = append(s.values[key], candidates...)
	return s
}

// Keys returns the keys in insertion order.
func (s *Set) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Len returns the number of keys.
func (s *Set) Len() int {
	return len(s.keys)
}

// IDFunc renders one key-value pair of a combination for its identifier.
// Returning an empty string omits the pair.
type IDFunc func(key string, value any) string

// DefaultID renders bool true as the bare key, omits bool false, and
// renders everything else as key:value.
func DefaultID(key string, value any) string {
	switch v := value.(type) {
	case bool:
		if v {
			return key
		}
		return ""
	default:
		return fmt.Sprintf("%s:%v", key, value)
	}
}

type config struct {
	idFunc  IDFunc
	filters []any
	context any
}

// GenerateOption customizes a Generate call.
type GenerateOption func(*config)

// WithIDFunc replaces the default identifier renderer.
func WithIDFunc(fn IDFunc) GenerateOption {
	return func(c *config) { c.idFunc = fn }
}

// WithFilters adds combination filters. Each filter must be either
// func(Combination) bool or func(Combination, any) bool; anything else
// fails Generate before any expansion happens.
func WithFilters(filters ...any) GenerateOption {
	return func(c *config) { c.filters = append(c.filters, filters...) }
}

// WithContext supplies the second argument passed to two-argument filters.
func WithContext(ctx any) GenerateOption {
	return func(c *config) { c.context = ctx }
}

// Generate expands the set into the cartesian product of its candidates,
// drops combinations any filter rejects, and derives one identifier per
// retained combination. Identifiers join the rendered pairs with "," in key
// insertion order; a collision is a hard *DuplicateIDError. An empty set
// yields empty results and no error.
func Generate(set *Set, opts ...GenerateOption) ([]Combination, []string, error) {
	cfg := config{idFunc: DefaultID}
	for _, opt := range opts {
		opt(&cfg)
	}

	filters, err := compileFilters(cfg.filters, cfg.context)
	if err != nil {
		return nil, nil, err
	}

	if set == nil || set.Len() == 0 {
		return []Combination{}, []string{}, nil
	}

	var (
		combos []Combination
		ids    []string
		seen   = make(map[string]Combination)
	)

	expand(set, 0, Combination{}, func(combo Combination) error {
		for _, filter := range filters {
			if !filter(combo) {
				return nil
			}
		}

		id := deriveID(set.keys, combo, cfg.idFunc)
		if prev, dup := seen[id]; dup {
			return &DuplicateIDError{ID: id, First: prev, Second: combo}
		}
		seen[id] = combo

		combos = append(combos, combo)
		ids = append(ids, id)
		return nil
	}, &err)
	if err != nil {
		return nil, nil, err
	}

	return combos, ids, nil
}

// expand walks the candidate space depth-first in key insertion order so
// the emitted combinations are deterministic.
func expand(set *Set, depth int, partial Combination, emit func(Combination) error, err *error) {
	if *err != nil {
		return
	}
	if depth == len(set.keys) {
		combo := make(Combination, len(partial))
		for k, v := range partial {
			combo[k] = v
		}
		*err = emit(combo)
		return
	}

	key := set.keys[depth]
	for _, candidate := range set.values[key] {
		partial[key] = candidate
		expand(set, depth+1, partial, emit, err)
		if *err != nil {
			return
		}
	}
	delete(partial, key)
}

func deriveID(keys []string, combo Combination, idFunc IDFunc) string {
	id := ""
	for _, key := range keys {
		part := idFunc(key, combo[key])
		if part == "" {
			continue
		}
		if id != "" {
			id += ","
		}
		id += part
	}
	return id
}

// compileFilters validates the filter shapes eagerly and normalizes them to
// single-argument predicates.
func compileFilters(filters []any, ctx any) ([]func(Combination) bool, error) {
	out := make([]func(Combination) bool, 0, len(filters))
	for i, raw := range filters {
		switch fn := raw.(type) {
		case func(Combination) bool:
			out = append(out, fn)
		case func(Combination, any) bool:
			out = append(out, func(c Combination) bool { return fn(c, ctx) })
		default:
			return nil, &FilterError{Index: i, Filter: raw}
		}
	}
	return out, nil
}
