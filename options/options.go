// Package options implements the typed, scoped configuration options that
// parametrize test cases. Every option belongs to a named group and may be
// set at three scopes; resolution walks them from the most specific to the
// most general one.
package options

import "reflect"

// Kind is one of the closed set of value kinds an option accepts.
type Kind int

const (
	// Any disables type checking for the option.
	Any Kind = iota
	Bool
	Int
	String
	// Map accepts string-keyed maps, e.g. configuration overrides.
	Map
	// Func accepts any function value. Call signatures are checked by the
	// consumer of the option (e.g. combination filters).
	Func
	// Collection marks the option as collection-capable. Slice values are
	// then validated element-wise against the remaining kinds.
	Collection
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case String:
		return "string"
	case Map:
		return "map"
	case Func:
		return "func"
	case Collection:
		return "collection"
	default:
		return "any"
	}
}

// Scope identifies where a resolved value came from.
type Scope int

const (
	// ScopeNone means the option was not set anywhere.
	ScopeNone Scope = iota
	// ScopeLeaf is a value passed directly on the test case.
	ScopeLeaf
	// ScopeGroup is a default shared by a group of test cases.
	ScopeGroup
	// ScopeGlobal is a file-wide default.
	ScopeGlobal
)

func (s Scope) String() string {
	switch s {
	case ScopeLeaf:
		return "leaf"
	case ScopeGroup:
		return "group"
	case ScopeGlobal:
		return "global"
	default:
		return "none"
	}
}

// Option declares a single named option within a group. StaticName is the
// key under which group and global defaults are looked up; Name is the key
// used by leaf-level invocations.
type Option struct {
	Group      string
	Name       string
	StaticName string
	Types      []Kind
	Choices    []any
}

// Invocation is a leaf-level use of an option group on a test case:
// positional arguments plus keyword values.
type Invocation struct {
	Args   []any
	Kwargs map[string]any
}

// Context carries everything option resolution can draw from. Invocations
// are keyed by group name, defaults by the option's StaticName. Owner names
// the test case for error messages.
type Context struct {
	Owner       string
	Invocations map[string]Invocation
	GroupVars   map[string]any
	GlobalVars  map[string]any
}

func (c *Context) invocation(group string) (Invocation, bool) {
	if c == nil || c.Invocations == nil {
		return Invocation{}, false
	}
	inv, ok := c.Invocations[group]
	return inv, ok
}

// Resolved is the outcome of resolving one option: the value found (nil when
// unset) and the scope it came from.
type Resolved struct {
	Option Option
	Value  any
	Scope  Scope
}

// IsSet reports whether any scope provided a value.
func (r Resolved) IsSet() bool {
	return r.Scope != ScopeNone
}

// Resolve finds the option's value. Leaf invocations win over group
// defaults, group defaults win over global ones; an unset option resolves to
// a nil value with ScopeNone. A value of the wrong kind yields a
// *TypeMismatchError, a value outside the choice whitelist a
// *InvalidArgumentError.
func (o Option) Resolve(ctx *Context) (Resolved, error) {
	value, scope := o.lookup(ctx)
	res := Resolved{Option: o, Value: value, Scope: scope}
	if value == nil {
		return res, nil
	}

	if invalid := o.invalidKinds(value); len(invalid) > 0 {
		return Resolved{Option: o}, &TypeMismatchError{
			Option:  o,
			Owner:   ctx.Owner,
			Value:   value,
			Invalid: invalid,
		}
	}
	if invalid := o.invalidChoices(value); len(invalid) > 0 {
		return Resolved{Option: o}, &InvalidArgumentError{
			Group:   o.Group,
			Option:  o.Name,
			Owner:   ctx.Owner,
			Values:  invalid,
			Allowed: o.Choices,
		}
	}
	return res, nil
}

func (o Option) lookup(ctx *Context) (any, Scope) {
	if ctx == nil {
		return nil, ScopeNone
	}
	if inv, ok := ctx.invocation(o.Group); ok {
		if v, ok := inv.Kwargs[o.Name]; ok && v != nil {
			return v, ScopeLeaf
		}
	}
	if v, ok := ctx.GroupVars[o.StaticName]; ok && v != nil {
		return v, ScopeGroup
	}
	if v, ok := ctx.GlobalVars[o.StaticName]; ok && v != nil {
		return v, ScopeGlobal
	}
	return nil, ScopeNone
}

// invalidKinds returns the values that do not match any accepted kind.
// Collection values are checked element-wise when the option allows
// collections, otherwise the collection itself is invalid.
func (o Option) invalidKinds(value any) []any {
	if len(o.Types) == 0 {
		return nil
	}

	scalar := make([]Kind, 0, len(o.Types))
	collection := false
	for _, k := range o.Types {
		if k == Collection {
			collection = true
			continue
		}
		if k == Any {
			return nil
		}
		scalar = append(scalar, k)
	}

	items, isCollection := collectionItems(value)
	if isCollection && !collection {
		return []any{value}
	}
	if !isCollection {
		items = []any{value}
	}

	var invalid []any
	for _, v := range items {
		matched := false
		for _, k := range scalar {
			if matchesKind(v, k) {
				matched = true
				break
			}
		}
		if !matched {
			invalid = append(invalid, v)
		}
	}
	return invalid
}

func (o Option) invalidChoices(value any) []any {
	if len(o.Choices) == 0 {
		return nil
	}
	items, ok := collectionItems(value)
	if !ok {
		items = []any{value}
	}
	var invalid []any
	for _, v := range items {
		allowed := false
		for _, c := range o.Choices {
			if v == c {
				allowed = true
				break
			}
		}
		if !allowed {
			invalid = append(invalid, v)
		}
	}
	return invalid
}

func matchesKind(v any, k Kind) bool {
	switch k {
	case Any:
		return true
	case Bool:
		_, ok := v.(bool)
		return ok
	case Int:
		switch v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		}
		return false
	case String:
		_, ok := v.(string)
		return ok
	case Map:
		return reflect.ValueOf(v).Kind() == reflect.Map
	case Func:
		return reflect.ValueOf(v).Kind() == reflect.Func
	default:
		return false
	}
}

// collectionItems unpacks slice and array values into []any. Strings and
// maps are scalars here even though Go lets you range over them.
func collectionItems(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}
