package options

// Group is a named set of options that are declared and invoked together.
// VarArgs permits positional arguments on invocations, VarKwargs permits
// keyword arguments beyond the registered option names.
type Group struct {
	Name      string
	VarArgs   bool
	VarKwargs bool
	Options   []Option
}

// NewGroup builds a group and stamps the group name onto each option.
func NewGroup(name string, opts ...Option) *Group {
	g := &Group{Name: name}
	for _, o := range opts {
		g.Add(o)
	}
	return g
}

// Add registers another option with the group.
func (g *Group) Add(o Option) {
	o.Group = g.Name
	g.Options = append(g.Options, o)
}

// Option returns the registered option with the given name, if any.
func (g *Group) Option(name string) (Option, bool) {
	for _, o := range g.Options {
		if o.Name == name {
			return o, true
		}
	}
	return Option{}, false
}

func (g *Group) knows(name string) bool {
	_, ok := g.Option(name)
	return ok
}

// Resolve resolves every registered option against ctx and validates the
// group's invocation shape: positional arguments require VarArgs, keyword
// arguments outside the registered names require VarKwargs. Extra arguments
// are preserved on the returned GroupValues.
func (g *Group) Resolve(ctx *Context) (*GroupValues, error) {
	values := &GroupValues{
		Group:    g.Name,
		resolved: make(map[string]Resolved, len(g.Options)),
	}

	for _, o := range g.Options {
		res, err := o.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		values.resolved[o.Name] = res
	}

	inv, ok := ctx.invocation(g.Name)
	if !ok {
		return values, nil
	}

	if !g.VarArgs && len(inv.Args) > 0 {
		return nil, &InvalidArgumentError{
			Group:   g.Name,
			Owner:   ctx.Owner,
			Message: "positional arguments are not supported by this group",
		}
	}
	if !g.VarKwargs {
		var unknown []string
		for key := range inv.Kwargs {
			if !g.knows(key) {
				unknown = append(unknown, key)
			}
		}
		if len(unknown) > 0 {
			return nil, &InvalidArgumentError{
				Group:   g.Name,
				Owner:   ctx.Owner,
				Unknown: unknown,
			}
		}
	}

	values.Args = append(values.Args, inv.Args...)
	for key, v := range inv.Kwargs {
		if g.knows(key) {
			continue
		}
		if values.Extra == nil {
			values.Extra = make(map[string]any)
		}
		values.Extra[key] = v
	}
	return values, nil
}

// GroupValues holds the resolved options of one group plus any extra
// arguments a variadic group accepted.
type GroupValues struct {
	Group string
	Args  []any
	Extra map[string]any

	resolved map[string]Resolved
}

// Get returns the full resolution result for one option.
func (v *GroupValues) Get(name string) (Resolved, bool) {
	res, ok := v.resolved[name]
	return res, ok
}

// Value returns the resolved value of the named option, nil when unset.
func (v *GroupValues) Value(name string) any {
	return v.resolved[name].Value
}

// Scope returns where the named option's value came from.
func (v *GroupValues) Scope(name string) Scope {
	return v.resolved[name].Scope
}

// Values collects the non-nil values of the named options; with no names it
// collects every set option of the group.
func (v *GroupValues) Values(names ...string) map[string]any {
	if len(names) == 0 {
		for name := range v.resolved {
			names = append(names, name)
		}
	}
	out := make(map[string]any)
	for _, name := range names {
		if val := v.Value(name); val != nil {
			out[name] = val
		}
	}
	return out
}

// Scopes collects the scopes of the named options that are set; with no
// names it covers every set option of the group.
func (v *GroupValues) Scopes(names ...string) map[string]Scope {
	if len(names) == 0 {
		for name := range v.resolved {
			names = append(names, name)
		}
	}
	out := make(map[string]Scope)
	for _, name := range names {
		if res, ok := v.resolved[name]; ok && res.IsSet() {
			out[name] = res.Scope
		}
	}
	return out
}
