package engine

import (
	"sort"

	"github.com/pkg/errors"
)

// ============================================================================
// CASCADE — Option resolution over a filter dependency graph
// ============================================================================
// Each filter's option list depends on the selections of the filters declared
// upstream of it. The graph is an explicit DAG: options for field F are
// computed from the store filtered by F's ancestors only, never by F itself
// or by anything downstream, so changing F can't invalidate F's own options.
// ============================================================================

var (
	// ErrCascadeCycle is returned when filter dependencies form a cycle.
	ErrCascadeCycle = errors.New("cascade: dependency cycle")
	// ErrUnknownField is returned when a dependency names an undeclared filter.
	ErrUnknownField = errors.New("cascade: unknown field")
)

// ResolveOptions returns AllValues followed by the sorted distinct non-empty
// values of field within view filtered by upstream. Only ["All"] when the
// view has no such field.
func ResolveOptions(view RecordView, field string, upstream Selections) []string {
	if !HasField(view, field) {
		return []string{AllValues}
	}
	narrowed := ApplyFilters(view, upstream)
	values := UniqueValues(narrowed, field)
	sort.Strings(values)
	return append([]string{AllValues}, values...)
}

// Cascade is a validated filter dependency graph.
type Cascade struct {
	fields  []string            // declaration order
	parents map[string][]string // direct dependencies
	order   []string            // topological order
}

// NewCascade builds a Cascade from filter specs. Every dependency must name a
// declared filter and the graph must be acyclic.
func NewCascade(specs []FilterSpec) (*Cascade, error) {
	c := &Cascade{parents: make(map[string][]string, len(specs))}
	for _, s := range specs {
		if _, dup := c.parents[s.Field]; dup {
			return nil, errors.Errorf("cascade: duplicate field %q", s.Field)
		}
		c.fields = append(c.fields, s.Field)
		c.parents[s.Field] = append([]string(nil), s.DependsOn...)
	}
	for _, f := range c.fields {
		for _, p := range c.parents[f] {
			if _, ok := c.parents[p]; !ok {
				return nil, errors.Wrapf(ErrUnknownField, "%q depends on %q", f, p)
			}
			if p == f {
				return nil, errors.Wrapf(ErrCascadeCycle, "%q depends on itself", f)
			}
		}
	}
	order, err := c.topoSort()
	if err != nil {
		return nil, err
	}
	c.order = order
	return c, nil
}

// topoSort is Kahn's algorithm; ties are broken by declaration order.
func (c *Cascade) topoSort() ([]string, error) {
	indegree := make(map[string]int, len(c.fields))
	children := make(map[string][]string, len(c.fields))
	for _, f := range c.fields {
		indegree[f] += 0
		for _, p := range c.parents[f] {
			indegree[f]++
			children[p] = append(children[p], f)
		}
	}

	rank := make(map[string]int, len(c.fields))
	for i, f := range c.fields {
		rank[f] = i
	}

	var ready []string
	for _, f := range c.fields {
		if indegree[f] == 0 {
			ready = append(ready, f)
		}
	}

	order := make([]string, 0, len(c.fields))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return rank[ready[i]] < rank[ready[j]] })
		f := ready[0]
		ready = ready[1:]
		order = append(order, f)
		for _, ch := range children[f] {
			indegree[ch]--
			if indegree[ch] == 0 {
				ready = append(ready, ch)
			}
		}
	}

	if len(order) != len(c.fields) {
		var stuck []string
		for _, f := range c.fields {
			if indegree[f] > 0 {
				stuck = append(stuck, f)
			}
		}
		return nil, errors.Wrapf(ErrCascadeCycle, "fields %v", stuck)
	}
	return order, nil
}

// Fields returns the filter fields in declaration order.
func (c *Cascade) Fields() []string { return append([]string(nil), c.fields...) }

// Order returns the filter fields in topological order.
func (c *Cascade) Order() []string { return append([]string(nil), c.order...) }

// Has reports whether field is a declared filter.
func (c *Cascade) Has(field string) bool {
	_, ok := c.parents[field]
	return ok
}

// Upstream returns every ancestor of field, in topological order.
func (c *Cascade) Upstream(field string) []string {
	seen := make(map[string]bool)
	var walk func(string)
	walk = func(f string) {
		for _, p := range c.parents[f] {
			if !seen[p] {
				seen[p] = true
				walk(p)
			}
		}
	}
	walk(field)

	out := make([]string, 0, len(seen))
	for _, f := range c.order {
		if seen[f] {
			out = append(out, f)
		}
	}
	return out
}

// Downstream returns every descendant of field, in topological order.
func (c *Cascade) Downstream(field string) []string {
	var out []string
	for _, f := range c.order {
		for _, up := range c.Upstream(f) {
			if up == field {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// Options resolves the option list of field given the full selection state.
// Only the selections of field's ancestors are applied.
func (c *Cascade) Options(view RecordView, field string, sel Selections) []string {
	return ResolveOptions(view, field, sel.Restrict(c.Upstream(field)))
}

// Reconcile drops selected values that are no longer offered by their
// field's options, walking fields in topological order so that a pruned
// ancestor is taken into account before its descendants. A field left with
// no valid value is reset to All. Fields outside the cascade are kept as is.
func (c *Cascade) Reconcile(view RecordView, sel Selections) Selections {
	out := sel.Clone()
	for _, f := range c.order {
		active := out.Active(f)
		if len(active) == 0 {
			continue
		}
		offered := toTrimmedSet(c.Options(view, f, out))
		var kept []string
		for _, v := range active {
			if offered[NormalizeCategory(v)] {
				kept = append(kept, v)
			}
		}
		if len(kept) == 0 {
			delete(out, f)
			continue
		}
		out[f] = kept
	}
	return out
}
