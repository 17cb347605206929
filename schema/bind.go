package schema

import (
	"github.com/spektr-org/progdash/engine"
)

// ============================================================================
// BINDING — Logical phrases → real headers
// ============================================================================
// Headers passed to Bind are already normalized (engine.NormalizeHeader).
// A phrase that matches no header still binds, to its own normalized form:
// that key exists in no record, so a filter on it offers only All, a summary
// over it is empty and a chart over it is omitted. KPIs are the exception.
// An unmatched KPI binds to "" so the result can report it.
// ============================================================================

// Binding records how the config's phrases landed on a header row.
type Binding struct {
	Columns map[string]string // phrase → header, resolved phrases only
	Missing []string          // phrases that matched no header, in first-seen order
	Numeric map[string]bool   // headers whose cells parse as numbers
}

// Header returns the header a phrase resolved to, or "".
func (b *Binding) Header(phrase string) string {
	return b.Columns[phrase]
}

// IsNumeric reports whether a header holds a numeric field.
func (b *Binding) IsNumeric(header string) bool {
	return b.Numeric[header]
}

type binder struct {
	headers []string
	b       *Binding
	seen    map[string]bool
}

func (x *binder) resolve(phrase string) (string, bool) {
	if h, ok := x.b.Columns[phrase]; ok {
		return h, true
	}
	h := engine.ResolveHeader(x.headers, phrase)
	if h != "" {
		x.b.Columns[phrase] = h
		return h, true
	}
	if !x.seen[phrase] {
		x.seen[phrase] = true
		x.b.Missing = append(x.b.Missing, phrase)
	}
	return "", false
}

// key resolves a phrase, falling back to the phrase's own normalized form.
func (x *binder) key(phrase string) string {
	if h, ok := x.resolve(phrase); ok {
		return h
	}
	return engine.NormalizeHeader(phrase)
}

func (x *binder) keys(phrases []string) []string {
	out := make([]string, len(phrases))
	for i, p := range phrases {
		out[i] = x.key(p)
	}
	return out
}

// Bind resolves every phrase of the config against a normalized header row
// and returns the engine's view of the dashboard.
func (c Config) Bind(headers []string) (engine.Dashboard, *Binding) {
	x := &binder{
		headers: headers,
		b: &Binding{
			Columns: make(map[string]string),
			Numeric: make(map[string]bool),
		},
		seen: make(map[string]bool),
	}

	for _, f := range c.Fields {
		if f.Kind != KindNumeric {
			continue
		}
		if h, ok := x.resolve(f.Name); ok {
			x.b.Numeric[h] = true
		}
	}

	dash := engine.Dashboard{Title: c.Name}

	for _, f := range c.Filters {
		label := f.Label
		if label == "" {
			label = "Filter by " + f.Field
		}
		dash.Filters = append(dash.Filters, engine.FilterSpec{
			Field:     x.key(f.Field),
			Label:     label,
			DependsOn: x.keys(f.DependsOn),
			Multi:     f.Multi,
		})
	}

	for _, k := range c.KPIs {
		h, _ := x.resolve(k.Field)
		label := k.Label
		if label == "" {
			label = k.Field
		}
		dash.KPIs = append(dash.KPIs, engine.KPISpec{
			Name:   k.Name,
			Label:  label,
			Field:  h,
			Kind:   k.Kind,
			Suffix: k.Suffix,
		})
	}

	for _, s := range c.Summaries {
		spec := engine.SummarySpec{Title: s.Title, GroupBy: x.keys(s.GroupBy)}
		if s.Amount != "" {
			spec.Amount = x.key(s.Amount)
		}
		dash.Summaries = append(dash.Summaries, spec)
	}

	for _, ch := range c.Charts {
		dash.Charts = append(dash.Charts, engine.ChartSpec{
			Title:   ch.Title,
			Type:    ch.Type,
			GroupBy: x.key(ch.GroupBy),
		})
	}

	if c.Detail != nil {
		dash.Detail = &engine.DetailSpec{
			Title:   c.Detail.Title,
			Columns: x.keys(c.Detail.Columns),
		}
	}

	return dash, x.b
}
