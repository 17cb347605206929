package schema

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/spektr-org/progdash/engine"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

var validKPIKinds = map[string]bool{
	engine.KPISum:   true,
	engine.KPIMean:  true,
	engine.KPICount: true,
}

var validChartTypes = map[string]bool{
	"bar": true, "pie": true, "line": true,
}

var validFieldKinds = map[string]bool{
	KindCategorical: true, KindNumeric: true, KindDate: true,
}

// Validate checks the config for mistakes that Bind cannot recover from.
// All problems are reported together.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.HeaderRow < 1 {
		add("header_row must be >= 1, got %d", c.HeaderRow)
	}

	for _, f := range c.Fields {
		if strings.TrimSpace(f.Name) == "" {
			add("field with empty name")
		}
		if !validFieldKinds[f.Kind] {
			add("field %q: unknown kind %q", f.Name, f.Kind)
		}
	}

	specs := make([]engine.FilterSpec, 0, len(c.Filters))
	for _, f := range c.Filters {
		if strings.TrimSpace(f.Field) == "" {
			add("filter with empty field")
			continue
		}
		specs = append(specs, engine.FilterSpec{Field: f.Field, DependsOn: f.DependsOn})
	}
	if _, err := engine.NewCascade(specs); err != nil {
		add("filters: %v", err)
	}

	names := make(map[string]bool)
	for _, k := range c.KPIs {
		if k.Name == "" {
			add("KPI on %q has no name", k.Field)
		} else if names[k.Name] {
			add("duplicate KPI %q", k.Name)
		}
		names[k.Name] = true
		if !validKPIKinds[k.Kind] {
			add("KPI %q: unknown kind %q", k.Name, k.Kind)
		}
		if k.Kind != engine.KPICount && c.FieldKind(k.Field) != KindNumeric {
			add("KPI %q: %s over non-numeric field %q", k.Name, k.Kind, k.Field)
		}
	}

	for _, s := range c.Summaries {
		if len(s.GroupBy) == 0 {
			add("summary %q has no group_by", s.Title)
		}
		if s.Amount != "" && c.FieldKind(s.Amount) != KindNumeric {
			add("summary %q: amount %q is not numeric", s.Title, s.Amount)
		}
	}

	for _, ch := range c.Charts {
		if !validChartTypes[ch.Type] {
			add("chart %q: unknown type %q", ch.Title, ch.Type)
		}
		if ch.GroupBy == "" {
			add("chart %q has no group_by", ch.Title)
		}
	}

	if c.Detail != nil && len(c.Detail.Columns) == 0 {
		add("detail table has no columns")
	}

	if len(problems) > 0 {
		return errors.Wrap(ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
