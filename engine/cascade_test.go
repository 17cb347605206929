package engine

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCascadeOrder(t *testing.T) {
	c, err := NewCascade(programmeFilters())
	require.NoError(t, err)

	assert.Equal(t, []string{"YEAR", "COFOG", "THEMES PILLAR", "MDA", "PAYMENT STAGE"}, c.Fields())
	assert.Equal(t, []string{"YEAR", "COFOG", "THEMES PILLAR", "MDA", "PAYMENT STAGE"}, c.Order())
	assert.True(t, c.Has("MDA"))
	assert.False(t, c.Has("WARD"))
}

func TestNewCascadeOrdersParentsFirst(t *testing.T) {
	c, err := NewCascade([]FilterSpec{
		{Field: "PAYMENT STAGE", DependsOn: []string{"MDA"}},
		{Field: "MDA", DependsOn: []string{"COFOG"}},
		{Field: "COFOG"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"COFOG", "MDA", "PAYMENT STAGE"}, c.Order())
	assert.Equal(t, []string{"PAYMENT STAGE", "MDA", "COFOG"}, c.Fields())
}

func TestNewCascadeRejects(t *testing.T) {
	tests := []struct {
		name  string
		specs []FilterSpec
		want  error
	}{
		{
			name:  "cycle",
			specs: []FilterSpec{{Field: "A", DependsOn: []string{"B"}}, {Field: "B", DependsOn: []string{"A"}}},
			want:  ErrCascadeCycle,
		},
		{
			name: "long cycle",
			specs: []FilterSpec{
				{Field: "A", DependsOn: []string{"C"}},
				{Field: "B", DependsOn: []string{"A"}},
				{Field: "C", DependsOn: []string{"B"}},
				{Field: "D"},
			},
			want: ErrCascadeCycle,
		},
		{
			name:  "self",
			specs: []FilterSpec{{Field: "A", DependsOn: []string{"A"}}},
			want:  ErrCascadeCycle,
		},
		{
			name:  "unknown dependency",
			specs: []FilterSpec{{Field: "MDA", DependsOn: []string{"COFOG"}}},
			want:  ErrUnknownField,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCascade(tt.specs)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := NewCascade([]FilterSpec{{Field: "A"}, {Field: "A"}})
	assert.Error(t, err, "duplicate field")
}

func TestCascadeUpstreamDownstream(t *testing.T) {
	c, err := NewCascade(programmeFilters())
	require.NoError(t, err)

	assert.Equal(t, []string{"COFOG", "THEMES PILLAR"}, c.Upstream("MDA"))
	assert.Equal(t, []string{"YEAR", "COFOG", "THEMES PILLAR", "MDA"}, c.Upstream("PAYMENT STAGE"), "ancestors are transitive")
	assert.Empty(t, c.Upstream("YEAR"))

	assert.Equal(t, []string{"MDA", "PAYMENT STAGE"}, c.Downstream("COFOG"))
	assert.Equal(t, []string{"PAYMENT STAGE"}, c.Downstream("YEAR"))
	assert.Empty(t, c.Downstream("PAYMENT STAGE"))
}

func TestCascadeOptions(t *testing.T) {
	store := programmeStore()
	c, err := NewCascade(programmeFilters())
	require.NoError(t, err)

	sel := Selections{"COFOG": {"Health"}, "YEAR": {"2024"}, "MDA": {"HMB"}}

	// YEAR is not upstream of MDA and MDA's own pick never narrows it.
	assert.Equal(t, []string{AllValues, "HMB", "MoH"}, c.Options(store, "MDA", sel))
	assert.Equal(t, []string{AllValues, "Final", "Interim"}, c.Options(store, "PAYMENT STAGE", Selections{"YEAR": {"2024"}}))
	assert.Equal(t, []string{AllValues, "2023", "2024"}, c.Options(store, "YEAR", sel))
	assert.Equal(t, []string{AllValues, "Education", "Health", "Works"}, c.Options(store, "COFOG", Selections{}))
}

func TestResolveOptions(t *testing.T) {
	store := programmeStore()

	assert.Equal(t, []string{AllValues}, ResolveOptions(store, "WARD", Selections{}))
	assert.Equal(t, []string{AllValues}, ResolveOptions(NewStore(nil, []string{"MDA"}, nil), "MDA", Selections{}))
	assert.Equal(t, []string{AllValues, "MoE", "SUBEB"}, ResolveOptions(store, "MDA", Selections{"COFOG": {"Education"}}))
	assert.Equal(t, []string{AllValues}, ResolveOptions(store, "MDA", Selections{"COFOG": {"Works"}}), "empty values are not options")
}

func TestResolveOptionsMatchesFilteredValues(t *testing.T) {
	store := programmeStore()
	c, err := NewCascade(programmeFilters())
	require.NoError(t, err)

	states := []Selections{
		{},
		{"YEAR": {"2023"}},
		{"COFOG": {"Health", "Education"}},
		{"THEMES PILLAR": {"Human Capital"}, "YEAR": {"2024"}},
	}
	for _, sel := range states {
		for _, field := range c.Fields() {
			narrowed := ApplyFilters(store, sel.Restrict(c.Upstream(field)))
			want := UniqueValues(narrowed, field)
			sort.Strings(want)
			want = append([]string{AllValues}, want...)

			if diff := cmp.Diff(want, c.Options(store, field, sel)); diff != "" {
				t.Errorf("options for %s under %v (-want +got):\n%s", field, sel, diff)
			}
		}
	}
}

func TestCascadeReconcile(t *testing.T) {
	store := programmeStore()
	c, err := NewCascade(programmeFilters())
	require.NoError(t, err)

	tests := []struct {
		name string
		sel  Selections
		want Selections
	}{
		{
			name: "valid selections kept",
			sel:  Selections{"COFOG": {"Health"}, "MDA": {"MoH"}},
			want: Selections{"COFOG": {"Health"}, "MDA": {"MoH"}},
		},
		{
			name: "stale value pruned",
			sel:  Selections{"COFOG": {"Education"}, "MDA": {"MoH", "MoE"}},
			want: Selections{"COFOG": {"Education"}, "MDA": {"MoE"}},
		},
		{
			name: "field with nothing left reset to All",
			sel:  Selections{"COFOG": {"Works"}, "MDA": {"MoH"}},
			want: Selections{"COFOG": {"Works"}},
		},
		{
			name: "pruning cascades downstream",
			sel:  Selections{"COFOG": {"Education"}, "MDA": {"MoH"}, "PAYMENT STAGE": {"Final"}},
			want: Selections{"COFOG": {"Education"}},
		},
		{
			name: "fields outside the cascade kept",
			sel:  Selections{"WARD": {"Ikeja"}, "COFOG": {AllValues}},
			want: Selections{"WARD": {"Ikeja"}, "COFOG": {AllValues}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.sel.Clone()
			got := c.Reconcile(store, tt.sel)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Reconcile mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, before, tt.sel, "input is not modified")
		})
	}
}
