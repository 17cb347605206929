package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteExample(t *testing.T) {
	dash := Dashboard{
		Filters:   []FilterSpec{{Field: "YEAR"}, {Field: "MDA"}},
		KPIs:      []KPISpec{{Name: "total", Field: "AMOUNT", Kind: KPISum}},
		Summaries: []SummarySpec{{Title: "By MDA", GroupBy: []string{"MDA"}, Amount: "AMOUNT"}},
	}

	res, err := Execute(exampleStore(), dash, Selections{"YEAR": {"2023"}})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 2, res.RowCount)
	assert.Equal(t, 4, res.TotalRows)
	assert.Equal(t, 2, res.View.Len())
	assert.Equal(t, map[string]float64{"total": 300}, KPIMap(res.KPIs))

	require.Len(t, res.Summaries, 1)
	got := append(res.Summaries[0].Rows, *res.Summaries[0].Total)
	want := []SummaryRow{
		{Keys: []string{"A"}, Count: 1, Amount: 100},
		{Keys: []string{"B"}, Count: 1, Amount: 200},
		{Keys: []string{TotalLabel}, Count: 2, Amount: 300},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	all, err := Execute(exampleStore(), dash, Selections{})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, KPIMap(all.KPIs)["total"], `"₦400" counts as 400`)
}

func TestExecuteProgramme(t *testing.T) {
	res, err := Execute(programmeStore(), programmeDashboard(), Selections{"COFOG": {"Health"}})
	require.NoError(t, err)

	assert.Equal(t, "Programme Performance", res.Title)
	assert.Equal(t, 3, res.RowCount)
	assert.Equal(t, map[string]float64{
		"total_amount_now_due": 300,
		"avg_amount_now_due":   150,
		"valued_rows":          2,
	}, KPIMap(res.KPIs))
	assert.Empty(t, res.Errors)
	assert.Equal(t, "3 of 6 records match.", res.Reply)

	require.Len(t, res.Filters, 5)
	mda := res.Filters[3]
	assert.Equal(t, "MDA", mda.Field)
	assert.True(t, mda.Multi)
	assert.Equal(t, []string{AllValues, "HMB", "MoH"}, mda.Options)
	assert.Equal(t, []string{AllValues}, mda.Selected)
	assert.Equal(t, []string{"Health"}, res.Filters[1].Selected)

	require.Len(t, res.Charts, 2)
	bar, pie := res.Charts[0], res.Charts[1]
	assert.Equal(t, "bar", bar.ChartType)
	assert.Equal(t, []ChartPoint{{Label: "Health", Value: 3}}, bar.Series[0].Data)
	assert.Equal(t, "pie", pie.ChartType)
	assert.Equal(t, pieHole, pie.Hole)
	assert.Equal(t, []ChartPoint{{Label: "MoH", Value: 2}, {Label: "HMB", Value: 1}}, pie.Series[0].Data)

	require.NotNil(t, res.Detail)
	assert.Len(t, res.Detail.Rows, 3)
}

func TestExecuteAppliesSelectionsAsGiven(t *testing.T) {
	tests := []struct {
		name string
		sel  Selections
	}{
		{"value on a root field that no row carries", Selections{"YEAR": {"2099"}}},
		{"case differs from the stored value", Selections{"MDA": {"moh"}}},
		{"downstream value outside the upstream pick", Selections{"COFOG": {"Works"}, "MDA": {"MoH"}}},
		{"independent fields that never meet", Selections{"YEAR": {"2023"}, "PAYMENT STAGE": {"Interim"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Execute(programmeStore(), programmeDashboard(), tt.sel)
			require.NoError(t, err)

			assert.Equal(t, 0, res.RowCount)
			assert.Equal(t, 6, res.TotalRows)
			assert.Equal(t, tt.sel, res.Selections)
			for _, k := range res.KPIs {
				assert.Zero(t, k.Value, k.Name)
			}
			for _, s := range res.Summaries {
				assert.Empty(t, s.Rows, s.Title)
				assert.Nil(t, s.Total, s.Title)
			}
		})
	}
}

func TestExecuteDropsAllSentinel(t *testing.T) {
	res, err := Execute(programmeStore(), programmeDashboard(),
		Selections{"YEAR": {AllValues}, "COFOG": {AllValues, "Works"}})
	require.NoError(t, err)

	assert.Equal(t, Selections{"COFOG": {"Works"}}, res.Selections)
	assert.Equal(t, 1, res.RowCount)
	assert.Equal(t, []string{AllValues}, res.Filters[0].Selected)
	assert.Equal(t, []string{"Works"}, res.Filters[1].Selected)
}

func TestExecuteEmptyResult(t *testing.T) {
	res, err := Execute(programmeStore(), programmeDashboard(),
		Selections{"YEAR": {"2023"}, "COFOG": {"Works"}},
		WithEmptyMessage("Nothing to show."))
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 0, res.RowCount)
	for _, k := range res.KPIs {
		assert.Zero(t, k.Value, k.Name)
	}
	require.Len(t, res.Summaries, 2)
	for _, s := range res.Summaries {
		assert.Empty(t, s.Rows)
		assert.Nil(t, s.Total)
	}
	assert.Nil(t, res.Charts)
	assert.Nil(t, res.Detail)
	assert.Equal(t, "Nothing to show.", res.Reply)
}

func TestExecuteReportsUnboundKPIs(t *testing.T) {
	dash := programmeDashboard()
	dash.KPIs = append(dash.KPIs,
		KPISpec{Name: "total_contract_sum", Field: "", Kind: KPISum},
		KPISpec{Name: "avg_rating", Field: "CONTRACTOR JOB RATING", Kind: KPIMean})

	res, err := Execute(programmeStore(), dash, Selections{})
	require.NoError(t, err)

	kpis := KPIMap(res.KPIs)
	assert.Zero(t, kpis["total_contract_sum"])
	assert.Zero(t, kpis["avg_rating"])
	assert.Equal(t, []string{`KPI "total_contract_sum": no matching column`}, res.Errors)
}

func TestExecuteOptions(t *testing.T) {
	res, err := Execute(programmeStore(), programmeDashboard(), Selections{},
		WithoutDetail(), WithCurrencyGlyph("$"))
	require.NoError(t, err)
	assert.Nil(t, res.Detail)

	res, err = Execute(programmeStore(), programmeDashboard(), Selections{}, WithCurrencyGlyph("$"))
	require.NoError(t, err)
	assert.Equal(t, "$1,050.00", res.Detail.Summary.Values["AMOUNT NOW DUE"])
}

func TestExecuteRejectsCycle(t *testing.T) {
	dash := programmeDashboard()
	dash.Filters[1].DependsOn = []string{"MDA"}

	_, err := Execute(programmeStore(), dash, Selections{})
	assert.True(t, errors.Is(err, ErrCascadeCycle))
}

func TestExecuteOnEmptyStore(t *testing.T) {
	store := NewStore(nil, nil, nil)
	res, err := Execute(store, programmeDashboard(), Selections{"COFOG": {"Health"}})
	require.NoError(t, err)

	assert.Equal(t, 0, res.TotalRows)
	for _, f := range res.Filters {
		assert.Equal(t, []string{AllValues}, f.Options, f.Field)
	}
	for _, k := range res.KPIs {
		assert.Zero(t, k.Value)
	}
}

func TestBuildChart(t *testing.T) {
	store := programmeStore()

	c := BuildChart(store, ChartSpec{Title: "Projects by COFOG", GroupBy: "COFOG"})
	require.NotNil(t, c)
	assert.Equal(t, "bar", c.ChartType, "bar by default")
	assert.Equal(t, "COFOG", c.XAxis)
	assert.Equal(t, "Count", c.YAxis)
	assert.True(t, c.ShowGrid)
	assert.Equal(t, []ChartPoint{
		{Label: "Health", Value: 3},
		{Label: "Education", Value: 2},
		{Label: "Works", Value: 1},
	}, c.Series[0].Data)

	assert.Nil(t, BuildChart(store, ChartSpec{GroupBy: "WARD"}))
	assert.Len(t, BuildCharts(store, []ChartSpec{{GroupBy: "WARD"}, {GroupBy: "MDA", Type: "pie"}}), 1)
}
