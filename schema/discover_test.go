package schema

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// programmeGrid builds a sheet with a title row above the header, the way
// programme workbooks are laid out.
func programmeGrid() [][]string {
	mdas := []string{"Ministry of Health", "Hospitals Board", "Ministry of Education", "SUBEB"}
	cofog := map[string]string{
		"Ministry of Health":    "Health",
		"Hospitals Board":       "Health",
		"Ministry of Education": "Education",
		"SUBEB":                 "Education",
	}
	grid := [][]string{
		{"PROGRAMME PERFORMANCE 2023–2024", "", "", "", ""},
		{"YEAR", "COFOG", " MDA ", "PROJECT TITLE", "AMOUNT NOW DUE"},
	}
	for i := 0; i < 12; i++ {
		mda := mdas[i%4]
		grid = append(grid, []string{
			fmt.Sprint(2023 + i/6),
			cofog[mda],
			mda,
			fmt.Sprintf("Project %02d", i),
			fmt.Sprintf("₦%d,250.50", i+1),
		})
	}
	grid = append(grid, []string{"", "", "", "", ""})
	return grid
}

func discoverOpts() DiscoverOptions {
	opt := DefaultDiscoverOptions()
	opt.HeaderRow = 2
	return opt
}

func TestDiscoverProgrammeGrid(t *testing.T) {
	cfg, err := DiscoverFromGrid(programmeGrid(), discoverOpts())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2, cfg.HeaderRow)
	assert.Equal(t, []string{"YEAR", "COFOG", "MDA"}, cfg.FilterFields())
	assert.Equal(t, []string{"AMOUNT NOW DUE"}, cfg.NumericFields())
	assert.Equal(t, []string{"₦"}, cfg.CurrencyGlyphs)

	// MDA nests under COFOG; YEAR is temporal and never a parent
	assert.Equal(t, []string{"COFOG"}, cfg.Filters[2].DependsOn)
	assert.Empty(t, cfg.Filters[0].DependsOn)
	assert.Empty(t, cfg.Filters[1].DependsOn)

	require.Len(t, cfg.SkippedColumns, 1)
	assert.Equal(t, "PROJECT TITLE", cfg.SkippedColumns[0].Column)
	assert.True(t, cfg.SkippedColumns[0].Recoverable)

	require.Len(t, cfg.KPIs, 1)
	assert.Equal(t, KPIMeta{
		Name:  "total_amount_now_due",
		Label: "TOTAL AMOUNT NOW DUE",
		Field: "AMOUNT NOW DUE",
		Kind:  "sum",
	}, cfg.KPIs[0])

	require.Len(t, cfg.Summaries, 2)
	assert.Equal(t, []string{"COFOG"}, cfg.Summaries[0].GroupBy)
	assert.Equal(t, "AMOUNT NOW DUE", cfg.Summaries[0].Amount)

	require.Len(t, cfg.Charts, 2)
	assert.Equal(t, "bar", cfg.Charts[0].Type)
	assert.Equal(t, "pie", cfg.Charts[1].Type)
	assert.Equal(t, "MDA", cfg.Charts[1].GroupBy)

	require.NotNil(t, cfg.Detail)
	assert.Equal(t, []string{"YEAR", "COFOG", "MDA", "AMOUNT NOW DUE"}, cfg.Detail.Columns)
}

func TestDiscoverRecoversSkippedColumn(t *testing.T) {
	opt := discoverOpts()
	opt.RecoverColumns = []string{"project title"}

	cfg, err := DiscoverFromGrid(programmeGrid(), opt)
	require.NoError(t, err)

	assert.Empty(t, cfg.SkippedColumns)
	assert.Contains(t, cfg.FilterFields(), "PROJECT TITLE")
	for _, f := range cfg.Filters {
		if f.Field == "PROJECT TITLE" {
			assert.True(t, f.Multi, "medium cardinality filters are multi-select")
		}
	}
}

func TestDiscoverBindsBack(t *testing.T) {
	cfg, err := DiscoverFromGrid(programmeGrid(), discoverOpts())
	require.NoError(t, err)

	dash, b := cfg.Bind([]string{"YEAR", "COFOG", "MDA", "PROJECT TITLE", "AMOUNT NOW DUE"})
	assert.Empty(t, b.Missing)
	assert.True(t, b.IsNumeric("AMOUNT NOW DUE"))
	assert.Equal(t, "AMOUNT NOW DUE", dash.KPIs[0].Field)
}

func TestDiscoverNoData(t *testing.T) {
	_, err := DiscoverFromGrid(nil)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = DiscoverFromGrid([][]string{{"A", "B"}, {"", " "}})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestTemporalDetection(t *testing.T) {
	tests := []struct {
		samples []string
		want    bool
		format  string
	}{
		{[]string{"Jan-2026", "Feb-2026", "Mar-2026"}, true, "MMM-yyyy"},
		{[]string{"2025-01", "2025-02"}, true, "yyyy-MM"},
		{[]string{"Q1-2026", "Q2-2026"}, true, "QN-yyyy"},
		{[]string{"2023", "2024"}, true, "yyyy"},
		{[]string{"January", "March", "Sept"}, true, "MMMM"},
		{[]string{"Marketing", "Health"}, false, ""},
		{[]string{"Health", "Education"}, false, ""},
	}
	for _, tt := range tests {
		got, format := detectTemporalPattern(tt.samples)
		assert.Equal(t, tt.want, got, "samples %v", tt.samples)
		assert.Equal(t, tt.format, format, "samples %v", tt.samples)
	}
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"AMOUNT NOW DUE":                "amount_now_due",
		"TOTAL CONTRACT SUM EDITED (₦)": "total_contract_sum_edited",
		"S/N":                           "s_n",
		"THEMES  PILLAR":                "themes_pillar",
	}
	for in, want := range tests {
		assert.Equal(t, want, toSnakeCase(in), in)
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Amount Now Due", toDisplayName("AMOUNT NOW DUE"))
	assert.Equal(t, "MDA", toDisplayName("MDA"))
	assert.Equal(t, "Themes Pillar", toDisplayName("THEMES PILLAR"))
}
