package engine

// ============================================================================
// CHART BUILDER — Produces ChartConfig from value counts
// ============================================================================
// The dashboard charts are value counts over one categorical field: a bar of
// projects per sector and a donut of projects per MDA. Only the data and
// axis labels are produced here; drawing is the presentation layer's job.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// pieHole is the donut ratio used for pie charts.
const pieHole = 0.4

// BuildChart counts rows per value of spec.GroupBy, largest first. Returns
// nil when the field is absent or no row has a value.
func BuildChart(view RecordView, spec ChartSpec) *ChartConfig {
	if !HasField(view, spec.GroupBy) {
		return nil
	}
	groups := GroupAndAggregate(view, []string{spec.GroupBy}, "", AggCount, "count_desc", 0)
	if len(groups) == 0 {
		return nil
	}

	chartType := spec.Type
	if chartType == "" {
		chartType = "bar"
	}

	config := &ChartConfig{
		ChartType:  chartType,
		Title:      spec.Title,
		XAxis:      LabelForDimension(spec.GroupBy),
		YAxis:      LabelForAggregation(AggCount),
		ShowLegend: chartType == "pie",
		ShowGrid:   chartType != "pie",
		Series:     buildSingleSeries(groups, spec.Title),
	}
	if chartType == "pie" {
		config.Hole = pieHole
		config.Colors = assignColors(len(groups))
	} else {
		config.Colors = assignColors(len(config.Series))
	}
	return config
}

// BuildCharts builds every chart spec, skipping the ones with no data.
func BuildCharts(view RecordView, specs []ChartSpec) []*ChartConfig {
	var out []*ChartConfig
	for _, s := range specs {
		if c := BuildChart(view, s); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

func buildSingleSeries(groups []Group, seriesName string) []ChartSeries {
	if seriesName == "" {
		seriesName = "Value"
	}

	points := make([]ChartPoint, 0, len(groups))
	for _, g := range groups {
		points = append(points, ChartPoint{
			Label: g.Label,
			Value: RoundTo2(g.Value),
		})
	}

	return []ChartSeries{{
		Name: seriesName,
		Data: points,
	}}
}

func assignColors(n int) []string {
	colors := make([]string, n)
	for i := 0; i < n; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
