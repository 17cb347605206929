package engine

import "sort"

// ============================================================================
// PROGDASH ENGINE TYPES — Records, Selections, Dashboard, Result
// ============================================================================
// Records hold normalized sheet rows. Selections describe what the user
// picked in each filter. Dashboard describes what to compute. Result is the
// render-ready output handed to the presentation layer.
// ============================================================================

// AllValues is the sentinel option meaning "no constraint on this field".
const AllValues = "All"

// TotalLabel labels the synthetic total row of a summary table.
const TotalLabel = "Total"

// ============================================================================
// RECORD — One sheet row
// ============================================================================

// Record is a single data row with text dimensions and numeric measures.
// Keys are normalized field names. A numeric field whose cell could not be
// parsed is absent from Measures; an empty text cell is "".
type Record struct {
	Dimensions map[string]string  `json:"dimensions"`
	Measures   map[string]float64 `json:"measures"`
}

// NewRecord returns a Record with initialized maps.
func NewRecord() Record {
	return Record{
		Dimensions: make(map[string]string),
		Measures:   make(map[string]float64),
	}
}

// ============================================================================
// SELECTIONS — Filter state
// ============================================================================

// Selections maps a categorical field to the values accepted for it.
// OR within a field, AND across fields. An empty list, or a list holding
// only AllValues, places no constraint on the field.
type Selections map[string][]string

// Active returns the accepted values for field with the AllValues sentinel
// removed. A nil result means the field is unconstrained.
func (s Selections) Active(field string) []string {
	vals, ok := s[field]
	if !ok {
		return nil
	}
	var out []string
	for _, v := range vals {
		if v == AllValues {
			continue
		}
		out = append(out, v)
	}
	return out
}

// HasFilter returns true if field carries an actual constraint.
func (s Selections) HasFilter(field string) bool {
	return len(s.Active(field)) > 0
}

// IsEmpty returns true if no field carries a constraint.
func (s Selections) IsEmpty() bool {
	for field := range s {
		if s.HasFilter(field) {
			return false
		}
	}
	return true
}

// Fields returns the constrained fields in sorted order.
func (s Selections) Fields() []string {
	var out []string
	for field := range s {
		if s.HasFilter(field) {
			out = append(out, field)
		}
	}
	sort.Strings(out)
	return out
}

// Compact returns a copy holding only the constrained fields, with the
// AllValues sentinel removed.
func (s Selections) Compact() Selections {
	out := make(Selections, len(s))
	for field := range s {
		if active := s.Active(field); len(active) > 0 {
			out[field] = active
		}
	}
	return out
}

// Restrict returns a copy holding only the listed fields.
func (s Selections) Restrict(fields []string) Selections {
	out := make(Selections, len(fields))
	for _, f := range fields {
		if vals, ok := s[f]; ok {
			out[f] = append([]string(nil), vals...)
		}
	}
	return out
}

// Clone returns a deep copy.
func (s Selections) Clone() Selections {
	out := make(Selections, len(s))
	for f, vals := range s {
		out[f] = append([]string(nil), vals...)
	}
	return out
}

// With returns a copy with field set to values. No values resets the field to All.
func (s Selections) With(field string, values ...string) Selections {
	out := s.Clone()
	if len(values) == 0 {
		delete(out, field)
		return out
	}
	out[field] = append([]string(nil), values...)
	return out
}

// ============================================================================
// DASHBOARD — What to compute
// ============================================================================
// Field names in a Dashboard are already resolved to normalized headers.
// schema.Config.Bind produces one from logical field phrases.

// Dashboard defines the filters, KPIs, tables and charts of one report.
type Dashboard struct {
	Title     string        `json:"title"`
	Filters   []FilterSpec  `json:"filters"`
	KPIs      []KPISpec     `json:"kpis"`
	Summaries []SummarySpec `json:"summaries"`
	Charts    []ChartSpec   `json:"charts"`
	Detail    *DetailSpec   `json:"detail,omitempty"`
}

// FilterSpec declares a cascading filter field.
type FilterSpec struct {
	Field     string   `json:"field"`
	Label     string   `json:"label"`
	DependsOn []string `json:"dependsOn,omitempty"`
	Multi     bool     `json:"multi"`
}

// KPI kinds.
const (
	KPISum   = "sum"
	KPIMean  = "mean"
	KPICount = "count"
)

// KPISpec declares a scalar KPI over one field.
type KPISpec struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Field  string `json:"field"` // "" when the logical field did not resolve
	Kind   string `json:"kind"`
	Suffix string `json:"suffix,omitempty"` // display scale, e.g. "/ 5"
}

// SummarySpec declares a grouped summary table.
type SummarySpec struct {
	Title   string   `json:"title"`
	GroupBy []string `json:"groupBy"`
	Amount  string   `json:"amount,omitempty"` // "" = count only
}

// ChartSpec declares a value-count chart over one categorical field.
type ChartSpec struct {
	Title   string `json:"title"`
	Type    string `json:"type"` // "bar", "pie"
	GroupBy string `json:"groupBy"`
}

// DetailSpec declares a row-level projection table.
type DetailSpec struct {
	Title   string   `json:"title"`
	Columns []string `json:"columns"`
}

// ============================================================================
// RESULT — Render-ready output
// ============================================================================

// Result is the engine's output for one recomputation.
type Result struct {
	Success    bool       `json:"success"`
	Title      string     `json:"title"`
	Reply      string     `json:"reply"`
	RowCount   int        `json:"rowCount"`
	TotalRows  int        `json:"totalRows"`
	Selections Selections `json:"selections"`

	Filters   []FilterState  `json:"filters"`
	KPIs      []KPI          `json:"kpis"`
	Summaries []SummaryTable `json:"summaries"`
	Charts    []*ChartConfig `json:"charts,omitempty"`
	Detail    *TableData     `json:"detail,omitempty"`

	Errors []string `json:"errors,omitempty"`

	// View is the filtered row set. Not serialized.
	View RecordView `json:"-"`
}

// FilterState is one filter's resolved options and current selection.
type FilterState struct {
	Field    string   `json:"field"`
	Label    string   `json:"label"`
	Multi    bool     `json:"multi"`
	Options  []string `json:"options"`
	Selected []string `json:"selected"`
}

// KPI is a computed scalar.
type KPI struct {
	Name   string  `json:"name"`
	Label  string  `json:"label"`
	Kind   string  `json:"kind"`
	Value  float64 `json:"value"`
	Suffix string  `json:"suffix,omitempty"`
}

// ============================================================================
// GROUP — Intermediate computation result
// ============================================================================

// Group represents a grouped/aggregated result.
type Group struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Value     float64    `json:"value"`
	Count     int        `json:"count"`
	SubGroups []Group    `json:"subGroups,omitempty"`
	View      RecordView `json:"-"` // Sub-view for records in this group (zero-copy)
}

// ============================================================================
// SUMMARY TABLES
// ============================================================================

// SummaryTable is a grouped count/amount table with an optional total row.
type SummaryTable struct {
	Title   string       `json:"title"`
	GroupBy []string     `json:"groupBy"`
	Amount  string       `json:"amount,omitempty"`
	Rows    []SummaryRow `json:"rows"`
	Total   *SummaryRow  `json:"total,omitempty"`
}

// SummaryRow is one group of a SummaryTable.
type SummaryRow struct {
	Keys   []string `json:"keys"`
	Count  int      `json:"count"`
	Amount float64  `json:"amount"`
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
	Hole       float64       `json:"hole,omitempty"` // donut ratio for pie charts
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "currency"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary provides totals or aggregations for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}
