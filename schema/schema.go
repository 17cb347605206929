package schema

// ============================================================================
// SCHEMA — Describes a sheet and the dashboard computed over it
// ============================================================================
// Fields, filters, KPIs and tables name columns by logical phrase
// ("AMOUNT NOW DUE"), not by position. Bind resolves each phrase against the
// real header row, so header drift between sheet revisions only changes
// which column a phrase lands on, never the code.
// ============================================================================

// Field kinds.
const (
	KindCategorical = "categorical"
	KindNumeric     = "numeric"
	KindDate        = "date"
)

// Config describes the complete shape of a dataset and its dashboard.
type Config struct {
	Name        string `yaml:"name" json:"name"`
	Version     string `yaml:"version,omitempty" json:"version,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	Source         SourceConfig `yaml:"source" json:"source"`
	HeaderRow      int          `yaml:"header_row" json:"headerRow"` // 1-based
	CurrencyGlyphs []string     `yaml:"currency_glyphs,omitempty" json:"currencyGlyphs,omitempty"`

	Fields    []FieldMeta   `yaml:"fields" json:"fields"`
	Filters   []FilterMeta  `yaml:"filters" json:"filters"`
	KPIs      []KPIMeta     `yaml:"kpis" json:"kpis"`
	Summaries []SummaryMeta `yaml:"summaries,omitempty" json:"summaries,omitempty"`
	Charts    []ChartMeta   `yaml:"charts,omitempty" json:"charts,omitempty"`
	Detail    *DetailMeta   `yaml:"detail,omitempty" json:"detail,omitempty"`

	Server  ServerConfig  `yaml:"server,omitempty" json:"server,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty"`

	// Auto-discovery metadata
	DiscoveredFrom string          `yaml:"discovered_from,omitempty" json:"discoveredFrom,omitempty"`
	DiscoveredAt   string          `yaml:"discovered_at,omitempty" json:"discoveredAt,omitempty"`
	SkippedColumns []SkippedColumn `yaml:"skipped_columns,omitempty" json:"skippedColumns,omitempty"`
}

// SourceConfig says where the sheet comes from.
type SourceConfig struct {
	Kind   string   `yaml:"kind" json:"kind"` // csv, xlsx, xls, sqlite, postgres; "" = by extension
	Path   string   `yaml:"path,omitempty" json:"path,omitempty"`
	Sheets []string `yaml:"sheets,omitempty" json:"sheets,omitempty"` // xlsx/xls: "" = first sheet
	DSN    string   `yaml:"dsn,omitempty" json:"dsn,omitempty"`
	Query  string   `yaml:"query,omitempty" json:"query,omitempty"`
}

// FieldMeta declares how a logical field is typed. Columns not declared here
// are categorical.
type FieldMeta struct {
	Name string `yaml:"name" json:"name"` // header phrase, substring-matched
	Kind string `yaml:"kind" json:"kind"`
}

// FilterMeta declares a cascading filter.
type FilterMeta struct {
	Field     string   `yaml:"field" json:"field"`
	Label     string   `yaml:"label,omitempty" json:"label,omitempty"`
	DependsOn []string `yaml:"depends_on,omitempty" json:"dependsOn,omitempty"`
	Multi     bool     `yaml:"multi,omitempty" json:"multi,omitempty"`
}

// KPIMeta declares a scalar KPI.
type KPIMeta struct {
	Name   string `yaml:"name" json:"name"`
	Label  string `yaml:"label,omitempty" json:"label,omitempty"`
	Field  string `yaml:"field" json:"field"`
	Kind   string `yaml:"kind" json:"kind"`                         // sum, mean, count
	Suffix string `yaml:"suffix,omitempty" json:"suffix,omitempty"` // shown after the value
}

// SummaryMeta declares a grouped summary table.
type SummaryMeta struct {
	Title   string   `yaml:"title" json:"title"`
	GroupBy []string `yaml:"group_by" json:"groupBy"`
	Amount  string   `yaml:"amount,omitempty" json:"amount,omitempty"`
}

// ChartMeta declares a value-count chart.
type ChartMeta struct {
	Title   string `yaml:"title" json:"title"`
	Type    string `yaml:"type" json:"type"`
	GroupBy string `yaml:"group_by" json:"groupBy"`
}

// DetailMeta declares the row-level table.
type DetailMeta struct {
	Title   string   `yaml:"title" json:"title"`
	Columns []string `yaml:"columns" json:"columns"`
}

// ServerConfig configures `progdash serve`.
type ServerConfig struct {
	Addr            string `yaml:"addr,omitempty" json:"addr,omitempty"`
	RefreshSchedule string `yaml:"refresh_schedule,omitempty" json:"refreshSchedule,omitempty"` // cron spec
	TimeZone        string `yaml:"time_zone,omitempty" json:"timeZone,omitempty"`
	Watch           bool   `yaml:"watch,omitempty" json:"watch,omitempty"` // reload when the source file changes
	SessionTTL      string `yaml:"session_ttl,omitempty" json:"sessionTTL,omitempty"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level       string `yaml:"level,omitempty" json:"level,omitempty"` // debug, info, warn, error
	Development bool   `yaml:"development,omitempty" json:"development,omitempty"`
}

// SkippedColumn records why a column was excluded during auto-discovery.
type SkippedColumn struct {
	Column      string `yaml:"column" json:"column"`
	Reason      string `yaml:"reason" json:"reason"`
	Recoverable bool   `yaml:"recoverable" json:"recoverable"`
}

// FieldKind returns the declared kind of a logical field, categorical if
// undeclared.
func (c Config) FieldKind(name string) string {
	for _, f := range c.Fields {
		if f.Name == name {
			return f.Kind
		}
	}
	return KindCategorical
}

// FilterFields returns the logical filter fields in declaration order.
func (c Config) FilterFields() []string {
	keys := make([]string, len(c.Filters))
	for i, f := range c.Filters {
		keys[i] = f.Field
	}
	return keys
}

// NumericFields returns the logical fields declared numeric.
func (c Config) NumericFields() []string {
	var keys []string
	for _, f := range c.Fields {
		if f.Kind == KindNumeric {
			keys = append(keys, f.Name)
		}
	}
	return keys
}

// Glyphs returns the currency glyphs to strip, defaulting to ₦.
func (c Config) Glyphs() []string {
	if len(c.CurrencyGlyphs) == 0 {
		return []string{"₦"}
	}
	return c.CurrencyGlyphs
}

// DisplayGlyph is the glyph used when formatting amounts.
func (c Config) DisplayGlyph() string {
	return c.Glyphs()[0]
}
