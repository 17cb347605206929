package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/spektr-org/progdash/engine"
)

// ============================================================================
// AUTO-DISCOVERY — Heuristic dashboard from a raw grid
// ============================================================================
// Inspects a sheet (rows of cells, header row included) and drafts a Config
// that can be saved, hand-edited and loaded back.
//
// Classification pipeline per column:
//   1. Sample values → detect type (numeric, date, string)
//   2. Type + cardinality → classify role (filter, measure, skip)
//   3. Pattern matching → temporal columns, currency glyphs
//   4. Hierarchies → filter depends_on (child depends on parent)
//   5. KPIs, summaries and charts from the classified columns
// ============================================================================

// ErrNoData is returned when the grid has no header or no data rows.
var ErrNoData = errors.New("no data to discover from")

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize     int      // Max rows to inspect (0 = all). Default: 1000
	HeaderRow      int      // 1-based header row. Default: 1
	RecoverColumns []string // Force-include columns that were auto-skipped
	Name           string   // Dashboard name override
	MaxFilters     int      // Cap on generated filters. Default: 8
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
		HeaderRow:  1,
		MaxFilters: 8,
	}
}

// knownGlyphs are currency prefixes recognized while sampling.
var knownGlyphs = []string{"₦", "$", "€", "£", "¥"}

// DiscoverFromGrid drafts a Config by inspecting a sheet.
func DiscoverFromGrid(grid [][]string, opts ...DiscoverOptions) (*Config, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.HeaderRow < 1 {
		opt.HeaderRow = 1
	}
	if opt.MaxFilters <= 0 {
		opt.MaxFilters = 8
	}

	// 1. Header row
	if len(grid) < opt.HeaderRow {
		return nil, errors.Wrapf(ErrNoData, "%d rows, header expected on row %d", len(grid), opt.HeaderRow)
	}
	rawHeaders := grid[opt.HeaderRow-1]
	headers := make([]string, len(rawHeaders))
	for i, h := range rawHeaders {
		headers[i] = engine.NormalizeHeader(h)
	}

	// 2. Sample rows
	limit := opt.SampleSize
	if limit <= 0 {
		limit = 100000 // safety cap
	}
	var rows [][]string
	for _, row := range grid[opt.HeaderRow:] {
		if len(rows) >= limit {
			break
		}
		if engine.IsBlankRow(row) {
			continue
		}
		rows = append(rows, row)
	}

	totalRows := len(rows)
	if totalRows == 0 {
		return nil, errors.Wrap(ErrNoData, "sheet has no data rows")
	}

	// 3. Analyze each column
	columns := make([]columnAnalysis, 0, len(headers))
	seen := make(map[string]bool)
	for i, header := range headers {
		if header == "" || seen[header] {
			continue
		}
		seen[header] = true
		columns = append(columns, analyzeColumn(header, i, rows, totalRows))
	}

	// 4. Apply recovery overrides
	recoverSet := make(map[string]bool)
	for _, col := range opt.RecoverColumns {
		recoverSet[engine.NormalizeHeader(col)] = true
	}

	config := &Config{
		Name:      opt.Name,
		Version:   "1.0",
		HeaderRow: opt.HeaderRow,
	}
	if config.Name == "" {
		config.Name = "Auto-discovered Dashboard"
	}

	var filterCols, measureCols, dateCols []*columnAnalysis
	for i := range columns {
		col := &columns[i]
		if col.role == roleSkipped && recoverSet[col.header] {
			col.role = roleDimension
		}

		switch col.role {
		case roleDimension:
			if col.colType == typeDate {
				dateCols = append(dateCols, col)
				config.Fields = append(config.Fields, FieldMeta{Name: col.header, Kind: KindDate})
				if col.cardinalityHint == "high" {
					continue
				}
			}
			filterCols = append(filterCols, col)

		case roleMeasure:
			measureCols = append(measureCols, col)
			config.Fields = append(config.Fields, FieldMeta{Name: col.header, Kind: KindNumeric})

		case roleSkipped:
			config.SkippedColumns = append(config.SkippedColumns, SkippedColumn{
				Column:      col.header,
				Reason:      col.skipReason,
				Recoverable: col.recoverable,
			})
		}
	}

	// 5. Filters: temporal first, then by ascending cardinality
	sort.SliceStable(filterCols, func(i, j int) bool {
		if filterCols[i].isTemporal != filterCols[j].isTemporal {
			return filterCols[i].isTemporal
		}
		return filterCols[i].uniqueCount < filterCols[j].uniqueCount
	})
	if len(filterCols) > opt.MaxFilters {
		filterCols = filterCols[:opt.MaxFilters]
	}

	parents := detectHierarchies(filterCols, rows)
	for _, col := range filterCols {
		f := FilterMeta{
			Field: col.header,
			Label: "Filter by " + col.header,
			Multi: col.cardinalityHint != "low",
		}
		if p := parents[col.header]; p != "" {
			f.DependsOn = []string{p}
		}
		config.Filters = append(config.Filters, f)
	}

	// 6. KPIs, summaries, charts, detail
	for _, col := range measureCols {
		config.KPIs = append(config.KPIs, KPIMeta{
			Name:  "total_" + toSnakeCase(col.header),
			Label: "TOTAL " + col.header,
			Field: col.header,
			Kind:  engine.KPISum,
		})
	}
	for _, col := range dateCols {
		config.KPIs = append(config.KPIs, KPIMeta{
			Name:  "count_" + toSnakeCase(col.header),
			Label: "COUNT OF " + col.header,
			Field: col.header,
			Kind:  engine.KPICount,
		})
	}

	amount := ""
	if len(measureCols) > 0 {
		amount = measureCols[0].header
	}
	var grouping []*columnAnalysis
	for _, col := range filterCols {
		if !col.isTemporal && col.cardinalityHint != "high" {
			grouping = append(grouping, col)
		}
	}
	for i, col := range grouping {
		if i == 3 {
			break
		}
		title := col.header + " – No. of Projects"
		if amount != "" {
			title += " and " + toDisplayName(amount)
		}
		config.Summaries = append(config.Summaries, SummaryMeta{
			Title:   title,
			GroupBy: []string{col.header},
			Amount:  amount,
		})
	}
	chartTypes := []string{"bar", "pie"}
	for i, col := range grouping {
		if i == len(chartTypes) {
			break
		}
		config.Charts = append(config.Charts, ChartMeta{
			Title:   "Records by " + toDisplayName(col.header),
			Type:    chartTypes[i],
			GroupBy: col.header,
		})
	}

	var detail []string
	for _, col := range columns {
		if col.role != roleSkipped || recoverSet[col.header] {
			detail = append(detail, col.header)
		}
		if len(detail) == 6 {
			break
		}
	}
	if len(detail) > 0 {
		config.Detail = &DetailMeta{Title: "Records", Columns: detail}
	}

	// 7. Currency glyphs
	config.CurrencyGlyphs = detectCurrencyGlyphs(measureCols)

	config.Logging = LoggingConfig{Level: "info"}
	config.DiscoveredFrom = "grid"
	config.DiscoveredAt = time.Now().Format(time.RFC3339)

	return config, nil
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

type columnRole int

const (
	roleDimension columnRole = iota
	roleMeasure
	roleSkipped
)

type columnType int

const (
	typeString columnType = iota
	typeNumeric
	typeDate
)

type columnAnalysis struct {
	header      string
	index       int
	colType     columnType
	role        columnRole
	skipReason  string
	recoverable bool

	// Stats
	uniqueCount int
	totalCount  int
	nullCount   int
	sampleVals  []string
	values      []string

	isTemporal      bool
	temporalFormat  string
	hasDecimals     bool
	cardinalityHint string
}

// analyzeColumn inspects all values in a column and classifies it.
func analyzeColumn(header string, index int, rows [][]string, totalRows int) columnAnalysis {
	col := columnAnalysis{
		header:     header,
		index:      index,
		totalCount: totalRows,
	}

	values := make([]string, 0, len(rows))
	uniqueSet := make(map[string]bool)

	for _, row := range rows {
		if index >= len(row) {
			col.nullCount++
			continue
		}
		val := strings.TrimSpace(row[index])
		if val == "" || val == "null" || val == "NULL" || val == "N/A" || val == "n/a" {
			col.nullCount++
			continue
		}
		values = append(values, val)
		uniqueSet[val] = true
	}

	col.uniqueCount = len(uniqueSet)
	col.values = values

	if len(values) == 0 {
		col.role = roleSkipped
		col.skipReason = "All values are empty/null"
		col.recoverable = false
		return col
	}

	col.sampleVals = collectSamples(uniqueSet, 10)

	// Step 1: Detect type
	col.colType = detectType(values)

	if col.colType == typeNumeric {
		for _, v := range values {
			if strings.Contains(v, ".") {
				col.hasDecimals = true
				break
			}
		}
	}

	// Step 2: Temporal patterns
	if col.colType != typeDate {
		col.isTemporal, col.temporalFormat = detectTemporalPattern(col.sampleVals)
	} else {
		col.isTemporal = true
	}

	// Step 3: Classify role
	col.classifyRole(totalRows)

	// Step 4: Cardinality hint
	switch {
	case col.uniqueCount <= 10:
		col.cardinalityHint = "low"
	case col.uniqueCount <= 100:
		col.cardinalityHint = "medium"
	default:
		col.cardinalityHint = "high"
	}

	return col
}

// classifyRole determines filter vs measure vs skip.
func (col *columnAnalysis) classifyRole(totalRows int) {
	switch col.colType {

	case typeNumeric:
		// Year-like codes filter, they don't sum
		if col.isTemporal {
			col.role = roleDimension
			return
		}
		if col.uniqueCount == totalRows && totalRows > 10 && !col.hasDecimals {
			col.role = roleSkipped
			col.skipReason = "Unique per row — likely an ID column"
			col.recoverable = false
			return
		}
		if col.hasDecimals {
			col.role = roleMeasure
			return
		}
		uniqueRatio := float64(col.uniqueCount) / float64(totalRows)
		if col.uniqueCount < 20 && uniqueRatio < 0.3 {
			col.role = roleDimension
			return
		}
		col.role = roleMeasure

	case typeDate:
		col.role = roleDimension

	case typeString:
		if col.uniqueCount == totalRows && totalRows > 10 {
			col.role = roleSkipped
			col.skipReason = "Unique per row — likely an identifier or free text"
			col.recoverable = true
			return
		}
		if col.uniqueCount > totalRows/2 && col.uniqueCount > 50 {
			col.role = roleSkipped
			col.skipReason = fmt.Sprintf("High cardinality (%d unique values) — not useful for filtering", col.uniqueCount)
			col.recoverable = true
			return
		}
		col.role = roleDimension
	}
}

// ============================================================================
// TYPE DETECTION
// ============================================================================

// detectType requires 80%+ of non-null values to match for numeric/date.
func detectType(values []string) columnType {
	if len(values) == 0 {
		return typeString
	}

	numCount := 0
	dateCount := 0
	for _, v := range values {
		if isNumeric(v) {
			numCount++
		}
		if isDate(v) {
			dateCount++
		}
	}

	threshold := int(float64(len(values)) * 0.8)

	// A bare year parses as both; numeric wins and temporal detection marks it.
	if numCount >= threshold {
		return typeNumeric
	}
	if dateCount >= threshold {
		return typeDate
	}
	return typeString
}

func isNumeric(s string) bool {
	_, ok := engine.ParseNumeric(s, knownGlyphs...)
	return ok
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"Jan-2006",
	"January 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"02-Jan-2006",
}

func isDate(s string) bool {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// ============================================================================
// SPECIAL PATTERN DETECTION
// ============================================================================

var monthPatterns = []struct {
	re     *regexp.Regexp
	format string
}{
	{regexp.MustCompile(`^[A-Z][a-z]{2}-\d{4}$`), "MMM-yyyy"},  // Jan-2026
	{regexp.MustCompile(`^\d{4}-\d{2}$`), "yyyy-MM"},            // 2026-01
	{regexp.MustCompile(`^Q[1-4]-\d{4}$`), "QN-yyyy"},           // Q1-2026
	{regexp.MustCompile(`^Q[1-4]\s+\d{4}$`), "QN yyyy"},         // Q1 2026
	{regexp.MustCompile(`^(19|20)\d{2}$`), "yyyy"},              // 2026
	{regexp.MustCompile(`^[A-Z][a-z]+ \d{4}$`), "MMMM yyyy"},    // January 2026
	{regexp.MustCompile(`^(?i)(jan(uary)?|feb(ruary)?|mar(ch)?|apr(il)?|may|june?|july?|aug(ust)?|sept?(ember)?|oct(ober)?|nov(ember)?|dec(ember)?)$`), "MMMM"}, // March
}

// detectTemporalPattern checks if values match known date/month/quarter patterns.
func detectTemporalPattern(samples []string) (bool, string) {
	if len(samples) == 0 {
		return false, ""
	}

	for _, pattern := range monthPatterns {
		matches := 0
		for _, s := range samples {
			if pattern.re.MatchString(strings.TrimSpace(s)) {
				matches++
			}
		}
		if float64(matches)/float64(len(samples)) >= 0.8 {
			return true, pattern.format
		}
	}

	return false, ""
}

// detectCurrencyGlyphs returns the glyphs prefixed to numeric cells, most
// frequent first.
func detectCurrencyGlyphs(measures []*columnAnalysis) []string {
	counts := make(map[string]int)
	for _, col := range measures {
		for _, v := range col.values {
			v = strings.TrimPrefix(strings.TrimSpace(v), "-")
			for _, g := range knownGlyphs {
				if strings.HasPrefix(v, g) {
					counts[g]++
					break
				}
			}
		}
	}
	glyphs := make([]string, 0, len(counts))
	for g := range counts {
		glyphs = append(glyphs, g)
	}
	sort.Slice(glyphs, func(i, j int) bool {
		if counts[glyphs[i]] != counts[glyphs[j]] {
			return counts[glyphs[i]] > counts[glyphs[j]]
		}
		return glyphs[i] < glyphs[j]
	})
	if len(glyphs) == 0 {
		return nil
	}
	return glyphs
}

// ============================================================================
// HIERARCHY DETECTION
// ============================================================================

// detectHierarchies finds parent/child relationships between filter columns.
// If every value of column B maps to exactly one value of column A, and A has
// fewer unique values, then A is parent of B. When several parents qualify,
// the closest (highest cardinality) wins. Returns child → parent.
func detectHierarchies(cols []*columnAnalysis, rows [][]string) map[string]string {
	parents := make(map[string]string)

	for _, child := range cols {
		bestParent := ""
		bestParentUniques := 0

		for _, parent := range cols {
			if parent == child || parent.isTemporal {
				continue
			}
			if parent.uniqueCount >= child.uniqueCount {
				continue
			}

			childToParent := make(map[string]string)
			isHierarchy := true

			for _, row := range rows {
				if child.index >= len(row) || parent.index >= len(row) {
					continue
				}
				c := strings.TrimSpace(row[child.index])
				p := strings.TrimSpace(row[parent.index])
				if c == "" || p == "" {
					continue
				}
				if existing, ok := childToParent[c]; ok {
					if existing != p {
						isHierarchy = false
						break
					}
				} else {
					childToParent[c] = p
				}
			}

			if isHierarchy && len(childToParent) > 1 && parent.uniqueCount > bestParentUniques {
				bestParent = parent.header
				bestParentUniques = parent.uniqueCount
			}
		}

		if bestParent != "" {
			parents[child.header] = bestParent
		}
	}
	return parents
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// toSnakeCase converts "AMOUNT NOW DUE" → "amount_now_due".
func toSnakeCase(s string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(s) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// toDisplayName turns a header into title case, keeping acronyms.
// "AMOUNT NOW DUE" → "Amount Now Due", "MDA" → "MDA"
func toDisplayName(s string) string {
	return engine.LabelForDimension(s)
}

// collectSamples picks up to maxSamples representative values.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}

	sort.Strings(samples)

	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}
