package engine

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// ============================================================================
// AGGREGATORS — Grouping, Aggregation, and Sorting via RecordView
// ============================================================================
// All functions operate on RecordView — zero-copy access to the store.
// Grouping produces SubViews (index lists into parent view).
// Missing measures are skipped everywhere: they never count as zero.
// ============================================================================

// Aggregations understood by GroupAndAggregate.
const (
	AggSum   = "sum"
	AggCount = "count"
	AggMean  = "mean"
	AggMax   = "max"
	AggMin   = "min"
)

// GroupAndAggregate is the main entry point for the aggregation pipeline.
// Pipeline: group → aggregate → sort → limit.
// Rows with an empty key in a grouping field are left out of every group.
func GroupAndAggregate(
	view RecordView,
	groupBy []string,
	measure string,
	aggregation string,
	sortBy string,
	limit int,
) []Group {
	if view.Len() == 0 {
		return nil
	}

	// 1. Group
	var groups []Group
	if len(groupBy) == 0 {
		groups = []Group{{
			Key:   "all",
			Label: TotalLabel,
			View:  view,
		}}
	} else {
		groups = groupByMulti(view, groupBy)
	}

	// 2. Aggregate
	for i := range groups {
		aggregateTree(&groups[i], measure, aggregation)
	}

	// 3. Sort
	SortGroups(groups, sortBy)

	// 4. Limit
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}

	return groups
}

// ============================================================================
// GROUPING
// ============================================================================

func groupBySingle(view RecordView, dimension string) []Group {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		key := NormalizeCategory(view.Dimension(i, dimension))
		if key == "" {
			continue
		}
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, Group{
			Key:   key,
			Label: key,
			View:  newSubView(view, grouped[key]),
		})
	}
	return groups
}

// groupByMulti nests one level of SubGroups per extra dimension.
func groupByMulti(view RecordView, dimensions []string) []Group {
	groups := groupBySingle(view, dimensions[0])
	if len(dimensions) == 1 {
		return groups
	}
	kept := groups[:0]
	for _, g := range groups {
		g.SubGroups = groupByMulti(g.View, dimensions[1:])
		if len(g.SubGroups) == 0 {
			continue // every row had an empty key further down
		}
		kept = append(kept, g)
	}
	return kept
}

// ============================================================================
// AGGREGATION
// ============================================================================

func aggregateTree(group *Group, measure string, aggregation string) {
	aggregateGroup(group, measure, aggregation)
	for j := range group.SubGroups {
		aggregateTree(&group.SubGroups[j], measure, aggregation)
	}
}

func aggregateGroup(group *Group, measure string, aggregation string) {
	group.Count = group.View.Len()
	if group.Count == 0 {
		return
	}

	switch aggregation {
	case AggCount:
		group.Value = float64(group.Count)
	case AggMean, "avg":
		group.Value = MeanMeasure(group.View, measure)
	case AggMax:
		group.Value = MaxMeasure(group.View, measure)
	case AggMin:
		group.Value = MinMeasure(group.View, measure)
	default:
		group.Value = SumMeasure(group.View, measure)
	}
}

// SumDecimal sums the present values of a measure exactly.
func SumDecimal(view RecordView, measure string) decimal.Decimal {
	total := decimal.Zero
	for i := 0; i < view.Len(); i++ {
		if v, ok := view.Measure(i, measure); ok {
			total = total.Add(decimal.NewFromFloat(v))
		}
	}
	return total
}

// SumMeasure sums a named measure across a view. Missing values are ignored;
// an entirely missing or absent measure sums to 0.
func SumMeasure(view RecordView, measure string) float64 {
	return SumDecimal(view, measure).InexactFloat64()
}

// MeanMeasure averages the present values of a measure. Missing values are
// excluded from numerator and denominator; no observations gives 0.
func MeanMeasure(view RecordView, measure string) float64 {
	total := decimal.Zero
	n := 0
	for i := 0; i < view.Len(); i++ {
		if v, ok := view.Measure(i, measure); ok {
			total = total.Add(decimal.NewFromFloat(v))
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total.Div(decimal.NewFromInt(int64(n))).InexactFloat64()
}

// CountPresent counts rows where field holds a value: a parsed measure, or a
// non-empty dimension.
func CountPresent(view RecordView, field string) int {
	measure := IsMeasure(view, field)
	n := 0
	for i := 0; i < view.Len(); i++ {
		if measure {
			if _, ok := view.Measure(i, field); ok {
				n++
			}
			continue
		}
		if NormalizeCategory(view.Dimension(i, field)) != "" {
			n++
		}
	}
	return n
}

// MaxMeasure returns the largest present value of a measure, 0 if none.
func MaxMeasure(view RecordView, measure string) float64 {
	m, found := 0.0, false
	for i := 0; i < view.Len(); i++ {
		if v, ok := view.Measure(i, measure); ok && (!found || v > m) {
			m, found = v, true
		}
	}
	return m
}

// MinMeasure returns the smallest present value of a measure, 0 if none.
func MinMeasure(view RecordView, measure string) float64 {
	m, found := 0.0, false
	for i := 0; i < view.Len(); i++ {
		if v, ok := view.Measure(i, measure); ok && (!found || v < m) {
			m, found = v, true
		}
	}
	return m
}

// ============================================================================
// SORTING
// ============================================================================

// SortGroups sorts aggregate groups by the specified sort mode.
// Stable, so ties keep grouping order.
func SortGroups(groups []Group, sortBy string) {
	switch sortBy {
	case "value_desc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value > groups[j].Value })
	case "value_asc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value < groups[j].Value })
	case "count_desc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Count > groups[j].Count })
	case "label_asc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	case "label_desc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key > groups[j].Key })
	default:
		// preserve grouping order
	}
}

// ============================================================================
// VALUE HELPERS
// ============================================================================

// UniqueValues returns distinct non-empty trimmed values of a dimension, in
// first-seen order.
func UniqueValues(view RecordView, dimension string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := NormalizeCategory(view.Dimension(i, dimension))
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

// LabelForDimension turns a normalized header into a display label:
// "THEMES PILLAR" → "Themes Pillar". Known acronyms (MDA, LGA, COFOG) stay.
func LabelForDimension(dimension string) string {
	words := strings.Fields(dimension)
	for i, w := range words {
		if isAcronym(w) {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

var acronyms = map[string]bool{"MDA": true, "LGA": true, "COFOG": true, "KPI": true, "ID": true}

func isAcronym(w string) bool { return acronyms[strings.ToUpper(w)] }

// LabelForAggregation returns a human-readable label for an aggregation type.
func LabelForAggregation(aggregation string) string {
	switch aggregation {
	case AggSum:
		return "Amount"
	case AggCount:
		return "Count"
	case AggMean, "avg":
		return "Average"
	case AggMax:
		return "Maximum"
	case AggMin:
		return "Minimum"
	default:
		return "Value"
	}
}
