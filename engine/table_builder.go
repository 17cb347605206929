package engine

import (
	"sort"
	"strconv"
)

// ============================================================================
// TABLE BUILDER — Grouped summaries and detail tables
// ============================================================================
// Summaries: group → count + amount per group → sort by key → Total row.
// The Total row's amount is the grand total over the whole view, not the sum
// of group amounts, so rows dropped for an empty group key still count.
// ============================================================================

// Summarize groups view by one or more categorical fields and computes a row
// count and amount sum per group, sorted ascending by key tuple. amount may be
// "" (count only). An empty view yields no rows and no Total.
func Summarize(view RecordView, groupBy []string, amount string) SummaryTable {
	table := SummaryTable{
		GroupBy: append([]string(nil), groupBy...),
		Amount:  amount,
		Rows:    []SummaryRow{},
	}
	if view.Len() == 0 || len(groupBy) == 0 {
		return table
	}
	for _, f := range groupBy {
		if !HasField(view, f) {
			return table
		}
	}

	groups := groupByMulti(view, groupBy)
	flattenGroups(groups, nil, amount, &table.Rows)
	sort.SliceStable(table.Rows, func(i, j int) bool {
		return lessKeys(table.Rows[i].Keys, table.Rows[j].Keys)
	})

	if len(table.Rows) == 0 {
		return table
	}

	total := SummaryRow{Keys: []string{TotalLabel}}
	for _, r := range table.Rows {
		total.Count += r.Count
	}
	if amount != "" {
		total.Amount = SumMeasure(view, amount)
	}
	table.Total = &total
	return table
}

func flattenGroups(groups []Group, prefix []string, amount string, out *[]SummaryRow) {
	for _, g := range groups {
		keys := append(append([]string(nil), prefix...), g.Key)
		if len(g.SubGroups) > 0 {
			flattenGroups(g.SubGroups, keys, amount, out)
			continue
		}
		row := SummaryRow{Keys: keys, Count: g.View.Len()}
		if amount != "" {
			row.Amount = SumMeasure(g.View, amount)
		}
		*out = append(*out, row)
	}
}

func lessKeys(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// BuildSummaries computes every summary spec.
func BuildSummaries(view RecordView, specs []SummarySpec) []SummaryTable {
	out := make([]SummaryTable, 0, len(specs))
	for _, s := range specs {
		t := Summarize(view, s.GroupBy, s.Amount)
		t.Title = s.Title
		out = append(out, t)
	}
	return out
}

// ============================================================================
// SUMMARY TABLE → TableData
// ============================================================================

// SummaryTableData renders a SummaryTable as display rows; the Total row is
// the last row. Amounts are formatted with the currency glyph.
func SummaryTableData(t SummaryTable, glyph string) *TableData {
	columns := make([]Column, 0, len(t.GroupBy)+2)
	for _, f := range t.GroupBy {
		columns = append(columns, Column{Key: f, Label: LabelForDimension(f), Type: "text", Align: "left"})
	}
	columns = append(columns, Column{Key: "count", Label: "No. of Projects", Type: "number", Align: "center"})
	if t.Amount != "" {
		columns = append(columns, Column{Key: "amount", Label: LabelForDimension(t.Amount), Type: "currency", Align: "right"})
	}

	rows := make([][]string, 0, len(t.Rows)+1)
	appendRow := func(r SummaryRow) {
		row := make([]string, 0, len(columns))
		for i := range t.GroupBy {
			if i < len(r.Keys) {
				row = append(row, r.Keys[i])
			} else {
				row = append(row, "")
			}
		}
		row = append(row, strconv.Itoa(r.Count))
		if t.Amount != "" {
			row = append(row, FormatCurrency(r.Amount, glyph))
		}
		rows = append(rows, row)
	}
	for _, r := range t.Rows {
		appendRow(r)
	}
	if t.Total != nil {
		appendRow(*t.Total)
	}

	return &TableData{Title: t.Title, Columns: columns, Rows: rows}
}

// ============================================================================
// DETAIL TABLE — Row per record
// ============================================================================

// BuildDetailTable projects the listed columns, one row per record. Returns
// nil unless every column exists in the view.
func BuildDetailTable(view RecordView, spec DetailSpec, glyph string) *TableData {
	if len(spec.Columns) == 0 {
		return nil
	}
	for _, c := range spec.Columns {
		if !HasField(view, c) {
			return nil
		}
	}

	columns := make([]Column, 0, len(spec.Columns))
	var measureCols []string
	for _, key := range spec.Columns {
		col := Column{Key: key, Label: LabelForDimension(key), Type: "text", Align: "left"}
		if IsMeasure(view, key) {
			col.Type, col.Align = "currency", "right"
			measureCols = append(measureCols, key)
		}
		columns = append(columns, col)
	}

	rows := make([][]string, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		row := make([]string, 0, len(columns))
		for _, col := range columns {
			if col.Type == "currency" {
				if v, ok := view.Measure(i, col.Key); ok {
					row = append(row, FormatAmount(v))
				} else {
					row = append(row, "")
				}
				continue
			}
			row = append(row, view.Dimension(i, col.Key))
		}
		rows = append(rows, row)
	}

	table := &TableData{Title: spec.Title, Columns: columns, Rows: rows}
	if len(measureCols) > 0 {
		values := make(map[string]string, len(measureCols))
		for _, key := range measureCols {
			values[key] = FormatCurrency(SumMeasure(view, key), glyph)
		}
		table.Summary = &Summary{Label: TotalLabel + " (" + FormatInt(view.Len()) + " records)", Values: values}
	}
	return table
}
