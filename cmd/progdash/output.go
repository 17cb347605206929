package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/spektr-org/progdash/engine"
)

// ============================================================================
// JSON OUTPUT
// ============================================================================

func writeJSON(w io.Writer, v interface{}, format string) error {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return errors.Wrap(err, "failed to marshal output")
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// ============================================================================
// CSV OUTPUT — Sheets-ready blocks separated by a blank row
// ============================================================================
// Amounts are written as plain numbers so spreadsheets can sum them.

func writeCSV(w io.Writer, res *engine.Result) error {
	cw := csv.NewWriter(w)

	if res == nil {
		cw.Write([]string{"Result", "No data"})
		cw.Flush()
		return cw.Error()
	}

	cw.Write([]string{"KPI", "Value"})
	for _, k := range res.KPIs {
		cw.Write([]string{k.Label, fmtNum(k.Value)})
	}

	for _, t := range res.Summaries {
		cw.Write(nil)
		writeSummaryCSV(cw, t)
	}

	for _, c := range res.Charts {
		if c == nil || len(c.Series) == 0 {
			continue
		}
		cw.Write(nil)
		cw.Write([]string{c.Title})
		cw.Write([]string{labelOr(c.XAxis, "Label"), labelOr(c.YAxis, "Value")})
		for _, d := range c.Series[0].Data {
			cw.Write([]string{d.Label, fmtNum(d.Value)})
		}
	}

	if res.Detail != nil {
		cw.Write(nil)
		writeTableCSV(cw, res.Detail)
	}

	cw.Flush()
	return cw.Error()
}

func writeSummaryCSV(cw *csv.Writer, t engine.SummaryTable) {
	cw.Write([]string{t.Title})

	headers := make([]string, 0, len(t.GroupBy)+2)
	for _, f := range t.GroupBy {
		headers = append(headers, engine.LabelForDimension(f))
	}
	headers = append(headers, "No. of Projects")
	if t.Amount != "" {
		headers = append(headers, engine.LabelForDimension(t.Amount))
	}
	cw.Write(headers)

	row := func(r engine.SummaryRow) {
		out := make([]string, 0, len(headers))
		for i := range t.GroupBy {
			if i < len(r.Keys) {
				out = append(out, r.Keys[i])
			} else {
				out = append(out, "")
			}
		}
		out = append(out, strconv.Itoa(r.Count))
		if t.Amount != "" {
			out = append(out, fmtNum(r.Amount))
		}
		cw.Write(out)
	}
	for _, r := range t.Rows {
		row(r)
	}
	if t.Total != nil {
		row(*t.Total)
	}
}

func writeTableCSV(cw *csv.Writer, table *engine.TableData) {
	cw.Write([]string{table.Title})
	headers := make([]string, 0, len(table.Columns))
	for _, c := range table.Columns {
		headers = append(headers, c.Label)
	}
	cw.Write(headers)
	for _, row := range table.Rows {
		cw.Write(row)
	}
}

// ============================================================================
// TEXT OUTPUT
// ============================================================================

func writeText(w io.Writer, res *engine.Result, glyph string) error {
	if res == nil {
		_, err := fmt.Fprintln(w, "No result.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\n", res.Title)
	fmt.Fprintf(tw, "Rows: %s of %s\n", engine.FormatInt(res.RowCount), engine.FormatInt(res.TotalRows))
	for _, f := range res.Filters {
		fmt.Fprintf(tw, "%s:\t%s\n", f.Label, strings.Join(f.Selected, ", "))
	}
	fmt.Fprintln(tw)

	for _, k := range res.KPIs {
		fmt.Fprintf(tw, "%s\t%s\n", k.Label, engine.FormatKPI(k, glyph))
	}

	for _, t := range res.Summaries {
		fmt.Fprintln(tw)
		writeTableText(tw, engine.SummaryTableData(t, glyph))
	}

	if res.Detail != nil {
		fmt.Fprintln(tw)
		writeTableText(tw, res.Detail)
	}

	if res.Reply != "" {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, res.Reply)
	}
	return tw.Flush()
}

func writeTableText(w io.Writer, table *engine.TableData) {
	fmt.Fprintln(w, table.Title)
	labels := make([]string, 0, len(table.Columns))
	for _, c := range table.Columns {
		labels = append(labels, c.Label)
	}
	fmt.Fprintln(w, strings.Join(labels, "\t"))
	for _, row := range table.Rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if table.Summary != nil {
		cells := make([]string, 0, len(table.Columns))
		for i, c := range table.Columns {
			v := table.Summary.Values[c.Key]
			if i == 0 && v == "" {
				v = table.Summary.Label
			}
			cells = append(cells, v)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
}

// ============================================================================
// HELPERS
// ============================================================================

func fmtNum(v float64) string {
	// Whole numbers → no decimals, fractional → 2 decimals
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func labelOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
