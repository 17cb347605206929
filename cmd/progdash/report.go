package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/progdash/engine"
	"github.com/spektr-org/progdash/helpers"
)

var (
	filterSpecs  []string
	outputFormat string
	outFile      string
	noDetail     bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute the dashboard once and print it",
	Long: `Loads the sources, applies the --filter selections and prints KPIs,
summary tables, charts and the detail table.

Filters:
  --filter FIELD=v1,v2   OR within a field; repeat --filter to AND across fields.
                         FIELD matches the filter's header, case-insensitively.
                         Write \, for a comma inside a value:
                         --filter 'MDA=Works\, Housing and Transport'

Formats:
  json      Full JSON output (default)
  pretty    Pretty-printed JSON
  text      Human-readable KPI cards and tables
  csv       KPIs and tables as CSV (ready for Sheets/Excel)`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

var optionsCmd = &cobra.Command{
	Use:   "options FIELD",
	Short: "List the options a filter offers under the given selections",
	Args:  cobra.ExactArgs(1),
	RunE:  runOptions,
}

func init() {
	for _, cmd := range []*cobra.Command{reportCmd, optionsCmd} {
		cmd.Flags().StringArrayVar(&filterSpecs, "filter", nil, "FIELD=v1,v2 selection (repeatable)")
		cmd.Flags().StringVar(&outputFormat, "format", "json", "Output format: json, pretty, text, csv")
		cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write output to file instead of stdout")
	}
	reportCmd.Flags().BoolVar(&noDetail, "no-detail", false, "Skip the row-level detail table")
}

func runReport(cmd *cobra.Command, args []string) error {
	ds, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}
	sel, err := parseFilters(filterSpecs, ds.Dashboard)
	if err != nil {
		return err
	}

	opts := helpers.EngineOptions(cfg, logger)
	if noDetail {
		opts = append(opts, engine.WithoutDetail())
	}
	res, err := engine.Execute(ds.Store, ds.Dashboard, sel, opts...)
	if err != nil {
		return errors.Wrap(err, "execution failed")
	}
	for _, e := range res.Errors {
		logger.Warn("dashboard warning", zap.String("detail", e))
	}

	return withOutput(outFile, func(w io.Writer) error {
		switch outputFormat {
		case "csv":
			return writeCSV(w, res)
		case "text":
			return writeText(w, res, cfg.DisplayGlyph())
		case "json", "pretty":
			return writeJSON(w, res, outputFormat)
		}
		return errors.Errorf("unknown format %q", outputFormat)
	})
}

func runOptions(cmd *cobra.Command, args []string) error {
	ds, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}
	sel, err := parseFilters(filterSpecs, ds.Dashboard)
	if err != nil {
		return err
	}
	field, err := resolveFilter(ds.Dashboard, args[0])
	if err != nil {
		return err
	}

	cascade, err := engine.NewCascade(ds.Dashboard.Filters)
	if err != nil {
		return err
	}
	opts := cascade.Options(ds.Store, field, sel)

	return withOutput(outFile, func(w io.Writer) error {
		if outputFormat == "json" || outputFormat == "pretty" {
			return writeJSON(w, map[string]interface{}{
				"field":      field,
				"options":    opts,
				"upstream":   cascade.Upstream(field),
				"selections": sel,
			}, outputFormat)
		}
		_, err := fmt.Fprintln(w, strings.Join(opts, "\n"))
		return err
	})
}

// ============================================================================
// FILTER PARSING
// ============================================================================

// parseFilters turns FIELD=v1,v2 specs into selections. Repeating a field
// adds to its accepted values. A backslash escapes the next character, so
// `\,` keeps a comma inside a value.
func parseFilters(specs []string, dash engine.Dashboard) (engine.Selections, error) {
	sel := engine.Selections{}
	for _, spec := range specs {
		key, raw, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, errors.Errorf("invalid filter %q: want FIELD=value[,value...]", spec)
		}
		field, err := resolveFilter(dash, key)
		if err != nil {
			return nil, err
		}
		var values []string
		for _, v := range splitValues(raw) {
			if v = engine.NormalizeCategory(v); v != "" {
				values = append(values, v)
			}
		}
		sel = sel.With(field, append(sel[field], values...)...)
	}
	return sel, nil
}

func splitValues(raw string) []string {
	var (
		out     []string
		cur     strings.Builder
		escaped bool
	)
	for _, r := range raw {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ',':
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if escaped {
		cur.WriteRune('\\')
	}
	return append(out, cur.String())
}

func resolveFilter(dash engine.Dashboard, key string) (string, error) {
	want := engine.NormalizeHeader(key)
	for _, f := range dash.Filters {
		if f.Field == want {
			return f.Field, nil
		}
	}
	return "", errors.Wrapf(engine.ErrUnknownField, "%q is not a filter", key)
}

// withOutput runs fn against --out, or stdout when unset.
func withOutput(path string, fn func(w io.Writer) error) error {
	if path == "" {
		return fn(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create output file")
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "failed to write output file")
	}
	logger.Info("output written", zap.String("path", path))
	return nil
}
