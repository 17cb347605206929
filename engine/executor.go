package engine

import (
	"fmt"

	"go.uber.org/zap"
)

// ============================================================================
// EXECUTOR — One full recomputation
// ============================================================================
// Entry point: Execute(view, dashboard, selections, opts...)
//
// Pipeline:
//   1. Validate the cascade
//   2. Resolve options for every filter
//   3. Apply filters → SubView
//   4. KPIs, summaries, charts, detail table
//   5. Return Result
//
// Pure: the view is never mutated and nothing is cached between calls.
// Selections are applied exactly as given: a value that no row carries
// filters to zero rows. Dropping stale downstream picks is Session's job.
// ============================================================================

// Execute recomputes the whole dashboard for the given selections.
// The returned Result carries the selections applied, minus All sentinels.
func Execute(view RecordView, dash Dashboard, sel Selections, opts ...Option) (*Result, error) {
	cfg := applyOptions(opts)

	cascade, err := NewCascade(dash.Filters)
	if err != nil {
		return nil, err
	}
	return execute(view, dash, cascade, sel, cfg), nil
}

func execute(view RecordView, dash Dashboard, cascade *Cascade, sel Selections, cfg *config) *Result {
	log := cfg.Logger

	applied := sel.Compact()

	// 1. Options
	filters := make([]FilterState, 0, len(dash.Filters))
	for _, f := range dash.Filters {
		selected := applied.Active(f.Field)
		if len(selected) == 0 {
			selected = []string{AllValues}
		}
		filters = append(filters, FilterState{
			Field:    f.Field,
			Label:    f.Label,
			Multi:    f.Multi,
			Options:  cascade.Options(view, f.Field, applied),
			Selected: selected,
		})
	}

	// 2. Filter
	filtered := ApplyFilters(view, applied)

	log.Debug("dashboard recomputed",
		zap.Int("rows", filtered.Len()),
		zap.Int("total", view.Len()),
		zap.Strings("filtered_on", applied.Fields()))

	result := &Result{
		Success:    true,
		Title:      dash.Title,
		RowCount:   filtered.Len(),
		TotalRows:  view.Len(),
		Selections: applied,
		Filters:    filters,
		View:       filtered,
	}

	// 3. Aggregate — an empty view yields zero KPIs and empty tables
	result.KPIs = ComputeKPIs(filtered, dash.KPIs)
	result.Summaries = BuildSummaries(filtered, dash.Summaries)
	for _, k := range dash.KPIs {
		if k.Field == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("KPI %q: no matching column", k.Name))
		}
	}

	if filtered.Len() == 0 {
		result.Reply = cfg.EmptyMessage
		return result
	}

	result.Charts = BuildCharts(filtered, dash.Charts)
	if dash.Detail != nil && !cfg.SkipDetail {
		result.Detail = BuildDetailTable(filtered, *dash.Detail, cfg.CurrencyGlyph)
	}
	result.Reply = fmt.Sprintf("%s of %s records match.", FormatInt(filtered.Len()), FormatInt(view.Len()))

	return result
}
