package engine

// row builds a record from alternating dimension key/value pairs plus
// measures. A measure passed as nil is left missing.
func row(dims []string, measures map[string]interface{}) Record {
	r := NewRecord()
	for i := 0; i+1 < len(dims); i += 2 {
		r.Dimensions[dims[i]] = dims[i+1]
	}
	for k, v := range measures {
		switch x := v.(type) {
		case float64:
			r.Measures[k] = x
		case int:
			r.Measures[k] = float64(x)
		case string:
			if f, ok := ParseNumeric(x); ok {
				r.Measures[k] = f
			}
		}
	}
	return r
}

// exampleStore is the four-row store: YEAR 2023/2023/2024/2024, MDA A/B/A/B,
// AMOUNT 100, 200, 300, "₦400".
func exampleStore() RecordView {
	return NewStore([]Record{
		row([]string{"YEAR", "2023", "MDA", "A"}, map[string]interface{}{"AMOUNT": 100}),
		row([]string{"YEAR", "2023", "MDA", "B"}, map[string]interface{}{"AMOUNT": 200}),
		row([]string{"YEAR", "2024", "MDA", "A"}, map[string]interface{}{"AMOUNT": 300}),
		row([]string{"YEAR", "2024", "MDA", "B"}, map[string]interface{}{"AMOUNT": "₦400"}),
	}, []string{"YEAR", "MDA"}, []string{"AMOUNT"})
}

// programmeStore carries a three-level cascade: COFOG → MDA → PAYMENT STAGE.
func programmeStore() RecordView {
	rows := []struct {
		year, cofog, theme, mda, stage string
		due                            interface{}
	}{
		{"2023", "Health", "Social", "MoH", "Advance", 100},
		{"2023", "Health", "Social", "HMB", "Final", 200},
		{"2023", "Education", "Human Capital", "MoE", "Advance", 300},
		{"2024", "Education", "Human Capital", "SUBEB", "Interim", 400},
		{"2024", "Health", "Human Capital", "MoH", "Interim", "bad"},
		{"2024", "Works", "Infrastructure", "", "Final", 50},
	}
	records := make([]Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, row(
			[]string{"YEAR", r.year, "COFOG", r.cofog, "THEMES PILLAR", r.theme, "MDA", r.mda, "PAYMENT STAGE", r.stage},
			map[string]interface{}{"AMOUNT NOW DUE": r.due},
		))
	}
	return NewStore(records,
		[]string{"YEAR", "COFOG", "THEMES PILLAR", "MDA", "PAYMENT STAGE"},
		[]string{"AMOUNT NOW DUE"})
}

func programmeFilters() []FilterSpec {
	return []FilterSpec{
		{Field: "YEAR", Label: "Filter by Year"},
		{Field: "COFOG", Label: "Filter by COFOG"},
		{Field: "THEMES PILLAR", Label: "Filter by THEMES PILLAR"},
		{Field: "MDA", Label: "Filter by MDA", DependsOn: []string{"COFOG", "THEMES PILLAR"}, Multi: true},
		{Field: "PAYMENT STAGE", Label: "Filter by Payment Stage", DependsOn: []string{"YEAR", "MDA"}},
	}
}

func programmeDashboard() Dashboard {
	return Dashboard{
		Title:   "Programme Performance",
		Filters: programmeFilters(),
		KPIs: []KPISpec{
			{Name: "total_amount_now_due", Label: "TOTAL AMOUNT NOW DUE", Field: "AMOUNT NOW DUE", Kind: KPISum},
			{Name: "avg_amount_now_due", Label: "AVG AMOUNT NOW DUE", Field: "AMOUNT NOW DUE", Kind: KPIMean},
			{Name: "valued_rows", Label: "VALUED ROWS", Field: "AMOUNT NOW DUE", Kind: KPICount},
		},
		Summaries: []SummarySpec{
			{Title: "By COFOG", GroupBy: []string{"COFOG"}, Amount: "AMOUNT NOW DUE"},
			{Title: "By Year and MDA", GroupBy: []string{"YEAR", "MDA"}},
		},
		Charts: []ChartSpec{
			{Title: "Projects by COFOG", Type: "bar", GroupBy: "COFOG"},
			{Title: "Distribution by MDA", Type: "pie", GroupBy: "MDA"},
		},
		Detail: &DetailSpec{Title: "Projects", Columns: []string{"MDA", "AMOUNT NOW DUE"}},
	}
}
