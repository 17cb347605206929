package schema

// Logical field phrases of the programme performance sheet.
const (
	FieldYear          = "YEAR"
	FieldMonth         = "MONTH"
	FieldLGA           = "LGA"
	FieldCOFOG         = "COFOG"
	FieldTheme         = "THEMES PILLAR"
	FieldMDA           = "MDA"
	FieldPaymentStage  = "PAYMENT STAGE"
	FieldSector        = "SECTOR"
	FieldSectorHead    = "SECTOR HEAD"
	FieldProjectTitle  = "PROJECT TITLE"
	FieldContractor    = "CONTRACTOR"
	FieldContractSum   = "TOTAL CONTRACT SUM EDITED"
	FieldAdvance       = "ADVANCE PAYMENT"
	FieldPrevious      = "PREVIOUS PAYMENT"
	FieldAmountNowDue  = "AMOUNT NOW DUE"
	FieldApprovalDate  = "DATE OF APPROVAL"
	FieldContractorJob = "CONTRACTOR JOB RATING"
)

// Default returns the programme performance dashboard.
func Default() *Config {
	return &Config{
		Name:           "Programme Performance Dashboard",
		Version:        "1.0",
		HeaderRow:      2,
		CurrencyGlyphs: []string{"₦"},
		Fields: []FieldMeta{
			{Name: FieldContractSum, Kind: KindNumeric},
			{Name: FieldAdvance, Kind: KindNumeric},
			{Name: FieldPrevious, Kind: KindNumeric},
			{Name: FieldAmountNowDue, Kind: KindNumeric},
			{Name: FieldContractorJob, Kind: KindNumeric},
			{Name: FieldApprovalDate, Kind: KindDate},
		},
		Filters: []FilterMeta{
			{Field: FieldYear, Label: "Filter by Year"},
			{Field: FieldMonth, Label: "Filter by Month"},
			{Field: FieldLGA, Label: "Filter by LGA"},
			{Field: FieldCOFOG, Label: "Filter by COFOG"},
			{Field: FieldTheme, Label: "Filter by THEMES PILLAR"},
			{Field: FieldMDA, Label: "Filter by MDA", DependsOn: []string{FieldCOFOG, FieldTheme}, Multi: true},
			{Field: FieldPaymentStage, Label: "Filter by Payment Stage", DependsOn: []string{FieldYear, FieldMonth, FieldLGA, FieldMDA}},
		},
		KPIs: []KPIMeta{
			{Name: "total_contract_sum", Label: "TOTAL CONTRACT SUM", Field: FieldContractSum, Kind: "sum"},
			{Name: "total_advance_payment", Label: "TOTAL ADVANCE PAYMENT", Field: FieldAdvance, Kind: "sum"},
			{Name: "total_previous_payment", Label: "TOTAL PREVIOUS PAYMENT", Field: FieldPrevious, Kind: "sum"},
			{Name: "total_amount_now_due", Label: "TOTAL AMOUNT NOW DUE", Field: FieldAmountNowDue, Kind: "sum"},
			{Name: "approved_certificates", Label: "TOTAL APPROVED CERTIFICATES", Field: FieldApprovalDate, Kind: "count"},
			{Name: "avg_contractor_rating", Label: "AVG CONTRACTOR JOB RATING", Field: FieldContractorJob, Kind: "mean", Suffix: "/ 5"},
		},
		Summaries: []SummaryMeta{
			{Title: "Summary Table by MDA and Year", GroupBy: []string{FieldYear, FieldMDA}},
			{Title: "COFOG – No. of Projects and Amount Now Due", GroupBy: []string{FieldCOFOG}, Amount: FieldAmountNowDue},
			{Title: "THEMES PILLAR – No. of Projects and Amount Now Due", GroupBy: []string{FieldTheme}, Amount: FieldAmountNowDue},
		},
		Charts: []ChartMeta{
			{Title: "Projects by Sector", Type: "bar", GroupBy: FieldSector},
			{Title: "Distribution by MDA", Type: "pie", GroupBy: FieldMDA},
		},
		Detail: &DetailMeta{
			Title:   "Sector Head, MDA, Project Title, Contractor, Amount Now Due",
			Columns: []string{FieldSectorHead, FieldMDA, FieldProjectTitle, FieldContractor, FieldAmountNowDue},
		},
		Server: ServerConfig{
			Addr:       ":8080",
			TimeZone:   "Africa/Lagos",
			SessionTTL: "2h",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
