package engine

// ComputeKPIs evaluates each KPI spec over view. A spec whose field is absent
// from the view reports 0; an unknown kind is treated as a sum.
func ComputeKPIs(view RecordView, specs []KPISpec) []KPI {
	out := make([]KPI, 0, len(specs))
	for _, s := range specs {
		out = append(out, KPI{
			Name:   s.Name,
			Label:  s.Label,
			Kind:   s.Kind,
			Value:  computeKPI(view, s),
			Suffix: s.Suffix,
		})
	}
	return out
}

func computeKPI(view RecordView, s KPISpec) float64 {
	if !HasField(view, s.Field) {
		return 0
	}
	switch s.Kind {
	case KPIMean:
		return MeanMeasure(view, s.Field)
	case KPICount:
		return float64(CountPresent(view, s.Field))
	default:
		return SumMeasure(view, s.Field)
	}
}

// KPIMap flattens computed KPIs to name → value.
func KPIMap(kpis []KPI) map[string]float64 {
	out := make(map[string]float64, len(kpis))
	for _, k := range kpis {
		out[k.Name] = k.Value
	}
	return out
}
