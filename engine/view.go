package engine

import "sort"

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The record store is loaded once and never mutated. Everything downstream
// reads through this interface.
//
// Implementations:
//   SliceView  — the store itself, wraps []Record
//   SubView    — filtered subset (indices into parent, zero-copy)
//   ConcatView — virtual concatenation of two views (multi-sheet sources)
// ============================================================================

// RecordView provides indexed access to a dataset.
// Measure reports ok=false for a missing value.
type RecordView interface {
	Len() int
	Dimension(index int, key string) string
	Measure(index int, key string) (float64, bool)
	DimensionKeys() []string // available dimension keys
	MeasureKeys() []string   // available measure keys
}

// HasField reports whether key is a dimension or measure of the view.
func HasField(view RecordView, key string) bool {
	if key == "" {
		return false
	}
	for _, k := range view.DimensionKeys() {
		if k == key {
			return true
		}
	}
	for _, k := range view.MeasureKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// IsMeasure reports whether key is a measure of the view.
func IsMeasure(view RecordView, key string) bool {
	for _, k := range view.MeasureKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// ============================================================================
// SLICE VIEW — the record store
// ============================================================================

// SliceView wraps a []Record slice as a RecordView.
type SliceView struct {
	records []Record
	dimKeys []string
	mesKeys []string
}

// NewSliceView creates a RecordView from a []Record slice, inferring the
// field keys from the records.
func NewSliceView(records []Record) RecordView {
	v := &SliceView{records: records}
	v.cacheKeys()
	return v
}

// NewStore creates a RecordView with declared field keys. Declared keys stay
// visible even when every cell of the column is missing.
func NewStore(records []Record, dimKeys, mesKeys []string) RecordView {
	return &SliceView{
		records: records,
		dimKeys: append([]string(nil), dimKeys...),
		mesKeys: append([]string(nil), mesKeys...),
	}
}

func (v *SliceView) cacheKeys() {
	if len(v.records) == 0 {
		return
	}
	dimSeen := make(map[string]bool)
	mesSeen := make(map[string]bool)
	for _, r := range v.records {
		for k := range r.Dimensions {
			if !dimSeen[k] {
				dimSeen[k] = true
				v.dimKeys = append(v.dimKeys, k)
			}
		}
		for k := range r.Measures {
			if !mesSeen[k] {
				mesSeen[k] = true
				v.mesKeys = append(v.mesKeys, k)
			}
		}
	}
	sort.Strings(v.dimKeys)
	sort.Strings(v.mesKeys)
}

func (v *SliceView) Len() int { return len(v.records) }

func (v *SliceView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.records) {
		return ""
	}
	return v.records[i].Dimensions[key]
}

func (v *SliceView) Measure(i int, key string) (float64, bool) {
	if i < 0 || i >= len(v.records) {
		return 0, false
	}
	val, ok := v.records[i].Measures[key]
	return val, ok
}

func (v *SliceView) DimensionKeys() []string { return v.dimKeys }
func (v *SliceView) MeasureKeys() []string   { return v.mesKeys }

// ============================================================================
// SUB VIEW — filtered subset (zero-copy)
// ============================================================================

// SubView is a filtered subset of a parent RecordView.
// Holds indices into the parent — no data copy.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) RecordView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.indices) {
		return ""
	}
	return v.parent.Dimension(v.indices[i], key)
}

func (v *SubView) Measure(i int, key string) (float64, bool) {
	if i < 0 || i >= len(v.indices) {
		return 0, false
	}
	return v.parent.Measure(v.indices[i], key)
}

func (v *SubView) DimensionKeys() []string { return v.parent.DimensionKeys() }
func (v *SubView) MeasureKeys() []string   { return v.parent.MeasureKeys() }

// ============================================================================
// CONCAT VIEW — virtual concatenation of two views
// ============================================================================

// ConcatView logically concatenates two RecordViews. Used when a report is
// fed by several worksheets with the same layout.
type ConcatView struct {
	a, b    RecordView
	dimKeys []string
	mesKeys []string
}

// Concat concatenates views in order. Field keys are the union of all views.
func Concat(views ...RecordView) RecordView {
	switch len(views) {
	case 0:
		return NewSliceView(nil)
	case 1:
		return views[0]
	}
	out := views[0]
	for _, v := range views[1:] {
		out = &ConcatView{
			a:       out,
			b:       v,
			dimKeys: unionKeys(out.DimensionKeys(), v.DimensionKeys()),
			mesKeys: unionKeys(out.MeasureKeys(), v.MeasureKeys()),
		}
	}
	return out
}

func (v *ConcatView) Len() int { return v.a.Len() + v.b.Len() }

func (v *ConcatView) Dimension(i int, key string) string {
	if i < v.a.Len() {
		return v.a.Dimension(i, key)
	}
	return v.b.Dimension(i-v.a.Len(), key)
}

func (v *ConcatView) Measure(i int, key string) (float64, bool) {
	if i < v.a.Len() {
		return v.a.Measure(i, key)
	}
	return v.b.Measure(i-v.a.Len(), key)
}

func (v *ConcatView) DimensionKeys() []string { return v.dimKeys }
func (v *ConcatView) MeasureKeys() []string   { return v.mesKeys }

func unionKeys(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, k := range append(append([]string(nil), a...), b...) {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
