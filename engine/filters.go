package engine

// ============================================================================
// FILTERS — Selection-Based Filtering via RecordView
// ============================================================================
// Single-pass filter: checks ALL field constraints per record in one loop.
// Returns a SubView (index list into parent) — zero data copy, the store is
// never touched.
// ============================================================================

// ApplyFilters returns a view of records matching all selections.
// Fields are AND-combined; values within a field are OR-combined. A field
// whose selection is empty or only AllValues imposes no constraint.
// Values are compared as trimmed text. Selections on fields the view does not
// have are ignored.
func ApplyFilters(view RecordView, sel Selections) RecordView {
	sets := make(map[string]map[string]bool)
	for field := range sel {
		if !HasField(view, field) {
			continue
		}
		allowed := sel.Active(field)
		if len(allowed) > 0 {
			sets[field] = toTrimmedSet(allowed)
		}
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if matchesAll(view, i, sets) {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}

// CountMatching returns how many rows ApplyFilters would keep.
func CountMatching(view RecordView, sel Selections) int {
	return ApplyFilters(view, sel).Len()
}

func matchesAll(view RecordView, i int, sets map[string]map[string]bool) bool {
	for field, set := range sets {
		if !set[NormalizeCategory(view.Dimension(i, field))] {
			return false
		}
	}
	return true
}

// toTrimmedSet converts a string slice to a trimmed lookup set.
func toTrimmedSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[NormalizeCategory(item)] = true
	}
	return set
}
