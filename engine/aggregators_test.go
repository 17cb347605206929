package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatesIgnoreMissing(t *testing.T) {
	store := NewStore([]Record{
		row(nil, map[string]interface{}{"AMOUNT": 100}),
		row(nil, map[string]interface{}{"AMOUNT": "bad"}),
		row(nil, map[string]interface{}{"AMOUNT": ""}),
		row(nil, map[string]interface{}{"AMOUNT": 50}),
	}, nil, []string{"AMOUNT"})

	assert.Equal(t, 150.0, SumMeasure(store, "AMOUNT"))
	assert.Equal(t, "150", SumDecimal(store, "AMOUNT").String())
	assert.Equal(t, 75.0, MeanMeasure(store, "AMOUNT"))
	assert.Equal(t, 2, CountPresent(store, "AMOUNT"))
	assert.Equal(t, 100.0, MaxMeasure(store, "AMOUNT"))
	assert.Equal(t, 50.0, MinMeasure(store, "AMOUNT"))
}

func TestAggregatesOverNothing(t *testing.T) {
	empty := NewStore(nil, []string{"MDA"}, []string{"AMOUNT"})

	assert.Equal(t, 0.0, SumMeasure(empty, "AMOUNT"))
	assert.Equal(t, 0.0, MeanMeasure(empty, "AMOUNT"))
	assert.Equal(t, 0, CountPresent(empty, "AMOUNT"))
	assert.Equal(t, 0.0, SumMeasure(programmeStore(), "NOT A COLUMN"))
	assert.Empty(t, UniqueValues(empty, "MDA"))
	assert.Nil(t, GroupAndAggregate(empty, []string{"MDA"}, "AMOUNT", AggSum, "", 0))
}

func TestSumDecimalAvoidsFloatDrift(t *testing.T) {
	records := make([]Record, 10)
	for i := range records {
		records[i] = row(nil, map[string]interface{}{"AMOUNT": 0.1})
	}
	store := NewStore(records, nil, []string{"AMOUNT"})
	assert.Equal(t, "1", SumDecimal(store, "AMOUNT").String())
	assert.Equal(t, 1.0, SumMeasure(store, "AMOUNT"))
}

func TestCountPresentOnDimension(t *testing.T) {
	assert.Equal(t, 5, CountPresent(programmeStore(), "MDA"), "empty MDA cell is not counted")
}

func TestUniqueValuesFirstSeenOrder(t *testing.T) {
	store := programmeStore()
	assert.Equal(t, []string{"Health", "Education", "Works"}, UniqueValues(store, "COFOG"))
	assert.Equal(t, []string{"MoH", "HMB", "MoE", "SUBEB"}, UniqueValues(store, "MDA"))
}

func TestGroupAndAggregate(t *testing.T) {
	store := programmeStore()

	groups := GroupAndAggregate(store, []string{"COFOG"}, "AMOUNT NOW DUE", AggSum, "value_desc", 0)
	require.Len(t, groups, 3)
	got := make([][3]interface{}, 0, len(groups))
	for _, g := range groups {
		got = append(got, [3]interface{}{g.Key, g.Count, g.Value})
	}
	want := [][3]interface{}{
		{"Education", 2, 700.0},
		{"Health", 3, 300.0},
		{"Works", 1, 50.0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}

	limited := GroupAndAggregate(store, []string{"COFOG"}, "", AggCount, "count_desc", 1)
	require.Len(t, limited, 1)
	assert.Equal(t, "Health", limited[0].Key)
	assert.Equal(t, 3.0, limited[0].Value)

	mean := GroupAndAggregate(store, []string{"YEAR"}, "AMOUNT NOW DUE", AggMean, "label_asc", 0)
	require.Len(t, mean, 2)
	assert.Equal(t, 200.0, mean[0].Value, "2023: (100+200+300)/3")
	assert.Equal(t, 225.0, mean[1].Value, "2024: (400+50)/2, bad cell excluded")

	all := GroupAndAggregate(store, nil, "AMOUNT NOW DUE", AggSum, "", 0)
	require.Len(t, all, 1)
	assert.Equal(t, TotalLabel, all[0].Label)
	assert.Equal(t, 1050.0, all[0].Value)
}

func TestGroupByMultiSkipsEmptyKeys(t *testing.T) {
	groups := GroupAndAggregate(programmeStore(), []string{"COFOG", "MDA"}, "", AggCount, "", 0)

	var keys []string
	for _, g := range groups {
		keys = append(keys, g.Key)
	}
	assert.Equal(t, []string{"Health", "Education"}, keys, "Works has only an empty MDA")
}

func TestLabelForDimension(t *testing.T) {
	tests := map[string]string{
		"AMOUNT NOW DUE":           "Amount Now Due",
		"THEMES PILLAR":            "Themes Pillar",
		"MDA":                      "MDA",
		"LGA":                      "LGA",
		"COFOG – NO. OF PROJECTS":  "COFOG – No. Of Projects",
		"ÉTAPE DE PAIEMENT":        "Étape De Paiement",
		"":                         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, LabelForDimension(in), "LabelForDimension(%q)", in)
	}
}

func TestLabelForAggregation(t *testing.T) {
	assert.Equal(t, "Amount", LabelForAggregation(AggSum))
	assert.Equal(t, "Count", LabelForAggregation(AggCount))
	assert.Equal(t, "Average", LabelForAggregation(AggMean))
	assert.Equal(t, "Value", LabelForAggregation("median"))
}
