package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectAllFilteredAddsMissingIDs(t *testing.T) {
	current := []string{"s1", "s9"}
	filtered := []string{"s1", "s2", "s3"}

	result := SelectAllFiltered(current, filtered)
	assert.Equal(t, []string{"s1", "s9", "s2", "s3"}, result)
}

func TestSelectAllFilteredDeselectsFullySelectedSet(t *testing.T) {
	current := []string{"s9", "s1", "s2"}
	filtered := []string{"s1", "s2"}

	result := SelectAllFiltered(current, filtered)
	// Only the filtered ids are removed; s9 was selected under another
	// filter and must survive.
	assert.Equal(t, []string{"s9"}, result)
}

func TestSelectAllFilteredTwiceRestoresSelection(t *testing.T) {
	cases := []struct {
		name     string
		current  []string
		filtered []string
	}{
		{"partially selected", []string{"s1", "s9"}, []string{"s1", "s2", "s3"}},
		{"none selected", []string{"s9"}, []string{"s1", "s2"}},
		{"empty selection", nil, []string{"s1", "s2"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			once := SelectAllFiltered(tc.current, tc.filtered)
			twice := SelectAllFiltered(once, tc.filtered)
			assert.ElementsMatch(t, tc.current, twice)
		})
	}
}

func TestSelectAllFilteredNeverTouchesIDsOutsideFilter(t *testing.T) {
	current := []string{"out-1", "s1", "out-2"}
	filtered := []string{"s1", "s2"}

	once := SelectAllFiltered(current, filtered)
	assert.Contains(t, once, "out-1")
	assert.Contains(t, once, "out-2")

	twice := SelectAllFiltered(once, filtered)
	assert.Contains(t, twice, "out-1")
	assert.Contains(t, twice, "out-2")
}

func TestOccasionalBatchBreakdownMergesDuplicateLabels(t *testing.T) {
	batch := &OccasionalBatch{LineItems: []BatchLineItem{
		{Label: "Lab Fee", Amount: decimal.RequireFromString("250")},
		{Label: "Sports Fee", Amount: decimal.RequireFromString("400")},
	}}

	breakdown := batch.Breakdown()
	require.Len(t, breakdown, 2)
	assert.True(t, breakdown.Total().Equal(decimal.RequireFromString("650")))
}
