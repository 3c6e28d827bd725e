package domain

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordsWithCounts builds a dataset where district i+1 has counts[i] records.
func recordsWithCounts(counts ...int) []AccidentRecord {
	var records []AccidentRecord
	id := 1
	for i, n := range counts {
		for range n {
			records = append(records, AccidentRecord{ID: id, District: i + 1, Date: "2024-03-18"})
			id++
		}
	}
	return records
}

func classifyRecords(t *testing.T, records []AccidentRecord) RiskClassification {
	t.Helper()
	entries, err := AggregateZones(records, DistrictLookup, 0)
	require.NoError(t, err)
	c, err := Classify(entries, len(records))
	require.NoError(t, err)
	return c
}

func codes(entries []ZoneRiskEntry) []int {
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Code)
	}
	return out
}

func TestClassify_EqualCountsAreMedium(t *testing.T) {
	c := classifyRecords(t, recordsWithCounts(10, 10, 10, 10))

	assert.Empty(t, c.High)
	assert.Empty(t, c.Low)
	assert.Equal(t, []int{1, 2, 3, 4}, codes(c.Medium))
	assert.InDelta(t, 10.0, c.AveragePerZone, 1e-9)
	assert.Equal(t, 75.0, c.Concentration)
}

func TestClassify_OneDominantZone(t *testing.T) {
	c := classifyRecords(t, recordsWithCounts(100, 10, 10, 10, 10))

	assert.Equal(t, []int{1}, codes(c.High))
	assert.Empty(t, c.Medium)
	assert.Equal(t, []int{2, 3, 4, 5}, codes(c.Low))
	assert.InDelta(t, 28.0, c.AveragePerZone, 1e-9)
	assert.Equal(t, 85.7, c.Concentration)
	assert.Equal(t, "Lima Centro", c.HighestRisk.Name)
	assert.Equal(t, 100, c.HighestRisk.Count)
}

func TestClassify_SingleZoneIsMedium(t *testing.T) {
	c := classifyRecords(t, recordsWithCounts(7))

	assert.Empty(t, c.High)
	assert.Empty(t, c.Low)
	require.Len(t, c.Medium, 1)
	assert.Equal(t, 100.0, c.Concentration)
}

func TestClassify_BoundariesAreMedium(t *testing.T) {
	// total 40 over 4 zones: mean 10, High needs > 15, Low needs < 5.
	c := classifyRecords(t, recordsWithCounts(15, 15, 5, 5))

	assert.Empty(t, c.High)
	assert.Empty(t, c.Low)
	assert.Len(t, c.Medium, 4)
}

func TestClassify_FewerThanThreeZones(t *testing.T) {
	c := classifyRecords(t, recordsWithCounts(3, 1))
	assert.Equal(t, 100.0, c.Concentration)
}

func TestClassify_EmptyEntries(t *testing.T) {
	_, err := Classify(nil, 10)
	require.ErrorIs(t, err, ErrEmptyDataset)
}

func TestClassify_PartitionInvariant(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 200 {
		counts := make([]int, 1+rng.IntN(12))
		for i := range counts {
			counts[i] = 1 + rng.IntN(60)
		}
		records := recordsWithCounts(counts...)
		entries, err := AggregateZones(records, DistrictLookup, 0)
		require.NoError(t, err)
		c, err := Classify(entries, len(records))
		require.NoError(t, err)

		var all []int
		for _, tier := range Tiers {
			all = append(all, codes(c.Entries(tier))...)
		}
		sort.Ints(all)
		want := codes(entries)
		sort.Ints(want)
		require.Equal(t, want, all, "tiers must partition the zone set (counts %v)", counts)
	}
}

func TestClassify_ConcentrationNonIncreasingWhenZonesSplit(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for range 200 {
		counts := make([]int, 1+rng.IntN(8))
		for i := range counts {
			counts[i] = 2 + rng.IntN(50)
		}
		before := classifyRecords(t, recordsWithCounts(counts...))

		// Split one zone in two; the total stays fixed while the zone count grows.
		i := rng.IntN(len(counts))
		part := 1 + rng.IntN(counts[i]-1)
		split := append(append([]int(nil), counts...), counts[i]-part)
		split[i] = part
		after := classifyRecords(t, recordsWithCounts(split...))

		require.Equal(t, before.TotalAccidents, after.TotalAccidents)
		require.LessOrEqual(t, after.Concentration, before.Concentration,
			"counts %v split into %v", counts, split)
	}
}

func TestParseRiskTier(t *testing.T) {
	tier, err := ParseRiskTier(" High ")
	require.NoError(t, err)
	assert.Equal(t, TierHigh, tier)

	_, err = ParseRiskTier("critical")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "critical")
}
