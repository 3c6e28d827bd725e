package domain

import (
	"errors"
	"sort"
)

// ErrEmptyDataset is returned when a report is requested over zero records.
// Callers show a "no data" notice instead of rendering.
var ErrEmptyDataset = errors.New("empty accident dataset")

// ZoneRiskEntry is the per-zone aggregate derived for one report.
type ZoneRiskEntry struct {
	Code       int     `json:"code"`
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"` // share of total accidents, 0-100
}

// AggregateZones counts records per zone and returns the entries sorted by
// descending count. Ties keep the order in which each zone was first seen.
// Percentages are computed against total; pass 0 to use len(records).
func AggregateZones(records []AccidentRecord, lookup Lookup, total int) ([]ZoneRiskEntry, error) {
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	if total <= 0 {
		total = len(records)
	}

	index := make(map[int]int)
	var entries []ZoneRiskEntry
	for _, r := range records {
		code := r.ZoneCode()
		i, ok := index[code]
		if !ok {
			i = len(entries)
			index[code] = i
			entries = append(entries, ZoneRiskEntry{Code: code, Name: lookup.Name(code)})
		}
		entries[i].Count++
	}

	for i := range entries {
		entries[i].Percentage = float64(entries[i].Count) / float64(total) * 100
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	return entries, nil
}
