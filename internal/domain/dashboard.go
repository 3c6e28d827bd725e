package domain

import (
	"fmt"
	"sort"
	"time"
)

// SeriesPoint is one labelled value of a chart series.
type SeriesPoint struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Dashboard holds the chart series shown next to the risk report. Chart
// drawing is left to the client.
type Dashboard struct {
	TotalAccidents int           `json:"total_accidents"`
	LatestRecord   *time.Time    `json:"latest_record,omitempty"`
	Monthly        []SeriesPoint `json:"monthly"`
	ByRoadType     []SeriesPoint `json:"by_road_type"`
	ByDistrict     []SeriesPoint `json:"by_district"`
	ByWeekday      []SeriesPoint `json:"by_weekday"`
	ByHour         []SeriesPoint `json:"by_hour"`
}

// BuildDashboard derives the dashboard series from a dataset.
func BuildDashboard(ds Dataset) Dashboard {
	d := Dashboard{
		TotalAccidents: ds.Total(),
		Monthly:        monthlySeries(ds.Records),
		ByRoadType:     countBy(ds.Records, func(r AccidentRecord) string { return RoadTypeLookup.Name(r.RoadType) }),
		ByDistrict:     countBy(ds.Records, func(r AccidentRecord) string { return DistrictLookup.Name(r.District) }),
		ByWeekday:      weekdaySeries(ds.Records),
		ByHour:         hourSeries(ds.Records),
	}

	if p, err := PeriodOf(ds.Records); err == nil {
		latest := p.To
		d.LatestRecord = &latest
	}

	// Districts read best largest-first.
	sort.SliceStable(d.ByDistrict, func(i, j int) bool {
		return d.ByDistrict[i].Value > d.ByDistrict[j].Value
	})
	return d
}

// monthlySeries counts records per calendar month in chronological order,
// labelled like "Mar 2024". Records without a parsable date are skipped.
func monthlySeries(records []AccidentRecord) []SeriesPoint {
	counts := make(map[time.Time]int)
	for _, r := range records {
		t, err := r.OccurredOn()
		if err != nil {
			continue
		}
		counts[time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)]++
	}

	months := make([]time.Time, 0, len(counts))
	for m := range counts {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	out := make([]SeriesPoint, 0, len(months))
	for _, m := range months {
		out = append(out, SeriesPoint{Label: m.Format("Jan 2006"), Value: counts[m]})
	}
	return out
}

// countBy counts records per label in first-seen order.
func countBy(records []AccidentRecord, label func(AccidentRecord) string) []SeriesPoint {
	index := make(map[string]int)
	var out []SeriesPoint
	for _, r := range records {
		l := label(r)
		i, ok := index[l]
		if !ok {
			i = len(out)
			index[l] = i
			out = append(out, SeriesPoint{Label: l})
		}
		out[i].Value++
	}
	return out
}

func weekdaySeries(records []AccidentRecord) []SeriesPoint {
	out := make([]SeriesPoint, len(weekdayNames))
	for i, name := range weekdayNames {
		out[i].Label = name
	}
	for _, r := range records {
		if r.DayOfWeek >= 0 && r.DayOfWeek < len(out) {
			out[r.DayOfWeek].Value++
		}
	}
	return out
}

func hourSeries(records []AccidentRecord) []SeriesPoint {
	out := make([]SeriesPoint, 24)
	for i := range out {
		out[i].Label = fmt.Sprintf("%d:00", i)
	}
	for _, r := range records {
		if r.Hour >= 0 && r.Hour < len(out) {
			out[r.Hour].Value++
		}
	}
	return out
}
