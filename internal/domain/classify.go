package domain

import (
	"fmt"
	"math"
	"strings"
)

// RiskTier is one of the three report tiers.
type RiskTier string

const (
	TierHigh   RiskTier = "high"
	TierMedium RiskTier = "medium"
	TierLow    RiskTier = "low"
)

// Tiers lists every tier in report order.
var Tiers = []RiskTier{TierHigh, TierMedium, TierLow}

// Tier thresholds, as multiples of the mean accidents per zone. This is a
// fixed bucketing policy over counts, not a statistical model.
const (
	highRiskFactor = 1.5
	lowRiskFactor  = 0.5
)

const topZonesForConcentration = 3

// ParseRiskTier accepts "high", "medium" or "low" in any case.
func ParseRiskTier(s string) (RiskTier, error) {
	switch t := RiskTier(strings.ToLower(strings.TrimSpace(s))); t {
	case TierHigh, TierMedium, TierLow:
		return t, nil
	default:
		return "", fmt.Errorf("unknown risk tier %q", s)
	}
}

// RiskClassification partitions every zone entry into exactly one tier.
type RiskClassification struct {
	High   []ZoneRiskEntry `json:"high"`
	Medium []ZoneRiskEntry `json:"medium"`
	Low    []ZoneRiskEntry `json:"low"`

	TotalAccidents int           `json:"total_accidents"`
	ZoneCount      int           `json:"zone_count"`
	AveragePerZone float64       `json:"average_per_zone"`
	HighestRisk    ZoneRiskEntry `json:"highest_risk"`
	Concentration  float64       `json:"concentration"` // top-3 share in percent, one decimal
}

// Entries returns the entries of the given tier.
func (c RiskClassification) Entries(tier RiskTier) []ZoneRiskEntry {
	switch tier {
	case TierHigh:
		return c.High
	case TierMedium:
		return c.Medium
	case TierLow:
		return c.Low
	default:
		return nil
	}
}

// Classify buckets entries (sorted by descending count, as returned by
// AggregateZones) against the mean accident count per zone:
// High when count > 1.5×mean, Low when count < 0.5×mean, Medium otherwise.
func Classify(entries []ZoneRiskEntry, totalAccidents int) (RiskClassification, error) {
	if len(entries) == 0 || totalAccidents <= 0 {
		return RiskClassification{}, ErrEmptyDataset
	}

	mean := float64(totalAccidents) / float64(len(entries))
	c := RiskClassification{
		TotalAccidents: totalAccidents,
		ZoneCount:      len(entries),
		AveragePerZone: mean,
		HighestRisk:    entries[0],
		Concentration:  concentration(entries, totalAccidents),
	}

	for _, e := range entries {
		switch tierFor(float64(e.Count), mean) {
		case TierHigh:
			c.High = append(c.High, e)
		case TierLow:
			c.Low = append(c.Low, e)
		default:
			c.Medium = append(c.Medium, e)
		}
	}
	return c, nil
}

func tierFor(count, mean float64) RiskTier {
	switch {
	case count > highRiskFactor*mean:
		return TierHigh
	case count < lowRiskFactor*mean:
		return TierLow
	default:
		return TierMedium
	}
}

// concentration is the share of total accidents held by the top three zones.
func concentration(entries []ZoneRiskEntry, total int) float64 {
	n := min(topZonesForConcentration, len(entries))
	sum := 0
	for _, e := range entries[:n] {
		sum += e.Count
	}
	return roundTo1(float64(sum) / float64(total) * 100)
}

func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}
