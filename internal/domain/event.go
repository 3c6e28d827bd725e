package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// ErrInvalidRequest marks a report request that can never succeed as sent.
var ErrInvalidRequest = errors.New("invalid report request")

// RawEvent represents an unprocessed message from the request topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the report-ready topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// ReportRequest asks for one district risk report to be generated.
type ReportRequest struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind,omitempty"`
	IncludeTiers []string  `json:"include_tiers,omitempty"`
	Locale       string    `json:"locale,omitempty"`
	RequestedAt  time.Time `json:"requested_at,omitzero"`
}

// Options converts the request into report options. Unset fields fall back
// to the given defaults.
func (r ReportRequest) Options(defaults ReportOptions) (ReportOptions, error) {
	opts := defaults
	if r.Kind != "" {
		opts.Kind = r.Kind
	}
	if len(r.IncludeTiers) > 0 {
		set, err := ParseTierSet(strings.Join(r.IncludeTiers, ","))
		if err != nil {
			return ReportOptions{}, fmt.Errorf("%w: request %s: %w", ErrInvalidRequest, r.ID, err)
		}
		opts.IncludeTiers = set
	}
	if r.Locale != "" {
		tag, err := language.Parse(r.Locale)
		if err != nil {
			return ReportOptions{}, fmt.Errorf("%w: request %s: locale %q: %w", ErrInvalidRequest, r.ID, r.Locale, err)
		}
		opts.Locale = tag
	}
	return opts, nil
}

// ParseReportRequest decodes a request message. Messages without an ID take
// their key as the ID.
func ParseReportRequest(raw RawEvent) (ReportRequest, error) {
	var req ReportRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return ReportRequest{}, fmt.Errorf("%w: parse report request: %w", ErrInvalidRequest, err)
	}
	if req.ID == "" {
		req.ID = string(raw.Key)
	}
	if req.ID == "" {
		return ReportRequest{}, fmt.Errorf("%w: parse report request: missing id", ErrInvalidRequest)
	}
	return req, nil
}

// ReportReady announces a generated report.
type ReportReady struct {
	ReportID        string    `json:"report_id"`
	RequestID       string    `json:"request_id,omitempty"`
	Kind            string    `json:"kind"`
	FileName        string    `json:"file_name"`
	Path            string    `json:"path"`
	TotalAccidents  int       `json:"total_accidents"`
	ZoneCount       int       `json:"zone_count"`
	HighRiskZones   int       `json:"high_risk_zones"`
	MediumRiskZones int       `json:"medium_risk_zones"`
	LowRiskZones    int       `json:"low_risk_zones"`
	HighestRiskZone string    `json:"highest_risk_zone"`
	Concentration   float64   `json:"concentration"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// SerializeReportReady encodes a ReportReady event keyed by report ID.
func SerializeReportReady(ev ReportReady) (OutputEvent, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize report ready: %w", err)
	}
	return OutputEvent{
		Key:   []byte(ev.ReportID),
		Value: data,
		Headers: map[string]string{
			"kind":         ev.Kind,
			"generated_at": ev.GeneratedAt.UTC().Format(time.RFC3339),
		},
	}, nil
}
