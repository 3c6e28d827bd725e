package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// AccidentRecord is one observed incident as served by the accidents API.
// Field names follow the API's column names, including its mixed-case
// "senalizacion" and "Feriado" keys.
type AccidentRecord struct {
	ID              int     `json:"id"`
	Date            string  `json:"FECHA_SINIESTRO"` // ISO-8601 date, e.g. "2024-03-18"
	Hour            int     `json:"HORA_SINIESTRO"`
	Class           int     `json:"CLASE_SINIESTRO"`
	VehiclesDamaged int     `json:"CANTIDAD_DE_VEHICULOS_DANADOS"`
	District        int     `json:"DISTRITO"`
	Zone            int     `json:"ZONA"`
	RoadType        int     `json:"TIPO_DE_VIA"`
	RoadNetwork     int     `json:"RED_VIAL"`
	BikeLane        int     `json:"EXISTE_CICLOVIA"`
	Lat             float64 `json:"COORDENADAS_LATITUD"`
	Lon             float64 `json:"COORDENADAS_LONGITUD"`
	Weather         int     `json:"CONDICION_CLIMATICA"`
	Zoning          int     `json:"ZONIFICACION"`
	RoadFeatures    int     `json:"CARACTERISTICAS_DE_VIA"`
	GradeProfile    int     `json:"PERFIL_LONGITUDINAL_VIA"`
	Surface         int     `json:"SUPERFICIE_DE_CALZADA"`
	Signage         int     `json:"senalizacion"`
	DayOfWeek       int     `json:"DIA_DE_LA_SEMANA"` // 0 = Sunday
	Month           int     `json:"MES"`
	DayPeriod       int     `json:"PERIODO_DEL_DIA"`
	Holiday         int     `json:"Feriado"`
	Accident        int     `json:"ACCIDENTE"`
	CreatedAt       string  `json:"created_at,omitempty"`
}

// ZoneCode is the district code used to group records geographically.
func (r AccidentRecord) ZoneCode() int {
	return r.District
}

// dateLayouts are tried in order; the API serves plain dates but older
// exports carry full timestamps.
var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateTime,
}

// OccurredOn parses the record's date into a UTC calendar date.
func (r AccidentRecord) OccurredOn() (time.Time, error) {
	s := strings.TrimSpace(r.Date)
	if s == "" {
		return time.Time{}, fmt.Errorf("record %d: empty date", r.ID)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("record %d: unparsable date %q", r.ID, r.Date)
}

// Dataset is a snapshot of accident records plus the server's own count.
// Count is zero when the server did not report one.
type Dataset struct {
	Records []AccidentRecord
	Count   int
}

// Total returns the authoritative accident count: the server-supplied count
// when present, otherwise the number of records.
func (d Dataset) Total() int {
	if d.Count > 0 {
		return d.Count
	}
	return len(d.Records)
}

// AccidentSource loads the current accident dataset.
type AccidentSource interface {
	FetchAccidents(ctx context.Context) (Dataset, error)
}
