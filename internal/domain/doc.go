// Package domain models traffic accident records and the district risk
// report built from them.
//
// # Data Source
//
// Accident records come from the accidents API
// (GET /api/siniestros/accidentes/), which answers with
//
//	{"status": "success", "count": 1234, "data": [ {...}, ... ]}
//
// Each record carries the upper-case column names of the source spreadsheet
// (FECHA_SINIESTRO, DISTRITO, TIPO_DE_VIA, ...). The server count is
// authoritative when present; otherwise the number of records is used.
//
// # Data Conventions
//
// Dates:
//
//	FECHA_SINIESTRO is an ISO-8601 date ("2024-03-18"). Full timestamps are
//	accepted and truncated to the calendar day in UTC.
//
// District codes:
//
//	0 Unspecified, 1 Lima Centro, 2 San Juan de Lurigancho, 3 Miraflores,
//	4 San Isidro, 5 Surco, 6 La Molina. Unknown codes render as "Zone <code>".
//
// Day of week:
//
//	DIA_DE_LA_SEMANA is 0-based from Sunday. Values outside 0-6 are ignored by
//	the dashboard series, as are hours outside 0-23.
//
// # Risk Tiers
//
// Zones are bucketed against the mean accidents per zone:
//
//	High:   count > 1.5 × mean
//	Low:    count < 0.5 × mean
//	Medium: everything else (including every zone when all counts are equal)
//
// This is a fixed threshold policy over counts, not a statistical model.
// Concentration is the share of all accidents held by the three busiest
// zones, rounded to one decimal.
//
// Model predictions use a separate scale set by the prediction API:
// probability > 0.7 High, > 0.3 Medium, else Low.
//
// # Report Layout
//
// [BuildReport] emits sections in a fixed order: Header, Summary, tier
// listings (High, Medium, Low), PageBreak, Recommendations. Listings with no
// zones, or excluded through [ReportOptions].IncludeTiers, are left out.
// Pixel layout and overflow pagination belong to the renderer.
package domain
