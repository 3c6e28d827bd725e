package domain

import "fmt"

// Lookup resolves numeric codes to display names. Coverage is partial;
// unknown codes fall back to "<fallback> <code>".
type Lookup struct {
	names    map[int]string
	fallback string
}

// NewLookup builds a Lookup from a code→name table. The table is copied.
func NewLookup(names map[int]string, fallback string) Lookup {
	m := make(map[int]string, len(names))
	for k, v := range names {
		m[k] = v
	}
	return Lookup{names: m, fallback: fallback}
}

// Name returns the display name for code.
func (l Lookup) Name(code int) string {
	if name, ok := l.names[code]; ok {
		return name
	}
	return fmt.Sprintf("%s %d", l.fallback, code)
}

// DistrictLookup maps district codes served by the accidents API.
var DistrictLookup = NewLookup(map[int]string{
	0: "Unspecified",
	1: "Lima Centro",
	2: "San Juan de Lurigancho",
	3: "Miraflores",
	4: "San Isidro",
	5: "Surco",
	6: "La Molina",
}, "Zone")

// RoadTypeLookup maps TIPO_DE_VIA codes.
var RoadTypeLookup = NewLookup(map[int]string{
	0: "Unspecified",
	1: "Expressway",
	2: "Avenue",
	3: "Street",
	4: "Jirón",
	5: "Highway",
}, "Type")

// weekdayNames is indexed by DIA_DE_LA_SEMANA (0 = Sunday).
var weekdayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
