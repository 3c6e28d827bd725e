// Command genmock converts an accidents CSV export into the JSON fixture
// served by the mock accidents API and read by riskreport --input. It runs
// the real report builder over the result and prints the numbers tests
// assert against.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -csv data/siniestros.csv \
//	  -out data/mock/accidents.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/accident-risk-service/internal/domain"
)

// Fixed generation time so the printed file name is reproducible.
var generatedAt = time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC)

// stringColumns are kept as text; every other known column is numeric.
var stringColumns = map[string]bool{
	"FECHA_SINIESTRO": true,
	"created_at":      true,
}

// floatColumns carry decimal coordinates.
var floatColumns = map[string]bool{
	"COORDENADAS_LATITUD":  true,
	"COORDENADAS_LONGITUD": true,
}

// knownColumns are the JSON names of domain.AccidentRecord fields.
var knownColumns = func() map[string]bool {
	cols := map[string]bool{}
	t := reflect.TypeFor[domain.AccidentRecord]()
	for i := range t.NumField() {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		cols[name] = true
	}
	return cols
}()

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "accidents CSV export")
	out := flag.String("out", "", "output path for the JSON fixture")
	flag.Parse()

	if *csvPath == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv, -out")
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	records, err := readRecords(f)
	if err != nil {
		return fmt.Errorf("processing %s: %w", *csvPath, err)
	}
	log.Printf("read %d records", len(records))

	fixture := map[string]any{
		"status": "success",
		"count":  len(records),
		"data":   records,
	}
	if err := writeJSON(*out, fixture); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote fixture: %s", *out)

	return printStats(os.Stdout, records)
}

// readRecords decodes CSV rows into accident records. Rows are matched to
// record fields by header name; unknown columns are ignored and rows
// without an id are numbered from 1.
func readRecords(r io.Reader) ([]domain.AccidentRecord, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	header := rows[0]
	records := make([]domain.AccidentRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		fields := make(map[string]any, len(header))
		for i, col := range header {
			col = strings.TrimSpace(col)
			if i >= len(row) {
				break
			}
			if !knownColumns[col] {
				continue
			}
			v, err := convert(col, strings.TrimSpace(row[i]))
			if err != nil {
				return nil, fmt.Errorf("row %d: column %s: %w", n+2, col, err)
			}
			if v != nil {
				fields[col] = v
			}
		}

		data, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		var rec domain.AccidentRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		if rec.ID == 0 {
			rec.ID = n + 1
		}
		records = append(records, rec)
	}
	return records, nil
}

func convert(col, s string) (any, error) {
	switch {
	case s == "":
		return nil, nil
	case stringColumns[col]:
		return s, nil
	case floatColumns[col]:
		return strconv.ParseFloat(s, 64)
	default:
		// Spreadsheet exports write integers as "3.0".
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		return int(f), nil
	}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(w io.Writer, records []domain.AccidentRecord) error {
	domain.SetClock(clockwork.NewFakeClockAt(generatedAt))
	defer domain.SetClock(nil)

	rep, err := domain.BuildReport(records, domain.ReportOptions{
		Kind:        domain.DefaultReportKind,
		GeneratedAt: domain.Now(),
	})
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}
	c := rep.Classification

	fmt.Fprintln(w, "\n=== Stats for updating test assertions ===")
	fmt.Fprintf(w, "Total: %d over %d zones\n", c.TotalAccidents, c.ZoneCount)
	fmt.Fprintf(w, "Average per zone: %.1f\n", c.AveragePerZone)
	fmt.Fprintf(w, "Tiers: high=%d, medium=%d, low=%d\n", len(c.High), len(c.Medium), len(c.Low))
	fmt.Fprintf(w, "Concentration: %.1f%%\n", c.Concentration)
	fmt.Fprintf(w, "Highest risk: %s (%d)\n", c.HighestRisk.Name, c.HighestRisk.Count)
	if rep.Period.Valid() {
		fmt.Fprintf(w, "Period: %s - %s\n", rep.Period.From.Format(time.DateOnly), rep.Period.To.Format(time.DateOnly))
	}
	fmt.Fprintf(w, "File name: %s\n", rep.FileName(".pdf"))

	for _, tier := range domain.Tiers {
		for _, e := range c.Entries(tier) {
			fmt.Fprintf(w, "  %-6s %-24s %5d  %5.1f%%\n", tier, e.Name, e.Count, e.Percentage)
		}
	}
	return nil
}
