package render

import (
	"bytes"
	"testing"
	"time"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/couchcryptid/accident-risk-service/internal/domain"
)

var generatedAt = time.Date(2024, 6, 1, 14, 30, 5, 0, time.UTC)

func recordsWithCounts(counts ...int) []domain.AccidentRecord {
	var records []domain.AccidentRecord
	for i, n := range counts {
		for range n {
			records = append(records, domain.AccidentRecord{ID: len(records) + 1, District: i + 1, Date: "2024-03-18"})
		}
	}
	return records
}

func buildReport(t *testing.T, counts ...int) domain.Report {
	t.Helper()
	rep, err := domain.BuildReport(recordsWithCounts(counts...), domain.ReportOptions{GeneratedAt: generatedAt})
	require.NoError(t, err)
	return rep
}

func renderPDF(t *testing.T, rep domain.Report) []byte {
	t.Helper()
	r := NewPDFRenderer("Road Safety Observatory")
	r.noCompress = true

	raw, err := r.RenderBytes(rep)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(raw, []byte("%PDF-")))

	require.NoError(t, pdfapi.Validate(bytes.NewReader(raw), nil), "pdfcpu validation")
	return raw
}

func pageCount(t *testing.T, raw []byte) int {
	t.Helper()
	n, err := pdfapi.PageCount(bytes.NewReader(raw), nil)
	require.NoError(t, err)
	return n
}

func TestPDF_PageBreakBeforeRecommendations(t *testing.T) {
	raw := renderPDF(t, buildReport(t, 100, 30, 10, 10, 10))

	assert.Equal(t, 2, pageCount(t, raw))
	assert.Contains(t, string(raw), "Page 1 of 2")
	assert.Contains(t, string(raw), "Page 2 of 2")
}

func TestPDF_ContainsSectionText(t *testing.T) {
	raw := string(renderPDF(t, buildReport(t, 100, 10, 10, 10, 10)))

	assert.Contains(t, raw, "Accident Risk Report by District")
	assert.Contains(t, raw, "Executive Summary")
	assert.Contains(t, raw, "High Risk Zones")
	assert.Contains(t, raw, "Low Risk Zones")
	assert.NotContains(t, raw, "Medium Risk Zones")
	assert.Contains(t, raw, "Lima Centro")
	assert.Contains(t, raw, "Recommendations")
	assert.Contains(t, raw, "Road Safety Observatory")
}

func TestPDF_TableCellsFollowLocale(t *testing.T) {
	rep, err := domain.BuildReport(recordsWithCounts(100, 10, 10, 10, 10), domain.ReportOptions{
		GeneratedAt: generatedAt,
		Locale:      language.Spanish,
	})
	require.NoError(t, err)

	raw := string(renderPDF(t, rep))
	assert.Contains(t, raw, "71,4%")
	assert.NotContains(t, raw, "71.4%")
}

func TestPDF_TableOverflowAddsPages(t *testing.T) {
	counts := make([]int, 120)
	for i := range counts {
		counts[i] = 5
	}
	raw := renderPDF(t, buildReport(t, counts...))

	// 120 medium rows do not fit on the first page.
	assert.Greater(t, pageCount(t, raw), 3)
}

func TestPDF_NonASCIINames(t *testing.T) {
	lookup := domain.NewLookup(map[int]string{1: "Jirón Ucayali"}, "Zone")
	rep, err := domain.BuildReport(recordsWithCounts(4), domain.ReportOptions{Lookup: &lookup})
	require.NoError(t, err)

	raw := renderPDF(t, rep)
	// cp1252 encodes ó as 0xF3.
	assert.Contains(t, string(raw), "Jir\xf3n Ucayali")
}

func TestPDF_UnknownSectionKind(t *testing.T) {
	rep := domain.Report{Sections: []domain.Section{{Kind: "chart"}}}

	_, err := NewPDFRenderer("").RenderBytes(rep)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chart")
}
