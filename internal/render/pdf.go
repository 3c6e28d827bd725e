// Package render lays out report sections as a paginated PDF document.
package render

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	gofpdf "github.com/go-pdf/fpdf"

	"github.com/couchcryptid/accident-risk-service/internal/domain"
)

const (
	fontFamily   = "Helvetica"
	marginMM     = 15.0
	bottomMM     = 20.0
	lineHeightMM = 6.0
	rowHeightMM  = 7.0
)

var tierColors = map[domain.RiskTier][3]int{
	domain.TierHigh:   {220, 38, 38},
	domain.TierMedium: {217, 119, 6},
	domain.TierLow:    {22, 163, 74},
}

// PDFRenderer renders domain reports to PDF. The zero value is not usable;
// call NewPDFRenderer.
type PDFRenderer struct {
	footer     string
	noCompress bool // tests disable stream compression to search the raw bytes
}

// NewPDFRenderer returns a renderer that stamps footer (plus page numbers)
// on every page.
func NewPDFRenderer(footer string) *PDFRenderer {
	return &PDFRenderer{footer: footer}
}

// Render writes rep as a PDF to w.
func (r *PDFRenderer) Render(w io.Writer, rep domain.Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(true, bottomMM)
	pdf.SetCompression(!r.noCompress)
	pdf.AliasNbPages("")

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(rep.Kind), false)
	pdf.SetCreator("accident-risk-service", false)
	if !rep.GeneratedAt.IsZero() {
		pdf.SetCreationDate(rep.GeneratedAt)
		pdf.SetModificationDate(rep.GeneratedAt)
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-bottomMM + 5)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(120, 120, 120)
		text := "Page " + strconv.Itoa(pdf.PageNo()) + " of {nb}"
		if r.footer != "" {
			text = tr(r.footer) + "  |  " + text
		}
		pdf.CellFormat(0, 5, text, "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	for _, s := range rep.Sections {
		switch s.Kind {
		case domain.SectionHeader:
			addHeader(pdf, tr, s)
		case domain.SectionSummary:
			addParagraphs(pdf, tr, s, false)
		case domain.SectionTierListing:
			addTierTable(pdf, tr, s)
		case domain.SectionPageBreak:
			pdf.AddPage()
		case domain.SectionRecommendations:
			addParagraphs(pdf, tr, s, true)
		default:
			return fmt.Errorf("render: unknown section kind %q", s.Kind)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// RenderBytes renders rep into memory.
func (r *PDFRenderer) RenderBytes(rep domain.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, rep); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addHeader(pdf *gofpdf.Fpdf, tr func(string) string, s domain.Section) {
	pdf.SetFont(fontFamily, "B", 18)
	pdf.SetTextColor(30, 41, 59)
	pdf.MultiCell(0, 9, tr(s.Title), "", "C", false)

	pdf.SetFont(fontFamily, "", 10)
	pdf.SetTextColor(100, 100, 100)
	for _, line := range s.Lines {
		pdf.CellFormat(0, lineHeightMM, tr(line), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)
}

func addSectionTitle(pdf *gofpdf.Fpdf, tr func(string) string, title string, rgb [3]int) {
	pdf.SetFont(fontFamily, "B", 14)
	pdf.SetTextColor(rgb[0], rgb[1], rgb[2])
	pdf.CellFormat(0, 10, tr(title), "B", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func addParagraphs(pdf *gofpdf.Fpdf, tr func(string) string, s domain.Section, numbered bool) {
	addSectionTitle(pdf, tr, s.Title, [3]int{30, 41, 59})

	pdf.SetFont(fontFamily, "", 11)
	pdf.SetTextColor(40, 40, 40)
	for i, line := range s.Lines {
		if numbered {
			line = strconv.Itoa(i+1) + ". " + line
		}
		pdf.MultiCell(0, lineHeightMM, tr(line), "", "L", false)
		pdf.Ln(1)
	}
	pdf.Ln(4)
}

// addTierTable draws one tier listing as a zone table. The column header is
// repeated when the table overflows onto a new page.
func addTierTable(pdf *gofpdf.Fpdf, tr func(string) string, s domain.Section) {
	rgb, ok := tierColors[s.Tier]
	if !ok {
		rgb = [3]int{60, 60, 60}
	}
	addSectionTitle(pdf, tr, s.Title, rgb)

	pageW, pageH := pdf.GetPageSize()
	usable := pageW - 2*marginMM
	cols := []float64{usable * 0.6, usable * 0.2, usable * 0.2}

	tableHeader := func() {
		pdf.SetFont(fontFamily, "B", 10)
		pdf.SetFillColor(30, 41, 59)
		pdf.SetTextColor(255, 255, 255)
		pdf.CellFormat(cols[0], rowHeightMM, "Zone", "1", 0, "L", true, 0, "")
		pdf.CellFormat(cols[1], rowHeightMM, "Accidents", "1", 0, "R", true, 0, "")
		pdf.CellFormat(cols[2], rowHeightMM, "Share", "1", 1, "R", true, 0, "")
	}
	tableHeader()

	pdf.SetFont(fontFamily, "", 10)
	pdf.SetTextColor(40, 40, 40)
	for _, row := range s.Rows {
		if pdf.GetY()+rowHeightMM > pageH-bottomMM {
			pdf.AddPage()
			tableHeader()
			pdf.SetFont(fontFamily, "", 10)
			pdf.SetTextColor(40, 40, 40)
		}
		pdf.CellFormat(cols[0], rowHeightMM, tr(row.Zone), "1", 0, "L", false, 0, "")
		pdf.CellFormat(cols[1], rowHeightMM, row.Accidents, "1", 0, "R", false, 0, "")
		pdf.CellFormat(cols[2], rowHeightMM, row.Share, "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)
}
