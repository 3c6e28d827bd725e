package domain

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultReportKind names the district risk report in file names.
const DefaultReportKind = "Risk_Report"

const reportTitle = "Accident Risk Report by District"

// concentratedThreshold is the top-3 share (percent) above which the
// recommendations call out concentrated risk.
const concentratedThreshold = 50.0

// SectionKind tags a report section.
type SectionKind string

const (
	SectionHeader          SectionKind = "header"
	SectionSummary         SectionKind = "summary"
	SectionTierListing     SectionKind = "tier_listing"
	SectionPageBreak       SectionKind = "page_break"
	SectionRecommendations SectionKind = "recommendations"
)

// Section is one logical unit of a report. Tier, Entries and Rows are set
// only for tier listings; a page break carries nothing but its kind.
type Section struct {
	Kind    SectionKind     `json:"kind"`
	Title   string          `json:"title,omitempty"`
	Lines   []string        `json:"lines,omitempty"`
	Tier    RiskTier        `json:"tier,omitempty"`
	Entries []ZoneRiskEntry `json:"entries,omitempty"`
	Rows    []TableRow      `json:"rows,omitempty"`
}

// TableRow is one tier listing entry formatted for the report locale.
type TableRow struct {
	Zone      string `json:"zone"`
	Accidents string `json:"accidents"`
	Share     string `json:"share"`
}

// TierSet selects which tier listings appear in a report. A nil set
// includes every tier.
type TierSet map[RiskTier]bool

// NewTierSet returns a set containing exactly the given tiers.
func NewTierSet(tiers ...RiskTier) TierSet {
	s := make(TierSet, len(tiers))
	for _, t := range tiers {
		s[t] = true
	}
	return s
}

// ParseTierSet parses a comma-separated tier list such as "high,medium".
// An empty string yields nil (all tiers).
func ParseTierSet(s string) (TierSet, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	set := TierSet{}
	for _, part := range strings.Split(s, ",") {
		t, err := ParseRiskTier(part)
		if err != nil {
			return nil, err
		}
		set[t] = true
	}
	return set, nil
}

// Includes reports whether tier listings for t are rendered.
func (s TierSet) Includes(t RiskTier) bool {
	if s == nil {
		return true
	}
	return s[t]
}

// ReportOptions are the caller-owned parameters of one report build.
type ReportOptions struct {
	Kind           string       // file-name prefix; DefaultReportKind when empty
	Lookup         *Lookup      // zone names; DistrictLookup when nil
	TotalAccidents int          // server-supplied count; len(records) when zero
	IncludeTiers   TierSet      // nil includes all tiers
	Locale         language.Tag // number and date formatting; English when undetermined
	GeneratedAt    time.Time    // stamped into the header when set
}

// Report is the output of BuildReport.
type Report struct {
	Kind           string             `json:"kind"`
	GeneratedAt    time.Time          `json:"generated_at"`
	Period         Period             `json:"period"`
	Classification RiskClassification `json:"classification"`
	Sections       []Section          `json:"sections"`
	// PeriodErr explains a zero Period, typically a *MissingTimestampError.
	PeriodErr      error              `json:"-"`
}

// FileName is the download name for the rendered report with the given extension.
func (r Report) FileName(ext string) string {
	return ReportFileName(r.Kind, r.GeneratedAt) + ext
}

// BuildSections returns the ordered report sections for records.
func BuildSections(records []AccidentRecord, opts ReportOptions) ([]Section, error) {
	r, err := BuildReport(records, opts)
	if err != nil {
		return nil, err
	}
	return r.Sections, nil
}

// BuildReport aggregates, classifies and lays out a report over records.
// It holds no state and performs no I/O; identical inputs produce identical
// reports. Sections are ordered Header, Summary, High, Medium, Low listings,
// PageBreak, Recommendations; empty or excluded listings are left out.
func BuildReport(records []AccidentRecord, opts ReportOptions) (Report, error) {
	lookup := DistrictLookup
	if opts.Lookup != nil {
		lookup = *opts.Lookup
	}
	total := opts.TotalAccidents
	if total <= 0 {
		total = len(records)
	}

	entries, err := AggregateZones(records, lookup, total)
	if err != nil {
		return Report{}, err
	}
	c, err := Classify(entries, total)
	if err != nil {
		return Report{}, err
	}

	// A missing period degrades the summary; it never fails the report.
	period, periodErr := PeriodOf(records)

	kind := opts.Kind
	if kind == "" {
		kind = DefaultReportKind
	}
	f := newFormatter(opts.Locale)

	sections := []Section{
		headerSection(f, opts.GeneratedAt),
		summarySection(f, c, period),
	}
	for _, tier := range Tiers {
		if !opts.IncludeTiers.Includes(tier) {
			continue
		}
		if s, ok := tierSection(f, tier, c.Entries(tier)); ok {
			sections = append(sections, s)
		}
	}
	sections = append(sections,
		Section{Kind: SectionPageBreak},
		recommendationSection(f, c),
	)

	return Report{
		Kind:           kind,
		GeneratedAt:    opts.GeneratedAt,
		Period:         period,
		Classification: c,
		Sections:       sections,
		PeriodErr:      periodErr,
	}, nil
}

func headerSection(f formatter, generatedAt time.Time) Section {
	s := Section{Kind: SectionHeader, Title: reportTitle}
	if !generatedAt.IsZero() {
		s.Lines = []string{"Generated: " + f.dateTime(generatedAt)}
	}
	return s
}

func summarySection(f formatter, c RiskClassification, period Period) Section {
	lines := []string{
		"Total accidents: " + f.integer(c.TotalAccidents),
		"Zones analyzed: " + f.integer(c.ZoneCount),
		"Average accidents per zone: " + f.decimal(c.AveragePerZone),
		fmt.Sprintf("Highest-risk zone: %s (%s accidents, %s)",
			c.HighestRisk.Name, f.integer(c.HighestRisk.Count), f.percent(c.HighestRisk.Percentage)),
		"Risk concentration (top 3 zones): " + f.percent(c.Concentration),
	}
	if period.Valid() {
		lines = append(lines, "Period analyzed: "+f.dateRange(period))
	}
	return Section{Kind: SectionSummary, Title: "Executive Summary", Lines: lines}
}

func tierSection(f formatter, tier RiskTier, entries []ZoneRiskEntry) (Section, bool) {
	if len(entries) == 0 {
		return Section{}, false
	}
	lines := make([]string, 0, len(entries))
	rows := make([]TableRow, 0, len(entries))
	for _, e := range entries {
		row := TableRow{Zone: e.Name, Accidents: f.integer(e.Count), Share: f.percent(e.Percentage)}
		lines = append(lines, fmt.Sprintf("%s: %s accidents (%s)", row.Zone, row.Accidents, row.Share))
		rows = append(rows, row)
	}
	return Section{
		Kind:    SectionTierListing,
		Title:   TierTitle(tier),
		Lines:   lines,
		Tier:    tier,
		Entries: append([]ZoneRiskEntry(nil), entries...),
		Rows:    rows,
	}, true
}

// TierTitle is the heading used for a tier listing, e.g. "High Risk Zones".
func TierTitle(tier RiskTier) string {
	return cases.Title(language.English).String(string(tier)) + " Risk Zones"
}

func recommendationSection(f formatter, c RiskClassification) Section {
	var lines []string
	for _, e := range c.High {
		lines = append(lines, fmt.Sprintf(
			"Increase traffic enforcement and review signage in %s, which accounts for %s of accidents.",
			e.Name, f.percent(e.Percentage)))
	}
	if c.Concentration >= concentratedThreshold {
		lines = append(lines, fmt.Sprintf(
			"Risk is concentrated: the top 3 zones hold %s of all accidents. Prioritize prevention resources there.",
			f.percent(c.Concentration)))
	} else {
		lines = append(lines, fmt.Sprintf(
			"Risk is spread out: the top 3 zones hold %s of all accidents. Favor city-wide prevention campaigns.",
			f.percent(c.Concentration)))
	}
	if n := len(c.Low); n > 0 {
		lines = append(lines, fmt.Sprintf(
			"Use the %s low-risk zone(s) as a reference for road safety practices.", f.integer(n)))
	}
	lines = append(lines, "Repeat this analysis periodically to track how risk evolves in each zone.")
	return Section{Kind: SectionRecommendations, Title: "Recommendations", Lines: lines}
}

// formatter renders numbers and dates for one locale.
type formatter struct {
	printer  *message.Printer
	dayFirst bool
}

func newFormatter(tag language.Tag) formatter {
	if tag == language.Und {
		tag = language.English
	}
	base, _ := tag.Base()
	es, _ := language.Spanish.Base()
	return formatter{
		printer:  message.NewPrinter(tag),
		dayFirst: base == es,
	}
}

func (f formatter) integer(n int) string { return f.printer.Sprintf("%d", n) }

func (f formatter) decimal(v float64) string { return f.printer.Sprintf("%.1f", v) }

func (f formatter) percent(v float64) string { return f.printer.Sprintf("%.1f", v) + "%" }

func (f formatter) date(t time.Time) string {
	if f.dayFirst {
		return t.Format("02/01/2006")
	}
	return t.Format("Jan 2, 2006")
}

func (f formatter) dateTime(t time.Time) string {
	return f.date(t.UTC()) + " " + t.UTC().Format("15:04") + " UTC"
}

func (f formatter) dateRange(p Period) string {
	return f.date(p.From) + " - " + f.date(p.To)
}
