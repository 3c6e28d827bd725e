package domain

import (
	"strings"
	"time"
)

// ReportFileName builds "<kind>_<UTC timestamp>" with colons replaced by
// dashes and the timestamp truncated to seconds, e.g.
// "Risk_Report_2024-04-26T15-10-00". Callers append the extension.
func ReportFileName(kind string, at time.Time) string {
	if kind == "" {
		kind = DefaultReportKind
	}
	stamp := at.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05")
	return kind + "_" + strings.ReplaceAll(stamp, ":", "-")
}
