package report

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hamed0406/uptimeprober/internal/domain"
)

const (
	timeLayout = "02/01/2006, 15:04:05"
	noLatency  = "------"
	ruleWidth  = 98
)

// FormatLine renders one result the same way for every sink:
//
//	18/08/2025, 12:00:00 | https://example.com ... | UP           | 0.050s
func FormatLine(r domain.ProbeResult) string {
	latency := noLatency
	if r.Up() {
		latency = fmt.Sprintf("%.3fs", r.Latency.Seconds())
	}
	return fmt.Sprintf("%s | %-50s | %-12s | %s", r.ObservedAt.Format(timeLayout), r.URL, r.Status, latency)
}

// Header is the two-line legend written at the top of an empty log file.
func Header() string {
	return fmt.Sprintf("%-20s | %-50s | %-12s | %-15s\n", "Date", "URL", "Status", "Latency") +
		strings.Repeat("-", ruleWidth) + "\n"
}

// Order returns a copy of b sorted by ObservedAt. Ties keep their original
// (completion) order.
func Order(b domain.Batch) domain.Batch {
	out := slices.Clone(b)
	if out == nil {
		out = domain.Batch{}
	}
	slices.SortStableFunc(out, func(x, y domain.ProbeResult) int {
		return x.ObservedAt.Compare(y.ObservedAt)
	})
	return out
}
