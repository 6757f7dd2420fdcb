// Package dashboard computes role-appropriate aggregate statistics over the
// issue set visible to the caller.
package dashboard

import (
	"math"

	"github.com/civiceye/civiceye/internal/issues"
)

// View selects which statistics a dashboard carries.
type View int

const (
	// CitizenView covers only the caller's own reports.
	CitizenView View = iota
	// GovernmentView covers the global set and adds urgency and fixed-key
	// breakdowns.
	GovernmentView
)

// Stats is derived on every request and never persisted.
type Stats struct {
	Total             int            `json:"total_issues"`
	Resolved          int            `json:"resolved"`
	InProgress        int            `json:"in_progress"`
	Pending           int            `json:"pending"`
	Urgent            int            `json:"urgent,omitempty"`
	ResolutionRate    float64        `json:"resolution_rate"`
	CategoryBreakdown map[string]int `json:"category_breakdown"`
	StatusBreakdown   map[string]int `json:"status_breakdown,omitempty"`
	PriorityBreakdown map[string]int `json:"priority_breakdown,omitempty"`
}

// categorySentinel buckets issues whose category is empty or unset.
const categorySentinel = "others"

// Aggregate reduces an issue sequence to dashboard statistics in one pass.
// It performs no I/O and is deterministic: stored status and priority values
// are case- and whitespace-normalized before counting, so "Resolved" and
// "resolved" land in the same bucket. Values that normalize to no known enum
// member still count toward Total and the category breakdown but are left
// out of the fixed-key breakdowns.
func Aggregate(items []issues.Issue, view View) Stats {
	stats := Stats{
		Total:             len(items),
		CategoryBreakdown: map[string]int{},
	}
	if view == GovernmentView {
		stats.StatusBreakdown = map[string]int{
			string(issues.StatusReported):   0,
			string(issues.StatusInProgress): 0,
			string(issues.StatusResolved):   0,
			string(issues.StatusVerified):   0,
		}
		stats.PriorityBreakdown = map[string]int{
			string(issues.PriorityLow):    0,
			string(issues.PriorityMedium): 0,
			string(issues.PriorityHigh):   0,
		}
	}

	for _, it := range items {
		status, statusKnown := issues.ParseStatus(string(it.Status))
		if statusKnown {
			switch status {
			case issues.StatusResolved:
				stats.Resolved++
			case issues.StatusInProgress:
				stats.InProgress++
			case issues.StatusReported:
				stats.Pending++
			}
		}

		category := issues.NormalizeCategory(it.Category)
		if category == "" {
			category = categorySentinel
		}
		stats.CategoryBreakdown[category]++

		if view != GovernmentView {
			continue
		}
		if statusKnown {
			stats.StatusBreakdown[string(status)]++
		}
		if priority, ok := issues.ParsePriority(string(it.Priority)); ok {
			stats.PriorityBreakdown[string(priority)]++
			if priority == issues.PriorityHigh {
				stats.Urgent++
			}
		}
	}

	if stats.Total > 0 {
		rate := float64(stats.Resolved) / float64(stats.Total) * 100
		stats.ResolutionRate = math.Round(rate*100) / 100
	}
	return stats
}
