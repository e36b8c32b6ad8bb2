package core

import "strings"

// StatusColor is the indicator shown next to a status value.
type StatusColor string

const (
	StatusRed    StatusColor = "red"
	StatusOrange StatusColor = "orange"
	StatusGreen  StatusColor = "green"
	StatusGrey   StatusColor = "grey"
)

var redStatuses = []string{"not approved", "offline", "deactivated", "not active", "not available"}

// ClassifyStatus maps a free-text status to an indicator colour.
// Negative states are checked first so "Not Approved" and "Deactivated"
// never read as approved or active.
func ClassifyStatus(value string) StatusColor {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return StatusGrey
	}
	for _, s := range redStatuses {
		if strings.Contains(v, s) {
			return StatusRed
		}
	}
	switch {
	case strings.Contains(v, "pending"):
		return StatusOrange
	case strings.Contains(v, "approved"), strings.Contains(v, "active"):
		return StatusGreen
	default:
		return StatusGrey
	}
}

// StatusFilter narrows the product catalog by approval status.
type StatusFilter string

const (
	FilterAll         StatusFilter = "all"
	FilterApproved    StatusFilter = "approved"
	FilterDeactivated StatusFilter = "deactivated"
	FilterPending     StatusFilter = "pending"
)

// StatusFilters lists the filters in display order.
var StatusFilters = []StatusFilter{FilterAll, FilterApproved, FilterDeactivated, FilterPending}

// ParseStatusFilter accepts a filter name, treating "" as all.
func ParseStatusFilter(s string) (StatusFilter, bool) {
	f := StatusFilter(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FilterAll, true
	}
	for _, known := range StatusFilters {
		if f == known {
			return f, true
		}
	}
	return FilterAll, false
}

// Label is the filter's display text.
func (f StatusFilter) Label() string {
	switch f {
	case FilterApproved:
		return "Approved"
	case FilterDeactivated:
		return "Deactivated / Offline"
	case FilterPending:
		return "Pending"
	default:
		return "All"
	}
}

// Match reports whether a status value passes the filter.
func (f StatusFilter) Match(value string) bool {
	v := strings.ToLower(value)
	switch f {
	case FilterApproved:
		return strings.Contains(v, "approved") && !strings.Contains(v, "not approved")
	case FilterDeactivated:
		return strings.Contains(v, "offline") ||
			strings.Contains(v, "deactivated") ||
			strings.Contains(v, "not approved")
	case FilterPending:
		return strings.Contains(v, "pending")
	default:
		return true
	}
}

// Page sizes offered by list views.
var PageSizes = []int{20, 50, 100}

// DefaultPageSize is used when a query names no page size.
const DefaultPageSize = 20

// normalizePageSize snaps size to one of PageSizes.
func normalizePageSize(size int) int {
	for _, s := range PageSizes {
		if size == s {
			return s
		}
	}
	return DefaultPageSize
}

// paginate slices records for a 1-based page and reports the clamped page
// and page count. An empty input has one (empty) page.
func paginate(records []Record, page, size int) ([]Record, int, int) {
	size = normalizePageSize(size)
	totalPages := (len(records) + size - 1) / size
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * size
	end := start + size
	if start > len(records) {
		start = len(records)
	}
	if end > len(records) {
		end = len(records)
	}
	return records[start:end], page, totalPages
}
