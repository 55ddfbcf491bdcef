package models

import (
	"strings"
	"time"
)

// TimeRange is one open window in station-local wall-clock time, "15:04" format.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Schedule carries a station's weekly open-hour ranges, fully-closed exception
// dates and date-specific capacity overrides. Dates use "2006-01-02" in the
// station's local zone.
type Schedule struct {
	Weekly            map[string][]TimeRange `json:"weekly"`
	ExceptionDates    []string               `json:"exception_dates"`
	CapacityOverrides map[string]int         `json:"capacity_overrides"`
}

var weekdayKeys = map[time.Weekday]string{
	time.Monday:    "mon",
	time.Tuesday:   "tue",
	time.Wednesday: "wed",
	time.Thursday:  "thu",
	time.Friday:    "fri",
	time.Saturday:  "sat",
	time.Sunday:    "sun",
}

// RangesFor returns the open windows for a weekday.
func (s Schedule) RangesFor(day time.Weekday) []TimeRange {
	return s.Weekly[weekdayKeys[day]]
}

// IsException reports whether the station is fully closed on the given local date.
func (s Schedule) IsException(date string) bool {
	for _, d := range s.ExceptionDates {
		if strings.TrimSpace(d) == date {
			return true
		}
	}
	return false
}

// EffectiveCapacity resolves the connector capacity for one local date:
// 0 on exception days, the override when one exists, else the station default.
func (s Schedule) EffectiveCapacity(date string, defaultCapacity int) int {
	if s.IsException(date) {
		return 0
	}
	if override, ok := s.CapacityOverrides[date]; ok {
		return override
	}
	return defaultCapacity
}
