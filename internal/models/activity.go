package models

import "time"

// TimeRange represents the selected activity time range.
type TimeRange int

const (
	// TimeRange7Days shows activity from the last 7 days.
	TimeRange7Days TimeRange = iota
	// TimeRange30Days shows activity from the last 30 days.
	TimeRange30Days
	// TimeRange90Days shows activity from the last 90 days.
	TimeRange90Days
	// TimeRangeAllTime shows all recorded activity.
	TimeRangeAllTime
)

// String returns the display name for a time range.
func (t TimeRange) String() string {
	switch t {
	case TimeRange7Days:
		return "7 Days"
	case TimeRange30Days:
		return "30 Days"
	case TimeRange90Days:
		return "90 Days"
	case TimeRangeAllTime:
		return "All Time"
	default:
		return "Unknown"
	}
}

// Days returns the number of days for the time range (0 = unlimited).
func (t TimeRange) Days() int {
	switch t {
	case TimeRange7Days:
		return 7
	case TimeRange30Days:
		return 30
	case TimeRange90Days:
		return 90
	case TimeRangeAllTime:
		return 0
	default:
		return 30
	}
}

// Next cycles to the next time range.
func (t TimeRange) Next() TimeRange {
	return (t + 1) % 4
}

// DailyCount is a per-day tally used by the activity charts.
type DailyCount struct {
	Date  time.Time
	Count int
}

// ActivityStats summarizes catalog activity recorded in the local cache.
type ActivityStats struct {
	FirstSeen      time.Time
	LastSync       time.Time
	DailyAdditions []DailyCount
	DailyPurchases []DailyCount
	CatalogTrend   []DailyCount
	TotalAdded     int
	TotalPurchased int
	Revenue        float64
	TimeRange      TimeRange
}

// HasData returns true if any activity was recorded.
func (a *ActivityStats) HasData() bool {
	return len(a.DailyAdditions) > 0 || len(a.DailyPurchases) > 0 || len(a.CatalogTrend) > 0
}

// GetPeakDay returns the day with the most model additions.
func (a *ActivityStats) GetPeakDay() (day time.Time, count int) {
	for _, d := range a.DailyAdditions {
		if d.Count > count {
			day = d.Date
			count = d.Count
		}
	}
	return day, count
}

// Counts extracts the counts as chart values.
func Counts(points []DailyCount) []float64 {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = float64(p.Count)
	}
	return values
}
