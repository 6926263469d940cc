package timetable

import "time"

// TZID is the civil timezone every emitted timestamp belongs to. The campus
// never observes daylight saving, so a fixed offset is exact and
// year-independent.
const TZID = "Asia/Shanghai"

var cst = time.FixedZone("CST", 8*60*60)

// TimeOfDay is a wall-clock endpoint of a period.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// All courses in the catalog share these fixed daily slots.
var periodTable = [...][2]TimeOfDay{
	1: {{8, 0}, {8, 45}},
	2: {{8, 55}, {9, 40}},
	3: {{10, 0}, {10, 45}},
	4: {{10, 55}, {11, 40}},
	5: {{14, 0}, {14, 45}},
	6: {{14, 55}, {15, 40}},
}

// PeriodCount is the number of daily slots in the campus timetable.
const PeriodCount = len(periodTable) - 1

// PeriodStart returns the starting wall-clock time of a period (1-based).
func PeriodStart(period int) (TimeOfDay, error) {
	if period < 1 || period > PeriodCount {
		return TimeOfDay{}, &InvalidInputError{Field: "period", Value: period}
	}
	return periodTable[period][0], nil
}

// PeriodEnd returns the ending wall-clock time of a period (1-based).
func PeriodEnd(period int) (TimeOfDay, error) {
	if period < 1 || period > PeriodCount {
		return TimeOfDay{}, &InvalidInputError{Field: "period", Value: period}
	}
	return periodTable[period][1], nil
}

// Resolve maps an abstract (week number, weekday, wall-clock time) slot onto
// an absolute timezoned timestamp within the term, applying the term's
// adjustment table. suppressed is true when the occurrence falls on a
// cancelled date; the returned timestamp is then the zero value and must not
// be emitted. A moved occurrence keeps its time of day on the replacement
// date.
func Resolve(term *Term, week, weekday int, tod TimeOfDay) (time.Time, bool, error) {
	if week < 1 {
		return time.Time{}, false, &InvalidInputError{Field: "week", Value: week}
	}
	if weekday < 1 || weekday > 7 {
		return time.Time{}, false, &InvalidInputError{Field: "weekday", Value: weekday}
	}

	t := time.Date(term.Start.Year, term.Start.Month, term.Start.Day, tod.Hour, tod.Minute, 0, 0, cst)
	t = t.AddDate(0, 0, (week-1)*7+(weekday-1))

	adj, ok := term.Adjustment(dateOf(t))
	if !ok {
		return t, false, nil
	}
	if adj.Cancelled {
		return time.Time{}, true, nil
	}
	moved := time.Date(adj.To.Year, adj.To.Month, adj.To.Day, t.Hour(), t.Minute(), 0, 0, cst)
	return moved, false, nil
}
