package timetable

// Pattern is one row of a student's weekly timetable: a course recurring on
// a fixed (weekday, period) slot over a set of week numbers. Classroom and
// teacher are absent when the catalog assigns none; absence is modeled as a
// nil pointer, never as a sentinel string. Patterns are supplied by the
// upstream academic-records API and are read-only during a build.
type Pattern struct {
	CourseID  string
	Name      string
	Classroom *string
	Teacher   *string
	Weekday   int   // 1..7, Monday first
	Period    int   // 1..PeriodCount
	Weeks     []int // week numbers this pattern recurs on
	WeekText  string
}
