package timetable

import "fmt"

// InvalidInputError reports a week number, weekday or period outside the
// resolver's contract. It indicates a caller bug rather than bad data, so it
// is never retried.
type InvalidInputError struct {
	Field string
	Value int
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("timetable: invalid %s %d", e.Field, e.Value)
}

// UnknownTermError reports a term identifier that is not present in the
// configured catalog.
type UnknownTermError struct {
	ID string
}

func (e *UnknownTermError) Error() string {
	return fmt.Sprintf("timetable: unknown term %q", e.ID)
}

// AdjustmentConflictError reports bad term configuration: two adjustments on
// the same date, or a move whose target date is itself adjusted. The catalog
// refuses to load rather than silently picking one.
type AdjustmentConflictError struct {
	TermID string
	Date   Date
	Reason string
}

func (e *AdjustmentConflictError) Error() string {
	return fmt.Sprintf("timetable: term %s adjustment conflict on %s: %s", e.TermID, e.Date, e.Reason)
}
