package timetable

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"classtable-backend/config"
)

// Date is a civil calendar date, timezone-free. Adjustments are keyed by
// Date because a moved or cancelled class applies to the whole day slot,
// not to a specific wall-clock time.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func dateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func parseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return dateOf(t), nil
}

// Adjustment is a date-level schedule override within one term: either the
// occurrence on the keyed date moves to To, or it is cancelled outright.
type Adjustment struct {
	Cancelled bool
	To        Date // meaningful only when !Cancelled
}

// Term is one academic term: its identifier, the calendar date anchoring
// week 1 / weekday 1, and the date-keyed adjustment table. Terms are
// immutable after catalog construction and safe for concurrent reads.
type Term struct {
	ID       string
	YearFrom int
	YearTo   int
	Index    int
	Start    Date

	adjustments map[Date]Adjustment
}

// Adjustment looks up the override for a calendar date, if any.
func (t *Term) Adjustment(d Date) (Adjustment, bool) {
	adj, ok := t.adjustments[d]
	return adj, ok
}

var termIDRe = regexp.MustCompile(`^(\d{4})-(\d{4})-([123])$`)

// ParseTermID validates and decomposes a term identifier of the form
// "YYYY-YYYY-N" with consecutive years and N in 1..3.
func ParseTermID(id string) (yearFrom, yearTo, index int, err error) {
	m := termIDRe.FindStringSubmatch(id)
	if m == nil {
		return 0, 0, 0, fmt.Errorf("malformed term id %q", id)
	}
	yearFrom, _ = strconv.Atoi(m[1])
	yearTo, _ = strconv.Atoi(m[2])
	index, _ = strconv.Atoi(m[3])
	if yearTo != yearFrom+1 {
		return 0, 0, 0, fmt.Errorf("malformed term id %q: years are not consecutive", id)
	}
	return yearFrom, yearTo, index, nil
}

// Catalog is the read-only set of terms the service can export. It is built
// once from configuration and shared across all requests.
type Catalog struct {
	terms map[string]*Term
}

// NewCatalog builds the term catalog from configuration, validating term
// identifiers, start anchors and the adjustment invariants. A single bad
// term makes the whole catalog unavailable: serving a feed with silently
// wrong adjustments is worse than failing startup.
func NewCatalog(entries []config.TermConfig) (*Catalog, error) {
	terms := make(map[string]*Term, len(entries))
	for _, entry := range entries {
		yearFrom, yearTo, index, err := ParseTermID(entry.ID)
		if err != nil {
			return nil, err
		}
		if _, dup := terms[entry.ID]; dup {
			return nil, fmt.Errorf("term %s declared twice", entry.ID)
		}

		start, err := parseDate(entry.Start)
		if err != nil {
			return nil, fmt.Errorf("term %s: bad start date %q: %w", entry.ID, entry.Start, err)
		}

		adjustments := make(map[Date]Adjustment, len(entry.Adjustments))
		for _, a := range entry.Adjustments {
			date, err := parseDate(a.Date)
			if err != nil {
				return nil, fmt.Errorf("term %s: bad adjustment date %q: %w", entry.ID, a.Date, err)
			}
			if _, dup := adjustments[date]; dup {
				return nil, &AdjustmentConflictError{TermID: entry.ID, Date: date, Reason: "more than one adjustment for this date"}
			}

			if a.Cancelled {
				if a.To != "" {
					return nil, &AdjustmentConflictError{TermID: entry.ID, Date: date, Reason: "cancellation must not carry a target date"}
				}
				adjustments[date] = Adjustment{Cancelled: true}
				continue
			}

			to, err := parseDate(a.To)
			if err != nil {
				return nil, fmt.Errorf("term %s: bad adjustment target %q: %w", entry.ID, a.To, err)
			}
			adjustments[date] = Adjustment{To: to}
		}

		// Chained adjustments (a class moved twice) are unsupported; reject
		// a move whose target date has its own adjustment entry.
		for date, adj := range adjustments {
			if adj.Cancelled {
				continue
			}
			if _, chained := adjustments[adj.To]; chained {
				return nil, &AdjustmentConflictError{TermID: entry.ID, Date: date, Reason: "move target " + adj.To.String() + " is itself adjusted"}
			}
		}

		terms[entry.ID] = &Term{
			ID:          entry.ID,
			YearFrom:    yearFrom,
			YearTo:      yearTo,
			Index:       index,
			Start:       start,
			adjustments: adjustments,
		}
	}
	return &Catalog{terms: terms}, nil
}

// Term returns the catalog entry for id, or UnknownTermError.
func (c *Catalog) Term(id string) (*Term, error) {
	term, ok := c.terms[id]
	if !ok {
		return nil, &UnknownTermError{ID: id}
	}
	return term, nil
}
