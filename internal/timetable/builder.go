package timetable

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strconv"
	"time"

	ics "github.com/arran4/golang-ical"
)

const (
	productID   = "-//ClassTable//classtable-backend//CN"
	attribution = "由 ClassTable 课程表 (https://classtable.app) 导入"

	icalLocalLayout = "20060102T150405"
	icalUTCLayout   = "20060102T150405Z"
)

// Builder assembles a student's timetable into a serialized iCalendar feed.
// The clock is injected so that repeated builds with the same inputs and
// clock produce byte-identical output.
type Builder struct {
	UIDDomain string

	now func() time.Time
}

// NewBuilder creates a Builder whose event identifiers end in "@" + uidDomain.
func NewBuilder(uidDomain string) *Builder {
	return &Builder{UIDDomain: uidDomain, now: time.Now}
}

// Build compiles the feed for one student and term. Every (pattern, week)
// pair whose resolved occurrence is not suppressed yields exactly one event;
// a cancelled date yields none. Events are grouped by weekly slot: period
// ascending, then weekday ascending, then patterns in catalog order, then
// weeks ascending. Any resolver error aborts the build with no partial feed.
func (b *Builder) Build(studentName string, term *Term, patterns []Pattern) ([]byte, error) {
	// Reject malformed patterns before emitting anything.
	for _, p := range patterns {
		if p.Weekday < 1 || p.Weekday > 7 {
			return nil, &InvalidInputError{Field: "weekday", Value: p.Weekday}
		}
		if _, err := PeriodStart(p.Period); err != nil {
			return nil, err
		}
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	setCalendarProperty(cal, "PRODID", productID)
	setCalendarProperty(cal, "CALSCALE", "GREGORIAN")
	setCalendarProperty(cal, "X-WR-CALNAME", studentName+"的"+term.ID+"课表")
	setCalendarProperty(cal, "X-WR-TIMEZONE", TZID)
	cal.Components = append(cal.Components, vtimezone())

	now := b.now().UTC()

	for period := 1; period <= PeriodCount; period++ {
		for weekday := 1; weekday <= 7; weekday++ {
			for _, p := range patterns {
				if p.Period != period || p.Weekday != weekday {
					continue
				}
				if err := b.addOccurrences(cal, term, p, now); err != nil {
					return nil, err
				}
			}
		}
	}

	return []byte(cal.Serialize()), nil
}

func (b *Builder) addOccurrences(cal *ics.Calendar, term *Term, p Pattern, now time.Time) error {
	startTod, err := PeriodStart(p.Period)
	if err != nil {
		return err
	}
	endTod, err := PeriodEnd(p.Period)
	if err != nil {
		return err
	}

	weeks := append([]int(nil), p.Weeks...)
	sort.Ints(weeks)

	for _, week := range weeks {
		dtStart, suppressed, err := Resolve(term, week, p.Weekday, startTod)
		if err != nil {
			return err
		}
		if suppressed {
			continue
		}
		dtEnd, suppressed, err := Resolve(term, week, p.Weekday, endTod)
		if err != nil {
			return err
		}
		if suppressed {
			continue
		}

		b.addEvent(cal, p, week, dtStart, dtEnd, now)
	}
	return nil
}

func (b *Builder) addEvent(cal *ics.Calendar, p Pattern, week int, dtStart, dtEnd, now time.Time) {
	event := cal.AddEvent(b.uid(p.CourseID, week))

	// Values go in raw; the library applies RFC 5545 TEXT escaping once at
	// serialization.
	summary := p.Name
	if p.Classroom != nil {
		summary = p.Name + "@" + *p.Classroom
		event.SetLocation(*p.Classroom)
	}
	event.SetSummary(summary)

	description := p.WeekText
	if p.Teacher != nil {
		description += "\n教师：" + *p.Teacher
	}
	description += "\n" + attribution
	event.SetDescription(description)

	tzid := &ics.KeyValues{Key: "TZID", Value: []string{TZID}}
	event.SetProperty(ics.ComponentPropertyDtStart, dtStart.Format(icalLocalLayout), tzid)
	event.SetProperty(ics.ComponentPropertyDtEnd, dtEnd.Format(icalLocalLayout), tzid)
	event.SetProperty(ics.ComponentProperty("DTSTAMP"), now.Format(icalUTCLayout))
	event.SetProperty(ics.ComponentProperty("LAST-MODIFIED"), now.Format(icalUTCLayout))

	// Informational event: never blocks free/busy time.
	event.SetProperty(ics.ComponentProperty("TRANSP"), "TRANSPARENT")

	// Some clients refuse events without an alarm sub-component, so each
	// event carries one that never fires.
	alarm := &ics.VAlarm{}
	alarm.SetProperty(ics.ComponentProperty("ACTION"), "NONE")
	alarm.SetProperty(ics.ComponentProperty("TRIGGER"), "19800101T030500Z",
		&ics.KeyValues{Key: "VALUE", Value: []string{"DATE-TIME"}})
	event.Components = append(event.Components, alarm)
}

// uid derives the stable event identifier for a (course, week) pair. The
// digest of "courseID-week" keeps re-imports idempotent: unchanged
// occurrences keep their identifier across exports, and distinct pairs never
// collide.
func (b *Builder) uid(courseID string, week int) string {
	sum := md5.Sum([]byte(courseID + "-" + strconv.Itoa(week)))
	return hex.EncodeToString(sum[:]) + "@" + b.UIDDomain
}

// vtimezone builds the single VTIMEZONE block: a fixed UTC+8 standard time
// with no daylight-saving rule.
func vtimezone() *ics.VTimezone {
	standard := &ics.Standard{}
	standard.SetProperty(ics.ComponentProperty("TZNAME"), "CST")
	standard.SetProperty(ics.ComponentPropertyDtStart, "19700101T000000")
	standard.SetProperty(ics.ComponentProperty("TZOFFSETFROM"), "+0800")
	standard.SetProperty(ics.ComponentProperty("TZOFFSETTO"), "+0800")

	tz := &ics.VTimezone{}
	tz.SetProperty(ics.ComponentProperty("TZID"), TZID)
	tz.SetProperty(ics.ComponentProperty("X-LIC-LOCATION"), TZID)
	tz.Components = append(tz.Components, standard)
	return tz
}

// setCalendarProperty sets a calendar-level property, replacing any value
// NewCalendar pre-seeded under the same name.
func setCalendarProperty(cal *ics.Calendar, name, value string) {
	for i := range cal.CalendarProperties {
		if cal.CalendarProperties[i].IANAToken == name {
			cal.CalendarProperties[i].Value = value
			return
		}
	}
	cal.CalendarProperties = append(cal.CalendarProperties, ics.CalendarProperty{
		BaseProperty: ics.BaseProperty{IANAToken: name, Value: value},
	})
}
