package timetable

import (
	"crypto/md5"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classtable-backend/config"
)

func strPtr(s string) *string { return &s }

// newTestBuilder returns a builder with a pinned clock so that feed output
// is reproducible byte for byte.
func newTestBuilder() *Builder {
	b := NewBuilder("classtable.app")
	b.now = func() time.Time {
		return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	}
	return b
}

func wednesdayPattern() Pattern {
	return Pattern{
		CourseID:  "CS101",
		Name:      "高等数学",
		Classroom: strPtr("A101"),
		Teacher:   strPtr("张三"),
		Weekday:   3,
		Period:    1,
		Weeks:     []int{1, 2, 3},
		WeekText:  "第1-3周",
	}
}

func TestBuild_ThreeWeeksNoAdjustments(t *testing.T) {
	term := newTestTerm(t, nil)
	feed, err := newTestBuilder().Build("阿卡林", term, []Pattern{wednesdayPattern()})
	require.NoError(t, err)
	out := string(feed)

	assert.Equal(t, 3, strings.Count(out, "BEGIN:VEVENT"))
	for _, date := range []string{"20230906", "20230913", "20230920"} {
		assert.Contains(t, out, "DTSTART;TZID=Asia/Shanghai:"+date+"T080000")
		assert.Contains(t, out, "DTEND;TZID=Asia/Shanghai:"+date+"T084500")
	}
	assert.Equal(t, 3, strings.Count(out, "TRANSP:TRANSPARENT"))
	assert.Equal(t, 3, strings.Count(out, "BEGIN:VALARM"))
	assert.Equal(t, 3, strings.Count(out, "ACTION:NONE"))
	assert.Contains(t, out, "SUMMARY:高等数学@A101")
	assert.Contains(t, out, "LOCATION:A101")

	// One timezone definition regardless of event count.
	assert.Equal(t, 1, strings.Count(out, "BEGIN:VTIMEZONE"))
	assert.Contains(t, out, "TZID:Asia/Shanghai")
	assert.Contains(t, out, "TZOFFSETFROM:+0800")
	assert.Contains(t, out, "TZOFFSETTO:+0800")

	// The document must round-trip through a standard parser.
	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	assert.Len(t, cal.Events(), 3)
}

func TestBuild_CancellationSuppressesOccurrence(t *testing.T) {
	term := newTestTerm(t, []config.AdjustmentConfig{
		{Date: "2023-09-13", Cancelled: true},
	})
	feed, err := newTestBuilder().Build("阿卡林", term, []Pattern{wednesdayPattern()})
	require.NoError(t, err)
	out := string(feed)

	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "DTSTART;TZID=Asia/Shanghai:20230906T080000")
	assert.Contains(t, out, "DTSTART;TZID=Asia/Shanghai:20230920T080000")
	assert.NotContains(t, out, "20230913")
}

func TestBuild_MoveRelocatesOccurrence(t *testing.T) {
	term := newTestTerm(t, []config.AdjustmentConfig{
		{Date: "2023-09-20", To: "2023-09-23"},
	})
	feed, err := newTestBuilder().Build("阿卡林", term, []Pattern{wednesdayPattern()})
	require.NoError(t, err)
	out := string(feed)

	assert.Equal(t, 3, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "DTSTART;TZID=Asia/Shanghai:20230923T080000")
	assert.Contains(t, out, "DTEND;TZID=Asia/Shanghai:20230923T084500")
	assert.NotContains(t, out, "20230920")
}

func TestBuild_Deterministic(t *testing.T) {
	term := newTestTerm(t, nil)
	builder := newTestBuilder()
	patterns := []Pattern{wednesdayPattern()}

	first, err := builder.Build("阿卡林", term, patterns)
	require.NoError(t, err)
	second, err := builder.Build("阿卡林", term, patterns)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuild_UIDsStableAndUnique(t *testing.T) {
	term := newTestTerm(t, nil)
	other := wednesdayPattern()
	other.CourseID = "MA202"
	other.Weekday = 5
	patterns := []Pattern{wednesdayPattern(), other}

	feed, err := newTestBuilder().Build("阿卡林", term, patterns)
	require.NoError(t, err)

	cal, err := ics.ParseCalendar(strings.NewReader(string(feed)))
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, event := range cal.Events() {
		uid := event.GetProperty(ics.ComponentPropertyUniqueId).Value
		assert.False(t, seen[uid], "duplicate uid %s", uid)
		seen[uid] = true
	}
	assert.Len(t, seen, 6)

	// The identifier derivation is part of the export contract: re-imports
	// must recognize unchanged occurrences.
	want := fmt.Sprintf("%x@classtable.app", md5.Sum([]byte("CS101-1")))
	assert.True(t, seen[want], "expected uid %s in feed", want)
}

func TestBuild_EmptyPatterns(t *testing.T) {
	term := newTestTerm(t, nil)
	feed, err := newTestBuilder().Build("阿卡林", term, nil)
	require.NoError(t, err)
	out := string(feed)

	assert.Equal(t, 0, strings.Count(out, "BEGIN:VEVENT"))
	assert.Equal(t, 1, strings.Count(out, "BEGIN:VTIMEZONE"))

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	assert.Empty(t, cal.Events())
}

func TestBuild_OrderedByWeeklySlot(t *testing.T) {
	term := newTestTerm(t, nil)

	late := Pattern{CourseID: "B2", Name: "大学物理", Weekday: 1, Period: 2, Weeks: []int{1}, WeekText: "第1周"}
	early := Pattern{CourseID: "A1", Name: "线性代数", Weekday: 5, Period: 1, Weeks: []int{3, 1, 2}, WeekText: "第1-3周"}

	// Catalog order puts the period-2 course first; the feed must still
	// group by period, then weekday, then ascending weeks.
	feed, err := newTestBuilder().Build("阿卡林", term, []Pattern{late, early})
	require.NoError(t, err)

	cal, err := ics.ParseCalendar(strings.NewReader(string(feed)))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 4)

	var starts []string
	for _, event := range events {
		starts = append(starts, event.GetProperty(ics.ComponentPropertyDtStart).Value)
	}
	assert.Equal(t, []string{
		"20230908T080000", // 线性代数 week 1 (period 1)
		"20230915T080000", // 线性代数 week 2
		"20230922T080000", // 线性代数 week 3
		"20230904T085500", // 大学物理 week 1 (period 2)
	}, starts)
}

func TestBuild_OptionalFieldsAbsent(t *testing.T) {
	term := newTestTerm(t, nil)
	p := wednesdayPattern()
	p.Classroom = nil
	p.Teacher = nil

	feed, err := newTestBuilder().Build("阿卡林", term, []Pattern{p})
	require.NoError(t, err)
	out := string(feed)

	assert.Contains(t, out, "SUMMARY:高等数学")
	assert.NotContains(t, out, "@A101")
	assert.NotContains(t, out, "\r\nLOCATION:")
	assert.NotContains(t, out, "教师")
}

// unescapeText reverses RFC 5545 TEXT escaping the way a calendar client
// does when it imports the feed.
var unescapeText = strings.NewReplacer(
	`\n`, "\n",
	`\N`, "\n",
	`\;`, ";",
	`\,`, ",",
	`\\`, `\`,
)

func TestBuild_EscapesTextExactlyOnce(t *testing.T) {
	term := newTestTerm(t, nil)
	p := wednesdayPattern()
	p.Classroom = strPtr("A;101")
	p.Teacher = strPtr("张,三")
	p.WeekText = "第1周"
	p.Weeks = []int{1}

	feed, err := newTestBuilder().Build("阿卡林", term, []Pattern{p})
	require.NoError(t, err)
	out := string(feed)

	// On the wire, each special character carries a single backslash.
	assert.Contains(t, out, `SUMMARY:高等数学@A\;101`)
	assert.Contains(t, out, `LOCATION:A\;101`)
	assert.Contains(t, out, `DESCRIPTION:第1周\n教师：张\,三`)
	assert.NotContains(t, out, `\\n`)
	assert.NotContains(t, out, `\\;`)

	// A client that unescapes once gets real newlines and the raw values
	// back, not literal backslash sequences.
	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)

	description := unescapeText.Replace(events[0].GetProperty(ics.ComponentPropertyDescription).Value)
	assert.Equal(t, "第1周\n教师：张,三\n"+attribution, description)

	location := unescapeText.Replace(events[0].GetProperty(ics.ComponentPropertyLocation).Value)
	assert.Equal(t, "A;101", location)
}

func TestBuild_RejectsMalformedPattern(t *testing.T) {
	term := newTestTerm(t, nil)

	for _, p := range []Pattern{
		{CourseID: "X", Name: "x", Weekday: 8, Period: 1, Weeks: []int{1}},
		{CourseID: "X", Name: "x", Weekday: 1, Period: 0, Weeks: []int{1}},
		{CourseID: "X", Name: "x", Weekday: 1, Period: 9, Weeks: []int{1}},
	} {
		_, err := newTestBuilder().Build("阿卡林", term, []Pattern{p})
		var invalid *InvalidInputError
		assert.True(t, errors.As(err, &invalid), "expected InvalidInputError, got %v", err)
	}
}
