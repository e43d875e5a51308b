package scan

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange marks a date range or time window whose start is after its
// end, or whose bounds fall outside the representable day.
var ErrInvalidRange = errors.New("invalid range")

// DateLayout is the wire format for calendar dates (YYYYMMDD).
const DateLayout = "20060102"

const secondsPerDay = 24 * 60 * 60

// ParseDate parses a strict YYYYMMDD date, rejecting calendar-invalid values
// such as a February 29 outside leap years.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t.UTC(), nil
}

// FormatDate renders t as YYYYMMDD.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseTimeCode parses a zero-padded HHMMSS string into a second-of-day.
func ParseTimeCode(s string) (int, error) {
	if len(s) != 6 {
		return 0, fmt.Errorf("time code %q must be exactly 6 digits", s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("time code %q must be exactly 6 digits", s)
		}
	}
	hh := int(s[0]-'0')*10 + int(s[1]-'0')
	mm := int(s[2]-'0')*10 + int(s[3]-'0')
	ss := int(s[4]-'0')*10 + int(s[5]-'0')
	if hh > 23 {
		return 0, fmt.Errorf("time code %q: hour %02d out of range", s, hh)
	}
	if mm > 59 {
		return 0, fmt.Errorf("time code %q: minute %02d out of range", s, mm)
	}
	if ss > 59 {
		return 0, fmt.Errorf("time code %q: second %02d out of range", s, ss)
	}
	return hh*3600 + mm*60 + ss, nil
}

// FormatTimeCode renders a second-of-day as zero-padded HHMMSS.
func FormatTimeCode(sec int) string {
	return fmt.Sprintf("%02d%02d%02d", sec/3600, sec/60%60, sec%60)
}

// DateRange is an inclusive span of calendar days. Both bounds are normalized
// to midnight UTC.
type DateRange struct {
	start time.Time
	end   time.Time
}

// NewDateRange validates and builds an inclusive date range.
func NewDateRange(start, end time.Time) (DateRange, error) {
	start = midnight(start)
	end = midnight(end)
	if start.After(end) {
		return DateRange{}, fmt.Errorf("date range %s..%s: %w", FormatDate(start), FormatDate(end), ErrInvalidRange)
	}
	return DateRange{start: start, end: end}, nil
}

// Start returns the first day of the range.
func (r DateRange) Start() time.Time { return r.start }

// End returns the last day of the range.
func (r DateRange) End() time.Time { return r.end }

// Days counts the calendar days in the range, endpoints included.
func (r DateRange) Days() int {
	return int(r.end.Sub(r.start).Hours()/24) + 1
}

func midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// TimeWindow is an inclusive span of seconds within a single day.
type TimeWindow struct {
	start int
	end   int
}

// NewTimeWindow validates and builds an inclusive window of seconds-of-day.
func NewTimeWindow(start, end int) (TimeWindow, error) {
	if start < 0 || end >= secondsPerDay {
		return TimeWindow{}, fmt.Errorf("time window %d..%d outside [0,%d]: %w", start, end, secondsPerDay-1, ErrInvalidRange)
	}
	if start > end {
		return TimeWindow{}, fmt.Errorf("time window %d..%d: %w", start, end, ErrInvalidRange)
	}
	return TimeWindow{start: start, end: end}, nil
}

// Start returns the first second of the window.
func (w TimeWindow) Start() int { return w.start }

// End returns the last second of the window.
func (w TimeWindow) End() int { return w.end }

// Len counts the seconds in the window, endpoints included.
func (w TimeWindow) Len() int { return w.end - w.start + 1 }

// Generator expands a base identifier, a date range, and a daily time window
// into probe targets, date ascending then second-of-day ascending. It holds no
// mutable state and is safe for concurrent use.
type Generator struct {
	base   string
	dates  DateRange
	window TimeWindow
}

// NewGenerator builds a Generator over the given grid.
func NewGenerator(base string, dates DateRange, window TimeWindow) *Generator {
	return &Generator{base: base, dates: dates, window: window}
}

// Dates lists the days of the grid in ascending order.
func (g *Generator) Dates() []time.Time {
	out := make([]time.Time, 0, g.dates.Days())
	for d := g.dates.start; !d.After(g.dates.end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// DatesFrom lists the days of the grid starting at from (inclusive). Days
// before from are omitted; a from past the end yields an empty slice.
func (g *Generator) DatesFrom(from time.Time) []time.Time {
	from = midnight(from)
	out := make([]time.Time, 0, g.dates.Days())
	for d := g.dates.start; !d.After(g.dates.end); d = d.AddDate(0, 0, 1) {
		if d.Before(from) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// TargetsFor expands one day of the grid into its ordered targets.
func (g *Generator) TargetsFor(date time.Time) []Target {
	head := g.base + "_" + FormatDate(date)
	out := make([]Target, 0, g.window.Len())
	for sec := g.window.start; sec <= g.window.end; sec++ {
		out = append(out, Target{FileHead: head, TimeCode: FormatTimeCode(sec)})
	}
	return out
}

// TargetsPerDate returns the number of targets each day expands to.
func (g *Generator) TargetsPerDate() int {
	return g.window.Len()
}

// Count returns the total number of targets the grid will produce.
func (g *Generator) Count() int {
	return g.dates.Days() * g.window.Len()
}
