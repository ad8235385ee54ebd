package scheduler

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day with no time component
// =============================================================================

// Date is a calendar day. Attendance is tracked per whole day only, so the
// hour/minute/second components are always zero and the location is UTC.
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

// NewDate builds a Date from year/month/day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary time to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses an ISO-8601 calendar date ("2025-01-06").
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Reason: fmt.Sprintf("invalid date %q, want YYYY-MM-DD", s)}
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }
func (d Date) IsZero() bool           { return d.t.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) Time() time.Time       { return d.t }

func (d Date) String() string { return d.t.Format(dateLayout) }

// MarshalJSON encodes the date as an ISO-8601 string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts an ISO-8601 string. Legacy files sometimes carry a
// full timestamp ("2025-01-06 00:00:00"); the time portion is discarded.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err == nil {
		*d = parsed
		return nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, lerr := time.Parse(layout, s); lerr == nil {
			*d = DateOf(t)
			return nil
		}
	}
	return err
}

// =============================================================================
// DATE RANGE - Inclusive [Start, End] span of calendar days
// =============================================================================

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start Date
	End   Date
}

// NewDateRange validates that start does not follow end.
func NewDateRange(start, end Date) (DateRange, error) {
	if start.After(end) {
		return DateRange{}, &ValidationError{
			Field:  "range",
			Reason: fmt.Sprintf("start %s is after end %s", start, end),
		}
	}
	return DateRange{Start: start, End: end}, nil
}

// SingleDay returns a one-day range.
func SingleDay(d Date) DateRange {
	return DateRange{Start: d, End: d}
}

// Contains reports whether the day falls within the range.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days enumerates every day in the range in order.
func (r DateRange) Days() []Date {
	var days []Date
	for cur := r.Start; !cur.After(r.End); cur = cur.AddDays(1) {
		days = append(days, cur)
	}
	return days
}

// Len returns the number of days in the range.
func (r DateRange) Len() int {
	return int(r.End.t.Sub(r.Start.t).Hours()/24) + 1
}

func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}
