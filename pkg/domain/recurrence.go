package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Recurrence names how often a chore template repeats.
type Recurrence string

// Known recurrence rules. Any other value is never due.
const (
	RecurrenceDaily  Recurrence = "daily"
	RecurrenceWeekly Recurrence = "weekly"
)

// Known reports whether r is one of the recognised recurrence rules.
func (r Recurrence) Known() bool {
	return r == RecurrenceDaily || r == RecurrenceWeekly
}

// Weekday is a three-letter weekday abbreviation as stored on templates.
type Weekday string

// Weekday tokens.
const (
	Monday    Weekday = "Mon"
	Tuesday   Weekday = "Tue"
	Wednesday Weekday = "Wed"
	Thursday  Weekday = "Thu"
	Friday    Weekday = "Fri"
	Saturday  Weekday = "Sat"
	Sunday    Weekday = "Sun"
)

// indexed by time.Weekday (Sunday == 0)
var weekdayTokens = [7]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// WeekdayOf returns the abbreviation for t's weekday in t's location.
func WeekdayOf(t time.Time) Weekday {
	return weekdayTokens[t.Weekday()]
}

// ParseWeekday accepts a weekday token; matching is exact (Mon..Sun).
func ParseWeekday(s string) (Weekday, error) {
	for _, w := range weekdayTokens {
		if string(w) == s {
			return w, nil
		}
	}
	return "", fmt.Errorf("unknown weekday %q", s)
}

// IsDueToday reports whether a chore with the given recurrence is due on today.
// Daily chores are always due; weekly chores only on listed days; anything else never.
func IsDueToday(rec Recurrence, days []Weekday, today time.Time) bool {
	switch rec {
	case RecurrenceDaily:
		return true
	case RecurrenceWeekly:
		want := WeekdayOf(today)
		for _, d := range days {
			if d == want {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// DueOn reports whether chores produced by the template are due on t.
func (t ChoreTemplate) DueOn(day time.Time) bool {
	return IsDueToday(t.Recurrence, t.Days, day)
}

// DueOn reports whether the chore shows up on the given day. Chores without a
// recurrence (added manually) are never listed as due.
func (c Chore) DueOn(day time.Time) bool {
	return IsDueToday(c.Recurrence, c.Days, day)
}

// Date is a calendar date without a time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current local date.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses either a YYYY-MM-DD date or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(dateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`null`), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes either a date-only string or a full ISO timestamp.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
