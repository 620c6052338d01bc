package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestIsDueToday(t *testing.T) {
	saturday := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	sunday := saturday.AddDate(0, 0, 1)
	cases := []struct {
		name string
		rec  Recurrence
		days []Weekday
		day  time.Time
		want bool
	}{
		{"daily without days", RecurrenceDaily, nil, saturday, true},
		{"daily ignores days", RecurrenceDaily, []Weekday{Monday}, sunday, true},
		{"weekly on listed day", RecurrenceWeekly, []Weekday{Saturday}, saturday, true},
		{"weekly off day", RecurrenceWeekly, []Weekday{Saturday}, sunday, false},
		{"weekly empty days", RecurrenceWeekly, []Weekday{}, saturday, false},
		{"weekly nil days", RecurrenceWeekly, nil, saturday, false},
		{"unknown recurrence", Recurrence("monthly"), []Weekday{Saturday}, saturday, false},
		{"empty recurrence", "", nil, saturday, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsDueToday(tc.rec, tc.days, tc.day); got != tc.want {
				t.Fatalf("IsDueToday(%q, %v, %s) = %v, want %v", tc.rec, tc.days, tc.day.Weekday(), got, tc.want)
			}
		})
	}
}

func TestDailyDueEveryDayOfWeek(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 14; i++ {
		if !IsDueToday(RecurrenceDaily, nil, start.AddDate(0, 0, i)) {
			t.Fatalf("daily chore not due on %s", start.AddDate(0, 0, i))
		}
	}
}

func TestWeekdayOfAndParse(t *testing.T) {
	monday := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)
	want := []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
	for i, w := range want {
		if got := WeekdayOf(monday.AddDate(0, 0, i)); got != w {
			t.Fatalf("day %d: expected %s, got %s", i, w, got)
		}
		parsed, err := ParseWeekday(string(w))
		if err != nil || parsed != w {
			t.Fatalf("parse %s: %v %v", w, parsed, err)
		}
	}
	if _, err := ParseWeekday("monday"); err == nil {
		t.Fatalf("expected error for long weekday name")
	}
}

func TestChoreAndTemplateDueOn(t *testing.T) {
	saturday := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	tpl := ChoreTemplate{Name: "Mow lawn", Recurrence: RecurrenceWeekly, Days: []Weekday{Saturday}}
	if !tpl.DueOn(saturday) {
		t.Fatalf("expected template due on saturday")
	}
	chore := tpl.NewChore(DateOf(saturday))
	if !chore.DueOn(saturday) || chore.DueOn(saturday.AddDate(0, 0, 1)) {
		t.Fatalf("chore should inherit weekly schedule")
	}
	manual := Chore{Name: "One off", DueDate: DateOf(saturday)}
	if manual.DueOn(saturday) {
		t.Fatalf("chore without recurrence should never be due")
	}
}

func TestDateJSON(t *testing.T) {
	d := Date{Year: 2024, Month: time.March, Day: 9}
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2024-03-09"` {
		t.Fatalf("unexpected encoding %s", data)
	}
	var decoded Date
	if err := json.Unmarshal([]byte(`"2024-03-09T17:45:00.000Z"`), &decoded); err != nil {
		t.Fatalf("decode timestamp: %v", err)
	}
	if decoded != d {
		t.Fatalf("expected %v, got %v", d, decoded)
	}
	if err := json.Unmarshal([]byte(`null`), &decoded); err != nil || !decoded.IsZero() {
		t.Fatalf("expected zero date from null, got %v (%v)", decoded, err)
	}
	if err := json.Unmarshal([]byte(`"not-a-date"`), &decoded); err == nil {
		t.Fatalf("expected parse error")
	}
	if (Date{}).String() != "" {
		t.Fatalf("zero date should render empty")
	}
}
