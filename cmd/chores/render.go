package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"familychores/pkg/domain"
)

func status(c domain.Chore) string {
	if c.Completed {
		return "done"
	}
	return "open"
}

func renderMembers(w io.Writer, members []domain.FamilyMember) {
	if len(members) == 0 {
		fmt.Fprintln(w, "no family members")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, m := range members {
		fmt.Fprintf(tw, "[%s] %s\t%s\t%s\t\n", m.Initial, m.Name, m.ID, m.Color)
		for _, c := range m.Chores {
			fmt.Fprintf(tw, "  - %s\t%s\t%s\tdue %s\n", c.Name, c.ID, status(c), c.DueDate)
		}
	}
	_ = tw.Flush()
}

func renderTemplates(w io.Writer, templates []domain.ChoreTemplate) {
	if len(templates) == 0 {
		fmt.Fprintln(w, "no chore templates")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tRECURRENCE\tDAYS")
	for _, t := range templates {
		days := make([]string, len(t.Days))
		for i, d := range t.Days {
			days[i] = string(d)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Recurrence, strings.Join(days, ","))
	}
	_ = tw.Flush()
}

func renderToday(w io.Writer, today domain.Date, members []domain.FamilyMember, due map[string][]domain.Chore) {
	fmt.Fprintf(w, "Due %s (%s)\n", today, domain.WeekdayOf(today.Time()))
	if len(due) == 0 {
		fmt.Fprintln(w, "nothing due")
		return
	}
	for _, m := range members {
		chores := due[m.ID]
		if len(chores) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s:\n", m.Name)
		for _, c := range chores {
			mark := " "
			if c.Completed {
				mark = "x"
			}
			fmt.Fprintf(w, "  [%s] %s\n", mark, c.Name)
		}
	}
}
