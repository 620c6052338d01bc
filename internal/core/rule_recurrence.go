package core

import (
	"context"
	"familychores/pkg/domain"
	"fmt"
)

// NewWeeklyDaysRequiredRule warns about weekly templates without days; they are never due.
func NewWeeklyDaysRequiredRule() domain.Rule {
	return weeklyDaysRequiredRule{}
}

type weeklyDaysRequiredRule struct{}

func (weeklyDaysRequiredRule) Name() string { return "weekly_days_required" }

func (weeklyDaysRequiredRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Action == domain.ActionDelete {
			continue
		}
		id, rec, days, ok := recurrenceOf(change)
		if !ok || rec != domain.RecurrenceWeekly || len(days) > 0 {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "weekly_days_required",
			Severity: domain.SeverityWarn,
			Message:  "weekly recurrence without days is never due",
			Entity:   change.Entity,
			EntityID: id,
		})
	}
	return res, nil
}

// NewRecurrenceKnownRule warns about recurrence values other than daily and weekly.
// Chores without a recurrence are manual and pass.
func NewRecurrenceKnownRule() domain.Rule {
	return recurrenceKnownRule{}
}

type recurrenceKnownRule struct{}

func (recurrenceKnownRule) Name() string { return "recurrence_known" }

func (recurrenceKnownRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Action == domain.ActionDelete {
			continue
		}
		id, rec, _, ok := recurrenceOf(change)
		if !ok || rec.Known() {
			continue
		}
		if rec == "" && change.Entity == domain.EntityChore {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "recurrence_known",
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("unknown recurrence %q is never due", rec),
			Entity:   change.Entity,
			EntityID: id,
		})
	}
	return res, nil
}

func recurrenceOf(change domain.Change) (string, domain.Recurrence, []domain.Weekday, bool) {
	switch v := change.After.(type) {
	case domain.ChoreTemplate:
		return v.ID, v.Recurrence, v.Days, true
	case domain.Chore:
		return v.ID, v.Recurrence, v.Days, true
	default:
		return "", "", nil, false
	}
}
