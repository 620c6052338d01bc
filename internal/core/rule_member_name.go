package core

import (
	"context"
	"familychores/pkg/domain"
	"fmt"
)

// NewMemberNameRequiredRule blocks members whose name is blank or not valid UTF-8.
func NewMemberNameRequiredRule() domain.Rule {
	return memberNameRequiredRule{}
}

type memberNameRequiredRule struct{}

func (memberNameRequiredRule) Name() string { return "member_name_required" }

func (memberNameRequiredRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, member := range createdMembers(changes) {
		err := domain.ValidateMemberName(member.Name)
		if err == nil {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "member_name_required",
			Severity: domain.SeverityBlock,
			Message:  err.Error(),
			Entity:   domain.EntityMember,
			EntityID: member.ID,
		})
	}
	return res, nil
}

// NewMemberInitialMatchesRule blocks members whose initial is not the upper-cased
// first letter of their name.
func NewMemberInitialMatchesRule() domain.Rule {
	return memberInitialMatchesRule{}
}

type memberInitialMatchesRule struct{}

func (memberInitialMatchesRule) Name() string { return "member_initial_matches" }

func (memberInitialMatchesRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, member := range createdMembers(changes) {
		want := domain.InitialFor(member.Name)
		if member.Initial == want {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "member_initial_matches",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("initial %q does not match name %q (want %q)", member.Initial, member.Name, want),
			Entity:   domain.EntityMember,
			EntityID: member.ID,
		})
	}
	return res, nil
}
