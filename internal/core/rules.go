package core

import "familychores/pkg/domain"

// NewDefaultRulesEngine builds a rules engine with the built-in policy set that
// every backend evaluates inside its transactions.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewMemberNameRequiredRule())
	engine.Register(NewMemberInitialMatchesRule())
	engine.Register(NewWeeklyDaysRequiredRule())
	engine.Register(NewRecurrenceKnownRule())
	return engine
}

// createdMembers yields the members created by a transaction.
func createdMembers(changes []Change) []FamilyMember {
	var out []FamilyMember
	for _, change := range changes {
		if change.Entity != EntityMember || change.Action != ActionCreate {
			continue
		}
		if m, ok := change.After.(FamilyMember); ok {
			out = append(out, m)
		}
	}
	return out
}
