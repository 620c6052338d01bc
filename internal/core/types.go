package core

import "familychores/pkg/domain"

type (
	EntityType         = domain.EntityType
	FamilyMember       = domain.FamilyMember
	Chore              = domain.Chore
	ChoreUpdate        = domain.ChoreUpdate
	ChoreTemplate      = domain.ChoreTemplate
	Date               = domain.Date
	Recurrence         = domain.Recurrence
	Weekday            = domain.Weekday
	Severity           = domain.Severity
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RuleView           = domain.RuleView
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	Adapter            = domain.Adapter
	PersistentStore    = domain.PersistentStore
)

const (
	EntityMember   = domain.EntityMember
	EntityChore    = domain.EntityChore
	EntityTemplate = domain.EntityTemplate
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
